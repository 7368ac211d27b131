package event_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dqninh/classclash/internal/event"
)

type eventWithName string

func (e eventWithName) Name() string { return string(e) }

func TestBus_PublishSubscribe(t *testing.T) {
	type (
		inputs struct {
			published   []event.Event
			subscribers map[string][]string // subscriber name -> event names
		}

		outputs struct {
			received map[string][]event.Event
		}
	)

	tests := map[string]struct {
		arrange func() inputs
		assert  func(t *testing.T, out outputs)
	}{
		"subscriber only receives its event": {
			arrange: func() inputs {
				return inputs{
					published:   []event.Event{eventWithName("score.submitted"), eventWithName("score.deleted")},
					subscribers: map[string][]string{"s1": {"score.submitted"}},
				}
			},
			assert: func(t *testing.T, out outputs) {
				assert.ElementsMatch(t, []event.Event{eventWithName("score.submitted")}, out.received["s1"])
			},
		},

		"repeated events are all delivered": {
			arrange: func() inputs {
				return inputs{
					published:   []event.Event{eventWithName("score.submitted"), eventWithName("score.submitted")},
					subscribers: map[string][]string{"s1": {"score.submitted"}},
				}
			},
			assert: func(t *testing.T, out outputs) {
				assert.Len(t, out.received["s1"], 2)
			},
		},

		"event fans out to all subscribers": {
			arrange: func() inputs {
				return inputs{
					published: []event.Event{eventWithName("score.deleted")},
					subscribers: map[string][]string{
						"s1": {"score.deleted"},
						"s2": {"score.deleted"},
					},
				}
			},
			assert: func(t *testing.T, out outputs) {
				assert.Len(t, out.received["s1"], 1)
				assert.Len(t, out.received["s2"], 1)
			},
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			in := tt.arrange()
			var mu sync.Mutex
			out := outputs{received: make(map[string][]event.Event)}

			b := event.NewBus()
			for name, events := range in.subscribers {
				name := name
				for _, e := range events {
					b.Subscribe(e, func(ctx context.Context, e event.Event) error {
						mu.Lock()
						out.received[name] = append(out.received[name], e)
						mu.Unlock()
						return nil
					})
				}
			}

			for _, e := range in.published {
				b.Publish(context.Background(), e)
			}
			b.Stop()

			tt.assert(t, out)
		})
	}
}
