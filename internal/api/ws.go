package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/dqninh/classclash/internal/engine"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// serveSession runs one quiz session over a websocket: inbound messages are
// translated into engine events, and every state change is pushed back as a
// session snapshot.
func (a *API) serveSession(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.WarnContext(c.Request.Context(), "api: ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	sid := uuid.NewString()
	slog.InfoContext(ctx, "api: session started", "session_id", sid)
	defer slog.InfoContext(ctx, "api: session closed", "session_id", sid)

	eng := a.newEngine()
	go eng.Run(ctx)

	// Writes are confined to one goroutine; gorilla conns do not allow
	// concurrent writers.
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case <-ctx.Done():
				return
			case snap := <-eng.Updates():
				if err := conn.WriteJSON(outboundMessage{Type: "session", Payload: snap}); err != nil {
					return
				}
			}
		}
	}()

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}

		ev, err := decodeEvent(msg)
		if err != nil {
			slog.WarnContext(ctx, "api: ws message rejected", "session_id", sid, "type", msg.Type, "error", err)
			continue
		}
		eng.Post(ev)
	}

	cancel()
	<-writerDone
}

func decodeEvent(msg inboundMessage) (engine.Event, error) {
	unmarshal := func(v any) error {
		if len(msg.Payload) == 0 {
			return nil
		}
		return json.Unmarshal(msg.Payload, v)
	}

	switch msg.Type {
	case "pin":
		var p struct {
			PIN string `json:"pin"`
		}
		if err := unmarshal(&p); err != nil {
			return nil, err
		}
		return engine.SubmitPIN{PIN: p.PIN}, nil

	case "enter_setup":
		return engine.EnterSetup{}, nil

	case "name":
		var p struct {
			Name string `json:"name"`
		}
		if err := unmarshal(&p); err != nil {
			return nil, err
		}
		return engine.SubmitName{Name: p.Name}, nil

	case "grade":
		var p struct {
			Grade string `json:"grade"`
		}
		if err := unmarshal(&p); err != nil {
			return nil, err
		}
		return engine.ChooseGrade{Grade: p.Grade}, nil

	case "category":
		var p struct {
			Category string `json:"category"`
		}
		if err := unmarshal(&p); err != nil {
			return nil, err
		}
		return engine.ChooseCategory{Category: p.Category}, nil

	case "back_to_grade":
		return engine.BackToGrade{}, nil

	case "start_quiz":
		return engine.StartQuiz{}, nil

	case "answer":
		var p struct {
			Option string `json:"option"`
		}
		if err := unmarshal(&p); err != nil {
			return nil, err
		}
		return engine.Answer{Option: p.Option}, nil

	case "open_save_form":
		return engine.OpenSaveForm{}, nil

	case "submit_score":
		var p struct {
			Name     string `json:"name"`
			Grade    string `json:"grade"`
			Category string `json:"category"`
		}
		if err := unmarshal(&p); err != nil {
			return nil, err
		}
		return engine.SubmitScore{Name: p.Name, Grade: p.Grade, Category: p.Category}, nil

	case "set_filter":
		var p struct {
			Filter string `json:"filter"`
		}
		if err := unmarshal(&p); err != nil {
			return nil, err
		}
		return engine.SetFilter{Filter: p.Filter}, nil

	case "delete_score":
		var p struct {
			ID int64 `json:"id"`
		}
		if err := unmarshal(&p); err != nil {
			return nil, err
		}
		return engine.DeleteScore{ID: p.ID}, nil

	case "play_again":
		return engine.PlayAgain{}, nil

	case "go_home":
		return engine.GoHome{}, nil
	}

	return nil, errUnknownMessage(msg.Type)
}

type errUnknownMessage string

func (e errUnknownMessage) Error() string { return "unknown message type: " + string(e) }
