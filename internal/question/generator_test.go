package question_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dqninh/classclash/internal/domain"
	"github.com/dqninh/classclash/internal/question"
)

func TestGenerator_Questions(t *testing.T) {
	tests := map[string]struct {
		handler http.HandlerFunc
		assert  func(t *testing.T, qs []domain.Question)
	}{
		"valid api reply is returned as-is": {
			handler: replyWith(validQuestionJSON(t)),
			assert: func(t *testing.T, qs []domain.Question) {
				require.Len(t, qs, domain.QuestionCount)
				assert.Equal(t, "Sample question 0?", qs[0].Text)
			},
		},

		"reply wrapped in markdown fences still parses": {
			handler: replyWith("```json\n" + validQuestionJSON(t) + "\n```"),
			assert: func(t *testing.T, qs []domain.Question) {
				require.Len(t, qs, domain.QuestionCount)
			},
		},

		"server error falls back": {
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			assert: assertFallback,
		},

		"garbage reply falls back": {
			handler: replyWith("I'm sorry, I can't help with quizzes."),
			assert:  assertFallback,
		},

		"wrong question count falls back": {
			handler: replyWith(`[{"question":"q","options":["a","b","c","d"],"correctAnswer":"a"}]`),
			assert:  assertFallback,
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			g := question.NewGenerator(question.Config{
				BaseURL: srv.URL,
				APIKey:  "test-key",
			})

			qs, err := g.Questions(context.Background(), "8", "Science")
			require.NoError(t, err)
			tt.assert(t, qs)
		})
	}
}

func TestGenerator_Unconfigured(t *testing.T) {
	g := question.NewGenerator(question.Config{})

	qs, err := g.Questions(context.Background(), "5", "English")
	require.NoError(t, err)
	assertFallback(t, qs)
}

func TestGenerator_CanceledContext(t *testing.T) {
	srv := httptest.NewServer(replyWith(validQuestionJSON(t)))
	defer srv.Close()

	g := question.NewGenerator(question.Config{BaseURL: srv.URL, APIKey: "k"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Questions(ctx, "8", "Science")
	require.Error(t, err)
}

func TestFallback_Deterministic(t *testing.T) {
	a := question.Fallback("8", "Science")
	b := question.Fallback("5", "English")

	require.Len(t, a, domain.QuestionCount)
	assert.Equal(t, a, b, "fallback set must not depend on grade or category")

	for i, q := range a {
		assert.True(t, q.Valid(), "fallback question %d must be valid", i)
	}
}

func assertFallback(t *testing.T, qs []domain.Question) {
	t.Helper()
	assert.Equal(t, question.Fallback("", ""), qs)
}

func validQuestionJSON(t *testing.T) string {
	t.Helper()

	qs := make([]domain.Question, domain.QuestionCount)
	for i := range qs {
		qs[i] = domain.Question{
			Text:          fmt.Sprintf("Sample question %d?", i),
			Options:       []string{"alpha", "beta", "gamma", "delta"},
			CorrectAnswer: "gamma",
		}
	}

	b, err := json.Marshal(qs)
	require.NoError(t, err)
	return string(b)
}

// replyWith wraps text in the candidates/content/parts envelope the API uses.
func replyWith(text string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"candidates": []any{
				map[string]any{
					"content": map[string]any{
						"parts": []any{map[string]any{"text": text}},
					},
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}
