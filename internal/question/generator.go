package question

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dqninh/classclash/internal/domain"
)

var generatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "classclash_questions_generated_total",
	Help: "Question sets served, by source.",
}, []string{"source"})

type Config struct {
	// BaseURL of the generative API, e.g. https://generativelanguage.googleapis.com.
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration

	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client
}

// Generator produces quiz questions for a (grade, category) pair by prompting
// a generative text API. Failures of any kind degrade to the built-in
// deterministic set; a session is never left unpopulated.
type Generator struct {
	c      Config
	client *http.Client
}

func NewGenerator(c Config) *Generator {
	if c.Model == "" {
		c.Model = "gemini-1.5-flash"
	}
	if c.Timeout == 0 {
		c.Timeout = 20 * time.Second
	}

	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: c.Timeout}
	}

	return &Generator{c: c, client: client}
}

// Questions returns exactly domain.QuestionCount questions for the pair.
// It only fails when ctx is done; any API failure falls back silently.
func (g *Generator) Questions(ctx context.Context, grade, category string) ([]domain.Question, error) {
	qs, err := g.generate(ctx, grade, category)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		slog.WarnContext(ctx, "question: generation failed, using fallback set",
			"grade", grade,
			"category", category,
			"error", err,
		)
		generatedTotal.WithLabelValues("fallback").Inc()
		return Fallback(grade, category), nil
	}

	generatedTotal.WithLabelValues("api").Inc()
	return qs, nil
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

func (g *Generator) generate(ctx context.Context, grade, category string) ([]domain.Question, error) {
	if g.c.BaseURL == "" || g.c.APIKey == "" {
		return nil, fmt.Errorf("generator not configured")
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt(grade, category)}}}},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", strings.TrimSuffix(g.c.BaseURL, "/"), g.c.Model, g.c.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("api status %d", resp.StatusCode)
	}

	var gr generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty response")
	}

	return parseQuestions(gr.Candidates[0].Content.Parts[0].Text)
}

// parseQuestions extracts the JSON question array from the model's reply.
// Models routinely wrap JSON in markdown fences.
func parseQuestions(text string) ([]domain.Question, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var qs []domain.Question
	if err := json.Unmarshal([]byte(text), &qs); err != nil {
		return nil, fmt.Errorf("unmarshal questions: %w", err)
	}

	if len(qs) != domain.QuestionCount {
		return nil, fmt.Errorf("expected %d questions, got %d", domain.QuestionCount, len(qs))
	}
	for i, q := range qs {
		if !q.Valid() {
			return nil, fmt.Errorf("question %d invalid", i)
		}
	}

	return qs, nil
}

func prompt(grade, category string) string {
	return fmt.Sprintf(`Generate exactly %d multiple-choice quiz questions for a grade %s student on the topic "%s".
Reply with only a JSON array, no prose. Each element must have:
"question": the question text,
"options": exactly 4 distinct answer strings,
"correctAnswer": one of the options, verbatim.`, domain.QuestionCount, grade, category)
}
