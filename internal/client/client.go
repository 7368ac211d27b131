// Package client is the HTTP consumer of the score API. It satisfies the
// engine's score store and the dashboard's store, so a session can run
// against a remote server exactly as it runs against in-process services.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dqninh/classclash/internal/domain"
	"github.com/dqninh/classclash/internal/errors"
)

type Config struct {
	// BaseURL is the server root, e.g. "http://localhost:8080".
	BaseURL string
	Timeout time.Duration

	HTTPClient *http.Client
}

type Client struct {
	baseURL string
	hc      *http.Client
}

func New(c Config) *Client {
	if c.Timeout == 0 {
		c.Timeout = 10 * time.Second
	}
	hc := c.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: c.Timeout}
	}
	return &Client{
		baseURL: strings.TrimRight(c.BaseURL, "/"),
		hc:      hc,
	}
}

// SubmitScore posts one score record. Server-assigned fields in rec are
// ignored.
func (c *Client) SubmitScore(ctx context.Context, rec domain.ScoreRecord) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal score: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/scores", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, nil)
}

// Leaderboard fetches the full ordered score list.
func (c *Client) Leaderboard(ctx context.Context) ([]domain.ScoreRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/leaderboard", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	var records []domain.ScoreRecord
	if err := c.do(req, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// DeleteScore removes one record by id.
func (c *Client) DeleteScore(ctx context.Context, id int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.baseURL+"/api/scores/"+strconv.FormatInt(id, 10), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	return c.do(req, nil)
}

func (c *Client) do(req *http.Request, out any) error {
	res, err := c.hc.Do(req)
	if err != nil {
		return errors.New(errors.CodeUnavailable, errors.WithCause(err), errors.WithMessagef("call %s", req.URL.Path))
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if res.StatusCode != http.StatusOK {
		return errorFromResponse(res.StatusCode, body)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func errorFromResponse(status int, body []byte) error {
	var e struct {
		Error string `json:"error"`
	}
	msg := http.StatusText(status)
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		msg = e.Error
	}

	code := errors.CodeInternal
	switch {
	case status == http.StatusBadRequest:
		code = errors.CodeInvalidArgument
	case status == http.StatusNotFound:
		code = errors.CodeNotFound
	case status >= http.StatusInternalServerError:
		code = errors.CodeUnavailable
	}

	return errors.New(code, errors.WithMessagef("%s", msg))
}
