package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"calc-history/internal/history"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// REST mirrors history records through a PostgREST endpoint such as the
// Supabase REST API (<base>/rest/v1/<table>).
type REST struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// restRow is the wire shape of one row.
type restRow struct {
	Calculation string    `json:"calculation"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewREST returns a store for baseURL. client may be nil, in which case an
// otelhttp-instrumented client is used.
func NewREST(baseURL, apiKey, table string, client *http.Client) *REST {
	if table == "" {
		table = DefaultTable
	}
	if client == nil {
		client = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   10 * time.Second,
		}
	}
	return &REST{
		endpoint: strings.TrimRight(baseURL, "/") + "/rest/v1/" + url.PathEscape(table),
		apiKey:   apiKey,
		client:   client,
	}
}

func (s *REST) Insert(ctx context.Context, rec history.Record) error {
	body, err := json.Marshal([]restRow{{Calculation: rec.Text, CreatedAt: rec.Timestamp.UTC()}})
	if err != nil {
		return fmt.Errorf("encode history record: %w", err)
	}

	req, err := s.newRequest(ctx, http.MethodPost, nil, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=minimal")

	_, err = s.do(req, "insert history record")
	return err
}

func (s *REST) List(ctx context.Context, limit int) ([]history.Record, error) {
	q := url.Values{}
	q.Set("select", "calculation,created_at")
	q.Set("order", "created_at.desc")
	q.Set("limit", strconv.Itoa(limit))

	req, err := s.newRequest(ctx, http.MethodGet, q, nil)
	if err != nil {
		return nil, err
	}

	body, err := s.do(req, "list history records")
	if err != nil {
		return nil, err
	}

	var rows []restRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode history records: %w", err)
	}

	records := make([]history.Record, len(rows))
	for i, row := range rows {
		records[i] = history.Record{Text: row.Calculation, Timestamp: row.CreatedAt}
	}
	return records, nil
}

// DeleteAll removes every row. PostgREST refuses an unfiltered DELETE, so the
// request filters on a condition every row satisfies.
func (s *REST) DeleteAll(ctx context.Context) error {
	q := url.Values{}
	q.Set("id", "neq.0")

	req, err := s.newRequest(ctx, http.MethodDelete, q, nil)
	if err != nil {
		return err
	}
	_, err = s.do(req, "delete history records")
	return err
}

func (s *REST) newRequest(ctx context.Context, method string, q url.Values, body io.Reader) (*http.Request, error) {
	target := s.endpoint
	if len(q) > 0 {
		target += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", method, err)
	}
	if s.apiKey != "" {
		req.Header.Set("apikey", s.apiKey)
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (s *REST) do(req *http.Request, what string) ([]byte, error) {
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", what, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s: %s: %s", what, resp.Status, strings.TrimSpace(string(body)))
	}
	return body, nil
}
