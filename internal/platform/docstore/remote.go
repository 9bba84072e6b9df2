package docstore

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// Remote talks to the legacy record store over its CRUD HTTP API. Timeout and
// retry policy live here; the domain layer never sees transport detail.
type Remote struct {
	client *resty.Client
	logger zerolog.Logger
}

func NewRemote(baseURL string, timeout time.Duration, logger zerolog.Logger) *Remote {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(3 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Remote{client: client, logger: logger}
}

type listResponse struct {
	Data  []*Record `json:"data"`
	Total int       `json:"total"`
}

type documentPayload struct {
	Document string `json:"documento"`
}

// req starts a request. The legacy store labels some responses text/plain;
// the body is parsed as JSON regardless of the advertised content type.
func (s *Remote) req(ctx context.Context) *resty.Request {
	return s.client.R().
		SetContext(ctx).
		ForceContentType("application/json")
}

// Ping checks that the remote store answers its health endpoint.
func (s *Remote) Ping(ctx context.Context) error {
	resp, err := s.req(ctx).Get("/health")
	if err != nil {
		return fmt.Errorf("ping store: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("ping store: returned %d", resp.StatusCode())
	}
	return nil
}

func (s *Remote) Get(ctx context.Context, col Collection, id string) (*Record, error) {
	var record Record
	resp, err := s.req(ctx).
		SetResult(&record).
		Get(fmt.Sprintf("/api/%s/%s", col, id))
	if err != nil {
		return nil, fmt.Errorf("get %s %s: %w", col, id, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.IsError() {
		return nil, fmt.Errorf("get %s %s: store returned %d", col, id, resp.StatusCode())
	}
	return &record, nil
}

func (s *Remote) List(ctx context.Context, col Collection, onlyActive bool, limit, offset int) ([]*Record, int, error) {
	req := s.req(ctx).
		SetQueryParam("limit", fmt.Sprintf("%d", limit)).
		SetQueryParam("offset", fmt.Sprintf("%d", offset))
	if onlyActive && col.HasLifecycle() {
		req.SetQueryParam("activo", "true")
	}

	var out listResponse
	resp, err := req.SetResult(&out).Get(fmt.Sprintf("/api/%s", col))
	if err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", col, err)
	}
	if resp.IsError() {
		return nil, 0, fmt.Errorf("list %s: store returned %d", col, resp.StatusCode())
	}

	s.logger.Debug().
		Str("collection", string(col)).
		Int("returned", len(out.Data)).
		Int("total", out.Total).
		Msg("listed records from remote store")
	return out.Data, out.Total, nil
}

func (s *Remote) Create(ctx context.Context, col Collection, document string) (*Record, error) {
	var record Record
	resp, err := s.req(ctx).
		SetBody(documentPayload{Document: document}).
		SetResult(&record).
		Post(fmt.Sprintf("/api/%s", col))
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", col, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("create %s: store returned %d", col, resp.StatusCode())
	}
	return &record, nil
}

func (s *Remote) Update(ctx context.Context, col Collection, id, document string) (*Record, error) {
	var record Record
	resp, err := s.req(ctx).
		SetBody(documentPayload{Document: document}).
		SetResult(&record).
		Put(fmt.Sprintf("/api/%s/%s", col, id))
	if err != nil {
		return nil, fmt.Errorf("update %s %s: %w", col, id, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.IsError() {
		return nil, fmt.Errorf("update %s %s: store returned %d", col, id, resp.StatusCode())
	}
	return &record, nil
}

func (s *Remote) Deactivate(ctx context.Context, col Collection, id string) error {
	if !col.HasLifecycle() {
		return fmt.Errorf("collection %s has no lifecycle flag", col)
	}
	resp, err := s.req(ctx).
		Delete(fmt.Sprintf("/api/%s/%s", col, id))
	if err != nil {
		return fmt.Errorf("deactivate %s %s: %w", col, id, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.IsError() {
		return fmt.Errorf("deactivate %s %s: store returned %d", col, id, resp.StatusCode())
	}
	return nil
}
