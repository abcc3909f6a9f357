package sources

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/sightcast-hq/sightcast-coordinator/internal/coordinator"
	"github.com/sightcast-hq/sightcast-coordinator/internal/domain"
)

type fakeProcessor struct {
	mu      sync.Mutex
	calls   []domain.Sighting
	outcome *domain.Outcome
	err     error
}

func (p *fakeProcessor) ProcessContent(ctx context.Context, id, source string, payload domain.SightingPayload) (*domain.Outcome, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, domain.Sighting{ID: id, Source: source, Payload: payload})
	if p.err != nil {
		return nil, p.err
	}
	if p.outcome != nil {
		return p.outcome, nil
	}
	return &domain.Outcome{Action: domain.ActionAnnounced, ContentID: id, Source: source, Delivered: 1}, nil
}

type fakeAdmin struct {
	priority []string
	cleared  int
	reset    bool
}

func (a *fakeAdmin) GetStats() coordinator.Stats {
	return coordinator.Stats{QueueSize: 1, SourcePriority: []string{"webhook"}}
}

func (a *fakeAdmin) GetQueueInfo() coordinator.QueueInfo {
	return coordinator.QueueInfo{Size: 1, ContentIDs: []string{"vid-1"}}
}

func (a *fakeAdmin) ResetMetrics() { a.reset = true }

func (a *fakeAdmin) ForceClearQueue(reason string) int {
	a.cleared++
	return 2
}

func (a *fakeAdmin) UpdateSourcePriority(order []string) error {
	if len(order) == 0 {
		return coordinator.ErrEmptyPriorityOrder
	}
	a.priority = order
	return nil
}

func newTestServer(t *testing.T, secret string, proc *fakeProcessor, admin Admin) *WebhookServer {
	t.Helper()
	srv, err := NewWebhookServer("127.0.0.1:0", secret, proc, admin, nil)
	if err != nil {
		t.Fatalf("NewWebhookServer: %v", err)
	}
	return srv
}

func TestWebhookSighting(t *testing.T) {
	proc := &fakeProcessor{}
	srv := newTestServer(t, "", proc, nil)

	body := `{"id":"dQw4w9WgXcQ","payload":{"url":"https://youtu.be/dQw4w9WgXcQ","title":"hi"}}`
	req := httptest.NewRequest(http.MethodPost, "/v1/sightings", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var out domain.Outcome
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode outcome: %v", err)
	}
	if out.Action != domain.ActionAnnounced {
		t.Fatalf("outcome = %+v, want announced", out)
	}

	if len(proc.calls) != 1 {
		t.Fatalf("processor called %d times, want 1", len(proc.calls))
	}
	if proc.calls[0].Source != "webhook" {
		t.Fatalf("source defaulted to %q, want webhook", proc.calls[0].Source)
	}
}

func TestWebhookSightingValidation(t *testing.T) {
	proc := &fakeProcessor{}
	srv := newTestServer(t, "", proc, nil)

	cases := []struct {
		name string
		body string
	}{
		{"not json", "nope"},
		{"missing id", `{"payload":{"title":"x"}}`},
		{"unknown field", `{"id":"a","bogus":true}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/sightings", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
		})
	}
	if len(proc.calls) != 0 {
		t.Fatalf("processor called %d times for invalid payloads", len(proc.calls))
	}
}

func TestWebhookSecret(t *testing.T) {
	proc := &fakeProcessor{}
	srv := newTestServer(t, "hunter2", proc, nil)

	body := `{"id":"vid-1","payload":{}}`
	req := httptest.NewRequest(http.MethodPost, "/v1/sightings", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status without secret = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/v1/sightings", strings.NewReader(body))
	req.Header.Set(webhookSecretHeader, "hunter2")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status with secret = %d, want 200", rec.Code)
	}
}

func TestWebhookProcessingError(t *testing.T) {
	proc := &fakeProcessor{err: errors.New("sinks down")}
	srv := newTestServer(t, "", proc, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/sightings", strings.NewReader(`{"id":"vid-1","payload":{}}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestAdminEndpoints(t *testing.T) {
	admin := &fakeAdmin{}
	srv := newTestServer(t, "", &fakeProcessor{}, admin)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/stats", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("stats status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/queue", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("queue status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/queue/clear?reason=stuck", nil))
	if rec.Code != http.StatusOK || admin.cleared != 1 {
		t.Fatalf("queue clear status = %d, cleared = %d", rec.Code, admin.cleared)
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/metrics/reset", nil))
	if rec.Code != http.StatusNoContent || !admin.reset {
		t.Fatalf("metrics reset status = %d, reset = %v", rec.Code, admin.reset)
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/v1/priority", strings.NewReader(`{"order":["api","webhook"]}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("priority status = %d, body %s", rec.Code, rec.Body.String())
	}
	if len(admin.priority) != 2 || admin.priority[0] != "api" {
		t.Fatalf("priority = %v", admin.priority)
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/v1/priority", strings.NewReader(`{"order":[]}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty priority status = %d, want 400", rec.Code)
	}
}

func TestAdminDisabled(t *testing.T) {
	srv := newTestServer(t, "", &fakeProcessor{}, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/stats", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("stats status = %d, want 404", rec.Code)
	}
}
