package sources

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sightcast-hq/sightcast-coordinator/internal/coordinator"
	"github.com/sightcast-hq/sightcast-coordinator/internal/domain"
	"github.com/sightcast-hq/sightcast-coordinator/internal/logger"
)

const (
	webhookSourceLabel  = "webhook"
	webhookSecretHeader = "X-Webhook-Secret"
	maxSightingBytes    = 256 << 10
)

// Admin is the engine's operational surface exposed over HTTP.
type Admin interface {
	GetStats() coordinator.Stats
	GetQueueInfo() coordinator.QueueInfo
	ResetMetrics()
	ForceClearQueue(reason string) int
	UpdateSourcePriority(order []string) error
}

// WebhookServer receives push sightings over HTTP and exposes the admin
// endpoints. It is the highest-trust discovery channel.
type WebhookServer struct {
	processor Processor
	admin     Admin
	secret    string
	log       logger.Logger
	srv       *http.Server
}

// NewWebhookServer builds the HTTP receiver. An empty secret disables
// authentication; meant for local runs only.
func NewWebhookServer(addr, secret string, processor Processor, admin Admin, log logger.Logger) (*WebhookServer, error) {
	if processor == nil {
		return nil, fmt.Errorf("processor must not be nil")
	}
	if strings.TrimSpace(addr) == "" {
		return nil, fmt.Errorf("listen address must not be empty")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}

	w := &WebhookServer{
		processor: processor,
		admin:     admin,
		secret:    strings.TrimSpace(secret),
		log:       log,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/sightings", w.handleSighting)
	mux.HandleFunc("GET /v1/stats", w.handleStats)
	mux.HandleFunc("GET /v1/queue", w.handleQueue)
	mux.HandleFunc("POST /v1/queue/clear", w.handleQueueClear)
	mux.HandleFunc("POST /v1/metrics/reset", w.handleMetricsReset)
	mux.HandleFunc("PUT /v1/priority", w.handlePriority)
	mux.HandleFunc("GET /healthz", func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusNoContent)
	})

	w.srv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return w, nil
}

// Handler exposes the mux for tests.
func (w *WebhookServer) Handler() http.Handler { return w.srv.Handler }

// ListenAndServe runs the server until Shutdown. The http.ErrServerClosed
// sentinel is swallowed.
func (w *WebhookServer) ListenAndServe() error {
	w.log.InfoObj("webhook listener starting", "listen_addr", w.srv.Addr)
	if err := w.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains the server gracefully.
func (w *WebhookServer) Shutdown(ctx context.Context) error {
	return w.srv.Shutdown(ctx)
}

func (w *WebhookServer) handleSighting(rw http.ResponseWriter, req *http.Request) {
	if !w.authorized(req) {
		writeJSONError(rw, http.StatusUnauthorized, "invalid webhook secret")
		return
	}

	var s domain.Sighting
	dec := json.NewDecoder(http.MaxBytesReader(rw, req.Body, maxSightingBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		writeJSONError(rw, http.StatusBadRequest, "invalid sighting payload: "+err.Error())
		return
	}
	if strings.TrimSpace(s.ID) == "" {
		writeJSONError(rw, http.StatusBadRequest, "sighting id is required")
		return
	}
	if strings.TrimSpace(s.Source) == "" {
		s.Source = webhookSourceLabel
	}

	outcome, err := w.processor.ProcessContent(req.Context(), s.ID, s.Source, s.Payload)
	if err != nil {
		if errors.Is(err, coordinator.ErrEmptyContentID) {
			writeJSONError(rw, http.StatusBadRequest, err.Error())
			return
		}
		w.log.ErrorObj("webhook sighting processing failed", "webhook_error", map[string]any{
			"content_id": s.ID,
			"error":      err.Error(),
		})
		writeJSONError(rw, http.StatusInternalServerError, "processing failed")
		return
	}

	writeJSON(rw, http.StatusOK, outcome)
}

func (w *WebhookServer) handleStats(rw http.ResponseWriter, req *http.Request) {
	if w.admin == nil {
		writeJSONError(rw, http.StatusNotFound, "admin surface disabled")
		return
	}
	writeJSON(rw, http.StatusOK, w.admin.GetStats())
}

func (w *WebhookServer) handleQueue(rw http.ResponseWriter, req *http.Request) {
	if w.admin == nil {
		writeJSONError(rw, http.StatusNotFound, "admin surface disabled")
		return
	}
	writeJSON(rw, http.StatusOK, w.admin.GetQueueInfo())
}

func (w *WebhookServer) handleQueueClear(rw http.ResponseWriter, req *http.Request) {
	if w.admin == nil {
		writeJSONError(rw, http.StatusNotFound, "admin surface disabled")
		return
	}
	if !w.authorized(req) {
		writeJSONError(rw, http.StatusUnauthorized, "invalid webhook secret")
		return
	}
	reason := strings.TrimSpace(req.URL.Query().Get("reason"))
	if reason == "" {
		reason = "manual"
	}
	cleared := w.admin.ForceClearQueue(reason)
	writeJSON(rw, http.StatusOK, map[string]any{"cleared": cleared, "reason": reason})
}

func (w *WebhookServer) handleMetricsReset(rw http.ResponseWriter, req *http.Request) {
	if w.admin == nil {
		writeJSONError(rw, http.StatusNotFound, "admin surface disabled")
		return
	}
	if !w.authorized(req) {
		writeJSONError(rw, http.StatusUnauthorized, "invalid webhook secret")
		return
	}
	w.admin.ResetMetrics()
	rw.WriteHeader(http.StatusNoContent)
}

func (w *WebhookServer) handlePriority(rw http.ResponseWriter, req *http.Request) {
	if w.admin == nil {
		writeJSONError(rw, http.StatusNotFound, "admin surface disabled")
		return
	}
	if !w.authorized(req) {
		writeJSONError(rw, http.StatusUnauthorized, "invalid webhook secret")
		return
	}

	var body struct {
		Order []string `json:"order"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(rw, req.Body, maxSightingBytes)).Decode(&body); err != nil {
		writeJSONError(rw, http.StatusBadRequest, "invalid priority payload: "+err.Error())
		return
	}
	if err := w.admin.UpdateSourcePriority(body.Order); err != nil {
		writeJSONError(rw, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(rw, http.StatusOK, map[string]any{"order": body.Order})
}

func (w *WebhookServer) authorized(req *http.Request) bool {
	if w.secret == "" {
		return true
	}
	got := req.Header.Get(webhookSecretHeader)
	return subtle.ConstantTimeCompare([]byte(got), []byte(w.secret)) == 1
}

func writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(v)
}

func writeJSONError(rw http.ResponseWriter, status int, msg string) {
	writeJSON(rw, status, map[string]string{"error": msg})
}
