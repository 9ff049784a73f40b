package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"

	"venuepoint-terminal/internal/camera"
	"venuepoint-terminal/internal/decode"
	"venuepoint-terminal/internal/orchestrator"
	"venuepoint-terminal/internal/resolver"
	"venuepoint-terminal/internal/scan"
	"venuepoint-terminal/pkg/apierror"
	"venuepoint-terminal/pkg/response"
)

// ScanHandler owns the camera-driven identification path. It starts the
// scan session, runs the sampling loop, and feeds the first decoded code
// into the resolver. The session is stopped here on every exit path; the
// decoder never stops it itself.
type ScanHandler struct {
	manager  *camera.Manager
	decoder  decode.Decoder
	resolver *resolver.Resolver
	orch     *orchestrator.Orchestrator

	mu     sync.Mutex
	cancel context.CancelFunc // cancels the running sampling loop
}

// NewScanHandler creates a new scan handler. decoder may be nil when the
// terminal has no decoding capability; Start then reports unsupported and
// the UI falls back to manual code entry.
func NewScanHandler(manager *camera.Manager, decoder decode.Decoder, res *resolver.Resolver, orch *orchestrator.Orchestrator) *ScanHandler {
	return &ScanHandler{
		manager:  manager,
		decoder:  decoder,
		resolver: res,
		orch:     orch,
	}
}

// Start handles POST /scan/start. Starting while a session is active is a
// no-op returning the existing session.
func (h *ScanHandler) Start(w http.ResponseWriter, r *http.Request) {
	if h.decoder == nil {
		// Unsupported is reported once at session start, not per frame.
		response.Error(w, apierror.Conflict(scan.ErrUnsupported.Error()))
		return
	}

	if active := h.manager.Active(); active != nil {
		response.OK(w, map[string]interface{}{
			"session_id": active.ID(),
			"active":     true,
		})
		return
	}

	// The session outlives this request; acquisition is not tied to the
	// request context.
	session, err := h.manager.Start(context.Background())
	if err != nil {
		response.Error(w, apierror.Conflict(camera.AdvisoryFor(err)))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	h.mu.Lock()
	h.cancel = cancel
	h.mu.Unlock()

	h.orch.BeginIdentifying()

	go h.sample(ctx, session)

	response.OK(w, map[string]interface{}{
		"session_id": session.ID(),
		"active":     true,
	})
}

// sample runs the sampling loop for one session and always releases it.
func (h *ScanHandler) sample(ctx context.Context, session *camera.Session) {
	code, err := scan.Run(ctx, session.Frames(), h.decoder)

	// Single release point for this path; Stop is idempotent so an
	// explicit /scan/stop racing us is harmless.
	h.manager.Stop(session)

	h.mu.Lock()
	h.cancel = nil
	h.mu.Unlock()

	if err != nil {
		if !errors.Is(err, scan.ErrStopped) && !errors.Is(err, context.Canceled) {
			log.Printf("[Scan] sampling ended: %v", err)
		}
		return
	}

	if _, err := h.resolver.ResolveNow(resolver.KindCode, code); err != nil {
		log.Printf("[Scan] decoded code did not resolve: %v", err)
	}
}

// Stop handles POST /scan/stop. Idempotent: stopping with no active
// session succeeds.
func (h *ScanHandler) Stop(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.cancel != nil {
		h.cancel()
	}
	h.mu.Unlock()

	h.manager.Shutdown()

	response.OK(w, map[string]string{"status": "stopped"})
}

// Status handles GET /scan - whether a session is active.
func (h *ScanHandler) Status(w http.ResponseWriter, r *http.Request) {
	active := h.manager.Active()
	if active == nil {
		response.OK(w, map[string]interface{}{"active": false})
		return
	}
	response.OK(w, map[string]interface{}{
		"active":     true,
		"session_id": active.ID(),
	})
}

// Shutdown stops any running sampling loop and releases the camera.
// Called on process exit.
func (h *ScanHandler) Shutdown() {
	h.mu.Lock()
	if h.cancel != nil {
		h.cancel()
	}
	h.mu.Unlock()
	h.manager.Shutdown()
}
