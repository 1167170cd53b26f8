// Package health reports whether the record store is reachable, over HTTP
// and the standard gRPC health protocol.
package health

import (
	"context"
	"net/http"
	"time"

	"userdirectory/internal/common"
)

const pingTimeout = 2 * time.Second

// Pinger is anything with a liveness probe, usually the record store.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Status struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Error   string `json:"error,omitempty"`
}

type Handler struct {
	pinger  Pinger
	service string
}

func NewHandler(pinger Pinger, service string) *Handler {
	return &Handler{pinger: pinger, service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := check(r.Context(), h.pinger); err != nil {
		common.WriteJSON(w, http.StatusServiceUnavailable, Status{Status: "unhealthy", Service: h.service, Error: err.Error()})
		return
	}
	common.WriteJSON(w, http.StatusOK, Status{Status: "healthy", Service: h.service})
}

func check(ctx context.Context, pinger Pinger) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return pinger.Ping(ctx)
}
