package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"bridgeDrip/internal/model"
)

// StatusReader returns the current operator counters.
type StatusReader interface {
	ReadStatus() model.OperatorStatus
}

// AuditReader returns the audit log entries in append order.
type AuditReader interface {
	Read() ([]model.AuditEntry, error)
}

// Handler serves the read-only status surface. It has no write access to
// any of the stores.
type Handler struct {
	status StatusReader
	audit  AuditReader
	logger *zap.Logger
}

func NewHandler(status StatusReader, audit AuditReader, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		status: status,
		audit:  audit,
		logger: logger,
	}
}

// HandleHealth returns service liveness.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleStatus handles GET /status with the current OperatorStatus record.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.status.ReadStatus())
}

// HandleLog handles GET /log with the full audit log.
func (h *Handler) HandleLog(w http.ResponseWriter, r *http.Request) {
	entries, err := h.audit.Read()
	if err != nil {
		h.logger.Error("read audit log failed", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
