package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/benvon/smart-worklog/internal/logger"
	"github.com/benvon/smart-worklog/internal/models"
	"github.com/benvon/smart-worklog/internal/request"
	"github.com/benvon/smart-worklog/internal/worklog"
)

// WorklogHandler exposes the command flow over HTTP
type WorklogHandler struct {
	service *worklog.Service
	logger  *zap.Logger
}

// NewWorklogHandler creates a handler for service
func NewWorklogHandler(service *worklog.Service, zapLogger *zap.Logger) *WorklogHandler {
	if zapLogger == nil {
		zapLogger = zap.NewNop()
	}
	return &WorklogHandler{service: service, logger: zapLogger}
}

// RegisterRoutes registers command routes on an /api/v1 router
func (h *WorklogHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/parse", h.Parse).Methods(http.MethodPost)
	r.HandleFunc("/rank", h.Rank).Methods(http.MethodPost)
	r.HandleFunc("/commands", h.SubmitCommand).Methods(http.MethodPost)
	r.HandleFunc("/callbacks", h.Callback).Methods(http.MethodPost)
	r.HandleFunc("/selections/{id}", h.GetSelection).Methods(http.MethodGet)
	r.HandleFunc("/selections/{id}/resolve", h.ResolveSelection).Methods(http.MethodPost)
	r.HandleFunc("/selections/{id}/cancel", h.CancelSelection).Methods(http.MethodPost)
}

type parseRequest struct {
	Text string `json:"text" validate:"required,max=4000"`
}

type rankRequest struct {
	Query   string           `json:"query" validate:"required,max=500"`
	Catalog []models.Project `json:"catalog,omitempty" validate:"omitempty,max=1000,dive"`
}

type ownerRequest struct {
	OwnerID string `json:"owner_id" validate:"required,max=128"`
}

type resolveRequest struct {
	OwnerID string `json:"owner_id" validate:"required,max=128"`
	Index   *int   `json:"index" validate:"required,min=0"`
}

type callbackRequest struct {
	OwnerID string `json:"owner_id" validate:"required,max=128"`
	Data    string `json:"data" validate:"required,max=64"`
}

// Parse handles POST /api/v1/parse
func (h *WorklogHandler) Parse(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if !h.decode(w, r, &req, nil) {
		return
	}

	cmd, err := h.service.Parse(r.Context(), req.Text)
	if err != nil {
		respondCommandError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, cmd)
}

// Rank handles POST /api/v1/rank
func (h *WorklogHandler) Rank(w http.ResponseWriter, r *http.Request) {
	var req rankRequest
	if !h.decode(w, r, &req, nil) {
		return
	}

	ranking, err := h.service.Rank(r.Context(), req.Query, req.Catalog)
	if err != nil {
		respondCommandError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, ranking)
}

// SubmitCommand handles POST /api/v1/commands. A pending selection is
// answered with 202 Accepted.
func (h *WorklogHandler) SubmitCommand(w http.ResponseWriter, r *http.Request) {
	var sub worklog.Submission
	if !h.decode(w, r, &sub, &sub.OwnerID) {
		return
	}
	if sub.Source == "" {
		sub.Source = worklog.SourceTyped
	}

	out, err := h.service.Submit(r.Context(), sub)
	if err != nil {
		h.logger.Debug("command_rejected",
			zap.String("request_id", request.RequestID(r.Context())),
			zap.String("kind", string(models.KindOf(err))),
			zap.String("text", logger.SanitizeCommandText(sub.Text)),
		)
		respondCommandError(w, r, err, h.logger)
		return
	}

	status := http.StatusOK
	if out.Status == worklog.StatusPending {
		status = http.StatusAccepted
	}
	respondJSON(w, status, out)
}

// Callback handles POST /api/v1/callbacks with an encoded keyboard payload
func (h *WorklogHandler) Callback(w http.ResponseWriter, r *http.Request) {
	var req callbackRequest
	if !h.decode(w, r, &req, &req.OwnerID) {
		return
	}

	out, err := h.service.HandleCallback(r.Context(), req.OwnerID, req.Data)
	if err != nil {
		respondCommandError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

// GetSelection handles GET /api/v1/selections/{id}?owner_id=
func (h *WorklogHandler) GetSelection(w http.ResponseWriter, r *http.Request) {
	req := ownerRequest{OwnerID: ownerFor(r, r.URL.Query().Get("owner_id"))}
	if err := validateRequest(req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	sel, err := h.service.Selection(r.Context(), mux.Vars(r)["id"], req.OwnerID)
	if err != nil {
		respondCommandError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, sel)
}

// ResolveSelection handles POST /api/v1/selections/{id}/resolve
func (h *WorklogHandler) ResolveSelection(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if !h.decode(w, r, &req, &req.OwnerID) {
		return
	}

	out, err := h.service.Resolve(r.Context(), mux.Vars(r)["id"], req.OwnerID, *req.Index)
	if err != nil {
		respondCommandError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

// CancelSelection handles POST /api/v1/selections/{id}/cancel
func (h *WorklogHandler) CancelSelection(w http.ResponseWriter, r *http.Request) {
	var req ownerRequest
	if !h.decode(w, r, &req, &req.OwnerID) {
		return
	}

	out, err := h.service.Cancel(r.Context(), mux.Vars(r)["id"], req.OwnerID)
	if err != nil {
		respondCommandError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

// decode reads and validates the body into dst, filling owner from the
// transport header when one is set. It answers 400 itself on failure.
func (h *WorklogHandler) decode(w http.ResponseWriter, r *http.Request, dst any, owner *string) bool {
	if err := decodeJSON(r, dst); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return false
	}
	if owner != nil {
		*owner = ownerFor(r, *owner)
	}
	if err := validateRequest(dst); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return false
	}
	return true
}
