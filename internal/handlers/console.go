package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/jjudge-oj/useradmin/internal/console"
	"github.com/jjudge-oj/useradmin/internal/report"
	"github.com/jjudge-oj/useradmin/internal/services"
)

const maxBodyBytes = 1 << 20

// StateResponse is returned by every console action.
type StateResponse struct {
	State console.State     `json:"state"`
	Table console.TableView `json:"table"`
}

// SearchRequest sets the console query.
type SearchRequest struct {
	Query string `json:"query"`
}

// ConsoleHandler exposes the console over HTTP.
type ConsoleHandler struct {
	console *console.Console
	reports *services.ReportService
	logger  *zap.Logger
	now     func() time.Time
}

// NewConsoleHandler constructs a handler for c.
func NewConsoleHandler(c *console.Console, reports *services.ReportService, logger *zap.Logger) *ConsoleHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleHandler{
		console: c,
		reports: reports,
		logger:  logger,
		now:     time.Now,
	}
}

// ConsoleRouter registers console routes on the given router.
func ConsoleRouter(r chi.Router, c *console.Console, reports *services.ReportService, logger *zap.Logger) {
	handler := NewConsoleHandler(c, reports, logger)

	r.Get("/state", handler.GetState)
	r.Post("/refresh", handler.Refresh)
	r.Post("/search", handler.Search)
	r.Get("/users", handler.ListUsers)
	r.Route("/users/{userID}", func(r chi.Router) {
		r.Post("/edit", handler.BeginEdit)
		r.Post("/delete", handler.RequestDelete)
	})
	r.Route("/edit", func(r chi.Router) {
		r.Patch("/", handler.ChangeDraft)
		r.Post("/submit", handler.SubmitDraft)
		r.Post("/cancel", handler.CancelEdit)
	})
	r.Route("/delete", func(r chi.Router) {
		r.Post("/confirm", handler.ConfirmDelete)
		r.Post("/cancel", handler.CancelDelete)
	})
	r.Get("/report.pdf", handler.DownloadReport)
}

func (h *ConsoleHandler) GetState(w http.ResponseWriter, r *http.Request) {
	h.writeState(w, http.StatusOK)
}

func (h *ConsoleHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.console.View())
}

func (h *ConsoleHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.console.Refresh(r.Context()); err != nil {
		h.writeActionError(w, err)
		return
	}
	h.writeState(w, http.StatusOK)
}

func (h *ConsoleHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.console.Search(req.Query)
	h.writeState(w, http.StatusOK)
}

func (h *ConsoleHandler) BeginEdit(w http.ResponseWriter, r *http.Request) {
	if _, err := h.console.Edit(userIDParam(r)); err != nil {
		h.writeActionError(w, err)
		return
	}
	h.writeState(w, http.StatusOK)
}

// ChangeDraft applies every field in the body to the edit buffer. The body
// maps field names to their new values.
func (h *ConsoleHandler) ChangeDraft(w http.ResponseWriter, r *http.Request) {
	var changes map[string]string
	if err := decodeBody(w, r, &changes); err != nil || len(changes) == 0 {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	for field := range changes {
		if !console.KnownField(field) {
			writeError(w, http.StatusBadRequest, console.ErrUnknownField.Error()+": "+field)
			return
		}
	}
	for field, value := range changes {
		if _, err := h.console.Change(field, value); err != nil {
			h.writeActionError(w, err)
			return
		}
	}
	h.writeState(w, http.StatusOK)
}

func (h *ConsoleHandler) SubmitDraft(w http.ResponseWriter, r *http.Request) {
	if err := h.console.Submit(r.Context()); err != nil {
		h.writeActionError(w, err)
		return
	}
	h.writeState(w, http.StatusOK)
}

func (h *ConsoleHandler) CancelEdit(w http.ResponseWriter, r *http.Request) {
	if _, err := h.console.CancelEdit(); err != nil {
		h.writeActionError(w, err)
		return
	}
	h.writeState(w, http.StatusOK)
}

func (h *ConsoleHandler) RequestDelete(w http.ResponseWriter, r *http.Request) {
	if _, err := h.console.Delete(userIDParam(r)); err != nil {
		h.writeActionError(w, err)
		return
	}
	h.writeState(w, http.StatusOK)
}

func (h *ConsoleHandler) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.console.ConfirmDelete(r.Context()); err != nil {
		h.writeActionError(w, err)
		return
	}
	h.writeState(w, http.StatusOK)
}

func (h *ConsoleHandler) CancelDelete(w http.ResponseWriter, r *http.Request) {
	if _, err := h.console.CancelDelete(); err != nil {
		h.writeActionError(w, err)
		return
	}
	h.writeState(w, http.StatusOK)
}

// DownloadReport renders the users matching the current query as a PDF
// attachment.
func (h *ConsoleHandler) DownloadReport(w http.ResponseWriter, r *http.Request) {
	doc := h.console.Report(h.now())
	data, err := h.reports.Export(r.Context(), doc)
	if err != nil {
		h.logger.Error("export report", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to generate report")
		return
	}

	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.FileName+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *ConsoleHandler) writeState(w http.ResponseWriter, status int) {
	state := h.console.Snapshot()
	writeJSON(w, status, StateResponse{State: state, Table: console.Table(state)})
}

func (h *ConsoleHandler) writeActionError(w http.ResponseWriter, err error) {
	var validationErr *console.ValidationError
	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Fields: validationErr.Fields})
	case errors.Is(err, console.ErrUnknownUser):
		writeError(w, http.StatusNotFound, "user not found")
	case errors.Is(err, console.ErrUnknownField):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, console.ErrInvalidTransition), errors.Is(err, console.ErrBusy):
		writeError(w, http.StatusConflict, err.Error())
	case services.IsTransportError(err):
		writeError(w, http.StatusBadGateway, h.noticeOr(err))
	default:
		h.logger.Error("console action", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// noticeOr prefers the operator notice raised by the failed action.
func (h *ConsoleHandler) noticeOr(err error) string {
	if notice := h.console.Snapshot().Notice; notice != nil && notice.Kind == console.NoticeError {
		return notice.Message
	}
	return err.Error()
}

func userIDParam(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "userID"))
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}
