package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/salon-scheduler/internal/application"
)

type staffService interface {
	ListStaff(ctx context.Context, includeInactive bool) ([]application.Staff, error)
	GetStaff(ctx context.Context, id string) (application.Staff, error)
	CreateStaff(ctx context.Context, input application.StaffInput) (application.Staff, error)
	UpdateStaff(ctx context.Context, id string, input application.StaffInput) (application.Staff, error)
	DeactivateStaff(ctx context.Context, id string) (application.Staff, error)
	ReactivateStaff(ctx context.Context, id string) (application.Staff, error)
	DeleteStaff(ctx context.Context, id string) error
}

// StaffHandler serves the staff registry endpoints.
type StaffHandler struct {
	service   staffService
	responder responder
	logger    *slog.Logger
}

func NewStaffHandler(service staffService, logger *slog.Logger) *StaffHandler {
	base := defaultLogger(logger)
	return &StaffHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *StaffHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "StaffHandler", operation, attrs...)
}

func (h *StaffHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	includeInactive := false
	if value := strings.TrimSpace(r.URL.Query().Get("include_inactive")); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			h.responder.writeFieldError(r.Context(), w, "include_inactive", "must be true or false")
			return
		}
		includeInactive = parsed
	}

	logger := h.log(r.Context(), "List", "include_inactive", includeInactive)
	staff, err := h.service.ListStaff(r.Context(), includeInactive)
	if err != nil {
		logger.ErrorContext(r.Context(), "staff list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	resp := staffListResponse{Staff: make([]staffDTO, 0, len(staff))}
	for _, member := range staff {
		resp.Staff = append(resp.Staff, toStaffDTO(member))
	}
	logger.With("result_count", len(resp.Staff)).InfoContext(r.Context(), "staff listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, resp)
}

func (h *StaffHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	id, ok := h.pathID(w, r, "Get")
	if !ok {
		return
	}

	member, err := h.service.GetStaff(r.Context(), id)
	if err != nil {
		h.log(r.Context(), "Get", "staff_id", id).ErrorContext(r.Context(), "staff lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, staffResponse{Staff: toStaffDTO(member)})
}

func (h *StaffHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req staffRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode staff request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create")
	member, err := h.service.CreateStaff(r.Context(), req.toInput())
	if err != nil {
		logger.ErrorContext(r.Context(), "staff creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("staff_id", member.ID).InfoContext(r.Context(), "staff created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, staffResponse{Staff: toStaffDTO(member)})
}

func (h *StaffHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	id, ok := h.pathID(w, r, "Update")
	if !ok {
		return
	}

	var req staffRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "Update", "staff_id", id, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode staff update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "staff_id", id)
	member, err := h.service.UpdateStaff(r.Context(), id, req.toInput())
	if err != nil {
		logger.ErrorContext(r.Context(), "staff update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "staff updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, staffResponse{Staff: toStaffDTO(member)})
}

func (h *StaffHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	h.changeStatus(w, r, "Deactivate", func(ctx context.Context, id string) (application.Staff, error) {
		return h.service.DeactivateStaff(ctx, id)
	})
}

func (h *StaffHandler) Reactivate(w http.ResponseWriter, r *http.Request) {
	h.changeStatus(w, r, "Reactivate", func(ctx context.Context, id string) (application.Staff, error) {
		return h.service.ReactivateStaff(ctx, id)
	})
}

func (h *StaffHandler) changeStatus(w http.ResponseWriter, r *http.Request, operation string, change func(context.Context, string) (application.Staff, error)) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	id, ok := h.pathID(w, r, operation)
	if !ok {
		return
	}

	logger := h.log(r.Context(), operation, "staff_id", id)
	member, err := change(r.Context(), id)
	if err != nil {
		logger.ErrorContext(r.Context(), "staff status change failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("active", member.Active).InfoContext(r.Context(), "staff status changed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, staffResponse{Staff: toStaffDTO(member)})
}

func (h *StaffHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	id, ok := h.pathID(w, r, "Delete")
	if !ok {
		return
	}

	logger := h.log(r.Context(), "Delete", "staff_id", id)
	if err := h.service.DeleteStaff(r.Context(), id); err != nil {
		logger.ErrorContext(r.Context(), "staff delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "staff deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *StaffHandler) pathID(w http.ResponseWriter, r *http.Request, operation string) (string, bool) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		h.log(r.Context(), operation, "error_kind", "bad_request").ErrorContext(r.Context(), "missing staff id")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return "", false
	}
	return id, true
}

type staffRequest struct {
	Name  string  `json:"name"`
	Color string  `json:"color"`
	Phone *string `json:"phone"`
}

func (r staffRequest) toInput() application.StaffInput {
	return application.StaffInput{Name: r.Name, Color: r.Color, Phone: r.Phone}
}

type staffDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	Phone     *string   `json:"phone,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type staffResponse struct {
	Staff staffDTO `json:"staff"`
}

type staffListResponse struct {
	Staff []staffDTO `json:"staff"`
}

func toStaffDTO(member application.Staff) staffDTO {
	return staffDTO{
		ID:        member.ID,
		Name:      member.Name,
		Color:     member.Color,
		Phone:     member.Phone,
		Active:    member.Active,
		CreatedAt: member.CreatedAt,
		UpdatedAt: member.UpdatedAt,
	}
}
