package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/salon-scheduler/internal/application"
)

type appointmentService interface {
	CreateAppointment(ctx context.Context, input application.AppointmentInput) (application.AppointmentResult, error)
	GetAppointment(ctx context.Context, id string) (application.Appointment, error)
	UpdateAppointment(ctx context.Context, id string, patch application.AppointmentPatch) (application.AppointmentResult, error)
	MoveAppointment(ctx context.Context, id string, newStart time.Time) (application.AppointmentResult, error)
	DeleteAppointment(ctx context.Context, id string) error
	ListAppointments(ctx context.Context, params application.ListAppointmentsParams) (application.AppointmentList, error)
}

// AppointmentHandler serves the appointment CRUD endpoints.
type AppointmentHandler struct {
	service   appointmentService
	location  *time.Location
	responder responder
	logger    *slog.Logger
}

// NewAppointmentHandler builds the handler. Date-only query values are read in
// loc.
func NewAppointmentHandler(service appointmentService, loc *time.Location, logger *slog.Logger) *AppointmentHandler {
	base := defaultLogger(logger)
	if loc == nil {
		loc = time.Local
	}
	return &AppointmentHandler{service: service, location: loc, responder: newResponder(base), logger: base}
}

func (h *AppointmentHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AppointmentHandler", operation, attrs...)
}

func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req appointmentRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode appointment request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "staff_id", req.StaffID)

	result, err := h.service.CreateAppointment(r.Context(), req.toInput())
	if err != nil {
		logger.ErrorContext(r.Context(), "appointment creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("appointment_id", result.Appointment.ID, "warning_count", len(result.Warnings)).InfoContext(r.Context(), "appointment created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toAppointmentResponse(result))
}

func (h *AppointmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := h.pathID(w, r, "Get")
	if !ok {
		return
	}
	logger := h.log(r.Context(), "Get", "appointment_id", id)

	appointment, err := h.service.GetAppointment(r.Context(), id)
	if err != nil {
		logger.ErrorContext(r.Context(), "appointment lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, appointmentResponse{Appointment: toAppointmentDTO(appointment)})
}

func (h *AppointmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := h.pathID(w, r, "Update")
	if !ok {
		return
	}

	var req appointmentPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "Update", "appointment_id", id, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode appointment update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "appointment_id", id)

	result, err := h.service.UpdateAppointment(r.Context(), id, req.toPatch())
	if err != nil {
		logger.ErrorContext(r.Context(), "appointment update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("warning_count", len(result.Warnings)).InfoContext(r.Context(), "appointment updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toAppointmentResponse(result))
}

func (h *AppointmentHandler) Move(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := h.pathID(w, r, "Move")
	if !ok {
		return
	}

	var req moveRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "Move", "appointment_id", id, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode move request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Move", "appointment_id", id)

	result, err := h.service.MoveAppointment(r.Context(), id, req.Start)
	if err != nil {
		logger.ErrorContext(r.Context(), "appointment move failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("warning_count", len(result.Warnings)).InfoContext(r.Context(), "appointment moved")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toAppointmentResponse(result))
}

func (h *AppointmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := h.pathID(w, r, "Delete")
	if !ok {
		return
	}
	logger := h.log(r.Context(), "Delete", "appointment_id", id)

	if err := h.service.DeleteAppointment(r.Context(), id); err != nil {
		logger.ErrorContext(r.Context(), "appointment delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "appointment deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// List accepts either explicit from/to bounds (RFC 3339 or YYYY-MM-DD) or one
// of day, week or month set to a date in the salon time zone.
func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	params, field, msg := h.listParams(r)
	if field != "" {
		h.log(r.Context(), "List", "error_kind", "bad_request").WarnContext(r.Context(), "invalid list query", "field", field)
		h.responder.writeFieldError(r.Context(), w, field, msg)
		return
	}

	logger := h.log(r.Context(), "List", "period", string(params.Period))

	list, err := h.service.ListAppointments(r.Context(), params)
	if err != nil {
		logger.ErrorContext(r.Context(), "appointment list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(list.Appointments), "warning_count", len(list.Warnings)).InfoContext(r.Context(), "appointments listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toAppointmentListResponse(list))
}

func (h *AppointmentHandler) listParams(r *http.Request) (application.ListAppointmentsParams, string, string) {
	query := r.URL.Query()
	params := application.ListAppointmentsParams{StaffIDs: splitCSV(query.Get("staff"))}

	for _, field := range []string{"from", "to"} {
		value := strings.TrimSpace(query.Get(field))
		if value == "" {
			continue
		}
		t, err := parseInstant(value, h.location)
		if err != nil {
			return params, field, "must be an RFC 3339 timestamp or YYYY-MM-DD"
		}
		if field == "from" {
			params.From = &t
		} else {
			params.To = &t
		}
	}

	periods := []application.ListPeriod{application.ListPeriodDay, application.ListPeriodWeek, application.ListPeriodMonth}
	for _, period := range periods {
		value := strings.TrimSpace(query.Get(string(period)))
		if value == "" {
			continue
		}
		if params.Period != application.ListPeriodNone {
			return params, string(period), "only one of day, week or month may be given"
		}
		reference, err := parseDate(value, h.location)
		if err != nil {
			return params, string(period), "must be a date formatted YYYY-MM-DD"
		}
		params.Period = period
		params.PeriodReference = reference
	}
	return params, "", ""
}

func (h *AppointmentHandler) pathID(w http.ResponseWriter, r *http.Request, operation string) (string, bool) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		h.log(r.Context(), operation, "error_kind", "bad_request").ErrorContext(r.Context(), "missing appointment id")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return "", false
	}
	return id, true
}

type appointmentRequest struct {
	Title           string    `json:"title"`
	ClientName      string    `json:"client_name"`
	ClientPhone     *string   `json:"client_phone"`
	ClientEmail     *string   `json:"client_email"`
	StaffID         string    `json:"staff_id"`
	Start           time.Time `json:"start"`
	DurationMinutes int       `json:"duration_minutes"`
	Notes           *string   `json:"notes"`
	Price           *float64  `json:"price"`
	Status          string    `json:"status"`
	PaymentMethod   *string   `json:"payment_method"`
}

func (r appointmentRequest) toInput() application.AppointmentInput {
	return application.AppointmentInput{
		Title:           r.Title,
		ClientName:      r.ClientName,
		ClientPhone:     r.ClientPhone,
		ClientEmail:     r.ClientEmail,
		StaffID:         r.StaffID,
		Start:           r.Start,
		DurationMinutes: r.DurationMinutes,
		Notes:           r.Notes,
		Price:           r.Price,
		Status:          r.Status,
		PaymentMethod:   r.PaymentMethod,
	}
}

// appointmentPatchRequest leaves absent fields untouched. An explicit null
// price clears it.
type appointmentPatchRequest struct {
	Title           *string       `json:"title"`
	ClientName      *string       `json:"client_name"`
	ClientPhone     *string       `json:"client_phone"`
	ClientEmail     *string       `json:"client_email"`
	StaffID         *string       `json:"staff_id"`
	Start           *time.Time    `json:"start"`
	DurationMinutes *int          `json:"duration_minutes"`
	Notes           *string       `json:"notes"`
	Price           optionalFloat `json:"price"`
	Status          *string       `json:"status"`
	PaymentMethod   *string       `json:"payment_method"`
}

func (r appointmentPatchRequest) toPatch() application.AppointmentPatch {
	return application.AppointmentPatch{
		Title:           r.Title,
		ClientName:      r.ClientName,
		ClientPhone:     r.ClientPhone,
		ClientEmail:     r.ClientEmail,
		StaffID:         r.StaffID,
		Start:           r.Start,
		DurationMinutes: r.DurationMinutes,
		Notes:           r.Notes,
		Price:           r.Price.Value,
		ClearPrice:      r.Price.Set && r.Price.Value == nil,
		Status:          r.Status,
		PaymentMethod:   r.PaymentMethod,
	}
}

// optionalFloat tells an absent field apart from an explicit null.
type optionalFloat struct {
	Set   bool
	Value *float64
}

func (o *optionalFloat) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var value float64
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	o.Value = &value
	return nil
}

type moveRequest struct {
	Start time.Time `json:"start"`
}

type appointmentDTO struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	ClientName      string    `json:"client_name"`
	ClientPhone     *string   `json:"client_phone,omitempty"`
	ClientEmail     *string   `json:"client_email,omitempty"`
	StaffID         string    `json:"staff_id"`
	StaffName       string    `json:"staff_name,omitempty"`
	StaffColor      string    `json:"staff_color,omitempty"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	DurationMinutes int       `json:"duration_minutes"`
	Notes           *string   `json:"notes,omitempty"`
	Price           *float64  `json:"price,omitempty"`
	Status          string    `json:"status"`
	PaymentMethod   *string   `json:"payment_method,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type conflictWarningDTO struct {
	AppointmentID     string    `json:"appointment_id"`
	WithAppointmentID string    `json:"with_appointment_id"`
	StaffID           string    `json:"staff_id"`
	Start             time.Time `json:"start"`
	End               time.Time `json:"end"`
}

type appointmentResponse struct {
	Appointment appointmentDTO       `json:"appointment"`
	Warnings    []conflictWarningDTO `json:"warnings,omitempty"`
}

type appointmentListResponse struct {
	Appointments []appointmentDTO     `json:"appointments"`
	Warnings     []conflictWarningDTO `json:"warnings"`
}

func toAppointmentDTO(appointment application.Appointment) appointmentDTO {
	return appointmentDTO{
		ID:              appointment.ID,
		Title:           appointment.Title,
		ClientName:      appointment.ClientName,
		ClientPhone:     appointment.ClientPhone,
		ClientEmail:     appointment.ClientEmail,
		StaffID:         appointment.StaffID,
		StaffName:       appointment.StaffName,
		StaffColor:      appointment.StaffColor,
		Start:           appointment.Start,
		End:             appointment.End(),
		DurationMinutes: appointment.DurationMinutes,
		Notes:           appointment.Notes,
		Price:           appointment.Price,
		Status:          appointment.Status,
		PaymentMethod:   appointment.PaymentMethod,
		CreatedAt:       appointment.CreatedAt,
		UpdatedAt:       appointment.UpdatedAt,
	}
}

func toConflictWarningDTOs(warnings []application.ConflictWarning) []conflictWarningDTO {
	out := make([]conflictWarningDTO, 0, len(warnings))
	for _, warning := range warnings {
		out = append(out, conflictWarningDTO{
			AppointmentID:     warning.AppointmentID,
			WithAppointmentID: warning.WithAppointmentID,
			StaffID:           warning.StaffID,
			Start:             warning.Start,
			End:               warning.End,
		})
	}
	return out
}

func toAppointmentResponse(result application.AppointmentResult) appointmentResponse {
	resp := appointmentResponse{Appointment: toAppointmentDTO(result.Appointment)}
	if len(result.Warnings) > 0 {
		resp.Warnings = toConflictWarningDTOs(result.Warnings)
	}
	return resp
}

func toAppointmentListResponse(list application.AppointmentList) appointmentListResponse {
	resp := appointmentListResponse{
		Appointments: make([]appointmentDTO, 0, len(list.Appointments)),
		Warnings:     toConflictWarningDTOs(list.Warnings),
	}
	for _, appointment := range list.Appointments {
		resp.Appointments = append(resp.Appointments, toAppointmentDTO(appointment))
	}
	return resp
}
