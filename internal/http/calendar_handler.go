package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/salon-scheduler/internal/application"
	"github.com/example/salon-scheduler/internal/scheduler"
)

type calendarService interface {
	DayView(ctx context.Context, day time.Time, staffIDs []string) (application.DayView, error)
	WeekView(ctx context.Context, reference time.Time, staffIDs []string) (application.WeekView, error)
	Slots() []scheduler.TimeSlot
}

// CalendarHandler serves positioned day and week views.
type CalendarHandler struct {
	service   calendarService
	location  *time.Location
	now       func() time.Time
	responder responder
	logger    *slog.Logger
}

// NewCalendarHandler builds the handler. A missing date query means today in
// loc.
func NewCalendarHandler(service calendarService, loc *time.Location, now func() time.Time, logger *slog.Logger) *CalendarHandler {
	base := defaultLogger(logger)
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	return &CalendarHandler{service: service, location: loc, now: now, responder: newResponder(base), logger: base}
}

func (h *CalendarHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "CalendarHandler", operation, attrs...)
}

func (h *CalendarHandler) Day(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	date, ok := h.date(w, r)
	if !ok {
		return
	}
	logger := h.log(r.Context(), "Day", "date", date.Format(time.DateOnly))

	view, err := h.service.DayView(r.Context(), date, splitCSV(r.URL.Query().Get("staff")))
	if err != nil {
		logger.ErrorContext(r.Context(), "day view failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toDayViewDTO(view))
}

func (h *CalendarHandler) Week(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	date, ok := h.date(w, r)
	if !ok {
		return
	}
	logger := h.log(r.Context(), "Week", "date", date.Format(time.DateOnly))

	view, err := h.service.WeekView(r.Context(), date, splitCSV(r.URL.Query().Get("staff")))
	if err != nil {
		logger.ErrorContext(r.Context(), "week view failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	resp := weekViewDTO{
		Start:    view.Start.Format(time.DateOnly),
		Days:     make([]dayViewDTO, 0, len(view.Days)),
		Sequence: view.Sequence,
	}
	for _, day := range view.Days {
		resp.Days = append(resp.Days, toDayViewDTO(day))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, resp)
}

func (h *CalendarHandler) Slots(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, slotsResponse{Slots: toSlotDTOs(h.service.Slots())})
}

func (h *CalendarHandler) date(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	value := strings.TrimSpace(r.URL.Query().Get("date"))
	if value == "" {
		return h.now().In(h.location), true
	}
	date, err := parseDate(value, h.location)
	if err != nil {
		h.responder.writeFieldError(r.Context(), w, "date", "must be a date formatted YYYY-MM-DD")
		return time.Time{}, false
	}
	return date, true
}

type slotDTO struct {
	Hour   int     `json:"hour"`
	Minute int     `json:"minute"`
	Label  string  `json:"label"`
	Top    float64 `json:"top"`
}

type slotsResponse struct {
	Slots []slotDTO `json:"slots"`
}

type positionedAppointmentDTO struct {
	Appointment appointmentDTO `json:"appointment"`
	Top         float64        `json:"top"`
	Height      float64        `json:"height"`
	Left        float64        `json:"left"`
	Width       float64        `json:"width"`
	Group       int            `json:"group"`
	Column      int            `json:"column"`
	Columns     int            `json:"columns"`
}

type dayViewDTO struct {
	Day          string                     `json:"day"`
	Slots        []slotDTO                  `json:"slots"`
	Appointments []positionedAppointmentDTO `json:"appointments"`
	Sequence     uint64                     `json:"seq"`
}

type weekViewDTO struct {
	Start    string       `json:"start"`
	Days     []dayViewDTO `json:"days"`
	Sequence uint64       `json:"seq"`
}

func toSlotDTOs(slots []scheduler.TimeSlot) []slotDTO {
	out := make([]slotDTO, 0, len(slots))
	for _, slot := range slots {
		out = append(out, slotDTO{Hour: slot.Hour, Minute: slot.Minute, Label: slot.Label, Top: slot.Position})
	}
	return out
}

func toDayViewDTO(view application.DayView) dayViewDTO {
	resp := dayViewDTO{
		Day:          view.Day.Format(time.DateOnly),
		Slots:        toSlotDTOs(view.Slots),
		Appointments: make([]positionedAppointmentDTO, 0, len(view.Appointments)),
		Sequence:     view.Sequence,
	}
	for _, positioned := range view.Appointments {
		resp.Appointments = append(resp.Appointments, positionedAppointmentDTO{
			Appointment: toAppointmentDTO(positioned.Appointment),
			Top:         positioned.Position.Top,
			Height:      positioned.Position.Height,
			Left:        positioned.Position.Left,
			Width:       positioned.Position.Width,
			Group:       positioned.Group,
			Column:      positioned.Column,
			Columns:     positioned.Columns,
		})
	}
	return resp
}
