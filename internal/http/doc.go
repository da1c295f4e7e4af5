// Package http exposes the salon scheduler over HTTP.
//
// The router serves the following endpoints:
//   - GET /healthz: storage reachability.
//   - GET /appointments, POST /appointments, GET/PATCH/DELETE /appointments/{id},
//     POST /appointments/{id}/move: appointment management exchanging the
//     `appointmentDTO` payload defined in appointment_handler.go. Writes and
//     listings carry overlap warnings; overlaps never reject a write. Listings
//     take from/to bounds or one of day, week or month plus a staff=a,b filter.
//   - GET /staff, POST /staff, GET/PUT/DELETE /staff/{id},
//     POST /staff/{id}/deactivate, POST /staff/{id}/reactivate: the staff
//     registry. Members with appointments cannot be deleted, only deactivated.
//   - GET /calendar/day, GET /calendar/week, GET /calendar/slots: appointments
//     positioned on the day grid, plus the time ladder.
//   - GET /events: websocket stream of change events. The first frame is
//     {"type":"hello","seq":n}; later frames are notify.Event values. Clients
//     reload a view when an event's seq is newer than the view's.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
