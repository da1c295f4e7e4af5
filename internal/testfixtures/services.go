package testfixtures

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/example/salon-scheduler/internal/adapters"
	"github.com/example/salon-scheduler/internal/application"
	"github.com/example/salon-scheduler/internal/notify"
	"github.com/example/salon-scheduler/internal/persistence"
	"github.com/example/salon-scheduler/internal/persistence/memory"
)

// ServiceFactory wires the application services over one store and one
// broker, with a deterministic clock.
type ServiceFactory struct {
	Clock    *Clock
	IDs      *IDGenerator
	Location *time.Location
	Store    persistence.Store
	Broker   *notify.Broker
	Logger   *slog.Logger
	Calendar application.CalendarOptions
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory defaults to an in-memory store with predictable ids, a
// clock at ReferenceTime and UTC.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:    NewClock(time.Time{}),
		IDs:      NewIDGenerator("id"),
		Location: time.UTC,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Calendar: application.DefaultCalendarOptions(),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.Store == nil {
		factory.Store = memory.New(memory.WithIDGenerator(factory.IDs.NextFunc()))
	}
	if factory.Broker == nil {
		factory.Broker = notify.NewBroker(factory.Logger)
	}
	factory.Calendar.Location = factory.Location
	return factory
}

func WithClock(clock *Clock) ServiceFactoryOption {
	return func(f *ServiceFactory) { f.Clock = clock }
}

// WithStore replaces the in-memory backend, for example with a SQLiteHarness
// store.
func WithStore(store persistence.Store) ServiceFactoryOption {
	return func(f *ServiceFactory) { f.Store = store }
}

func WithLocation(loc *time.Location) ServiceFactoryOption {
	return func(f *ServiceFactory) {
		if loc != nil {
			f.Location = loc
		}
	}
}

func WithLogger(logger *slog.Logger) ServiceFactoryOption {
	return func(f *ServiceFactory) {
		if logger != nil {
			f.Logger = logger
		}
	}
}

func WithCalendarOptions(opts application.CalendarOptions) ServiceFactoryOption {
	return func(f *ServiceFactory) { f.Calendar = opts }
}

func (f *ServiceFactory) appointmentRepo() *adapters.AppointmentRepository {
	return adapters.NewAppointmentRepository(f.Store, f.Location)
}

func (f *ServiceFactory) staffRepo() *adapters.StaffRepository {
	return adapters.NewStaffRepository(f.Store, f.Location)
}

func (f *ServiceFactory) NewAppointmentService() *application.AppointmentService {
	return application.NewAppointmentServiceWithLogger(f.appointmentRepo(), f.staffRepo(), f.Broker, f.Clock.NowFunc(), f.Logger)
}

func (f *ServiceFactory) NewStaffService() *application.StaffService {
	return application.NewStaffServiceWithLogger(f.staffRepo(), f.appointmentRepo(), f.Broker, f.Clock.NowFunc(), f.Logger)
}

func (f *ServiceFactory) NewCalendarService() *application.CalendarService {
	return application.NewCalendarServiceWithLogger(f.appointmentRepo(), f.Broker, f.Calendar, f.Logger)
}

// SeedStaff registers each fixture through the staff service and returns the
// stored members in order. Fixture ids are replaced by backend ids.
func (f *ServiceFactory) SeedStaff(tb testing.TB, fixtures ...StaffFixture) []application.Staff {
	tb.Helper()
	svc := f.NewStaffService()
	out := make([]application.Staff, 0, len(fixtures))
	for _, fixture := range fixtures {
		member, err := svc.CreateStaff(context.Background(), fixture.Input())
		if err != nil {
			tb.Fatalf("failed to seed staff %q: %v", fixture.Name, err)
		}
		if !fixture.Active {
			if member, err = svc.DeactivateStaff(context.Background(), member.ID); err != nil {
				tb.Fatalf("failed to deactivate staff %q: %v", fixture.Name, err)
			}
		}
		out = append(out, member)
	}
	return out
}
