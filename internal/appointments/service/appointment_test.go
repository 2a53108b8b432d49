package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"medibuddy/internal/appointments/validator"
	"medibuddy/pkg/auth"
	"medibuddy/pkg/clock"
	"medibuddy/pkg/config"
	apperrors "medibuddy/pkg/errors"
	"medibuddy/pkg/events"
	"medibuddy/pkg/logger"
	"medibuddy/pkg/metrics"
	"medibuddy/pkg/model"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

const (
	doctorID  = "64b7f0c2a1b2c3d4e5f60001"
	patientID = "64b7f0c2a1b2c3d4e5f60002"
	otherID   = "64b7f0c2a1b2c3d4e5f60003"
)

var (
	// Friday; the next Monday is 2026-03-02.
	testNow      = time.Date(2026, 2, 27, 10, 0, 0, 0, time.UTC)
	mondayAtNine = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
)

type directoryFunc func(ctx context.Context, id string) (*model.User, error)

func (f directoryFunc) FindDoctorByID(ctx context.Context, id string) (*model.User, error) {
	return f(ctx, id)
}

func mondayDoctor() *model.User {
	return &model.User{
		ID:   doctorID,
		Name: "Dr. Asha Rao",
		Role: model.RoleDoctor,
		Doctor: &model.DoctorProfile{
			Specialization: "Cardiology",
			Availability: []model.AvailabilityWindow{
				{Day: model.Monday, StartTime: "09:00", EndTime: "10:00"},
			},
		},
	}
}

func knownDoctors(doctors ...*model.User) DoctorDirectory {
	return directoryFunc(func(ctx context.Context, id string) (*model.User, error) {
		for _, d := range doctors {
			if d.ID == id {
				return d, nil
			}
		}
		return nil, nil
	})
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	svc       *appointmentService
	repo      *memoryRepository
	clock     *clock.Fixed
	publisher *recordingPublisher
	metrics   *metrics.Collector
	cfg       *config.Config
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	cfg := &config.Config{
		Log:                       log,
		ReadTimeout:               5 * time.Second,
		Location:                  time.UTC,
		SlotIntervalMin:           30,
		AvailabilityHorizonDays:   7,
		AppointmentDurationMin:    30,
		CancellationCutoff:        24 * time.Hour,
		EnforceAvailabilityWindow: true,
	}
	f := &fixture{
		repo:      newMemoryRepository(),
		clock:     clock.NewFixed(testNow),
		publisher: &recordingPublisher{},
		metrics:   metrics.NewCollector("test"),
		cfg:       cfg,
	}
	f.svc = NewAppointmentService(f.repo, knownDoctors(mondayDoctor()), validator.NewAppointmentValidator(log), f.publisher, f.metrics, f.clock, cfg).(*appointmentService)
	return f
}

func (f *fixture) book(t *testing.T, at time.Time) *model.Appointment {
	t.Helper()
	appt, err := f.svc.CreateAppointment(context.Background(), doctorID, patientID, at, model.InPerson, "chest pain", 500)
	if err != nil {
		t.Fatalf("CreateAppointment(%v) error = %v", at, err)
	}
	return appt
}

func wantCode(t *testing.T, err error, code string) *apperrors.AppError {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != code {
		t.Fatalf("error code = %s (%s), want %s", appErr.Code, appErr.Message, code)
	}
	return appErr
}

func TestCreateAppointment_Success(t *testing.T) {
	f := newFixture(t)

	appt := f.book(t, mondayAtNine)

	if appt.ID == "" || appt.Status != model.Scheduled || appt.PatientID != patientID {
		t.Errorf("unexpected appointment: %+v", appt)
	}
	if appt.DurationMinutes != 30 || appt.PaymentStatus != model.PaymentPending || appt.Type != model.InPerson {
		t.Errorf("defaults not applied: %+v", appt)
	}
	if got := f.publisher.types(); len(got) != 1 || got[0] != events.AppointmentCreated {
		t.Errorf("events = %v", got)
	}
	if v := testutil.ToFloat64(f.metrics.BookingsTotal.WithLabelValues(metrics.OutcomeCreated)); v != 1 {
		t.Errorf("created bookings = %v, want 1", v)
	}
}

func TestCreateAppointment_DoctorNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateAppointment(context.Background(), otherID, patientID, mondayAtNine, "", "fever", 0)
	appErr := wantCode(t, err, apperrors.CodeNotFound)
	if appErr.Message != "Doctor not found" || appErr.HTTPStatus != 404 {
		t.Errorf("got %q / %d", appErr.Message, appErr.HTTPStatus)
	}
	if appErr.Details["id"] != otherID {
		t.Errorf("details = %v, want the requested doctor id", appErr.Details)
	}
	if f.repo.len() != 0 {
		t.Error("ledger changed on failed booking")
	}
}

func TestCreateAppointment_SecondBookingConflicts(t *testing.T) {
	f := newFixture(t)
	f.book(t, mondayAtNine)

	_, err := f.svc.CreateAppointment(context.Background(), doctorID, otherID, mondayAtNine, model.VideoConsultation, "headache", 0)
	appErr := wantCode(t, err, apperrors.CodeConflict)
	if appErr.Message != SlotTakenMessage || appErr.HTTPStatus != 400 {
		t.Errorf("got %q / %d", appErr.Message, appErr.HTTPStatus)
	}
	if f.repo.len() != 1 {
		t.Errorf("ledger has %d entries, want 1", f.repo.len())
	}
}

func TestCreateAppointment_ConcurrentSameSlot(t *testing.T) {
	f := newFixture(t)

	const callers = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded, conflicted := 0, 0
	start := make(chan struct{})

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.svc.CreateAppointment(context.Background(), doctorID, patientID, mondayAtNine, "", "cough", 0)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case apperrors.HasCode(err, apperrors.CodeConflict):
				conflicted++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	if succeeded != 1 || conflicted != callers-1 {
		t.Errorf("succeeded=%d conflicted=%d, want 1 and %d", succeeded, conflicted, callers-1)
	}
	if f.repo.len() != 1 {
		t.Errorf("ledger has %d entries, want 1", f.repo.len())
	}
}

func TestCreateAppointment_Validation(t *testing.T) {
	tests := []struct {
		name     string
		doctor   string
		at       time.Time
		kind     model.AppointmentType
		symptoms string
		amount   float64
		wantMsg  string
	}{
		{name: "outside availability", doctor: doctorID, at: mondayAtNine.Add(time.Hour), symptoms: "fever", wantMsg: NotAvailableMessage},
		{name: "off the slot grid", doctor: doctorID, at: mondayAtNine.Add(15 * time.Minute), symptoms: "fever", wantMsg: NotAvailableMessage},
		{name: "wrong weekday", doctor: doctorID, at: mondayAtNine.AddDate(0, 0, 1), symptoms: "fever", wantMsg: NotAvailableMessage},
		{name: "past time", doctor: doctorID, at: testNow.Add(-time.Hour), symptoms: "fever"},
		{name: "missing symptoms", doctor: doctorID, at: mondayAtNine, symptoms: "   "},
		{name: "unknown type", doctor: doctorID, at: mondayAtNine, kind: "home-visit", symptoms: "fever"},
		{name: "negative payment", doctor: doctorID, at: mondayAtNine, symptoms: "fever", amount: -1},
		{name: "malformed doctor id", doctor: "abc", at: mondayAtNine, symptoms: "fever"},
		{name: "zero time", doctor: doctorID, symptoms: "fever"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.CreateAppointment(context.Background(), tt.doctor, patientID, tt.at, tt.kind, tt.symptoms, tt.amount)
			appErr := wantCode(t, err, apperrors.CodeValidation)
			if tt.wantMsg != "" && appErr.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", appErr.Message, tt.wantMsg)
			}
			if f.repo.len() != 0 {
				t.Error("invalid booking reached the ledger")
			}
		})
	}
}

func TestCreateAppointment_EnforcementDisabled(t *testing.T) {
	f := newFixture(t)
	f.cfg.EnforceAvailabilityWindow = false

	if _, err := f.svc.CreateAppointment(context.Background(), doctorID, patientID, mondayAtNine.Add(3*time.Hour+10*time.Minute), "", "fever", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreateAppointment_StorageFailure(t *testing.T) {
	f := newFixture(t)
	f.repo.failWith = errors.New("connection reset by peer")

	_, err := f.svc.CreateAppointment(context.Background(), doctorID, patientID, mondayAtNine, "", "fever", 0)
	appErr := wantCode(t, err, apperrors.CodeInternal)
	if appErr.HTTPStatus != 500 {
		t.Errorf("status = %d", appErr.HTTPStatus)
	}
}

func TestCreateAppointment_PublishFailureIgnored(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = errors.New("broker unavailable")

	if _, err := f.svc.CreateAppointment(context.Background(), doctorID, patientID, mondayAtNine, "", "fever", 0); err != nil {
		t.Fatalf("publish failure failed the booking: %v", err)
	}
}

func TestBookingShowsInSlots(t *testing.T) {
	f := newFixture(t)

	before, err := f.svc.Availability(context.Background(), doctorID, 7, 30)
	if err != nil {
		t.Fatalf("Availability() error = %v", err)
	}
	if len(before.Slots) != 2 || !before.Slots[0].Free() || !before.Slots[1].Free() {
		t.Fatalf("slots before booking = %+v", before.Slots)
	}

	f.book(t, mondayAtNine)

	after, err := f.svc.Availability(context.Background(), doctorID, 7, 30)
	if err != nil {
		t.Fatalf("Availability() error = %v", err)
	}
	if len(after.BookedSlots) != 1 {
		t.Fatalf("booked slots = %+v", after.BookedSlots)
	}
	want := []model.Slot{
		{Date: "2026-03-02", Time: "09:00", Status: model.SlotBooked},
		{Date: "2026-03-02", Time: "09:30", Status: model.SlotFree},
	}
	if len(after.Slots) != len(want) {
		t.Fatalf("slots = %+v", after.Slots)
	}
	for i := range want {
		if after.Slots[i] != want[i] {
			t.Errorf("slot %d = %+v, want %+v", i, after.Slots[i], want[i])
		}
	}
}

func TestAvailability_Errors(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.Availability(context.Background(), otherID, 7, 30); !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Errorf("unknown doctor: got %v", err)
	}
	if _, err := f.svc.Availability(context.Background(), doctorID, 365, 30); !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("oversized horizon: got %v", err)
	}
	if _, err := f.svc.Availability(context.Background(), doctorID, 7, 1); !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("tiny interval: got %v", err)
	}

	res, err := f.svc.Availability(context.Background(), doctorID, 0, 0)
	if err != nil || len(res.Slots) != 2 {
		t.Errorf("defaults: %v %+v", err, res)
	}
}

func TestAvailability_LastDayBookingIsReported(t *testing.T) {
	f := newFixture(t)
	f.clock.Set(time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC))
	lastDay := time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)
	f.book(t, lastDay)

	res, err := f.svc.Availability(context.Background(), doctorID, 7, 30)
	if err != nil {
		t.Fatalf("Availability() error = %v", err)
	}
	if len(res.BookedSlots) != 1 || !res.BookedSlots[0].DateTime.Equal(lastDay) {
		t.Fatalf("booked slots = %+v", res.BookedSlots)
	}

	want := []model.Slot{
		{Date: "2026-03-02", Time: "09:00", Status: model.SlotFree},
		{Date: "2026-03-02", Time: "09:30", Status: model.SlotFree},
		{Date: "2026-03-09", Time: "09:00", Status: model.SlotBooked},
		{Date: "2026-03-09", Time: "09:30", Status: model.SlotFree},
	}
	if len(res.Slots) != len(want) {
		t.Fatalf("slots = %+v", res.Slots)
	}
	for i := range want {
		if res.Slots[i] != want[i] {
			t.Errorf("slot %d = %+v, want %+v", i, res.Slots[i], want[i])
		}
	}
}

func TestAvailability_OmitsSlotsAlreadyStarted(t *testing.T) {
	f := newFixture(t)
	f.clock.Set(time.Date(2026, 3, 2, 9, 15, 0, 0, time.UTC))

	res, err := f.svc.Availability(context.Background(), doctorID, 7, 30)
	if err != nil {
		t.Fatalf("Availability() error = %v", err)
	}
	if len(res.Slots) != 3 {
		t.Fatalf("slots = %+v", res.Slots)
	}
	if first := res.Slots[0]; first.Date != "2026-03-02" || first.Time != "09:30" {
		t.Errorf("first slot = %+v, want 2026-03-02 09:30", first)
	}
}

func TestAvailability_IntervalMustFitBookingGrid(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.Availability(context.Background(), doctorID, 7, 20); !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("interval off the booking grid: got %v", err)
	}

	res, err := f.svc.Availability(context.Background(), doctorID, 7, 60)
	if err != nil {
		t.Fatalf("Availability() error = %v", err)
	}
	if len(res.Slots) != 1 || res.Slots[0].Time != "09:00" {
		t.Fatalf("slots = %+v", res.Slots)
	}
	for _, slot := range res.Slots {
		at, _ := time.ParseInLocation("2006-01-02 15:04", slot.Date+" "+slot.Time, time.UTC)
		if _, err := f.svc.CreateAppointment(context.Background(), doctorID, patientID, at, model.InPerson, "checkup", 0); err != nil {
			t.Errorf("listed slot %s %s not bookable: %v", slot.Date, slot.Time, err)
		}
	}
}

func TestChangeStatus_CancellationCutoff(t *testing.T) {
	patient := auth.Identity{UserID: patientID, Role: model.RolePatient}

	tests := []struct {
		name    string
		until   time.Duration
		actor   auth.Identity
		wantErr bool
	}{
		{name: "23h59m before", until: 23*time.Hour + 59*time.Minute, actor: patient, wantErr: true},
		{name: "exactly 24h before", until: 24 * time.Hour, actor: patient},
		{name: "two days before", until: 48 * time.Hour, actor: patient},
		{name: "admin inside the window", until: time.Hour, actor: auth.Identity{UserID: otherID, Role: model.RoleAdmin}},
		{name: "doctor inside the window", until: time.Hour, actor: auth.Identity{UserID: doctorID, Role: model.RoleDoctor}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			appt := f.book(t, mondayAtNine)
			f.clock.Set(mondayAtNine.Add(-tt.until))

			updated, err := f.svc.ChangeStatus(context.Background(), tt.actor, appt.ID, model.Cancelled)
			if tt.wantErr {
				appErr := wantCode(t, err, apperrors.CodePolicy)
				if appErr.Message != "Cannot cancel appointment less than 24 hours before scheduled time" {
					t.Errorf("message = %q", appErr.Message)
				}
				stored, _ := f.repo.FindByID(context.Background(), appt.ID)
				if stored.Status != model.Scheduled {
					t.Errorf("status changed to %s", stored.Status)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if updated.Status != model.Cancelled {
				t.Errorf("status = %s", updated.Status)
			}
		})
	}
}

func TestChangeStatus_Authorization(t *testing.T) {
	stranger := auth.Identity{UserID: otherID, Role: model.RolePatient}
	otherDoctor := auth.Identity{UserID: otherID, Role: model.RoleDoctor}

	for _, actor := range []auth.Identity{stranger, otherDoctor} {
		for _, status := range []model.AppointmentStatus{model.Completed, model.Cancelled, model.NoShow} {
			f := newFixture(t)
			appt := f.book(t, mondayAtNine)

			_, err := f.svc.ChangeStatus(context.Background(), actor, appt.ID, status)
			appErr := wantCode(t, err, apperrors.CodeForbidden)
			if appErr.HTTPStatus != 403 {
				t.Errorf("status = %d", appErr.HTTPStatus)
			}
		}
	}
}

func TestChangeStatus_TerminalStates(t *testing.T) {
	admin := auth.Identity{UserID: otherID, Role: model.RoleAdmin}

	for _, from := range []model.AppointmentStatus{model.Completed, model.Cancelled, model.NoShow} {
		for _, to := range []model.AppointmentStatus{model.Scheduled, model.Completed, model.Cancelled, model.NoShow} {
			f := newFixture(t)
			appt := f.book(t, mondayAtNine)
			if _, err := f.svc.ChangeStatus(context.Background(), admin, appt.ID, from); err != nil {
				t.Fatalf("setup %s: %v", from, err)
			}

			if _, err := f.svc.ChangeStatus(context.Background(), admin, appt.ID, to); !apperrors.HasCode(err, apperrors.CodePolicy) {
				t.Errorf("%s -> %s: got %v, want policy violation", from, to, err)
			}
		}
	}
}

func TestChangeStatus_CompleteAndEvents(t *testing.T) {
	f := newFixture(t)
	appt := f.book(t, mondayAtNine)
	f.clock.Set(mondayAtNine.Add(40 * time.Minute))

	updated, err := f.svc.ChangeStatus(context.Background(), auth.Identity{UserID: doctorID, Role: model.RoleDoctor}, appt.ID, model.Completed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != model.Completed {
		t.Errorf("status = %s", updated.Status)
	}
	types := f.publisher.types()
	if len(types) != 2 || types[1] != events.AppointmentStatusChanged {
		t.Errorf("events = %v", types)
	}
	if last := f.publisher.events[1]; last.PreviousStatus != model.Scheduled || last.Status != model.Completed {
		t.Errorf("event = %+v", last)
	}
}

func TestChangeStatus_NotFoundAndInvalid(t *testing.T) {
	f := newFixture(t)
	admin := auth.Identity{UserID: otherID, Role: model.RoleAdmin}

	if _, err := f.svc.ChangeStatus(context.Background(), admin, "64b7f0c2a1b2c3d4e5f6ffff", model.Completed); !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Errorf("missing appointment: got %v", err)
	}
	if _, err := f.svc.ChangeStatus(context.Background(), admin, "64b7f0c2a1b2c3d4e5f6ffff", "archived"); !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Errorf("unknown status: got %v", err)
	}
}

func TestCancelFreesSlot(t *testing.T) {
	f := newFixture(t)
	appt := f.book(t, mondayAtNine)

	if _, err := f.svc.ChangeStatus(context.Background(), auth.Identity{UserID: patientID, Role: model.RolePatient}, appt.ID, model.Cancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := f.svc.CreateAppointment(context.Background(), doctorID, otherID, mondayAtNine, "", "rash", 0); err != nil {
		t.Fatalf("rebooking a cancelled slot failed: %v", err)
	}
}

func TestReschedule(t *testing.T) {
	patient := auth.Identity{UserID: patientID, Role: model.RolePatient}
	nineThirty := mondayAtNine.Add(30 * time.Minute)

	t.Run("moves to a free slot", func(t *testing.T) {
		f := newFixture(t)
		appt := f.book(t, mondayAtNine)

		updated, err := f.svc.Reschedule(context.Background(), patient, appt.ID, nineThirty)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !updated.DateTime.Equal(nineThirty) {
			t.Errorf("dateTime = %v", updated.DateTime)
		}
		types := f.publisher.types()
		if types[len(types)-1] != events.AppointmentRescheduled {
			t.Errorf("events = %v", types)
		}
		if _, err := f.svc.CreateAppointment(context.Background(), doctorID, otherID, mondayAtNine, "", "rash", 0); err != nil {
			t.Errorf("vacated slot should be bookable: %v", err)
		}
	})

	t.Run("target taken", func(t *testing.T) {
		f := newFixture(t)
		appt := f.book(t, mondayAtNine)
		if _, err := f.svc.CreateAppointment(context.Background(), doctorID, otherID, nineThirty, "", "rash", 0); err != nil {
			t.Fatal(err)
		}

		_, err := f.svc.Reschedule(context.Background(), patient, appt.ID, nineThirty)
		if appErr := wantCode(t, err, apperrors.CodeConflict); appErr.Message != SlotTakenMessage {
			t.Errorf("message = %q", appErr.Message)
		}
	})

	t.Run("inside cutoff", func(t *testing.T) {
		f := newFixture(t)
		appt := f.book(t, mondayAtNine)
		f.clock.Set(mondayAtNine.Add(-2 * time.Hour))

		_, err := f.svc.Reschedule(context.Background(), patient, appt.ID, nineThirty)
		wantCode(t, err, apperrors.CodePolicy)
	})

	t.Run("outside availability", func(t *testing.T) {
		f := newFixture(t)
		appt := f.book(t, mondayAtNine)

		_, err := f.svc.Reschedule(context.Background(), patient, appt.ID, mondayAtNine.Add(2*time.Hour))
		wantCode(t, err, apperrors.CodeValidation)
	})

	t.Run("stranger", func(t *testing.T) {
		f := newFixture(t)
		appt := f.book(t, mondayAtNine)

		_, err := f.svc.Reschedule(context.Background(), auth.Identity{UserID: otherID, Role: model.RolePatient}, appt.ID, nineThirty)
		wantCode(t, err, apperrors.CodeForbidden)
	})
}

func TestUpdateNotes(t *testing.T) {
	f := newFixture(t)
	appt := f.book(t, mondayAtNine)
	diagnosis := "  viral fever "

	_, err := f.svc.UpdateNotes(context.Background(), auth.Identity{UserID: patientID, Role: model.RolePatient}, appt.ID, &model.NotesUpdate{Diagnosis: &diagnosis})
	wantCode(t, err, apperrors.CodeForbidden)

	_, err = f.svc.UpdateNotes(context.Background(), auth.Identity{UserID: doctorID, Role: model.RoleDoctor}, appt.ID, &model.NotesUpdate{})
	wantCode(t, err, apperrors.CodeInvalidInput)

	updated, err := f.svc.UpdateNotes(context.Background(), auth.Identity{UserID: doctorID, Role: model.RoleDoctor}, appt.ID, &model.NotesUpdate{
		Diagnosis: &diagnosis,
		FollowUp:  &model.FollowUp{Required: true},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Diagnosis != "viral fever" || updated.FollowUp == nil || !updated.FollowUp.Required {
		t.Errorf("notes not applied: %+v", updated)
	}
}

func TestGetByID_ParticipantsOnly(t *testing.T) {
	f := newFixture(t)
	appt := f.book(t, mondayAtNine)

	for _, actor := range []auth.Identity{
		{UserID: patientID, Role: model.RolePatient},
		{UserID: doctorID, Role: model.RoleDoctor},
		{UserID: otherID, Role: model.RoleAdmin},
	} {
		if _, err := f.svc.GetByID(context.Background(), actor, appt.ID); err != nil {
			t.Errorf("%+v: %v", actor, err)
		}
	}
	_, err := f.svc.GetByID(context.Background(), auth.Identity{UserID: otherID, Role: model.RolePatient}, appt.ID)
	wantCode(t, err, apperrors.CodeForbidden)
}

func TestMineAndUpcoming(t *testing.T) {
	f := newFixture(t)
	f.book(t, mondayAtNine)
	f.repo.put(&model.Appointment{DoctorID: doctorID, PatientID: otherID, DateTime: testNow.Add(-48 * time.Hour), Status: model.Completed})

	mine, total, err := f.svc.Mine(context.Background(), auth.Identity{UserID: patientID, Role: model.RolePatient}, 10, 0)
	if err != nil || total != 1 || len(mine) != 1 {
		t.Errorf("patient view: %d %d %v", len(mine), total, err)
	}

	mine, total, err = f.svc.Mine(context.Background(), auth.Identity{UserID: doctorID, Role: model.RoleDoctor}, 10, 0)
	if err != nil || total != 2 || len(mine) != 2 {
		t.Errorf("doctor view: %d %d %v", len(mine), total, err)
	}

	upcoming, total, err := f.svc.Upcoming(context.Background(), auth.Identity{UserID: doctorID, Role: model.RoleDoctor}, doctorID, 10, 0)
	if err != nil || total != 1 || len(upcoming) != 1 || !upcoming[0].DateTime.Equal(mondayAtNine) {
		t.Errorf("upcoming: %+v %d %v", upcoming, total, err)
	}

	_, _, err = f.svc.Upcoming(context.Background(), auth.Identity{UserID: patientID, Role: model.RolePatient}, doctorID, 10, 0)
	wantCode(t, err, apperrors.CodeForbidden)
}
