package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	appointmentserrors "medibuddy/internal/appointments/errors"
	"medibuddy/internal/appointments/repository"
	"medibuddy/internal/appointments/validator"
	"medibuddy/pkg/auth"
	"medibuddy/pkg/clock"
	"medibuddy/pkg/config"
	apperrors "medibuddy/pkg/errors"
	"medibuddy/pkg/events"
	"medibuddy/pkg/metrics"
	"medibuddy/pkg/model"
	"medibuddy/pkg/sanitizer"
	"medibuddy/pkg/slots"
)

const (
	SlotTakenMessage    = "This time slot is already booked"
	NotAvailableMessage = "Doctor is not available at the requested time"
	ConcurrentMessage   = "Appointment was modified concurrently, please retry"
)

// DoctorDirectory resolves doctor ids. FindDoctorByID returns nil, nil when
// the id does not name a doctor.
type DoctorDirectory interface {
	FindDoctorByID(ctx context.Context, id string) (*model.User, error)
}

type AppointmentService interface {
	CreateAppointment(ctx context.Context, doctorID, patientID string, dateTime time.Time, appointmentType model.AppointmentType, symptoms string, paymentAmount float64) (*model.Appointment, error)
	ChangeStatus(ctx context.Context, actor auth.Identity, id string, status model.AppointmentStatus) (*model.Appointment, error)
	Reschedule(ctx context.Context, actor auth.Identity, id string, dateTime time.Time) (*model.Appointment, error)
	UpdateNotes(ctx context.Context, actor auth.Identity, id string, update *model.NotesUpdate) (*model.Appointment, error)

	GetByID(ctx context.Context, actor auth.Identity, id string) (*model.Appointment, error)
	Mine(ctx context.Context, actor auth.Identity, limit int, offset int64) ([]*model.Appointment, int64, error)
	Upcoming(ctx context.Context, actor auth.Identity, doctorID string, limit int, offset int64) ([]*model.Appointment, int64, error)
	Availability(ctx context.Context, doctorID string, days, interval int) (*model.DoctorAvailability, error)
}

type appointmentService struct {
	repo      repository.AppointmentRepository
	doctors   DoctorDirectory
	validator *validator.AppointmentValidator
	publisher events.Publisher
	metrics   *metrics.Collector
	clock     clock.Clock
	cfg       *config.Config
}

func NewAppointmentService(
	repo repository.AppointmentRepository,
	doctors DoctorDirectory,
	validator *validator.AppointmentValidator,
	publisher events.Publisher,
	collector *metrics.Collector,
	clk clock.Clock,
	cfg *config.Config,
) AppointmentService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &appointmentService{
		repo:      repo,
		doctors:   doctors,
		validator: validator,
		publisher: publisher,
		metrics:   collector,
		clock:     clk,
		cfg:       cfg,
	}
}

func (s *appointmentService) CreateAppointment(ctx context.Context, doctorID, patientID string, dateTime time.Time, appointmentType model.AppointmentType, symptoms string, paymentAmount float64) (*model.Appointment, error) {
	appt, err := s.book(ctx, doctorID, patientID, dateTime, appointmentType, symptoms, paymentAmount)
	s.metrics.ObserveBooking(outcome(err, metrics.OutcomeCreated))
	if err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Appointment booked",
		"appointment_id", appt.ID,
		"doctor_id", appt.DoctorID,
		"patient_id", appt.PatientID,
		"date_time", appt.DateTime,
	)
	s.publish(ctx, events.Event{
		Type:          events.AppointmentCreated,
		AppointmentID: appt.ID,
		DoctorID:      appt.DoctorID,
		PatientID:     appt.PatientID,
		ActorID:       patientID,
		Status:        appt.Status,
		DateTime:      &appt.DateTime,
		OccurredAt:    s.clock.Now().UTC(),
	})
	return appt, nil
}

func (s *appointmentService) book(ctx context.Context, doctorID, patientID string, dateTime time.Time, appointmentType model.AppointmentType, symptoms string, paymentAmount float64) (*model.Appointment, error) {
	if appointmentType == "" {
		appointmentType = model.InPerson
	}
	req := &model.CreateAppointmentRequest{
		DoctorID:      doctorID,
		DateTime:      dateTime,
		Type:          appointmentType,
		Symptoms:      sanitizer.NormalizeText(symptoms),
		PaymentAmount: paymentAmount,
	}
	if err := s.validator.Validate(req); err != nil {
		s.cfg.Log.Warn("Appointment validation failed",
			"doctor_id", doctorID,
			"patient_id", patientID,
			"error", err,
		)
		return nil, apperrors.Validation("Appointment validation failed", map[string]any{
			"error": err.Error(),
		})
	}
	if patientID == "" {
		return nil, apperrors.Unauthorized("Authentication required")
	}
	if !dateTime.After(s.clock.Now()) {
		return nil, apperrors.Validation("Appointment time must be in the future", nil)
	}

	doctor, err := s.doctors.FindDoctorByID(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if doctor == nil {
		s.cfg.Log.Warn("Booking for unknown doctor", "doctor_id", doctorID)
		return nil, apperrors.NotFoundWithID("Doctor", doctorID)
	}
	if err := s.checkOffered(doctor, dateTime); err != nil {
		return nil, err
	}

	appt := &model.Appointment{
		DoctorID:        doctorID,
		PatientID:       patientID,
		DateTime:        dateTime.UTC(),
		DurationMinutes: s.cfg.AppointmentDurationMin,
		Status:          model.Scheduled,
		Type:            req.Type,
		Symptoms:        req.Symptoms,
		PaymentAmount:   req.PaymentAmount,
		PaymentStatus:   model.PaymentPending,
	}
	if appt.DurationMinutes <= 0 {
		appt.DurationMinutes = model.DefaultDurationMin
	}

	err = s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindActive(txCtx, doctorID, appt.DateTime)
		if err != nil {
			return fmt.Errorf("failed to check slot: %w", err)
		}
		if existing != nil {
			return apperrors.Conflict(SlotTakenMessage)
		}

		// The unique partial index decides races the check above cannot see.
		if err := s.repo.Create(txCtx, appt); err != nil {
			if errors.Is(err, appointmentserrors.ErrSlotTaken) {
				return apperrors.Conflict(SlotTakenMessage)
			}
			return fmt.Errorf("failed to create appointment: %w", err)
		}
		return nil
	})
	if err != nil {
		if apperrors.IsAppError(err) {
			s.cfg.Log.Warn("Booking rejected",
				"doctor_id", doctorID,
				"patient_id", patientID,
				"date_time", appt.DateTime,
				"error", err,
			)
			return nil, err
		}
		s.cfg.Log.Error("Failed to book appointment",
			"doctor_id", doctorID,
			"patient_id", patientID,
			"date_time", appt.DateTime,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to book appointment", err)
	}

	return appt, nil
}

func (s *appointmentService) checkOffered(doctor *model.User, at time.Time) error {
	if !s.cfg.EnforceAvailabilityWindow {
		return nil
	}
	if !slots.Offers(doctor.Availability(), at, s.slotOptions(0)) {
		return apperrors.Validation(NotAvailableMessage, map[string]any{
			"dateTime": at.In(s.location()).Format(time.RFC3339),
		})
	}
	return nil
}

func (s *appointmentService) ChangeStatus(ctx context.Context, actor auth.Identity, id string, status model.AppointmentStatus) (*model.Appointment, error) {
	if err := s.validator.Validate(&model.StatusUpdate{Status: status}); err != nil {
		s.metrics.ObserveTransition(status, metrics.OutcomeInvalid)
		return nil, apperrors.Validation("Status validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	appt, err := s.load(ctx, id)
	if err != nil {
		s.metrics.ObserveTransition(status, outcome(err, metrics.OutcomeApplied))
		return nil, err
	}

	if err := CheckTransition(appt, status, actor, s.clock.Now(), s.cfg.CancellationCutoff); err != nil {
		s.cfg.Log.Warn("Status change rejected",
			"appointment_id", id,
			"user_id", actor.UserID,
			"role", actor.Role,
			"status", appt.Status,
			"requested", status,
			"error", err,
		)
		s.metrics.ObserveTransition(status, outcome(err, metrics.OutcomeApplied))
		return nil, err
	}

	updated, err := s.repo.UpdateStatus(ctx, id, appt.Status, status)
	if err != nil {
		err = s.translate(err, "Failed to update appointment status", "appointment_id", id)
		s.metrics.ObserveTransition(status, outcome(err, metrics.OutcomeApplied))
		return nil, err
	}

	s.metrics.ObserveTransition(status, metrics.OutcomeApplied)
	s.cfg.Log.Info("Appointment status changed",
		"appointment_id", id,
		"user_id", actor.UserID,
		"from", appt.Status,
		"status", status,
	)
	s.publish(ctx, events.Event{
		Type:           events.AppointmentStatusChanged,
		AppointmentID:  updated.ID,
		DoctorID:       updated.DoctorID,
		PatientID:      updated.PatientID,
		ActorID:        actor.UserID,
		Status:         updated.Status,
		PreviousStatus: appt.Status,
		DateTime:       &updated.DateTime,
		OccurredAt:     s.clock.Now().UTC(),
	})
	return updated, nil
}

func (s *appointmentService) Reschedule(ctx context.Context, actor auth.Identity, id string, dateTime time.Time) (*model.Appointment, error) {
	updated, previous, err := s.reschedule(ctx, actor, id, dateTime)
	s.metrics.ObserveReschedule(outcome(err, metrics.OutcomeApplied))
	if err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Appointment rescheduled",
		"appointment_id", id,
		"user_id", actor.UserID,
		"from", previous,
		"date_time", updated.DateTime,
	)
	s.publish(ctx, events.Event{
		Type:          events.AppointmentRescheduled,
		AppointmentID: updated.ID,
		DoctorID:      updated.DoctorID,
		PatientID:     updated.PatientID,
		ActorID:       actor.UserID,
		Status:        updated.Status,
		DateTime:      &updated.DateTime,
		PreviousTime:  &previous,
		OccurredAt:    s.clock.Now().UTC(),
	})
	return updated, nil
}

func (s *appointmentService) reschedule(ctx context.Context, actor auth.Identity, id string, dateTime time.Time) (*model.Appointment, time.Time, error) {
	if err := s.validator.Validate(&model.RescheduleRequest{DateTime: dateTime}); err != nil {
		return nil, time.Time{}, apperrors.Validation("Reschedule validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	appt, err := s.load(ctx, id)
	if err != nil {
		return nil, time.Time{}, err
	}
	now := s.clock.Now()
	if err := CheckReschedule(appt, actor, now, s.cfg.CancellationCutoff); err != nil {
		s.cfg.Log.Warn("Reschedule rejected",
			"appointment_id", id,
			"user_id", actor.UserID,
			"role", actor.Role,
			"error", err,
		)
		return nil, time.Time{}, err
	}
	if dateTime.Equal(appt.DateTime) {
		return nil, time.Time{}, apperrors.InvalidInput("New time must differ from the current time")
	}
	if !dateTime.After(now) {
		return nil, time.Time{}, apperrors.Validation("Appointment time must be in the future", nil)
	}

	doctor, err := s.doctors.FindDoctorByID(ctx, appt.DoctorID)
	if err != nil {
		return nil, time.Time{}, err
	}
	if doctor == nil {
		return nil, time.Time{}, apperrors.NotFoundWithID("Doctor", appt.DoctorID)
	}
	if err := s.checkOffered(doctor, dateTime); err != nil {
		return nil, time.Time{}, err
	}

	var updated *model.Appointment
	err = s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindActive(txCtx, appt.DoctorID, dateTime)
		if err != nil {
			return fmt.Errorf("failed to check slot: %w", err)
		}
		if existing != nil {
			return apperrors.Conflict(SlotTakenMessage)
		}

		updated, err = s.repo.Reschedule(txCtx, id, appt.DateTime, dateTime)
		return err
	})
	if err != nil {
		return nil, time.Time{}, s.translate(err, "Failed to reschedule appointment", "appointment_id", id)
	}
	return updated, appt.DateTime, nil
}

func (s *appointmentService) UpdateNotes(ctx context.Context, actor auth.Identity, id string, update *model.NotesUpdate) (*model.Appointment, error) {
	if update == nil || update.IsEmpty() {
		return nil, apperrors.InvalidInput("Nothing to update")
	}
	update.Diagnosis = sanitizer.NormalizeOptionalText(update.Diagnosis)
	update.Prescription = sanitizer.NormalizeOptionalText(update.Prescription)
	update.Notes = sanitizer.NormalizeOptionalText(update.Notes)
	if err := s.validator.Validate(update); err != nil {
		return nil, apperrors.Validation("Notes validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	appt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.UserID != appt.DoctorID {
		return nil, apperrors.Forbidden("Only the appointment's doctor can update clinical notes")
	}

	updated, err := s.repo.UpdateNotes(ctx, id, update)
	if err != nil {
		if errors.Is(err, appointmentserrors.ErrStaleState) {
			return nil, apperrors.NotFoundWithID("Appointment", id)
		}
		return nil, s.translate(err, "Failed to update clinical notes", "appointment_id", id)
	}

	s.cfg.Log.Info("Clinical notes updated",
		"appointment_id", id,
		"doctor_id", actor.UserID,
	)
	return updated, nil
}

func (s *appointmentService) GetByID(ctx context.Context, actor auth.Identity, id string) (*model.Appointment, error) {
	appt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanAct(appt, actor) {
		return nil, apperrors.Forbidden("Not authorized to view this appointment")
	}
	return appt, nil
}

func (s *appointmentService) Mine(ctx context.Context, actor auth.Identity, limit int, offset int64) ([]*model.Appointment, int64, error) {
	field := repository.ByPatient
	if actor.IsDoctor() {
		field = repository.ByDoctor
	}
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	return s.page(ctx,
		func(ctx context.Context) (int64, error) {
			return s.repo.CountByParticipant(ctx, field, actor.UserID)
		},
		func(ctx context.Context) ([]*model.Appointment, error) {
			return s.repo.FindByParticipant(ctx, field, actor.UserID, limit, offset)
		},
	)
}

func (s *appointmentService) Upcoming(ctx context.Context, actor auth.Identity, doctorID string, limit int, offset int64) ([]*model.Appointment, int64, error) {
	if actor.UserID != doctorID && !actor.IsAdmin() {
		return nil, 0, apperrors.Forbidden("Not authorized to view these appointments")
	}
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)
	now := s.clock.Now()

	return s.page(ctx,
		func(ctx context.Context) (int64, error) {
			return s.repo.CountUpcomingByDoctor(ctx, doctorID, now)
		},
		func(ctx context.Context) ([]*model.Appointment, error) {
			return s.repo.FindUpcomingByDoctor(ctx, doctorID, now, limit, offset)
		},
	)
}

// page runs the count and the find concurrently.
func (s *appointmentService) page(
	ctx context.Context,
	count func(context.Context) (int64, error),
	find func(context.Context) ([]*model.Appointment, error),
) ([]*model.Appointment, int64, error) {
	var total int64
	var appointments []*model.Appointment
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		var err error
		ctx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
		defer cancel()
		total, err = count(ctx)
		if err != nil {
			s.cfg.Log.Error("Failed to count appointments", "error", err)
			errCount = apperrors.Internal("Failed to count appointments", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		ctx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
		defer cancel()
		appointments, err = find(ctx)
		if err != nil {
			s.cfg.Log.Error("Failed to list appointments", "error", err)
			errFind = apperrors.Internal("Failed to retrieve appointments", err)
		}
	}()
	wg.Wait()

	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}
	return appointments, total, nil
}

func (s *appointmentService) Availability(ctx context.Context, doctorID string, days, interval int) (*model.DoctorAvailability, error) {
	if days == 0 {
		days = s.cfg.AvailabilityHorizonDays
	}
	if interval == 0 {
		interval = s.cfg.SlotIntervalMin
	}
	if days < 1 || days > 90 {
		return nil, apperrors.InvalidInput("days must be between 1 and 90")
	}
	if interval < 5 || interval > 480 {
		return nil, apperrors.InvalidInput("interval must be between 5 and 480 minutes")
	}
	if base := s.slotOptions(0).IntervalMinutes; interval%base != 0 {
		return nil, apperrors.InvalidInput(fmt.Sprintf("interval must be a multiple of %d minutes", base))
	}

	doctor, err := s.doctors.FindDoctorByID(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if doctor == nil {
		return nil, apperrors.NotFoundWithID("Doctor", doctorID)
	}

	now := s.clock.Now()
	from, to := slots.Horizon(now, days, s.location())
	booked, err := s.repo.FindBookedInRange(ctx, doctorID, from, to)
	if err != nil {
		s.cfg.Log.Error("Failed to load booked slots",
			"doctor_id", doctorID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to retrieve availability", err)
	}

	availability := doctor.Availability()
	if availability == nil {
		availability = []model.AvailabilityWindow{}
	}
	opts := s.slotOptions(interval)
	opts.NotBefore = now
	generated := slots.Generate(availability, booked, now, days, opts)
	s.metrics.ObserveSlots(len(generated))

	return &model.DoctorAvailability{
		Availability: availability,
		BookedSlots:  booked,
		Slots:        generated,
	}, nil
}

func (s *appointmentService) slotOptions(interval int) slots.Options {
	if interval <= 0 {
		interval = s.cfg.SlotIntervalMin
	}
	return slots.Options{
		IntervalMinutes:        interval,
		Location:               s.location(),
		StrictOverlap:          s.cfg.SlotStrictOverlap,
		DefaultDurationMinutes: s.cfg.AppointmentDurationMin,
	}
}

func (s *appointmentService) location() *time.Location {
	if s.cfg.Location != nil {
		return s.cfg.Location
	}
	return time.UTC
}

func (s *appointmentService) load(ctx context.Context, id string) (*model.Appointment, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Appointment ID cannot be empty")
	}
	appt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translate(err, "Failed to retrieve appointment", "appointment_id", id)
	}
	return appt, nil
}

func (s *appointmentService) translate(err error, message string, args ...any) error {
	switch {
	case apperrors.IsAppError(err):
		return err
	case errors.Is(err, appointmentserrors.ErrNotFound):
		return apperrors.NotFound("Appointment")
	case errors.Is(err, appointmentserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid appointment ID format")
	case errors.Is(err, appointmentserrors.ErrSlotTaken):
		return apperrors.Conflict(SlotTakenMessage)
	case errors.Is(err, appointmentserrors.ErrStaleState):
		return apperrors.Conflict(ConcurrentMessage)
	}
	s.cfg.Log.Error(message, append(args, "error", err)...)
	return apperrors.Internal(message, err)
}

func (s *appointmentService) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.cfg.Log.Warn("Failed to publish event",
			"type", event.Type,
			"appointment_id", event.AppointmentID,
			"error", err,
		)
	}
}

func outcome(err error, success string) string {
	if err == nil {
		return success
	}
	switch apperrors.AsAppError(err).Code {
	case apperrors.CodeNotFound:
		return metrics.OutcomeNotFound
	case apperrors.CodeConflict:
		return metrics.OutcomeConflict
	case apperrors.CodeValidation, apperrors.CodeInvalidInput, apperrors.CodePolicy:
		return metrics.OutcomeInvalid
	case apperrors.CodeForbidden, apperrors.CodeUnauthorized:
		return metrics.OutcomeDenied
	}
	return metrics.OutcomeError
}
