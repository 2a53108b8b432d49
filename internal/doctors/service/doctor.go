package service

import (
	"context"
	"errors"
	"sync"
	"time"

	doctorserrors "medibuddy/internal/doctors/errors"
	"medibuddy/internal/doctors/repository"
	"medibuddy/internal/doctors/validator"
	"medibuddy/pkg/auth"
	"medibuddy/pkg/clock"
	"medibuddy/pkg/config"
	apperrors "medibuddy/pkg/errors"
	"medibuddy/pkg/events"
	"medibuddy/pkg/model"
	"medibuddy/pkg/sanitizer"
	"medibuddy/pkg/schedule"
)

// AppointmentStats is the slice of the appointment ledger the doctor stats need.
type AppointmentStats interface {
	CountByStatusSince(ctx context.Context, doctorID string, since time.Time) (model.StatusCounts, error)
}

type DoctorService interface {
	RegisterUser(ctx context.Context, u *model.User) error
	GetDoctor(ctx context.Context, id string) (*model.User, error)
	FindDoctorByID(ctx context.Context, id string) (*model.User, error)
	Search(ctx context.Context, filter model.DoctorFilter, limit int, offset int64) ([]*model.User, int64, error)

	ReplaceAvailability(ctx context.Context, actor auth.Identity, id string, update *model.AvailabilityUpdate) ([]model.AvailabilityWindow, error)
	SetOnline(ctx context.Context, actor auth.Identity, id string, online bool) error
	Stats(ctx context.Context, actor auth.Identity, id string) (model.StatusCounts, error)
	SampleAvailability(ctx context.Context, actor auth.Identity) (int64, error)
}

type doctorService struct {
	repo      repository.UserRepository
	validator *validator.DoctorValidator
	parser    *schedule.Parser
	stats     AppointmentStats
	publisher events.Publisher
	clock     clock.Clock
	cfg       *config.Config
}

func NewDoctorService(
	repo repository.UserRepository,
	validator *validator.DoctorValidator,
	parser *schedule.Parser,
	stats AppointmentStats,
	publisher events.Publisher,
	clk clock.Clock,
	cfg *config.Config,
) DoctorService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &doctorService{
		repo:      repo,
		validator: validator,
		parser:    parser,
		stats:     stats,
		publisher: publisher,
		clock:     clk,
		cfg:       cfg,
	}
}

func (s *doctorService) RegisterUser(ctx context.Context, u *model.User) error {
	s.sanitize(u)

	if err := s.validator.Validate(u); err != nil {
		s.cfg.Log.Warn("User validation failed",
			"email", u.Email,
			"role", u.Role,
			"error", err,
		)
		return apperrors.Validation("User validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, doctorserrors.ErrDuplicateEmail) {
			return apperrors.Conflict("Email is already registered")
		}
		s.cfg.Log.Error("Failed to create user",
			"email", u.Email,
			"error", err,
		)
		return apperrors.Internal("Failed to create user", err)
	}

	s.cfg.Log.Info("User created successfully",
		"id", u.ID,
		"role", u.Role,
	)
	return nil
}

func (s *doctorService) GetDoctor(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Doctor ID cannot be empty")
	}

	doctor, err := s.repo.FindDoctor(ctx, id)
	if err != nil {
		return nil, s.translate(err, "Failed to retrieve doctor", "doctor_id", id)
	}
	return doctor, nil
}

// FindDoctorByID returns nil with no error when id does not name a doctor.
func (s *doctorService) FindDoctorByID(ctx context.Context, id string) (*model.User, error) {
	doctor, err := s.repo.FindDoctor(ctx, id)
	if err != nil {
		if errors.Is(err, doctorserrors.ErrNotFound) ||
			errors.Is(err, doctorserrors.ErrNotDoctor) ||
			errors.Is(err, doctorserrors.ErrInvalidID) {
			return nil, nil
		}
		s.cfg.Log.Error("Failed to look up doctor", "doctor_id", id, "error", err)
		return nil, apperrors.Internal("Failed to retrieve doctor", err)
	}
	return doctor, nil
}

func (s *doctorService) Search(ctx context.Context, filter model.DoctorFilter, limit int, offset int64) ([]*model.User, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)
	filter = model.DoctorFilter{
		Name:           sanitizer.TrimAndNormalize(filter.Name),
		Specialization: sanitizer.TrimAndNormalize(filter.Specialization),
		Query:          sanitizer.TrimAndNormalize(filter.Query),
	}

	var count int64
	var doctors []*model.User
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		var err error
		ctx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
		defer cancel()
		count, err = s.repo.Count(ctx, filter)
		if err != nil {
			s.cfg.Log.Error("Failed to count doctors", "error", err)
			errCount = apperrors.Internal("Failed to count doctors", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		ctx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
		defer cancel()
		doctors, err = s.repo.Search(ctx, filter, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to search doctors",
				"name", filter.Name,
				"specialization", filter.Specialization,
				"query", filter.Query,
				"error", err,
			)
			errFind = apperrors.Internal("Failed to retrieve doctors", err)
		}
	}()
	wg.Wait()

	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return doctors, count, nil
}

func (s *doctorService) ReplaceAvailability(ctx context.Context, actor auth.Identity, id string, update *model.AvailabilityUpdate) ([]model.AvailabilityWindow, error) {
	if actor.UserID != id {
		return nil, apperrors.Forbidden("Only the doctor can update their own availability")
	}
	if update == nil || (update.Availability == nil && update.Schedule == nil) {
		return nil, apperrors.InvalidInput("Either availability or schedule is required")
	}
	if update.Availability != nil && update.Schedule != nil {
		return nil, apperrors.InvalidInput("Provide either availability or schedule, not both")
	}

	windows := update.Availability
	if update.Schedule != nil {
		parsed, err := s.parser.Parse(*update.Schedule)
		if err != nil {
			s.cfg.Log.Warn("Schedule expression rejected",
				"doctor_id", id,
				"schedule", *update.Schedule,
				"error", err,
			)
			return nil, apperrors.Validation("Invalid schedule expression", map[string]any{
				"error": err.Error(),
			})
		}
		windows = parsed
	}
	if windows == nil {
		windows = []model.AvailabilityWindow{}
	}

	if err := s.validator.ValidateAvailability(windows); err != nil {
		s.cfg.Log.Warn("Availability validation failed",
			"doctor_id", id,
			"error", err,
		)
		return nil, apperrors.Validation("Availability validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.repo.ReplaceAvailability(ctx, id, windows); err != nil {
		return nil, s.translate(err, "Failed to update availability", "doctor_id", id)
	}

	s.cfg.Log.Info("Availability replaced",
		"doctor_id", id,
		"windows", len(windows),
	)
	s.publish(ctx, events.Event{
		Type:        events.AvailabilityReplaced,
		DoctorID:    id,
		ActorID:     actor.UserID,
		WindowCount: len(windows),
		OccurredAt:  s.clock.Now().UTC(),
	})

	return windows, nil
}

func (s *doctorService) SetOnline(ctx context.Context, actor auth.Identity, id string, online bool) error {
	if actor.UserID != id {
		return apperrors.Forbidden("Only the doctor can change their online status")
	}

	if err := s.repo.SetOnline(ctx, id, online); err != nil {
		return s.translate(err, "Failed to update online status", "doctor_id", id)
	}

	s.cfg.Log.Info("Doctor online status updated",
		"doctor_id", id,
		"online", online,
	)
	return nil
}

func (s *doctorService) Stats(ctx context.Context, actor auth.Identity, id string) (model.StatusCounts, error) {
	if actor.UserID != id && !actor.IsAdmin() {
		return nil, apperrors.Forbidden("Not authorized to view these statistics")
	}
	if _, err := s.GetDoctor(ctx, id); err != nil {
		return nil, err
	}

	since := startOfMonth(s.clock.Now(), s.location())
	counts, err := s.stats.CountByStatusSince(ctx, id, since)
	if err != nil {
		s.cfg.Log.Error("Failed to count appointments",
			"doctor_id", id,
			"since", since,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to retrieve statistics", err)
	}

	result := model.StatusCounts{
		model.Scheduled: 0,
		model.Completed: 0,
		model.Cancelled: 0,
		model.NoShow:    0,
	}
	for status, n := range counts {
		result[status] = n
	}
	return result, nil
}

func (s *doctorService) SampleAvailability(ctx context.Context, actor auth.Identity) (int64, error) {
	if !actor.IsAdmin() {
		return 0, apperrors.Forbidden("Only administrators can seed availability")
	}

	windows := s.parser.Default()
	updated, err := s.repo.SetAvailabilityForAll(ctx, windows)
	if err != nil {
		s.cfg.Log.Error("Failed to seed sample availability", "error", err)
		return 0, apperrors.Internal("Failed to seed sample availability", err)
	}

	s.cfg.Log.Info("Sample availability applied",
		"doctors", updated,
		"windows", len(windows),
	)
	return updated, nil
}

func (s *doctorService) translate(err error, message string, args ...any) error {
	switch {
	case errors.Is(err, doctorserrors.ErrNotFound), errors.Is(err, doctorserrors.ErrNotDoctor):
		return apperrors.NotFound("Doctor")
	case errors.Is(err, doctorserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid doctor ID format")
	}
	s.cfg.Log.Error(message, append(args, "error", err)...)
	return apperrors.Internal(message, err)
}

func (s *doctorService) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.cfg.Log.Warn("Failed to publish event",
			"type", event.Type,
			"doctor_id", event.DoctorID,
			"error", err,
		)
	}
}

func (s *doctorService) location() *time.Location {
	if s.cfg.Location != nil {
		return s.cfg.Location
	}
	return time.UTC
}

func startOfMonth(now time.Time, loc *time.Location) time.Time {
	y, m, _ := now.In(loc).Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, loc)
}

func (s *doctorService) sanitize(u *model.User) {
	u.Name = sanitizer.NormalizeName(u.Name)
	u.Email = sanitizer.NormalizeEmail(u.Email)
	if phone := sanitizer.NormalizePhone(u.Phone); phone != "" {
		u.Phone = phone
	}
	if u.Doctor != nil {
		u.Doctor.Specialization = sanitizer.TrimAndNormalize(u.Doctor.Specialization)
		u.Doctor.Qualification = sanitizer.TrimAndNormalize(u.Doctor.Qualification)
		u.Doctor.ClinicName = sanitizer.TrimAndNormalize(u.Doctor.ClinicName)
		u.Doctor.LicenseNumber = sanitizer.TrimAndNormalize(u.Doctor.LicenseNumber)
		u.Doctor.Bio = sanitizer.NormalizeText(u.Doctor.Bio)
		u.Doctor.Languages = sanitizer.NormalizeLanguages(u.Doctor.Languages)
		if u.Doctor.Availability == nil {
			u.Doctor.Availability = []model.AvailabilityWindow{}
		}
	}
	if u.Patient != nil {
		u.Patient.EmergencyContact = sanitizer.TrimAndNormalize(u.Patient.EmergencyContact)
	}
}
