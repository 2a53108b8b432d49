package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	appointmentserrors "medibuddy/internal/appointments/errors"
	"medibuddy/internal/appointments/repository"
	mongotx "medibuddy/pkg/db/mongo"
	"medibuddy/pkg/model"
)

// memoryRepository mirrors the Mongo ledger, including the unique partial
// index on scheduled (doctor, dateTime) pairs, so races are decided at write time.
type memoryRepository struct {
	mu     sync.Mutex
	nextID int
	items  map[string]*model.Appointment

	failWith error
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{items: map[string]*model.Appointment{}}
}

func (m *memoryRepository) clone(a *model.Appointment) *model.Appointment {
	c := *a
	return &c
}

func (m *memoryRepository) takenLocked(doctorID string, at time.Time, except string) bool {
	for id, a := range m.items {
		if id != except && a.DoctorID == doctorID && a.Status == model.Scheduled && a.DateTime.Equal(at) {
			return true
		}
	}
	return false
}

func (m *memoryRepository) Create(_ context.Context, a *model.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	if a.Status == model.Scheduled && m.takenLocked(a.DoctorID, a.DateTime, "") {
		return fmt.Errorf("%w: %s", appointmentserrors.ErrSlotTaken, a.DoctorID)
	}
	m.nextID++
	a.ID = fmt.Sprintf("64b7f0c2a1b2c3d4e5f6%04x", m.nextID)
	a.CreatedAt = time.Now().UTC()
	a.UpdatedAt = a.CreatedAt
	m.items[a.ID] = m.clone(a)
	return nil
}

func (m *memoryRepository) FindByID(_ context.Context, id string) (*model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", appointmentserrors.ErrNotFound, id)
	}
	return m.clone(a), nil
}

func (m *memoryRepository) FindActive(_ context.Context, doctorID string, at time.Time) (*model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.items {
		if a.DoctorID == doctorID && a.Status == model.Scheduled && a.DateTime.Equal(at) {
			return m.clone(a), nil
		}
	}
	return nil, nil
}

func (m *memoryRepository) FindBookedInRange(_ context.Context, doctorID string, from, to time.Time) ([]model.BookedSlot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	booked := []model.BookedSlot{}
	for _, a := range m.items {
		if a.DoctorID == doctorID && a.Status == model.Scheduled && !a.DateTime.Before(from) && a.DateTime.Before(to) {
			booked = append(booked, model.BookedSlot{DateTime: a.DateTime, DurationMinutes: a.DurationMinutes})
		}
	}
	sort.Slice(booked, func(i, j int) bool { return booked[i].DateTime.Before(booked[j].DateTime) })
	return booked, nil
}

func (m *memoryRepository) filter(keep func(*model.Appointment) bool) []*model.Appointment {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.Appointment{}
	for _, a := range m.items {
		if keep(a) {
			out = append(out, m.clone(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DateTime.Before(out[j].DateTime) })
	return out
}

func participant(field, userID string) func(*model.Appointment) bool {
	return func(a *model.Appointment) bool {
		if field == repository.ByDoctor {
			return a.DoctorID == userID
		}
		return a.PatientID == userID
	}
}

func (m *memoryRepository) FindByParticipant(_ context.Context, field, userID string, _ int, _ int64) ([]*model.Appointment, error) {
	return m.filter(participant(field, userID)), nil
}

func (m *memoryRepository) CountByParticipant(_ context.Context, field, userID string) (int64, error) {
	return int64(len(m.filter(participant(field, userID)))), nil
}

func upcoming(doctorID string, from time.Time) func(*model.Appointment) bool {
	return func(a *model.Appointment) bool {
		return a.DoctorID == doctorID && a.Status == model.Scheduled && !a.DateTime.Before(from)
	}
}

func (m *memoryRepository) FindUpcomingByDoctor(_ context.Context, doctorID string, from time.Time, _ int, _ int64) ([]*model.Appointment, error) {
	return m.filter(upcoming(doctorID, from)), nil
}

func (m *memoryRepository) CountUpcomingByDoctor(_ context.Context, doctorID string, from time.Time) (int64, error) {
	return int64(len(m.filter(upcoming(doctorID, from)))), nil
}

func (m *memoryRepository) CountByStatusSince(_ context.Context, doctorID string, since time.Time) (model.StatusCounts, error) {
	counts := model.StatusCounts{}
	for _, a := range m.filter(func(a *model.Appointment) bool { return a.DoctorID == doctorID && !a.DateTime.Before(since) }) {
		counts[a.Status]++
	}
	return counts, nil
}

func (m *memoryRepository) UpdateStatus(_ context.Context, id string, expected, next model.AppointmentStatus) (*model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.items[id]
	if !ok || a.Status != expected {
		return nil, fmt.Errorf("%w: %s", appointmentserrors.ErrStaleState, id)
	}
	if next == model.Scheduled && m.takenLocked(a.DoctorID, a.DateTime, id) {
		return nil, fmt.Errorf("%w: %s", appointmentserrors.ErrSlotTaken, id)
	}
	a.Status = next
	return m.clone(a), nil
}

func (m *memoryRepository) Reschedule(_ context.Context, id string, from, to time.Time) (*model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.items[id]
	if !ok || a.Status != model.Scheduled || !a.DateTime.Equal(from) {
		return nil, fmt.Errorf("%w: %s", appointmentserrors.ErrStaleState, id)
	}
	if m.takenLocked(a.DoctorID, to, id) {
		return nil, fmt.Errorf("%w: %s", appointmentserrors.ErrSlotTaken, id)
	}
	a.DateTime = to
	return m.clone(a), nil
}

func (m *memoryRepository) UpdateNotes(_ context.Context, id string, notes *model.NotesUpdate) (*model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", appointmentserrors.ErrStaleState, id)
	}
	if notes.Diagnosis != nil {
		a.Diagnosis = *notes.Diagnosis
	}
	if notes.Prescription != nil {
		a.Prescription = *notes.Prescription
	}
	if notes.Notes != nil {
		a.Notes = *notes.Notes
	}
	if notes.FollowUp != nil {
		a.FollowUp = notes.FollowUp
	}
	return m.clone(a), nil
}

func (m *memoryRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(ctx)
}

func (m *memoryRepository) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

func (m *memoryRepository) put(a *model.Appointment) *model.Appointment {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	a.ID = fmt.Sprintf("64b7f0c2a1b2c3d4e5f6%04x", m.nextID)
	m.items[a.ID] = m.clone(a)
	return m.clone(a)
}
