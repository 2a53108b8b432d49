package model

import (
	"time"
)

type Appointment struct {
	ID              string            `json:"id,omitempty" bson:"_id,omitempty"`
	DoctorID        string            `json:"doctor" bson:"doctor_id"`
	PatientID       string            `json:"patient" bson:"patient_id"`
	DateTime        time.Time         `json:"dateTime" bson:"date_time"`
	DurationMinutes int               `json:"duration" bson:"duration"`
	Status          AppointmentStatus `json:"status" bson:"status"`
	Type            AppointmentType   `json:"type" bson:"type"`
	Symptoms        string            `json:"symptoms" bson:"symptoms"`
	Diagnosis       string            `json:"diagnosis,omitempty" bson:"diagnosis,omitempty"`
	Prescription    string            `json:"prescription,omitempty" bson:"prescription,omitempty"`
	Notes           string            `json:"notes,omitempty" bson:"notes,omitempty"`
	FollowUp        *FollowUp         `json:"followUp,omitempty" bson:"follow_up,omitempty"`
	PaymentAmount   float64           `json:"paymentAmount" bson:"payment_amount"`
	PaymentStatus   PaymentStatus     `json:"paymentStatus" bson:"payment_status"`
	CreatedAt       time.Time         `json:"createdAt" bson:"created_at"`
	UpdatedAt       time.Time         `json:"updatedAt" bson:"updated_at"`
}

type FollowUp struct {
	Required bool       `json:"required" bson:"required"`
	Date     *time.Time `json:"date,omitempty" bson:"date,omitempty"`
}

// IsParticipant reports whether userID is the appointment's doctor or patient.
func (a *Appointment) IsParticipant(userID string) bool {
	return userID != "" && (userID == a.DoctorID || userID == a.PatientID)
}

// BookedSlot is the part of a scheduled appointment the slot generator needs.
type BookedSlot struct {
	DateTime        time.Time `json:"dateTime" bson:"date_time"`
	DurationMinutes int       `json:"duration" bson:"duration"`
}

type CreateAppointmentRequest struct {
	DoctorID      string          `json:"doctor" validate:"required,mongodb"`
	DateTime      time.Time       `json:"dateTime" validate:"required"`
	Type          AppointmentType `json:"type" validate:"omitempty,oneof=in-person video-consultation"`
	Symptoms      string          `json:"symptoms" validate:"required,min=2,max=2000"`
	PaymentAmount float64         `json:"paymentAmount" validate:"gte=0"`
}

type StatusUpdate struct {
	Status AppointmentStatus `json:"status" validate:"required,oneof=scheduled completed cancelled no-show"`
}

type RescheduleRequest struct {
	DateTime time.Time `json:"dateTime" validate:"required"`
}

type NotesUpdate struct {
	Diagnosis    *string   `json:"diagnosis,omitempty" validate:"omitempty,max=4000"`
	Prescription *string   `json:"prescription,omitempty" validate:"omitempty,max=4000"`
	Notes        *string   `json:"notes,omitempty" validate:"omitempty,max=4000"`
	FollowUp     *FollowUp `json:"followUp,omitempty"`
}

func (u *NotesUpdate) IsEmpty() bool {
	return u.Diagnosis == nil && u.Prescription == nil && u.Notes == nil && u.FollowUp == nil
}

// DoctorAvailability is the payload of the availability query.
type DoctorAvailability struct {
	Availability []AvailabilityWindow `json:"availability"`
	BookedSlots  []BookedSlot         `json:"bookedSlots"`
	Slots        []Slot               `json:"slots"`
}

type StatusCounts map[AppointmentStatus]int64
