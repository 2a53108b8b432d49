package model

import "time"

type Weekday = string

const (
	Monday    Weekday = "Monday"
	Tuesday   Weekday = "Tuesday"
	Wednesday Weekday = "Wednesday"
	Thursday  Weekday = "Thursday"
	Friday    Weekday = "Friday"
	Saturday  Weekday = "Saturday"
	Sunday    Weekday = "Sunday"
)

// Weekdays lists the days Monday-first, the order used by schedule expressions.
var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// WeekdayOf returns the enumerated name of t's weekday.
func WeekdayOf(t time.Time) Weekday {
	return t.Weekday().String()
}

type AppointmentStatus = string

const (
	Scheduled AppointmentStatus = "scheduled"
	Completed AppointmentStatus = "completed"
	Cancelled AppointmentStatus = "cancelled"
	NoShow    AppointmentStatus = "no-show"
)

type AppointmentType = string

const (
	InPerson           AppointmentType = "in-person"
	VideoConsultation  AppointmentType = "video-consultation"
	DefaultDurationMin                 = 30
)

type PaymentStatus = string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentRefunded  PaymentStatus = "refunded"
)

type Role = string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

type SlotStatus = string

const (
	SlotFree   SlotStatus = "Free"
	SlotBooked SlotStatus = "Booked"
)
