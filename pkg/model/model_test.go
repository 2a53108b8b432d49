package model

import (
	"errors"
	"testing"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"09:30", 570, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"9:30", 0, true},
		{"09:60", 0, true},
		{"0930", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClock(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseClock(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseClock(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatClock(t *testing.T) {
	if got := FormatClock(570); got != "09:30" {
		t.Errorf("FormatClock(570) = %s", got)
	}
	if got := FormatClock(0); got != "00:00" {
		t.Errorf("FormatClock(0) = %s", got)
	}
}

func TestValidateAvailability(t *testing.T) {
	tests := []struct {
		name    string
		windows []AvailabilityWindow
		wantErr bool
	}{
		{"empty set", nil, false},
		{"valid", []AvailabilityWindow{{Day: Monday, StartTime: "09:00", EndTime: "10:00"}}, false},
		{"duplicate weekday", []AvailabilityWindow{
			{Day: Monday, StartTime: "09:00", EndTime: "12:00"},
			{Day: Monday, StartTime: "10:00", EndTime: "14:00"},
		}, false},
		{"end before start", []AvailabilityWindow{{Day: Monday, StartTime: "17:00", EndTime: "09:00"}}, true},
		{"empty range", []AvailabilityWindow{{Day: Monday, StartTime: "09:00", EndTime: "09:00"}}, true},
		{"unknown day", []AvailabilityWindow{{Day: "Funday", StartTime: "09:00", EndTime: "10:00"}}, true},
		{"one bad window rejects all", []AvailabilityWindow{
			{Day: Monday, StartTime: "09:00", EndTime: "10:00"},
			{Day: Tuesday, StartTime: "9am", EndTime: "10:00"},
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAvailability(tt.windows)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAvailability() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestUser_CheckVariant(t *testing.T) {
	tests := []struct {
		name string
		user User
		want error
	}{
		{"doctor with profile", User{Role: RoleDoctor, Doctor: &DoctorProfile{}}, nil},
		{"doctor without profile", User{Role: RoleDoctor}, ErrMissingDoctorProfile},
		{"doctor with patient profile", User{Role: RoleDoctor, Doctor: &DoctorProfile{}, Patient: &PatientProfile{}}, ErrUnexpectedProfile},
		{"patient with profile", User{Role: RolePatient, Patient: &PatientProfile{}}, nil},
		{"patient without profile", User{Role: RolePatient}, ErrMissingPatientProfile},
		{"patient with doctor profile", User{Role: RolePatient, Patient: &PatientProfile{}, Doctor: &DoctorProfile{}}, ErrUnexpectedProfile},
		{"admin bare", User{Role: RoleAdmin}, nil},
		{"admin with profile", User{Role: RoleAdmin, Doctor: &DoctorProfile{}}, ErrUnexpectedProfile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.user.CheckVariant(); !errors.Is(err, tt.want) {
				t.Errorf("CheckVariant() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestUser_Availability(t *testing.T) {
	windows := []AvailabilityWindow{{Day: Friday, StartTime: "08:00", EndTime: "12:00"}}
	doctor := User{Role: RoleDoctor, Doctor: &DoctorProfile{Availability: windows}}
	if got := doctor.Availability(); len(got) != 1 {
		t.Errorf("doctor availability = %v", got)
	}

	patient := User{Role: RolePatient, Patient: &PatientProfile{}}
	if got := patient.Availability(); got != nil {
		t.Errorf("patient availability should be nil, got %v", got)
	}
}

func TestAppointment_IsParticipant(t *testing.T) {
	a := &Appointment{DoctorID: "d1", PatientID: "p1"}
	if !a.IsParticipant("d1") || !a.IsParticipant("p1") {
		t.Errorf("doctor and patient should be participants")
	}
	if a.IsParticipant("x") || a.IsParticipant("") {
		t.Errorf("strangers and empty ids are not participants")
	}
}
