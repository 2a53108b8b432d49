package model

import (
	"errors"
	"time"
)

var (
	ErrMissingDoctorProfile  = errors.New("doctor must carry a doctor profile")
	ErrMissingPatientProfile = errors.New("patient must carry a patient profile")
	ErrUnexpectedProfile     = errors.New("profile does not match role")
)

// User is a sum type over the three roles. A doctor carries only Doctor, a
// patient only Patient, an admin neither.
type User struct {
	ID        string          `json:"id,omitempty" bson:"_id,omitempty"`
	Name      string          `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Email     string          `json:"email" bson:"email" validate:"required,email"`
	Phone     string          `json:"phone,omitempty" bson:"phone,omitempty" validate:"omitempty,min=7,max=20"`
	Role      Role            `json:"role" bson:"role" validate:"required,oneof=patient doctor admin"`
	Doctor    *DoctorProfile  `json:"doctor,omitempty" bson:"doctor,omitempty" validate:"omitempty"`
	Patient   *PatientProfile `json:"patient,omitempty" bson:"patient,omitempty" validate:"omitempty"`
	CreatedAt time.Time       `json:"createdAt" bson:"created_at"`
}

type DoctorProfile struct {
	Specialization    string               `json:"specialization" bson:"specialization" validate:"required,min=2,max=100"`
	Qualification     string               `json:"qualification" bson:"qualification" validate:"required,min=2,max=200"`
	ExperienceYears   int                  `json:"experience" bson:"experience_years" validate:"gte=0,lte=80"`
	ClinicName        string               `json:"clinicName,omitempty" bson:"clinic_name,omitempty" validate:"omitempty,max=200"`
	ConsultationFee   float64              `json:"consultationFee" bson:"consultation_fee" validate:"gte=0"`
	Bio               string               `json:"bio,omitempty" bson:"bio,omitempty" validate:"omitempty,max=2000"`
	Languages         []string             `json:"languages,omitempty" bson:"languages,omitempty"`
	LicenseNumber     string               `json:"licenseNumber" bson:"license_number" validate:"required,min=3,max=50"`
	VideoConsultation bool                 `json:"videoConsultation" bson:"video_consultation"`
	Verified          bool                 `json:"verified" bson:"verified"`
	Online            bool                 `json:"online" bson:"online"`
	Availability      []AvailabilityWindow `json:"availability" bson:"availability" validate:"omitempty,dive"`
}

type PatientProfile struct {
	DateOfBirth      *time.Time `json:"dateOfBirth,omitempty" bson:"date_of_birth,omitempty"`
	Gender           string     `json:"gender,omitempty" bson:"gender,omitempty" validate:"omitempty,oneof=male female other"`
	BloodGroup       string     `json:"bloodGroup,omitempty" bson:"blood_group,omitempty" validate:"omitempty,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	EmergencyContact string     `json:"emergencyContact,omitempty" bson:"emergency_contact,omitempty" validate:"omitempty,max=100"`
}

// CheckVariant verifies that the attached profile matches the role.
func (u *User) CheckVariant() error {
	switch u.Role {
	case RoleDoctor:
		if u.Doctor == nil {
			return ErrMissingDoctorProfile
		}
		if u.Patient != nil {
			return ErrUnexpectedProfile
		}
	case RolePatient:
		if u.Patient == nil {
			return ErrMissingPatientProfile
		}
		if u.Doctor != nil {
			return ErrUnexpectedProfile
		}
	case RoleAdmin:
		if u.Doctor != nil || u.Patient != nil {
			return ErrUnexpectedProfile
		}
	}
	return nil
}

func (u *User) IsDoctor() bool {
	return u.Role == RoleDoctor && u.Doctor != nil
}

// Availability returns the doctor's weekly template, or nil for other roles.
func (u *User) Availability() []AvailabilityWindow {
	if !u.IsDoctor() {
		return nil
	}
	return u.Doctor.Availability
}

type AvailabilityUpdate struct {
	Availability []AvailabilityWindow `json:"availability,omitempty" validate:"omitempty,max=100,dive"`
	Schedule     *string              `json:"schedule,omitempty" validate:"omitempty,max=500"`
}

type OnlineUpdate struct {
	Online *bool `json:"online" validate:"required"`
}

type DoctorFilter struct {
	Name           string
	Specialization string
	Query          string
}
