package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	appointmentsrepo "medibuddy/internal/appointments/repository"
	doctorsrepo "medibuddy/internal/doctors/repository"
	doctorsservice "medibuddy/internal/doctors/service"
	doctorsvalidator "medibuddy/internal/doctors/validator"
	"medibuddy/pkg/auth"
	"medibuddy/pkg/config"
	"medibuddy/pkg/events"
	"medibuddy/pkg/model"
	"medibuddy/pkg/schedule"
)

const JobName = "seed"

var specializations = []string{
	"Cardiology",
	"Dermatology",
	"General Practice",
	"Orthopedics",
	"Endocrinology",
	"Neurology",
	"Pediatrics",
	"Psychiatry",
	"Ophthalmology",
	"ENT",
}

func main() {
	doctors := flag.Int("doctors", 10, "number of doctors to create")
	patients := flag.Int("patients", 50, "number of patients to create")
	sample := flag.Bool("sample", false, "replace every doctor's availability with the default schedule")
	tokens := flag.Bool("tokens", true, "print a bearer token for the admin and the first users")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cfg := config.Load(JobName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	parser, err := schedule.NewParser(cfg.DefaultSchedule)
	if err != nil {
		cfg.Log.Fatal("Invalid default schedule", "expression", cfg.DefaultSchedule, "error", err)
	}
	svc := doctorsservice.NewDoctorService(
		doctorsrepo.NewMongoUserRepository(cfg),
		doctorsvalidator.NewDoctorValidator(cfg.Log),
		parser,
		appointmentsrepo.NewMongoAppointmentRepository(cfg),
		events.Noop{},
		nil,
		cfg,
	)
	faker := gofakeit.New(0)
	signer := auth.NewSigner(cfg.JWTSecret, cfg.JWTTTL)

	admin := &model.User{
		Name:  "Clinic Admin",
		Email: fmt.Sprintf("admin+%d@medibuddy.test", time.Now().Unix()),
		Role:  model.RoleAdmin,
	}
	if err := svc.RegisterUser(ctx, admin); err != nil {
		cfg.Log.Fatal("Failed to create admin", "error", err)
	}
	printToken(cfg, signer, *tokens, admin)

	for i := 0; i < *doctors; i++ {
		u := fakeDoctor(faker, parser.Default())
		if err := svc.RegisterUser(ctx, u); err != nil {
			cfg.Log.Error("Failed to create doctor", "email", u.Email, "error", err)
			continue
		}
		if i == 0 {
			printToken(cfg, signer, *tokens, u)
		}
	}
	cfg.Log.Info("Doctors seeded", "count", *doctors)

	for i := 0; i < *patients; i++ {
		u := fakePatient(faker)
		if err := svc.RegisterUser(ctx, u); err != nil {
			cfg.Log.Error("Failed to create patient", "email", u.Email, "error", err)
			continue
		}
		if i == 0 {
			printToken(cfg, signer, *tokens, u)
		}
	}
	cfg.Log.Info("Patients seeded", "count", *patients)

	if *sample {
		updated, err := svc.SampleAvailability(ctx, auth.Identity{UserID: admin.ID, Role: model.RoleAdmin})
		if err != nil {
			cfg.Log.Fatal("Failed to apply sample availability", "error", err)
		}
		cfg.Log.Info("Sample availability applied", "doctors", updated)
	}
}

func fakeDoctor(faker *gofakeit.Faker, availability []model.AvailabilityWindow) *model.User {
	return &model.User{
		Name:  "Dr. " + faker.Name(),
		Email: faker.Email(),
		Phone: faker.Phone(),
		Role:  model.RoleDoctor,
		Doctor: &model.DoctorProfile{
			Specialization:    faker.RandomString(specializations),
			Qualification:     "MBBS, MD",
			ExperienceYears:   faker.Number(1, 35),
			ClinicName:        faker.Company() + " Clinic",
			ConsultationFee:   float64(faker.Number(3, 20) * 100),
			Bio:               faker.Sentence(12),
			Languages:         []string{"English", faker.RandomString([]string{"Hindi", "Tamil", "Spanish", "French"})},
			LicenseNumber:     fmt.Sprintf("MED-%06d", faker.Number(1, 999999)),
			VideoConsultation: faker.Bool(),
			Verified:          true,
			Availability:      availability,
		},
	}
}

func fakePatient(faker *gofakeit.Faker) *model.User {
	dob := faker.DateRange(time.Date(1950, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC))
	return &model.User{
		Name:  faker.Name(),
		Email: faker.Email(),
		Phone: faker.Phone(),
		Role:  model.RolePatient,
		Patient: &model.PatientProfile{
			DateOfBirth: &dob,
			Gender:      faker.RandomString([]string{"male", "female", "other"}),
			BloodGroup:  faker.RandomString([]string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}),
		},
	}
}

func printToken(cfg *config.Config, signer *auth.Signer, enabled bool, u *model.User) {
	if !enabled || cfg.JWTSecret == "" {
		return
	}
	token, err := signer.Issue(auth.Identity{UserID: u.ID, Role: u.Role})
	if err != nil {
		cfg.Log.Error("Failed to issue token", "user_id", u.ID, "error", err)
		return
	}
	fmt.Printf("%s\t%s\t%s\n", u.Role, u.ID, token)
}
