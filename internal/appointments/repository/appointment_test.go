package repository

import (
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	appointmentserrors "medibuddy/internal/appointments/errors"
)

func TestStoredTime(t *testing.T) {
	ist := time.FixedZone("IST", 5*60*60+30*60)
	in := time.Date(2026, 3, 2, 14, 30, 0, 123456789, ist)

	got := storedTime(in)
	if got.Location() != time.UTC {
		t.Errorf("location = %v, want UTC", got.Location())
	}
	if want := time.Date(2026, 3, 2, 9, 0, 0, 123000000, time.UTC); !got.Equal(want) {
		t.Errorf("storedTime = %v, want %v", got, want)
	}
}

func TestObjectID(t *testing.T) {
	if _, err := objectID("64b7f0c2a1b2c3d4e5f60001"); err != nil {
		t.Errorf("valid id rejected: %v", err)
	}
	if _, err := objectID("not-an-id"); !errors.Is(err, appointmentserrors.ErrInvalidID) {
		t.Errorf("error = %v, want ErrInvalidID", err)
	}
}

func TestUpcomingFilter(t *testing.T) {
	from := time.Date(2026, 2, 27, 10, 0, 0, 0, time.UTC)
	filter := upcomingFilter("d1", from)

	if filter["doctor_id"] != "d1" || filter["status"] != "scheduled" {
		t.Errorf("filter = %v", filter)
	}
	rng, ok := filter["date_time"].(bson.M)
	if !ok {
		t.Fatalf("date_time = %v", filter["date_time"])
	}
	if gte, _ := rng["$gte"].(time.Time); !gte.Equal(from) {
		t.Errorf("$gte = %v", rng["$gte"])
	}
}
