package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRouteLabel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/api/v1/appointments/mine", "/api/v1/appointments/mine"},
		{"/api/v1/appointments/id/65f1a2b3c4d5e6f708091a2b/status", "/api/v1/appointments/id/:id/status"},
		{"/api/v1/appointments/doctor/65f1a2b3c4d5e6f708091a2b", "/api/v1/appointments/doctor/:id"},
		{"/api/v1/x/65f1a2b3c4d5e6f708091a2b/65f1a2b3c4d5e6f708091a2c", "/api/v1/x/:id/:id"},
	}

	for _, tt := range tests {
		if got := RouteLabel(tt.in); got != tt.want {
			t.Errorf("RouteLabel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCollector_Observe(t *testing.T) {
	c := NewCollector("test")

	c.ObserveBooking(OutcomeCreated)
	c.ObserveBooking(OutcomeConflict)
	c.ObserveBooking(OutcomeConflict)
	c.ObserveTransition("cancelled", OutcomeDenied)
	c.ObserveEvent("appointment.created", nil)
	c.ObserveEvent("appointment.created", errors.New("broker down"))
	c.ObserveRequest(http.MethodGet, "/api/v1/appointments/mine", 200, 10*time.Millisecond)

	if got := testutil.ToFloat64(c.BookingsTotal.WithLabelValues(OutcomeConflict)); got != 2 {
		t.Errorf("conflict bookings = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.StatusTransitionsTotal.WithLabelValues("cancelled", OutcomeDenied)); got != 1 {
		t.Errorf("denied cancellations = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.EventsPublishedTotal.WithLabelValues("appointment.created", "failed")); got != 1 {
		t.Errorf("failed events = %v, want 1", got)
	}
}

func TestCollector_NilIsSafe(t *testing.T) {
	var c *Collector
	c.ObserveBooking(OutcomeCreated)
	c.ObserveTransition("completed", OutcomeCreated)
	c.ObserveReschedule(OutcomeConflict)
	c.ObserveSlots(3)
	c.ObserveEvent("x", nil)
	c.ObserveRequest(http.MethodGet, "/", 200, time.Millisecond)
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector("clinic")
	c.ObserveBooking(OutcomeCreated)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "clinic_appointments_bookings_total") {
		t.Errorf("metrics output missing bookings counter")
	}
}
