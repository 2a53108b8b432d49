package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"medibuddy/pkg/auth"
	"medibuddy/pkg/client"
	"medibuddy/pkg/config"
	"medibuddy/pkg/logger"
	"medibuddy/pkg/model"
	"medibuddy/pkg/slots"
)

// simulate races many patients for one free slot and reports how the
// server settled the race. Exactly one booking should win.
func main() {
	doctorID := flag.String("doctor", "", "doctor id to book")
	patients := flag.Int("patients", 50, "concurrent patients")
	baseURL := flag.String("url", envOr("API_BASE_URL", "http://localhost:8080"), "clinic API base URL")
	flag.Parse()

	log := logger.New(logger.Config{
		Level:   logger.INFO,
		Format:  logger.JSON,
		Service: "simulate",
	})
	secret := os.Getenv(config.EnvJWTSecret)
	if *doctorID == "" || secret == "" {
		log.Fatal("doctor flag and JWT_SECRET are required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	signer := auth.NewSigner(secret, time.Hour)
	scout := client.NewAPIClient(*baseURL, mustToken(log, signer))
	if err := scout.WaitForHealthy(ctx, 30*time.Second); err != nil {
		log.Fatal("Service is not healthy", "error", err)
	}

	target, err := firstFreeSlot(ctx, scout, *doctorID)
	if err != nil {
		log.Fatal("No slot to race for", "error", err)
	}
	log.Info("Racing for slot", "doctor_id", *doctorID, "date_time", target, "patients", *patients)

	var (
		mu       sync.Mutex
		statuses = map[int]int{}
		wg       sync.WaitGroup
		start    = make(chan struct{})
	)
	for i := 0; i < *patients; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := client.NewAPIClient(*baseURL, mustToken(log, signer))
			<-start
			resp, err := c.Book(ctx, model.CreateAppointmentRequest{
				DoctorID: *doctorID,
				DateTime: target,
				Symptoms: "load test",
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				statuses[0]++
				return
			}
			statuses[resp.StatusCode]++
		}()
	}
	close(start)
	wg.Wait()

	log.Info("Race finished",
		"created", statuses[http.StatusCreated],
		"rejected", statuses[http.StatusBadRequest],
		"transport_errors", statuses[0],
		"statuses", statuses,
	)
	if statuses[http.StatusCreated] != 1 {
		log.Fatal("Expected exactly one successful booking", "created", statuses[http.StatusCreated])
	}
}

func firstFreeSlot(ctx context.Context, c *client.APIClient, doctorID string) (time.Time, error) {
	resp, err := c.Availability(ctx, doctorID, 0, 0)
	if err != nil {
		return time.Time{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return time.Time{}, errors.New(client.GetErrorMessage(resp))
	}
	var availability model.DoctorAvailability
	if err := resp.Data(&availability); err != nil {
		return time.Time{}, err
	}

	now := time.Now()
	for _, s := range availability.Slots {
		if !s.Free() {
			continue
		}
		// The server reports wall-clock slots; the simulator assumes it runs in the clinic's zone.
		at, err := time.ParseInLocation(slots.DateLayout+" "+slots.TimeLayout, s.Date+" "+s.Time, time.Local)
		if err == nil && at.After(now) {
			return at, nil
		}
	}
	return time.Time{}, errors.New("doctor has no free slot in the horizon")
}

func mustToken(log *logger.Logger, signer *auth.Signer) string {
	token, err := signer.Issue(auth.Identity{UserID: primitive.NewObjectID().Hex(), Role: model.RolePatient})
	if err != nil {
		log.Fatal("Failed to issue token", "error", err)
	}
	return token
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
