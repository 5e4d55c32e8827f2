package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicdesk/scheduling-engine/internal/appointment"
	"github.com/clinicdesk/scheduling-engine/internal/db"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	if err := db.EnsureSchema(context.Background(), pool); err != nil {
		log.Fatalf("ensure schema: %v", err)
	}

	gofakeit.Seed(time.Now().UnixNano())

	patientIDs, err := seedPatients(context.Background(), pool, 200)
	if err != nil {
		log.Fatalf("seed patients: %v", err)
	}

	if err := seedAppointments(context.Background(), pool, patientIDs); err != nil {
		log.Fatalf("seed appointments: %v", err)
	}

	log.Println("seed complete")
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int) ([]string, error) {
	log.Printf("seeding %d patients", count)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]string, 0, count)
	for i := 0; i < count; i++ {
		// Digits-only id numbers, the normalized form the store expects.
		id := fmt.Sprintf("%09d", gofakeit.Number(100000000, 999999999))
		name := gofakeit.Name()

		_, err := tx.Exec(ctx, `
			INSERT INTO patients (id_number, full_name)
			VALUES ($1, $2)
			ON CONFLICT (id_number) DO NOTHING
		`, id, name)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("patients seeded")
	return ids, nil
}

// seedAppointments books a conflict-free grid through the Store so every
// seeded record respects the no-double-booking invariant and clinic hours.
func seedAppointments(ctx context.Context, pool *pgxpool.Pool, patientIDs []string) error {
	store := appointment.NewStore(appointment.NewPgCollection(pool, nil))

	therapists := []string{"maya.s", "noa.k", "eitan.b", "tali.r"}
	day := time.Now().AddDate(0, 0, 1).Truncate(24 * time.Hour)

	created := 0
	for d := 0; d < 5; d++ {
		for _, therapist := range therapists {
			// 50-minute sessions on the hour, 09:00 through 16:00.
			for hour := 9; hour <= 16; hour++ {
				if gofakeit.Number(0, 2) == 0 {
					continue // leave gaps in the calendar
				}

				start := day.AddDate(0, 0, d).Add(time.Duration(hour) * time.Hour)
				patientID := patientIDs[gofakeit.Number(0, len(patientIDs)-1)]

				_, err := store.Create(ctx, appointment.CreateInput{
					PatientID:   patientID,
					TherapistID: therapist,
					Start:       start,
					End:         start.Add(50 * time.Minute),
					Notes:       gofakeit.Sentence(6),
				})
				if err != nil {
					return fmt.Errorf("create appointment: %w", err)
				}
				created++
			}
		}
		log.Printf("day %d seeded", d+1)
	}

	log.Printf("appointments seeded: %d", created)
	return nil
}
