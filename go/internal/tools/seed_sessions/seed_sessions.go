package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/mcdev12/luckydraw/go/internal/dbconfig"
	"github.com/mcdev12/luckydraw/go/internal/draw/engine"
	"github.com/mcdev12/luckydraw/go/internal/models"
)

// seedNamespace keys seeded session ids so reruns hit the same rows
var seedNamespace = uuid.MustParse("6f1c7a52-3d0e-4b8a-9f4e-2a1d5c7b9e30")

type seedSession struct {
	Title string   `json:"title"`
	Names []string `json:"names"`
}

func buildSessions(seeds []seedSession, now time.Time) []models.Session {
	out := make([]models.Session, 0, len(seeds))
	for _, s := range seeds {
		title, ok := engine.NormalizeName(s.Title)
		if !ok {
			continue
		}
		out = append(out, models.Session{
			ID:        uuid.NewSHA1(seedNamespace, []byte(title)),
			Title:     title,
			State:     engine.Add(models.DrawState{}, strings.Join(s.Names, "\n")),
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return out
}

func main() {
	_ = godotenv.Load()

	// 1) Load the JSON snapshot
	data, err := os.ReadFile("go/internal/assets/sessions.json")
	if err != nil {
		fmt.Fprintf(os.Stderr, "read JSON: %v\n", err)
		os.Exit(1)
	}
	var seeds []seedSession
	if err := json.Unmarshal(data, &seeds); err != nil {
		fmt.Fprintf(os.Stderr, "unmarshal JSON: %v\n", err)
		os.Exit(1)
	}

	// 2) Connect using shared dbconfig
	cfg := dbconfig.NewConfigFromEnv()
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	// 3) Insert and count
	sessions := buildSessions(seeds, time.Now().UTC().Truncate(time.Microsecond))
	var inserted, skipped, errs int

	for _, s := range sessions {
		cmdTag, err := pool.Exec(ctx, `
            INSERT INTO draw_sessions (
              id, title, names, winners, spinning, current_winner, created_at, updated_at
            ) VALUES (
              $1,$2,$3,$4,$5,$6,$7,$8
            )
            ON CONFLICT (id) DO NOTHING
        `,
			s.ID, s.Title, s.State.Names, s.State.Winners, s.State.Spinning, s.State.CurrentWinner,
			s.CreatedAt, s.UpdatedAt,
		)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error inserting session %q: %v\n", s.Title, err)
			errs++
			continue
		}
		if cmdTag.RowsAffected() == 1 {
			inserted++
		} else {
			skipped++
		}
	}

	// 4) Print summary
	fmt.Printf(
		"Sessions seed complete: %d total, %d inserted, %d skipped, %d errors\n",
		len(sessions), inserted, skipped, errs,
	)
}
