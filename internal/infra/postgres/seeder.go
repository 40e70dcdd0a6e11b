package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"quiz-engine/internal/domain"
	"quiz-engine/internal/engine"

	"github.com/uptrace/bun"
)

type quizRow struct {
	bun.BaseModel `bun:"table:quizzes"`

	ID        string    `bun:"id,pk"`
	Data      string    `bun:"data,type:jsonb"`
	UpdatedAt time.Time `bun:"updated_at"`
}

// Seeder writes question sets into the quizzes table.
type Seeder struct {
	db *bun.DB
}

func NewSeeder(db *bun.DB) *Seeder {
	return &Seeder{db: db}
}

// Upsert validates each quiz and inserts or replaces it. Nothing is written
// if any quiz is malformed.
func (s *Seeder) Upsert(ctx context.Context, quizzes []domain.Quiz) error {
	rows := make([]quizRow, 0, len(quizzes))
	for _, q := range quizzes {
		if err := engine.Validate(q.Questions); err != nil {
			return fmt.Errorf("quiz %s: %w", q.ID, err)
		}
		data, err := json.Marshal(q)
		if err != nil {
			return fmt.Errorf("marshal quiz %s: %w", q.ID, err)
		}
		rows = append(rows, quizRow{ID: q.ID, Data: string(data), UpdatedAt: time.Now().UTC()})
	}
	if len(rows) == 0 {
		return nil
	}

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().
			Model(&rows).
			On("CONFLICT (id) DO UPDATE").
			Set("data = EXCLUDED.data").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		return err
	})
}
