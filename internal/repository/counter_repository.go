package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

type CounterRepository struct {
	db *gorm.DB
}

func NewCounterRepository(db *gorm.DB) *CounterRepository {
	return &CounterRepository{db: db}
}

// Next allocates the next sequence value for a named counter. The
// increment is a single upsert statement so concurrent allocations for the
// same name can never observe the same value. The first allocation for a
// name returns 1.
func (r *CounterRepository) Next(ctx context.Context, name string) (int64, error) {
	var seq int64
	err := r.db.WithContext(ctx).Raw(
		`INSERT INTO counters (name, seq) VALUES (?, 1)
		 ON CONFLICT (name) DO UPDATE SET seq = counters.seq + 1
		 RETURNING seq`,
		name,
	).Scan(&seq).Error
	if err != nil {
		return 0, fmt.Errorf("allocate sequence %q: %w", name, err)
	}
	return seq, nil
}
