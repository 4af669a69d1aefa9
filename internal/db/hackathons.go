package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jonathan/hackathon-judge/internal/types"
)

// GetHackathon retrieves the singleton hackathon record, or nil if none is configured
func (db *DB) GetHackathon(ctx context.Context) (*types.Hackathon, error) {
	var h types.Hackathon
	err := db.pool.QueryRow(ctx,
		`SELECT name, description, start_date, end_date, technologies, theme, is_allowed
		 FROM hackathons WHERE singleton`,
	).Scan(&h.Name, &h.Description, &h.StartDate, &h.EndDate, &h.Technologies, &h.Theme, &h.IsAllowed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get hackathon: %w", err)
	}
	return &h, nil
}

// SaveHackathon upserts the singleton hackathon record
func (db *DB) SaveHackathon(ctx context.Context, h *types.Hackathon) error {
	technologies := h.Technologies
	if technologies == nil {
		technologies = []string{}
	}
	_, err := db.pool.Exec(ctx,
		`INSERT INTO hackathons (singleton, name, description, start_date, end_date, technologies, theme, is_allowed)
		 VALUES (TRUE, $1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (singleton) DO UPDATE SET
		   name = $1, description = $2, start_date = $3, end_date = $4,
		   technologies = $5, theme = $6, is_allowed = $7`,
		h.Name, h.Description, h.StartDate, h.EndDate, technologies, h.Theme, h.IsAllowed,
	)
	if err != nil {
		return fmt.Errorf("failed to save hackathon: %w", err)
	}
	return nil
}
