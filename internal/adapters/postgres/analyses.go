package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"prospect/internal/domain"
)

// Insert writes one immutable scoring run.
func (db *DB) Insert(ctx context.Context, a domain.Analysis) (string, error) {
	id := uuid.NewString()
	_, err := db.Pool.Exec(ctx, `
        INSERT INTO analyses (
            id, business_id, pagespeed_score, foursquare_score,
            web_standards_score, final_score, breakdown
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `, id, a.BusinessID, a.PagespeedScore, a.FoursquareScore,
		a.WebStandardsScore, a.FinalScore, []byte(a.Breakdown))
	return id, err
}

// Latest returns the most recent analysis for a business, nil when none
// exists.
func (db *DB) Latest(ctx context.Context, businessID string) (*domain.Analysis, error) {
	var a domain.Analysis
	var breakdown []byte
	err := db.Pool.QueryRow(ctx, `
        SELECT id, business_id, pagespeed_score, foursquare_score,
               web_standards_score, final_score, breakdown, created_at
        FROM analyses
        WHERE business_id = $1
        ORDER BY created_at DESC
        LIMIT 1
    `, businessID).Scan(
		&a.ID, &a.BusinessID, &a.PagespeedScore, &a.FoursquareScore,
		&a.WebStandardsScore, &a.FinalScore, &breakdown, &a.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a.Breakdown = breakdown
	return &a, nil
}
