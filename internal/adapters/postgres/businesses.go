package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"prospect/internal/domain"
)

const businessColumns = `
    id, place_id, name, website, website_domain, address, phone, categories,
    google_rating, google_review_count,
    foursquare_rating, foursquare_popularity, foursquare_match_confidence,
    checked, final_score, last_scanned, created_at, updated_at`

func scanBusiness(row pgx.Row) (domain.Business, error) {
	var b domain.Business
	var categories []byte
	err := row.Scan(
		&b.ID, &b.PlaceID, &b.Name, &b.Website, &b.WebsiteDomain, &b.Address, &b.Phone, &categories,
		&b.GoogleRating, &b.GoogleReviewCount,
		&b.FoursquareRating, &b.FoursquarePopularity, &b.FoursquareMatchConfidence,
		&b.Checked, &b.FinalScore, &b.LastScanned, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return b, err
	}
	if len(categories) > 0 {
		if err := json.Unmarshal(categories, &b.Categories); err != nil {
			return b, err
		}
	}
	return b, nil
}

// Upsert refreshes the directory-sourced fields, keyed by place_id. The
// triage flag, directory signals and final score survive re-searches.
func (db *DB) Upsert(ctx context.Context, u domain.BusinessUpsert) (domain.Business, error) {
	categories, err := json.Marshal(u.Categories)
	if err != nil {
		return domain.Business{}, err
	}
	if u.Categories == nil {
		categories = []byte("[]")
	}
	row := db.Pool.QueryRow(ctx, `
        INSERT INTO businesses (
            place_id, name, website, website_domain, address, phone, categories,
            google_rating, google_review_count, last_scanned
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
        ON CONFLICT (place_id) DO UPDATE SET
            name = EXCLUDED.name,
            website = EXCLUDED.website,
            website_domain = EXCLUDED.website_domain,
            address = EXCLUDED.address,
            phone = EXCLUDED.phone,
            categories = EXCLUDED.categories,
            google_rating = EXCLUDED.google_rating,
            google_review_count = EXCLUDED.google_review_count,
            last_scanned = now(),
            updated_at = now()
        RETURNING `+businessColumns,
		u.PlaceID, u.Name, u.Website, u.WebsiteDomain, u.Address, u.Phone, categories,
		u.GoogleRating, u.GoogleReviewCount,
	)
	return scanBusiness(row)
}

func (db *DB) Get(ctx context.Context, id string) (domain.Business, error) {
	row := db.Pool.QueryRow(ctx, `SELECT `+businessColumns+` FROM businesses WHERE id = $1`, id)
	b, err := scanBusiness(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return b, ErrNotFound
	}
	return b, err
}

func (db *DB) UpdateDirectorySignals(ctx context.Context, id string, rating, popularity, confidence *float64) error {
	_, err := db.Pool.Exec(ctx, `
        UPDATE businesses SET
            foursquare_rating = $2,
            foursquare_popularity = $3,
            foursquare_match_confidence = $4,
            updated_at = now()
        WHERE id = $1
    `, id, rating, popularity, confidence)
	return err
}

func (db *DB) SetChecked(ctx context.Context, id string, checked bool) (domain.Business, error) {
	row := db.Pool.QueryRow(ctx, `
        UPDATE businesses SET checked = $2, updated_at = now()
        WHERE id = $1
        RETURNING `+businessColumns, id, checked)
	b, err := scanBusiness(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return b, ErrNotFound
	}
	return b, err
}

func (db *DB) SetFinalScore(ctx context.Context, id string, score *int) error {
	_, err := db.Pool.Exec(ctx, `
        UPDATE businesses SET final_score = $2, updated_at = now() WHERE id = $1
    `, id, score)
	return err
}

// ListStale returns businesses whose newest analysis is older than the
// window (or missing entirely), oldest-analysis first.
func (db *DB) ListStale(ctx context.Context, olderThan time.Duration, limit int) ([]string, error) {
	cutoff := time.Now().Add(-olderThan)
	rows, err := db.Pool.Query(ctx, `
        SELECT b.id
        FROM businesses b
        LEFT JOIN LATERAL (
            SELECT created_at FROM analyses
            WHERE business_id = b.id
            ORDER BY created_at DESC
            LIMIT 1
        ) a ON true
        WHERE a.created_at IS NULL OR a.created_at < $1
        ORDER BY a.created_at ASC NULLS FIRST
        LIMIT $2
    `, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
