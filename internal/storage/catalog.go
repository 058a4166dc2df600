package storage

import (
	"context"

	"github.com/c-moralesv/lexagenda/internal/model"
	"github.com/c-moralesv/lexagenda/libs/db"
)

// CatalogRepository reads the lawyer and service directories. Writes go
// through back-office tooling, so only lookups live here.
type CatalogRepository struct {
	pool *db.Pool
}

func NewCatalogRepository(pool *db.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

func (r *CatalogRepository) GetLawyer(ctx context.Context, id string) (model.Lawyer, error) {
	var l model.Lawyer
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, COALESCE(specialty, ''), COALESCE(email, ''), active
		FROM lawyers
		WHERE id = $1
	`, id).Scan(&l.ID, &l.Name, &l.Specialty, &l.Email, &l.Active)
	if err != nil {
		return model.Lawyer{}, err
	}
	return l, nil
}

func (r *CatalogRepository) GetService(ctx context.Context, id string) (model.Service, error) {
	var s model.Service
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, price::text, duration_minutes, active
		FROM services
		WHERE id = $1
	`, id).Scan(&s.ID, &s.Name, &s.Price, &s.DurationMinutes, &s.Active)
	if err != nil {
		return model.Service{}, err
	}
	return s, nil
}

func (r *CatalogRepository) ListLawyers(ctx context.Context) ([]model.Lawyer, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, COALESCE(specialty, ''), COALESCE(email, ''), active
		FROM lawyers
		WHERE active
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Lawyer
	for rows.Next() {
		var l model.Lawyer
		if err := rows.Scan(&l.ID, &l.Name, &l.Specialty, &l.Email, &l.Active); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *CatalogRepository) ListServices(ctx context.Context) ([]model.Service, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, price::text, duration_minutes, active
		FROM services
		WHERE active
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Service
	for rows.Next() {
		var s model.Service
		if err := rows.Scan(&s.ID, &s.Name, &s.Price, &s.DurationMinutes, &s.Active); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
