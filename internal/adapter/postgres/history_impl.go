package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/catalog-service/internal/entity"
)

// HistoryRepoImpl provides a concrete implementation for the
// HistoryRepository interface using PostgreSQL.
type HistoryRepoImpl struct {
	db *pgxpool.Pool
}

// NewHistoryRepo creates a new instance of HistoryRepoImpl.
func NewHistoryRepo(db *pgxpool.Pool) *HistoryRepoImpl {
	return &HistoryRepoImpl{db: db}
}

// Save persists one session browse-path record.
func (r *HistoryRepoImpl) Save(ctx context.Context, h *entity.ViewHistory) (*entity.ViewHistory, error) {
	query := `
		INSERT INTO view_history (session_id, path, created_at)
		VALUES ($1, $2, NOW())
		RETURNING id, created_at;
	`
	saved := *h
	if err := r.db.QueryRow(ctx, query, h.SessionID, []byte(h.Path)).Scan(&saved.ID, &saved.CreatedAt); err != nil {
		return nil, err
	}
	return &saved, nil
}
