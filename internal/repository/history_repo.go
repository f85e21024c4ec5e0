package repository

import (
	"context"

	"github.com/user/catalog-service/internal/entity"
)

// HistoryRepository persists frontend session browse paths.
type HistoryRepository interface {
	Save(ctx context.Context, h *entity.ViewHistory) (*entity.ViewHistory, error)
}
