package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"alfredoptarigan/skill-matcher/internal/models"
)

type MatchResultRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.MatchResult, error)
}

type matchResultRepository struct {
	db *gorm.DB
}

func NewMatchResultRepository(db *gorm.DB) MatchResultRepository {
	return &matchResultRepository{db: db}
}

func (r *matchResultRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.MatchResult, error) {
	var result models.MatchResult
	err := r.db.WithContext(ctx).
		Preload("Resume").
		Preload("JobDescription").
		Where("id = ?", id).
		First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("match result %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find match result: %w", err)
	}
	return &result, nil
}
