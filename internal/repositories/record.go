package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"alfredoptarigan/skill-matcher/internal/models"
)

// RecordRepository appends rows. Rows are never updated.
type RecordRepository interface {
	Append(ctx context.Context, record models.Record) error
}

type recordRepository struct {
	db *gorm.DB
}

func NewRecordRepository(db *gorm.DB) RecordRepository {
	return &recordRepository{db: db}
}

// Append implements RecordRepository. Belongs-to associations set on record
// are inserted in the same call.
func (r *recordRepository) Append(ctx context.Context, record models.Record) error {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to append %s: %w", record.TableName(), err)
	}
	return nil
}
