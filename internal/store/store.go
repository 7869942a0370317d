package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/router-for-me/VisitMappingService/internal/db"
	"github.com/router-for-me/VisitMappingService/internal/mapping"
	"github.com/router-for-me/VisitMappingService/internal/models"
	"gorm.io/gorm"
)

// Unique constraints on visit_mappings as named by PostgreSQL.
const (
	constraintVisitPrimaryKey = "visit_mappings_pkey"
	constraintVisitNewID      = "uq_visit_mappings_new_id"
)

// GormVisitStore persists visit mappings via GORM.
type GormVisitStore struct {
	db *gorm.DB
}

// NewGormVisitStore constructs a GormVisitStore.
func NewGormVisitStore(db *gorm.DB) *GormVisitStore {
	return &GormVisitStore{db: db}
}

var _ mapping.VisitRepository = (*GormVisitStore)(nil)

// Insert writes a new row in one statement and classifies constraint failures.
func (s *GormVisitStore) Insert(ctx context.Context, row *models.VisitMapping) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("gorm visit store: not initialized")
	}
	if row == nil {
		return fmt.Errorf("gorm visit store: mapping is nil")
	}
	errCreate := s.db.WithContext(ctx).Create(row).Error
	if errCreate == nil {
		return nil
	}
	if violation, ok := db.AsUniqueViolation(errCreate); ok {
		return fmt.Errorf("gorm visit store: insert: %w", duplicateError(violation))
	}
	return fmt.Errorf("gorm visit store: insert: %w", errCreate)
}

func duplicateError(violation db.UniqueViolation) error {
	switch {
	case violation.Column == "legacy_id" || violation.Constraint == constraintVisitPrimaryKey:
		return mapping.ErrDuplicateLegacyID
	case violation.Column == "new_id" || violation.Constraint == constraintVisitNewID:
		return mapping.ErrDuplicateNewID
	default:
		return mapping.ErrDuplicateMapping
	}
}

// FindByLegacyID returns the row with the given primary key.
func (s *GormVisitStore) FindByLegacyID(ctx context.Context, legacyID int64) (*models.VisitMapping, error) {
	return s.first(s.db.WithContext(ctx).Where("legacy_id = ?", legacyID))
}

// FindByNewID returns the row carrying the given new-system id.
func (s *GormVisitStore) FindByNewID(ctx context.Context, newID string) (*models.VisitMapping, error) {
	return s.first(s.db.WithContext(ctx).Where("new_id = ?", newID))
}

// FindLatestByType returns the newest row of a type; ties on created_at go to
// the highest legacy id.
func (s *GormVisitStore) FindLatestByType(ctx context.Context, mappingType models.MappingType) (*models.VisitMapping, error) {
	return s.first(s.db.WithContext(ctx).
		Where("mapping_type = ?", mappingType).
		Order("created_at DESC").
		Order("legacy_id DESC"))
}

func (s *GormVisitStore) first(q *gorm.DB) (*models.VisitMapping, error) {
	var row models.VisitMapping
	if errFind := q.Take(&row).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("gorm visit store: find: %w", errFind)
	}
	return &row, nil
}

// FindPageByTypeAndLabel returns one page of matching rows and the total match count.
func (s *GormVisitStore) FindPageByTypeAndLabel(ctx context.Context, mappingType models.MappingType, label string, req mapping.PageRequest) ([]models.VisitMapping, int64, error) {
	q := s.db.WithContext(ctx).
		Model(&models.VisitMapping{}).
		Where("mapping_type = ? AND label = ?", mappingType, label)

	var total int64
	if errCount := q.Count(&total).Error; errCount != nil {
		return nil, 0, fmt.Errorf("gorm visit store: count: %w", errCount)
	}
	if total == 0 || int64(req.Offset()) >= total {
		return []models.VisitMapping{}, total, nil
	}

	q = s.db.WithContext(ctx).
		Where("mapping_type = ? AND label = ?", mappingType, label)
	for _, order := range req.Sort {
		direction := "ASC"
		if order.Descending {
			direction = "DESC"
		}
		q = q.Order(order.Column + " " + direction)
	}
	// Keeps page boundaries stable whatever the requested sort.
	q = q.Order("legacy_id ASC")

	var rows []models.VisitMapping
	if errFind := q.Offset(req.Offset()).Limit(req.Size).Find(&rows).Error; errFind != nil {
		return nil, 0, fmt.Errorf("gorm visit store: list: %w", errFind)
	}
	return rows, total, nil
}

// DeleteAll removes every visit mapping.
func (s *GormVisitStore) DeleteAll(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&models.VisitMapping{})
	if res.Error != nil {
		return 0, fmt.Errorf("gorm visit store: delete all: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// DeleteByType removes every visit mapping of one type.
func (s *GormVisitStore) DeleteByType(ctx context.Context, mappingType models.MappingType) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("mapping_type = ?", mappingType).
		Delete(&models.VisitMapping{})
	if res.Error != nil {
		return 0, fmt.Errorf("gorm visit store: delete by type: %w", res.Error)
	}
	return res.RowsAffected, nil
}
