package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/router-for-me/VisitMappingService/internal/mapping"
	"github.com/router-for-me/VisitMappingService/internal/models"
	"gorm.io/gorm"
)

// GormRoomStore reads room reference data via GORM.
type GormRoomStore struct {
	db *gorm.DB
}

// NewGormRoomStore constructs a GormRoomStore.
func NewGormRoomStore(db *gorm.DB) *GormRoomStore {
	return &GormRoomStore{db: db}
}

var _ mapping.RoomRepository = (*GormRoomStore)(nil)

// FindRoomMapping matches the composite key exactly.
func (s *GormRoomStore) FindRoomMapping(ctx context.Context, prisonID, legacyRoomName string) (*models.RoomMapping, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("gorm room store: not initialized")
	}
	var row models.RoomMapping
	errFind := s.db.WithContext(ctx).
		Where("prison_id = ? AND legacy_room_name = ?", prisonID, legacyRoomName).
		Take(&row).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("gorm room store: find: %w", errFind)
	}
	return &row, nil
}
