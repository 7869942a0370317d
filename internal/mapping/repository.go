package mapping

import (
	"context"

	"github.com/router-for-me/VisitMappingService/internal/models"
)

// VisitRepository persists visit mappings.
//
// Insert must be a single constrained write and report uniqueness failures as
// ErrDuplicateLegacyID, ErrDuplicateNewID or, when the store cannot tell which
// constraint fired, ErrDuplicateMapping. Finders return nil, nil when nothing matches.
type VisitRepository interface {
	Insert(ctx context.Context, mapping *models.VisitMapping) error
	FindByLegacyID(ctx context.Context, legacyID int64) (*models.VisitMapping, error)
	FindByNewID(ctx context.Context, newID string) (*models.VisitMapping, error)
	// FindLatestByType orders by created_at then legacy_id, both descending.
	FindLatestByType(ctx context.Context, mappingType models.MappingType) (*models.VisitMapping, error)
	FindPageByTypeAndLabel(ctx context.Context, mappingType models.MappingType, label string, req PageRequest) ([]models.VisitMapping, int64, error)
	DeleteAll(ctx context.Context) (int64, error)
	DeleteByType(ctx context.Context, mappingType models.MappingType) (int64, error)
}

// RoomRepository reads room reference data.
type RoomRepository interface {
	FindRoomMapping(ctx context.Context, prisonID, legacyRoomName string) (*models.RoomMapping, error)
}
