package mapping

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/router-for-me/VisitMappingService/internal/models"
	log "github.com/sirupsen/logrus"
)

const (
	maxNewIDLength = 40
	maxLabelLength = 20
)

// Service enforces mapping invariants on top of the visit and room repositories.
type Service struct {
	visits VisitRepository
	rooms  RoomRepository
	now    func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithClock overrides the clock that stamps CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService constructs a Service.
func NewService(visits VisitRepository, rooms RoomRepository, opts ...Option) *Service {
	s := &Service{visits: visits, rooms: rooms, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateVisitMappingInput is a candidate visit mapping.
type CreateVisitMappingInput struct {
	LegacyID    int64
	NewID       string
	Label       string
	MappingType models.MappingType
}

func (in CreateVisitMappingInput) validate() error {
	if in.LegacyID < 0 {
		return validationError("legacy visit id = %d must not be negative", in.LegacyID)
	}
	if strings.TrimSpace(in.NewID) == "" {
		return validationError("new visit id must not be blank")
	}
	if utf8.RuneCountInString(in.NewID) > maxNewIDLength {
		return validationError("new visit id must be at most %d characters", maxNewIDLength)
	}
	if utf8.RuneCountInString(in.Label) > maxLabelLength {
		return validationError("label must be at most %d characters", maxLabelLength)
	}
	if !in.MappingType.Valid() {
		return validationError("mapping type = %s must be one of %s, %s", in.MappingType, models.MappingTypeMigrated, models.MappingTypeOnline)
	}
	return nil
}

// CreateVisitMapping inserts a new mapping. Duplicates of either id are rejected
// by the store's constraints, never by a prior lookup.
func (s *Service) CreateVisitMapping(ctx context.Context, in CreateVisitMappingInput) (models.VisitMapping, error) {
	in.NewID = strings.TrimSpace(in.NewID)
	in.Label = strings.TrimSpace(in.Label)
	if err := in.validate(); err != nil {
		return models.VisitMapping{}, err
	}

	row := models.VisitMapping{
		LegacyID:    in.LegacyID,
		NewID:       in.NewID,
		Label:       in.Label,
		MappingType: in.MappingType,
		CreatedAt:   s.now().UTC().Truncate(time.Microsecond), // PostgreSQL timestamps hold microseconds.
	}
	if errInsert := s.visits.Insert(ctx, &row); errInsert != nil {
		switch {
		case errors.Is(errInsert, ErrDuplicateLegacyID):
			return models.VisitMapping{}, conflictError(errInsert, "legacy visit id = %d already exists", in.LegacyID)
		case errors.Is(errInsert, ErrDuplicateNewID):
			return models.VisitMapping{}, conflictError(errInsert, "new visit id = %s already exists", in.NewID)
		case errors.Is(errInsert, ErrDuplicateMapping):
			return models.VisitMapping{}, conflictError(errInsert, "legacy visit id = %d or new visit id = %s already exists", in.LegacyID, in.NewID)
		default:
			return models.VisitMapping{}, storageError("create visit mapping", errInsert)
		}
	}

	log.WithFields(log.Fields{
		"legacy_id":    row.LegacyID,
		"new_id":       row.NewID,
		"mapping_type": row.MappingType,
		"label":        row.Label,
	}).Debug("visit mapping created")
	return row, nil
}

// GetByLegacyID returns the mapping for a legacy visit id.
func (s *Service) GetByLegacyID(ctx context.Context, legacyID int64) (models.VisitMapping, error) {
	row, err := s.visits.FindByLegacyID(ctx, legacyID)
	if err != nil {
		return models.VisitMapping{}, storageError("find visit mapping by legacy id", err)
	}
	if row == nil {
		return models.VisitMapping{}, notFoundError("legacy visit id=%d", legacyID)
	}
	return *row, nil
}

// GetByNewID returns the mapping for a new-system visit id.
func (s *Service) GetByNewID(ctx context.Context, newID string) (models.VisitMapping, error) {
	row, err := s.visits.FindByNewID(ctx, newID)
	if err != nil {
		return models.VisitMapping{}, storageError("find visit mapping by new id", err)
	}
	if row == nil {
		return models.VisitMapping{}, notFoundError("new visit id=%s", newID)
	}
	return *row, nil
}

// GetLatestMigratedMapping returns the most recently created MIGRATED mapping.
// Rows sharing a creation time are ordered by legacy id, highest first.
func (s *Service) GetLatestMigratedMapping(ctx context.Context) (models.VisitMapping, error) {
	row, err := s.visits.FindLatestByType(ctx, models.MappingTypeMigrated)
	if err != nil {
		return models.VisitMapping{}, storageError("find latest migrated visit mapping", err)
	}
	if row == nil {
		return models.VisitMapping{}, notFoundError("no migrated visit mappings exist")
	}
	return *row, nil
}

// GetByMigrationLabel pages through the MIGRATED mappings of one migration run.
func (s *Service) GetByMigrationLabel(ctx context.Context, label string, req PageRequest) (Page[models.VisitMapping], error) {
	rows, total, err := s.visits.FindPageByTypeAndLabel(ctx, models.MappingTypeMigrated, label, req)
	if err != nil {
		return Page[models.VisitMapping]{}, storageError("list visit mappings by migration label", err)
	}
	return NewPage(rows, total, req), nil
}

// GetRoomMapping looks up a room by prison and legacy room name.
func (s *Service) GetRoomMapping(ctx context.Context, prisonID, legacyRoomName string) (models.RoomMapping, error) {
	row, err := s.rooms.FindRoomMapping(ctx, prisonID, legacyRoomName)
	if err != nil {
		return models.RoomMapping{}, storageError("find room mapping", err)
	}
	if row == nil {
		return models.RoomMapping{}, notFoundError("prison id=%s, legacy room name=%s", prisonID, legacyRoomName)
	}
	return *row, nil
}

// DeleteVisitMappings removes MIGRATED mappings, or every visit mapping when
// onlyMigrated is false. Room mappings are never touched.
func (s *Service) DeleteVisitMappings(ctx context.Context, onlyMigrated bool) error {
	var (
		deleted int64
		err     error
	)
	if onlyMigrated {
		deleted, err = s.visits.DeleteByType(ctx, models.MappingTypeMigrated)
	} else {
		deleted, err = s.visits.DeleteAll(ctx)
	}
	if err != nil {
		return storageError("delete visit mappings", err)
	}
	log.WithFields(log.Fields{
		"only_migrated": onlyMigrated,
		"deleted":       deleted,
	}).Info("visit mappings deleted")
	return nil
}
