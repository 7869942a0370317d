package db

import (
	"fmt"

	"github.com/router-for-me/VisitMappingService/internal/models"
	"gorm.io/gorm"
)

// Migrate runs database migrations for the current dialect and seeds reference data.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	switch DialectName(conn) {
	case DialectSQLite, DialectPostgres, "":
	default:
		return fmt.Errorf("db: unsupported dialect: %s", DialectName(conn))
	}

	if errAutoMigrate := conn.AutoMigrate(
		&models.VisitMapping{},
		&models.RoomMapping{},
	); errAutoMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errAutoMigrate)
	}

	// Serves the "latest migrated mapping" lookup without a sort.
	if errLatestIndex := conn.Exec(`
		CREATE INDEX IF NOT EXISTS idx_visit_mappings_latest
		ON visit_mappings (mapping_type, created_at DESC, legacy_id DESC)
	`).Error; errLatestIndex != nil {
		return fmt.Errorf("db: create latest mapping index: %w", errLatestIndex)
	}

	if errSeed := SeedRoomMappings(conn); errSeed != nil {
		return errSeed
	}
	return nil
}
