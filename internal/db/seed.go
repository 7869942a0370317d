package db

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/router-for-me/VisitMappingService/internal/models"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:embed rooms.yaml
var roomSeedYAML []byte

// roomSeedFile maps the embedded reference data file.
type roomSeedFile struct {
	Rooms []roomSeed `yaml:"rooms"`
}

type roomSeed struct {
	PrisonID       string `yaml:"prison-id"`
	LegacyRoomName string `yaml:"legacy-room-name"`
	NewRoomID      string `yaml:"new-room-id"`
	Open           bool   `yaml:"open"`
}

// LoadRoomSeeds parses room reference data.
func LoadRoomSeeds(data []byte) ([]models.RoomMapping, error) {
	var file roomSeedFile
	if errUnmarshal := yaml.Unmarshal(data, &file); errUnmarshal != nil {
		return nil, fmt.Errorf("db: parse room seeds: %w", errUnmarshal)
	}
	rows := make([]models.RoomMapping, 0, len(file.Rooms))
	for i, room := range file.Rooms {
		prisonID := strings.TrimSpace(room.PrisonID)
		legacyName := strings.TrimSpace(room.LegacyRoomName)
		newRoomID := strings.TrimSpace(room.NewRoomID)
		if prisonID == "" || legacyName == "" || newRoomID == "" {
			return nil, fmt.Errorf("db: room seed %d: prison-id, legacy-room-name and new-room-id are required", i)
		}
		rows = append(rows, models.RoomMapping{
			PrisonID:       prisonID,
			LegacyRoomName: legacyName,
			NewRoomID:      newRoomID,
			IsOpen:         room.Open,
		})
	}
	return rows, nil
}

// SeedRoomMappings upserts the embedded room reference data.
func SeedRoomMappings(conn *gorm.DB) error {
	rows, err := LoadRoomSeeds(roomSeedYAML)
	if err != nil {
		return err
	}
	return upsertRoomMappings(conn, rows)
}

func upsertRoomMappings(conn *gorm.DB, rows []models.RoomMapping) error {
	if len(rows) == 0 {
		return nil
	}
	if errUpsert := conn.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "prison_id"}, {Name: "legacy_room_name"}},
		DoUpdates: clause.AssignmentColumns([]string{"new_room_id", "is_open"}),
	}).Create(&rows).Error; errUpsert != nil {
		return fmt.Errorf("db: seed room mappings: %w", errUpsert)
	}
	return nil
}
