package models

import "time"

// MappingType records how a visit mapping was created.
type MappingType string

const (
	// MappingTypeMigrated marks rows written by a bulk migration run.
	MappingTypeMigrated MappingType = "MIGRATED"
	// MappingTypeOnline marks rows written by ongoing synchronisation.
	MappingTypeOnline MappingType = "ONLINE"
)

// Valid reports whether t is a known mapping type.
func (t MappingType) Valid() bool {
	return t == MappingTypeMigrated || t == MappingTypeOnline
}

// VisitMapping links a legacy visit id to the id issued by the new system.
type VisitMapping struct {
	LegacyID int64 `gorm:"primaryKey;autoIncrement:false"` // Legacy visit id.

	NewID       string      `gorm:"type:varchar(40);not null;uniqueIndex:uq_visit_mappings_new_id"`   // New system visit id.
	Label       string      `gorm:"type:varchar(20);index:idx_visit_mappings_type_label,priority:2"` // Migration run label.
	MappingType MappingType `gorm:"type:varchar(20);not null;index:idx_visit_mappings_type_label,priority:1"`

	CreatedAt time.Time `gorm:"not null;index"` // Insert timestamp, set by the service.
}

// TableName pins the table name.
func (VisitMapping) TableName() string {
	return "visit_mappings"
}
