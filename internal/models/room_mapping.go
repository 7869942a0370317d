package models

// RoomMapping translates a prison's legacy room name to the new system's room id.
type RoomMapping struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	PrisonID       string `gorm:"type:varchar(6);not null;uniqueIndex:uq_room_mappings_prison_room,priority:1"`
	LegacyRoomName string `gorm:"type:varchar(120);not null;uniqueIndex:uq_room_mappings_prison_room,priority:2"`
	NewRoomID      string `gorm:"type:varchar(120);not null"` // Room id used by the new system.
	IsOpen         bool   `gorm:"not null;default:false"`     // Open (true) or closed (false) visit room.
}

// TableName pins the table name.
func (RoomMapping) TableName() string {
	return "room_mappings"
}
