// Package domain contains the persistence model and contracts for sensor
// telemetry.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// SensorReading is one telemetry sample reported by a field device. Rows are
// append-only: nothing in the system updates or deletes them.
type SensorReading struct {
	ID       snowflake.ID `gorm:"primaryKey" json:"id"`
	DeviceID string       `gorm:"type:text;not null;index" json:"deviceId"`

	// Measurements are pointers so an absent value stays NULL. A missing
	// reading means "unknown", never zero.
	Temperature *float64 `json:"temperature,omitempty"`
	Humidity    *float64 `json:"humidity,omitempty"`
	Moisture    *float64 `json:"moisture,omitempty"`

	Timestamp time.Time `gorm:"not null;index" json:"timestamp"`

	// Extra preserves any JSON fields the device sent beyond the known
	// schema, mirroring the permissive ingestion contract.
	Extra datatypes.JSONMap `gorm:"type:jsonb" json:"extra,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
}

// TableName sets the database table name.
func (SensorReading) TableName() string { return "sensor_readings" }

// IngestRequest carries one validated telemetry submission.
type IngestRequest struct {
	DeviceID    string
	Temperature *float64
	Humidity    *float64
	Moisture    *float64
	// Timestamp is nil when the device omitted it; ingestion stamps the
	// server clock in that case.
	Timestamp *time.Time
	Extra     map[string]any
}

// HistoryRequest selects a newest-first page of readings.
type HistoryRequest struct {
	// DeviceID filters to one device when non-empty.
	DeviceID string
	// Limit is clamped by the service; non-positive values fall back to
	// the configured default.
	Limit int
}

// Service is the ingestion and read surface over the telemetry store.
type Service interface {
	Ingest(ctx context.Context, req IngestRequest) (*SensorReading, error)
	Latest(ctx context.Context, deviceID string) (*SensorReading, error)
	History(ctx context.Context, req HistoryRequest) ([]SensorReading, error)
}
