// Package domain contains the prediction ledger model and contracts.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	// StatusPending marks a prediction awaiting delivery and execution.
	StatusPending = "pending"
	// StatusConsumed marks a prediction the device acknowledged. The
	// transition is one-way: nothing reverts a consumed row.
	StatusConsumed = "consumed"
)

// Prediction is one actuation instruction in the ledger: run the pump for
// PumpTimeSec seconds to apply WaterMM millimeters of water.
type Prediction struct {
	ID       snowflake.ID `gorm:"primaryKey" json:"predictionId"`
	DeviceID string       `gorm:"type:text;not null;index" json:"deviceId"`

	WaterMM     float64 `gorm:"not null" json:"waterMM"`
	PumpTimeSec float64 `gorm:"not null" json:"pumpTimeSec"`

	Status     string     `gorm:"type:text;not null;default:pending" json:"status"`
	CreatedAt  time.Time  `gorm:"not null;index" json:"createdAt"`
	ConsumedAt *time.Time `json:"consumedAt,omitempty"`
}

// TableName sets the database table name.
func (Prediction) TableName() string { return "predictions" }

// IssueRequest carries one new actuation instruction from the producer.
type IssueRequest struct {
	WaterMM     float64
	PumpTimeSec float64
}

// HistoryRequest selects a newest-first page of predictions.
type HistoryRequest struct {
	DeviceID string
	Limit    int
}

// Service issues predictions and serves the dashboard's read-only views.
// Reads here never touch prediction status; consumption belongs to the
// delivery protocol alone.
type Service interface {
	Issue(ctx context.Context, deviceID string, req IssueRequest) (*Prediction, error)
	Latest(ctx context.Context, deviceID string) (*Prediction, error)
	History(ctx context.Context, req HistoryRequest) ([]Prediction, error)
}
