// Package delivery implements the prediction hand-off protocol between the
// ledger and polling devices: an idempotent fetch of the active prediction
// and a durable, at-most-once acknowledgement of its execution.
package delivery

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Agrim06/TeraFarm/internal/clock"
	"github.com/Agrim06/TeraFarm/internal/observability/metrics"
	"github.com/Agrim06/TeraFarm/internal/prediction/domain"
)

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	Metrics *metrics.ProtocolMetrics `optional:"true"`
}

// Service mediates between devices and the prediction ledger. It holds no
// state of its own: the "active" prediction is always re-derived from the
// ledger, never tracked as a pointer, so concurrent issuance cannot leave a
// stale reference behind.
type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	metrics *metrics.ProtocolMetrics
}

func NewService(p ServiceParam) *Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("delivery.service"),
		clock:   p.Clock,
		metrics: p.Metrics,
	}
}

// FetchActive returns the active prediction for a device: the pending row
// with the greatest created_at, ties broken by id. The read has no side
// effects, so a device that polls twice over a flaky link sees the same
// instruction both times.
func (s *Service) FetchActive(ctx context.Context, deviceID string) (*domain.Prediction, error) {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return nil, domain.ErrMissingDeviceID
	}

	var prediction domain.Prediction
	err := s.db.WithContext(ctx).
		Where("device_id = ? AND status = ?", deviceID, domain.StatusPending).
		Order("created_at DESC, id DESC").
		First(&prediction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if s.metrics != nil {
				s.metrics.IncFetch("empty")
			}
			return nil, domain.ErrNoActivePrediction
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncFetch("hit")
	}
	return &prediction, nil
}

// Acknowledge transitions the active prediction for a device to consumed.
//
// When the device presents the predictionId it fetched, the transition is
// bound to that exact row, which closes the race where a prediction issued
// between the device's fetch and its acknowledgement would be consumed
// unexecuted. A zero predictionID keeps the legacy behavior for firmware
// that does not echo the id: the newest pending row is consumed.
//
// Either form is a single conditional UPDATE. Two concurrent acknowledgers
// cannot both flip the same row out of pending, and under the legacy form
// at most one row changes per statement, so the monotonic-consumption
// invariant holds without any in-process locking.
func (s *Service) Acknowledge(ctx context.Context, deviceID string, predictionID snowflake.ID) error {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return domain.ErrMissingDeviceID
	}

	now := s.clock.Now().UTC()

	var result *gorm.DB
	if predictionID != 0 {
		result = s.db.WithContext(ctx).Exec(
			`UPDATE predictions
			 SET status = ?, consumed_at = ?
			 WHERE id = ? AND device_id = ? AND status = ?`,
			domain.StatusConsumed, now, predictionID, deviceID, domain.StatusPending,
		)
	} else {
		result = s.db.WithContext(ctx).Exec(
			`UPDATE predictions
			 SET status = ?, consumed_at = ?
			 WHERE status = ?
			   AND id = (
			       SELECT id FROM predictions
			       WHERE device_id = ? AND status = ?
			       ORDER BY created_at DESC, id DESC
			       LIMIT 1
			   )`,
			domain.StatusConsumed, now, domain.StatusPending, deviceID, domain.StatusPending,
		)
	}
	if result.Error != nil {
		s.log.Error("acknowledge failed", zap.String("device_id", deviceID), zap.Error(result.Error))
		return result.Error
	}

	if result.RowsAffected == 0 {
		if s.metrics != nil {
			s.metrics.IncAcknowledgement("no_active")
		}
		return domain.ErrNoActivePrediction
	}

	if s.metrics != nil {
		s.metrics.IncAcknowledgement("consumed")
	}
	s.log.Info("prediction consumed",
		zap.String("device_id", deviceID),
		zap.String("prediction_id", predictionID.String()),
	)
	return nil
}
