package service

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Agrim06/TeraFarm/internal/clock"
	"github.com/Agrim06/TeraFarm/internal/config"
	"github.com/Agrim06/TeraFarm/internal/observability/metrics"
	"github.com/Agrim06/TeraFarm/internal/prediction/domain"
)

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	GenID   *snowflake.Node
	Config  config.Config
	Metrics *metrics.ProtocolMetrics `optional:"true"`
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	genID *snowflake.Node

	defaultLimit int
	maxLimit     int

	metrics *metrics.ProtocolMetrics
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("prediction.service"),
		clock: p.Clock,
		genID: p.GenID,

		defaultLimit: p.Config.HistoryDefaultLimit,
		maxLimit:     p.Config.HistoryMaxLimit,

		metrics: p.Metrics,
	}
}

// Issue writes a new pending prediction. Existing pending rows for the same
// device are left untouched; only the newest one is ever delivered.
func (s *Service) Issue(ctx context.Context, deviceID string, req domain.IssueRequest) (*domain.Prediction, error) {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return nil, domain.ErrMissingDeviceID
	}
	if math.IsNaN(req.WaterMM) || math.IsInf(req.WaterMM, 0) || req.WaterMM < 0 {
		return nil, domain.ErrInvalidWaterMM
	}
	if math.IsNaN(req.PumpTimeSec) || math.IsInf(req.PumpTimeSec, 0) || req.PumpTimeSec < 0 {
		return nil, domain.ErrInvalidPumpTime
	}

	record := &domain.Prediction{
		ID:          s.genID.Generate(),
		DeviceID:    deviceID,
		WaterMM:     req.WaterMM,
		PumpTimeSec: req.PumpTimeSec,
		Status:      domain.StatusPending,
		CreatedAt:   s.clock.Now().UTC(),
	}

	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		s.log.Error("insert prediction failed", zap.String("device_id", deviceID), zap.Error(err))
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncPredictionIssued()
	}
	s.log.Info("prediction issued",
		zap.String("device_id", deviceID),
		zap.String("prediction_id", record.ID.String()),
		zap.Float64("water_mm", req.WaterMM),
		zap.Float64("pump_time_sec", req.PumpTimeSec),
	)
	return record, nil
}

// Latest returns the newest prediction for the dashboard regardless of
// status. It never mutates the ledger.
func (s *Service) Latest(ctx context.Context, deviceID string) (*domain.Prediction, error) {
	query := s.db.WithContext(ctx).Model(&domain.Prediction{})
	if deviceID = strings.TrimSpace(deviceID); deviceID != "" {
		query = query.Where("device_id = ?", deviceID)
	}

	var prediction domain.Prediction
	err := query.Order("created_at DESC, id DESC").First(&prediction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNoPredictions
		}
		return nil, err
	}
	return &prediction, nil
}

func (s *Service) History(ctx context.Context, req domain.HistoryRequest) ([]domain.Prediction, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}

	query := s.db.WithContext(ctx).Model(&domain.Prediction{})
	if deviceID := strings.TrimSpace(req.DeviceID); deviceID != "" {
		query = query.Where("device_id = ?", deviceID)
	}

	var predictions []domain.Prediction
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&predictions).Error; err != nil {
		return nil, err
	}
	return predictions, nil
}
