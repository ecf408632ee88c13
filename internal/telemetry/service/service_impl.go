package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Agrim06/TeraFarm/internal/cache"
	"github.com/Agrim06/TeraFarm/internal/clock"
	"github.com/Agrim06/TeraFarm/internal/config"
	"github.com/Agrim06/TeraFarm/internal/observability/metrics"
	"github.com/Agrim06/TeraFarm/internal/telemetry/domain"
)

// latestCacheTTL bounds staleness of the dashboard's latest-reading poll.
const latestCacheTTL = 2 * time.Second

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	GenID   *snowflake.Node
	Config  config.Config
	Cache   cache.Cache[string, domain.SensorReading]
	Metrics *metrics.ProtocolMetrics `optional:"true"`
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	genID *snowflake.Node

	defaultLimit int
	maxLimit     int

	latestCache cache.Cache[string, domain.SensorReading]
	metrics     *metrics.ProtocolMetrics
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("telemetry.service"),
		clock: p.Clock,
		genID: p.GenID,

		defaultLimit: p.Config.HistoryDefaultLimit,
		maxLimit:     p.Config.HistoryMaxLimit,

		latestCache: p.Cache,
		metrics:     p.Metrics,
	}
}

func (s *Service) Ingest(ctx context.Context, req domain.IngestRequest) (*domain.SensorReading, error) {
	deviceID := strings.TrimSpace(req.DeviceID)
	if deviceID == "" {
		return nil, domain.ErrMissingDeviceID
	}
	for _, m := range []*float64{req.Temperature, req.Humidity, req.Moisture} {
		if m != nil && (math.IsNaN(*m) || math.IsInf(*m, 0)) {
			return nil, domain.ErrInvalidMeasurement
		}
	}

	ts := s.clock.Now().UTC()
	if req.Timestamp != nil {
		ts = req.Timestamp.UTC()
	}

	record := &domain.SensorReading{
		ID:          s.genID.Generate(),
		DeviceID:    deviceID,
		Temperature: req.Temperature,
		Humidity:    req.Humidity,
		Moisture:    req.Moisture,
		Timestamp:   ts,
		CreatedAt:   s.clock.Now().UTC(),
	}
	if len(req.Extra) > 0 {
		record.Extra = datatypes.JSONMap(req.Extra)
	}

	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		s.log.Error("insert reading failed", zap.String("device_id", deviceID), zap.Error(err))
		return nil, err
	}

	// Drop stale cache entries so the dashboard sees this reading at once.
	s.latestCache.Delete(deviceID)
	s.latestCache.Delete("")

	if s.metrics != nil {
		s.metrics.IncReadingIngested()
	}
	return record, nil
}

func (s *Service) Latest(ctx context.Context, deviceID string) (*domain.SensorReading, error) {
	deviceID = strings.TrimSpace(deviceID)

	if cached, ok := s.latestCache.Get(deviceID); ok {
		return &cached, nil
	}

	query := s.db.WithContext(ctx).Model(&domain.SensorReading{})
	if deviceID != "" {
		query = query.Where("device_id = ?", deviceID)
	}

	var reading domain.SensorReading
	err := query.Order("timestamp DESC, id DESC").First(&reading).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNoReadings
		}
		return nil, err
	}

	s.latestCache.Set(deviceID, reading, latestCacheTTL)
	return &reading, nil
}

func (s *Service) History(ctx context.Context, req domain.HistoryRequest) ([]domain.SensorReading, error) {
	limit := s.clampLimit(req.Limit)

	query := s.db.WithContext(ctx).Model(&domain.SensorReading{})
	if deviceID := strings.TrimSpace(req.DeviceID); deviceID != "" {
		query = query.Where("device_id = ?", deviceID)
	}

	var readings []domain.SensorReading
	if err := query.Order("timestamp DESC, id DESC").Limit(limit).Find(&readings).Error; err != nil {
		return nil, err
	}
	return readings, nil
}

func (s *Service) clampLimit(limit int) int {
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}
	return limit
}
