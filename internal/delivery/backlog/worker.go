// Package backlog periodically samples the prediction ledger and publishes
// pending-backlog gauges. Orphaned pending rows are never garbage-collected,
// so the gauges are how operators notice a device that stopped polling.
package backlog

import (
	"context"
	"errors"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Agrim06/TeraFarm/internal/observability/metrics"
	predictiondomain "github.com/Agrim06/TeraFarm/internal/prediction/domain"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Metrics *metrics.ProtocolMetrics `optional:"true"`
	Config  Config                   `optional:"true"`
}

type Worker struct {
	db      *gorm.DB
	log     *zap.Logger
	metrics *metrics.ProtocolMetrics
	cfg     Config
}

func NewWorker(p Params) *Worker {
	cfg := p.Config.withDefaults()
	return &Worker{
		db:      p.DB,
		log:     p.Log.Named("delivery.backlog"),
		metrics: p.Metrics,
		cfg:     cfg,
	}
}

func (w *Worker) RunForever(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if err := w.RunOnce(); err != nil {
			w.log.Warn("backlog sample failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *Worker) RunOnce() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return w.sample(ctx)
}

type deviceBacklog struct {
	DeviceID string
	Pending  int
}

func (w *Worker) sample(ctx context.Context) error {
	if w.db == nil {
		return errors.New("backlog_worker_unavailable")
	}

	var rows []deviceBacklog
	err := w.db.WithContext(ctx).
		Model(&predictiondomain.Prediction{}).
		Select("device_id, COUNT(1) AS pending").
		Where("status = ?", predictiondomain.StatusPending).
		Group("device_id").
		Order("pending DESC").
		Limit(w.cfg.MaxDevices).
		Scan(&rows).Error
	if err != nil {
		return err
	}

	total := 0
	for _, row := range rows {
		total += row.Pending
		if w.metrics != nil {
			w.metrics.SetPendingBacklog(row.DeviceID, row.Pending)
		}
	}
	if w.metrics != nil {
		w.metrics.SetPendingBacklogTotal(total)
	}

	var oldest predictiondomain.Prediction
	err = w.db.WithContext(ctx).
		Where("status = ?", predictiondomain.StatusPending).
		Order("created_at ASC, id ASC").
		First(&oldest).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if w.metrics != nil {
			w.metrics.SetPendingOldestAge(0)
		}
	case err != nil:
		return err
	default:
		if w.metrics != nil {
			w.metrics.SetPendingOldestAge(time.Since(oldest.CreatedAt))
		}
	}
	return nil
}
