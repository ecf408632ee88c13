package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Agrim06/TeraFarm/internal/clock"
	"github.com/Agrim06/TeraFarm/internal/config"
	"github.com/Agrim06/TeraFarm/internal/prediction/domain"
)

func setupPredictionTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.Prediction{}); err != nil {
		t.Fatalf("migrate predictions: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB, clk clock.Clock) domain.Service {
	t.Helper()
	node, err := snowflake.NewNode(9)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	return NewService(ServiceParam{
		DB:    db,
		Log:   zap.NewNop(),
		Clock: clk,
		GenID: node,
		Config: config.Config{
			HistoryDefaultLimit: 4,
			HistoryMaxLimit:     5,
		},
	})
}

func TestIssueCreatesPendingPrediction(t *testing.T) {
	db := setupPredictionTestDB(t)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(t, db, clock.FixedClock{T: at})

	record, err := svc.Issue(context.Background(), "pump-1", domain.IssueRequest{WaterMM: 12, PumpTimeSec: 30})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if record.ID == 0 {
		t.Fatalf("expected a generated prediction id")
	}
	if record.Status != domain.StatusPending {
		t.Fatalf("expected pending status, got %q", record.Status)
	}
	if !record.CreatedAt.Equal(at) {
		t.Fatalf("expected created_at %v, got %v", at, record.CreatedAt)
	}
}

func TestIssueGeneratesUniqueIDs(t *testing.T) {
	db := setupPredictionTestDB(t)
	svc := newTestService(t, db, clock.SystemClock{})

	seen := map[snowflake.ID]bool{}
	for i := 0; i < 50; i++ {
		record, err := svc.Issue(context.Background(), "pump-1", domain.IssueRequest{WaterMM: 1, PumpTimeSec: 1})
		if err != nil {
			t.Fatalf("issue %d: %v", i, err)
		}
		if seen[record.ID] {
			t.Fatalf("duplicate prediction id %s", record.ID)
		}
		seen[record.ID] = true
	}
}

func TestIssueLeavesOlderPendingUntouched(t *testing.T) {
	db := setupPredictionTestDB(t)
	svc := newTestService(t, db, clock.SystemClock{})

	first, err := svc.Issue(context.Background(), "pump-1", domain.IssueRequest{WaterMM: 1, PumpTimeSec: 1})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := svc.Issue(context.Background(), "pump-1", domain.IssueRequest{WaterMM: 2, PumpTimeSec: 2}); err != nil {
		t.Fatalf("issue: %v", err)
	}

	var got domain.Prediction
	if err := db.First(&got, "id = ?", first.ID).Error; err != nil {
		t.Fatalf("load first prediction: %v", err)
	}
	if got.Status != domain.StatusPending {
		t.Fatalf("expected first prediction to stay pending, got %q", got.Status)
	}
}

func TestIssueValidation(t *testing.T) {
	db := setupPredictionTestDB(t)
	svc := newTestService(t, db, clock.SystemClock{})

	cases := []struct {
		name    string
		device  string
		req     domain.IssueRequest
		wantErr error
	}{
		{"missing device", "  ", domain.IssueRequest{WaterMM: 1, PumpTimeSec: 1}, domain.ErrMissingDeviceID},
		{"negative water", "pump-1", domain.IssueRequest{WaterMM: -1, PumpTimeSec: 1}, domain.ErrInvalidWaterMM},
		{"nan water", "pump-1", domain.IssueRequest{WaterMM: math.NaN(), PumpTimeSec: 1}, domain.ErrInvalidWaterMM},
		{"negative pump time", "pump-1", domain.IssueRequest{WaterMM: 1, PumpTimeSec: -5}, domain.ErrInvalidPumpTime},
		{"infinite pump time", "pump-1", domain.IssueRequest{WaterMM: 1, PumpTimeSec: math.Inf(1)}, domain.ErrInvalidPumpTime},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Issue(context.Background(), tc.device, tc.req)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestLatestIgnoresStatus(t *testing.T) {
	db := setupPredictionTestDB(t)
	svc := newTestService(t, db, clock.SystemClock{})

	node, _ := snowflake.NewNode(8)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	older := domain.Prediction{
		ID: node.Generate(), DeviceID: "pump-1", WaterMM: 1, PumpTimeSec: 1,
		Status: domain.StatusPending, CreatedAt: base,
	}
	consumedAt := base.Add(2 * time.Minute)
	newest := domain.Prediction{
		ID: node.Generate(), DeviceID: "pump-1", WaterMM: 2, PumpTimeSec: 2,
		Status: domain.StatusConsumed, CreatedAt: base.Add(time.Minute), ConsumedAt: &consumedAt,
	}
	for _, record := range []domain.Prediction{older, newest} {
		if err := db.Create(&record).Error; err != nil {
			t.Fatalf("seed prediction: %v", err)
		}
	}

	got, err := svc.Latest(context.Background(), "pump-1")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if got.ID != newest.ID {
		t.Fatalf("expected the newest row regardless of status, got %s", got.ID)
	}
}

func TestLatestEmptyLedger(t *testing.T) {
	db := setupPredictionTestDB(t)
	svc := newTestService(t, db, clock.SystemClock{})

	_, err := svc.Latest(context.Background(), "pump-1")
	if !errors.Is(err, domain.ErrNoPredictions) {
		t.Fatalf("expected ErrNoPredictions, got %v", err)
	}
}

func TestHistoryClamping(t *testing.T) {
	db := setupPredictionTestDB(t)
	svc := newTestService(t, db, clock.SystemClock{})

	for i := 0; i < 7; i++ {
		if _, err := svc.Issue(context.Background(), "pump-1", domain.IssueRequest{WaterMM: float64(i), PumpTimeSec: 1}); err != nil {
			t.Fatalf("issue: %v", err)
		}
	}

	got, err := svc.History(context.Background(), domain.HistoryRequest{DeviceID: "pump-1", Limit: 10000})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("expected clamp to 5, got %d", len(got))
	}

	got, err = svc.History(context.Background(), domain.HistoryRequest{DeviceID: "pump-1", Limit: 0})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("expected default of 4, got %d", len(got))
	}
}
