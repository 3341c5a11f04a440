package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"auction-harvester/config"
	"auction-harvester/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrHarvestRunNotFound = errors.New("harvest run not found")
)

const (
	defaultRecentRuns = 10
	maxRecentRuns     = 100
	maxErrorMessage   = 2000
)

// HarvestRunService is the append-only run ledger.
type HarvestRunService struct {
	db *gorm.DB
}

func NewHarvestRunService(db *gorm.DB) *HarvestRunService {
	if db == nil {
		db = config.DB
	}
	return &HarvestRunService{db: db}
}

func (s *HarvestRunService) Record(ctx context.Context, run *models.HarvestRun) error {
	if run == nil {
		return errors.New("run is nil")
	}
	if run.Status != models.HarvestRunStatusSuccess && run.Status != models.HarvestRunStatusError {
		return fmt.Errorf("invalid run status %q", run.Status)
	}
	if run.RunUUID == "" {
		run.RunUUID = uuid.NewString()
	}
	if strings.TrimSpace(run.TriggerSource) == "" {
		run.TriggerSource = "unknown"
	}
	if run.ErrorMessage != nil && len(*run.ErrorMessage) > maxErrorMessage {
		truncated := truncateMessage(*run.ErrorMessage, maxErrorMessage)
		run.ErrorMessage = &truncated
	}
	return s.db.WithContext(ctx).Create(run).Error
}

// Recent returns the latest n runs, newest first. n is clamped to 1..100
// and defaults to 10.
func (s *HarvestRunService) Recent(ctx context.Context, n int) ([]models.HarvestRun, error) {
	if n <= 0 {
		n = defaultRecentRuns
	}
	if n > maxRecentRuns {
		n = maxRecentRuns
	}

	var runs []models.HarvestRun
	err := s.db.WithContext(ctx).
		Order("finished_at DESC").
		Order("id DESC").
		Limit(n).
		Find(&runs).Error
	if err != nil {
		return nil, err
	}
	return runs, nil
}

// Latest returns the newest ledger row whatever its status, or nil when the
// ledger is empty.
func (s *HarvestRunService) Latest(ctx context.Context) (*models.HarvestRun, error) {
	var run models.HarvestRun
	err := s.db.WithContext(ctx).
		Order("finished_at DESC").
		Order("id DESC").
		First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &run, nil
}

func (s *HarvestRunService) GetByUUID(ctx context.Context, runUUID string) (*models.HarvestRun, error) {
	var run models.HarvestRun
	if err := s.db.WithContext(ctx).Where("run_uuid = ?", runUUID).First(&run).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHarvestRunNotFound
		}
		return nil, err
	}
	return &run, nil
}

// truncateMessage cuts msg to at most limit bytes, ellipsis included,
// without splitting a UTF-8 sequence.
func truncateMessage(msg string, limit int) string {
	cut := limit - len("...")
	for cut > 0 && !utf8.RuneStart(msg[cut]) {
		cut--
	}
	return msg[:cut] + "..."
}
