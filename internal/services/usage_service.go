// internal/services/usage_service.go
package services

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/catalogo-hub/catalogo-backend/internal/models"
)

// UsageService owns the append-only ledger of AI-provider invocations. It is
// the single source for quota counting and auditing; records are never
// updated or deleted.
type UsageService struct {
	db *gorm.DB
}

func NewUsageService(db *gorm.DB) *UsageService {
	return &UsageService{db: db}
}

func (s *UsageService) Record(record *models.UsageRecord) error {
	if err := s.db.Create(record).Error; err != nil {
		return fmt.Errorf("failed to create usage record: %w", err)
	}
	return nil
}

// RecordAsync persists the ledger entry on a best-effort basis from
// background paths that must not fail the run over a ledger write.
func (s *UsageService) RecordAsync(record *models.UsageRecord) {
	if err := s.Record(record); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"user_id": record.UserID,
			"action":  record.Action,
		}).Error("Failed to record usage")
	}
}

// CountSince counts ledger entries for the user whose action starts with the
// category prefix, created at or after the given instant.
func (s *UsageService) CountSince(userID uint, category models.ActionType, since time.Time) (int64, error) {
	var count int64
	err := s.db.Model(&models.UsageRecord{}).
		Where("user_id = ? AND action LIKE ? AND created_at >= ?", userID, string(category)+"%", since).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count usage records: %w", err)
	}
	return count, nil
}

// CountAllSince counts every ledger entry for the user in the window. Used
// by the unified AI-credit pool: every row is one AI-provider invocation.
func (s *UsageService) CountAllSince(userID uint, since time.Time) (int64, error) {
	var count int64
	err := s.db.Model(&models.UsageRecord{}).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count usage records: %w", err)
	}
	return count, nil
}

// ListForUser returns the user's ledger, newest first.
func (s *UsageService) ListForUser(userID uint, limit int) ([]models.UsageRecord, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var records []models.UsageRecord
	err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list usage records: %w", err)
	}
	return records, nil
}

// MonthStartUTC is the first instant of the current calendar month in UTC,
// the quota counting window boundary.
func MonthStartUTC(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
}
