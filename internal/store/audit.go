package store

import (
	"context"
	"time"

	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/models"

	"gorm.io/gorm"
)

func (s *Store) CreateAuditLog(ctx context.Context, entry *models.AuditLog) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

// CreateAuditLogBatch inserts entries in chunks of 100.
func (s *Store) CreateAuditLogBatch(ctx context.Context, entries []*models.AuditLog) error {
	if len(entries) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).CreateInBatches(entries, 100).Error
}

// GetAuditLogsPaginated returns one page of audit logs, newest first.
func (s *Store) GetAuditLogsPaginated(
	ctx context.Context,
	params PaginationParams,
	filters AuditLogFilters,
) ([]models.AuditLog, PaginationResult, error) {
	base := filters.apply(s.db.WithContext(ctx).Model(&models.AuditLog{}))

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, PaginationResult{}, err
	}

	var logs []models.AuditLog
	if err := base.Order("event_time DESC").
		Offset(params.Offset()).
		Limit(params.PageSize).
		Find(&logs).Error; err != nil {
		return nil, PaginationResult{}, err
	}

	return logs, CalculatePagination(total, params.Page, params.PageSize), nil
}

// DeleteOldAuditLogs removes entries created before cutoff.
func (s *Store) DeleteOldAuditLogs(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&models.AuditLog{})
	return res.RowsAffected, res.Error
}

// GetAuditLogStats aggregates events in [start, end].
func (s *Store) GetAuditLogStats(ctx context.Context, start, end time.Time) (AuditLogStats, error) {
	stats := AuditLogStats{
		EventsByType:     make(map[models.EventType]int64),
		EventsBySeverity: make(map[models.EventSeverity]int64),
	}
	window := func() *gorm.DB {
		return s.db.WithContext(ctx).Model(&models.AuditLog{}).
			Where("event_time >= ? AND event_time <= ?", start, end)
	}

	if err := window().Count(&stats.TotalEvents).Error; err != nil {
		return stats, err
	}
	if err := window().Where("success = ?", true).Count(&stats.SuccessCount).Error; err != nil {
		return stats, err
	}
	stats.FailureCount = stats.TotalEvents - stats.SuccessCount

	var byType []struct {
		EventType models.EventType
		Count     int64
	}
	if err := window().Select("event_type, COUNT(*) AS count").
		Group("event_type").Scan(&byType).Error; err != nil {
		return stats, err
	}
	for _, row := range byType {
		stats.EventsByType[row.EventType] = row.Count
	}

	var bySeverity []struct {
		Severity models.EventSeverity
		Count    int64
	}
	if err := window().Select("severity, COUNT(*) AS count").
		Group("severity").Scan(&bySeverity).Error; err != nil {
		return stats, err
	}
	for _, row := range bySeverity {
		stats.EventsBySeverity[row.Severity] = row.Count
	}

	return stats, nil
}
