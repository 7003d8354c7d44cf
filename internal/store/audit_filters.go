package store

import (
	"time"

	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/models"

	"gorm.io/gorm"
)

// AuditLogFilters narrows an audit query. Zero fields are ignored; Search
// matches the action, resource name and actor username.
type AuditLogFilters struct {
	EventType    models.EventType
	Severity     models.EventSeverity
	Success      *bool
	ActorUserID  string
	ActorIP      string
	ResourceType models.ResourceType
	ResourceID   string
	StartTime    time.Time
	EndTime      time.Time
	Search       string
}

func (f AuditLogFilters) apply(q *gorm.DB) *gorm.DB {
	equals := []struct {
		column string
		value  string
	}{
		{"event_type", string(f.EventType)},
		{"severity", string(f.Severity)},
		{"actor_user_id", f.ActorUserID},
		{"actor_ip", f.ActorIP},
		{"resource_type", string(f.ResourceType)},
		{"resource_id", f.ResourceID},
	}
	for _, eq := range equals {
		if eq.value != "" {
			q = q.Where(eq.column+" = ?", eq.value)
		}
	}

	if f.Success != nil {
		q = q.Where("success = ?", *f.Success)
	}
	if !f.StartTime.IsZero() {
		q = q.Where("event_time >= ?", f.StartTime)
	}
	if !f.EndTime.IsZero() {
		q = q.Where("event_time <= ?", f.EndTime)
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where("action LIKE ? OR resource_name LIKE ? OR actor_username LIKE ?", like, like, like)
	}
	return q
}

// AuditLogStats aggregates the events inside a time window.
type AuditLogStats struct {
	TotalEvents      int64                          `json:"total_events"`
	SuccessCount     int64                          `json:"success_count"`
	FailureCount     int64                          `json:"failure_count"`
	EventsByType     map[models.EventType]int64     `json:"events_by_type"`
	EventsBySeverity map[models.EventSeverity]int64 `json:"events_by_severity"`
}
