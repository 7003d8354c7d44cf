package handlers

import (
	"strconv"
	"time"

	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/middleware"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/models"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/services"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/store"

	"github.com/gin-gonic/gin"
)

// AuditHandler exposes the audit trail to administrators.
type AuditHandler struct {
	auditService *services.AuditService
}

func NewAuditHandler(auditService *services.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

type paginationView struct {
	Total       int64 `json:"total"`
	TotalPages  int   `json:"total_pages"`
	CurrentPage int   `json:"current_page"`
	PageSize    int   `json:"page_size"`
	HasPrev     bool  `json:"has_prev"`
	HasNext     bool  `json:"has_next"`
}

func parseTimeQuery(c *gin.Context, key string) time.Time {
	if v := c.Query(key); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

func auditFilters(c *gin.Context) store.AuditLogFilters {
	filters := store.AuditLogFilters{
		EventType:    models.EventType(c.Query("event_type")),
		ActorUserID:  c.Query("actor_user_id"),
		ResourceType: models.ResourceType(c.Query("resource_type")),
		ResourceID:   c.Query("resource_id"),
		Severity:     models.EventSeverity(c.Query("severity")),
		ActorIP:      c.Query("actor_ip"),
		Search:       c.Query("search"),
		StartTime:    parseTimeQuery(c, "start_time"),
		EndTime:      parseTimeQuery(c, "end_time"),
	}
	if v := c.Query("success"); v != "" {
		success := v == "true"
		filters.Success = &success
	}
	return filters
}

// ListAuditLogs is GET /admin/audit with filters and pagination.
func (h *AuditHandler) ListAuditLogs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	params := store.NewPaginationParams(page, pageSize, c.Query("search"))
	filters := auditFilters(c)

	logs, pagination, err := h.auditService.GetAuditLogs(c, params, filters)
	if err != nil {
		respondError(c, err)
		return
	}

	actor := middleware.CurrentUser(c)
	h.auditService.Log(c, services.AuditLogEntry{
		EventType:     models.EventAuditLogViewed,
		ActorUserID:   actor.ID,
		ActorUsername: actor.Username,
		Action:        "Viewed audit logs",
		Details: models.AuditDetails{
			"page":      params.Page,
			"page_size": params.PageSize,
			"filters":   filters,
		},
		Success: true,
	})

	respondOK(c, "", gin.H{
		"logs": logs,
		"pagination": paginationView{
			Total:       pagination.Total,
			TotalPages:  pagination.TotalPages,
			CurrentPage: pagination.CurrentPage,
			PageSize:    pagination.PageSize,
			HasPrev:     pagination.HasPrev,
			HasNext:     pagination.HasNext,
		},
	})
}

// GetAuditLogStats is GET /admin/audit/stats. The window defaults to the last 30 days.
func (h *AuditHandler) GetAuditLogStats(c *gin.Context) {
	startTime := parseTimeQuery(c, "start_time")
	endTime := parseTimeQuery(c, "end_time")
	if startTime.IsZero() && endTime.IsZero() {
		endTime = time.Now()
		startTime = endTime.Add(-30 * 24 * time.Hour)
	}

	stats, err := h.auditService.GetAuditLogStats(c, startTime, endTime)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "", gin.H{
		"stats":      stats,
		"start_time": startTime,
		"end_time":   endTime,
	})
}
