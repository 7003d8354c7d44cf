package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/models"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/store"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/util"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const auditBatchSize = 100

// AuditLogEntry represents the data needed to create an audit log entry
type AuditLogEntry struct {
	EventType     models.EventType
	Severity      models.EventSeverity
	ActorUserID   string
	ActorUsername string
	ActorIP       string
	ResourceType  models.ResourceType
	ResourceID    string
	ResourceName  string
	Action        string
	Details       models.AuditDetails
	Success       bool
	ErrorMessage  string
	UserAgent     string
	RequestPath   string
	RequestMethod string
}

// AuditService writes the audit trail. Log is fire-and-forget: entries go
// through a bounded channel and are flushed in batches by one worker.
type AuditService struct {
	store   *store.Store
	enabled bool

	logChan chan *models.AuditLog

	batchBuffer []*models.AuditLog
	batchMutex  sync.Mutex
	batchTicker *time.Ticker

	wg           sync.WaitGroup
	shutdownCh   chan struct{}
	shutdownOnce sync.Once
}

func NewAuditService(s *store.Store, enabled bool, bufferSize int) *AuditService {
	if bufferSize <= 0 {
		bufferSize = 1000
	}

	service := &AuditService{
		store:       s,
		enabled:     enabled,
		logChan:     make(chan *models.AuditLog, bufferSize),
		batchBuffer: make([]*models.AuditLog, 0, auditBatchSize),
		batchTicker: time.NewTicker(time.Second),
		shutdownCh:  make(chan struct{}),
	}

	if enabled {
		service.wg.Go(service.worker)
		log.Info().Int("buffer_size", bufferSize).Msg("audit service started")
	} else {
		service.batchTicker.Stop()
		log.Info().Msg("audit service is disabled")
	}

	return service
}

func (s *AuditService) worker() {
	for {
		select {
		case entry := <-s.logChan:
			s.addToBatch(entry)

		case <-s.batchTicker.C:
			s.flushBatch()

		case <-s.shutdownCh:
			// Drain whatever is still queued before the final flush.
			for {
				select {
				case entry := <-s.logChan:
					s.addToBatch(entry)
				default:
					s.flushBatch()
					return
				}
			}
		}
	}
}

func (s *AuditService) addToBatch(entry *models.AuditLog) {
	s.batchMutex.Lock()
	defer s.batchMutex.Unlock()

	s.batchBuffer = append(s.batchBuffer, entry)
	if len(s.batchBuffer) >= auditBatchSize {
		s.flushBatchUnsafe()
	}
}

func (s *AuditService) flushBatch() {
	s.batchMutex.Lock()
	defer s.batchMutex.Unlock()
	s.flushBatchUnsafe()
}

// flushBatchUnsafe writes the buffer out; caller must hold batchMutex.
func (s *AuditService) flushBatchUnsafe() {
	if len(s.batchBuffer) == 0 {
		return
	}

	toWrite := make([]*models.AuditLog, len(s.batchBuffer))
	copy(toWrite, s.batchBuffer)
	s.batchBuffer = s.batchBuffer[:0]

	if err := s.store.CreateAuditLogBatch(context.Background(), toWrite); err != nil {
		log.Error().Err(err).Int("entries", len(toWrite)).Msg("failed to write audit log batch")
	}
}

func (s *AuditService) buildEntry(ctx context.Context, entry AuditLogEntry) *models.AuditLog {
	if entry.ActorIP == "" {
		entry.ActorIP = util.GetIPFromContext(ctx)
	}
	if entry.UserAgent == "" {
		entry.UserAgent = util.GetUserAgentFromContext(ctx)
	}
	if entry.ActorUserID == "" {
		entry.ActorUserID = models.GetUserIDFromContext(ctx)
	}
	if entry.ActorUsername == "" {
		entry.ActorUsername = models.GetUsernameFromContext(ctx)
	}
	if entry.Severity == "" {
		entry.Severity = entry.EventType.DefaultSeverity()
	}

	now := time.Now()
	return &models.AuditLog{
		ID:            uuid.New().String(),
		EventType:     entry.EventType,
		EventTime:     now,
		Severity:      entry.Severity,
		ActorUserID:   entry.ActorUserID,
		ActorUsername: entry.ActorUsername,
		ActorIP:       entry.ActorIP,
		ResourceType:  entry.ResourceType,
		ResourceID:    entry.ResourceID,
		ResourceName:  entry.ResourceName,
		Action:        entry.Action,
		Details:       maskSensitiveDetails(entry.Details),
		Success:       entry.Success,
		ErrorMessage:  entry.ErrorMessage,
		UserAgent:     entry.UserAgent,
		RequestPath:   entry.RequestPath,
		RequestMethod: entry.RequestMethod,
		CreatedAt:     now,
	}
}

// Log records an audit log entry asynchronously. A full buffer drops the event.
func (s *AuditService) Log(ctx context.Context, entry AuditLogEntry) {
	if s == nil || !s.enabled {
		return
	}

	select {
	case s.logChan <- s.buildEntry(ctx, entry):
	default:
		log.Warn().Str("action", entry.Action).Msg("audit log buffer full, dropping event")
	}
}

// LogSync records an audit log entry synchronously (for critical events)
func (s *AuditService) LogSync(ctx context.Context, entry AuditLogEntry) error {
	if s == nil || !s.enabled {
		return nil
	}
	return s.store.CreateAuditLog(ctx, s.buildEntry(ctx, entry))
}

func (s *AuditService) GetAuditLogs(
	ctx context.Context,
	params store.PaginationParams,
	filters store.AuditLogFilters,
) ([]models.AuditLog, store.PaginationResult, error) {
	return s.store.GetAuditLogsPaginated(ctx, params, filters)
}

// CleanupOldLogs deletes audit logs older than the retention period
func (s *AuditService) CleanupOldLogs(ctx context.Context, retention time.Duration) (int64, error) {
	return s.store.DeleteOldAuditLogs(ctx, time.Now().Add(-retention))
}

func (s *AuditService) GetAuditLogStats(
	ctx context.Context,
	startTime, endTime time.Time,
) (store.AuditLogStats, error) {
	return s.store.GetAuditLogStats(ctx, startTime, endTime)
}

// Shutdown flushes pending entries and stops the worker.
func (s *AuditService) Shutdown(ctx context.Context) error {
	if !s.enabled {
		return nil
	}

	s.shutdownOnce.Do(func() {
		s.batchTicker.Stop()
		close(s.shutdownCh)
	})

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info().Msg("audit service shut down gracefully")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("audit service shutdown timeout: %w", ctx.Err())
	}
}

// maskSensitiveDetails masks sensitive information in audit log details
func maskSensitiveDetails(details models.AuditDetails) models.AuditDetails {
	if details == nil {
		return details
	}

	masked := make(models.AuditDetails, len(details))
	for key, value := range details {
		if isSensitiveField(key) {
			masked[key] = "***REDACTED***"
			continue
		}
		if isPartialMaskField(key) {
			if str, ok := value.(string); ok && len(str) > 12 {
				masked[key] = str[:8] + "..." + str[len(str)-4:]
				continue
			}
		}
		masked[key] = value
	}
	return masked
}

var sensitiveFields = []string{
	"password",
	"client_secret",
	"access_token",
	"temp_token",
	"totp_secret",
	"code_verifier",
}

var partialMaskFields = []string{
	"credential_id",
	"device_id",
	"token_id",
}

func isSensitiveField(key string) bool {
	key = strings.ToLower(key)
	for _, field := range sensitiveFields {
		if strings.Contains(key, field) {
			return true
		}
	}
	return false
}

func isPartialMaskField(key string) bool {
	key = strings.ToLower(key)
	for _, field := range partialMaskFields {
		if strings.Contains(key, field) {
			return true
		}
	}
	return false
}
