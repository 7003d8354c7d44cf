package models

import "time"

type EventType string

const (
	EventAuthenticationSuccess EventType = "AUTHENTICATION_SUCCESS"
	EventAuthenticationFailure EventType = "AUTHENTICATION_FAILURE"
	EventLogout                EventType = "LOGOUT"

	EventTwoFactorChallenged EventType = "TWO_FACTOR_CHALLENGED"
	EventTwoFactorVerified   EventType = "TWO_FACTOR_VERIFIED"
	EventTwoFactorFailed     EventType = "TWO_FACTOR_FAILED"
	EventTOTPEnabled         EventType = "TOTP_ENABLED"
	EventTOTPDisabled        EventType = "TOTP_DISABLED"
	EventWebAuthnRegistered  EventType = "WEBAUTHN_REGISTERED"
	EventWebAuthnRemoved     EventType = "WEBAUTHN_REMOVED"
	EventWebAuthnReplay      EventType = "WEBAUTHN_COUNTER_REPLAY"

	EventMagicLinkSent     EventType = "MAGIC_LINK_SENT"
	EventMagicLinkRedeemed EventType = "MAGIC_LINK_REDEEMED"
	EventQRLoginCompleted  EventType = "QR_LOGIN_COMPLETED"

	EventAccessTokenIssued          EventType = "ACCESS_TOKEN_ISSUED"
	EventAuthorizationCodeGenerated EventType = "AUTHORIZATION_CODE_GENERATED"
	EventAuthorizationCodeExchanged EventType = "AUTHORIZATION_CODE_EXCHANGED"
	EventUserAuthorizationGranted   EventType = "USER_AUTHORIZATION_GRANTED"
	EventUserAuthorizationRevoked   EventType = "USER_AUTHORIZATION_REVOKED"

	EventClientCreated           EventType = "CLIENT_CREATED"
	EventClientUpdated           EventType = "CLIENT_UPDATED"
	EventClientDeleted           EventType = "CLIENT_DELETED"
	EventClientSecretRegenerated EventType = "CLIENT_SECRET_REGENERATED"
	EventAuditLogViewed          EventType = "AUDIT_LOG_VIEWED"

	EventRateLimitExceeded  EventType = "RATE_LIMIT_EXCEEDED"
	EventSuspiciousActivity EventType = "SUSPICIOUS_ACTIVITY"
)

type EventSeverity string

const (
	SeverityInfo     EventSeverity = "INFO"
	SeverityWarning  EventSeverity = "WARNING"
	SeverityError    EventSeverity = "ERROR"
	SeverityCritical EventSeverity = "CRITICAL"
)

// DefaultSeverity is used when an entry is recorded without an explicit
// severity. Counter replays and flagged activity point at stolen
// credentials and are critical; failures and destructive admin actions are
// warnings.
func (e EventType) DefaultSeverity() EventSeverity {
	switch e {
	case EventWebAuthnReplay, EventSuspiciousActivity:
		return SeverityCritical
	case EventAuthenticationFailure, EventTwoFactorFailed, EventRateLimitExceeded,
		EventTOTPDisabled, EventWebAuthnRemoved, EventClientDeleted,
		EventClientSecretRegenerated, EventUserAuthorizationRevoked:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

type ResourceType string

const (
	ResourceUser          ResourceType = "USER"
	ResourceClient        ResourceType = "CLIENT"
	ResourceToken         ResourceType = "TOKEN"
	ResourceCredential    ResourceType = "CREDENTIAL"
	ResourceDevice        ResourceType = "DEVICE"
	ResourceAuthorization ResourceType = "AUTHORIZATION"
)

// AuditLog is an append-only record of a security relevant action. Rows are
// never updated, only removed by retention cleanup.
type AuditLog struct {
	ID        string        `gorm:"primaryKey;type:varchar(36)"     json:"id"`
	EventType EventType     `gorm:"type:varchar(50);index;not null" json:"event_type"`
	EventTime time.Time     `gorm:"index;not null"                  json:"event_time"`
	Severity  EventSeverity `gorm:"type:varchar(20);not null"       json:"severity"`
	Success   bool          `gorm:"index;not null"                  json:"success"`

	// Who. ActorIP is sized for IPv6.
	ActorUserID   string `gorm:"type:varchar(36);index" json:"actor_user_id"`
	ActorUsername string `gorm:"type:varchar(100)"      json:"actor_username"`
	ActorIP       string `gorm:"type:varchar(45);index" json:"actor_ip"`

	// What.
	ResourceType ResourceType `gorm:"type:varchar(50);index"     json:"resource_type"`
	ResourceID   string       `gorm:"type:varchar(36);index"     json:"resource_id"`
	ResourceName string       `gorm:"type:varchar(255)"          json:"resource_name"`
	Action       string       `gorm:"type:varchar(255);not null" json:"action"`
	Details      AuditDetails `gorm:"type:json"                  json:"details"`
	ErrorMessage string       `gorm:"type:text"                  json:"error_message,omitempty"`

	UserAgent     string `gorm:"type:varchar(500)" json:"user_agent,omitempty"`
	RequestPath   string `gorm:"type:varchar(500)" json:"request_path,omitempty"`
	RequestMethod string `gorm:"type:varchar(10)"  json:"request_method,omitempty"`

	CreatedAt time.Time `gorm:"index;not null" json:"created_at"`
}

func (AuditLog) TableName() string { return "audit_logs" }
