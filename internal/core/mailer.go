package core

import (
	"context"
	"time"
)

// MagicLinkMessage is everything a mail backend needs to deliver a sign-in link.
type MagicLinkMessage struct {
	To        string
	Username  string
	Link      string
	ExpiresAt time.Time
	Device    string
	IP        string
}

// Mailer delivers outbound authentication mail.
type Mailer interface {
	SendMagicLink(ctx context.Context, msg MagicLinkMessage) error
	Name() string
}
