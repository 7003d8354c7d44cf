package bootstrap

import (
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/config"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/handlers"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/services"
)

// handlerSet holds all HTTP handlers
type handlerSet struct {
	auth      *handlers.AuthHandler
	totp      *handlers.TOTPHandler
	webauthn  *handlers.WebAuthnHandler
	magicLink *handlers.MagicLinkHandler
	qr        *handlers.QRHandler
	oidc      *handlers.OIDCHandler
	client    *handlers.ClientHandler
	audit     *handlers.AuditHandler
}

// initializeHandlers creates all HTTP handlers
func initializeHandlers(
	cfg *config.Config,
	svc *serviceSet,
	auditService *services.AuditService,
) handlerSet {
	return handlerSet{
		auth:      handlers.NewAuthHandler(svc.twoFactor, auditService, cfg),
		totp:      handlers.NewTOTPHandler(svc.totp, svc.twoFactor),
		webauthn:  handlers.NewWebAuthnHandler(svc.webauthn, svc.twoFactor, svc.sessions),
		magicLink: handlers.NewMagicLinkHandler(svc.magicLinks),
		qr:        handlers.NewQRHandler(svc.qr),
		oidc:      handlers.NewOIDCHandler(svc.oidc, svc.clients, svc.users, svc.issuer),
		client:    handlers.NewClientHandler(svc.clients),
		audit:     handlers.NewAuditHandler(auditService),
	}
}
