package bootstrap

import (
	"fmt"

	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/auth"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/config"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/core"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/metrics"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/services"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/store"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/token"
)

// serviceSet holds the business services shared by the handlers.
type serviceSet struct {
	issuer     *token.Issuer
	users      *services.UserService
	sessions   *services.SessionIssuer
	totp       *services.TOTPService
	webauthn   *services.WebAuthnService
	twoFactor  *services.TwoFactorService
	magicLinks *services.MagicLinkService
	qr         *services.QRService
	oidc       *services.OIDCService
	clients    *services.ClientService
}

// initializeServices creates all business logic services
func initializeServices(
	cfg *config.Config,
	db *store.Store,
	caches *cacheSet,
	auditService *services.AuditService,
	recorder metrics.Recorder,
	httpAPIProvider core.AuthProvider,
	mail core.Mailer,
) (*serviceSet, error) {
	issuer := token.NewIssuer(cfg, db)

	users := services.NewUserService(
		db,
		auth.NewLocalAuthProvider(db),
		httpAPIProvider,
		cfg.AuthMode,
		recorder,
		caches.users,
		cfg.UserCacheTTL,
	)
	sessions := services.NewSessionIssuer(issuer, auditService, recorder)
	totpService := services.NewTOTPService(db, cfg, auditService)

	webAuthnService, err := services.NewWebAuthnService(db, cfg, caches.webauthn, auditService, recorder)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize webauthn: %w", err)
	}

	twoFactor := services.NewTwoFactorService(
		db,
		users,
		totpService,
		webAuthnService,
		sessions,
		auditService,
		recorder,
		cfg.TwoFactorTokenTTL,
		cfg.AllowTwoFactorSkip,
	)
	magicLinks := services.NewMagicLinkService(
		db, mail, sessions, auditService, recorder, cfg.MagicLinkTTL, cfg.MagicLinkURL,
	)
	qr := services.NewQRService(
		users,
		issuer,
		sessions,
		caches.qrBindings,
		caches.qrResults,
		caches.qrSessions,
		auditService,
		recorder,
		services.QRConfig{
			BaseURL:        cfg.BaseURL,
			TokenTTL:       cfg.QRTokenTTL,
			LoginResultTTL: cfg.QRLoginResultTTL,
			ImageSize:      cfg.QRImageSize,
		},
	)
	oidc := services.NewOIDCService(
		db, cfg, caches.oidcRequests, caches.authCodes, issuer, auditService, recorder,
	)

	return &serviceSet{
		issuer:     issuer,
		users:      users,
		sessions:   sessions,
		totp:       totpService,
		webauthn:   webAuthnService,
		twoFactor:  twoFactor,
		magicLinks: magicLinks,
		qr:         qr,
		oidc:       oidc,
		clients:    services.NewClientService(db, auditService, recorder),
	}, nil
}
