package token

import (
	"context"
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"fmt"
	"time"

	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/config"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/core"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// HS256 key bounds. Shorter secrets are stretched, longer ones compressed.
const (
	minKeyLen = 32
	maxKeyLen = 64
)

var _ core.TokenIssuer = (*Issuer)(nil)

// reserved claims are owned by the issuer and never taken from extra.
var reservedClaims = map[string]bool{
	"iss": true, "aud": true, "exp": true, "iat": true, "nbf": true, "jti": true,
	ClaimSubject: true, ClaimName: true, ClaimLegacyID: true, ClaimRole: true,
	ClaimPermission: true, ClaimPrimaryRole: true, ClaimType: true,
}

// Issuer signs and verifies the service's HS256 tokens.
type Issuer struct {
	config *config.Config
	store  IdentityStore
	key    []byte
	now    func() time.Time
}

func NewIssuer(cfg *config.Config, s IdentityStore) *Issuer {
	return &Issuer{
		config: cfg,
		store:  s,
		key:    NormalizeKey(cfg.JWTSecret),
		now:    time.Now,
	}
}

// NormalizeKey maps any secret onto the 32..64 byte range accepted for HS256.
func NormalizeKey(secret string) []byte {
	raw := []byte(secret)
	switch {
	case len(raw) < minKeyLen:
		sum := sha256.Sum256(raw)
		return sum[:]
	case len(raw) > maxKeyLen:
		sum := sha512.Sum512(raw)
		return sum[:]
	default:
		return raw
	}
}

// Issue loads userID's current role and permission snapshot and signs an access token.
func (i *Issuer) Issue(ctx context.Context, userID string, extra map[string]any) (*Result, error) {
	user, err := i.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return i.IssueForUser(ctx, user, extra)
}

// IssueForUser is Issue for an already resolved user.
func (i *Issuer) IssueForUser(
	ctx context.Context,
	user *models.User,
	extra map[string]any,
) (*Result, error) {
	if !user.IsActive {
		return nil, ErrUserNotFound
	}

	roles, err := i.store.GetUserRoles(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("load roles: %w", err)
	}
	roleIDs := make([]int64, 0, len(roles))
	roleNames := make([]string, 0, len(roles))
	for _, r := range roles {
		roleIDs = append(roleIDs, r.ID)
		roleNames = append(roleNames, r.Name)
	}

	perms, err := i.store.GetPermissionsForRoles(ctx, roleIDs)
	if err != nil {
		return nil, fmt.Errorf("load permissions: %w", err)
	}
	permNames := make([]string, 0, len(perms))
	seen := make(map[string]bool, len(perms))
	for _, p := range perms {
		if !seen[p.Name] {
			seen[p.Name] = true
			permNames = append(permNames, p.Name)
		}
	}

	var primaryRole int64
	if primary, ok := models.PrimaryRole(roles); ok {
		primaryRole = primary.ID
	}

	now := i.now()
	expiresAt := now.Add(i.config.JWTExpiration)
	claims := jwt.MapClaims{
		"iss":            i.config.JWTIssuer,
		"aud":            i.config.JWTAudience,
		"exp":            expiresAt.Unix(),
		"iat":            now.Unix(),
		"nbf":            now.Unix(),
		"jti":            uuid.New().String(),
		ClaimSubject:     user.ID,
		ClaimName:        user.Username,
		ClaimLegacyID:    user.LegacyID,
		ClaimRole:        roleNames,
		ClaimPermission:  permNames,
		ClaimPrimaryRole: primaryRole,
		ClaimType:        TypeAccess,
	}
	for k, v := range extra {
		if reservedClaims[k] {
			continue
		}
		claims[k] = v
	}

	tokenString, err := i.sign(claims)
	if err != nil {
		return nil, err
	}

	return &Result{
		TokenString: tokenString,
		TokenType:   TokenTypeBearer,
		ExpiresAt:   expiresAt,
		Claims:      claims,
	}, nil
}

func (i *Issuer) sign(claims jwt.MapClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(i.key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}
	return tokenString, nil
}

// parse verifies tokenString and requires its typ claim to equal wantType.
// Structural problems are reported as ErrMalformedToken before any
// signature verification happens.
func (i *Issuer) parse(tokenString, wantType string, opts ...jwt.ParserOption) (jwt.MapClaims, error) {
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, jwt.MapClaims{}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	opts = append(opts,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.config.JWTIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	token, err := jwt.Parse(tokenString, func(*jwt.Token) (any, error) {
		return i.key, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if typ, _ := claims[ClaimType].(string); typ != wantType {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}

// Validate verifies an access token and decodes its claims.
func (i *Issuer) Validate(_ context.Context, tokenString string) (*ValidationResult, error) {
	claims, err := i.parse(tokenString, TypeAccess, jwt.WithAudience(i.config.JWTAudience))
	if err != nil {
		return nil, err
	}

	userID, _ := claims[ClaimSubject].(string)
	if userID == "" {
		return nil, ErrInvalidToken
	}
	username, _ := claims[ClaimName].(string)
	scopes, _ := claims[ClaimScope].(string)
	clientID, _ := claims[ClaimClientID].(string)

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, ErrInvalidToken
	}

	return &ValidationResult{
		UserID:      userID,
		Username:    username,
		LegacyID:    numberClaim(claims[ClaimLegacyID]),
		Roles:       stringsClaim(claims[ClaimRole]),
		Permissions: stringsClaim(claims[ClaimPermission]),
		PrimaryRole: numberClaim(claims[ClaimPrimaryRole]),
		Scopes:      scopes,
		ClientID:    clientID,
		ExpiresAt:   exp.Time,
		Claims:      claims,
	}, nil
}

// Name returns provider name for logging
func (i *Issuer) Name() string {
	return "local"
}

// numberClaim reads a JSON number claim; decoded JWTs carry float64.
func numberClaim(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	}
	return 0
}

func stringsClaim(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return []string{list}
	}
	return nil
}
