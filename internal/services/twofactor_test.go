package services

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/models"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/store"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/token"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/util"

	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// addTestCredential stores an active WebAuthn credential for user.
func addTestCredential(t *testing.T, db *store.Store, user *models.User, rawID string) *models.WebAuthnCredential {
	t.Helper()
	encoded, err := json.Marshal(webauthn.Credential{
		ID:        []byte(rawID),
		PublicKey: []byte{0x01, 0x02, 0x03},
	})
	require.NoError(t, err)
	row := &models.WebAuthnCredential{
		UserID:         user.ID,
		CredentialID:   encodeCredentialID([]byte(rawID)),
		Name:           "key " + rawID,
		CredentialJSON: string(encoded),
		SignCount:      5,
		Active:         true,
	}
	require.NoError(t, db.CreateWebAuthnCredential(context.Background(), row))
	return row
}

func loginRequest(u *models.User) LoginRequest {
	return LoginRequest{
		Username:   u.Username,
		Password:   testPassword,
		DeviceInfo: "test-agent",
		IPAddress:  "127.0.0.1",
	}
}

func TestLogin_NoSecondFactorIssuesToken(t *testing.T) {
	env := newTestEnv(t)
	u := makeTestUser(t, env.store)
	ctx := context.Background()

	_, err := env.store.GetTwoFactorSettings(ctx, u.ID)
	require.ErrorIs(t, err, store.ErrRecordNotFound)

	result, err := env.twoFactor.Login(ctx, loginRequest(u))
	require.NoError(t, err)
	require.NotNil(t, result.Token)
	assert.False(t, result.RequiresTwoFactor)
	assert.Equal(t, u.ID, result.User.ID)

	claims, err := env.issuer.Validate(ctx, result.Token.TokenString)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, u.Username, claims.Username)
	assert.Equal(t, u.LegacyID, claims.LegacyID)
	assert.Contains(t, claims.Roles, store.DefaultRoleName)
	assert.Contains(t, claims.Permissions, "profile.read")

	// The default settings row is created lazily.
	settings, err := env.store.GetTwoFactorSettings(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, settings.TOTPEnabled)
	assert.False(t, settings.WebAuthnEnabled)
}

func TestLogin_ClaimsReflectRoleSnapshot(t *testing.T) {
	env := newTestEnv(t)
	u := makeTestUser(t, env.store)
	ctx := context.Background()
	require.NoError(t, env.store.AssignRole(ctx, u.ID, "cashier"))

	cashier, err := env.store.GetRoleByName(ctx, "cashier")
	require.NoError(t, err)

	result, err := env.twoFactor.Login(ctx, loginRequest(u))
	require.NoError(t, err)
	claims, err := env.issuer.Validate(ctx, result.Token.TokenString)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"user", "cashier"}, claims.Roles)
	assert.Contains(t, claims.Permissions, "tickets.sell")
	assert.Equal(t, cashier.ID, claims.PrimaryRole)
}

func TestLogin_WrongPassword(t *testing.T) {
	env := newTestEnv(t)
	u := makeTestUser(t, env.store)

	req := loginRequest(u)
	req.Password = "wrong"
	_, err := env.twoFactor.Login(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_TOTPFlow(t *testing.T) {
	env := newTestEnv(t)
	u := makeTestUser(t, env.store)
	ctx := context.Background()
	secret := enableTOTP(t, env, u)

	result, err := env.twoFactor.Login(ctx, loginRequest(u))
	require.NoError(t, err)
	assert.True(t, result.RequiresTwoFactor)
	assert.Equal(t, models.FactorTOTP, result.TwoFactorType)
	assert.Nil(t, result.Token)
	require.NotEmpty(t, result.TempToken)

	// Only the hash is persisted.
	_, err = env.store.GetPendingTwoFactorToken(ctx, result.TempToken)
	assert.ErrorIs(t, err, store.ErrRecordNotFound)

	_, err = env.twoFactor.VerifyTOTP(ctx, result.TempToken, "000000")
	assert.ErrorIs(t, err, ErrInvalidCode)

	// A wrong code leaves the pending token usable.
	code, err := totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)
	verified, err := env.twoFactor.VerifyTOTP(ctx, result.TempToken, code)
	require.NoError(t, err)
	require.NotNil(t, verified.Token)

	claims, err := env.issuer.Validate(ctx, verified.Token.TokenString)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)

	_, err = env.twoFactor.VerifyTOTP(ctx, result.TempToken, code)
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)
}

func TestVerifyTOTP_ConcurrentRedemption(t *testing.T) {
	env := newTestEnv(t)
	u := makeTestUser(t, env.store)
	ctx := context.Background()
	secret := enableTOTP(t, env, u)

	result, err := env.twoFactor.Login(ctx, loginRequest(u))
	require.NoError(t, err)
	code, err := totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)

	const attempts = 8
	var wg sync.WaitGroup
	var wins, losses atomic.Int32
	for range attempts {
		wg.Go(func() {
			_, err := env.twoFactor.VerifyTOTP(ctx, result.TempToken, code)
			switch {
			case err == nil:
				wins.Add(1)
			case assert.ErrorIs(t, err, ErrInvalidOrExpiredToken):
				losses.Add(1)
			}
		})
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	assert.Equal(t, int32(attempts-1), losses.Load())
}

func TestVerifyTOTP_ExpiredPendingToken(t *testing.T) {
	env := newTestEnv(t)
	u := makeTestUser(t, env.store)
	ctx := context.Background()
	secret := enableTOTP(t, env, u)

	result, err := env.twoFactor.Login(ctx, loginRequest(u))
	require.NoError(t, err)

	env.twoFactor.now = func() time.Time { return time.Now().Add(11 * time.Minute) }
	code, err := totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)
	_, err = env.twoFactor.VerifyTOTP(ctx, result.TempToken, code)
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)
}

func TestVerifyTOTP_UnknownToken(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.twoFactor.VerifyTOTP(context.Background(), "no-such-token", "123456")
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)
	_, err = env.twoFactor.VerifyTOTP(context.Background(), "", "123456")
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)
}

func TestLogin_SkipTwoFactor(t *testing.T) {
	env := newTestEnv(t)
	u := makeTestUser(t, env.store)
	ctx := context.Background()
	enableTOTP(t, env, u)

	req := loginRequest(u)
	req.SkipTwoFactor = true

	result, err := env.twoFactor.Login(ctx, req)
	require.NoError(t, err)
	assert.True(t, result.RequiresTwoFactor, "skip is ignored unless enabled in config")

	env.twoFactor.allowSkip = true
	result, err = env.twoFactor.Login(ctx, req)
	require.NoError(t, err)
	assert.False(t, result.RequiresTwoFactor)
	assert.NotNil(t, result.Token)
}

func TestLogin_WebAuthnWithoutCredentials(t *testing.T) {
	env := newTestEnv(t)
	u := makeTestUser(t, env.store)
	ctx := context.Background()

	_, err := env.store.EnsureTwoFactorSettings(ctx, u.ID)
	require.NoError(t, err)
	require.NoError(t, env.store.DB().Model(&models.UserTwoFactorSettings{}).
		Where("user_id = ?", u.ID).Update("webauthn_enabled", true).Error)

	_, err = env.twoFactor.Login(ctx, loginRequest(u))
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestLogin_WebAuthnChallenge(t *testing.T) {
	env := newTestEnv(t)
	u := makeTestUser(t, env.store)
	ctx := context.Background()
	cred := addTestCredential(t, env.store, u, "credential-one")

	result, err := env.twoFactor.Login(ctx, loginRequest(u))
	require.NoError(t, err)
	assert.True(t, result.RequiresTwoFactor)
	assert.Equal(t, models.FactorWebAuthn, result.TwoFactorType)
	require.NotNil(t, result.WebAuthnOptions)
	require.Len(t, result.WebAuthnOptions.Response.AllowedCredentials, 1)
	assert.Equal(t, cred.CredentialID,
		encodeCredentialID(result.WebAuthnOptions.Response.AllowedCredentials[0].CredentialID))

	// A malformed assertion burns the ceremony session but not the pending token.
	_, err = env.twoFactor.ValidateWebAuthn(ctx, result.TempToken, []byte(`{"id":"x"}`))
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = env.twoFactor.ValidateWebAuthn(ctx, result.TempToken, []byte(`{"id":"x"}`))
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)
	pending, err := env.store.GetPendingTwoFactorToken(ctx, util.SHA256Hex(result.TempToken))
	require.NoError(t, err)
	assert.False(t, pending.Used)

	// The TOTP endpoint does not accept a WebAuthn pending token.
	_, err = env.twoFactor.VerifyTOTP(ctx, result.TempToken, "123456")
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)
}

func TestTwoFactorStatus(t *testing.T) {
	env := newTestEnv(t)
	u := makeTestUser(t, env.store)
	ctx := context.Background()

	status, err := env.twoFactor.Status(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, TwoFactorStatus{}, *status)

	enableTOTP(t, env, u)
	addTestCredential(t, env.store, u, "credential-one")
	addTestCredential(t, env.store, u, "credential-two")

	status, err = env.twoFactor.Status(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, status.TOTPEnabled)
	assert.True(t, status.WebAuthnEnabled)
	assert.Equal(t, 2, status.WebAuthnCredentials)
}

func TestSessionIssuer_TokenTypeIsBearer(t *testing.T) {
	env := newTestEnv(t)
	u := makeTestUser(t, env.store)

	tok, err := env.sessions.Issue(context.Background(), u, FlowPassword, nil)
	require.NoError(t, err)
	assert.Equal(t, token.TokenTypeBearer, tok.TokenType)
}
