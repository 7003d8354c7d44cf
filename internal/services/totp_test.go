package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/models"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/store"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// enableTOTP runs setup and enable for user and returns the active secret.
func enableTOTP(t *testing.T, env *testEnv, user *models.User) string {
	t.Helper()
	setup, err := env.totp.Setup(context.Background(), user)
	require.NoError(t, err)
	code, err := totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, env.totp.Enable(context.Background(), user.ID, code, setup.Secret))
	return setup.Secret
}

func TestTOTP_Setup(t *testing.T) {
	env := newTestEnv(t)
	u := makeTestUser(t, env.store)

	setup, err := env.totp.Setup(context.Background(), u)
	require.NoError(t, err)
	assert.NotEmpty(t, setup.Secret)
	assert.True(t, strings.HasPrefix(setup.ProvisioningURI, "otpauth://totp/"))
	assert.Contains(t, setup.ProvisioningURI, "issuer=FleetAuth")
	assert.True(t, strings.HasPrefix(setup.QRCode, "data:image/png;base64,"))

	// Setup alone does not turn TOTP on.
	_, err = env.store.GetActiveTOTPSecret(context.Background(), u.ID)
	assert.ErrorIs(t, err, store.ErrRecordNotFound)
}

func TestTOTP_VerifyCodeWindow(t *testing.T) {
	env := newTestEnv(t)
	u := makeTestUser(t, env.store)
	setup, err := env.totp.Setup(context.Background(), u)
	require.NoError(t, err)

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	code, err := totp.GenerateCode(setup.Secret, at)
	require.NoError(t, err)

	assert.True(t, env.totp.VerifyCodeAt(setup.Secret, code, at))
	assert.True(t, env.totp.VerifyCodeAt(setup.Secret, code, at.Add(30*time.Second)), "one step of skew")
	assert.False(t, env.totp.VerifyCodeAt(setup.Secret, code, at.Add(2*time.Minute)), "outside window")
	assert.False(t, env.totp.VerifyCodeAt(setup.Secret, "000000x", at))
	assert.False(t, env.totp.VerifyCodeAt(setup.Secret, "", at))

	// Pure: checking does not change anything.
	assert.True(t, env.totp.VerifyCodeAt(setup.Secret, code, at))
}

func TestTOTP_EnableRejectsWrongCode(t *testing.T) {
	env := newTestEnv(t)
	u := makeTestUser(t, env.store)
	setup, err := env.totp.Setup(context.Background(), u)
	require.NoError(t, err)

	err = env.totp.Enable(context.Background(), u.ID, "123456", setup.Secret+"A")
	assert.ErrorIs(t, err, ErrInvalidCode)

	_, err = env.store.GetActiveTOTPSecret(context.Background(), u.ID)
	assert.ErrorIs(t, err, store.ErrRecordNotFound)
}

func TestTOTP_EnableReplacesPreviousSecret(t *testing.T) {
	env := newTestEnv(t)
	u := makeTestUser(t, env.store)
	ctx := context.Background()

	first := enableTOTP(t, env, u)
	second := enableTOTP(t, env, u)
	require.NotEqual(t, first, second)

	active, err := env.store.GetActiveTOTPSecret(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, second, active.Secret)

	var count int64
	require.NoError(t, env.store.DB().Model(&models.TOTPSecret{}).
		Where("user_id = ? AND active = ?", u.ID, true).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	settings, err := env.store.GetTwoFactorSettings(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, settings.TOTPEnabled)
}

func TestTOTP_Disable(t *testing.T) {
	env := newTestEnv(t)
	u := makeTestUser(t, env.store)
	ctx := context.Background()
	enableTOTP(t, env, u)

	require.NoError(t, env.totp.Disable(ctx, u.ID))

	err := env.totp.VerifyUserCode(ctx, u.ID, "123456")
	assert.ErrorIs(t, err, ErrNoSecondFactorConfigured)

	settings, err := env.store.GetTwoFactorSettings(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, settings.TOTPEnabled)
}

func TestTOTP_VerifyUserCode(t *testing.T) {
	env := newTestEnv(t)
	u := makeTestUser(t, env.store)
	secret := enableTOTP(t, env, u)

	code, err := totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)
	assert.NoError(t, env.totp.VerifyUserCode(context.Background(), u.ID, code))
	assert.ErrorIs(t, env.totp.VerifyUserCode(context.Background(), u.ID, "abcdef"), ErrInvalidCode)
}
