package services

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/cache"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/mocks"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestQR_DirectLoginDeliveredOnce(t *testing.T) {
	env := newTestEnv(t)
	scanner := makeTestUser(t, env.store)
	ctx := context.Background()

	qr, err := env.qr.GenerateDirectLoginQRCode(ctx, "", "kiosk")
	require.NoError(t, err)
	assert.NotEmpty(t, qr.DeviceID)
	assert.True(t, strings.HasPrefix(qr.QRCode, "data:image/png;base64,"))

	raw, err := url.Parse(qr.RawData)
	require.NoError(t, err)
	assert.Equal(t, "/qr/direct/login", raw.Path)
	assert.Equal(t, qr.Token, raw.Query().Get("token"))
	assert.Equal(t, "kiosk", raw.Query().Get("deviceType"))

	// Nothing to collect before the scan.
	result, ok, err := env.qr.CheckDirectLoginStatus(ctx, qr.DeviceID)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, result)

	binding, err := env.qr.CompleteDirectLogin(ctx, scanner, qr.Token, "kiosk")
	require.NoError(t, err)
	assert.Equal(t, qr.DeviceID, binding.DeviceID)

	result, ok, err = env.qr.CheckDirectLoginStatus(ctx, qr.DeviceID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, scanner.ID, result.UserID)
	claims, err := env.issuer.Validate(ctx, result.Token)
	require.NoError(t, err)
	assert.Equal(t, scanner.ID, claims.UserID)

	_, ok, err = env.qr.CheckDirectLoginStatus(ctx, qr.DeviceID)
	require.NoError(t, err)
	assert.False(t, ok, "a parked login is delivered once")

	// The scanned token cannot be replayed.
	_, err = env.qr.CompleteDirectLogin(ctx, scanner, qr.Token, "kiosk")
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)
}

func TestQR_ConcurrentPollDeliversOnce(t *testing.T) {
	env := newTestEnv(t)
	scanner := makeTestUser(t, env.store)
	ctx := context.Background()

	qr, err := env.qr.GenerateDirectLoginQRCode(ctx, "", "tablet")
	require.NoError(t, err)
	_, err = env.qr.CompleteDirectLogin(ctx, scanner, qr.Token, "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	var delivered atomic.Int32
	for range 16 {
		wg.Go(func() {
			_, ok, err := env.qr.CheckDirectLoginStatus(ctx, qr.DeviceID)
			assert.NoError(t, err)
			if ok {
				delivered.Add(1)
			}
		})
	}
	wg.Wait()
	assert.Equal(t, int32(1), delivered.Load())
}

func TestQR_DirectLoginRestrictedToUsername(t *testing.T) {
	env := newTestEnv(t)
	owner := makeTestUser(t, env.store)
	other := makeTestUser(t, env.store)
	ctx := context.Background()

	qr, err := env.qr.GenerateDirectLoginQRCode(ctx, owner.Username, "kiosk")
	require.NoError(t, err)

	_, err = env.qr.CompleteDirectLogin(ctx, other, qr.Token, "kiosk")
	assert.ErrorIs(t, err, ErrForbidden)

	_, ok, err := env.qr.CheckDirectLoginStatus(ctx, qr.DeviceID)
	require.NoError(t, err)
	assert.False(t, ok)

	// The foreign scan must not burn the code.
	binding, err := env.qr.CompleteDirectLogin(ctx, owner, qr.Token, "kiosk")
	require.NoError(t, err)
	assert.Equal(t, qr.DeviceID, binding.DeviceID)

	result, ok, err := env.qr.CheckDirectLoginStatus(ctx, qr.DeviceID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, owner.ID, result.UserID)
	assert.NotEmpty(t, result.Token)
}

func TestQR_DirectLoginRestoresBindingOnDeliveryFailure(t *testing.T) {
	env := newTestEnv(t)
	scanner := makeTestUser(t, env.store)
	ctx := context.Background()

	qr, err := env.qr.GenerateDirectLoginQRCode(ctx, "", "kiosk")
	require.NoError(t, err)

	healthy := env.qr.results
	broken := mocks.NewMockCache[models.QRLoginResult](gomock.NewController(t))
	broken.EXPECT().
		Set(gomock.Any(), cache.LoginSuccessKey(qr.DeviceID), gomock.Any(), gomock.Any()).
		Return(errors.New("connection reset"))
	env.qr.results = broken

	_, err = env.qr.CompleteDirectLogin(ctx, scanner, qr.Token, "kiosk")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidOrExpiredToken)

	_, err = env.qr.ValidateDirectLoginToken(ctx, qr.Token, "kiosk")
	require.NoError(t, err, "binding is put back after a failed delivery")

	env.qr.results = healthy
	_, err = env.qr.CompleteDirectLogin(ctx, scanner, qr.Token, "kiosk")
	require.NoError(t, err)
	_, ok, err := env.qr.CheckDirectLoginStatus(ctx, qr.DeviceID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestQR_DirectLoginDeviceMismatch(t *testing.T) {
	env := newTestEnv(t)
	scanner := makeTestUser(t, env.store)
	ctx := context.Background()

	qr, err := env.qr.GenerateDirectLoginQRCode(ctx, "", "kiosk")
	require.NoError(t, err)
	_, err = env.qr.CompleteDirectLogin(ctx, scanner, qr.Token, "phone")
	assert.ErrorIs(t, err, ErrQRBindingInvalid)

	_, err = env.qr.CompleteDirectLogin(ctx, scanner, qr.Token, "kiosk")
	assert.NoError(t, err)
}

func TestQR_DirectLoginExpired(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	qr, err := env.qr.GenerateDirectLoginQRCode(ctx, "", "kiosk")
	require.NoError(t, err)

	env.qr.now = func() time.Time { return time.Now().Add(6 * time.Minute) }
	_, err = env.qr.ValidateDirectLoginToken(ctx, qr.Token, "kiosk")
	assert.ErrorIs(t, err, ErrQRBindingInvalid)
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)
}

func TestQR_GenerateDirectRequiresDeviceType(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.qr.GenerateDirectLoginQRCode(context.Background(), "", "  ")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, _, err = env.qr.CheckDirectLoginStatus(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestQR_SessionCodeSingleUse(t *testing.T) {
	env := newTestEnv(t)
	u := makeTestUser(t, env.store)
	ctx := context.Background()

	qr, err := env.qr.GenerateQRCode(ctx, u)
	require.NoError(t, err)
	assert.True(t, qr.ExpiresAt.After(time.Now()))

	// The payload is not a bearer token.
	_, err = env.issuer.Validate(ctx, qr.Token)
	assert.Error(t, err)

	_, err = env.qr.AuthenticateDirectQR(ctx, "someone-else", qr.Token)
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)

	result, err := env.qr.AuthenticateDirectQR(ctx, strings.ToUpper(u.Username), qr.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, result.User.ID)

	_, err = env.qr.AuthenticateDirectQR(ctx, u.Username, qr.Token)
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)
}

func TestQR_SessionCodeTampered(t *testing.T) {
	env := newTestEnv(t)
	u := makeTestUser(t, env.store)
	ctx := context.Background()

	qr, err := env.qr.GenerateQRCode(ctx, u)
	require.NoError(t, err)

	_, err = env.qr.AuthenticateDirectQR(ctx, u.Username, qr.Token+"x")
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)
}

func TestQR_BindingKeyIsToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	qr, err := env.qr.GenerateDirectLoginQRCode(ctx, "alice", "kiosk")
	require.NoError(t, err)

	binding, err := env.bindings.Get(ctx, cache.QRBindingKey(qr.Token))
	require.NoError(t, err)
	assert.Equal(t, "alice", binding.Username)
	assert.Equal(t, qr.DeviceID, binding.DeviceID)
}
