package services

import (
	"context"
	"testing"

	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientService_RegisterConfidential(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.clients.Register(ctx, CreateClientRequest{
		ClientID:     "dispatch",
		ClientName:   "  Dispatch  ",
		RedirectURIs: []string{"https://a.example.com/cb", "https://a.example.com/cb", " "},
		CreatedBy:    "admin-id",
	})
	require.NoError(t, err)
	assert.Equal(t, "dispatch", resp.ClientID)
	assert.Equal(t, "Dispatch", resp.ClientName)
	assert.Equal(t, "openid profile", resp.Scopes)
	assert.Equal(t, models.StringArray{"https://a.example.com/cb"}, resp.RedirectURIs)
	assert.Equal(t, models.ClientTypeConfidential, resp.ClientType)
	assert.False(t, resp.RequirePKCE)
	require.NotEmpty(t, resp.ClientSecretPlain)
	assert.NotEqual(t, resp.ClientSecretPlain, resp.ClientSecret)

	stored, err := env.clients.Get(ctx, "dispatch")
	require.NoError(t, err)
	assert.True(t, stored.ValidateClientSecret([]byte(resp.ClientSecretPlain)))

	_, err = env.clients.Register(ctx, CreateClientRequest{
		ClientID:     "dispatch",
		ClientName:   "Duplicate",
		RedirectURIs: []string{"https://a.example.com/cb"},
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestClientService_RegisterPublicForcesPKCE(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.clients.Register(context.Background(), CreateClientRequest{
		ClientName:   "Driver App",
		Scopes:       "roles openid",
		RedirectURIs: []string{"com.example.driver://callback"},
		ClientType:   models.ClientTypePublic,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ClientID)
	assert.Empty(t, resp.ClientSecretPlain)
	assert.True(t, resp.RequirePKCE)
	assert.Equal(t, "openid roles", resp.Scopes)
}

func TestClientService_RegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		req  CreateClientRequest
	}{
		{"missing name", CreateClientRequest{RedirectURIs: []string{"https://a.example.com/cb"}}},
		{"no redirect", CreateClientRequest{ClientName: "x"}},
		{"relative redirect", CreateClientRequest{ClientName: "x", RedirectURIs: []string{"/cb"}}},
		{"fragment redirect", CreateClientRequest{ClientName: "x", RedirectURIs: []string{"https://a.example.com/cb#f"}}},
		{"unknown scope", CreateClientRequest{
			ClientName: "x", Scopes: "openid admin", RedirectURIs: []string{"https://a.example.com/cb"},
		}},
		{"bad type", CreateClientRequest{
			ClientName: "x", ClientType: "hybrid", RedirectURIs: []string{"https://a.example.com/cb"},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.clients.Register(context.Background(), tt.req)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestClientService_UpdateAndDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	client := registerTestClient(t, env, models.ClientTypeConfidential, "openid")

	updated, err := env.clients.Update(ctx, client.ClientID, "admin-id", UpdateClientRequest{
		ClientName:   "Renamed",
		Scopes:       "openid email",
		RedirectURIs: []string{"https://b.example.com/cb"},
		IsActive:     false,
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.ClientName)
	assert.Equal(t, "email openid", updated.Scopes)

	stored, err := env.clients.Get(ctx, client.ClientID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
	assert.True(t, stored.AllowsRedirectURI("https://b.example.com/cb"))
	assert.False(t, stored.AllowsRedirectURI(testRedirectURI))

	_, err = env.clients.Update(ctx, "missing", "admin-id", UpdateClientRequest{
		ClientName:   "x",
		RedirectURIs: []string{"https://b.example.com/cb"},
	})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, env.clients.Delete(ctx, client.ClientID, "admin-id"))
	_, err = env.clients.Get(ctx, client.ClientID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, env.clients.Delete(ctx, client.ClientID, "admin-id"), ErrNotFound)
}

func TestClientService_RegenerateSecret(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	client := registerTestClient(t, env, models.ClientTypeConfidential, "openid")

	fresh, err := env.clients.RegenerateSecret(ctx, client.ClientID, "admin-id")
	require.NoError(t, err)
	assert.NotEqual(t, client.ClientSecretPlain, fresh)

	stored, err := env.clients.Get(ctx, client.ClientID)
	require.NoError(t, err)
	assert.True(t, stored.ValidateClientSecret([]byte(fresh)))
	assert.False(t, stored.ValidateClientSecret([]byte(client.ClientSecretPlain)))

	public := registerTestClient(t, env, models.ClientTypePublic, "openid")
	_, err = env.clients.RegenerateSecret(ctx, public.ClientID, "admin-id")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestClientService_List(t *testing.T) {
	env := newTestEnv(t)
	registerTestClient(t, env, models.ClientTypeConfidential, "openid")
	registerTestClient(t, env, models.ClientTypePublic, "openid")

	clients, err := env.clients.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, clients, 2)
}
