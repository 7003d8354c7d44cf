package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/core"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/models"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/store"

	"github.com/google/uuid"
)

const defaultClientScopes = "openid profile"

// ClientService is administrative CRUD over OIDC client registrations.
type ClientService struct {
	store        *store.Store
	auditService *AuditService
	metrics      core.Recorder
}

func NewClientService(s *store.Store, auditService *AuditService, m core.Recorder) *ClientService {
	return &ClientService{store: s, auditService: auditService, metrics: m}
}

type CreateClientRequest struct {
	ClientID     string   `json:"client_id"`
	ClientName   string   `json:"client_name"`
	Description  string   `json:"description"`
	Scopes       string   `json:"scope"`
	RedirectURIs []string `json:"redirect_uris"`
	ClientType   string   `json:"client_type"`
	RequirePKCE  bool     `json:"require_pkce"`
	CreatedBy    string   `json:"-"`
}

type UpdateClientRequest struct {
	ClientName   string   `json:"client_name"`
	Description  string   `json:"description"`
	Scopes       string   `json:"scope"`
	RedirectURIs []string `json:"redirect_uris"`
	RequirePKCE  bool     `json:"require_pkce"`
	IsActive     bool     `json:"is_active"`
}

// ClientResponse carries the plaintext secret, which is only available
// right after creation or rotation.
type ClientResponse struct {
	*models.OAuthApplication
	ClientSecretPlain string
}

func invalidClient(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}

func normalizeClientScopes(scopes string) (string, error) {
	if strings.TrimSpace(scopes) == "" {
		scopes = defaultClientScopes
	}
	canonical := canonicalScopes(scopes)
	for _, sc := range canonical {
		if !slices.Contains(SupportedScopes, sc) {
			return "", invalidClient("unsupported scope " + sc)
		}
	}
	return strings.Join(canonical, " "), nil
}

func normalizeRedirectURIs(uris []string) (models.StringArray, error) {
	out := make(models.StringArray, 0, len(uris))
	for _, raw := range uris {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" || u.Fragment != "" {
			return nil, invalidClient("redirect_uri must be an absolute URL without fragment: " + raw)
		}
		if !slices.Contains(out, raw) {
			out = append(out, raw)
		}
	}
	if len(out) == 0 {
		return nil, invalidClient("at least one redirect_uri is required")
	}
	return out, nil
}

// Register creates a client. Confidential clients get a generated secret
// that is returned once.
func (s *ClientService) Register(ctx context.Context, req CreateClientRequest) (*ClientResponse, error) {
	name := strings.TrimSpace(req.ClientName)
	if name == "" {
		return nil, invalidClient("client_name is required")
	}
	clientType := req.ClientType
	if clientType == "" {
		clientType = models.ClientTypeConfidential
	}
	if clientType != models.ClientTypeConfidential && clientType != models.ClientTypePublic {
		return nil, invalidClient("client_type must be confidential or public")
	}
	scopes, err := normalizeClientScopes(req.Scopes)
	if err != nil {
		return nil, err
	}
	redirectURIs, err := normalizeRedirectURIs(req.RedirectURIs)
	if err != nil {
		return nil, err
	}

	clientID := strings.TrimSpace(req.ClientID)
	if clientID == "" {
		clientID = uuid.New().String()
	} else if _, err := s.store.GetClient(ctx, clientID); err == nil {
		return nil, invalidClient("client_id already registered")
	}

	client := &models.OAuthApplication{
		ClientID:     clientID,
		ClientName:   name,
		Description:  strings.TrimSpace(req.Description),
		Scopes:       scopes,
		RedirectURIs: redirectURIs,
		ClientType:   clientType,
		RequirePKCE:  req.RequirePKCE || clientType == models.ClientTypePublic,
		IsActive:     true,
		CreatedBy:    req.CreatedBy,
	}

	var plain string
	if !client.IsPublic() {
		if plain, err = client.GenerateClientSecret(ctx); err != nil {
			return nil, fmt.Errorf("generate client secret: %w", err)
		}
	}

	if err := s.store.CreateClient(ctx, client); err != nil {
		s.metrics.RecordDatabaseQueryError("create_client")
		return nil, err
	}

	s.auditService.Log(ctx, AuditLogEntry{
		EventType:    models.EventClientCreated,
		ActorUserID:  req.CreatedBy,
		ResourceType: models.ResourceClient,
		ResourceID:   client.ClientID,
		ResourceName: client.ClientName,
		Action:       "OIDC client registered",
		Details: models.AuditDetails{
			"client_type":   client.ClientType,
			"scopes":        client.Scopes,
			"redirect_uris": client.RedirectURIs.Join(" "),
		},
		Success: true,
	})

	return &ClientResponse{OAuthApplication: client, ClientSecretPlain: plain}, nil
}

// Update replaces the mutable fields of clientID.
func (s *ClientService) Update(
	ctx context.Context,
	clientID, actorUserID string,
	req UpdateClientRequest,
) (*models.OAuthApplication, error) {
	name := strings.TrimSpace(req.ClientName)
	if name == "" {
		return nil, invalidClient("client_name is required")
	}
	scopes, err := normalizeClientScopes(req.Scopes)
	if err != nil {
		return nil, err
	}
	redirectURIs, err := normalizeRedirectURIs(req.RedirectURIs)
	if err != nil {
		return nil, err
	}

	client, err := s.Get(ctx, clientID)
	if err != nil {
		return nil, err
	}
	client.ClientName = name
	client.Description = strings.TrimSpace(req.Description)
	client.Scopes = scopes
	client.RedirectURIs = redirectURIs
	client.RequirePKCE = req.RequirePKCE || client.IsPublic()
	client.IsActive = req.IsActive

	if err := s.store.UpdateClient(ctx, client); err != nil {
		s.metrics.RecordDatabaseQueryError("update_client")
		return nil, err
	}

	s.auditService.Log(ctx, AuditLogEntry{
		EventType:    models.EventClientUpdated,
		ActorUserID:  actorUserID,
		ResourceType: models.ResourceClient,
		ResourceID:   client.ClientID,
		ResourceName: client.ClientName,
		Action:       "OIDC client updated",
		Details:      models.AuditDetails{"scopes": client.Scopes, "is_active": client.IsActive},
		Success:      true,
	})
	return client, nil
}

// Delete removes clientID and revokes its authorizations.
func (s *ClientService) Delete(ctx context.Context, clientID, actorUserID string) error {
	if err := s.store.DeleteClient(ctx, clientID); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	s.auditService.Log(ctx, AuditLogEntry{
		EventType:    models.EventClientDeleted,
		Severity:     models.SeverityWarning,
		ActorUserID:  actorUserID,
		ResourceType: models.ResourceClient,
		ResourceID:   clientID,
		Action:       "OIDC client deleted",
		Success:      true,
	})
	return nil
}

func (s *ClientService) List(ctx context.Context) ([]models.OAuthApplication, error) {
	return s.store.ListClients(ctx)
}

func (s *ClientService) Get(ctx context.Context, clientID string) (*models.OAuthApplication, error) {
	client, err := s.store.GetClient(ctx, clientID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return client, nil
}

// RegenerateSecret rotates a confidential client's secret.
func (s *ClientService) RegenerateSecret(ctx context.Context, clientID, actorUserID string) (string, error) {
	client, err := s.Get(ctx, clientID)
	if err != nil {
		return "", err
	}
	if client.IsPublic() {
		return "", invalidClient("public clients have no secret")
	}

	plain, err := client.GenerateClientSecret(ctx)
	if err != nil {
		return "", fmt.Errorf("generate client secret: %w", err)
	}
	if err := s.store.UpdateClient(ctx, client); err != nil {
		return "", err
	}

	s.auditService.Log(ctx, AuditLogEntry{
		EventType:    models.EventClientSecretRegenerated,
		Severity:     models.SeverityWarning,
		ActorUserID:  actorUserID,
		ResourceType: models.ResourceClient,
		ResourceID:   client.ClientID,
		ResourceName: client.ClientName,
		Action:       "OIDC client secret regenerated",
		Success:      true,
	})
	return plain, nil
}
