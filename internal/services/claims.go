package services

import (
	"slices"

	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/models"
)

// ClaimDestination is a bit set of the documents a claim is released into.
type ClaimDestination uint8

const (
	DestinationAccessToken ClaimDestination = 1 << iota
	DestinationIDToken
	DestinationUserInfo
)

type identityClaim struct {
	name         string
	value        any
	destinations ClaimDestination
}

// identityClaims builds the OIDC claims identity of user for the granted scopes.
func identityClaims(user *models.User, roles []models.Role, scopes []string) []identityClaim {
	everywhere := DestinationAccessToken | DestinationIDToken | DestinationUserInfo
	identity := DestinationIDToken | DestinationUserInfo

	claims := []identityClaim{{"sub", user.ID, identity}}

	if slices.Contains(scopes, ScopeProfile) {
		claims = append(claims,
			identityClaim{"name", user.DisplayName(), identity},
			identityClaim{"preferred_username", user.Username, everywhere},
		)
	}
	if slices.Contains(scopes, ScopeEmail) && user.Email != "" {
		claims = append(claims,
			identityClaim{"email", user.Email, everywhere},
			identityClaim{"email_verified", user.EmailVerified, identity},
		)
	}
	if slices.Contains(scopes, ScopePhone) && user.Phone != "" {
		claims = append(claims,
			identityClaim{"phone_number", user.Phone, identity},
			identityClaim{"phone_number_verified", user.PhoneVerified, identity},
		)
	}
	if slices.Contains(scopes, ScopeRoles) {
		names := make([]string, 0, len(roles))
		for _, r := range roles {
			names = append(names, r.Name)
		}
		claims = append(claims, identityClaim{"role", names, identity})
	}
	return claims
}

// claimsFor selects the claims released into dest.
func claimsFor(claims []identityClaim, dest ClaimDestination) map[string]any {
	out := make(map[string]any, len(claims))
	for _, c := range claims {
		if c.destinations&dest != 0 {
			out[c.name] = c.value
		}
	}
	return out
}

func supportedClaims() []string {
	return []string{
		"sub", "name", "preferred_username", "email", "email_verified",
		"phone_number", "phone_number_verified", "role",
	}
}
