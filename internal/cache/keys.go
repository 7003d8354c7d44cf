package cache

// Key builders for the ephemeral entries shared across instances. The formats
// are part of the wire contract with other deployments of the service.

// LoginSuccessKey holds the bearer token waiting for a polling QR device.
func LoginSuccessKey(deviceID string) string { return "login_success_" + deviceID }

// OIDCRequestKey holds an /connect/authorize request parked behind a login.
func OIDCRequestKey(requestID string) string { return "oidc_request_" + requestID }

// AuthCodeKey holds an issued authorization code until /connect/token redeems it.
func AuthCodeKey(code string) string { return "auth_code_" + code }

// QRBindingKey maps a direct-login QR token to its device binding.
func QRBindingKey(token string) string { return "qr_binding_" + token }

// WebAuthnRegistrationKey holds the registration ceremony session for a user.
func WebAuthnRegistrationKey(userID string) string { return "webauthn_reg_" + userID }

// WebAuthnLoginKey holds the assertion ceremony session for a username.
func WebAuthnLoginKey(username string) string { return "webauthn_login_" + username }

// WebAuthnTwoFactorKey holds the assertion ceremony session bound to a pending 2FA token.
func WebAuthnTwoFactorKey(tempToken string) string { return "webauthn_2fa_" + tempToken }

// QRSessionKey marks a signed session QR payload as still redeemable.
func QRSessionKey(jti string) string { return "qr_session_" + jti }
