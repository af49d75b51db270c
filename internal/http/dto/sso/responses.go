package sso

// AuthorizeResult is the outcome of a successful authorize: the pieces the
// HTTP layer assembles into the final redirect URL.
type AuthorizeResult struct {
	Code        string
	State       string
	RedirectURI string
}

// LoginResponse finishes login and signup on the client side: the front end
// follows RedirectURL to deliver the code to its backend.
type LoginResponse struct {
	RedirectURL string `json:"redirect_url"`
}

// TokenResponse is the success shape of POST /sso/token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Scope       string `json:"scope,omitempty"`
}

// SessionUser is the identity summary nested in check and initiate
// responses.
type SessionUser struct {
	CoreUserID string `json:"core_user_id"`
	Email      string `json:"email"`
	Name       string `json:"name,omitempty"`
}

// CheckResponse is the shape of GET /sso/check and POST /sso/initiate.
type CheckResponse struct {
	HasSession bool         `json:"has_session"`
	User       *SessionUser `json:"user,omitempty"`
	ExpiresAt  int64        `json:"expires_at,omitempty"`
}

// LogoutResponse is the shape of POST /sso/logout.
type LogoutResponse struct {
	LoggedOut bool `json:"logged_out"`
}

// DiscoveryResponse is the shape of GET /sso/.well-known/configuration.
type DiscoveryResponse struct {
	Issuer                        string   `json:"issuer"`
	AuthorizationEndpoint         string   `json:"authorization_endpoint"`
	TokenEndpoint                 string   `json:"token_endpoint"`
	LogoutEndpoint                string   `json:"logout_endpoint"`
	CheckSessionEndpoint          string   `json:"check_session_endpoint"`
	ResponseTypesSupported        []string `json:"response_types_supported"`
	GrantTypesSupported           []string `json:"grant_types_supported"`
	CodeChallengeMethodsSupported []string `json:"code_challenge_methods_supported"`
	TokenSigningAlgValues         []string `json:"token_endpoint_auth_signing_alg_values_supported"`
}
