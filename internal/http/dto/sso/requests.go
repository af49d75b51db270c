// Package sso holds the wire shapes of the SSO endpoints.
package sso

// AuthorizeParams is the query of GET /sso/authorize and the inner payload
// of the JSON login/signup bodies.
type AuthorizeParams struct {
	ResponseType        string `json:"response_type"`
	ClientID            string `json:"client_id"`
	RedirectURI         string `json:"redirect_uri"`
	BrandID             string `json:"brand_id"`
	Scope               string `json:"scope"`
	State               string `json:"state"`
	CodeChallenge       string `json:"code_challenge"`
	CodeChallengeMethod string `json:"code_challenge_method"`
}

// LoginRequest is the body of POST /sso/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	AuthorizeParams
}

// SignupRequest is the body of POST /sso/signup.
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	AuthorizeParams
}

// InitiateRequest is the body of POST /sso/initiate: a brand that just
// authenticated a user through its own login asks for a platform session on
// that user's behalf. UserID may be a core identity id or a brand user id.
type InitiateRequest struct {
	UserID   string `json:"user_id"`
	ClientID string `json:"client_id"`
}

// TokenRequest is the body of POST /sso/token, form-encoded or JSON.
type TokenRequest struct {
	GrantType    string `json:"grant_type"`
	Code         string `json:"code"`
	RedirectURI  string `json:"redirect_uri"`
	ClientID     string `json:"client_id"`
	CodeVerifier string `json:"code_verifier"`
}
