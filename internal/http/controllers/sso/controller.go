// Package sso exposes the SSO flows over HTTP. Controllers parse and
// render; all decisions live in the service.
package sso

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	dto "github.com/velvetlabs/brandsso/internal/http/dto/sso"
	apperrors "github.com/velvetlabs/brandsso/internal/http/errors"
	ssoservice "github.com/velvetlabs/brandsso/internal/http/services/sso"
	"github.com/velvetlabs/brandsso/internal/session"
)

const maxBodyBytes = 1 << 20

type Controller struct {
	svc       *ssoservice.Service
	cookies   *session.CookieWriter
	issuerURL string
}

func NewController(svc *ssoservice.Service, cookies *session.CookieWriter, issuerURL string) *Controller {
	return &Controller{svc: svc, cookies: cookies, issuerURL: issuerURL}
}

func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return apperrors.InvalidRequest("malformed JSON body").WithInternal(err)
	}
	return nil
}

func prefersHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

// finishCredentialLogin sets the session cookie and hands the assembled
// redirect URL back: as a 303 for browsers, as JSON for fetch callers.
func (c *Controller) finishCredentialLogin(w http.ResponseWriter, r *http.Request, token string, res *dto.AuthorizeResult, status int) {
	http.SetCookie(w, c.cookies.Session(r, token))
	w.Header().Set("Cache-Control", "no-store")
	loc := ssoservice.SuccessRedirect(res)
	if prefersHTML(r) {
		http.Redirect(w, r, loc, http.StatusSeeOther)
		return
	}
	apperrors.WriteJSON(w, status, dto.LoginResponse{RedirectURL: loc})
}

// Login handles POST /sso/login.
func (c *Controller) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		apperrors.WriteError(w, r, err)
		return
	}
	token, res, err := c.svc.Login(r.Context(), req)
	if err != nil {
		apperrors.WriteError(w, r, err)
		return
	}
	c.finishCredentialLogin(w, r, token, res, http.StatusOK)
}

// Signup handles POST /sso/signup.
func (c *Controller) Signup(w http.ResponseWriter, r *http.Request) {
	var req dto.SignupRequest
	if err := decodeJSON(r, &req); err != nil {
		apperrors.WriteError(w, r, err)
		return
	}
	token, res, err := c.svc.Signup(r.Context(), req)
	if err != nil {
		apperrors.WriteError(w, r, err)
		return
	}
	c.finishCredentialLogin(w, r, token, res, http.StatusCreated)
}

// Initiate handles POST /sso/initiate: a brand backend opens a platform
// session for a user it authenticated through its own login.
func (c *Controller) Initiate(w http.ResponseWriter, r *http.Request) {
	var req dto.InitiateRequest
	if err := decodeJSON(r, &req); err != nil {
		apperrors.WriteError(w, r, err)
		return
	}
	token, res, err := c.svc.Initiate(r.Context(), req)
	if err != nil {
		apperrors.WriteError(w, r, err)
		return
	}
	http.SetCookie(w, c.cookies.Session(r, token))
	w.Header().Set("Cache-Control", "no-store")
	apperrors.WriteJSON(w, http.StatusOK, res)
}

// Authorize handles GET /sso/authorize, the browser redirect flow. Once the
// redirect URI is vetted, a missing session sends the browser back with
// sso_login_required and a tagged return URL; other vetted errors travel as
// OAuth query parameters. Before vetting, errors stay on this origin as
// JSON.
func (c *Controller) Authorize(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := dto.AuthorizeParams{
		ResponseType:        q.Get("response_type"),
		ClientID:            q.Get("client_id"),
		RedirectURI:         q.Get("redirect_uri"),
		BrandID:             q.Get("brand_id"),
		Scope:               q.Get("scope"),
		State:               q.Get("state"),
		CodeChallenge:       q.Get("code_challenge"),
		CodeChallengeMethod: q.Get("code_challenge_method"),
	}

	ac, res, err := c.svc.Authorize(r.Context(), session.FromRequest(r), params)
	if err != nil {
		var app *apperrors.AppError
		if ac != nil && errors.As(err, &app) {
			loc := ssoservice.ErrorRedirect(ac.Params.RedirectURI, ac.Params.State, app.Code, app.Description)
			if app.Code == apperrors.CodeLoginRequired {
				loc = ssoservice.LoginRedirect(ac.Params.RedirectURI, c.issuerURL+r.URL.RequestURI())
			}
			http.Redirect(w, r, loc, http.StatusFound)
			return
		}
		apperrors.WriteError(w, r, err)
		return
	}
	http.Redirect(w, r, ssoservice.SuccessRedirect(res), http.StatusFound)
}

// Token handles POST /sso/token. Brand backends send form bodies per OAuth
// 2.0; JSON is accepted for first-party callers.
func (c *Controller) Token(w http.ResponseWriter, r *http.Request) {
	var req dto.TokenRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := decodeJSON(r, &req); err != nil {
			apperrors.WriteError(w, r, err)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			apperrors.WriteError(w, r, apperrors.InvalidRequest("malformed form body").WithInternal(err))
			return
		}
		req = dto.TokenRequest{
			GrantType:    r.PostFormValue("grant_type"),
			Code:         r.PostFormValue("code"),
			RedirectURI:  r.PostFormValue("redirect_uri"),
			ClientID:     r.PostFormValue("client_id"),
			CodeVerifier: r.PostFormValue("code_verifier"),
		}
	}
	res, err := c.svc.Exchange(r.Context(), req)
	if err != nil {
		apperrors.WriteError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	apperrors.WriteJSON(w, http.StatusOK, res)
}

// Logout handles POST /sso/logout.
func (c *Controller) Logout(w http.ResponseWriter, r *http.Request) {
	if err := c.svc.Logout(r.Context(), session.FromRequest(r)); err != nil {
		apperrors.WriteError(w, r, err)
		return
	}
	http.SetCookie(w, c.cookies.Deletion(r))
	apperrors.WriteJSON(w, http.StatusOK, dto.LogoutResponse{LoggedOut: true})
}

// Check handles GET /sso/check.
func (c *Controller) Check(w http.ResponseWriter, r *http.Request) {
	res, err := c.svc.Check(r.Context(), session.FromRequest(r))
	if err != nil {
		apperrors.WriteError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	apperrors.WriteJSON(w, http.StatusOK, res)
}

// Discovery handles GET /sso/.well-known/configuration.
func (c *Controller) Discovery(w http.ResponseWriter, r *http.Request) {
	apperrors.WriteJSON(w, http.StatusOK, dto.DiscoveryResponse{
		Issuer:                        c.issuerURL,
		AuthorizationEndpoint:         c.issuerURL + "/sso/authorize",
		TokenEndpoint:                 c.issuerURL + "/sso/token",
		LogoutEndpoint:                c.issuerURL + "/sso/logout",
		CheckSessionEndpoint:          c.issuerURL + "/sso/check",
		ResponseTypesSupported:        []string{"code"},
		GrantTypesSupported:           []string{"authorization_code"},
		CodeChallengeMethodsSupported: []string{"S256"},
		TokenSigningAlgValues:         []string{"EdDSA"},
	})
}
