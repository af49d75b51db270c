package sso

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velvetlabs/brandsso/internal/brands"
	"github.com/velvetlabs/brandsso/internal/clients"
	"github.com/velvetlabs/brandsso/internal/domain/repository"
	dto "github.com/velvetlabs/brandsso/internal/http/dto/sso"
	apperrors "github.com/velvetlabs/brandsso/internal/http/errors"
	"github.com/velvetlabs/brandsso/internal/jwt"
	"github.com/velvetlabs/brandsso/internal/security/password"
	"github.com/velvetlabs/brandsso/internal/security/pkce"
	"github.com/velvetlabs/brandsso/internal/security/tokens"
	"github.com/velvetlabs/brandsso/internal/session"
	"github.com/velvetlabs/brandsso/internal/store/memory"
)

const (
	testVerifier = "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	litRedirect  = "https://lit.acme.com/auth/callback"
	playRedirect = "https://play.acme.com/auth/callback"
)

type fixture struct {
	svc      *Service
	store    *memory.Store
	registry *clients.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	d, err := brands.NewDirectory("acme.com", "lit", []brands.Brand{
		{ID: "lit", Code: "LIT", Origins: []string{"https://lit.acme.com"}},
		{ID: "play", Code: "PLAY", Origins: []string{"https://play.acme.com"}},
	})
	require.NoError(t, err)

	store := memory.New()
	keys, err := jwt.LoadOrGenerateKey("")
	require.NoError(t, err)

	registry := clients.NewRegistry(store.Clients(), d)
	svc := NewService(Config{CodeTTL: time.Minute},
		store,
		registry,
		d,
		session.NewManager(store.Sessions(), []byte("test-key"), time.Hour),
		jwt.NewIssuer("https://sso.acme.com", keys, time.Hour))
	return &fixture{svc: svc, store: store, registry: registry}
}

func authParams(brandID, redirect string) dto.AuthorizeParams {
	return dto.AuthorizeParams{
		ResponseType:        "code",
		BrandID:             brandID,
		RedirectURI:         redirect,
		State:               "xyz",
		Scope:               "profile",
		CodeChallenge:       pkce.Challenge(testVerifier),
		CodeChallengeMethod: "S256",
	}
}

func appCode(t *testing.T, err error) apperrors.Code {
	t.Helper()
	var app *apperrors.AppError
	require.ErrorAs(t, err, &app)
	return app.Code
}

func (f *fixture) exchange(t *testing.T, ctx context.Context, code, redirect, verifier string) (*dto.TokenResponse, error) {
	t.Helper()
	return f.svc.Exchange(ctx, dto.TokenRequest{
		GrantType:    "authorization_code",
		Code:         code,
		RedirectURI:  redirect,
		ClientID:     clients.DefaultClientID,
		CodeVerifier: verifier,
	})
}

func TestSignupThenExchange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	token, res, err := f.svc.Signup(ctx, dto.SignupRequest{
		Email:           "ada@example.com",
		Password:        "hunter22",
		Name:            "Ada",
		AuthorizeParams: authParams("lit", litRedirect),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "xyz", res.State)
	assert.Equal(t, litRedirect, res.RedirectURI)

	tok, err := f.exchange(t, ctx, res.Code, litRedirect, testVerifier)
	require.NoError(t, err)
	assert.Equal(t, "Bearer", tok.TokenType)
	assert.Equal(t, "profile", tok.Scope)
	assert.InDelta(t, 3600, tok.ExpiresIn, 5)
}

func TestCrossBrandIdentity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Sign up on lit.
	sessionToken, res, err := f.svc.Signup(ctx, dto.SignupRequest{
		Email:           "ada@example.com",
		Password:        "hunter22",
		AuthorizeParams: authParams("lit", litRedirect),
	})
	require.NoError(t, err)
	litTok, err := f.exchange(t, ctx, res.Code, litRedirect, testVerifier)
	require.NoError(t, err)

	// Same session, authorize on play without credentials.
	_, res2, err := f.svc.Authorize(ctx, sessionToken, authParams("play", playRedirect))
	require.NoError(t, err)
	playTok, err := f.exchange(t, ctx, res2.Code, playRedirect, testVerifier)
	require.NoError(t, err)

	litClaims := parseClaims(t, f, litTok.AccessToken)
	playClaims := parseClaims(t, f, playTok.AccessToken)

	assert.Equal(t, litClaims["cid"], playClaims["cid"], "one core identity across brands")
	assert.NotEqual(t, litClaims["sub"], playClaims["sub"], "distinct brand users")
	assert.Equal(t, "lit", litClaims["brand_id"])
	assert.Equal(t, "play", playClaims["brand_id"])
	assert.Equal(t, "LIT", litClaims["brand_code"])
}

func parseClaims(t *testing.T, f *fixture, raw string) map[string]any {
	t.Helper()
	claims, err := f.svc.issuer.Parse(raw)
	require.NoError(t, err)
	return claims
}

func TestLoginWrongPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.svc.Signup(ctx, dto.SignupRequest{
		Email:           "ada@example.com",
		Password:        "hunter22",
		AuthorizeParams: authParams("lit", litRedirect),
	})
	require.NoError(t, err)

	_, _, err = f.svc.Login(ctx, dto.LoginRequest{
		Email:           "ada@example.com",
		Password:        "wrong",
		AuthorizeParams: authParams("lit", litRedirect),
	})
	assert.Equal(t, apperrors.CodeInvalidGrant, appCode(t, err))

	_, _, err = f.svc.Login(ctx, dto.LoginRequest{
		Email:           "nobody@example.com",
		Password:        "hunter22",
		AuthorizeParams: authParams("lit", litRedirect),
	})
	assert.Equal(t, apperrors.CodeInvalidGrant, appCode(t, err))
}

func TestSignupExistingAccountActsAsLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.svc.Signup(ctx, dto.SignupRequest{
		Email:           "ada@example.com",
		Password:        "hunter22",
		AuthorizeParams: authParams("lit", litRedirect),
	})
	require.NoError(t, err)

	// Same password: double submit behaves as a login.
	_, res, err := f.svc.Signup(ctx, dto.SignupRequest{
		Email:           "ada@example.com",
		Password:        "hunter22",
		AuthorizeParams: authParams("play", playRedirect),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Code)

	// Different password: rejected.
	_, _, err = f.svc.Signup(ctx, dto.SignupRequest{
		Email:           "ada@example.com",
		Password:        "other",
		AuthorizeParams: authParams("lit", litRedirect),
	})
	assert.Equal(t, apperrors.CodeInvalidGrant, appCode(t, err))
}

func TestLegacyBrandAccountMigration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	hash, err := password.Hash("legacy-pass")
	require.NoError(t, err)
	legacyID := f.store.SeedBrandUser(repository.BrandUser{
		BrandID:            "lit",
		Email:              "old@example.com",
		Role:               "admin",
		Credits:            500,
		LegacyPasswordHash: &hash,
	})

	_, res, err := f.svc.Login(ctx, dto.LoginRequest{
		Email:           "old@example.com",
		Password:        "legacy-pass",
		AuthorizeParams: authParams("lit", litRedirect),
	})
	require.NoError(t, err)

	tok, err := f.exchange(t, ctx, res.Code, litRedirect, testVerifier)
	require.NoError(t, err)
	claims := parseClaims(t, f, tok.AccessToken)

	// The legacy row was adopted, not re-provisioned: role and id survive.
	assert.Equal(t, legacyID, claims["sub"])
	assert.Equal(t, "admin", claims["role"])

	adopted, err := f.store.BrandUsers().GetByID(ctx, legacyID)
	require.NoError(t, err)
	require.NotNil(t, adopted.CoreUserID)
	assert.Equal(t, claims["cid"], *adopted.CoreUserID)
}

func TestCodeIsSingleUse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, res, err := f.svc.Signup(ctx, dto.SignupRequest{
		Email:           "ada@example.com",
		Password:        "hunter22",
		AuthorizeParams: authParams("lit", litRedirect),
	})
	require.NoError(t, err)

	_, err = f.exchange(t, ctx, res.Code, litRedirect, testVerifier)
	require.NoError(t, err)

	_, err = f.exchange(t, ctx, res.Code, litRedirect, testVerifier)
	assert.Equal(t, apperrors.CodeInvalidGrant, appCode(t, err))
}

func TestExpiredCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	core, err := f.store.CoreUsers().Create(ctx, repository.CreateCoreUserInput{Email: "ada@example.com"})
	require.NoError(t, err)

	// A code issued 61 seconds ago with the default 60s lifetime.
	_, err = f.store.AuthCodes().Create(ctx, repository.CreateAuthCodeInput{
		CodeHash:    tokens.SHA256Base64URL("stale-code"),
		ClientID:    clients.DefaultClientID,
		BrandID:     "lit",
		CoreUserID:  core.ID,
		RedirectURI: litRedirect,
		ExpiresAt:   time.Now().UTC().Add(-time.Second),
	})
	require.NoError(t, err)

	_, err = f.exchange(t, ctx, "stale-code", litRedirect, "")
	assert.Equal(t, apperrors.CodeInvalidGrant, appCode(t, err))
}

func TestExchangeVerifierMismatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, res, err := f.svc.Signup(ctx, dto.SignupRequest{
		Email:           "ada@example.com",
		Password:        "hunter22",
		AuthorizeParams: authParams("lit", litRedirect),
	})
	require.NoError(t, err)

	_, err = f.exchange(t, ctx, res.Code, litRedirect, "some-other-verifier-value-42characters-x")
	assert.Equal(t, apperrors.CodeInvalidGrant, appCode(t, err))

	// The failed attempt burned the code.
	_, err = f.exchange(t, ctx, res.Code, litRedirect, testVerifier)
	assert.Equal(t, apperrors.CodeInvalidGrant, appCode(t, err))
}

func TestExchangeRedirectMismatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, res, err := f.svc.Signup(ctx, dto.SignupRequest{
		Email:           "ada@example.com",
		Password:        "hunter22",
		AuthorizeParams: authParams("lit", litRedirect),
	})
	require.NoError(t, err)

	_, err = f.exchange(t, ctx, res.Code, playRedirect, testVerifier)
	assert.Equal(t, apperrors.CodeInvalidGrant, appCode(t, err))
}

func TestExchangeWrongGrantType(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Exchange(context.Background(), dto.TokenRequest{GrantType: "client_credentials"})
	assert.Equal(t, apperrors.CodeUnsupportedGrantType, appCode(t, err))
}

func TestAuthorizeRequiresSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ac, _, err := f.svc.Authorize(ctx, "", authParams("lit", litRedirect))
	assert.Equal(t, apperrors.CodeLoginRequired, appCode(t, err))
	require.NotNil(t, ac, "vetted context must come back so the error can be redirected")
	assert.Equal(t, litRedirect, ac.Params.RedirectURI)
}

func TestAuthorizeWithSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sessionToken, _, err := f.svc.Signup(ctx, dto.SignupRequest{
		Email:           "ada@example.com",
		Password:        "hunter22",
		AuthorizeParams: authParams("lit", litRedirect),
	})
	require.NoError(t, err)

	_, res, err := f.svc.Authorize(ctx, sessionToken, authParams("play", playRedirect))
	require.NoError(t, err)
	assert.NotEmpty(t, res.Code)
	assert.Equal(t, "xyz", res.State)
}

func TestValidateAuthorizeRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := authParams("lit", "https://evil.com/callback")
	_, err := f.svc.ValidateAuthorize(ctx, p)
	assert.Equal(t, apperrors.CodeInvalidRedirectURI, appCode(t, err))

	p = authParams("lit", litRedirect)
	p.ResponseType = "token"
	_, err = f.svc.ValidateAuthorize(ctx, p)
	assert.Equal(t, apperrors.CodeUnsupportedResponseType, appCode(t, err))

	p = authParams("lit", litRedirect)
	p.CodeChallenge = ""
	_, err = f.svc.ValidateAuthorize(ctx, p)
	assert.Equal(t, apperrors.CodeInvalidRequest, appCode(t, err))

	p = authParams("lit", litRedirect)
	p.CodeChallengeMethod = "plain"
	_, err = f.svc.ValidateAuthorize(ctx, p)
	assert.Equal(t, apperrors.CodeInvalidRequest, appCode(t, err))

	p = authParams("ghost", litRedirect)
	_, err = f.svc.ValidateAuthorize(ctx, p)
	assert.Equal(t, apperrors.CodeInvalidRequest, appCode(t, err))

	p = authParams("lit", litRedirect)
	p.ClientID = "rogue"
	_, err = f.svc.ValidateAuthorize(ctx, p)
	assert.Equal(t, apperrors.CodeInvalidClient, appCode(t, err))
}

func TestCheckAndLogout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sessionToken, _, err := f.svc.Signup(ctx, dto.SignupRequest{
		Email:           "ada@example.com",
		Password:        "hunter22",
		AuthorizeParams: authParams("lit", litRedirect),
	})
	require.NoError(t, err)

	res, err := f.svc.Check(ctx, sessionToken)
	require.NoError(t, err)
	assert.True(t, res.HasSession)
	require.NotNil(t, res.User)
	assert.Equal(t, "ada@example.com", res.User.Email)

	require.NoError(t, f.svc.Logout(ctx, sessionToken))

	res, err = f.svc.Check(ctx, sessionToken)
	require.NoError(t, err)
	assert.False(t, res.HasSession)
	assert.Nil(t, res.User)

	// Logout is idempotent.
	assert.NoError(t, f.svc.Logout(ctx, sessionToken))
	assert.NoError(t, f.svc.Logout(ctx, ""))
}

func TestErrorRedirectShape(t *testing.T) {
	loc := ErrorRedirect(litRedirect, "xyz", apperrors.CodeServerError, "internal error")
	assert.Contains(t, loc, "error=server_error")
	assert.Contains(t, loc, "state=xyz")
	assert.NotContains(t, loc, "code=")
}

func TestLoginRedirectShape(t *testing.T) {
	returnURL := "https://sso.acme.com/sso/authorize?state=xyz"
	loc, err := url.Parse(LoginRedirect(litRedirect, returnURL))
	require.NoError(t, err)
	assert.Equal(t, "lit.acme.com", loc.Host)
	assert.Equal(t, "true", loc.Query().Get("sso_login_required"))
	assert.Equal(t, returnURL, loc.Query().Get("sso_return_url"))
	assert.Empty(t, loc.Query().Get("code"))
}

func TestInitiateOpensSessionForCoreUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.svc.Signup(ctx, dto.SignupRequest{
		Email:           "ada@example.com",
		Password:        "hunter22",
		AuthorizeParams: authParams("lit", litRedirect),
	})
	require.NoError(t, err)
	core, err := f.store.CoreUsers().GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)

	token, res, err := f.svc.Initiate(ctx, dto.InitiateRequest{UserID: core.ID})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, res.HasSession)
	require.NotNil(t, res.User)
	assert.Equal(t, core.ID, res.User.CoreUserID)

	// The token it returned validates like any login session.
	check, err := f.svc.Check(ctx, token)
	require.NoError(t, err)
	assert.True(t, check.HasSession)
}

func TestInitiateAdoptsLegacyBrandUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	hash, err := password.Hash("legacy-pass")
	require.NoError(t, err)
	legacyID := f.store.SeedBrandUser(repository.BrandUser{
		BrandID:            "lit",
		Email:              "old@example.com",
		Role:               "admin",
		LegacyPasswordHash: &hash,
	})

	token, res, err := f.svc.Initiate(ctx, dto.InitiateRequest{UserID: legacyID})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	require.NotNil(t, res.User)
	assert.Equal(t, "old@example.com", res.User.Email)

	adopted, err := f.store.BrandUsers().GetByID(ctx, legacyID)
	require.NoError(t, err)
	require.NotNil(t, adopted.CoreUserID)
	assert.Equal(t, res.User.CoreUserID, *adopted.CoreUserID)
}

func TestInitiateUnknownUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.svc.Initiate(ctx, dto.InitiateRequest{UserID: "no-such-user"})
	assert.Equal(t, apperrors.CodeInvalidGrant, appCode(t, err))

	_, _, err = f.svc.Initiate(ctx, dto.InitiateRequest{})
	assert.Equal(t, apperrors.CodeInvalidRequest, appCode(t, err))
}

func TestExchangeDeactivatedClient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	partner := &repository.Client{
		ID:           "partner",
		BrandID:      "lit",
		RedirectURIs: []string{litRedirect},
		RequirePKCE:  true,
		Active:       true,
	}
	require.NoError(t, f.store.Clients().Upsert(ctx, partner))

	p := authParams("lit", litRedirect)
	p.ClientID = "partner"
	_, res, err := f.svc.Signup(ctx, dto.SignupRequest{
		Email:           "ada@example.com",
		Password:        "hunter22",
		AuthorizeParams: p,
	})
	require.NoError(t, err)

	// Deactivated between issuance and exchange.
	partner.Active = false
	require.NoError(t, f.store.Clients().Upsert(ctx, partner))
	f.registry.Invalidate("partner")

	_, err = f.svc.Exchange(ctx, dto.TokenRequest{
		GrantType:    "authorization_code",
		Code:         res.Code,
		RedirectURI:  litRedirect,
		ClientID:     "partner",
		CodeVerifier: testVerifier,
	})
	assert.Equal(t, apperrors.CodeInvalidGrant, appCode(t, err))
}

func TestSuccessRedirectShape(t *testing.T) {
	loc := SuccessRedirect(&dto.AuthorizeResult{Code: "abc", State: "xyz", RedirectURI: litRedirect + "?next=%2Fhome"})
	assert.Contains(t, loc, "code=abc")
	assert.Contains(t, loc, "state=xyz")
	assert.Contains(t, loc, "next=%2Fhome", "existing query parameters survive")
}
