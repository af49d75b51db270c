package sso

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/velvetlabs/brandsso/internal/brands"
	"github.com/velvetlabs/brandsso/internal/clients"
	"github.com/velvetlabs/brandsso/internal/domain/repository"
	apperrors "github.com/velvetlabs/brandsso/internal/http/errors"
	dto "github.com/velvetlabs/brandsso/internal/http/dto/sso"
	"github.com/velvetlabs/brandsso/internal/metrics"
	"github.com/velvetlabs/brandsso/internal/observability/logger"
	"github.com/velvetlabs/brandsso/internal/security/pkce"
	"github.com/velvetlabs/brandsso/internal/security/tokens"
	"github.com/velvetlabs/brandsso/internal/validation"
)

const codeBytes = 32

// AuthorizeContext is a validated authorize request: client resolved, brand
// resolved, redirect URI vetted. Only a vetted context may issue codes or
// build redirects.
type AuthorizeContext struct {
	Client *repository.Client
	Brand  brands.Brand
	Params dto.AuthorizeParams
}

// ValidateAuthorize checks the protocol parameters of an authorize attempt.
// The redirect URI is validated before anything else is trusted; errors
// before that gate must never be delivered by redirect.
func (s *Service) ValidateAuthorize(ctx context.Context, p dto.AuthorizeParams) (*AuthorizeContext, error) {
	if p.ClientID == "" {
		p.ClientID = clients.DefaultClientID
	}
	client, err := s.registry.Resolve(ctx, p.ClientID)
	if err != nil {
		if errors.Is(err, clients.ErrUnknownClient) {
			return nil, apperrors.InvalidClient("unknown client")
		}
		return nil, apperrors.Internal(err)
	}

	if p.RedirectURI == "" {
		return nil, apperrors.InvalidRequest("redirect_uri is required")
	}
	if !validation.RedirectURIAllowed(p.RedirectURI, client.RedirectURIs) {
		return nil, apperrors.InvalidRedirectURI("redirect_uri is not registered for this client")
	}

	if p.ResponseType != "" && p.ResponseType != "code" {
		return nil, apperrors.UnsupportedResponseType("only response_type=code is supported")
	}

	brandID := p.BrandID
	if brandID == "" {
		brandID = s.directory.DefaultBrandID()
	}
	brand, ok := s.directory.ByID(brandID)
	if !ok {
		return nil, apperrors.InvalidRequest(fmt.Sprintf("unknown brand_id %q", p.BrandID))
	}

	if client.RequirePKCE || p.CodeChallenge != "" {
		if p.CodeChallenge == "" {
			return nil, apperrors.InvalidRequest("code_challenge is required")
		}
		if p.CodeChallengeMethod != "" && !pkce.SupportedMethod(p.CodeChallengeMethod) {
			return nil, apperrors.InvalidRequest("only code_challenge_method=S256 is supported")
		}
	}

	p.BrandID = brand.ID
	return &AuthorizeContext{Client: client, Brand: brand, Params: p}, nil
}

// IssueCode mints a single-use authorization code bound to the vetted
// request and the authenticated core user. Only the hash is stored.
func (s *Service) IssueCode(ctx context.Context, ac *AuthorizeContext, coreUserID string) (*dto.AuthorizeResult, error) {
	raw, err := tokens.GenerateOpaque(codeBytes)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("generate code: %w", err))
	}

	method := ""
	if ac.Params.CodeChallenge != "" {
		method = pkce.MethodS256
	}
	_, err = s.store.AuthCodes().Create(ctx, repository.CreateAuthCodeInput{
		CodeHash:        tokens.SHA256Base64URL(raw),
		ClientID:        ac.Client.ID,
		BrandID:         ac.Brand.ID,
		CoreUserID:      coreUserID,
		Challenge:       ac.Params.CodeChallenge,
		ChallengeMethod: method,
		RedirectURI:     ac.Params.RedirectURI,
		Scope:           ac.Params.Scope,
		State:           ac.Params.State,
		ExpiresAt:       time.Now().UTC().Add(s.cfg.CodeTTL),
	})
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("store code: %w", err))
	}

	metrics.CodesIssued.Inc()
	logger.From(ctx).Info("authorization code issued",
		logger.Component("sso"),
		logger.ClientID(ac.Client.ID),
		logger.BrandID(ac.Brand.ID),
		logger.CoreUserID(coreUserID))

	return &dto.AuthorizeResult{
		Code:        raw,
		State:       ac.Params.State,
		RedirectURI: ac.Params.RedirectURI,
	}, nil
}

// Authorize serves the redirect flow: an existing session is exchanged for
// a code without credentials. ErrNoSession surfaces as sso_login_required.
func (s *Service) Authorize(ctx context.Context, sessionToken string, p dto.AuthorizeParams) (*AuthorizeContext, *dto.AuthorizeResult, error) {
	ac, err := s.ValidateAuthorize(ctx, p)
	if err != nil {
		return nil, nil, err
	}

	sess, err := s.sessions.Validate(ctx, sessionToken)
	if err != nil {
		metrics.SessionValidations.WithLabelValues("miss").Inc()
		return ac, nil, apperrors.LoginRequired("no active platform session")
	}
	metrics.SessionValidations.WithLabelValues("hit").Inc()

	res, err := s.IssueCode(ctx, ac, sess.CoreUserID)
	if err != nil {
		return ac, nil, err
	}
	return ac, res, nil
}

// SuccessRedirect builds the redirect_uri?code=...&state=... location for a
// vetted request.
func SuccessRedirect(res *dto.AuthorizeResult) string {
	return appendQuery(res.RedirectURI, url.Values{
		"code":  {res.Code},
		"state": {res.State},
	})
}

// LoginRedirect sends the browser back to the brand with the original
// authorize URL tagged, so the brand can show its own login and re-enter
// the flow afterwards.
func LoginRedirect(redirectURI, returnURL string) string {
	return appendQuery(redirectURI, url.Values{
		"sso_login_required": {"true"},
		"sso_return_url":     {returnURL},
	})
}

// ErrorRedirect delivers an OAuth error to a vetted redirect URI.
func ErrorRedirect(redirectURI, state string, code apperrors.Code, description string) string {
	return appendQuery(redirectURI, url.Values{
		"error":             {string(code)},
		"error_description": {description},
		"state":             {state},
	})
}

func appendQuery(redirectURI string, add url.Values) string {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return redirectURI
	}
	q := u.Query()
	for k, vs := range add {
		for _, v := range vs {
			if v != "" {
				q.Set(k, v)
			}
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}
