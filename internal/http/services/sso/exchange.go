package sso

import (
	"context"
	"errors"
	"time"

	"github.com/velvetlabs/brandsso/internal/clients"
	"github.com/velvetlabs/brandsso/internal/domain/repository"
	dto "github.com/velvetlabs/brandsso/internal/http/dto/sso"
	apperrors "github.com/velvetlabs/brandsso/internal/http/errors"
	"github.com/velvetlabs/brandsso/internal/jwt"
	"github.com/velvetlabs/brandsso/internal/metrics"
	"github.com/velvetlabs/brandsso/internal/observability/logger"
	"github.com/velvetlabs/brandsso/internal/security/pkce"
	"github.com/velvetlabs/brandsso/internal/security/tokens"
	"github.com/velvetlabs/brandsso/internal/validation"
)

// Exchange consumes an authorization code and mints a brand-scoped access
// token. Consumption happens before any other check so a failed exchange
// still burns the code.
func (s *Service) Exchange(ctx context.Context, req dto.TokenRequest) (*dto.TokenResponse, error) {
	res, err := s.exchange(ctx, req)
	if err != nil {
		outcome := "server_error"
		var app *apperrors.AppError
		if errors.As(err, &app) {
			outcome = string(app.Code)
		}
		metrics.Exchanges.WithLabelValues(outcome).Inc()
		return nil, err
	}
	metrics.Exchanges.WithLabelValues("success").Inc()
	return res, nil
}

func (s *Service) exchange(ctx context.Context, req dto.TokenRequest) (*dto.TokenResponse, error) {
	if req.GrantType != "authorization_code" {
		return nil, apperrors.UnsupportedGrantType("only grant_type=authorization_code is supported")
	}
	if req.Code == "" {
		return nil, apperrors.InvalidRequest("code is required")
	}
	if req.ClientID == "" {
		req.ClientID = clients.DefaultClientID
	}

	code, err := s.store.AuthCodes().Consume(ctx, tokens.SHA256Base64URL(req.Code), time.Now().UTC())
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.InvalidGrant("code is invalid, expired or already used")
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	if code.ClientID != req.ClientID {
		return nil, apperrors.InvalidGrant("code was issued to a different client")
	}
	// The client must still resolve as active; a registration deactivated
	// after issuance invalidates its outstanding codes.
	if _, err := s.registry.Resolve(ctx, code.ClientID); err != nil {
		if errors.Is(err, clients.ErrUnknownClient) {
			return nil, apperrors.InvalidGrant("client is no longer active")
		}
		return nil, apperrors.Internal(err)
	}
	if validation.NormalizeRedirectURI(req.RedirectURI) != validation.NormalizeRedirectURI(code.RedirectURI) {
		return nil, apperrors.InvalidGrant("redirect_uri does not match the authorize request")
	}
	if code.Challenge != "" {
		if req.CodeVerifier == "" {
			return nil, apperrors.InvalidRequest("code_verifier is required")
		}
		if !pkce.Verify(req.CodeVerifier, code.Challenge) {
			return nil, apperrors.InvalidGrant("code_verifier does not match the challenge")
		}
	}

	core, err := s.store.CoreUsers().GetByID(ctx, code.CoreUserID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	brand, ok := s.directory.ByID(code.BrandID)
	if !ok {
		return nil, apperrors.Internal(errors.New("code references an unconfigured brand"))
	}

	brandUser, err := s.store.BrandUsers().FindOrCreate(ctx, core.ID, brand.ID, repository.BrandUserDefaults{
		Email:   core.Email,
		Role:    s.cfg.DefaultRole,
		Credits: s.cfg.DefaultCredits,
	})
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	signed, exp, err := s.issuer.IssueAccess(jwt.BrandClaims{
		UserID:     brandUser.ID,
		CoreUserID: core.ID,
		Email:      core.Email,
		Role:       brandUser.Role,
		BrandID:    brand.ID,
		BrandCode:  brand.Code,
		ClientID:   code.ClientID,
		Scope:      code.Scope,
	})
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	logger.From(ctx).Info("token exchanged",
		logger.Component("sso"),
		logger.ClientID(code.ClientID),
		logger.BrandID(brand.ID),
		logger.CoreUserID(core.ID),
		logger.UserID(brandUser.ID))

	return &dto.TokenResponse{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   int64(time.Until(exp) / time.Second),
		Scope:       code.Scope,
	}, nil
}
