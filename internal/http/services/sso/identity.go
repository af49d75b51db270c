package sso

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/velvetlabs/brandsso/internal/clients"
	"github.com/velvetlabs/brandsso/internal/domain/repository"
	dto "github.com/velvetlabs/brandsso/internal/http/dto/sso"
	apperrors "github.com/velvetlabs/brandsso/internal/http/errors"
	"github.com/velvetlabs/brandsso/internal/metrics"
	"github.com/velvetlabs/brandsso/internal/observability/logger"
	"github.com/velvetlabs/brandsso/internal/security/password"
)

// Login authenticates an email/password pair against the core identity,
// falling back to legacy per-brand credentials, then issues a session and
// an authorization code. The session token is returned for the cookie.
func (s *Service) Login(ctx context.Context, req dto.LoginRequest) (string, *dto.AuthorizeResult, error) {
	ac, err := s.ValidateAuthorize(ctx, req.AuthorizeParams)
	if err != nil {
		return "", nil, err
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || req.Password == "" {
		return "", nil, apperrors.InvalidRequest("email and password are required")
	}

	core, err := s.resolveByPassword(ctx, email, req.Password)
	if err != nil {
		metrics.Logins.WithLabelValues("failure").Inc()
		return "", nil, err
	}

	token, res, err := s.finishLogin(ctx, ac, core)
	if err != nil {
		metrics.Logins.WithLabelValues("failure").Inc()
		return "", nil, err
	}
	metrics.Logins.WithLabelValues("success").Inc()
	return token, res, nil
}

// Signup registers a new core identity. An existing account with a matching
// password behaves as a login, so double submits and returning users on a
// new brand do not dead-end.
func (s *Service) Signup(ctx context.Context, req dto.SignupRequest) (string, *dto.AuthorizeResult, error) {
	ac, err := s.ValidateAuthorize(ctx, req.AuthorizeParams)
	if err != nil {
		return "", nil, err
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || req.Password == "" {
		return "", nil, apperrors.InvalidRequest("email and password are required")
	}

	core, err := s.store.CoreUsers().GetByEmail(ctx, email)
	switch {
	case err == nil:
		if core.PasswordHash == nil || !password.Check(*core.PasswordHash, req.Password) {
			metrics.Signups.WithLabelValues("failure").Inc()
			return "", nil, apperrors.InvalidGrant("account already exists")
		}
	case errors.Is(err, repository.ErrNotFound):
		hash, hashErr := password.Hash(req.Password)
		if hashErr != nil {
			metrics.Signups.WithLabelValues("failure").Inc()
			return "", nil, apperrors.Internal(hashErr)
		}
		core, err = s.store.CoreUsers().Create(ctx, repository.CreateCoreUserInput{
			Email:        email,
			Name:         strings.TrimSpace(req.Name),
			PasswordHash: &hash,
		})
		if errors.Is(err, repository.ErrConflict) {
			// Lost a concurrent signup race; treat it as the existing-account case.
			metrics.Signups.WithLabelValues("failure").Inc()
			return "", nil, apperrors.InvalidGrant("account already exists")
		}
		if err != nil {
			metrics.Signups.WithLabelValues("failure").Inc()
			return "", nil, apperrors.Internal(err)
		}
		s.adoptLegacy(ctx, core)
	default:
		metrics.Signups.WithLabelValues("failure").Inc()
		return "", nil, apperrors.Internal(err)
	}

	token, res, err := s.finishLogin(ctx, ac, core)
	if err != nil {
		metrics.Signups.WithLabelValues("failure").Inc()
		return "", nil, err
	}
	metrics.Signups.WithLabelValues("success").Inc()
	return token, res, nil
}

// Initiate retroactively opens a platform session for a user a brand has
// already authenticated through its own conventional login. No credentials
// change hands here; trust comes from the brand backend making the call.
func (s *Service) Initiate(ctx context.Context, req dto.InitiateRequest) (string, *dto.CheckResponse, error) {
	clientID := req.ClientID
	if clientID == "" {
		clientID = clients.DefaultClientID
	}
	if _, err := s.registry.Resolve(ctx, clientID); err != nil {
		if errors.Is(err, clients.ErrUnknownClient) {
			return "", nil, apperrors.InvalidClient("unknown client")
		}
		return "", nil, apperrors.Internal(err)
	}
	if req.UserID == "" {
		return "", nil, apperrors.InvalidRequest("user_id is required")
	}

	core, err := s.resolveInitiateUser(ctx, req.UserID)
	if err != nil {
		return "", nil, err
	}

	token, sess, err := s.sessions.Issue(ctx, core.ID)
	if err != nil {
		return "", nil, apperrors.Internal(err)
	}
	logger.From(ctx).Info("platform session initiated",
		logger.Component("sso"),
		logger.ClientID(clientID),
		logger.CoreUserID(core.ID))

	return token, &dto.CheckResponse{
		HasSession: true,
		User:       &dto.SessionUser{CoreUserID: core.ID, Email: core.Email, Name: core.Name},
		ExpiresAt:  sess.ExpiresAt.Unix(),
	}, nil
}

// resolveInitiateUser accepts either a core identity id or a brand user id.
// A pre-SSO brand row gets a core identity provisioned from it on the spot,
// the same migration path credentials take.
func (s *Service) resolveInitiateUser(ctx context.Context, userID string) (*repository.CoreUser, error) {
	core, err := s.store.CoreUsers().GetByID(ctx, userID)
	if err == nil {
		return core, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Internal(err)
	}

	bu, err := s.store.BrandUsers().GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.InvalidGrant("unknown user")
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if bu.CoreUserID != nil {
		core, err = s.store.CoreUsers().GetByID(ctx, *bu.CoreUserID)
		if err != nil {
			return nil, apperrors.Internal(err)
		}
		return core, nil
	}

	core, err = s.store.CoreUsers().Create(ctx, repository.CreateCoreUserInput{
		Email:        bu.Email,
		PasswordHash: bu.LegacyPasswordHash,
	})
	if errors.Is(err, repository.ErrConflict) {
		// Another request migrated this account first.
		core, err = s.store.CoreUsers().GetByEmail(ctx, bu.Email)
	}
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("migrate legacy account: %w", err))
	}
	s.adoptLegacy(ctx, core)
	return core, nil
}

func (s *Service) finishLogin(ctx context.Context, ac *AuthorizeContext, core *repository.CoreUser) (string, *dto.AuthorizeResult, error) {
	token, _, err := s.sessions.Issue(ctx, core.ID)
	if err != nil {
		return "", nil, apperrors.Internal(err)
	}
	res, err := s.IssueCode(ctx, ac, core.ID)
	if err != nil {
		return "", nil, err
	}
	logger.From(ctx).Info("platform login",
		logger.Component("sso"),
		logger.CoreUserID(core.ID),
		logger.BrandID(ac.Brand.ID))
	return token, res, nil
}

// resolveByPassword maps credentials to a core identity. Unknown emails
// fall back to pre-SSO brand accounts: a matching legacy password seeds a
// core identity from its hash and adopts the row.
func (s *Service) resolveByPassword(ctx context.Context, email, pass string) (*repository.CoreUser, error) {
	core, err := s.store.CoreUsers().GetByEmail(ctx, email)
	if err == nil {
		if core.PasswordHash == nil || !password.Check(*core.PasswordHash, pass) {
			return nil, apperrors.InvalidGrant("invalid email or password")
		}
		return core, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Internal(err)
	}

	legacy, err := s.store.BrandUsers().GetLegacyByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.InvalidGrant("invalid email or password")
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if legacy.LegacyPasswordHash == nil || !password.Check(*legacy.LegacyPasswordHash, pass) {
		return nil, apperrors.InvalidGrant("invalid email or password")
	}

	core, err = s.store.CoreUsers().Create(ctx, repository.CreateCoreUserInput{
		Email:        email,
		PasswordHash: legacy.LegacyPasswordHash,
	})
	if errors.Is(err, repository.ErrConflict) {
		// Another request migrated this account first.
		core, err = s.store.CoreUsers().GetByEmail(ctx, email)
	}
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("migrate legacy account: %w", err))
	}
	s.adoptLegacy(ctx, core)
	return core, nil
}

// adoptLegacy links any remaining pre-SSO rows for the email to the core
// identity. Failures are logged, not fatal: the rows stay adoptable.
func (s *Service) adoptLegacy(ctx context.Context, core *repository.CoreUser) {
	for {
		legacy, err := s.store.BrandUsers().GetLegacyByEmail(ctx, core.Email)
		if errors.Is(err, repository.ErrNotFound) {
			return
		}
		if err != nil {
			logger.From(ctx).Warn("legacy lookup failed",
				logger.Component("sso"), logger.Err(err))
			return
		}
		if err := s.store.BrandUsers().Adopt(ctx, legacy.ID, core.ID); err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				logger.From(ctx).Warn("legacy adoption failed",
					logger.Component("sso"),
					logger.UserID(legacy.ID),
					logger.Err(err))
			}
			return
		}
		logger.From(ctx).Info("legacy account adopted",
			logger.Component("sso"),
			logger.UserID(legacy.ID),
			logger.BrandID(legacy.BrandID),
			logger.CoreUserID(core.ID))
	}
}
