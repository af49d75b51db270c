package sso

import (
	"context"
	"errors"

	dto "github.com/velvetlabs/brandsso/internal/http/dto/sso"
	apperrors "github.com/velvetlabs/brandsso/internal/http/errors"
	"github.com/velvetlabs/brandsso/internal/metrics"
)

// Check reports whether a presented session token is live. A missing or
// invalid token is a negative answer, never an error.
func (s *Service) Check(ctx context.Context, sessionToken string) (*dto.CheckResponse, error) {
	sess, err := s.sessions.Validate(ctx, sessionToken)
	if err != nil {
		metrics.SessionValidations.WithLabelValues("miss").Inc()
		return &dto.CheckResponse{HasSession: false}, nil
	}
	metrics.SessionValidations.WithLabelValues("hit").Inc()

	core, err := s.store.CoreUsers().GetByID(ctx, sess.CoreUserID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return &dto.CheckResponse{
		HasSession: true,
		User:       &dto.SessionUser{CoreUserID: core.ID, Email: core.Email, Name: core.Name},
		ExpiresAt:  sess.ExpiresAt.Unix(),
	}, nil
}

// Logout revokes the session behind the token. Idempotent: logging out
// twice, or with no session at all, succeeds.
func (s *Service) Logout(ctx context.Context, sessionToken string) error {
	if sessionToken == "" {
		return nil
	}
	if err := s.sessions.Revoke(ctx, sessionToken); err != nil && !errors.Is(err, context.Canceled) {
		return apperrors.Internal(err)
	}
	return nil
}
