package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velvetlabs/brandsso/internal/domain/repository"
)

func TestAuthCodeConsumeOnce(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.AuthCodes().Create(ctx, repository.CreateAuthCodeInput{
		CodeHash:   "hash-1",
		ClientID:   "web",
		BrandID:    "lit",
		CoreUserID: "cu-1",
		ExpiresAt:  time.Now().Add(time.Minute),
	})
	require.NoError(t, err)

	// Many concurrent consumers, exactly one winner.
	var wg sync.WaitGroup
	wins := make(chan struct{}, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.AuthCodes().Consume(ctx, "hash-1", time.Now()); err == nil {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	count := 0
	for range wins {
		count++
	}
	assert.Equal(t, 1, count)
}

func TestAuthCodeConsumeExpired(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.AuthCodes().Create(ctx, repository.CreateAuthCodeInput{
		CodeHash:  "hash-2",
		ExpiresAt: time.Now().Add(time.Minute),
	})
	require.NoError(t, err)

	_, err = s.AuthCodes().Consume(ctx, "hash-2", time.Now().Add(2*time.Minute))
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSessionUpsertKeepsOneRowPerUser(t *testing.T) {
	s := New()
	ctx := context.Background()

	first, err := s.Sessions().Upsert(ctx, repository.UpsertSessionInput{
		CoreUserID: "cu-1", TokenHash: "h1", LookupKey: "k1",
		ExpiresAt: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	second, err := s.Sessions().Upsert(ctx, repository.UpsertSessionInput{
		CoreUserID: "cu-1", TokenHash: "h2", LookupKey: "k2",
		ExpiresAt: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	old, err := s.Sessions().CandidatesByLookupKey(ctx, "k1")
	require.NoError(t, err)
	assert.Empty(t, old)

	cur, err := s.Sessions().CandidatesByLookupKey(ctx, "k2")
	require.NoError(t, err)
	require.Len(t, cur, 1)
	assert.Equal(t, "h2", cur[0].TokenHash)
}

func TestCoreUserEmailUniqueCaseInsensitive(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.CoreUsers().Create(ctx, repository.CreateCoreUserInput{Email: "ada@example.com"})
	require.NoError(t, err)

	_, err = s.CoreUsers().Create(ctx, repository.CreateCoreUserInput{Email: "ADA@example.com"})
	assert.ErrorIs(t, err, repository.ErrConflict)

	u, err := s.CoreUsers().GetByEmail(ctx, "Ada@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", u.Email)
}

func TestLegacyAdoption(t *testing.T) {
	s := New()
	ctx := context.Background()

	hash := "bcrypt-hash"
	id := s.SeedBrandUser(repository.BrandUser{
		BrandID: "lit", Email: "old@example.com", Role: "admin",
		LegacyPasswordHash: &hash,
	})

	legacy, err := s.BrandUsers().GetLegacyByEmail(ctx, "OLD@example.com")
	require.NoError(t, err)
	assert.Equal(t, id, legacy.ID)

	core, err := s.CoreUsers().Create(ctx, repository.CreateCoreUserInput{Email: "old@example.com"})
	require.NoError(t, err)
	require.NoError(t, s.BrandUsers().Adopt(ctx, id, core.ID))

	// Already adopted rows cannot be adopted again.
	assert.ErrorIs(t, s.BrandUsers().Adopt(ctx, id, core.ID), repository.ErrNotFound)

	_, err = s.BrandUsers().GetLegacyByEmail(ctx, "old@example.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	got, err := s.BrandUsers().Get(ctx, core.ID, "lit")
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "admin", got.Role)
}
