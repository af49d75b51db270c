package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velvetlabs/brandsso/internal/store/memory"
)

func testManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(memory.New().Sessions(), []byte("test-key"), time.Hour)
}

func TestIssueAndValidate(t *testing.T) {
	m := testManager(t)
	ctx := context.Background()

	raw, sess, err := m.Issue(ctx, "core-1")
	require.NoError(t, err)
	assert.NotEmpty(t, raw)
	assert.Equal(t, "core-1", sess.CoreUserID)

	got, err := m.Validate(ctx, raw)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
}

func TestValidateRejectsGarbage(t *testing.T) {
	m := testManager(t)
	ctx := context.Background()

	_, _, err := m.Issue(ctx, "core-1")
	require.NoError(t, err)

	_, err = m.Validate(ctx, "")
	assert.ErrorIs(t, err, ErrNoSession)
	_, err = m.Validate(ctx, "not-a-token")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestSecondLoginSupersedesFirst(t *testing.T) {
	m := testManager(t)
	ctx := context.Background()

	first, _, err := m.Issue(ctx, "core-1")
	require.NoError(t, err)
	second, _, err := m.Issue(ctx, "core-1")
	require.NoError(t, err)

	_, err = m.Validate(ctx, first)
	assert.ErrorIs(t, err, ErrNoSession, "superseded token must stop validating")

	got, err := m.Validate(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, "core-1", got.CoreUserID)
}

func TestRevoke(t *testing.T) {
	m := testManager(t)
	ctx := context.Background()

	raw, _, err := m.Issue(ctx, "core-1")
	require.NoError(t, err)

	require.NoError(t, m.Revoke(ctx, raw))
	_, err = m.Validate(ctx, raw)
	assert.ErrorIs(t, err, ErrNoSession)

	// Revoking again, or revoking junk, still succeeds.
	assert.NoError(t, m.Revoke(ctx, raw))
	assert.NoError(t, m.Revoke(ctx, "junk"))
}
