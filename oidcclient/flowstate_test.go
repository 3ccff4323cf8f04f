package oidcclient

import (
	"context"
	"testing"
	"time"

	"github.com/jrsteele09/go-auth-session/internal/errors"
	"github.com/jrsteele09/go-auth-session/webstorage"
	"github.com/stretchr/testify/require"
)

func TestFlowStateRepo_Take(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	newRepo := func() *FlowStateRepo {
		repo := NewFlowStateRepo(webstorage.NewMemory(), 15*time.Minute)
		repo.now = func() time.Time { return now }
		return repo
	}

	t.Run("single use", func(t *testing.T) {
		repo := newRepo()
		require.NoError(t, repo.Save(ctx, "state-1", FlowState{CodeVerifier: "v", Nonce: "n", CreatedAt: now}))

		flow, err := repo.Take(ctx, "state-1")
		require.NoError(t, err)
		require.Equal(t, "v", flow.CodeVerifier)
		require.Equal(t, "n", flow.Nonce)

		_, err = repo.Take(ctx, "state-1")
		require.ErrorIs(t, err, errors.ErrUnknownState)
	})

	t.Run("expired flow is rejected and removed", func(t *testing.T) {
		repo := newRepo()
		require.NoError(t, repo.Save(ctx, "state-2", FlowState{CodeVerifier: "v", CreatedAt: now.Add(-16 * time.Minute)}))

		_, err := repo.Take(ctx, "state-2")
		require.ErrorIs(t, err, errors.ErrFlowExpired)

		_, err = repo.Take(ctx, "state-2")
		require.ErrorIs(t, err, errors.ErrUnknownState)
	})

	t.Run("empty state", func(t *testing.T) {
		repo := newRepo()
		require.ErrorIs(t, repo.Save(ctx, "", FlowState{}), errors.ErrUnknownState)
		_, err := repo.Take(ctx, "")
		require.ErrorIs(t, err, errors.ErrUnknownState)
	})
}
