package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepo struct{ Repository }

func TestNewUsesRegisteredFactory(t *testing.T) {
	var got Config
	Register("stub", func(_ context.Context, cfg Config) (Repository, error) {
		got = cfg
		return &stubRepo{}, nil
	})

	repo, err := New(context.Background(), Config{Kind: "stub", DSN: "dsn://x"})
	require.NoError(t, err)
	require.NotNil(t, repo)
	assert.Equal(t, "dsn://x", got.DSN)
	assert.Contains(t, Kinds(), "stub")
}

func TestNewUnknownKind(t *testing.T) {
	_, err := New(context.Background(), Config{Kind: "no-such-backend"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no-such-backend")
}
