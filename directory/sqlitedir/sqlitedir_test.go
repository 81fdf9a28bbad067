package sqlitedir

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/MrEthical07/credflow/directory"
	"github.com/MrEthical07/credflow/directory/directorytest"
	"github.com/stretchr/testify/require"
)

func TestDirectory(t *testing.T) {
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	directorytest.Run(t, s)
}

func TestReopenKeepsUsers(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "users.db")

	s, err := Open(ctx, path)
	require.NoError(t, err)
	u, err := s.Save(ctx, directory.User{Username: "bob", Email: "b@x.com", PasswordHash: "h", Role: "USER", BirthYear: 2000})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.FindByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "bob", got.Username)
	require.Equal(t, u.CreatedAt.UnixMilli(), got.CreatedAt.UnixMilli())
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(context.Background(), "  ")
	require.Error(t, err)
}
