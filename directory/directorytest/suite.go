// Package directorytest holds a behavioural suite every directory.Directory
// implementation must pass.
package directorytest

import (
	"context"
	"testing"

	"github.com/MrEthical07/credflow/directory"
	"github.com/stretchr/testify/require"
)

// Run exercises d, which must start empty.
func Run(t *testing.T, d directory.Directory) {
	t.Helper()
	ctx := context.Background()

	t.Run("save assigns id", func(t *testing.T) {
		u, err := d.Save(ctx, directory.User{
			Username:     "ann",
			Email:        "a@x.com",
			PasswordHash: "hash",
			Role:         directory.DefaultRole,
			BirthYear:    1990,
		})
		require.NoError(t, err)
		require.NotEmpty(t, u.ID)
		require.False(t, u.CreatedAt.IsZero())

		got, err := d.FindByEmail(ctx, "a@x.com")
		require.NoError(t, err)
		require.Equal(t, u.ID, got.ID)
		require.Equal(t, "ann", got.Username)
		require.False(t, got.EmailVerified)
		require.Equal(t, 1990, got.BirthYear)

		byID, err := d.FindByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, "a@x.com", byID.Email)
	})

	t.Run("exists", func(t *testing.T) {
		ok, err := d.ExistsByEmail(ctx, "a@x.com")
		require.NoError(t, err)
		require.True(t, ok)
		ok, err = d.ExistsByUsername(ctx, "ann")
		require.NoError(t, err)
		require.True(t, ok)
		ok, err = d.ExistsByEmail(ctx, "nobody@x.com")
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		_, err := d.Save(ctx, directory.User{Username: "other", Email: "a@x.com", PasswordHash: "h", Role: "USER"})
		require.ErrorIs(t, err, directory.ErrConflict)
	})

	t.Run("duplicate username conflicts", func(t *testing.T) {
		_, err := d.Save(ctx, directory.User{Username: "ann", Email: "b@x.com", PasswordHash: "h", Role: "USER"})
		require.ErrorIs(t, err, directory.ErrConflict)
	})

	t.Run("update replaces record", func(t *testing.T) {
		u, err := d.FindByEmail(ctx, "a@x.com")
		require.NoError(t, err)
		u.EmailVerified = true
		u.PasswordHash = "new-hash"
		_, err = d.Save(ctx, u)
		require.NoError(t, err)

		got, err := d.FindByID(ctx, u.ID)
		require.NoError(t, err)
		require.True(t, got.EmailVerified)
		require.Equal(t, "new-hash", got.PasswordHash)
	})

	t.Run("update unknown id", func(t *testing.T) {
		_, err := d.Save(ctx, directory.User{ID: "missing", Username: "z", Email: "z@x.com", Role: "USER"})
		require.ErrorIs(t, err, directory.ErrNotFound)
	})

	t.Run("mark verified", func(t *testing.T) {
		u, err := d.Save(ctx, directory.User{Username: "cy", Email: "c@x.com", PasswordHash: "h1", Role: "USER"})
		require.NoError(t, err)

		got, err := d.MarkVerified(ctx, u.ID)
		require.NoError(t, err)
		require.True(t, got.EmailVerified)
		require.Equal(t, "h1", got.PasswordHash)

		_, err = d.MarkVerified(ctx, "missing")
		require.ErrorIs(t, err, directory.ErrNotFound)
	})

	t.Run("set password hash", func(t *testing.T) {
		u, err := d.FindByEmail(ctx, "c@x.com")
		require.NoError(t, err)

		got, err := d.SetPasswordHash(ctx, u.ID, "h1", "h2")
		require.NoError(t, err)
		require.Equal(t, "h2", got.PasswordHash)
		require.True(t, got.EmailVerified)

		_, err = d.SetPasswordHash(ctx, u.ID, "h1", "h3")
		require.ErrorIs(t, err, directory.ErrStale)
		stored, err := d.FindByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, "h2", stored.PasswordHash)

		got, err = d.SetPasswordHash(ctx, u.ID, "", "h4")
		require.NoError(t, err)
		require.Equal(t, "h4", got.PasswordHash)

		_, err = d.SetPasswordHash(ctx, "missing", "", "h")
		require.ErrorIs(t, err, directory.ErrNotFound)
		_, err = d.SetPasswordHash(ctx, "missing", "h", "h")
		require.ErrorIs(t, err, directory.ErrNotFound)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := d.FindByEmail(ctx, "nobody@x.com")
		require.ErrorIs(t, err, directory.ErrNotFound)
		_, err = d.FindByID(ctx, "nope")
		require.ErrorIs(t, err, directory.ErrNotFound)
	})
}
