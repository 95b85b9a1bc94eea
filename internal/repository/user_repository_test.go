package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUserRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("create and fetch", func(t *testing.T) {
		t.Parallel()

		repo := NewUserRepository(newTestDB(t))

		name := "alice"
		image := "https://img.example/alice.png"
		created, err := repo.Create(ctx, 42, &name, &image)
		require.NoError(t, err)
		require.NotZero(t, created.ID)
		require.EqualValues(t, 42, created.Fid)

		byID, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		require.Equal(t, &name, byID.DisplayName)
		require.Equal(t, &image, byID.DisplayImage)

		byFid, err := repo.GetByFid(ctx, 42)
		require.NoError(t, err)
		require.Equal(t, created.ID, byFid.ID)
	})

	t.Run("nullable profile fields", func(t *testing.T) {
		t.Parallel()

		repo := NewUserRepository(newTestDB(t))

		created, err := repo.Create(ctx, 43, nil, nil)
		require.NoError(t, err)

		fetched, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		require.Nil(t, fetched.DisplayName)
		require.Nil(t, fetched.DisplayImage)
	})

	t.Run("missing user", func(t *testing.T) {
		t.Parallel()

		repo := NewUserRepository(newTestDB(t))

		_, err := repo.GetByID(ctx, 9999)
		require.ErrorIs(t, err, ErrUserNotFound)

		_, err = repo.GetByFid(ctx, 9999)
		require.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("update profile", func(t *testing.T) {
		t.Parallel()

		repo := NewUserRepository(newTestDB(t))

		created, err := repo.Create(ctx, 44, nil, nil)
		require.NoError(t, err)

		name := "bob"
		require.NoError(t, repo.UpdateProfile(ctx, created.ID, &name, nil))

		fetched, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		require.Equal(t, &name, fetched.DisplayName)

		err = repo.UpdateProfile(ctx, 9999, &name, nil)
		require.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("duplicate fid rejected", func(t *testing.T) {
		t.Parallel()

		repo := NewUserRepository(newTestDB(t))

		_, err := repo.Create(ctx, 45, nil, nil)
		require.NoError(t, err)

		_, err = repo.Create(ctx, 45, nil, nil)
		require.Error(t, err)
	})
}
