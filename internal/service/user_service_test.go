package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"farmap/api/internal/farcaster"
	"farmap/api/internal/repository"
)

func TestUserServiceGetOrCreateByFid(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("first sign-in creates an enriched user", func(t *testing.T) {
		t.Parallel()

		hub := &fakeHub{profile: farcaster.Profile{
			DisplayName:  ptr("alice"),
			DisplayImage: ptr("https://img.test/alice.png"),
		}}
		runner := &syncRunner{}
		users := repository.NewUserRepository(newTestDB(t))
		svc := NewUserService(users, hub, runner, zerolog.Nop())

		user, err := svc.GetOrCreateByFid(ctx, 501)
		require.NoError(t, err)
		require.EqualValues(t, 501, user.Fid)
		require.Equal(t, ptr("alice"), user.DisplayName)
		require.Equal(t, 1, hub.calls)
		require.Empty(t, runner.names)
	})

	t.Run("hub failure still creates the user", func(t *testing.T) {
		t.Parallel()

		hub := &fakeHub{err: farcaster.ErrHub}
		users := repository.NewUserRepository(newTestDB(t))
		svc := NewUserService(users, hub, &syncRunner{}, zerolog.Nop())

		user, err := svc.GetOrCreateByFid(ctx, 502)
		require.NoError(t, err)
		require.Nil(t, user.DisplayName)
		require.Nil(t, user.DisplayImage)

		stored, err := users.GetByFid(ctx, 502)
		require.NoError(t, err)
		require.Equal(t, user.ID, stored.ID)
	})

	t.Run("repeat sign-in refreshes profile off the request path", func(t *testing.T) {
		t.Parallel()

		hub := &fakeHub{profile: farcaster.Profile{DisplayName: ptr("old-name")}}
		runner := &syncRunner{}
		users := repository.NewUserRepository(newTestDB(t))
		svc := NewUserService(users, hub, runner, zerolog.Nop())

		first, err := svc.GetOrCreateByFid(ctx, 503)
		require.NoError(t, err)

		hub.profile = farcaster.Profile{DisplayName: ptr("new-name")}

		second, err := svc.GetOrCreateByFid(ctx, 503)
		require.NoError(t, err)
		require.Equal(t, first.ID, second.ID)
		// The caller sees the stored row; the refresh lands behind it.
		require.Equal(t, ptr("old-name"), second.DisplayName)
		require.True(t, runner.ran("refresh-profile"))

		refreshed, err := users.GetByFid(ctx, 503)
		require.NoError(t, err)
		require.Equal(t, ptr("new-name"), refreshed.DisplayName)
	})
}

func TestUserServiceGetByID(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	users := repository.NewUserRepository(newTestDB(t))
	svc := NewUserService(users, &fakeHub{}, &syncRunner{}, zerolog.Nop())

	created, err := users.Create(ctx, 510, ptr("carol"), nil)
	require.NoError(t, err)

	fetched, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, fetched.ID)

	_, err = svc.GetByID(ctx, 9999)
	require.ErrorIs(t, err, repository.ErrUserNotFound)
}
