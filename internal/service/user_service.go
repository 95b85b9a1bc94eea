package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"farmap/api/internal/background"
	"farmap/api/internal/farcaster"
	"farmap/api/internal/models"
	"farmap/api/internal/repository"
)

// ProfileSource is the third-party directory that enriches users with
// display name and avatar. Strictly optional: sign-in never waits on
// it failing.
type ProfileSource interface {
	GetProfile(ctx context.Context, fid int64) (farcaster.Profile, error)
}

type UserService struct {
	users  *repository.UserRepository
	hub    ProfileSource
	runner background.Runner
	log    zerolog.Logger
}

func NewUserService(users *repository.UserRepository, hub ProfileSource, runner background.Runner, log zerolog.Logger) *UserService {
	return &UserService{
		users:  users,
		hub:    hub,
		runner: runner,
		log:    log,
	}
}

// GetOrCreateByFid returns the user for a Farcaster id, inserting one
// on first sign-in. New users get hub profile data if the hub answers
// in time; existing users are returned as-is while a detached refresh
// updates their profile fields.
func (s *UserService) GetOrCreateByFid(ctx context.Context, fid int64) (models.User, error) {
	user, err := s.users.GetByFid(ctx, fid)
	if err == nil {
		s.runner.Go("refresh-profile", func(ctx context.Context) error {
			return s.refreshProfile(ctx, user)
		})
		return user, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return models.User{}, err
	}

	profile, profileErr := s.hub.GetProfile(ctx, fid)
	if profileErr != nil {
		s.log.Warn().Err(profileErr).Int64("fid", fid).Msg("profile enrichment failed, inserting without profile")
		profile = farcaster.Profile{}
	}

	return s.users.Create(ctx, fid, profile.DisplayName, profile.DisplayImage)
}

func (s *UserService) GetByID(ctx context.Context, id int64) (models.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *UserService) refreshProfile(ctx context.Context, user models.User) error {
	profile, err := s.hub.GetProfile(ctx, user.Fid)
	if err != nil {
		return err
	}
	return s.users.UpdateProfile(ctx, user.ID, profile.DisplayName, profile.DisplayImage)
}
