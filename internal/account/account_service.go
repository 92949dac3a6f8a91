package account

import (
	"context"
	"errors"
	"strings"

	"tally/db"
	"tally/models"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidInput is returned when a required field is missing
	ErrInvalidInput = errors.New("username and password are required")
	// ErrInvalidCredentials covers both unknown username and wrong
	// password; callers cannot tell the two apart
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Service implements user registration, authentication and profile
// maintenance on top of a UserRepository
type Service struct {
	users db.UserRepository
}

func NewService(users db.UserRepository) *Service {
	return &Service{users: users}
}

// Signup creates a new user with an empty profile picture and a zero
// starting balance
func (s *Service) Signup(ctx context.Context, username, password string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, ErrInvalidInput
	}

	user := &models.User{
		Username:        username,
		Password:        password,
		ProfilePicture:  "",
		StartingBalance: decimal.Zero,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login returns the stored user record when the username matches
// case-insensitively and the password matches exactly
func (s *Service) Login(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if user.Password != password {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// ResetPassword overwrites the password after verifying the old one.
// A wrong old password leaves the stored record untouched.
func (s *Service) ResetPassword(ctx context.Context, username, oldPassword, newPassword string) error {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return err
	}

	if user.Password != oldPassword {
		return ErrInvalidCredentials
	}

	_, err = s.users.Update(ctx, username, db.UserPatch{Password: &newPassword})
	return err
}

// ProfileUpdate carries the optional fields of an UpdateProfile call.
// Nil fields are left unchanged.
type ProfileUpdate struct {
	NewUsername     *string
	ProfilePicture  *string
	StartingBalance *decimal.Decimal
}

// UpdateProfile applies the supplied fields to an existing user and
// returns the updated record. Renaming fails when the new name collides
// case-insensitively with a different user; renaming to the same name
// with different casing is allowed.
func (s *Service) UpdateProfile(ctx context.Context, username string, update ProfileUpdate) (*models.User, error) {
	current, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if update.NewUsername != nil && !strings.EqualFold(*update.NewUsername, current.Username) {
		_, err := s.users.FindByUsername(ctx, *update.NewUsername)
		if err == nil {
			return nil, db.ErrDuplicate
		}
		if !errors.Is(err, db.ErrNotFound) {
			return nil, err
		}
	}

	return s.users.Update(ctx, username, db.UserPatch{
		Username:        update.NewUsername,
		ProfilePicture:  update.ProfilePicture,
		StartingBalance: update.StartingBalance,
	})
}

// ListUsers returns the full user collection
func (s *Service) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.users.FindAll(ctx)
}
