package user

import (
	"context"
	"errors"
	"fmt"

	"gymhub/internal/auth"
	"gymhub/internal/logger"
)

var (
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*User, string, string, error)
	Login(ctx context.Context, req LoginRequest) (*User, string, string, error)
	GetByID(ctx context.Context, userID int) (*User, error)
	Profile(ctx context.Context, userID int) (*Profile, error)
	RefreshToken(ctx context.Context, refreshToken string) (string, *User, error)
	ListGymOwners(ctx context.Context) ([]User, error)
	EnsureAdmin(ctx context.Context, email, password string) error
}

type service struct {
	repo   Repository
	tokens *auth.Tokens
}

func NewService(repo Repository, jwtSecret string) Service {
	return &service{
		repo:   repo,
		tokens: auth.NewTokens(jwtSecret),
	}
}

// Register signs up a gym owner. Platform admins are provisioned with
// EnsureAdmin and staff accounts are created by their gym.
func (s *service) Register(ctx context.Context, req RegisterRequest) (*User, string, string, error) {
	exists, err := s.repo.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, "", "", err
	}
	if exists {
		return nil, "", "", ErrEmailExists
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, "", "", err
	}

	u := &User{
		Username:     req.Username,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: passwordHash,
		Role:         auth.RoleGymOwner,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, "", "", err
	}

	pair, err := s.tokens.Pair(u.Subject())
	if err != nil {
		return nil, "", "", err
	}

	logger.Info("user registered", "user_id", u.ID, "role", u.Role)
	return u, pair.Access, pair.Refresh, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*User, string, string, error) {
	u, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, "", "", ErrInvalidCredentials
	}

	if !auth.CheckPassword(u.PasswordHash, req.Password) {
		return nil, "", "", ErrInvalidCredentials
	}

	pair, err := s.tokens.Pair(u.Subject())
	if err != nil {
		return nil, "", "", err
	}

	return u, pair.Access, pair.Refresh, nil
}

func (s *service) GetByID(ctx context.Context, userID int) (*User, error) {
	return s.repo.FindByID(ctx, userID)
}

func (s *service) Profile(ctx context.Context, userID int) (*Profile, error) {
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile := &Profile{User: *u}
	if u.Role == auth.RoleSystemAdmin {
		return profile, nil
	}

	gym, err := s.repo.FindGymForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile.Gym = gym
	return profile, nil
}

func (s *service) RefreshToken(ctx context.Context, refreshToken string) (string, *User, error) {
	claims, err := s.tokens.Verify(refreshToken, auth.RefreshToken)
	if err != nil {
		return "", nil, err
	}

	u, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		return "", nil, ErrUserNotFound
	}

	// role may have changed since the refresh token was issued
	newAccessToken, err := s.tokens.Sign(u.Subject(), auth.AccessToken)
	if err != nil {
		return "", nil, err
	}

	return newAccessToken, u, nil
}

func (s *service) ListGymOwners(ctx context.Context) ([]User, error) {
	return s.repo.ListByRole(ctx, auth.RoleGymOwner)
}

// EnsureAdmin creates the platform administrator account when it does not
// exist yet. Existing accounts are left untouched.
func (s *service) EnsureAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to check admin account: %w", err)
	}
	if exists {
		return nil
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	u := &User{
		Username:     "admin",
		Email:        email,
		PasswordHash: passwordHash,
		Role:         auth.RoleSystemAdmin,
		IsApproved:   true,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return fmt.Errorf("failed to create admin account: %w", err)
	}

	logger.Info("platform admin account created", "user_id", u.ID)
	return nil
}
