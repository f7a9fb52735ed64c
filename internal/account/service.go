package account

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"arogya-setu/internal/storage"
)

const (
	keyCurrentUser   = "arogya_user"
	keyAuthenticated = "arogya_authenticated"

	minPasswordLength = 6
)

var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

type Service interface {
	Signup(ctx context.Context, req SignupRequest) (*User, error)
	// Login always succeeds for a non-blank email. A registered user with a
	// matching password gets their stored profile; anyone else gets one
	// derived from the email address.
	Login(ctx context.Context, req LoginRequest) (*Profile, error)
	CurrentUser(ctx context.Context) (*Profile, error)
	Logout(ctx context.Context) error
}

type service struct {
	repo   Repository
	kv     storage.KV
	logger *zap.Logger
	cost   int
	now    func() time.Time
}

func NewService(repo Repository, kv storage.KV, logger *zap.Logger) Service {
	return &service{
		repo:   repo,
		kv:     kv,
		logger: logger,
		cost:   bcrypt.DefaultCost,
		now:    time.Now,
	}
}

func (s *service) Signup(ctx context.Context, req SignupRequest) (*User, error) {
	if err := validateSignup(req); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(strings.TrimSpace(req.Password)), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(req.Name),
		Email:        normalizeEmail(req.Email),
		PasswordHash: string(hash),
		Role:         req.Role,
		HealthCenter: strings.TrimSpace(req.HealthCenter),
		CreatedAt:    s.now(),
	}

	if _, err := s.repo.FindByEmail(ctx, u.Email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", zap.String("user_id", u.ID.String()), zap.String("role", u.Role))
	return u, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*Profile, error) {
	email := normalizeEmail(req.Email)
	if email == "" {
		return nil, &ValidationError{Fields: map[string]string{"email": "Email is required"}}
	}

	profile := Profile{Email: email, Name: strings.SplitN(email, "@", 2)[0]}

	u, err := s.repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(strings.TrimSpace(req.Password))) == nil {
			profile = u.Profile()
		}
	case !errors.Is(err, ErrNotFound):
		s.logger.Warn("user lookup failed during login", zap.Error(err))
	}

	if err := s.kv.Put(ctx, keyCurrentUser, profile); err != nil {
		return nil, fmt.Errorf("store current user: %w", err)
	}
	if err := s.kv.Put(ctx, keyAuthenticated, true); err != nil {
		return nil, fmt.Errorf("store current user: %w", err)
	}
	return &profile, nil
}

func (s *service) CurrentUser(ctx context.Context) (*Profile, error) {
	var authenticated bool
	if err := s.kv.Get(ctx, keyAuthenticated, &authenticated); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, err
	}
	if !authenticated {
		return nil, ErrNotAuthenticated
	}

	var p Profile
	if err := s.kv.Get(ctx, keyCurrentUser, &p); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, err
	}
	return &p, nil
}

func (s *service) Logout(ctx context.Context) error {
	if err := s.kv.Delete(ctx, keyCurrentUser); err != nil {
		return err
	}
	return s.kv.Delete(ctx, keyAuthenticated)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateSignup(req SignupRequest) error {
	fields := map[string]string{}

	if strings.TrimSpace(req.Name) == "" {
		fields["name"] = "Full name is required"
	}
	if strings.TrimSpace(req.Email) == "" {
		fields["email"] = "Email is required"
	} else if !emailPattern.MatchString(req.Email) {
		fields["email"] = "Please enter a valid email"
	}
	// Passwords are stored trimmed, so the rules apply to the trimmed value.
	password := strings.TrimSpace(req.Password)
	if password == "" {
		fields["password"] = "Password is required"
	} else if len(password) < minPasswordLength {
		fields["password"] = "Password must be at least 6 characters"
	}
	if password != strings.TrimSpace(req.ConfirmPassword) {
		fields["confirmPassword"] = "Passwords do not match"
	}
	if req.Role == "" {
		fields["role"] = "Please select your role"
	} else if !slices.Contains(Roles, req.Role) {
		fields["role"] = "Unknown role"
	}
	if strings.TrimSpace(req.HealthCenter) == "" {
		fields["healthCenter"] = "Health center name is required"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
