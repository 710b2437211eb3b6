package user

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-blog-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-blog-go/internal/user/entity"
	userrepo "github.com/ovaphlow/pitchfork/service-blog-go/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-blog-go/pkg/apperr"
	"github.com/ovaphlow/pitchfork/service-blog-go/pkg/utilities"
)

var (
	ErrUserExists               = apperr.Conflict("User already exists")
	ErrBadCredentials           = apperr.Validation("Invalid credentials")
	ErrUserNotFound             = apperr.NotFound("User not found")
	ErrCurrentPasswordRequired  = apperr.Validation("Current password is required")
	ErrCurrentPasswordIncorrect = apperr.Validation("Current password is incorrect")
)

// TokenIssuer signs bearer tokens for an identity.
type TokenIssuer interface {
	Issue(identityID string) (string, error)
}

// RegisterInput is the body of POST /auth/register.
type RegisterInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,maxbytes=72"`
	Name     string `json:"name" validate:"required"`
}

// LoginInput is the body of POST /auth/login. Only presence is checked so a
// malformed email gets the same answer as an unknown one.
type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ProfileInput is the body of PUT /auth/profile. Empty fields are left unchanged.
type ProfileInput struct {
	Name            string `json:"name"`
	CurrentPassword string `json:"currentPassword"`
	Password        string `json:"password" validate:"omitempty,min=6,maxbytes=72"`
}

// AuthResult is returned by register and login.
type AuthResult struct {
	User  *entity.User `json:"user"`
	Token string       `json:"token"`
}

// UserService orchestrates registration, login and profile flows.
type UserService struct {
	repo   userrepo.Repository
	hasher auth.PasswordHasher
	tokens TokenIssuer
	logger *zap.SugaredLogger

	dummyOnce sync.Once
	dummyHash string
}

// NewUserService wires the service. A nil hasher falls back to bcrypt at the
// default cost.
func NewUserService(r userrepo.Repository, hasher auth.PasswordHasher, tokens TokenIssuer, logger *zap.SugaredLogger) *UserService {
	if hasher == nil {
		hasher = auth.NewHasher(auth.HasherConfig{})
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &UserService{repo: r, hasher: hasher, tokens: tokens, logger: logger}
}

// Register creates an identity and returns it with a fresh token.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	if err := utilities.Validate(in); err != nil {
		return nil, err
	}
	_, err := s.repo.GetByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return nil, ErrUserExists
	case !errors.Is(err, userrepo.ErrNotFound):
		return nil, apperr.Internal("Error creating user", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperr.Internal("Error creating user", err)
	}
	u := &entity.User{ID: utilities.NewKSUID(), Email: in.Email, Name: in.Name, PasswordHash: hash}
	if err := s.repo.Create(ctx, u); err != nil {
		// lost a race with a concurrent registration
		if errors.Is(err, userrepo.ErrEmailTaken) {
			return nil, ErrUserExists
		}
		return nil, apperr.Internal("Error creating user", err)
	}
	s.logger.Infow("user registered", "user_id", u.ID)
	return s.authResult(u, "Error creating user")
}

// Login checks credentials. Unknown email and wrong password are reported identically.
func (s *UserService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	if err := utilities.Validate(in); err != nil {
		return nil, ErrBadCredentials
	}
	u, err := s.repo.GetByEmail(ctx, in.Email)
	if errors.Is(err, userrepo.ErrNotFound) {
		// spend the same hashing time as a real mismatch
		s.hasher.Verify(s.dummy(), in.Password)
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, apperr.Internal("Error logging in", err)
	}
	if !s.hasher.Verify(u.PasswordHash, in.Password) {
		return nil, ErrBadCredentials
	}

	if s.hasher.NeedsRehash(u.PasswordHash) {
		if hash, err := s.hasher.Hash(in.Password); err == nil {
			u.PasswordHash = hash
			if err := s.repo.Update(ctx, u); err != nil {
				s.logger.Warnw("password rehash failed", "user_id", u.ID, "err", err)
			}
		}
	}
	return s.authResult(u, "Error logging in")
}

// Me loads the acting identity.
func (s *UserService) Me(ctx context.Context, id string) (*entity.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, userrepo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, apperr.Internal("Error fetching user", err)
	}
	return u, nil
}

// UpdateProfile changes the name and/or password of the acting identity.
// A new password requires the current one.
func (s *UserService) UpdateProfile(ctx context.Context, id string, in ProfileInput) (*entity.User, error) {
	if err := utilities.Validate(in); err != nil {
		return nil, err
	}
	var updated *entity.User
	err := s.repo.WithTx(ctx, func(r userrepo.Repository) error {
		u, err := r.GetByID(ctx, id)
		if errors.Is(err, userrepo.ErrNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return err
		}
		if in.Password != "" {
			if in.CurrentPassword == "" {
				return ErrCurrentPasswordRequired
			}
			if !s.hasher.Verify(u.PasswordHash, in.CurrentPassword) {
				return ErrCurrentPasswordIncorrect
			}
			hash, err := s.hasher.Hash(in.Password)
			if err != nil {
				return err
			}
			u.PasswordHash = hash
		}
		if in.Name != "" {
			u.Name = in.Name
		}
		if err := r.Update(ctx, u); err != nil {
			return err
		}
		updated = u
		return nil
	})
	if err != nil {
		if _, ok := apperr.As(err); ok {
			return nil, err
		}
		return nil, apperr.Internal("Error updating profile", err)
	}
	return updated, nil
}

func (s *UserService) authResult(u *entity.User, failMsg string) (*AuthResult, error) {
	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, apperr.Internal(failMsg, err)
	}
	return &AuthResult{User: u, Token: token}, nil
}

func (s *UserService) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash("not-a-real-password")
	})
	return s.dummyHash
}
