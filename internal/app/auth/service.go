package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/avellar/chat-service/internal/domain"
	"github.com/avellar/chat-service/internal/observability"
)

const bcryptCost = 10

// Service handles registration, login and federated sign-in. It issues
// and verifies the bearer tokens the HTTP middleware relies on.
type Service struct {
	users  domain.UserStore
	secret string
	now    func() time.Time
}

func NewService(users domain.UserStore, secret string) *Service {
	return &Service{
		users:  users,
		secret: secret,
		now:    time.Now,
	}
}

type RegisterInput struct {
	Email    string
	Password string
	Username string
}

type AuthOutput struct {
	Token string
	User  *domain.User
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*AuthOutput, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if email == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: email and password required", domain.ErrInvalidInput)
	}

	log := observability.LoggerFromContext(ctx).With("email", email)

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	now := s.now()
	user := &domain.User{
		Email:        email,
		Username:     in.Username,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.CreateUser(user); err != nil {
		log.Warn("registration failed", "error", err)
		return nil, err
	}

	token, err := IssueToken(s.secret, user.ID)
	if err != nil {
		return nil, err
	}

	log.Info("user registered", "user_id", user.ID)
	return &AuthOutput{Token: token, User: user}, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*AuthOutput, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.users.GetUserByEmail(email)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := IssueToken(s.secret, user.ID)
	if err != nil {
		return nil, err
	}

	observability.LoggerFromContext(ctx).Info("user logged in", "user_id", user.ID)
	return &AuthOutput{Token: token, User: user}, nil
}

// Profile returns the user for a verified token's subject.
func (s *Service) Profile(ctx context.Context, userID domain.UserID) (*domain.User, error) {
	return s.users.GetUserByID(userID)
}

// Verify checks a raw bearer token and returns the caller's user id.
func (s *Service) Verify(tokenString string) (domain.UserID, error) {
	return VerifyToken(s.secret, tokenString)
}

// LoginWithGoogle finds or creates the user matching a verified Google
// profile and issues a token, mirroring local login.
func (s *Service) LoginWithGoogle(ctx context.Context, googleID, email, name string) (*AuthOutput, error) {
	if googleID == "" {
		return nil, fmt.Errorf("%w: missing google id", domain.ErrInvalidInput)
	}

	log := observability.LoggerFromContext(ctx).With("google_id", googleID)

	user, err := s.users.GetUserByGoogleID(googleID)
	if err != nil {
		now := s.now()
		user = &domain.User{
			Email:     strings.ToLower(email),
			Username:  name,
			GoogleID:  googleID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.users.CreateUser(user); err != nil {
			log.Error("creating federated user", "error", err)
			return nil, err
		}
		log.Info("federated user created", "user_id", user.ID)
	}

	token, err := IssueToken(s.secret, user.ID)
	if err != nil {
		return nil, err
	}

	return &AuthOutput{Token: token, User: user}, nil
}
