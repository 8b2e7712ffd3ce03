// Package auth registers users, checks their credentials and issues the
// bearer tokens that identify them to the watchlist API.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/trogers1052/stock-watchlist/internal/database"
	"github.com/trogers1052/stock-watchlist/internal/models"
)

var (
	// ErrInvalidCredentials is returned for an unknown user or wrong password
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken is returned for a missing, malformed or expired token
	ErrInvalidToken = errors.New("invalid token")
)

// ValidationError is a user-facing registration or login error
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// UserRepository defines the database operations for users
type UserRepository interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UserExists(ctx context.Context, username, email string) (bool, error)
}

// RegisterRequest is the body of a registration request
type RegisterRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginRequest is the body of a login request
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Claims are the JWT claims identifying a user
type Claims struct {
	UserID   int64  `json:"id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Service implements registration, login and token verification
type Service struct {
	users    UserRepository
	secret   []byte
	ttl      time.Duration
	cost     int
	validate *validator.Validate
	logger   zerolog.Logger
	now      func() time.Time
}

// NewService creates an auth service signing tokens with secret
func NewService(users UserRepository, secret string, ttl time.Duration, logger zerolog.Logger) *Service {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{
		users:    users,
		secret:   []byte(secret),
		ttl:      ttl,
		cost:     bcrypt.DefaultCost,
		validate: validator.New(),
		logger:   logger,
		now:      time.Now,
	}
}

// Register validates req and creates the user with a bcrypt password hash
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	if err := s.validateRegister(req); err != nil {
		return nil, err
	}

	exists, err := s.users.UserExists(ctx, req.Username, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if exists {
		return nil, s.conflict(ctx, req.Username)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		// lost a race with a concurrent registration
		if exists, checkErr := s.users.UserExists(ctx, req.Username, req.Email); checkErr == nil && exists {
			return nil, &ValidationError{Message: "Username or email already exists"}
		}
		return nil, err
	}

	s.logger.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("user registered")
	return user, nil
}

func (s *Service) validateRegister(req RegisterRequest) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("failed to validate registration: %w", err)
	}
	// required wins over format errors, matching field order
	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			return &ValidationError{Message: "All fields are required"}
		}
	}
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "email":
			return &ValidationError{Message: "Invalid email format"}
		case "min":
			return &ValidationError{Message: "Password must be at least 6 characters"}
		}
	}
	return &ValidationError{Message: fieldErrs[0].Error()}
}

func (s *Service) conflict(ctx context.Context, username string) error {
	if _, err := s.users.GetUserByUsername(ctx, username); err == nil {
		return &ValidationError{Message: "Username already exists"}
	}
	return &ValidationError{Message: "Email already exists"}
}

// Login checks the credentials and returns a signed token
func (s *Service) Login(ctx context.Context, req LoginRequest) (string, error) {
	if err := s.validate.Struct(req); err != nil {
		return "", ErrInvalidCredentials
	}

	user, err := s.users.GetUserByUsername(ctx, req.Username)
	if errors.Is(err, database.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return "", ErrInvalidCredentials
	}

	return s.IssueToken(user)
}

// IssueToken signs an HS256 token for user valid for the configured TTL
func (s *Service) IssueToken(user *models.User) (string, error) {
	now := s.now()
	claims := Claims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// ParseToken verifies a token and returns its claims
func (s *Service) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
