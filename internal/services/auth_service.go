package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"katalog/internal/models"
	"katalog/internal/repositories"
)

// ErrEmailTaken is returned when registering with an email that already has
// an account.
var ErrEmailTaken = errors.New("email already registered")

// ErrInvalidCredentials is returned on any login failure. Whether the email
// exists is deliberately not revealed.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService handles registration, login and JWT issuance/validation.
type AuthService struct {
	userRepo  repositories.Repository[models.User]
	jwtSecret []byte
	tokenTTL  time.Duration
	log       *logrus.Logger
}

// NewAuthService creates a new AuthService. Tokens are valid for 24 hours.
func NewAuthService(userRepo repositories.Repository[models.User], jwtSecret string, log *logrus.Logger) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  24 * time.Hour,
		log:       log,
	}
}

// Register creates a new account and returns it with a fresh token. The
// existence check gives a friendly conflict error; the unique index on email
// is what actually guarantees no duplicate row when two registrations race.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*UserResponse, error) {
	existing, err := s.userRepo.GetWhere(ctx, func(u *models.User) bool {
		return u.Email == input.Email
	})
	if err != nil {
		return nil, fmt.Errorf("failed to check existing email: %w", err)
	}
	if len(existing) > 0 {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        input.Email,
		PasswordHash: string(hash),
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		PhoneNumber:  input.PhoneNumber,
	}

	created, err := s.userRepo.Add(ctx, user)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	token, err := s.generateToken(created)
	if err != nil {
		return nil, err
	}
	return toUserResponse(created, token), nil
}

// Login verifies the credentials and returns the account with a fresh token.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*UserResponse, error) {
	matches, err := s.userRepo.GetWhere(ctx, func(u *models.User) bool {
		return u.Email == input.Email
	})
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if len(matches) == 0 {
		return nil, ErrInvalidCredentials
	}

	user := &matches[0]
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}
	return toUserResponse(user, token), nil
}

// ValidateToken parses and validates a bearer token, returning its claims.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}

func (s *AuthService) generateToken(user *models.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"exp":     now.Add(s.tokenTTL).Unix(),
		"iat":     now.Unix(),
	})

	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return signed, nil
}
