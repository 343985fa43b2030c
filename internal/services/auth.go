package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/knowitapp/knowit-backend/internal/data/repos"
	"github.com/knowitapp/knowit-backend/internal/domain"
	errs "github.com/knowitapp/knowit-backend/internal/pkg/errors"
	"github.com/knowitapp/knowit-backend/internal/platform/apierr"
	"github.com/knowitapp/knowit-backend/internal/platform/logger"
	"github.com/knowitapp/knowit-backend/internal/requestdata"
)

const bcryptCost = 10

// CodeTokenExpired is the machine-readable code clients use to trigger
// a re-login instead of generic error handling.
const CodeTokenExpired = "TOKEN_EXPIRED"

type AuthService interface {
	Register(ctx context.Context, username, password string) (*domain.User, error)
	Login(ctx context.Context, username, password string) (string, error)
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GetAccessTTL() time.Duration
}

type accessClaims struct {
	jwt.RegisteredClaims
	UserID uint `json:"user_id"`
}

type authService struct {
	db           *gorm.DB
	log          *logger.Logger
	userRepo     repos.UserRepo
	jwtSecretKey string
	accessTTL    time.Duration
}

func NewAuthService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo, jwtSecretKey string, accessTTL time.Duration) AuthService {
	serviceLog := log.With("service", "AuthService")
	return &authService{
		db:           db,
		log:          serviceLog,
		userRepo:     userRepo,
		jwtSecretKey: jwtSecretKey,
		accessTTL:    accessTTL,
	}
}

func (s *authService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apierr.BadRequest("missing_credentials", errs.ErrInvalidArgument)
	}

	existing, err := s.userRepo.GetByUsernames(ctx, nil, []string{username})
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, apierr.Conflict("username_taken", errs.ErrConflict)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{Username: username, Password: string(hash)}
	if _, err := s.userRepo.Create(ctx, nil, []*domain.User{user}); err != nil {
		// A concurrent register can slip past the lookup above; the
		// unique index on username is the authority.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apierr.Conflict("username_taken", errs.ErrConflict)
		}
		return nil, err
	}
	return user, nil
}

func (s *authService) Login(ctx context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", apierr.BadRequest("missing_credentials", errs.ErrInvalidArgument)
	}

	users, err := s.userRepo.GetByUsernames(ctx, nil, []string{username})
	if err != nil {
		return "", err
	}
	if len(users) == 0 {
		return "", apierr.Unauthorized("invalid_credentials", errs.ErrUnauthorized)
	}
	user := users[0]

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", apierr.Unauthorized("invalid_credentials", errs.ErrUnauthorized)
	}

	if err := s.userRepo.TouchLastLogin(ctx, nil, user.ID, time.Now()); err != nil {
		return "", err
	}

	return s.generateAccessToken(user)
}

func (s *authService) generateAccessToken(user *domain.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
		UserID: user.ID,
	})
	return token.SignedString([]byte(s.jwtSecretKey))
}

// SetContextFromToken verifies the bearer token, confirms the user row
// still exists, and attaches the caller identity to the context. Every
// downstream ownership check trusts only this identity.
func (s *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	claims := &accessClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.jwtSecretKey), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ctx, apierr.Unauthorized(CodeTokenExpired, errs.ErrUnauthorized)
		}
		return ctx, apierr.Unauthorized("invalid_token", errs.ErrUnauthorized)
	}
	if !token.Valid || claims.UserID == 0 {
		return ctx, apierr.Unauthorized("invalid_token", errs.ErrUnauthorized)
	}

	users, err := s.userRepo.GetByIDs(ctx, nil, []uint{claims.UserID})
	if err != nil {
		return ctx, err
	}
	if len(users) == 0 {
		return ctx, apierr.Unauthorized("invalid_token", errs.ErrUnauthorized)
	}

	return requestdata.WithRequestData(ctx, &requestdata.RequestData{
		TokenString: tokenString,
		UserID:      users[0].ID,
	}), nil
}

func (s *authService) GetAccessTTL() time.Duration {
	return s.accessTTL
}
