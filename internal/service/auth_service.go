package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"medication-sku-service/internal/jwt"
	"medication-sku-service/internal/model"
	"medication-sku-service/internal/repository"
)

type AuthService interface {
	RegisterUser(ctx context.Context, email, password, name string) (*model.User, error)
	CreateSuperuser(ctx context.Context, email, password string) (*model.User, error)
	LoginUser(ctx context.Context, email, password string) (accessToken string, refreshToken string, err error)
	GetUserProfile(ctx context.Context, userID uuid.UUID) (*model.User, error)
	RefreshToken(ctx context.Context, refreshTokenString string) (newAccessToken string, err error)
	LogoutUser(ctx context.Context, refreshTokenString string) error
	Authenticate(ctx context.Context, accessToken string) (*model.User, error)
}

type authService struct {
	userRepo  repository.UserRepository
	tokenRepo repository.TokenRepository
	tokens    *jwt.Manager
}

func NewAuthService(userRepo repository.UserRepository, tokenRepo repository.TokenRepository, tokens *jwt.Manager) AuthService {
	return &authService{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		tokens:    tokens,
	}
}

// NormalizeEmail lower-cases the whole address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) RegisterUser(ctx context.Context, email, password, name string) (*model.User, error) {
	return s.createUser(ctx, &model.User{Email: email, Name: name, IsActive: true}, password)
}

func (s *authService) CreateSuperuser(ctx context.Context, email, password string) (*model.User, error) {
	return s.createUser(ctx, &model.User{
		Email:       email,
		IsActive:    true,
		IsStaff:     true,
		IsSuperuser: true,
	}, password)
}

func (s *authService) createUser(ctx context.Context, user *model.User, password string) (*model.User, error) {
	user.Email = NormalizeEmail(user.Email)
	if user.Email == "" {
		return nil, ErrEmailRequired
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = string(hashedPassword)

	newID, err := s.userRepo.Create(ctx, user)
	if err != nil {
		var uniqueErr *repository.UniqueViolationError
		if errors.As(err, &uniqueErr) {
			return nil, ErrEmailExists
		}
		return nil, err
	}

	user.ID = newID

	return user, nil
}

func (s *authService) LoginUser(ctx context.Context, email, password string) (string, string, error) {
	user, err := s.userRepo.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return "", "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", "", ErrInvalidCredentials
	}

	if !user.IsActive {
		return "", "", ErrInactiveUser
	}

	accessToken, refreshToken, err := s.tokens.GenerateTokens(user)
	if err != nil {
		return "", "", err
	}

	refreshTokenModel := &model.RefreshToken{
		UserID:    user.ID,
		TokenHash: hashToken(refreshToken),
		ExpiresAt: time.Now().Add(s.tokens.RefreshTTL()),
	}

	if err := s.tokenRepo.Create(ctx, refreshTokenModel); err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

func (s *authService) GetUserProfile(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *authService) RefreshToken(ctx context.Context, refreshTokenString string) (string, error) {
	userID, err := s.tokens.Subject(refreshTokenString, jwt.TokenTypeRefresh)
	if err != nil {
		return "", ErrTokenInvalid
	}

	if _, err := s.tokenRepo.FindByTokenHash(ctx, hashToken(refreshTokenString)); err != nil {
		return "", ErrTokenInvalid
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil || !user.IsActive {
		return "", ErrTokenInvalid
	}

	return s.tokens.GenerateAccessToken(user)
}

func (s *authService) LogoutUser(ctx context.Context, refreshTokenString string) error {
	return s.tokenRepo.Delete(ctx, hashToken(refreshTokenString))
}

// Authenticate resolves a bearer access token to an active user.
func (s *authService) Authenticate(ctx context.Context, accessToken string) (*model.User, error) {
	userID, err := s.tokens.Subject(accessToken, jwt.TokenTypeAccess)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, ErrInactiveUser
	}

	return user, nil
}

func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
