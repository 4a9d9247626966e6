package api

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"medication-sku-service/internal/service"
)

type AuthHandler struct {
	authService service.AuthService
	payloads    *PayloadValidator
}

func NewAuthHandler(authService service.AuthService, payloads *PayloadValidator) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		payloads:    payloads,
	}
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"max=255"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type UserProfileResponse struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	IsStaff     bool      `json:"is_staff"`
	IsSuperuser bool      `json:"is_superuser"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var request RegisterRequest
	if fields := h.payloads.Decode(c.Body(), &request); fields != nil {
		return validationFailed(c, fields)
	}

	user, err := h.authService.RegisterUser(c.UserContext(), request.Email, request.Password, request.Name)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailExists):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"detail": "Email already exists"})
		case errors.Is(err, service.ErrEmailRequired):
			return validationFailed(c, map[string][]string{"email": {err.Error()}})
		}
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":    user.ID,
		"email": user.Email,
		"name":  user.Name,
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var request LoginRequest
	if fields := h.payloads.Decode(c.Body(), &request); fields != nil {
		return validationFailed(c, fields)
	}

	accessToken, refreshToken, err := h.authService.LoginUser(c.UserContext(), request.Email, request.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) || errors.Is(err, service.ErrInactiveUser) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"detail": "Invalid credentials"})
		}
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var request RefreshRequest
	if fields := h.payloads.Decode(c.Body(), &request); fields != nil {
		return validationFailed(c, fields)
	}

	newAccessToken, err := h.authService.RefreshToken(c.UserContext(), request.RefreshToken)
	if err != nil {
		if errors.Is(err, service.ErrTokenInvalid) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"detail": detailInvalidToken})
		}
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"access_token": newAccessToken})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var request RefreshRequest
	if fields := h.payloads.Decode(c.Body(), &request); fields != nil {
		return validationFailed(c, fields)
	}

	if err := h.authService.LogoutUser(c.UserContext(), request.RefreshToken); err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Successfully logged out"})
}

func (h *AuthHandler) GetUserProfile(c *fiber.Ctx) error {
	user, err := CurrentUser(c)
	if err != nil {
		return unauthorized(c)
	}

	return c.Status(fiber.StatusOK).JSON(UserProfileResponse{
		ID:          user.ID,
		Email:       user.Email,
		Name:        user.Name,
		IsStaff:     user.IsStaff,
		IsSuperuser: user.IsSuperuser,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	})
}
