package api

import (
	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Auth          *AuthHandler
	MedicationSKU *MedicationSKUHandler
	Tag           *TagHandler
}

// SetupRoutes mounts the versioned API. Everything except the auth
// endpoints requires a bearer token.
func SetupRoutes(app *fiber.App, auth Authenticator, h Handlers) {
	v1 := app.Group("/v1")

	authRoutes := v1.Group("/auth")
	authRoutes.Post("/register", h.Auth.Register)
	authRoutes.Post("/login", h.Auth.Login)
	authRoutes.Post("/refresh", h.Auth.Refresh)
	authRoutes.Post("/logout", h.Auth.Logout)

	userRoutes := v1.Group("/users")
	userRoutes.Use(AuthMiddleware(auth))
	userRoutes.Get("/me", h.Auth.GetUserProfile)

	skuRoutes := v1.Group("/medication_skus")
	skuRoutes.Use(AuthMiddleware(auth))
	skuRoutes.Get("/", h.MedicationSKU.List)
	skuRoutes.Post("/", h.MedicationSKU.Create)
	skuRoutes.Post("/bulk_create", h.MedicationSKU.BulkCreate)
	skuRoutes.Get("/:id", h.MedicationSKU.Retrieve)
	skuRoutes.Put("/:id", h.MedicationSKU.Update)
	skuRoutes.Patch("/:id", h.MedicationSKU.PartialUpdate)
	skuRoutes.Delete("/:id", h.MedicationSKU.Delete)

	tagRoutes := v1.Group("/tags")
	tagRoutes.Use(AuthMiddleware(auth))
	tagRoutes.Get("/", h.Tag.List)
	tagRoutes.Post("/", h.Tag.Create)
	tagRoutes.Get("/:id", h.Tag.Retrieve)
	tagRoutes.Put("/:id", h.Tag.Update)
	tagRoutes.Patch("/:id", h.Tag.PartialUpdate)
	tagRoutes.Delete("/:id", h.Tag.Delete)
}
