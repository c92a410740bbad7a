package handlers

import (
	"log"
	"strconv"

	"eminence/pkg/cloudinary"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// UploadHandler signs direct client-to-Cloudinary uploads so the browser
// can push image bytes to the provider without ever seeing the API secret.
type UploadHandler struct {
	cloudinary *cloudinary.Client
	validate   *validator.Validate
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(client *cloudinary.Client) *UploadHandler {
	return &UploadHandler{
		cloudinary: client,
		validate:   validator.New(),
	}
}

// RegisterRoutes registers the upload signing route with the Fiber app.
func (h *UploadHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/sign-upload", h.HandleSignUpload)
}

// SignUploadRequest represents the request body for upload signing.
type SignUploadRequest struct {
	Folder    string `json:"folder" validate:"required"`
	Timestamp int64  `json:"timestamp" validate:"required"`
}

// HandleSignUpload computes the upload signature for a folder/timestamp pair.
func (h *UploadHandler) HandleSignUpload(c *fiber.Ctx) error {
	var req SignUploadRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing sign-upload request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return respondStructErrors(c, err)
	}

	signature := h.cloudinary.SignUpload(req.Folder, strconv.FormatInt(req.Timestamp, 10))
	return c.JSON(fiber.Map{
		"signature": signature,
	})
}
