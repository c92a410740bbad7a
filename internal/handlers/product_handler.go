package handlers

import (
	"io"
	"log"
	"mime/multipart"
	"strconv"

	"eminence/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ProductHandler handles HTTP requests for products. Create and update are
// multipart endpoints: scalar fields plus zero or more files under "images".
type ProductHandler struct {
	service *services.ProductService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{
		service: service,
	}
}

// RegisterRoutes registers the product routes with the Fiber app.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleList)
	productRoutes.Get("/:id", h.HandleGet)
	productRoutes.Post("/", h.HandleCreate)
	productRoutes.Patch("/:id", h.HandleUpdate)
	productRoutes.Delete("/:id", h.HandleDelete)
}

// HandleList retrieves all products with their category names.
func (h *ProductHandler) HandleList(c *fiber.Ctx) error {
	products, err := h.service.List()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(products)
}

// HandleGet retrieves a single product.
func (h *ProductHandler) HandleGet(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid product id",
		})
	}

	product, err := h.service.Get(uint(id))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(product)
}

// HandleCreate inserts a product and mirrors it into the Telegram channel.
// The response reflects whichever sync state was reached.
func (h *ProductHandler) HandleCreate(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		log.Printf("Error parsing product form: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid multipart form",
			"error":   err.Error(),
		})
	}

	uploads, closeAll, err := openFiles(form.File["images"])
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Could not read uploaded images",
			"error":   err.Error(),
		})
	}
	defer closeAll()

	product, err := h.service.Create(c.UserContext(), productInputFromForm(form), uploads)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdate applies a field update. The persisted image sequence is the
// retained subset from the "existingImages" JSON field followed by newly
// uploaded files.
func (h *ProductHandler) HandleUpdate(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid product id",
		})
	}

	form, err := c.MultipartForm()
	if err != nil {
		log.Printf("Error parsing product form: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid multipart form",
			"error":   err.Error(),
		})
	}

	uploads, closeAll, err := openFiles(form.File["images"])
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Could not read uploaded images",
			"error":   err.Error(),
		})
	}
	defer closeAll()

	product, err := h.service.Update(
		c.UserContext(),
		uint(id),
		productInputFromForm(form),
		formValue(form, "existingImages"),
		uploads,
	)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(product)
}

// HandleDelete removes a product and its channel message.
func (h *ProductHandler) HandleDelete(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid product id",
		})
	}

	if err := h.service.Delete(uint(id)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Product deleted successfully",
	})
}

func productInputFromForm(form *multipart.Form) services.ProductInput {
	return services.ProductInput{
		Name:          formValue(form, "name"),
		Code:          formValue(form, "code"),
		CategoryID:    formUint(form, "categoryId"),
		PriceCustomer: formFloat(form, "priceCustomer"),
		Description:   formValue(form, "description"),
		Length:        formFloat(form, "length"),
		Width:         formFloat(form, "width"),
		Height:        formFloat(form, "height"),
		Weight:        formFloat(form, "weight"),
	}
}

func formValue(form *multipart.Form, key string) string {
	if values := form.Value[key]; len(values) > 0 {
		return values[0]
	}
	return ""
}

// formFloat parses a numeric form field, defaulting to zero when the field
// is absent or malformed.
func formFloat(form *multipart.Form, key string) float64 {
	v, err := strconv.ParseFloat(formValue(form, key), 64)
	if err != nil {
		return 0
	}
	return v
}

func formUint(form *multipart.Form, key string) uint {
	v, err := strconv.ParseUint(formValue(form, key), 10, 32)
	if err != nil {
		return 0
	}
	return uint(v)
}

// openFiles opens every uploaded file header and returns the readers plus a
// single closer for all of them.
func openFiles(headers []*multipart.FileHeader) ([]io.Reader, func(), error) {
	readers := make([]io.Reader, 0, len(headers))
	opened := make([]multipart.File, 0, len(headers))
	closeAll := func() {
		for _, f := range opened {
			f.Close()
		}
	}
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		opened = append(opened, file)
		readers = append(readers, file)
	}
	return readers, closeAll, nil
}
