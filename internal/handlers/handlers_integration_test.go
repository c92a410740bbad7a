package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"eminence/internal/handlers"
	"eminence/internal/models"
	"eminence/internal/repositories"
	"eminence/internal/services"
	"eminence/pkg/cloudinary"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// stubSink is an in-memory stand-in for the Telegram channel.
type stubSink struct {
	nextMessageID int64
	sendErr       error
	edited        []int64
	deleted       []int64
}

func (s *stubSink) Send(*models.Product) (int64, error) {
	if s.sendErr != nil {
		return 0, s.sendErr
	}
	return s.nextMessageID, nil
}

func (s *stubSink) Edit(messageID int64, _ *models.Product) error {
	s.edited = append(s.edited, messageID)
	return nil
}

func (s *stubSink) Delete(messageID int64) error {
	s.deleted = append(s.deleted, messageID)
	return nil
}

// stubUploader hands out sequential fake URLs.
type stubUploader struct {
	uploads int
}

func (u *stubUploader) Upload(_ context.Context, file io.Reader, _ string) (string, error) {
	if _, err := io.Copy(io.Discard, file); err != nil {
		return "", err
	}
	u.uploads++
	return fmt.Sprintf("https://res.example/img-%d.jpg", u.uploads), nil
}

// setupApp builds a Fiber app over an isolated in-memory SQLite database
// with all handlers wired, plus a seeded admin user.
func setupApp(t *testing.T, sink *stubSink) (*fiber.App, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&models.Category{}, &models.Product{}, &models.User{}))

	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	assert.NoError(t, err)
	assert.NoError(t, db.Create(&models.User{Username: "admin", Password: string(hashed)}).Error)

	productRepo := repositories.NewGORMProductRepository(db)
	categoryRepo := repositories.NewGORMCategoryRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)

	cloudinaryClient := cloudinary.NewClient(cloudinary.Config{
		CloudName: "demo",
		APIKey:    "key",
		APISecret: "topsecret",
	}, nil)

	productService := services.NewProductService(productRepo, &stubUploader{}, sink, nil)
	categoryService := services.NewCategoryService(categoryRepo, productRepo)
	authService := services.NewAuthService(userRepo)

	app := fiber.New()
	api := app.Group("/api")
	handlers.NewAuthHandler(authService).RegisterRoutes(api)
	handlers.NewUserHandler(authService).RegisterRoutes(api)
	handlers.NewCategoryHandler(categoryService).RegisterRoutes(api)
	handlers.NewProductHandler(productService).RegisterRoutes(api)
	handlers.NewUploadHandler(cloudinaryClient).RegisterRoutes(api)

	return app, db
}

func jsonRequest(method, target string, body interface{}) *http.Request {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(method, target, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// productForm builds a multipart product request with optional image files.
func productForm(method, target string, fields map[string]string, images ...string) *http.Request {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		writer.WriteField(key, value)
	}
	for i, content := range images {
		part, _ := writer.CreateFormFile("images", fmt.Sprintf("img%d.jpg", i))
		part.Write([]byte(content))
	}
	writer.Close()

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func decodeJSON(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	resp.Body.Close()
}

func createCategory(t *testing.T, app *fiber.App, name string) models.Category {
	t.Helper()
	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/categories", fiber.Map{"name": name}), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var category models.Category
	decodeJSON(t, resp, &category)
	return category
}

func TestLogin(t *testing.T) {
	app, _ := setupApp(t, &stubSink{})

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/auth/login", fiber.Map{
		"username": "admin",
		"password": "password123",
	}), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	decodeJSON(t, resp, &body)
	assert.Equal(t, "admin", body["username"])
	assert.NotContains(t, body, "password")

	resp, err = app.Test(jsonRequest(http.MethodPost, "/api/auth/login", fiber.Map{
		"username": "admin",
		"password": "wrong",
	}), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = app.Test(jsonRequest(http.MethodPost, "/api/auth/login", fiber.Map{
		"username": "admin",
	}), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpdateCredentials(t *testing.T) {
	app, _ := setupApp(t, &stubSink{})

	// Username-only change needs no current password.
	resp, err := app.Test(jsonRequest(http.MethodPatch, "/api/users/1/credentials", fiber.Map{
		"username": "superadmin",
	}), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Password change without proof is rejected.
	resp, err = app.Test(jsonRequest(http.MethodPatch, "/api/users/1/credentials", fiber.Map{
		"newPassword": "hacked",
	}), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// With the correct current password the change goes through and the new
	// password logs in.
	resp, err = app.Test(jsonRequest(http.MethodPatch, "/api/users/1/credentials", fiber.Map{
		"currentPassword": "password123",
		"newPassword":     "betterpassword",
	}), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(jsonRequest(http.MethodPost, "/api/auth/login", fiber.Map{
		"username": "superadmin",
		"password": "betterpassword",
	}), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(jsonRequest(http.MethodPatch, "/api/users/999/credentials", fiber.Map{
		"username": "ghost",
	}), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCategoryCascadeDelete(t *testing.T) {
	app, db := setupApp(t, &stubSink{})
	category := createCategory(t, app, "Irons")

	for i := 0; i < 3; i++ {
		assert.NoError(t, db.Create(&models.Product{
			Name:       fmt.Sprintf("Iron %d", i),
			Code:       fmt.Sprintf("HN-%d", i),
			CategoryID: category.ID,
		}).Error)
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/categories/%d", category.ID), nil), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var productCount, categoryCount int64
	db.Model(&models.Product{}).Where("category_id = ?", category.ID).Count(&productCount)
	db.Model(&models.Category{}).Where("id = ?", category.ID).Count(&categoryCount)
	assert.Zero(t, productCount)
	assert.Zero(t, categoryCount)

	resp, err = app.Test(httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/categories/%d", category.ID), nil), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProductLifecycle(t *testing.T) {
	sink := &stubSink{nextMessageID: 99}
	app, _ := setupApp(t, sink)
	category := createCategory(t, app, "Irons")

	fields := map[string]string{
		"name":          "Steam Iron",
		"code":          "HN-100",
		"categoryId":    fmt.Sprint(category.ID),
		"priceCustomer": "1250000",
		"length":        "10",
		"width":         "20",
		"height":        "30",
		"weight":        "1.5",
	}

	// Create: the response carries the recorded channel message id.
	resp, err := app.Test(productForm(http.MethodPost, "/api/products", fields, "img-a", "img-b"), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var created models.Product
	decodeJSON(t, resp, &created)
	if assert.NotNil(t, created.TelegramMessageID) {
		assert.Equal(t, int64(99), *created.TelegramMessageID)
	}
	assert.Equal(t, models.ImageList{"https://res.example/img-1.jpg", "https://res.example/img-2.jpg"}, created.Images)

	// Duplicate (name, code) is rejected.
	resp, err = app.Test(productForm(http.MethodPost, "/api/products", fields), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Get joins the category display name.
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/products/%d", created.ID), nil), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var fetched models.Product
	decodeJSON(t, resp, &fetched)
	if assert.NotNil(t, fetched.CategoryName) {
		assert.Equal(t, "Irons", *fetched.CategoryName)
	}

	// Update: retained subset plus one new upload, in that order; the
	// existing channel message is edited in place.
	updateFields := map[string]string{
		"name":           "Steam Iron Pro",
		"code":           "HN-100",
		"categoryId":     fmt.Sprint(category.ID),
		"priceCustomer":  "1350000",
		"existingImages": `["https://res.example/img-1.jpg"]`,
	}
	resp, err = app.Test(productForm(http.MethodPatch, fmt.Sprintf("/api/products/%d", created.ID), updateFields, "img-c"), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var updated models.Product
	decodeJSON(t, resp, &updated)
	assert.Equal(t, models.ImageList{"https://res.example/img-1.jpg", "https://res.example/img-3.jpg"}, updated.Images)
	assert.Equal(t, []int64{99}, sink.edited)

	// Delete removes the channel message and the row; a second delete is 404.
	resp, err = app.Test(httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/products/%d", created.ID), nil), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []int64{99}, sink.deleted)

	resp, err = app.Test(httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/products/%d", created.ID), nil), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProductCreate_ChannelFailureStillCreatesRow(t *testing.T) {
	app, _ := setupApp(t, &stubSink{sendErr: errors.New("telegram is down")})
	category := createCategory(t, app, "Irons")

	resp, err := app.Test(productForm(http.MethodPost, "/api/products", map[string]string{
		"name":       "Steam Iron",
		"code":       "HN-100",
		"categoryId": fmt.Sprint(category.ID),
	}), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.Product
	decodeJSON(t, resp, &created)
	assert.Nil(t, created.TelegramMessageID)
}

func TestProductCreate_MissingRequiredFields(t *testing.T) {
	app, _ := setupApp(t, &stubSink{})

	resp, err := app.Test(productForm(http.MethodPost, "/api/products", map[string]string{
		"name": "No code or category",
	}), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSignUpload(t *testing.T) {
	app, _ := setupApp(t, &stubSink{})

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/sign-upload", fiber.Map{
		"folder":    "catalog",
		"timestamp": 1726000000,
	}), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	decodeJSON(t, resp, &body)
	assert.Equal(t, "c755edf66820dfe39098f2bc977e585077f40737", body["signature"])

	resp, err = app.Test(jsonRequest(http.MethodPost, "/api/sign-upload", fiber.Map{
		"timestamp": 1726000000,
	}), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
