package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"

	"eminence/internal/apperrors"
	"eminence/internal/models"
	"eminence/internal/repositories"
)

// MessageSink mirrors products into the Telegram channel. Send returns the
// provider-assigned message identifier.
type MessageSink interface {
	Send(product *models.Product) (int64, error)
	Edit(messageID int64, product *models.Product) error
	Delete(messageID int64) error
}

// ImageUploader stores image bytes with an external provider and returns a
// durable URL.
type ImageUploader interface {
	Upload(ctx context.Context, file io.Reader, folder string) (string, error)
}

// EventPublisher broadcasts product lifecycle events to the message queue.
type EventPublisher interface {
	PublishProductEvent(event string, payload map[string]interface{}) error
}

const uploadFolder = "products"

// ProductInput carries the writable fields of a product request. Numeric
// fields default to zero when the client omits them.
type ProductInput struct {
	Name          string
	Code          string
	CategoryID    uint
	PriceCustomer float64
	Description   string
	Length        float64
	Width         float64
	Height        float64
	Weight        float64
}

// ProductService orchestrates product CRUD together with best-effort
// propagation of product state into the Telegram channel.
//
// The store commit always happens first. The Telegram call runs after it,
// and its outcome is recorded back into the row as a second, independent
// write, so a row whose telegram_message_id is null is "unsynced" even if a
// message may have gone out between the two writes. There is no retry here;
// the reconcile command re-scans unsynced rows out of band.
type ProductService struct {
	repo     repositories.ProductRepository
	uploader ImageUploader
	sink     MessageSink
	events   EventPublisher // may be nil when no queue is configured
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository, uploader ImageUploader, sink MessageSink, events EventPublisher) *ProductService {
	return &ProductService{
		repo:     repo,
		uploader: uploader,
		sink:     sink,
		events:   events,
	}
}

// List retrieves all products with their category names, ordered by id.
func (s *ProductService) List() ([]models.Product, error) {
	return s.repo.GetAll()
}

// Get retrieves a single product with its category name.
func (s *ProductService) Get(id uint) (*models.Product, error) {
	return s.repo.GetByID(id)
}

// Create inserts a product and attempts to announce it in the channel.
// A failed announcement leaves the row unsynced and is not an error; the
// returned product reflects whichever sync state was reached.
func (s *ProductService) Create(ctx context.Context, input ProductInput, uploads []io.Reader) (*models.Product, error) {
	if input.Name == "" || input.Code == "" || input.CategoryID == 0 {
		return nil, fmt.Errorf("name, code and category are required: %w", apperrors.ErrValidation)
	}

	taken, err := s.repo.ExistsByNameAndCode(input.Name, input.Code, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("product %q (%s): %w", input.Name, input.Code, apperrors.ErrConflict)
	}

	urls, err := s.uploadAll(ctx, uploads)
	if err != nil {
		return nil, err
	}

	product := &models.Product{
		Name:          input.Name,
		Code:          input.Code,
		CategoryID:    input.CategoryID,
		PriceCustomer: input.PriceCustomer,
		Description:   input.Description,
		Images:        urls,
		Length:        input.Length,
		Width:         input.Width,
		Height:        input.Height,
		Weight:        input.Weight,
	}
	if err := s.repo.Create(product); err != nil {
		return nil, err
	}

	if messageID, err := s.sink.Send(product); err != nil {
		log.Printf("Failed to send product %d to Telegram, row stays unsynced: %v", product.ID, err)
	} else if err := s.repo.SetTelegramMessageID(product.ID, messageID); err != nil {
		log.Printf("Failed to record telegram message %d for product %d: %v", messageID, product.ID, err)
	} else {
		product.TelegramMessageID = &messageID
	}

	s.publish("product.created", product)
	return product, nil
}

// Update applies the field update and, when the product already has a
// channel message, edits it in place. The persisted image sequence is the
// caller-retained subset followed by newly uploaded URLs, in that order.
func (s *ProductService) Update(ctx context.Context, id uint, input ProductInput, existingImages string, uploads []io.Reader) (*models.Product, error) {
	if input.Name == "" || input.Code == "" || input.CategoryID == 0 {
		return nil, fmt.Errorf("name, code and category are required: %w", apperrors.ErrValidation)
	}

	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	taken, err := s.repo.ExistsByNameAndCode(input.Name, input.Code, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("product %q (%s): %w", input.Name, input.Code, apperrors.ErrConflict)
	}

	newURLs, err := s.uploadAll(ctx, uploads)
	if err != nil {
		return nil, err
	}

	product.Name = input.Name
	product.Code = input.Code
	product.CategoryID = input.CategoryID
	product.PriceCustomer = input.PriceCustomer
	product.Description = input.Description
	product.Length = input.Length
	product.Width = input.Width
	product.Height = input.Height
	product.Weight = input.Weight
	product.Images = append(parseImageList(existingImages), newURLs...)

	if err := s.repo.Update(product); err != nil {
		return nil, err
	}

	if product.TelegramMessageID != nil {
		// Failures keep the stale message and the stored reference; drift is
		// only observable in the logs.
		if err := s.sink.Edit(*product.TelegramMessageID, product); err != nil {
			log.Printf("Failed to edit telegram message %d for product %d: %v", *product.TelegramMessageID, product.ID, err)
		}
	}

	s.publish("product.updated", product)
	return product, nil
}

// Delete removes a product, taking its channel message down first when one
// exists. The message delete is best-effort.
func (s *ProductService) Delete(id uint) error {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}

	if product.TelegramMessageID != nil {
		if err := s.sink.Delete(*product.TelegramMessageID); err != nil {
			log.Printf("Failed to delete telegram message %d for product %d: %v", *product.TelegramMessageID, id, err)
		}
	}

	if err := s.repo.Delete(id); err != nil {
		return err
	}

	s.publish("product.deleted", product)
	return nil
}

func (s *ProductService) uploadAll(ctx context.Context, uploads []io.Reader) (models.ImageList, error) {
	urls := models.ImageList{}
	for _, file := range uploads {
		url, err := s.uploader.Upload(ctx, file, uploadFolder)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrUpload, err)
		}
		urls = append(urls, url)
	}
	return urls, nil
}

// parseImageList decodes the caller-supplied retained image subset.
// Malformed input counts as an empty subset, not a failure.
func parseImageList(raw string) models.ImageList {
	var images models.ImageList
	if raw == "" || json.Unmarshal([]byte(raw), &images) != nil {
		return models.ImageList{}
	}
	return images
}

func (s *ProductService) publish(event string, product *models.Product) {
	if s.events == nil {
		return
	}
	payload := map[string]interface{}{
		"productID": product.ID,
		"name":      product.Name,
		"code":      product.Code,
	}
	if err := s.events.PublishProductEvent(event, payload); err != nil {
		log.Printf("Warning: failed to publish %s event for product %d: %v", event, product.ID, err)
	}
}
