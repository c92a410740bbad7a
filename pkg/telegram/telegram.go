// Package telegram mirrors catalog products into a Telegram channel as
// photo messages with MarkdownV2 captions and a fixed inline keyboard.
package telegram

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"eminence/internal/models"
)

const placeholderImage = "https://via.placeholder.com/300x300.png?text=No+Image"

// ErrNotConfigured is returned when the bot token or chat id is missing.
var ErrNotConfigured = errors.New("telegram token or chat id is not configured")

// Config holds the channel credentials and the deep-link base URL.
type Config struct {
	Token           string
	ChatID          string
	ProductPageBase string
}

// Client performs send/edit/delete calls against the Telegram Bot API.
type Client struct {
	cfg     Config
	http    *http.Client
	apiBase string
}

// NewClient creates a new Telegram client. A nil httpClient falls back to
// http.DefaultClient.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if cfg.Token == "" || cfg.ChatID == "" {
		log.Println("Warning: Telegram token or chat ID is missing; channel sync is disabled")
	}
	return &Client{
		cfg:     cfg,
		http:    httpClient,
		apiBase: "https://api.telegram.org",
	}
}

// apiResponse is the Bot API envelope. Result varies by method (a Message
// object for sendPhoto/editMessageCaption, a bare boolean for deleteMessage),
// so it stays raw and each caller decodes what it needs.
type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

// Send posts the product as a photo message and returns the message id
// assigned by Telegram. The first image URL is used, or a placeholder when
// the product has none.
func (c *Client) Send(product *models.Product) (int64, error) {
	if c.cfg.Token == "" || c.cfg.ChatID == "" {
		return 0, ErrNotConfigured
	}

	photo := placeholderImage
	if len(product.Images) > 0 {
		photo = product.Images[0]
	}

	resp, err := c.post("sendPhoto", map[string]interface{}{
		"chat_id":      c.cfg.ChatID,
		"photo":        photo,
		"caption":      BuildCaption(product, c.cfg.ProductPageBase),
		"parse_mode":   "MarkdownV2",
		"reply_markup": BuildKeyboard(),
	})
	if err != nil {
		return 0, err
	}

	var result struct {
		MessageID int64 `json:"message_id"`
	}
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return 0, fmt.Errorf("failed to decode sendPhoto result: %w", err)
	}
	return result.MessageID, nil
}

// Edit replaces the caption and keyboard of an existing product message
// with the product's current state.
func (c *Client) Edit(messageID int64, product *models.Product) error {
	if c.cfg.Token == "" || c.cfg.ChatID == "" {
		return ErrNotConfigured
	}

	_, err := c.post("editMessageCaption", map[string]interface{}{
		"chat_id":      c.cfg.ChatID,
		"message_id":   messageID,
		"caption":      BuildCaption(product, c.cfg.ProductPageBase),
		"parse_mode":   "MarkdownV2",
		"reply_markup": BuildKeyboard(),
	})
	return err
}

// Delete removes a product message from the channel.
func (c *Client) Delete(messageID int64) error {
	if c.cfg.Token == "" || c.cfg.ChatID == "" {
		return ErrNotConfigured
	}

	_, err := c.post("deleteMessage", map[string]interface{}{
		"chat_id":    c.cfg.ChatID,
		"message_id": messageID,
	})
	return err
}

func (c *Client) post(method string, payload map[string]interface{}) (*apiResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", method, err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.apiBase, c.cfg.Token, method)
	resp, err := c.http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("telegram %s request failed: %w", method, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read telegram %s response: %w", method, err)
	}

	var api apiResponse
	if err := json.Unmarshal(data, &api); err != nil {
		return nil, fmt.Errorf("failed to decode telegram %s response: %w", method, err)
	}
	if resp.StatusCode != http.StatusOK || !api.OK {
		return nil, fmt.Errorf("telegram %s failed (status %d): %s", method, resp.StatusCode, api.Description)
	}
	return &api, nil
}
