package config

import (
	"log"
	"net/http"
	"net/url"

	"github.com/spf13/viper"
)

// Config carries every environment-derived setting, materialized once at
// process start and passed into constructors. Business logic never reads
// the environment directly.
type Config struct {
	AppPort     string
	DatabaseURL string

	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string

	TelegramToken   string
	TelegramChatID  string
	ProductPageBase string

	RabbitMQURL string
	ProxyURL    string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	viper.SetDefault("APP_PORT", ":8080")
	viper.SetDefault("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=eminence port=5432 sslmode=disable")
	viper.SetDefault("PRODUCT_PAGE_BASE", "https://kasraeminence.com/product/")
	viper.AutomaticEnv()

	return Config{
		AppPort:             viper.GetString("APP_PORT"),
		DatabaseURL:         viper.GetString("DATABASE_URL"),
		CloudinaryCloudName: viper.GetString("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:    viper.GetString("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret: viper.GetString("CLOUDINARY_API_SECRET"),
		TelegramToken:       viper.GetString("TELEGRAM_TOKEN"),
		TelegramChatID:      viper.GetString("TELEGRAM_CHAT_ID"),
		ProductPageBase:     viper.GetString("PRODUCT_PAGE_BASE"),
		RabbitMQURL:         viper.GetString("RABBITMQ_URL"),
		ProxyURL:            viper.GetString("PROXY_URL"),
	}
}

// OutboundHTTPClient builds the shared client for Telegram and Cloudinary
// calls, routed through PROXY_URL when one is configured.
func (c Config) OutboundHTTPClient() *http.Client {
	if c.ProxyURL == "" {
		return &http.Client{}
	}
	proxy, err := url.Parse(c.ProxyURL)
	if err != nil {
		log.Printf("Invalid PROXY_URL %q, ignoring: %v", c.ProxyURL, err)
		return &http.Client{}
	}
	return &http.Client{Transport: &http.Transport{Proxy: http.ProxyURL(proxy)}}
}
