// Command reconcile repairs drift between the products table and the
// Telegram channel.
//
// By default it re-scans products that never got a channel message
// (telegram_message_id IS NULL) and retries the send once per row. With
// -legacy it instead imports a historical sent_products.json file and
// backfills message ids for rows that predate the tracking column.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"eminence/internal/config"
	"eminence/internal/repositories"
	"eminence/pkg/telegram"
)

type legacyEntry struct {
	ProductID uint  `json:"productId"`
	MessageID int64 `json:"messageId"`
}

func main() {
	legacyFile := flag.String("legacy", "", "path to a legacy sent_products.json mapping to import instead of resending")
	flag.Parse()

	cfg := config.Load()

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	productRepo := repositories.NewGORMProductRepository(db)

	if *legacyFile != "" {
		importLegacy(productRepo, *legacyFile)
		return
	}

	telegramClient := telegram.NewClient(telegram.Config{
		Token:           cfg.TelegramToken,
		ChatID:          cfg.TelegramChatID,
		ProductPageBase: cfg.ProductPageBase,
	}, cfg.OutboundHTTPClient())

	resendUnsynced(productRepo, telegramClient)
}

// resendUnsynced retries the channel send for every unsynced product and
// persists the message id of each success. Failures are logged and left for
// the next run.
func resendUnsynced(repo repositories.ProductRepository, sink *telegram.Client) {
	products, err := repo.FindUnsynced()
	if err != nil {
		log.Fatalf("Failed to scan unsynced products: %v", err)
	}
	if len(products) == 0 {
		log.Println("No unsynced products found")
		return
	}

	var synced int
	for i := range products {
		product := &products[i]
		messageID, err := sink.Send(product)
		if err != nil {
			log.Printf("Product %d: send failed: %v", product.ID, err)
			continue
		}
		if err := repo.SetTelegramMessageID(product.ID, messageID); err != nil {
			log.Printf("Product %d: failed to record message %d: %v", product.ID, messageID, err)
			continue
		}
		log.Printf("Product %d: synced (message_id: %d)", product.ID, messageID)
		synced++
	}
	log.Printf("Reconciliation finished: %d/%d products synced", synced, len(products))
}

// importLegacy backfills message ids from the old sent_products.json file.
func importLegacy(repo repositories.ProductRepository, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", path, err)
	}

	var entries []legacyEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		log.Fatalf("Failed to parse %s: %v", path, err)
	}

	for _, entry := range entries {
		if entry.ProductID == 0 || entry.MessageID == 0 {
			continue
		}
		if err := repo.SetTelegramMessageID(entry.ProductID, entry.MessageID); err != nil {
			log.Printf("Product %d: %v", entry.ProductID, err)
			continue
		}
		log.Printf("Product %d: backfilled (message_id: %d)", entry.ProductID, entry.MessageID)
	}
	log.Println("Legacy Telegram message import finished")
}
