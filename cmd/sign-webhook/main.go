// Command sign-webhook signs a JSON payload the way the payment gateway does, so callbacks
// can be replayed by hand with curl.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/smarttransit/backoffice-api/internal/middleware"
	"github.com/smarttransit/backoffice-api/internal/utils"
)

func main() {
	file := flag.String("file", "", "path to the JSON payload")
	endpoint := flag.String("endpoint", "payment-confirmed", "webhook endpoint under /api/webhooks/")
	baseURL := flag.String("url", "http://localhost:8080", "API base URL")
	flag.Parse()

	if *file == "" {
		log.Fatal("-file is required")
	}

	_ = godotenv.Load()
	secret := os.Getenv("WEBHOOK_SECRET")
	if secret == "" {
		log.Fatal("WEBHOOK_SECRET is not set")
	}

	body, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("Failed to read payload: %v", err)
	}
	if !json.Valid(body) {
		log.Fatalf("%s does not contain valid JSON", *file)
	}

	ts := time.Now().Unix()
	signature := utils.SignWebhookPayload(secret, ts, body)

	fmt.Printf("%s: %d\n", middleware.TimestampHeader, ts)
	fmt.Printf("%s: %s\n", middleware.SignatureHeader, signature)
	fmt.Println()
	fmt.Printf("curl -X POST %s/api/webhooks/%s \\\n", *baseURL, *endpoint)
	fmt.Printf("  -H 'Content-Type: application/json' \\\n")
	fmt.Printf("  -H '%s: %d' \\\n", middleware.TimestampHeader, ts)
	fmt.Printf("  -H '%s: %s' \\\n", middleware.SignatureHeader, signature)
	fmt.Printf("  --data-binary @%s\n", *file)
}
