package main

import (
	"fmt"
	"log"

	"github.com/smarttransit/backoffice-api/internal/utils"
)

func main() {
	fmt.Println("===========================================")
	fmt.Println("Secret Generator for SmartTransit back office")
	fmt.Println("===========================================")
	fmt.Println()

	secrets, err := utils.GenerateSecrets()
	if err != nil {
		log.Fatalf("Failed to generate secrets: %v", err)
	}

	fmt.Println("Add these to your .env file or deployment secrets:")
	fmt.Println()
	fmt.Printf("JWT_SECRET=%s\n", secrets.JWTSecret)
	fmt.Printf("JWT_REFRESH_SECRET=%s\n", secrets.JWTRefreshSecret)
	fmt.Printf("WEBHOOK_SECRET=%s\n", secrets.WebhookSecret)
	fmt.Println()
	fmt.Println("Share WEBHOOK_SECRET with the payment gateway only. Never commit these values.")
	fmt.Println("===========================================")
}
