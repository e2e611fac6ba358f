package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/fieldops/fieldmirror/internal/auth"
)

func main() {
	subject := flag.String("subject", "", "who the key identifies (required)")
	role := flag.String("role", "operator", "role claim embedded in the key")
	ttl := flag.Duration("ttl", 90*24*time.Hour, "key lifetime")
	flag.Parse()

	secret := os.Getenv("FM_SERVER_JWT_SECRET")
	if secret == "" {
		log.Fatal("FM_SERVER_JWT_SECRET must be set")
	}
	if *subject == "" {
		log.Fatal("-subject is required")
	}

	token, err := auth.SignAPIKey(secret, *subject, *role, *ttl)
	if err != nil {
		log.Fatalf("sign api key: %v", err)
	}

	fmt.Println("New API Key:", token)
}
