package main

import (
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run cmd/hash-admin-key/main.go <admin-key>")
		fmt.Println("Example: go run cmd/hash-admin-key/main.go \"console-key-12345\"")
		os.Exit(1)
	}

	adminKey := os.Args[1]
	if len(adminKey) < 12 {
		fmt.Fprintln(os.Stderr, "Admin key must be at least 12 characters")
		os.Exit(1)
	}

	// Hash the admin key
	hash, err := bcrypt.GenerateFromPassword([]byte(adminKey), 10)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to hash admin key: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ Admin key hashed successfully!\n\n")
	fmt.Printf("Add this line to your .env:\n")
	fmt.Printf("ADMIN_KEY_HASH='%s'\n", hash)
	fmt.Printf("\n⚠️  IMPORTANT: Save the admin key securely! Only the hash is stored.\n")
	fmt.Printf("\nSend the key in the %s header:\n", "X-Admin-Key")
	fmt.Printf("X-Admin-Key: %s\n", adminKey)
}
