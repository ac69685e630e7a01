// Package main is a utility for generating bcrypt hashes of administrator
// passwords. The back office stores only bcrypt hashes — never the raw
// passwords — so this tool is used when manually seeding the first
// administrator row in the database without running the full server.
package main

import (
	"encoding/base64"
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <password>\n", os.Args[0])
		os.Exit(1)
	}

	password := os.Args[1]
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	fmt.Printf("password_secret (for administrators table): %s\n", string(hash))
	fmt.Printf("passwordSecret request field (base64):      %s\n",
		base64.StdEncoding.EncodeToString([]byte(password)))
}
