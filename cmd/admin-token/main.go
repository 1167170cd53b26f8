// Command admin-token prints a bearer token for the mutating user routes.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"userdirectory/internal/common"
	"userdirectory/internal/config"
)

func main() {
	subject := flag.String("subject", "admin", "token subject")
	role := flag.String("role", "admin", "role claim")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	cfg := config.LoadConfig()
	tokens := common.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	if !tokens.Enabled() {
		log.Fatal("JWT_SECRET is not set; auth is disabled and no token is needed")
	}

	token, err := tokens.GenerateToken(*subject, *role, *ttl)
	if err != nil {
		log.Fatalf("Failed to generate token: %v", err)
	}
	fmt.Println(token)
}
