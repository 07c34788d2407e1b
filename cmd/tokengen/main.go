// Package main provides a CLI tool for generating bearer tokens and signing
// keys for local estatehub development. Tokens only authenticate users that
// exist in the target server's user store.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"estatehub/internal/access/models"
	"estatehub/internal/access/token"
	id "estatehub/pkg/domain"
	"estatehub/pkg/secrets"
)

const (
	// Dev signing key - matches config.go when JWT_SIGNING_KEY is not set
	devSigningKey = "dev-secret-key-change-in-production"

	defaultIssuer   = "estatehub"
	defaultAudience = "estatehub-api"
	defaultTokenTTL = time.Hour
)

type tokenOutput struct {
	Token     string            `json:"token"`
	Type      string            `json:"type"`
	ExpiresIn string            `json:"expires_in"`
	Claims    map[string]any    `json:"claims,omitempty"`
	Usage     map[string]string `json:"usage"`
}

func main() {
	accessCmd := flag.NewFlagSet("access", flag.ExitOnError)
	keyCmd := flag.NewFlagSet("key", flag.ExitOnError)

	accessUserID := accessCmd.String("user-id", "", "User ID (UUID). Generated if empty.")
	accessTenantID := accessCmd.String("tenant-id", "", "Tenant ID (UUID). Required unless role is super_admin.")
	accessRole := accessCmd.String("role", string(models.RoleTenantAdmin), "User role")
	accessTTL := accessCmd.Duration("ttl", defaultTokenTTL, "Token time-to-live")
	accessKey := accessCmd.String("signing-key", "", "HS256 signing key. Defaults to JWT_SIGNING_KEY or the dev key.")
	accessIssuer := accessCmd.String("issuer", defaultIssuer, "Token issuer")
	accessAudience := accessCmd.String("audience", defaultAudience, "Token audience")
	accessJSON := accessCmd.Bool("json", false, "Output as JSON")

	keyJSON := keyCmd.Bool("json", false, "Output as JSON")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "access":
		_ = accessCmd.Parse(os.Args[2:]) //nolint:errcheck // ExitOnError
		generateAccessToken(accessParams{
			userID:   *accessUserID,
			tenantID: *accessTenantID,
			role:     *accessRole,
			ttl:      *accessTTL,
			key:      *accessKey,
			issuer:   *accessIssuer,
			audience: *accessAudience,
		}, *accessJSON)
	case "key":
		_ = keyCmd.Parse(os.Args[2:]) //nolint:errcheck // ExitOnError
		generateSigningKey(*keyJSON)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`tokengen - Generate bearer tokens for the estatehub API

WARNING: Tokens signed with the dev key will NOT work in production.

Usage:
  tokengen <command> [flags]

Commands:
  access    Generate an access token (JWT)
  key       Generate a random signing key for JWT_SIGNING_KEY

Examples:
  # Token for a tenant admin
  tokengen access -user-id "550e8400-e29b-41d4-a716-446655440000" -tenant-id "6ba7b810-9dad-11d1-80b4-00c04fd430c8"

  # Platform super admin token valid for 8 hours
  tokengen access -user-id "550e8400-e29b-41d4-a716-446655440000" -role super_admin -ttl 8h

  # Output as JSON
  tokengen access -json

Use "tokengen <command> -h" for more information about a command.`)
}

type accessParams struct {
	userID   string
	tenantID string
	role     string
	ttl      time.Duration
	key      string
	issuer   string
	audience string
}

func generateAccessToken(p accessParams, jsonOutput bool) {
	role := models.Role(p.role)
	if !role.IsValid() {
		fail("Invalid role: %s", p.role)
	}

	user := &models.User{
		ID:     parseOrGenerateUserID(p.userID),
		Role:   role,
		Active: true,
	}
	if p.tenantID != "" {
		tid, err := id.ParseTenantID(p.tenantID)
		if err != nil {
			fail("Invalid tenant-id: %v", err)
		}
		user.TenantID = &tid
	} else if role != models.RoleSuperAdmin {
		fail("tenant-id is required for role %s", role)
	}

	keyType := "custom"
	signingKey := p.key
	if signingKey == "" {
		signingKey, keyType = os.Getenv("JWT_SIGNING_KEY"), "env"
	}
	if signingKey == "" {
		signingKey, keyType = devSigningKey, "dev"
	}

	svc := token.NewService(signingKey, p.issuer, p.audience, p.ttl)
	signed, err := svc.Issue(context.Background(), user)
	if err != nil {
		fail("Error generating token: %v", err)
	}

	claims := map[string]any{
		"user_id": user.ID.String(),
		"role":    string(role),
		"iss":     p.issuer,
		"aud":     p.audience,
	}
	if user.TenantID != nil {
		claims["tenant_id"] = user.TenantID.String()
	}

	if jsonOutput {
		printJSON(tokenOutput{
			Token:     signed,
			Type:      "access_token",
			ExpiresIn: p.ttl.String(),
			Claims:    claims,
			Usage: map[string]string{
				"header":      "Authorization: Bearer <token>",
				"signing_key": keyType,
			},
		})
		return
	}

	fmt.Println("Access Token (JWT)")
	fmt.Println("==================")
	fmt.Printf("Signing Key: %s\n", keyType)
	fmt.Printf("Expires In:  %s\n", p.ttl)
	fmt.Printf("User ID:     %s\n", user.ID)
	fmt.Printf("Role:        %s\n", role)
	if user.TenantID != nil {
		fmt.Printf("Tenant ID:   %s\n", user.TenantID)
	}
	fmt.Println()
	fmt.Println("Token:")
	fmt.Println(signed)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  curl -H \"Authorization: Bearer <token>\" -H \"X-Tenant-Slug: <slug>\" http://localhost:8080/properties")
}

func generateSigningKey(jsonOutput bool) {
	key, err := secrets.Generate()
	if err != nil {
		fail("Error generating key: %v", err)
	}
	if jsonOutput {
		printJSON(map[string]string{"signing_key": key})
		return
	}
	fmt.Printf("JWT_SIGNING_KEY=%s\n", key)
}

func parseOrGenerateUserID(input string) id.UserID {
	if input == "" {
		return id.NewUserID()
	}
	parsed, err := id.ParseUserID(input)
	if err != nil {
		fail("Invalid user-id: %v", err)
	}
	return parsed
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fail("Error encoding JSON: %v", err)
	}
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
