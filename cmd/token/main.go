// cmd/token/main.go
//
// Issues a session token for an owner id.
//
// Context
// -------
// Accounts live outside this service.  Whatever signs users in calls the
// same auth.Signer with the shared session secret; this tool does it by
// hand for development and support work.
//
//	go run ./cmd/token -user 42 -email ada@example.com
//
// The token goes in an Authorization: Bearer header, or is exchanged for a
// cookie with POST /api/session.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/yanizio/adept-forms/internal/auth"
	"github.com/yanizio/adept-forms/internal/config"
	"github.com/yanizio/adept-forms/internal/vault"
)

func main() {
	user := flag.String("user", "", "owner id to embed (required)")
	email := flag.String("email", "", "optional e-mail claim")
	flag.Parse()
	if *user == "" {
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load()
	ctx := context.Background()

	var resolver config.SecretResolver
	if vc, err := vault.New(ctx); err == nil {
		resolver = vc
	} else if !errors.Is(err, vault.ErrNotConfigured) {
		log.Fatalf("connect vault: %v", err)
	}

	cfg, err := config.Load(ctx, resolver)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	signer, err := auth.NewSigner([]byte(cfg.Security.SessionSecret), cfg.Security.SessionTTL)
	if err != nil {
		log.Fatalf("session signer: %v", err)
	}
	tok, err := signer.Issue(*user, *email)
	if err != nil {
		log.Fatalf("issue: %v", err)
	}
	fmt.Println(tok)
}
