// Command token mints a development session token.
//
//	token -uid 3f1c... -role manager
//
// The secret comes from -secret, then SESSION_SECRET (.env is honored).
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/warp/project-engine/api"
	"github.com/warp/project-engine/config"
	"github.com/warp/project-engine/ledger"
)

func main() {
	uid := flag.String("uid", "", "User ID")
	role := flag.String("role", "employee", "Role: admin, manager or employee")
	secret := flag.String("secret", "", "Signing secret (overrides SESSION_SECRET)")
	ttl := flag.Duration("ttl", 24*time.Hour, "Token lifetime")
	flag.Parse()

	if *uid == "" {
		flag.Usage()
		os.Exit(2)
	}
	r := ledger.Role(*role)
	if !r.Valid() {
		log.Fatalf("Invalid role %q", *role)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *secret != "" {
		cfg.SessionSecret = *secret
	}

	sessions := api.NewSessions(cfg.SessionSecret)
	sessions.TTL = *ttl
	token, err := sessions.Issue(*uid, r)
	if err != nil {
		log.Fatalf("Failed to sign token: %v", err)
	}
	fmt.Println(token)
}
