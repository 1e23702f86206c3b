// Command credentials prints the secrets the API server checks: a bcrypt
// hash for API_KEY_HASH, or a signed bearer token for JWT_SECRET setups.
//
//	credentials hash-key <key>
//	credentials token -sub agent-1 -role agent -ttl 720h
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"propcrm/internal/auth"
	"propcrm/internal/cli"
)

func main() {
	cli.LoadEnvFile()
	if len(os.Args) < 2 {
		usage()
	}

	switch os.Args[1] {
	case "hash-key":
		if len(os.Args) != 3 {
			usage()
		}
		hash, err := auth.HashAPIKey(os.Args[2])
		if err != nil {
			log.Fatalf("hash key: %v", err)
		}
		fmt.Println(hash)

	case "token":
		fs := flag.NewFlagSet("token", flag.ExitOnError)
		sub := fs.String("sub", "agent", "token subject")
		role := fs.String("role", "agent", "role claim")
		ttl := fs.Duration("ttl", 30*24*time.Hour, "token lifetime")
		_ = fs.Parse(os.Args[2:])

		secret := os.Getenv("JWT_SECRET")
		if secret == "" {
			log.Fatalf("set JWT_SECRET")
		}
		token, err := auth.New(secret, "").IssueToken(*sub, *role, *ttl)
		if err != nil {
			log.Fatalf("issue token: %v", err)
		}
		fmt.Println(token)

	default:
		usage()
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: credentials hash-key <key> | credentials token [-sub s] [-role r] [-ttl d]")
	os.Exit(2)
}
