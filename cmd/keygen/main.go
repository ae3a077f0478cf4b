// Command keygen generates the credentials a hookbridge deployment needs: a
// caller API key and an Ed25519 keypair for signature-verifying middleware.
package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/hookbridge/hookbridge/internal/auth"
)

func main() {
	apiKeyOnly := flag.Bool("api-key-only", false, "only generate a caller API key")
	signingOnly := flag.Bool("signing-only", false, "only generate an Ed25519 signing keypair")
	flag.Parse()

	if *apiKeyOnly && *signingOnly {
		fmt.Fprintln(os.Stderr, "error: -api-key-only and -signing-only are mutually exclusive")
		os.Exit(1)
	}

	fmt.Println("=== hookbridge credentials ===")
	fmt.Println()

	if !*signingOnly {
		apiKey, err := auth.GenerateKey()
		if err != nil {
			log.Fatalf("failed to generate api key: %v", err)
		}
		fmt.Println("  API key (config: endpoint.api_key):")
		fmt.Printf("  %s\n", apiKey)
		fmt.Println()
	}

	if !*apiKeyOnly {
		pub, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			log.Fatalf("failed to generate signing keypair: %v", err)
		}
		fmt.Println("  Ed25519 public key (config: endpoint.signature_verification_key):")
		fmt.Printf("  %s\n", hex.EncodeToString(pub))
		fmt.Println()
		fmt.Println("  Ed25519 private key (give to the signing party, keep secret):")
		fmt.Printf("  %s\n", hex.EncodeToString(priv.Seed()))
		fmt.Println()
	}

	fmt.Println("==============================")
}
