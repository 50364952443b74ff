package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"

	"github.com/Layr-Labs/eigenx-sigrelay-go/internal/keyGenerator"
	"github.com/Layr-Labs/eigenx-sigrelay-go/pkg/budget"
	"github.com/Layr-Labs/eigenx-sigrelay-go/pkg/client"
	"github.com/Layr-Labs/eigenx-sigrelay-go/pkg/logger"
	"github.com/Layr-Labs/eigenx-sigrelay-go/pkg/transportSigner/inMemoryTransportSigner"
	"github.com/Layr-Labs/eigenx-sigrelay-go/pkg/types"
)

func main() {
	app := &cli.App{
		Name:  "relay-client",
		Usage: "Client for the signature relay",
		Description: `Submits signature batches to a relay and manages its identities.

Every request is signed with the given secp256k1 key; the relay identifies the
caller by the address recovered from that signature.`,
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "relay-url",
				Usage:   "Relay base URL",
				Value:   "http://localhost:8080",
				EnvVars: []string{"RELAY_URL"},
			},
			&cli.StringFlag{
				Name:    "private-key",
				Usage:   "Hex secp256k1 private key to sign requests with",
				EnvVars: []string{"RELAY_CLIENT_PRIVATE_KEY"},
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable verbose logging",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "sign",
				Usage: "Submit a batch of signature requests from a JSON file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "requests",
						Usage:    "Path to a JSON array of {path, payload, scheme, domain_id}",
						Required: true,
					},
					&cli.Uint64Flag{
						Name:  "prepaid-tgas",
						Usage: "Prepaid gas in TGas (default: exactly the required budget)",
					},
				},
				Action: signCommand,
			},
			{
				Name:  "budget",
				Usage: "Print the gas required for a batch size",
				Flags: []cli.Flag{
					&cli.Uint64Flag{
						Name:     "requests",
						Usage:    "Number of requests in the batch",
						Required: true,
					},
				},
				Action: budgetCommand,
			},
			{
				Name:  "set-authorized-caller",
				Usage: "Replace the authorized caller (owner only)",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "address", Usage: "New authorized caller", Required: true},
				},
				Action: func(c *cli.Context) error {
					return updateIdentity(c, (*client.Client).UpdateAuthorizedCaller)
				},
			},
			{
				Name:  "set-owner",
				Usage: "Transfer ownership (owner only)",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "address", Usage: "New owner", Required: true},
				},
				Action: func(c *cli.Context) error {
					return updateIdentity(c, (*client.Client).UpdateOwner)
				},
			},
			{
				Name:   "config",
				Usage:  "Show the relay's current identities",
				Action: configCommand,
			},
			{
				Name:   "keygen",
				Usage:  "Generate a secp256k1 key for use as an owner or authorized caller",
				Action: keygenCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// createClient creates a new relay client from CLI context
func createClient(c *cli.Context) (*client.Client, error) {
	zapLogger, err := logger.NewLogger(&logger.LoggerConfig{Debug: c.Bool("verbose")})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	if c.String("private-key") == "" {
		return nil, fmt.Errorf("--private-key is required")
	}
	signer, err := inMemoryTransportSigner.NewECDSAInMemoryTransportSignerFromHex(c.String("private-key"), zapLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to load private key: %w", err)
	}

	return client.NewClient(&client.ClientConfig{
		BaseURL: c.String("relay-url"),
		Signer:  signer,
		Logger:  zapLogger,
	})
}

func signCommand(c *cli.Context) error {
	data, err := os.ReadFile(c.String("requests"))
	if err != nil {
		return fmt.Errorf("failed to read requests file: %w", err)
	}

	var requests []types.SignRequest
	if err := json.Unmarshal(data, &requests); err != nil {
		return fmt.Errorf("failed to parse requests file: %w", err)
	}

	prepaid := budget.Calculate(uint64(len(requests))).Total
	if c.IsSet("prepaid-tgas") {
		prepaid = budget.FromTGas(c.Uint64("prepaid-tgas"))
	}

	rc, err := createClient(c)
	if err != nil {
		return err
	}

	resp, err := rc.RequestSignatures(context.Background(), prepaid, requests)
	if err != nil {
		return fmt.Errorf("signature request failed: %w", err)
	}
	return printJSON(resp)
}

func budgetCommand(c *cli.Context) error {
	b := budget.Calculate(c.Uint64("requests"))
	fmt.Printf("Requests:   %d\n", b.Requests)
	fmt.Printf("Signatures: %s\n", b.Signatures)
	fmt.Printf("Initial:    %s\n", b.Initial)
	fmt.Printf("Callback:   %s\n", b.Callback)
	fmt.Printf("Total:      %s (%d gas)\n", b.Total, uint64(b.Total))
	return nil
}

func updateIdentity(c *cli.Context, update func(*client.Client, context.Context, common.Address) (*types.ConfigResponse, error)) error {
	addr := c.String("address")
	if !common.IsHexAddress(addr) {
		return fmt.Errorf("invalid address: %s", addr)
	}

	rc, err := createClient(c)
	if err != nil {
		return err
	}

	resp, err := update(rc, context.Background(), common.HexToAddress(addr))
	if err != nil {
		return fmt.Errorf("identity update failed: %w", err)
	}
	return printJSON(resp)
}

func configCommand(c *cli.Context) error {
	rc, err := createClient(c)
	if err != nil {
		return err
	}
	resp, err := rc.GetConfig(context.Background())
	if err != nil {
		return fmt.Errorf("failed to fetch config: %w", err)
	}
	return printJSON(resp)
}

func keygenCommand(c *cli.Context) error {
	key, err := keyGenerator.GenerateIdentityKey()
	if err != nil {
		return err
	}
	return printJSON(map[string]string{
		"address":     key.Address.Hex(),
		"public_key":  key.PublicKeyHex(),
		"private_key": key.PrivateKeyHex(),
	})
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
