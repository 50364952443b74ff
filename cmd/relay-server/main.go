package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/Layr-Labs/eigenx-sigrelay-go/pkg/clients/mpcSigner"
	"github.com/Layr-Labs/eigenx-sigrelay-go/pkg/config"
	"github.com/Layr-Labs/eigenx-sigrelay-go/pkg/logger"
	"github.com/Layr-Labs/eigenx-sigrelay-go/pkg/persistence"
	"github.com/Layr-Labs/eigenx-sigrelay-go/pkg/persistence/badger"
	"github.com/Layr-Labs/eigenx-sigrelay-go/pkg/persistence/memory"
	"github.com/Layr-Labs/eigenx-sigrelay-go/pkg/persistence/redis"
	"github.com/Layr-Labs/eigenx-sigrelay-go/pkg/relay"
	"github.com/Layr-Labs/eigenx-sigrelay-go/pkg/server"
)

func main() {
	app := &cli.App{
		Name:  "relay-server",
		Usage: "Signature relay for a threshold-signing service",
		Description: `An access-controlled relay that forwards batches of signature requests to a threshold-signing service.

This server:
- Admits batches only from the authorized caller with a sufficient gas budget
- Fans out one signing sub-call per request and waits for all of them
- Returns one result per request, in submission order, successes and failures alike
- Lets the owner rotate the authorized caller and transfer ownership`,
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "relay-account",
				Usage:    "Address of the relay itself",
				EnvVars:  []string{config.EnvRelayAccount},
				Required: true,
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Value:   8080,
				Usage:   "HTTP server port",
				EnvVars: []string{config.EnvRelayPort},
			},
			&cli.Uint64Flag{
				Name:     "chain-id",
				Aliases:  []string{"chain"},
				Usage:    fmt.Sprintf("Ethereum chain ID: %s", config.GetSupportedChainIDsString()),
				EnvVars:  []string{config.EnvRelayChainID},
				Required: true,
			},
			&cli.StringFlag{
				Name:     "signer-account",
				Usage:    "Address of the signing service (seed, ignored once persisted)",
				EnvVars:  []string{config.EnvRelaySignerAccount},
				Required: true,
			},
			&cli.StringFlag{
				Name:     "owner",
				Usage:    "Owner address (seed, ignored once persisted)",
				EnvVars:  []string{config.EnvRelayOwner},
				Required: true,
			},
			&cli.StringFlag{
				Name:     "authorized-caller",
				Usage:    "Authorized caller address (seed, ignored once persisted)",
				EnvVars:  []string{config.EnvRelayAuthorizedCaller},
				Required: true,
			},
			&cli.StringFlag{
				Name:    "signer-url",
				Usage:   "Base URL of the signing service",
				EnvVars: []string{config.EnvRelaySignerURL},
			},
			&cli.Float64Flag{
				Name:    "signer-rps",
				Usage:   "Maximum sub-calls per second to the signing service (0 = unlimited)",
				EnvVars: []string{config.EnvRelaySignerRPS},
			},
			&cli.DurationFlag{
				Name:    "sign-timeout",
				Usage:   "Per sub-call timeout (default: chain specific)",
				EnvVars: []string{config.EnvRelaySignTimeout},
			},
			&cli.BoolFlag{
				Name:    "signer-stub",
				Usage:   "Sign locally with throwaway keys instead of calling a signing service (development only)",
				EnvVars: []string{config.EnvRelaySignerStub},
			},
			&cli.StringFlag{
				Name:    "signer-stub-seed",
				Usage:   "Hex seed (at least 16 bytes) for deterministic stub keys (development only)",
				EnvVars: []string{config.EnvRelaySignerStubSeed},
			},
			&cli.StringFlag{
				Name:    "persistence-type",
				Usage:   "Identity state backend: memory, badger or redis",
				Value:   string(config.PersistenceTypeBadger),
				EnvVars: []string{config.EnvRelayPersistenceType},
			},
			&cli.StringFlag{
				Name:    "data-path",
				Usage:   "Badger data directory",
				Value:   "./data/relay",
				EnvVars: []string{config.EnvRelayDataPath},
			},
			&cli.StringFlag{
				Name:    "redis-address",
				Usage:   "Redis address (host:port)",
				EnvVars: []string{config.EnvRelayRedisAddress},
			},
			&cli.StringFlag{
				Name:    "redis-password",
				Usage:   "Redis password",
				EnvVars: []string{config.EnvRelayRedisPassword},
			},
			&cli.IntFlag{
				Name:    "redis-db",
				Usage:   "Redis database number",
				EnvVars: []string{config.EnvRelayRedisDB},
			},
			&cli.StringFlag{
				Name:    "redis-key-prefix",
				Usage:   "Prefix for every Redis key",
				EnvVars: []string{config.EnvRelayRedisKeyPrefix},
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Usage:   "Enable verbose logging",
				EnvVars: []string{config.EnvRelayVerbose},
			},
		},
		Action: runRelayServer,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func runRelayServer(c *cli.Context) error {
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: c.Bool("verbose")})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = l.Sync() }()

	relayConfig := parseRelayConfig(c)
	if err := relayConfig.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	l.Sugar().Infow("Using chain", "name", relayConfig.ChainName, "chain_id", relayConfig.ChainID)

	store, err := newPersistence(&relayConfig.Persistence, l)
	if err != nil {
		return fmt.Errorf("failed to initialize persistence: %w", err)
	}
	defer func() { _ = store.Close() }()

	previous, err := persistence.RecordNodeStart(store, relayConfig.RelayAccount, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to record node start: %w", err)
	}
	if previous != nil {
		l.Sugar().Infow("Resuming from persisted node state",
			"relay_account", previous.RelayAccount,
			"last_start", time.Unix(previous.NodeStartTime, 0).UTC(),
		)
	}

	relayAccount := common.HexToAddress(relayConfig.RelayAccount)
	signer, err := newSigningService(relayConfig, relayAccount, l)
	if err != nil {
		return fmt.Errorf("failed to create signing service client: %w", err)
	}

	r, err := relay.NewRelay(&relay.Config{
		RelayAccount:     relayAccount,
		SignerAccount:    common.HexToAddress(relayConfig.SignerAccount),
		Owner:            common.HexToAddress(relayConfig.Owner),
		AuthorizedCaller: common.HexToAddress(relayConfig.AuthorizedCaller),
		SignTimeout:      relayConfig.SignTimeout,
	}, signer, store, l)
	if err != nil {
		return fmt.Errorf("failed to create relay: %w", err)
	}

	if c.Bool("verbose") {
		ids := r.Identities()
		l.Sugar().Infow("Relay Server Configuration",
			"relay_account", relayAccount.Hex(),
			"port", relayConfig.Port,
			"chain", relayConfig.ChainName,
			"signer_account", ids.SignerAccount.Hex(),
			"owner", ids.Owner.Hex(),
			"authorized_caller", ids.AuthorizedCaller.Hex(),
			"sign_timeout", relayConfig.SignTimeout,
			"persistence", relayConfig.Persistence.Type,
		)
	}

	srv := server.NewServer(r, store, relayConfig.Port, l)
	if err := srv.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	l.Sugar().Infow("Relay Server running", "relay_account", relayAccount.Hex(), "port", relayConfig.Port)
	l.Sugar().Infow("Available endpoints",
		"signatures", "POST /signatures",
		"admin", "POST /admin/authorized-caller, POST /admin/owner",
		"config", "GET /config",
		"health", "GET /health")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	l.Sugar().Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), relayConfig.SignTimeout+5*time.Second)
	defer cancel()
	return srv.Stop(shutdownCtx)
}

func parseRelayConfig(c *cli.Context) *config.RelayServerConfig {
	return &config.RelayServerConfig{
		RelayAccount:     c.String("relay-account"),
		Port:             c.Int("port"),
		ChainID:          config.ChainId(c.Uint64("chain-id")),
		SignerAccount:    c.String("signer-account"),
		Owner:            c.String("owner"),
		AuthorizedCaller: c.String("authorized-caller"),
		SignerURL:        c.String("signer-url"),
		SignerRPS:        c.Float64("signer-rps"),
		SignTimeout:      c.Duration("sign-timeout"),
		SignerStub:       c.Bool("signer-stub"),
		SignerStubSeed:   c.String("signer-stub-seed"),
		Persistence: config.PersistenceConfig{
			Type:           config.PersistenceType(c.String("persistence-type")),
			DataPath:       c.String("data-path"),
			RedisAddress:   c.String("redis-address"),
			RedisPassword:  c.String("redis-password"),
			RedisDB:        c.Int("redis-db"),
			RedisKeyPrefix: c.String("redis-key-prefix"),
		},
		Debug:   c.Bool("verbose"),
		Verbose: c.Bool("verbose"),
	}
}

func newPersistence(cfg *config.PersistenceConfig, l *zap.Logger) (persistence.IRelayPersistence, error) {
	switch cfg.Type {
	case config.PersistenceTypeMemory:
		return memory.NewMemoryPersistence(), nil
	case config.PersistenceTypeBadger:
		return badger.NewBadgerPersistence(cfg.DataPath, l)
	case config.PersistenceTypeRedis:
		return redis.NewRedisPersistence(&redis.RedisConfig{
			Address:   cfg.RedisAddress,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: cfg.RedisKeyPrefix,
		}, l)
	default:
		return nil, fmt.Errorf("unsupported persistence type: %s", cfg.Type)
	}
}

func newSigningService(cfg *config.RelayServerConfig, relayAccount common.Address, l *zap.Logger) (mpcSigner.ISigningService, error) {
	if cfg.SignerStub {
		l.Sugar().Warnw("Using stub signing service - signatures come from local development keys",
			"deterministic", cfg.SignerStubSeed != "")
		if cfg.SignerStubSeed != "" {
			seed, err := cfg.StubSeedBytes()
			if err != nil {
				return nil, fmt.Errorf("invalid stub seed: %w", err)
			}
			return mpcSigner.NewDeterministicStubSigningService(seed)
		}
		return mpcSigner.NewStubSigningService()
	}
	return mpcSigner.NewClient(&mpcSigner.Config{
		BaseURL:           cfg.SignerURL,
		RelayAccount:      relayAccount,
		RequestsPerSecond: cfg.SignerRPS,
		Timeout:           cfg.SignTimeout,
	}, l)
}
