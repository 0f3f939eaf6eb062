package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yungbote/resourcehub-backend/internal/app"
	"github.com/yungbote/resourcehub-backend/internal/platform/ctxutil"
	"github.com/yungbote/resourcehub-backend/internal/platform/logger"
	"github.com/yungbote/resourcehub-backend/internal/services"
)

var (
	reindexBatch int
	tokenRole    string
	tokenTTL     time.Duration
)

var rootCmd = &cobra.Command{
	Use:           "resourcehub",
	Short:         "Resource catalog and hybrid search API",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run migrations, outbox workers and the HTTP API",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply schema migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}
		defer log.Sync()

		pg, err := app.OpenDB(log, cfg)
		if err != nil {
			return err
		}
		defer pg.Close()
		if err := pg.AutoMigrateAll(); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		log.Info("migrations applied")
		return nil
	},
}

var outboxCmd = &cobra.Command{
	Use:   "outbox",
	Short: "Inspect and process the vector sync outbox",
}

var outboxDrainCmd = &cobra.Command{
	Use:   "drain",
	Short: "Process every runnable outbox task once",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
			n, err := a.DrainOutbox(ctx)
			if errors.Is(err, services.ErrVectorSyncDisabled) {
				return fmt.Errorf("outbox drain: set VECTOR_PROVIDER to pinecone or sqvect")
			}
			if err != nil {
				return err
			}
			fmt.Printf("processed %d outbox task(s)\n", n)
			return nil
		})
	},
}

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Enqueue a vector upsert for every resource",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
			n, err := a.Reindex(ctx, reindexBatch)
			if err != nil {
				return err
			}
			fmt.Printf("enqueued %d resource(s) for vector sync\n", n)
			return nil
		})
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token <user-id>",
	Short: "Issue a signed bearer token for local testing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := app.LoadConfig()
		if err != nil {
			return err
		}
		userID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid user id: %w", err)
		}
		as, err := services.NewAuthService(logger.Nop(), cfg.JWTSecretKey)
		if err != nil {
			return err
		}
		token, err := as.IssueToken(userID, tokenRole, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	},
}

func init() {
	reindexCmd.Flags().IntVar(&reindexBatch, "batch", 100, "resource ids per outbox task")
	tokenCmd.Flags().StringVar(&tokenRole, "role", "", "role claim, e.g. "+ctxutil.RoleAdmin)
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", time.Hour, "token lifetime")

	outboxCmd.AddCommand(outboxDrainCmd)
	rootCmd.AddCommand(serveCmd, migrateCmd, outboxCmd, reindexCmd, tokenCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func bootstrap() (app.Config, *logger.Logger, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return cfg, nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return cfg, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}

// withApp wires the full application for a one-shot command.
func withApp(ctx context.Context, fn func(context.Context, *app.App) error) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	a, err := app.New(ctx, log, cfg)
	if err != nil {
		log.Sync()
		return err
	}
	defer a.Close()
	if err := a.Migrate(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return fn(ctx, a)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}

	a, err := app.New(ctx, log, cfg)
	if err != nil {
		log.Error("app init failed", "error", err)
		log.Sync()
		return err
	}
	if err := a.Migrate(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		a.Close()
		return err
	}
	a.Start()

	errCh := make(chan error, 1)
	go func() { errCh <- a.Run() }()

	select {
	case err = <-errCh:
		if err != nil {
			log.Error("HTTP server failed", "error", err)
		}
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if sErr := a.Shutdown(shutdownCtx); sErr != nil && err == nil {
		err = sErr
	}
	return err
}
