package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"pagenotes/internal/config"
	"pagenotes/internal/db"
	"pagenotes/internal/realtime"
	"pagenotes/internal/router"
	"pagenotes/internal/store"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, finding env vars from system")
	}

	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "pagenotes",
		Short:        "PageNotes comment server",
		SilenceUsage: true,
	}
	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newMigrateCommand())
	return cmd
}

func newServeCommand() *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and websocket server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if port != "" {
				cfg.Port = port
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "listen port (overrides PORT)")
	return cmd
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			conn, err := db.Open(cfg.StoreDriver, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			return db.Migrate(conn)
		},
	}
}

func openStore(cfg config.Config) (store.Store, error) {
	if cfg.StoreDriver == "memory" {
		log.Println("Using in-memory store, data is lost on restart")
		return store.NewMemoryStore(), nil
	}
	conn, err := db.Open(cfg.StoreDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(conn); err != nil {
		return nil, err
	}
	return store.NewGormStore(conn), nil
}

func serve(ctx context.Context, cfg config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := openStore(cfg)
	if err != nil {
		return err
	}

	hub := realtime.NewHub()
	if cfg.RedisURL != "" {
		relay, err := realtime.NewRedisRelay(cfg.RedisURL, cfg.RedisChannel)
		if err != nil {
			return err
		}
		defer relay.Close()
		if err := relay.Start(ctx, hub); err != nil {
			return err
		}
		log.Printf("Relaying events over redis channel %s", cfg.RedisChannel)
	}

	r, err := router.New(cfg, s, hub)
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("PageNotes server starting on :%s", cfg.Port)
		errCh <- r.Run(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Println("Shutting down")
		return nil
	}
}
