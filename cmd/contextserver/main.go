package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/evinhua/model-context-protocol-server/pkg/config"
	"github.com/evinhua/model-context-protocol-server/pkg/contextstore"
	"github.com/evinhua/model-context-protocol-server/pkg/modeladapter"
	"github.com/evinhua/model-context-protocol-server/pkg/server"
	"github.com/evinhua/model-context-protocol-server/pkg/tools/mcpserver"
)

const version = "0.1.0"

func main() {
	// Handle subcommands before flag parsing.
	if len(os.Args) > 1 && os.Args[1] == "mcp" {
		mcpCmd := flag.NewFlagSet("mcp", flag.ExitOnError)
		mcpCmd.Usage = func() {
			fmt.Fprintf(os.Stderr, "Usage: contextserver mcp [flags]\n\nServe the context tools over MCP on stdin/stdout.\n\nFlags:\n")
			mcpCmd.PrintDefaults()
		}
		configPath := mcpCmd.String("config", "config.yaml", "path to configuration file")
		envFile := mcpCmd.String("env", ".env", "path to .env file (ignored if missing)")
		_ = mcpCmd.Parse(os.Args[2:])

		if err := loadDotEnv(*envFile); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}

		if err := runMCP(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}

		return
	}

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: contextserver [flags]\n       contextserver mcp [flags]\n\nFlags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nCommands:\n  mcp  Serve the context tools over MCP on stdin/stdout\n")
	}

	configPath := flag.String("config", "config.yaml", "path to configuration file")
	envFile := flag.String("env", ".env", "path to .env file (ignored if missing)")
	addr := flag.String("addr", "", "listen address (overrides server.addr in config)")
	flag.Parse()

	if err := loadDotEnv(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if err := run(*configPath, *addr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, addr string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, adapter, cfg, err := setup(configPath)
	if err != nil {
		return err
	}

	if addr != "" {
		cfg.Server.Addr = addr
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.New(store, adapter, cfg.Server.APIKey, log).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		log.Info("listening", "addr", cfg.Server.Addr, "model", cfg.Model.Kind)

		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	return srv.Shutdown(shutdownCtx)
}

func runMCP(configPath string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, adapter, _, err := setup(configPath)
	if err != nil {
		return err
	}

	mcp := mcpserver.New("contextserver", version)
	mcp.Register(server.MCPToolBox(store, adapter).Tools()...)

	return mcp.Serve(ctx, os.Stdin, os.Stdout)
}

// setup loads configuration and builds the store and model adapter shared by
// both serving modes.
func setup(configPath string) (*contextstore.Store, *modeladapter.Adapter, config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, config.Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, config.Config{}, err
	}

	store, err := contextstore.Open(cfg.Storage.Path)
	if err != nil {
		return nil, nil, config.Config{}, err
	}

	adapter := modeladapter.New(modeladapter.ParseKind(cfg.Model.Kind), cfg.Model.Endpoint, cfg.Model.APIKey)

	return store, adapter, cfg, nil
}

// loadDotEnv loads environment variables from path. Missing files are ignored.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}

	return err
}
