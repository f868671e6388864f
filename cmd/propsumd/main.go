package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/roasbeef/propsum/internal/build"
	"github.com/roasbeef/propsum/internal/cache"
	"github.com/roasbeef/propsum/internal/config"
	"github.com/roasbeef/propsum/internal/db"
	"github.com/roasbeef/propsum/internal/mcp"
	"github.com/roasbeef/propsum/internal/proposal"
	"github.com/roasbeef/propsum/internal/rpc"
	"github.com/roasbeef/propsum/internal/summarizer"
	"github.com/roasbeef/propsum/internal/summary"
	"github.com/roasbeef/propsum/internal/web"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.DefaultConfig()
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return err
	}

	var (
		port      = flag.Int("port", cfg.Port, "HTTP port ($PORT)")
		grpcAddr  = flag.String("grpc", cfg.GRPCAddr, "gRPC health address (empty to disable)")
		dbPath    = flag.String("db", cfg.DBPath, "Path to the SQLite summary cache ($PROPSUM_DB)")
		logDir    = flag.String("logdir", cfg.LogDir, "Directory for rotating log files ($PROPSUM_LOG_DIR)")
		logLevel  = flag.String("loglevel", cfg.LogLevel, "Log level: trace, debug, info, warn, error")
		staticDir = flag.String("static", cfg.StaticDir, "Frontend build directory ($PROPSUM_STATIC_DIR)")
		provider  = flag.String("provider", string(cfg.Provider), "Summarizer provider: openai, gemini, anthropic")
		dedupe    = flag.Bool("dedupe", cfg.Summary.DedupeInFlight, "Collapse concurrent requests for the same proposal")
		mcpStdio  = flag.Bool("mcp", false, "Serve MCP tools on stdio")
		version   = flag.Bool("version", false, "Print version and exit")
	)
	flag.Parse()

	if *version {
		fmt.Printf("propsumd version %s go=%s\n", build.Version(),
			build.GoVersion())
		return nil
	}

	cfg.Port = *port
	cfg.GRPCAddr = *grpcAddr
	cfg.DBPath = config.ExpandPath(*dbPath)
	cfg.LogDir = *logDir
	cfg.LogLevel = *logLevel
	cfg.StaticDir = *staticDir
	cfg.Provider = summarizer.Provider(*provider)
	cfg.Summary.DedupeInFlight = *dedupe
	cfg.MCP = *mcpStdio

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logCfg := cfg.LogConfig()

	// stdout carries the MCP protocol, keep it clean.
	logCfg.Console = os.Stderr

	logger, err := build.NewLogger(logCfg)
	if err != nil {
		return err
	}
	defer logger.Close()

	log := logger.Logger
	log.Info("Starting propsumd", "version", build.Version(),
		"env", cfg.Env, "provider", string(cfg.Provider))

	ctx, cancel := signal.NotifyContext(
		context.Background(), syscall.SIGINT, syscall.SIGTERM,
	)
	defer cancel()

	// The cache must be reachable at startup, later outages are
	// absorbed per request.
	summaryCache := cache.New(cfg.Cache, cache.SqliteDialer(
		&db.SqliteConfig{DatabaseFileName: cfg.DBPath}, log,
	), log)
	defer summaryCache.Close()

	if err := summaryCache.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to summary cache: %w", err)
	}

	sum, err := summarizer.New(ctx, cfg.SummarizerConfig(), log)
	if err != nil {
		return fmt.Errorf("failed to create summarizer: %w", err)
	}

	svc := summary.NewService(
		cfg.SummaryConfig(), summaryCache,
		proposal.New(cfg.Subgraph, log), sum, log,
	)

	if cfg.GRPCAddr != "" {
		grpcCfg := rpc.DefaultServerConfig()
		grpcCfg.ListenAddr = cfg.GRPCAddr

		grpcServer := rpc.NewServer(grpcCfg, summaryCache, log)
		if err := grpcServer.Start(); err != nil {
			return fmt.Errorf("failed to start gRPC server: %w", err)
		}
		defer grpcServer.Stop()
	}

	webCfg := web.DefaultConfig()
	webCfg.Addr = cfg.HTTPAddr()
	webCfg.StaticDir = cfg.StaticDir
	webCfg.Development = cfg.Development()

	webServer, err := web.NewServer(webCfg, svc, summaryCache, log)
	if err != nil {
		return fmt.Errorf("failed to create web server: %w", err)
	}

	errCh := make(chan error, 2)
	go func() {
		errCh <- webServer.Start()
	}()

	if cfg.MCP {
		mcpServer := mcp.NewServer(svc, log)
		go func() {
			errCh <- mcpServer.Run(ctx, &sdkmcp.StdioTransport{})
		}()
	}

	select {
	case <-ctx.Done():
		log.Info("Shutting down")

	case err := <-errCh:
		if err != nil {
			log.Error("Server error", "error", err)
		}
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(), 10*time.Second,
	)
	defer shutdownCancel()

	if err := webServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("Web server shutdown", "error", err)
	}

	return nil
}
