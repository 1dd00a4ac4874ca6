// Package main runs the standalone bisca websocket server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/heroiclabs/nakama-common/runtime"

	"bisca/internal/app"
	"bisca/internal/bot"
	"bisca/internal/config"
	"bisca/internal/domain"
	"bisca/internal/hub"
	"bisca/internal/platform/logger"
	"bisca/internal/ports"
	"bisca/internal/ports/ws"
)

const tokenIssuer = "bisca"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "token" {
		if err := issueToken(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "token: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg, err := config.LoadServerConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped: %v", err)
		_ = log.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.ServerConfig, log runtime.Logger) error {
	if cfg.GameConfigPath != "" {
		if err := config.LoadGameConfig(cfg.GameConfigPath); err != nil {
			return err
		}
	}
	game := config.GetGameConfig()

	match, err := domain.NewMatch(game.StartingCards, nil)
	if err != nil {
		return fmt.Errorf("create match: %w", err)
	}
	h := hub.New(app.NewService(match, game.Options()), log.WithField("component", "hub"),
		hub.WithQueueSize(game.OutboundQueueSize),
		hub.WithLabelListener(func(l app.Label) {
			log.Debug("match label: open=%t phase=%s players=%d round=%d", l.Open, l.Phase, l.Players, l.Round)
		}),
	)

	if err := spawnBots(ctx, h, cfg, game, log); err != nil {
		return err
	}

	var identity ports.IdentityPort = ws.AnonymousIdentity{}
	if cfg.JWTSecret != "" {
		identity = ws.NewTokenIdentity(cfg.JWTSecret)
	} else {
		log.Warn("BISCA_JWT_SECRET is not set; players get anonymous ids")
	}

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           ws.NewHandler(h, identity, log.WithField("component", "ws")),
		ReadHeaderTimeout: 5 * time.Second,
		// Websocket handlers outlive Shutdown; tie them to the process context.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	serveErr := make(chan error, 1)
	log.Info("bisca server listening on %s (starting cards %d)", cfg.Addr, game.StartingCards)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		log.Info("bisca server stopped")
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

func spawnBots(ctx context.Context, h *hub.Hub, cfg config.ServerConfig, game config.GameConfig, log runtime.Logger) error {
	if cfg.Bots == 0 {
		return nil
	}
	level, err := bot.ParseLevel(cfg.BotLevel)
	if err != nil {
		return err
	}
	agents, err := bot.NewAgents(cfg.Bots, level, game.BotNames)
	if err != nil {
		return err
	}
	for _, a := range agents {
		bot.Spawn(ctx, h, a, log)
	}
	log.Info("spawned %d bots", len(agents))
	return nil
}

// issueToken prints a signed session token for local testing.
func issueToken(args []string) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	sub := fs.String("sub", "", "player id to embed in the token")
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *sub == "" {
		return errors.New("-sub is required")
	}
	cfg, err := config.LoadServerConfig()
	if err != nil {
		return err
	}
	if cfg.JWTSecret == "" {
		return errors.New("BISCA_JWT_SECRET is not set")
	}
	token, err := ws.IssueToken(cfg.JWTSecret, tokenIssuer, *sub, *ttl)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
