package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/davidahmann/agegate/internal/api"
	"github.com/davidahmann/agegate/internal/auth"
	"github.com/davidahmann/agegate/internal/config"
	"github.com/davidahmann/agegate/internal/discord"
	"github.com/davidahmann/agegate/internal/eligibility"
	"github.com/davidahmann/agegate/internal/interview"
	"github.com/davidahmann/agegate/internal/logging"
	"github.com/davidahmann/agegate/internal/review"
	"github.com/davidahmann/agegate/internal/submission"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runFn(ctx, os.Args[1:], os.Getenv, newService); err != nil {
		fatalf("agegate: %v", err)
	}
}

var runFn = run
var fatalf = log.Fatalf

type envFn func(string) string

type runner interface {
	Run(ctx context.Context) error
}

type serviceFactory func(cfg config.Config, logger *slog.Logger) (runner, error)

func run(ctx context.Context, args []string, getenv envFn, factory serviceFactory) error {
	fs := flag.NewFlagSet("agegate", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to agegate config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfgFile := *configPath
	if cfgFile == "" {
		cfgFile = getenv("AGEGATE_CONFIG_PATH")
	}

	var (
		cfg config.Config
		err error
	)
	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
	} else {
		cfg, err = config.FromEnv()
	}
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := logging.New(cfg.Logging)
	for _, key := range cfg.Unconfigured() {
		logger.Warn("config value is still a placeholder", "key", key)
	}

	svc, err := factory(cfg, logger)
	if err != nil {
		return err
	}
	return svc.Run(ctx)
}

type service struct {
	bot    *discord.Bot
	engine *interview.Engine
	server *http.Server
	logger *slog.Logger
}

func newService(cfg config.Config, logger *slog.Logger) (runner, error) {
	session, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	client := discord.NewClient(session)

	router := &submission.Router{
		ReviewChannelID: cfg.ReviewChannelID,
		Poster:          client,
		Messenger:       client,
		Logger:          logger,
	}
	engine := interview.NewEngine(interview.Options{
		Messenger: client,
		Router:    router,
		Gate:      eligibility.Gate{MinAccountAgeDays: cfg.MinAccountAgeDays},
		Settings: interview.Settings{
			StepTimeout:     cfg.Interview.StepTimeout,
			EvidenceTimeout: cfg.Interview.EvidenceTimeout,
			StartsPerSecond: cfg.Interview.StartsPerSecond,
			StartBurst:      cfg.Interview.StartBurst,
		},
		Logger: logger,
	})
	gate := review.NewGate(review.Options{
		VerifiedRoleID: cfg.VerifiedRoleID,
		Directory:      client,
		Artifacts:      client,
		Messenger:      client,
		ClaimRetention: cfg.ClaimRetention,
		Logger:         logger,
	})

	svc := &service{
		bot: discord.NewBot(discord.BotOptions{
			Session:           session,
			GuildID:           cfg.Discord.GuildID,
			MinAccountAgeDays: cfg.MinAccountAgeDays,
			Interviews:        engine,
			Reviews:           gate,
			Logger:            logger,
		}),
		engine: engine,
		logger: logger,
	}
	if cfg.ListenAddr != "" {
		svc.server = &http.Server{
			Addr: cfg.ListenAddr,
			Handler: api.NewRouter(&api.Handler{
				Auth:     auth.NewTokenAuthenticator(cfg.OpsToken),
				Sessions: engine.Sessions(),
				Claims:   gate.Claims(),
			}),
			ReadHeaderTimeout: 5 * time.Second,
		}
	}
	return svc, nil
}

// Run connects the bot and serves the ops API until ctx is cancelled.
// Shutdown cancels open interviews without messaging their requesters.
func (s *service) Run(ctx context.Context) error {
	if err := s.bot.Open(ctx); err != nil {
		return err
	}
	s.logger.Info("agegate connected")

	serveErr := make(chan error, 1)
	if s.server != nil {
		go func() {
			s.logger.Info("ops api listening", "addr", s.server.Addr)
			if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- err
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		s.logger.Info("shutting down")
	case runErr = <-serveErr:
		s.logger.Error("ops api failed", "error", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if s.server != nil {
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("ops api shutdown", "error", err)
		}
	}
	if err := s.bot.Close(); err != nil {
		s.logger.Warn("gateway close", "error", err)
	}
	s.engine.Wait()
	return runErr
}
