package bot

import (
	"context"

	"log/slog"

	"github.com/m3rciful/librobot/core/logger"
	coretelegram "github.com/m3rciful/librobot/core/telegram"
	"github.com/m3rciful/librobot/core/telegram/commands"
	"github.com/m3rciful/librobot/core/telegram/router"
	"github.com/m3rciful/librobot/core/telegram/state"
	"github.com/m3rciful/librobot/internal/dialog"
	"github.com/m3rciful/librobot/internal/registry"
)

// App wires the dialog machine, the registry, and per-user sessions into a
// runnable Telegram bot.
type App struct {
	cfg      *Config
	repo     registry.Repository
	machine  *dialog.Machine
	sessions *state.Store[dialog.Session]
}

// NewApp builds the application from loaded configuration and a repository.
func NewApp(cfg *Config, repo registry.Repository) *App {
	machine := dialog.NewMachine(repo, dialog.Config{
		FixedDeposit:   cfg.FixedDepositAmount(),
		DepositPresets: cfg.Library.DepositPresets,
	}, dialog.WithFallback(FallbackText))

	return &App{
		cfg:      cfg,
		repo:     repo,
		machine:  machine,
		sessions: state.NewStore(dialog.NewSession),
	}
}

// TelegramRunOptions assembles middlewares, commands, and routes for the runtime.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()
	reg.RegisterCommand("/start", commands.Command{
		Handler:     a.handleStart,
		Description: "Show the main menu",
	})
	reg.RegisterCommand("/version", commands.Command{
		Handler:     a.handleVersion,
		Description: "Show build information",
		Hidden:      true,
		AdminOnly:   true,
	})

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminID: a.cfg.Core.Telegram.AdminID,
	})
	routes = append(routes, router.TextRoutes(a, reg, router.TextOptions{})...)

	return coretelegram.RunOptions{
		Config:      &a.cfg.Core,
		Registry:    reg,
		Middlewares: coretelegram.DefaultMiddlewares(&a.cfg.Core, nil),
		Routes:      routes,
		OnStart:     a.logRegistrySummary,
	}, nil
}

func (a *App) logRegistrySummary(ctx context.Context, _ coretelegram.Runtime) error {
	readers, err := a.repo.ListReaders(ctx)
	if err != nil {
		return err
	}
	loans, err := a.repo.ListActiveLoans(ctx)
	if err != nil {
		return err
	}
	logger.SVCReaders.Info("registry loaded",
		slog.String("event", "registry.ready"),
		slog.Int("count", len(readers)),
	)
	logger.SVCLoans.Info("open loans",
		slog.String("event", "loans.open"),
		slog.Int("count", len(loans)),
	)
	return nil
}
