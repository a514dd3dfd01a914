package tbot

import (
	"context"
	"errors"
	"fmt"
	"github.com/DenisKhanov/RemindBOT/internal/logcfg"
	botHand "github.com/DenisKhanov/RemindBOT/internal/tg_bot/api/http"
	"github.com/DenisKhanov/RemindBOT/internal/tg_bot/config"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// shutdownTimeout bounds the graceful stop of the webhook server.
const shutdownTimeout = 5 * time.Second

// App represents the application structure responsible for initializing dependencies
// and running the Telegram bot.
type App struct {
	serviceProvider *ServiceProvider // The service provider for dependency injection
	config          *config.Config   // The configuration object for the application
	envFile         string           // Env file the configuration is read from
}

// NewApp creates a new instance of the application.
// Arguments:
//   - ctx: context of the initialization.
//   - envFile: env file to load, empty means config.DefaultEnvFile.
//
// Returns the App or the first initialization error.
func NewApp(ctx context.Context, envFile string) (*App, error) {
	app := &App{envFile: envFile}
	err := app.initDeps(ctx)
	if err != nil {
		return nil, err
	}
	return app, nil
}

// initDeps initializes all dependencies required by the application.
func (a *App) initDeps(ctx context.Context) error {
	inits := []func(context.Context) error{
		a.initConfig,
		a.initServiceProvider,
	}

	for _, f := range inits {
		err := f(ctx)
		if err != nil {
			return err
		}
	}

	return nil
}

// initConfig initializes the application configuration.
func (a *App) initConfig(_ context.Context) error {
	cfg, err := config.NewConfig(a.envFile)
	if err != nil {
		return err
	}
	a.config = cfg
	return logcfg.RunLoggerConfig(a.config.EnvLogsLevel, a.config.EnvLogFileName)
}

// initServiceProvider initializes the service provider for dependency injection.
func (a *App) initServiceProvider(_ context.Context) error {
	loc, err := a.config.Location()
	if err != nil {
		return err
	}
	a.serviceProvider = NewServiceProvider(a.config, loc)
	return nil
}

// Migrate creates the database schema and exits.
func (a *App) Migrate(ctx context.Context) error {
	storage, err := a.serviceProvider.Storage(ctx)
	if err != nil {
		return err
	}
	logrus.Infof("Schema of %s is up to date", a.config.EnvDBDriver)
	return storage.Close()
}

// Run starts the scheduler and the update dispatcher and blocks until ctx is
// cancelled or SIGINT/SIGTERM arrives.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storage, err := a.serviceProvider.Storage(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := storage.Close(); err != nil {
			logrus.WithError(err).Error("Failed to close storage")
		}
	}()

	botAPI, err := a.serviceProvider.BotAPI()
	if err != nil {
		return fmt.Errorf("can't make telegram bot: %w", err)
	}
	logrus.Infof("Bot API created successfully for %s", botAPI.Self.UserName)

	myBot, err := a.serviceProvider.BotService(ctx)
	if err != nil {
		return err
	}
	sched, err := a.serviceProvider.Scheduler(ctx)
	if err != nil {
		return err
	}

	updates, stopUpdates, err := a.updates(ctx, botAPI)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		sched.Run(ctx)
	}()

	NewDispatcher(a.config.EnvUpdateWorkers, myBot.UpdateProcessing).Run(ctx, updates)
	logrus.Info("Shutting down...")
	stopUpdates()
	stop()
	wg.Wait()
	return nil
}

// updates opens the update source: a webhook when WEBHOOK_URL is set, long
// polling otherwise. The returned func stops the source.
func (a *App) updates(ctx context.Context, botAPI *tgbotapi.BotAPI) (<-chan tgbotapi.Update, func(), error) {
	if a.config.EnvWebhookURL == "" {
		if _, err := botAPI.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
			return nil, nil, fmt.Errorf("delete webhook: %w", err)
		}
		updateConfig := tgbotapi.NewUpdate(0)
		updateConfig.Timeout = 60 // seconds timeout
		logrus.Info("Receiving updates by long polling")
		return botAPI.GetUpdatesChan(updateConfig), botAPI.StopReceivingUpdates, nil
	}

	wh, err := tgbotapi.NewWebhook(a.config.EnvWebhookURL + botHand.HookPath)
	if err != nil {
		return nil, nil, fmt.Errorf("build webhook: %w", err)
	}
	if _, err = botAPI.Request(wh); err != nil {
		return nil, nil, fmt.Errorf("set webhook: %w", err)
	}

	updates := make(chan tgbotapi.Update, botAPI.Buffer)
	server := &http.Server{
		Addr:              a.config.EnvWebhookAddr,
		Handler:           botHand.NewRouter(botHand.NewHandler(botAPI, updates)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logrus.Infof("Webhook server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Error("Webhook server stopped")
		}
	}()

	shutdown := func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logrus.WithError(err).Error("Webhook server shutdown failed")
		}
	}
	return updates, shutdown, nil
}
