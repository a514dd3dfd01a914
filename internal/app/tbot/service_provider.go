// Package tbot provides dependency injection and service management for Telegram bot components.
// It initializes and provides access to services, repositories, and handlers required for bot operations.
package tbot

import (
	"context"
	"fmt"
	"github.com/DenisKhanov/RemindBOT/internal/tg_bot/config"
	"github.com/DenisKhanov/RemindBOT/internal/tg_bot/datetime"
	"github.com/DenisKhanov/RemindBOT/internal/tg_bot/dialog"
	"github.com/DenisKhanov/RemindBOT/internal/tg_bot/registry"
	"github.com/DenisKhanov/RemindBOT/internal/tg_bot/repository"
	"github.com/DenisKhanov/RemindBOT/internal/tg_bot/scheduler"
	botServ "github.com/DenisKhanov/RemindBOT/internal/tg_bot/service"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
	"sync"
	"time"
)

// ServiceProvider manages the dependency injection for Telegram bot components.
type ServiceProvider struct {
	config *config.Config
	loc    *time.Location

	storage    *repository.Storage
	storageErr error
	botAPI     *tgbotapi.BotAPI
	botAPIErr  error
	dialogs    *registry.Registry
	botService *botServ.TgBotServices
	scheduler  *scheduler.Scheduler

	storageOnce    sync.Once
	botAPIOnce     sync.Once
	dialogsOnce    sync.Once
	botServiceOnce sync.Once
	schedulerOnce  sync.Once
}

// NewServiceProvider creates a new instance of the service provider.
// Arguments:
//   - cfg: parsed configuration.
//   - loc: the reference time zone resolved from cfg.
//
// Returns a pointer to a ServiceProvider.
func NewServiceProvider(cfg *config.Config, loc *time.Location) *ServiceProvider {
	return &ServiceProvider{config: cfg, loc: loc}
}

// Clock returns the wall clock in the reference zone.
func (s *ServiceProvider) Clock() datetime.Clock {
	return datetime.ZoneClock{Loc: s.loc}
}

// Storage opens the database and migrates the schema on first use.
func (s *ServiceProvider) Storage(ctx context.Context) (*repository.Storage, error) {
	s.storageOnce.Do(func() {
		storage, err := repository.Open(ctx, s.config.EnvDBDriver, s.config.EnvDBDSN)
		if err != nil {
			s.storageErr = err
			return
		}
		if err = storage.Migrate(ctx); err != nil {
			_ = storage.Close()
			s.storageErr = err
			return
		}
		s.storage = storage
		logrus.Info("Storage initialized")
	})
	if s.storage == nil {
		return nil, fmt.Errorf("storage not initialized: %w", s.storageErr)
	}
	return s.storage, nil
}

// BotAPI returns the Telegram Bot API instance.
func (s *ServiceProvider) BotAPI() (*tgbotapi.BotAPI, error) {
	s.botAPIOnce.Do(func() {
		s.botAPI, s.botAPIErr = tgbotapi.NewBotAPI(s.config.EnvBotToken)
		if s.botAPIErr != nil {
			logrus.Errorf("Failed to initialize BotAPI: %v", s.botAPIErr)
			s.botAPI = nil
			return
		}
		s.botAPI.Debug = s.config.EnvBotDebug
	})
	if s.botAPI == nil {
		return nil, fmt.Errorf("bot API not initialized: %w", s.botAPIErr)
	}
	logrus.Info("BotApi initialized")
	return s.botAPI, nil
}

// ReminderDialogs returns the factory of /remind dialogs.
func (s *ServiceProvider) ReminderDialogs(storage *repository.Storage) dialog.Factory {
	return dialog.NewReminderFactory(storage, s.Clock(), s.loc)
}

// Dialogs returns the registry of in-flight dialogs.
func (s *ServiceProvider) Dialogs(storage *repository.Storage) *registry.Registry {
	s.dialogsOnce.Do(func() {
		s.dialogs = registry.New(s.ReminderDialogs(storage))
		logrus.Info("Dialog registry initialized")
	})
	return s.dialogs
}

// BotService returns the main Telegram bot service.
func (s *ServiceProvider) BotService(ctx context.Context) (*botServ.TgBotServices, error) {
	storage, err := s.Storage(ctx)
	if err != nil {
		return nil, err
	}
	botAPI, err := s.BotAPI()
	if err != nil {
		return nil, err
	}
	s.botServiceOnce.Do(func() {
		s.botService = botServ.NewTgBot(
			botAPI,
			storage,
			s.Dialogs(storage),
			s.Clock(),
			s.loc,
			s.ReminderDialogs(storage),
			dialog.NewTodoFactory(storage),
		)
		logrus.Info("BotService initialized")
	})
	return s.botService, nil
}

// Scheduler returns the reminder scheduler delivering through the bot.
func (s *ServiceProvider) Scheduler(ctx context.Context) (*scheduler.Scheduler, error) {
	storage, err := s.Storage(ctx)
	if err != nil {
		return nil, err
	}
	botAPI, err := s.BotAPI()
	if err != nil {
		return nil, err
	}
	s.schedulerOnce.Do(func() {
		s.scheduler = scheduler.New(
			storage,
			botServ.NewTelegramNotifier(botAPI),
			s.Clock(),
			s.config.CheckInterval(),
			s.config.EnvSendRetries,
			s.config.SendBackoff(),
		)
		logrus.Info("Scheduler initialized")
	})
	return s.scheduler, nil
}
