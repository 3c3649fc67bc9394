package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"taskManager/internal/config"
	"taskManager/internal/logger"
	"taskManager/internal/notifier"
	"taskManager/internal/repository/task/inmemory"
	"taskManager/internal/repository/task/mongodb"
	"taskManager/internal/repository/task/postgres"
	"taskManager/internal/service"
	"taskManager/internal/tracing"
	"taskManager/internal/worker"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config     *config.Config
	server     *http.Server
	repository service.TaskRepository
	notifier   service.Notifier
	worker     *worker.NotificationWorker
	service    *service.TaskService
	reports    *service.ReportService
	shutdowns  []func(context.Context) // выполняются в обратном порядке
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(context.Context), 0),
	}
}

func (a *App) Init(ctx context.Context) (*App, error) {
	if err := logger.Init(a.config.Logging.Development); err != nil {
		return nil, fmt.Errorf("инициализация логгера: %w", err)
	}

	a.shutdowns = append(a.shutdowns, func(context.Context) {
		logger.Info("Завершение работы логгирования...")
		logger.Sync()
	})

	if err := a.initTracing(ctx); err != nil {
		a.Shutdown(ctx)
		return nil, err
	}

	if err := a.initRepository(ctx); err != nil {
		a.Shutdown(ctx)
		return nil, err
	}

	if err := a.initNotifier(); err != nil {
		a.Shutdown(ctx)
		return nil, err
	}

	queueSize := a.config.Notifications.QueueSize
	workers := a.config.Notifications.Workers
	a.worker = worker.NewNotificationWorker(a.notifier, &queueSize, &workers)

	a.service = service.NewTaskService(a.repository, a.notifier, a.worker)
	a.reports = service.NewReportService(a.repository)

	a.server = &http.Server{
		Addr:         a.config.GetServerAddr(),
		Handler:      NewRouter(a.config, a.service, a.reports),
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
	}

	logger.Info("Приложение инициализировано",
		zap.String("repository", a.config.Repository.Type),
		zap.String("addr", a.server.Addr))
	return a, nil
}

func (a *App) initTracing(ctx context.Context) error {
	if !a.config.Tracing.Enabled {
		return nil
	}

	shutdown, err := tracing.Setup(ctx, tracing.Settings{
		ServiceName: a.config.Tracing.ServiceName,
		Exporter:    a.config.Tracing.Exporter,
		Endpoint:    a.config.Tracing.Endpoint,
		Insecure:    a.config.Tracing.Insecure,
		SampleRatio: a.config.Tracing.SampleRatio,
	})
	if err != nil {
		return fmt.Errorf("настройка трассировки: %w", err)
	}

	a.shutdowns = append(a.shutdowns, func(ctx context.Context) {
		if err := shutdown(ctx); err != nil {
			logger.Warn("Не удалось дописать спаны", zap.Error(err))
		}
	})
	return nil
}

func (a *App) initRepository(ctx context.Context) error {
	switch a.config.Repository.Type {
	case config.RepositoryPostgres:
		storage, err := postgres.New(ctx, a.config.Database.URL, postgres.PoolSettings{
			MaxConns:        a.config.Database.MaxConnections,
			MinConns:        a.config.Database.MinConnections,
			MaxConnIdleTime: a.config.Database.IdleTimeout,
		})
		if err != nil {
			return fmt.Errorf("подключение к postgres: %w", err)
		}
		a.shutdowns = append(a.shutdowns, func(context.Context) { storage.Close() })

		if a.config.Database.Migrate {
			if err := storage.Migrate(ctx); err != nil {
				return err
			}
		}
		a.repository = storage

	case config.RepositoryMongo:
		storage, err := mongodb.New(ctx, a.config.Mongo.URI, a.config.Mongo.Database)
		if err != nil {
			return fmt.Errorf("подключение к mongo: %w", err)
		}
		a.shutdowns = append(a.shutdowns, storage.Close)
		a.repository = storage

	default:
		a.repository = inmemory.NewTaskStorage()
	}

	logger.Info("Хранилище готово", zap.String("type", a.config.Repository.Type))
	return nil
}

func (a *App) initNotifier() error {
	if !a.config.Mail.Enabled() {
		logger.Warn("Почта не настроена, письма будут только в логе")
		a.notifier = notifier.NewLogNotifier()
		return nil
	}

	smtp, err := notifier.NewSMTPNotifier(notifier.SMTPSettings{
		Host:     a.config.Mail.Host,
		Port:     a.config.Mail.Port,
		Username: a.config.Mail.Username,
		Password: a.config.Mail.Password,
		From:     a.config.Mail.From,
		Timeout:  a.config.Mail.Timeout,
	})
	if err != nil {
		return fmt.Errorf("настройка почты: %w", err)
	}
	a.notifier = smtp
	return nil
}

// Run блокируется до отмены ctx или падения сервера
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.worker.Start(gctx)
		return nil
	})

	g.Go(func() error {
		logger.Info("Сервер запущен", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http сервер: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Остановка сервера...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("остановка сервера: %w", err)
		}
		return nil
	})

	err := g.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	a.Shutdown(shutdownCtx)

	return err
}

func (a *App) Shutdown(ctx context.Context) {
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i](ctx)
	}
	a.shutdowns = nil
}
