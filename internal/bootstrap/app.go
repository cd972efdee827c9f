package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"warbler/internal/app"
	"warbler/internal/config"
	"warbler/internal/model"
	mysqlClient "warbler/internal/platform/mysql"
	rabbitmqClient "warbler/internal/platform/rabbitmq"
	redisClient "warbler/internal/platform/redis"
	"warbler/internal/repository"
	"warbler/internal/worker"
)

type App struct {
	Config    *config.Config
	DB        *gorm.DB
	Redis     *redis.Client
	MQConn    *amqp.Connection
	Publisher app.EventPublisher
	Worker    *worker.NotificationWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	db, err := mysqlClient.New(ctx, cfg.MySQLDSN())
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}

	redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}

	application := &App{
		Config:    cfg,
		DB:        db,
		Redis:     redisCli,
		StartedAt: time.Now(),
	}

	// The notification pipeline is optional; an unset URL runs the app
	// without a broker.
	if cfg.RabbitMQ.URL != "" {
		mqConn, err := rabbitmqClient.New(cfg.RabbitMQ.URL)
		if err != nil {
			return nil, err
		}
		application.MQConn = mqConn
		application.Publisher = rabbitmqClient.NewEventPublisher(mqConn, cfg.RabbitMQ.EventQueue)

		followRepo := repository.NewFollowRepository(db)
		notifRepo := repository.NewNotificationRepository(db)
		application.Worker = worker.NewNotificationWorker(mqConn, followRepo, notifRepo, cfg.RabbitMQ.EventQueue)
		if err := application.Worker.Start(ctx); err != nil {
			return nil, fmt.Errorf("start notification worker failed: %w", err)
		}
	} else {
		logrus.Info("rabbitmq url not set, notification pipeline disabled")
	}

	return application, nil
}

// Migrate creates or updates every table the application owns.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.User{},
		&model.Message{},
		&model.Follow{},
		&model.Like{},
		&model.Notification{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate tables failed: %w", err)
	}
	return nil
}

func (a *App) Close() error {
	var closeErr error
	if a.Worker != nil {
		a.Worker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
