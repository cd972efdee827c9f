package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"warbler/internal/app"
	"warbler/internal/model"
	"warbler/internal/repository"
)

// NotificationWorker consumes warble/follow events and fans each one out
// into notification rows for the affected users.
type NotificationWorker struct {
	conn       *amqp.Connection
	followRepo *repository.FollowRepository
	notifRepo  *repository.NotificationRepository
	queueName  string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewNotificationWorker(
	conn *amqp.Connection,
	followRepo *repository.FollowRepository,
	notifRepo *repository.NotificationRepository,
	queueName string,
) *NotificationWorker {
	return &NotificationWorker{
		conn:       conn,
		followRepo: followRepo,
		notifRepo:  notifRepo,
		queueName:  queueName,
	}
}

func (w *NotificationWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	_, err = ch.QueueDeclare(
		w.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("declare worker queue failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}

				var event app.Event
				if err := json.Unmarshal(d.Body, &event); err != nil {
					logrus.WithError(err).Warn("worker decode event failed")
					_ = d.Nack(false, false)
					continue
				}

				if err := w.FanOut(event); err != nil {
					logrus.WithError(err).Warn("worker fan out event failed")
					_ = d.Nack(false, false)
					continue
				}

				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

// FanOut turns one event into notification rows. Warble events notify
// every follower of the author; follow events notify the followed user.
func (w *NotificationWorker) FanOut(event app.Event) error {
	switch event.Kind {
	case app.EventWarble:
		followerIDs, err := w.followRepo.FollowerIDs(event.ActorID)
		if err != nil {
			return err
		}
		notifications := make([]model.Notification, 0, len(followerIDs))
		for _, followerID := range followerIDs {
			notifications = append(notifications, model.Notification{
				UserID:    followerID,
				ActorID:   event.ActorID,
				MessageID: event.MessageID,
				Kind:      model.NotificationWarble,
			})
		}
		return w.notifRepo.CreateBatch(notifications)

	case app.EventFollow:
		if event.TargetID == 0 {
			return fmt.Errorf("follow event without target")
		}
		return w.notifRepo.CreateBatch([]model.Notification{{
			UserID:  event.TargetID,
			ActorID: event.ActorID,
			Kind:    model.NotificationFollow,
		}})

	default:
		return fmt.Errorf("unknown event kind %q", event.Kind)
	}
}

func (w *NotificationWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
