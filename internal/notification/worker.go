// Package notification delivers breakdown alerts to browser push
// subscriptions that follow the affected subdivision.
package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"ac-maintenance-backend/internal/model"
)

// Sender sends a single web push message.
type Sender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is the Sender backed by webpush-go.
type WebPushSender struct{}

func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// Dispatcher queues a breakdown alert for an air conditioner. It reports
// false when the alert was dropped.
type Dispatcher interface {
	Dispatch(acID uint) bool
}

// Message is the JSON payload pushed to subscribers.
type Message struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	ACID  uint   `json:"ac_id"`
}

// WorkerPool fans breakdown alerts out to a fixed number of workers.
type WorkerPool struct {
	size    int
	jobs    chan uint
	db      *gorm.DB
	webpush *webpush.Options
	sender  Sender
	logger  *zap.Logger
}

// NewWorkerPool creates a pool with a job buffer of the same size.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options, logger *zap.Logger) *WorkerPool {
	if size < 1 {
		size = 1
	}
	return &WorkerPool{
		size:    size,
		jobs:    make(chan uint, size),
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
		logger:  logger.Named("notification"),
	}
}

// Start launches the workers. They stop when ctx is done.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log := wp.logger.With(zap.Int("worker", id))
	log.Debug("worker started")
	for {
		select {
		case acID := <-wp.jobs:
			wp.notifyBreakdown(ctx, acID)
		case <-ctx.Done():
			log.Debug("worker shutting down")
			return
		}
	}
}

// Dispatch queues an alert without blocking. A full queue drops the alert.
func (wp *WorkerPool) Dispatch(acID uint) bool {
	select {
	case wp.jobs <- acID:
		return true
	default:
		wp.logger.Warn("alert queue full, dropping breakdown alert", zap.Uint("ac_id", acID))
		return false
	}
}

func (wp *WorkerPool) notifyBreakdown(ctx context.Context, acID uint) {
	log := wp.logger.With(zap.Uint("ac_id", acID))

	var ac model.AirConditioner
	if err := wp.db.WithContext(ctx).
		Select("id", "serial_number", "subdivision_id").
		First(&ac, acID).Error; err != nil {
		log.Error("failed to load air conditioner", zap.Error(err))
		return
	}
	if ac.SubdivisionID == nil {
		return
	}

	var subscriptions []model.PushSubscription
	err := wp.db.WithContext(ctx).
		Joins("JOIN subscription_subdivision_mapping ssm ON ssm.push_subscription_endpoint = push_subscriptions.endpoint").
		Where("ssm.subdivision_id = ?", *ac.SubdivisionID).
		Find(&subscriptions).Error
	if err != nil {
		log.Error("failed to fetch subscriptions", zap.Error(err))
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	payload, err := json.Marshal(Message{
		Title: "Breakdown reported",
		Body:  fmt.Sprintf("Air conditioner %s reported a breakdown", ac.SerialNumber),
		ACID:  ac.ID,
	})
	if err != nil {
		log.Error("failed to encode alert", zap.Error(err))
		return
	}

	log.Info("sending breakdown alerts", zap.Int("subscriptions", len(subscriptions)))
	for _, sub := range subscriptions {
		wp.send(ctx, sub, payload)
	}
}

func (wp *WorkerPool) send(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		wp.logger.Warn("push failed", zap.String("endpoint", sub.Endpoint), zap.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone {
		wp.logger.Info("subscription expired, deleting", zap.String("endpoint", sub.Endpoint))
		if err := wp.expire(ctx, sub.Endpoint); err != nil {
			wp.logger.Error("failed to delete expired subscription", zap.String("endpoint", sub.Endpoint), zap.Error(err))
		}
	}
}

func (wp *WorkerPool) expire(ctx context.Context, endpoint string) error {
	return wp.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM subscription_subdivision_mapping WHERE push_subscription_endpoint = ?", endpoint).Error; err != nil {
			return err
		}
		return tx.Delete(&model.PushSubscription{Endpoint: endpoint}).Error
	})
}
