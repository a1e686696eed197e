package notification

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"telescope-booking-backend/internal/model"
)

// Sender defines the interface for sending a web push notification.
type Sender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is the real implementation backed by the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WorkerPool fans freed-slot announcements out to push subscribers. A
// cancellation dispatches the instrument id; workers look up that
// instrument's subscriptions and notify each of them. Delivery is entirely
// best-effort and decoupled from the cancellation response.
type WorkerPool struct {
	size    int
	jobs    chan int64
	db      *gorm.DB
	webpush *webpush.Options
	sender  Sender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan int64, size),
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("notification worker %d started", id)
	for {
		select {
		case instrumentID := <-wp.jobs:
			wp.notifyInstrumentSubscribers(ctx, instrumentID)
		case <-ctx.Done():
			log.Printf("notification worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues a freed-slot announcement for an instrument. It never
// blocks the caller: when the queue is full the announcement is dropped.
func (wp *WorkerPool) Dispatch(instrumentID int64) {
	select {
	case wp.jobs <- instrumentID:
	default:
		log.Printf("notification queue full, dropping announcement for instrument %d", instrumentID)
	}
}

func (wp *WorkerPool) notifyInstrumentSubscribers(ctx context.Context, instrumentID int64) {
	var subscriptions []model.PushSubscription
	err := wp.db.WithContext(ctx).
		Joins("JOIN subscription_instrument_mapping sim ON sim.push_subscription_endpoint = push_subscriptions.endpoint").
		Where("sim.instrument_id = ?", instrumentID).
		Find(&subscriptions).Error
	if err != nil {
		log.Printf("error fetching subscriptions for instrument %d: %v", instrumentID, err)
		return
	}

	if len(subscriptions) == 0 {
		return
	}

	var instrument model.Instrument
	label := fmt.Sprintf("%d", instrumentID)
	if err := wp.db.WithContext(ctx).
		Select("name").
		First(&instrument, instrumentID).Error; err != nil {
		log.Printf("error fetching instrument %d: %v", instrumentID, err)
	} else if instrument.Name != "" {
		label = instrument.Name
	}

	log.Printf("sending %d freed-slot notifications for instrument %d", len(subscriptions), instrumentID)
	message := fmt.Sprintf("A reservation on telescope %s was cancelled - a slot just opened up.", label)
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, []byte(message))
	}
}

func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Printf("error sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	// 404/410 mean the subscription is gone; clean it up.
	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		if err := wp.db.WithContext(ctx).Delete(&model.PushSubscription{Endpoint: sub.Endpoint}).Error; err != nil {
			log.Printf("error deleting expired subscription %s: %v", sub.Endpoint, err)
		}
		return
	}

	if resp.StatusCode >= 400 {
		log.Printf("push service returned %d for %s", resp.StatusCode, sub.Endpoint)
	}
}
