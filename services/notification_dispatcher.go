package services

import (
	"context"
	"log"
	"sync"
	"time"

	"focalAPI/internal/types/notification"
)

type PushNotificationProvider interface {
	SendPush(ctx context.Context, tokens []notification.DeviceToken, title, body string, data map[string]any) error
}

// NotificationDispatcher pushes stored notifications to devices through
// a small worker pool and runs the periodic reminder scans.
type NotificationDispatcher struct {
	service      *NotificationService
	pushProvider PushNotificationProvider
	workers      int
	jobQueue     chan *notification.Notification
	stopChan     chan struct{}
	wg           sync.WaitGroup
}

func NewNotificationDispatcher(service *NotificationService) *NotificationDispatcher {
	dispatcher := &NotificationDispatcher{
		service:  service,
		workers:  5,
		jobQueue: make(chan *notification.Notification, 100),
		stopChan: make(chan struct{}),
	}

	dispatcher.startWorkers()
	go dispatcher.runReminderLoop()

	return dispatcher
}

// SetPushProvider injects the real FCM provider from main. Without a
// provider the dispatcher only logs.
func (d *NotificationDispatcher) SetPushProvider(provider PushNotificationProvider) {
	d.pushProvider = provider
}

func (d *NotificationDispatcher) startWorkers() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
}

func (d *NotificationDispatcher) worker() {
	defer d.wg.Done()
	for {
		select {
		case notif := <-d.jobQueue:
			d.processJob(notif)
		case <-d.stopChan:
			return
		}
	}
}

func (d *NotificationDispatcher) processJob(notif *notification.Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if d.pushProvider == nil {
		log.Printf("Dispatcher: no push provider set, skipping notification %s", notif.ID)
		return
	}

	tokens, err := d.service.getDeviceTokens(ctx, notif.UserID)
	if err != nil {
		log.Printf("Dispatcher: failed to get device tokens for user %s: %v", notif.UserID, err)
		return
	}
	if len(tokens) == 0 {
		return
	}

	if err := d.pushProvider.SendPush(ctx, tokens, notif.Title, notif.Message, notif.Data); err != nil {
		log.Printf("Dispatcher: push failed for user %s: %v", notif.UserID, err)
	}
}

// Dispatch queues a notification for push delivery. Drops the job if
// the queue stays full; the row is already stored, so the in-app list
// still shows it.
func (d *NotificationDispatcher) Dispatch(notif *notification.Notification) {
	select {
	case d.jobQueue <- notif:
	case <-time.After(5 * time.Second):
		log.Printf("Dispatcher: queue full, dropping push for notification %s", notif.ID)
	}
}

// runReminderLoop triggers the streak-risk and event-reminder scans
// every hour. The scans are idempotent per day, so the interval only
// controls latency.
func (d *NotificationDispatcher) runReminderLoop() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.runReminders()
		case <-d.stopChan:
			return
		}
	}
}

func (d *NotificationDispatcher) runReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if count, err := d.service.NotifyStreakAtRisk(ctx); err != nil {
		log.Printf("Dispatcher: streak reminder scan failed: %v", err)
	} else if count > 0 {
		log.Printf("Dispatcher: sent %d streak reminders", count)
	}

	if count, err := d.service.NotifyUpcomingEvents(ctx); err != nil {
		log.Printf("Dispatcher: event reminder scan failed: %v", err)
	} else if count > 0 {
		log.Printf("Dispatcher: sent %d event reminders", count)
	}
}

// Stop drains the workers and halts the reminder loop.
func (d *NotificationDispatcher) Stop() {
	close(d.stopChan)
	d.wg.Wait()
}
