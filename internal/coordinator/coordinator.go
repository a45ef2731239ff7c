// Package coordinator implements the Pipeline Coordinator (§4.8): the
// process-lifetime wiring between the Message Source, Signal Recorder,
// Execution Engine, Position Synchronizer, and Notification Hub.
package coordinator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/signalbridge/platform/internal/broker"
	"github.com/signalbridge/platform/internal/notify"
	"github.com/signalbridge/platform/internal/repository"
	"github.com/signalbridge/platform/internal/scheduler"
	"github.com/signalbridge/platform/internal/signalrecorder"
	"github.com/signalbridge/platform/internal/telegram"
)

// MessageSource is the subset of internal/telegram.Source the Coordinator
// depends on, so that a fake source can be wired in tests.
type MessageSource interface {
	RegisterHandler(channelID int64, handler telegram.MessageHandler)
	UnregisterHandler(channelID int64)
	Run(ctx context.Context)
	Disconnect(ctx context.Context) error
}

// Status is the closed set of values /system/status reports.
type Status string

const (
	StatusStopped Status = "stopped"
	StatusRunning Status = "running"
)

// Coordinator implements httpapi.SystemController.
type Coordinator struct {
	store     *repository.Store
	source    MessageSource
	recorder  *signalrecorder.Recorder
	brokers   broker.Registry
	hub       *notify.Hub
	scheduler *scheduler.Scheduler
	log       zerolog.Logger

	mu         sync.Mutex
	status     Status
	cancelRun  context.CancelFunc
	listenerWG sync.WaitGroup
}

func New(store *repository.Store, source MessageSource, recorder *signalrecorder.Recorder, brokers broker.Registry, hub *notify.Hub, sched *scheduler.Scheduler, log zerolog.Logger) *Coordinator {
	return &Coordinator{
		store:     store,
		source:    source,
		recorder:  recorder,
		brokers:   brokers,
		hub:       hub,
		scheduler: sched,
		log:       log.With().Str("component", "coordinator").Logger(),
		status:    StatusStopped,
	}
}

// Start implements §4.8's startup sequence: load active subscriptions,
// register one handler per subscription, run the Message Source loop, start
// the Synchronizer, start the hub heartbeat.
func (c *Coordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status == StatusRunning {
		return nil
	}

	subscriptions, err := c.store.Channels.ListAllActive()
	if err != nil {
		return fmt.Errorf("coordinator start: failed to load channel subscriptions: %w", err)
	}

	for _, sub := range subscriptions {
		userID := sub.UserID
		c.source.RegisterHandler(sub.ChannelID, func(handlerCtx context.Context, msg telegram.IncomingMessage) {
			receivedAt := time.Unix(msg.Timestamp, 0)
			if msg.Timestamp == 0 {
				receivedAt = time.Now()
			}
			c.recorder.Record(handlerCtx, msg.ChannelID, userID, msg.Text, receivedAt)
		})
	}

	runCtx, cancel := context.WithCancel(context.Background())
	c.cancelRun = cancel
	c.listenerWG.Add(1)
	go func() {
		defer c.listenerWG.Done()
		c.source.Run(runCtx)
	}()

	c.scheduler.Start()

	c.status = StatusRunning
	c.log.Info().Int("subscriptions", len(subscriptions)).Msg("pipeline coordinator started")
	return nil
}

// Stop implements §5's cancellation ordering: listener task, then
// Synchronizer (carried by the scheduler), then the hub heartbeat — both of
// which the scheduler owns as cron jobs, so a single Stop drains both in the
// order they were registered.
func (c *Coordinator) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status == StatusStopped {
		return nil
	}

	if c.cancelRun != nil {
		c.cancelRun()
	}
	c.listenerWG.Wait()

	if err := c.source.Disconnect(ctx); err != nil {
		c.log.Error().Err(err).Msg("failed to disconnect message source cleanly")
	}

	c.scheduler.Stop()

	c.status = StatusStopped
	c.log.Info().Msg("pipeline coordinator stopped")
	return nil
}

// Status reports the Coordinator's run state for /system/status.
func (c *Coordinator) Status() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return string(c.status)
}
