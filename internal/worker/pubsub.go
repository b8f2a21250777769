package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// Job types accepted on the refresh subscription.
const (
	JobCacheRefresh = "cache_refresh"
	JobHealthCheck  = "health_check"
)

// errUnknownJob is returned for messages that should be dropped rather
// than redelivered.
var errUnknownJob = errors.New("unknown job type")

// PubSubHandler handles Pub/Sub messages for the worker.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	refreshJob       *RefreshJob
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	RefreshJob       *RefreshJob
	Logger           zerolog.Logger
}

// RefreshMessage is a cache refresh job message. Horizons and SensorIDs
// narrow a cache_refresh to the listed entries.
type RefreshMessage struct {
	JobType   string   `json:"job_type"`
	Horizons  []int    `json:"horizons,omitempty"`
	SensorIDs []string `json:"sensor_ids,omitempty"`
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)
	subscriber.ReceiveSettings.MaxOutstandingMessages = 10
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		refreshJob:       cfg.RefreshJob,
		logger:           cfg.Logger,
	}, nil
}

// Start begins processing Pub/Sub messages. It blocks until ctx is done.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		logger := h.logger.With().
			Str("message_id", msg.ID).
			Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
			Logger()

		switch err := h.process(ctx, msg.Data); {
		case err == nil:
			msg.Ack()
		case errors.Is(err, errUnknownJob):
			logger.Warn().Err(err).Msg("dropping message")
			msg.Ack()
		default:
			logger.Error().Err(err).Msg("job failed")
			msg.Nack()
		}
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

func (h *PubSubHandler) process(ctx context.Context, data []byte) error {
	startTime := time.Now()

	var msg RefreshMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("parsing message: %w", err)
	}

	var err error
	switch msg.JobType {
	case JobCacheRefresh:
		err = h.handleCacheRefresh(ctx, msg)
	case JobHealthCheck:
		err = h.handleHealthCheck(ctx)
	default:
		return fmt.Errorf("%w: %q", errUnknownJob, msg.JobType)
	}
	if err != nil {
		return err
	}

	h.logger.Info().
		Str("job_type", msg.JobType).
		Dur("duration", time.Since(startTime)).
		Msg("job completed successfully")
	return nil
}

func (h *PubSubHandler) handleCacheRefresh(ctx context.Context, msg RefreshMessage) error {
	cfg := h.refreshJob.Config()
	if len(msg.Horizons) > 0 || len(msg.SensorIDs) > 0 {
		cfg.RefreshCurrent = false
		cfg.RefreshRecommendations = false
		cfg.RefreshModelMetrics = false
		cfg.RefreshForecasts = len(msg.Horizons) > 0
		cfg.RefreshSensors = len(msg.SensorIDs) > 0
		cfg.Horizons = msg.Horizons
		cfg.SensorIDs = msg.SensorIDs
	}

	result := h.refreshJob.RunTasks(ctx, cfg.Tasks())
	if !result.Healthy() {
		return fmt.Errorf("too many refresh failures: %d/%d", result.Failed, result.TotalTasks)
	}
	return nil
}

// handleHealthCheck refreshes the current summary only, to verify
// upstream connectivity.
func (h *PubSubHandler) handleHealthCheck(ctx context.Context) error {
	result := h.refreshJob.RunTasks(ctx, []Task{{Kind: TaskCurrent}})
	if result.Failed > 0 {
		return fmt.Errorf("health check failed: %s", result.Errors[0].Error)
	}
	return nil
}
