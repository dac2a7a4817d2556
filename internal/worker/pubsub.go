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

// Job types carried in Pub/Sub messages.
const (
	JobNetworkRefresh = "network_refresh"
	JobHealthCheck    = "health_check"
)

var (
	// ErrUnknownJob indicates a message with an unsupported job type.
	ErrUnknownJob = errors.New("unknown job type")

	// ErrMalformedMessage indicates a message body that isn't valid JSON.
	ErrMalformedMessage = errors.New("malformed message")
)

// JobMessage is the Pub/Sub message body.
type JobMessage struct {
	JobType string `json:"job_type"`
}

// HealthCheck verifies the network source is reachable.
type HealthCheck func(ctx context.Context) error

// Dispatcher executes jobs decoded from message bodies.
type Dispatcher struct {
	refreshJob  *RefreshJob
	healthCheck HealthCheck
	logger      zerolog.Logger
}

// NewDispatcher creates a dispatcher. healthCheck may be nil.
func NewDispatcher(job *RefreshJob, healthCheck HealthCheck, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{refreshJob: job, healthCheck: healthCheck, logger: logger}
}

// Dispatch decodes data and runs the requested job.
func (d *Dispatcher) Dispatch(ctx context.Context, data []byte) error {
	var msg JobMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}

	switch msg.JobType {
	case JobNetworkRefresh:
		result := d.refreshJob.Run(ctx)
		if result.Failed > 0 {
			return fmt.Errorf("network refresh failed for %d of %d targets", result.Failed, result.Targets)
		}
		return nil
	case JobHealthCheck:
		if d.healthCheck == nil {
			return nil
		}
		if err := d.healthCheck(ctx); err != nil {
			return fmt.Errorf("health check: %w", err)
		}
		d.logger.Debug().Msg("health check passed")
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownJob, msg.JobType)
	}
}

// shouldAck reports whether a dispatch outcome should be acknowledged.
// Unknown jobs are acked so they are not redelivered.
func shouldAck(err error) bool {
	return err == nil || errors.Is(err, ErrUnknownJob)
}

// PubSubHandler receives job messages from a Pub/Sub subscription.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	dispatcher       *Dispatcher
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	Dispatcher       *Dispatcher
	Logger           zerolog.Logger
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)
	subscriber.ReceiveSettings.MaxOutstandingMessages = 4
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		dispatcher:       cfg.Dispatcher,
		logger:           cfg.Logger,
	}, nil
}

// Start receives messages until ctx is canceled.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		h.handleMessage(ctx, msg)
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

func (h *PubSubHandler) handleMessage(ctx context.Context, msg *pubsub.Message) {
	start := time.Now()
	logger := h.logger.With().
		Str("message_id", msg.ID).
		Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
		Logger()

	err := h.dispatcher.Dispatch(ctx, msg.Data)
	if !shouldAck(err) {
		logger.Error().Err(err).Msg("job failed")
		msg.Nack()
		return
	}
	if err != nil {
		logger.Warn().Err(err).Msg("ignoring message")
	} else {
		logger.Info().Dur("duration", time.Since(start)).Msg("job completed")
	}
	msg.Ack()
}
