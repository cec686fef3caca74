// Package pubsub publishes domain events to a message broker.
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"bizdir/internal/domain/service"

	"cloud.google.com/go/pubsub/v2"
	pubsubpb "cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"github.com/pkg/errors"
)

const eventTypeBusinessApproved = "business.approved"

// googlePubSubPublisher implements EventPublisher using Google Cloud Pub/Sub
type googlePubSubPublisher struct {
	client    *pubsub.Client
	publisher *pubsub.Publisher
	logger    *slog.Logger
}

// NewGooglePubSubPublisher connects to projectID and fails fast when topicID does not exist.
func NewGooglePubSubPublisher(ctx context.Context, projectID, topicID string, logger *slog.Logger) (service.EventPublisher, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	topicPath := fmt.Sprintf("projects/%s/topics/%s", projectID, topicID)
	if _, err := client.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: topicPath}); err != nil {
		client.Close()

		return nil, errors.Wrapf(err, "failed to get topic %s", topicID)
	}

	return &googlePubSubPublisher{
		client:    client,
		publisher: client.Publisher(topicID),
		logger:    logger,
	}, nil
}

// PublishBusinessApproved publishes the event and waits for the server acknowledgement.
func (p *googlePubSubPublisher) PublishBusinessApproved(ctx context.Context, event *service.BusinessApprovedEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return errors.WithStack(err)
	}

	result := p.publisher.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: eventAttributes(event),
	})

	serverID, err := result.Get(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to publish business approved event")
	}

	p.logger.InfoContext(ctx, "[GooglePubSub] Business approved event published",
		slog.String("business_id", event.BusinessID),
		slog.String("server_id", serverID),
	)

	return nil
}

// Close flushes pending messages and releases client resources.
func (p *googlePubSubPublisher) Close() error {
	if p.publisher != nil {
		p.publisher.Stop()
	}
	if p.client != nil {
		return errors.WithStack(p.client.Close())
	}

	return nil
}

// eventAttributes are the message attributes subscribers filter on.
func eventAttributes(event *service.BusinessApprovedEvent) map[string]string {
	attributes := map[string]string{
		"event_type":  eventTypeBusinessApproved,
		"business_id": event.BusinessID,
		"plan_type":   event.PlanType,
	}
	if event.RequestID != "" {
		attributes["request_id"] = event.RequestID
	}

	return attributes
}
