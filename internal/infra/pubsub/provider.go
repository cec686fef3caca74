package pubsub

import (
	"context"
	"log/slog"

	"bizdir/config"
	"bizdir/internal/domain/service"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// disabledPublisher drops approval events when no broker is configured.
type disabledPublisher struct {
	logger *slog.Logger
}

func (p *disabledPublisher) PublishBusinessApproved(ctx context.Context, event *service.BusinessApprovedEvent) error {
	p.logger.DebugContext(ctx, "Approval event dropped, no broker configured",
		slog.String("business_id", event.BusinessID),
	)

	return nil
}

func (p *disabledPublisher) Close() error { return nil }

// PublisherParams holds dependencies for EventPublisher, injected by Fx
type PublisherParams struct {
	fx.In

	Lc     fx.Lifecycle
	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger
}

// NewEventPublisher selects the broker for approval events from the pubsub config section.
// An absent section or provider disables publishing; the orchestrator treats that as success.
func NewEventPublisher(params PublisherParams) (service.EventPublisher, error) {
	cfg := params.Config.PubSub
	if cfg == nil || cfg.Provider == "" {
		params.Logger.Info("Approval events disabled")

		return &disabledPublisher{logger: params.Logger}, nil
	}

	publisher, err := openPublisher(params.Ctx, cfg, params.Logger)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s publisher", cfg.Provider)
	}

	params.Lc.Append(fx.StopHook(func() error {
		params.Logger.Info("Closing approval event publisher", slog.String("provider", cfg.Provider))

		return publisher.Close()
	}))

	return publisher, nil
}

func openPublisher(ctx context.Context, cfg *config.PubSubConfig, logger *slog.Logger) (service.EventPublisher, error) {
	switch cfg.Provider {
	case config.PubSubProviderLocal:
		if cfg.LocalEndpoint == "" {
			return nil, errors.New("localEndpoint is empty")
		}
		logger.Info("Approval events go to local endpoint", slog.String("endpoint", cfg.LocalEndpoint))

		return NewLocalHTTPPublisher(cfg.LocalEndpoint, logger), nil

	case config.PubSubProviderGoogle:
		if cfg.ProjectID == "" || cfg.TopicID == "" {
			return nil, errors.Errorf("projectId %q and topicId %q must both be set", cfg.ProjectID, cfg.TopicID)
		}
		logger.Info("Approval events go to Google Pub/Sub",
			slog.String("project_id", cfg.ProjectID),
			slog.String("topic_id", cfg.TopicID),
		)

		return NewGooglePubSubPublisher(ctx, cfg.ProjectID, cfg.TopicID, logger)
	}

	return nil, errors.Errorf("unknown provider %q", cfg.Provider)
}
