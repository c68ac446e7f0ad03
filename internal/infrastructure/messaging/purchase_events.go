package messaging

import (
	"context"

	"github.com/wekeepgrowing/adcampaign-billing/internal/usecase"
	"github.com/wekeepgrowing/adcampaign-billing/pkg/messaging"
	"go.uber.org/zap"
)

const EventPurchaseCompleted = "purchase.completed"

// Envelope is the message written to the events channel
type Envelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// PurchaseEventPublisher writes purchase events to a pub/sub channel
type PurchaseEventPublisher struct {
	publisher messaging.Publisher
	channel   string
	logger    *zap.Logger
}

func NewPurchaseEventPublisher(publisher messaging.Publisher, channel string, logger *zap.Logger) *PurchaseEventPublisher {
	return &PurchaseEventPublisher{
		publisher: publisher,
		channel:   channel,
		logger:    logger,
	}
}

func (p *PurchaseEventPublisher) PublishPurchaseCompleted(ctx context.Context, event *usecase.PurchaseCompletedEvent) error {
	if err := p.publisher.Publish(ctx, p.channel, Envelope{Type: EventPurchaseCompleted, Data: event}); err != nil {
		return err
	}

	p.logger.Debug("Purchase event published",
		zap.String("channel", p.channel),
		zap.String("payment_id", event.PaymentID))
	return nil
}
