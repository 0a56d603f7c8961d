package rabbit

import (
	"context"
	"encoding/json"

	"order-fulfillment-service/internal/model"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
)

const (
	ExchangeOrderPlaced        = "order_placed"
	ExchangeOrderStatusChanged = "order_status_changed"
	ExchangeStockLow           = "stock_low"
)

// Publisher emits order lifecycle and stock events on fanout exchanges.
// It implements the service layer's EventPublisher.
type Publisher struct {
	ch *amqp091.Channel
}

func NewPublisher(ch *amqp091.Channel) (*Publisher, error) {
	for _, exchange := range []string{ExchangeOrderPlaced, ExchangeOrderStatusChanged, ExchangeStockLow} {
		if err := ch.ExchangeDeclare(exchange, "fanout", true, false, false, false, nil); err != nil {
			return nil, err
		}
	}
	return &Publisher{ch: ch}, nil
}

// envelope matches the message shape the other services in this system
// exchange: a correlation id plus routing metadata around the payload.
type envelope struct {
	CorrelationID string `json:"correlation_id"`
	Exchange      string `json:"exchange"`
	RoutingKey    string `json:"routing_key"`
	Message       any    `json:"message"`
}

func (p *Publisher) publish(ctx context.Context, exchange string, message any) error {
	body, err := json.Marshal(envelope{
		CorrelationID: uuid.NewString(),
		Exchange:      exchange,
		Message:       message,
	})
	if err != nil {
		return err
	}

	return p.ch.PublishWithContext(ctx, exchange, "", false, false, amqp091.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
}

func (p *Publisher) OrderPlaced(ctx context.Context, o *model.Order) error {
	return p.publish(ctx, ExchangeOrderPlaced, map[string]any{
		"orderId": o.OrderID,
		"userId":  o.UserID,
		"total":   o.Total,
		"items":   o.Items,
	})
}

func (p *Publisher) OrderStatusChanged(ctx context.Context, o *model.Order, previous model.OrderStatus) error {
	return p.publish(ctx, ExchangeOrderStatusChanged, map[string]any{
		"orderId":        o.OrderID,
		"userId":         o.UserID,
		"status":         o.Status,
		"previousStatus": previous,
	})
}

func (p *Publisher) StockLow(ctx context.Context, rec *model.InventoryRecord) error {
	return p.publish(ctx, ExchangeStockLow, map[string]any{
		"productId":    rec.ProductID,
		"quantity":     rec.Quantity,
		"reorderPoint": rec.ReorderPoint,
		"location":     rec.Location,
	})
}
