package rabbit

import (
	"context"
	"encoding/json"
	"log"

	"order-fulfillment-service/internal/model"
)

// statusUpdater is the one service call the consumer needs.
type statusUpdater interface {
	UpdateOrderStatus(ctx context.Context, orderID string, status model.OrderStatus) (*model.Order, error)
}

// PaymentConfirmedConsumer moves paid orders from pending to processing
// when the payment service reports a confirmed charge.
type PaymentConfirmedConsumer struct {
	Service statusUpdater
}

func NewPaymentConfirmedConsumer(s statusUpdater) *PaymentConfirmedConsumer {
	return &PaymentConfirmedConsumer{Service: s}
}

type PaymentConfirmedMessage struct {
	CorrelationID string `json:"correlation_id"`
	Exchange      string `json:"exchange"`
	RoutingKey    string `json:"routing_key"`
	Message       struct {
		OrderID       string `json:"orderId"`
		TransactionID string `json:"transactionId"`
		Status        string `json:"status"`
	} `json:"message"`
}

func (c *PaymentConfirmedConsumer) Handle(msg []byte) error {
	var event PaymentConfirmedMessage
	if err := json.Unmarshal(msg, &event); err != nil {
		log.Println("error parsing payment_confirmed message:", err)
		return err
	}

	if event.Message.Status != "completed" {
		log.Printf("[Rabbit] ignoring payment_confirmed for order %s with status %q", event.Message.OrderID, event.Message.Status)
		return nil
	}

	_, err := c.Service.UpdateOrderStatus(context.Background(), event.Message.OrderID, model.StatusProcessing)
	if err != nil {
		log.Printf("error moving order %s to processing: %v", event.Message.OrderID, err)
		return err
	}

	log.Println("[Rabbit] order moved to processing:", event.Message.OrderID)
	return nil
}
