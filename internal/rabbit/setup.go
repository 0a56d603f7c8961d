// setup.go
package rabbit

import (
	"log"

	"github.com/rabbitmq/amqp091-go"
)

// SetupConsumers binds this service's queue to the payment_confirmed
// exchange and starts consuming.
func SetupConsumers(ch *amqp091.Channel, svc statusUpdater) {
	consumer := NewPaymentConfirmedConsumer(svc)

	q, err := ch.QueueDeclare(
		"order_fulfillment_payment_confirmed",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		log.Println("error declaring queue:", err)
		return
	}

	if err := ch.ExchangeDeclare("payment_confirmed", "fanout", true, false, false, false, nil); err != nil {
		log.Println("error declaring exchange:", err)
		return
	}

	err = ch.QueueBind(
		q.Name,
		"", // fanout ignores the routing key
		"payment_confirmed",
		false,
		nil,
	)
	if err != nil {
		log.Println("error binding exchange:", err)
		return
	}

	msgs, err := ch.Consume(
		q.Name,
		"",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		log.Println("error consuming queue:", err)
		return
	}

	go func() {
		for m := range msgs {
			if err := consumer.Handle(m.Body); err != nil {
				log.Println("payment_confirmed handler error:", err)
			}
		}
	}()

	log.Println("subscribed to exchange payment_confirmed (fanout)")
}
