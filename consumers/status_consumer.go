package consumers

import (
	"encoding/json"
	"log"

	"autoparts-store/config"
	"autoparts-store/models"
	"autoparts-store/notifier"

	amqp "github.com/rabbitmq/amqp091-go"
)

// StartStatusConsumer feeds order status-change events from the queue into
// the notifier hub.
func StartStatusConsumer(ch *amqp.Channel, cfg *config.Config, hub *notifier.Hub) {
	msgs, err := ch.Consume(
		cfg.StatusQueue,
		"autoparts-notifier", // consumer tag
		false,                // auto-ack
		false,                // exclusive
		false,                // no-local
		false,                // no-wait
		nil,
	)
	if err != nil {
		log.Fatalf("Failed to register status consumer: %v", err)
	}

	go func() {
		for msg := range msgs {
			processStatusMessage(msg, hub)
		}
	}()
}

func processStatusMessage(msg amqp.Delivery, hub *notifier.Hub) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic in status processing: %v", r)
		}
	}()

	var ev models.OrderStatusEvent
	if err := json.Unmarshal(msg.Body, &ev); err != nil {
		log.Printf("Invalid status event: %s", msg.Body)
		_ = msg.Nack(false, false)
		return
	}

	log.Printf("Processing status event: order=%s %s -> %s", ev.OrderID, ev.OldStatus, ev.NewStatus)
	hub.HandleOrderUpdate(ev)

	_ = msg.Ack(false)
}
