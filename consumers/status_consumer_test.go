package consumers

import (
	"encoding/json"
	"testing"

	"autoparts-store/models"
	"autoparts-store/notifier"

	amqp "github.com/rabbitmq/amqp091-go"
)

type captureSink struct {
	got []notifier.Notification
}

func (c *captureSink) Schedule(n notifier.Notification) {
	c.got = append(c.got, n)
}

func TestProcessStatusMessage(t *testing.T) {
	hub := notifier.NewHub()
	sink := &captureSink{}
	hub.Subscribe("u1", sink)

	body, _ := json.Marshal(models.OrderStatusEvent{
		OrderID:   "o1",
		UserID:    "u1",
		OldStatus: models.OrderWaitingVerification,
		NewStatus: models.OrderApproved,
	})
	processStatusMessage(amqp.Delivery{Body: body}, hub)

	if len(sink.got) != 1 {
		t.Fatalf("delivered %d notifications, want 1", len(sink.got))
	}
}

func TestProcessStatusMessage_BadPayload(t *testing.T) {
	hub := notifier.NewHub()
	sink := &captureSink{}
	hub.Subscribe("u1", sink)

	processStatusMessage(amqp.Delivery{Body: []byte("not json")}, hub)

	if len(sink.got) != 0 {
		t.Fatalf("malformed message must not notify")
	}
}
