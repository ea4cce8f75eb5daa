package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SMSReceivedMessage carries one raw SMS from a gateway to the ingest worker.
// The worker runs the full parse pipeline, so the message holds only the
// untouched body and sender.
type SMSReceivedMessage struct {
	ID         string    `json:"id"`
	Sender     string    `json:"sender"`
	Body       string    `json:"body"`
	ReceivedAt time.Time `json:"receivedAt"`
}

func NewSMSReceivedMessage(sender, body string) *SMSReceivedMessage {
	return &SMSReceivedMessage{
		ID:         uuid.NewString(),
		Sender:     sender,
		Body:       body,
		ReceivedAt: time.Now(),
	}
}

func (m *SMSReceivedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func SMSReceivedMessageFromJSON(data []byte) (*SMSReceivedMessage, error) {
	var msg SMSReceivedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
