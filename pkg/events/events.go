package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/propernest/lettings/pkg/logger"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type Subscriber interface {
	Subscribe(subject string, handler func(msg *Message)) error
	QueueSubscribe(subject, queue string, handler func(msg *Message)) error
	Close() error
}

type EventBus interface {
	Publisher
	Subscriber
}

type Message struct {
	Subject   string
	Data      []byte
	Timestamp time.Time
}

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSEventBus) Subscribe(subject string, handler func(msg *Message)) error {
	_, err := n.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(&Message{
			Subject:   msg.Subject,
			Data:      msg.Data,
			Timestamp: time.Now(),
		})
	})
	return err
}

func (n *NATSEventBus) QueueSubscribe(subject, queue string, handler func(msg *Message)) error {
	_, err := n.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		handler(&Message{
			Subject:   msg.Subject,
			Data:      msg.Data,
			Timestamp: time.Now(),
		})
	})
	return err
}

func (n *NATSEventBus) Close() error {
	n.conn.Close()
	return nil
}

// Event subjects
const (
	AccountRegistered = "account.registered"
	AccountActivated  = "account.activated"
	AccountSuspended  = "account.suspended"

	PropertyListed = "property.listed"

	ViewingRequested = "viewing.requested"
	ViewingAccepted  = "viewing.accepted"
	ViewingRejected  = "viewing.rejected"
	ViewingWithdrawn = "viewing.withdrawn"
)

// Event payloads
type AccountRegisteredEvent struct {
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type AccountSuspendedEvent struct {
	UserID         int64     `json:"user_id"`
	Email          string    `json:"email"`
	FailedAttempts int       `json:"failed_attempts"`
	SuspendedAt    time.Time `json:"suspended_at"`
}

type PropertyListedEvent struct {
	PropertyID int64     `json:"property_id"`
	OwnerID    int64     `json:"owner_id"`
	Address    string    `json:"address"`
	ListedAt   time.Time `json:"listed_at"`
}

type ViewingRequestedEvent struct {
	RequestID     int64     `json:"request_id"`
	RequesterID   int64     `json:"requester_id"`
	PropertyID    int64     `json:"property_id"`
	OwnerID       int64     `json:"owner_id"`
	PreferredDate time.Time `json:"preferred_date"`
	ViewingType   string    `json:"viewing_type"`
	RequestedAt   time.Time `json:"requested_at"`
}

type ViewingDecidedEvent struct {
	RequestID   int64     `json:"request_id"`
	RequesterID int64     `json:"requester_id"`
	PropertyID  int64     `json:"property_id"`
	OwnerID     int64     `json:"owner_id"`
	DecidedAt   time.Time `json:"decided_at"`
}
