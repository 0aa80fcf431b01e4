package domain

import (
	"context"
	"time"
)

//go:generate mockgen -source=dispatcher.go -destination=dispatcher_mock.go -package=domain

// Payload is the finalized notification handed to the platform's
// local-notification delivery bridge.
type Payload struct {
	Identifier string            `json:"identifier"`
	Title      string            `json:"title"`
	Body       string            `json:"body"`
	Sound      string            `json:"sound,omitempty"`
	Badge      int               `json:"badge,omitempty"`
	Category   string            `json:"category,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// Trigger tells the delivery bridge when to fire the notification.
type Trigger struct {
	Date    time.Time `json:"date"`
	Repeats bool      `json:"repeats"`
}

// Dispatcher submits prepared notifications to the OS delivery mechanism.
// The bridge owns actual delivery and reports events back asynchronously.
type Dispatcher interface {
	Submit(ctx context.Context, payload *Payload, trigger *Trigger) error
	Cancel(ctx context.Context, identifier string) error
}

// EventKind classifies an inbound callback from the delivery bridge.
type EventKind string

const (
	EventDelivered   EventKind = "delivered"
	EventInteraction EventKind = "interaction"
)

// DeliveryEvent is one asynchronous callback from the delivery bridge.
type DeliveryEvent struct {
	Kind         EventKind         `json:"kind"`
	Identifier   string            `json:"identifier"`
	Action       InteractionAction `json:"action,omitempty"`
	ResponseTime time.Duration     `json:"response_time,omitempty"`
	OccurredAt   time.Time         `json:"occurred_at"`
}
