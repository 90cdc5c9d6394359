// Package messaging defines the domain event contract shared by publishers and subscribers.
package messaging

import (
	"context"
)

const (
	// StockChangedSubject carries StockChangedEvent payloads.
	StockChangedSubject = "inventory.stock.changed"
	// StockSubjects matches every inventory stock subject, used when declaring the stream.
	StockSubjects = "inventory.stock.>"
)

type Event interface {
	Subject() string
	Payload() ([]byte, error)
}

// Identified is implemented by events carrying a unique id usable for de-duplication.
type Identified interface {
	ID() string
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NoopPublisher drops every event. Used when messaging is disabled.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
