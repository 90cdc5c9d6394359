package events

import (
	"encoding/json"
	"time"

	"github.com/abgdnv/inventory/pkg/messaging"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/propagation"
)

// Stock operations reported by StockChangedEvent.
const (
	OperationReduce  = "reduce"
	OperationRestore = "restore"
	OperationSet     = "set"
)

// StockChangedEvent is emitted after a product quantity has been persisted.
// Carrier holds the trace context of the operation that produced it.
type StockChangedEvent struct {
	Carrier    propagation.MapCarrier `json:"carrier,omitempty"`
	EventID    uuid.UUID              `json:"event_id"`
	ProductID  int64                  `json:"product_id"`
	Name       string                 `json:"name"`
	Category   string                 `json:"category"`
	Operation  string                 `json:"operation"`
	Delta      int32                  `json:"delta"`
	Quantity   int32                  `json:"quantity"`
	OccurredAt time.Time              `json:"occurred_at"`
}

func (e StockChangedEvent) Subject() string {
	return messaging.StockChangedSubject
}

func (e StockChangedEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}

func (e StockChangedEvent) ID() string {
	return e.EventID.String()
}
