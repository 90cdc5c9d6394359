package subscriber

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/abgdnv/inventory/pkg/messaging/events"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "stock-notifier"

// ackableMsg is the part of jetstream.Msg the handler needs.
type ackableMsg interface {
	Data() []byte
	Subject() string
	Ack() error
	Nak() error
}

// Handler reports stock changes and flags products whose stock fell to the low stock threshold.
type Handler struct {
	threshold int32
	logger    *slog.Logger
	tracer    trace.Tracer
	lowStock  metric.Int64Counter
}

func NewHandler(threshold int32, logger *slog.Logger) (*Handler, error) {
	lowStock, err := otel.Meter(instrumentationName).Int64Counter("inventory_low_stock_alerts",
		metric.WithDescription("Stock changes that left a product at or below the low stock threshold"))
	if err != nil {
		return nil, err
	}
	return &Handler{
		threshold: threshold,
		logger:    logger.With("component", "stock-notifier"),
		tracer:    otel.Tracer(instrumentationName),
		lowStock:  lowStock,
	}, nil
}

// Handle processes a single stock changed message. Malformed payloads are NAKed.
func (h *Handler) Handle(ctx context.Context, msg ackableMsg) {
	if msg == nil {
		h.logger.ErrorContext(ctx, "received nil message")
		return
	}
	var event events.StockChangedEvent
	if err := json.Unmarshal(msg.Data(), &event); err != nil {
		h.logger.ErrorContext(ctx, "failed to unmarshal message", "error", err, "subject", msg.Subject())
		if err := msg.Nak(); err != nil {
			h.logger.ErrorContext(ctx, "failed to nak message", "error", err)
		}
		return
	}

	ctx = otel.GetTextMapPropagator().Extract(ctx, event.Carrier)
	ctx, span := h.tracer.Start(ctx, "stock.changed process",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.destination.name", msg.Subject()),
			attribute.Int64("product.id", event.ProductID),
		))
	defer span.End()

	h.logger.InfoContext(ctx, "received stock changed event",
		slog.String("event_id", event.EventID.String()),
		slog.Int64("product_id", event.ProductID),
		slog.String("name", event.Name),
		slog.String("operation", event.Operation),
		slog.Int("delta", int(event.Delta)),
		slog.Int("quantity", int(event.Quantity)))

	if h.IsLow(event.Quantity) {
		h.lowStock.Add(ctx, 1, metric.WithAttributes(attribute.String("category", event.Category)))
		h.logger.WarnContext(ctx, "low stock",
			slog.Int64("product_id", event.ProductID),
			slog.String("name", event.Name),
			slog.String("category", event.Category),
			slog.Int("quantity", int(event.Quantity)),
			slog.Int("threshold", int(h.threshold)))
	}

	if err := msg.Ack(); err != nil {
		span.SetStatus(codes.Error, "ack failed")
		h.logger.ErrorContext(ctx, "failed to ack message", "error", err)
	}
}

// IsLow reports whether quantity is at or below the threshold.
func (h *Handler) IsLow(quantity int32) bool {
	return quantity <= h.threshold
}
