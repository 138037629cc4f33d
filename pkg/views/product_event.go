package views

import (
	"time"

	"github.com/nimeshabuddhika/product-api/pkg/models"
)

type ProductEventType string

const (
	ProductCreated ProductEventType = "product.created"
	ProductUpdated ProductEventType = "product.updated"
	ProductDeleted ProductEventType = "product.deleted"
)

// ProductEvent is published after every successful product mutation.
type ProductEvent struct {
	Type       ProductEventType `json:"type"`
	TraceID    string           `json:"traceId"`
	Product    models.Product   `json:"product"`
	OccurredAt time.Time        `json:"occurredAt"`
}

func NewProductEvent(t ProductEventType, traceID string, p models.Product) ProductEvent {
	return ProductEvent{Type: t, TraceID: traceID, Product: p, OccurredAt: time.Now().UTC()}
}
