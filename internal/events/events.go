// Package events carries catalog change notifications to live subscribers and the message broker.
package events

import (
	"context"
	"errors"
	"time"

	"foodcatalog/internal/model"
)

const (
	ProductCreated = "product.created"
	ProductUpdated = "product.updated"
	ProductDeleted = "product.deleted"
)

// CatalogEvent is the wire payload for catalog changes
type CatalogEvent struct {
	Event string         `json:"event"`
	Data  ProductPayload `json:"data"`
}

type ProductPayload struct {
	ProductID  uint      `json:"product_id"`
	Name       string    `json:"name"`
	Categories []string  `json:"categories"`
	ProducerID string    `json:"producer_id,omitempty"`
	ActorID    string    `json:"actor_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewProductEvent builds an event from the product state at the time of the change
func NewProductEvent(event string, product *model.Product, actorID string) CatalogEvent {
	payload := ProductPayload{
		ProductID:  product.ID,
		Name:       product.Name,
		Categories: product.CategoryList(),
		ActorID:    actorID,
		OccurredAt: time.Now().UTC(),
	}
	if product.ProducerID != nil {
		payload.ProducerID = product.ProducerID.String()
	}
	return CatalogEvent{Event: event, Data: payload}
}

// Publisher delivers catalog events somewhere
type Publisher interface {
	Publish(ctx context.Context, event CatalogEvent) error
}

// Fanout publishes to every publisher and joins their errors
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, event CatalogEvent) error {
	var errs []error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recorder keeps published events in memory
type Recorder struct {
	Events []CatalogEvent
	Err    error
}

func (r *Recorder) Publish(_ context.Context, event CatalogEvent) error {
	r.Events = append(r.Events, event)
	return r.Err
}
