package events

import (
	"context"
	"errors"
	"testing"

	"foodcatalog/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProductEvent(t *testing.T) {
	producer := uuid.New()
	product := &model.Product{ID: 3, Name: "Salmon", Category: "Fish,Meat", ProducerID: &producer}

	event := NewProductEvent(ProductCreated, product, producer.String())

	assert.Equal(t, ProductCreated, event.Event)
	assert.Equal(t, uint(3), event.Data.ProductID)
	assert.Equal(t, []string{"Fish", "Meat"}, event.Data.Categories)
	assert.Equal(t, producer.String(), event.Data.ProducerID)
	assert.False(t, event.Data.OccurredAt.IsZero())
}

func TestFanout_PublishesToAllAndJoinsErrors(t *testing.T) {
	ok := &Recorder{}
	failing := &Recorder{Err: errors.New("broker down")}
	fanout := Fanout{ok, nil, failing}

	err := fanout.Publish(context.Background(), CatalogEvent{Event: ProductDeleted})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
	assert.Len(t, ok.Events, 1)
	assert.Len(t, failing.Events, 1)
}
