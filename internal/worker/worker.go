package worker

import (
	"context"
	"encoding/json"
	"log"

	"pricing-portal/internal/broker"
	"pricing-portal/internal/cache"
	"pricing-portal/internal/models"
	"pricing-portal/internal/pricing"
	"pricing-portal/internal/service"

	"github.com/segmentio/kafka-go"
)

// CacheWorker drops table-scoped cache entries when another instance writes
// a rule or inventory record, keeping peers eventually consistent.
type CacheWorker struct {
	consumer *broker.Consumer
	cache    cache.Cache
}

// NewCacheWorker creates a new cache invalidation worker
func NewCacheWorker(consumer *broker.Consumer, c cache.Cache) *CacheWorker {
	return &CacheWorker{
		consumer: consumer,
		cache:    c,
	}
}

// Start starts the worker
func (w *CacheWorker) Start(ctx context.Context) error {
	log.Println("Starting cache invalidation worker...")
	return w.consumer.StartConsuming(ctx, w.handleMessage)
}

// Stop stops the worker
func (w *CacheWorker) Stop() error {
	log.Println("Stopping cache invalidation worker...")
	return w.consumer.Close()
}

func (w *CacheWorker) handleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		log.Printf("Failed to unmarshal event: %v", err)
		return err
	}

	switch baseEvent.EventType {
	case models.EventTypeRuleChanged:
		var event models.RuleChangedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Printf("Failed to unmarshal RuleChanged event: %v", err)
			return err
		}
		log.Printf("Invalidating rule cache for table: %s", event.Table)
		return w.cache.Invalidate(ctx, pricing.RuleCacheKey(event.Table))

	case models.EventTypeRecordChanged:
		var event models.RecordChangedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Printf("Failed to unmarshal RecordChanged event: %v", err)
			return err
		}
		log.Printf("Invalidating row cache for table: %s", event.Table)
		return w.cache.Invalidate(ctx, service.RowCacheKey(event.Table))
	}

	return nil
}
