package events

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/velora-store/velora-backend-go/models"
)

// OrderEventListener tails the orders collection change stream and
// publishes lifecycle events. It runs for the life of the process and
// is independent of the request path: a lost publish never affects
// order state.
type OrderEventListener struct {
	collection *mongo.Collection
	publisher  *KafkaPublisher

	mu            sync.Mutex
	isListening   bool
	startTime     time.Time
	lastEventTime time.Time
	lastError     string
	processed     int64
	failed        int64
	stop          context.CancelFunc
}

type HealthStatus struct {
	IsHealthy       bool      `json:"isHealthy"`
	LastEventTime   time.Time `json:"lastEventTime"`
	Uptime          string    `json:"uptime"`
	ProcessedEvents int64     `json:"processedEvents"`
	FailedEvents    int64     `json:"failedEvents"`
	LastError       string    `json:"lastError,omitempty"`
}

func NewOrderEventListener(collection *mongo.Collection, publisher *KafkaPublisher) *OrderEventListener {
	return &OrderEventListener{collection: collection, publisher: publisher}
}

func (l *OrderEventListener) Start() error {
	l.mu.Lock()
	if l.isListening {
		l.mu.Unlock()
		return errors.New("already listening")
	}
	l.isListening = true
	l.startTime = time.Now()
	ctx, cancel := context.WithCancel(context.Background())
	l.stop = cancel
	l.mu.Unlock()

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.D{
			{Key: "operationType", Value: bson.D{{Key: "$in", Value: bson.A{"insert", "update"}}}},
		}}},
	}
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
	stream, err := l.collection.Watch(ctx, pipeline, opts)
	if err != nil {
		l.mu.Lock()
		l.isListening = false
		l.lastError = err.Error()
		l.mu.Unlock()
		cancel()
		return err
	}

	log.Println("👂 Listening for order events...")

	go func() {
		defer stream.Close(context.Background())
		for stream.Next(ctx) {
			var change struct {
				OperationType     string       `bson:"operationType"`
				FullDocument      models.Order `bson:"fullDocument"`
				UpdateDescription struct {
					UpdatedFields bson.M `bson:"updatedFields"`
				} `bson:"updateDescription"`
			}
			if err := stream.Decode(&change); err != nil {
				l.recordFailure(err)
				continue
			}
			l.dispatch(ctx, change.OperationType, change.FullDocument, change.UpdateDescription.UpdatedFields)
		}
		if err := stream.Err(); err != nil && !errors.Is(err, context.Canceled) {
			l.recordFailure(err)
			log.Printf("order event stream closed: %v", err)
		}
		l.mu.Lock()
		l.isListening = false
		l.mu.Unlock()
	}()

	return nil
}

func (l *OrderEventListener) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stop != nil {
		l.stop()
	}
}

func (l *OrderEventListener) dispatch(ctx context.Context, op string, order models.Order, updated bson.M) {
	eventType := TypeOrderStatusChanged
	switch {
	case op == "insert":
		eventType = TypeOrderCreated
	case updated != nil && updated["paymentStatus"] != nil:
		eventType = TypeOrderPaid
	}

	event := Event{
		Type:          eventType,
		OrderID:       order.ID.Hex(),
		PaymentStatus: order.PaymentStatus,
		Status:        order.Status,
		Total:         order.Total,
		Timestamp:     time.Now(),
	}

	if err := l.publisher.Publish(ctx, event); err != nil {
		l.recordFailure(err)
		log.Printf("failed to publish %s for order %s: %v", event.Type, event.OrderID, err)
		return
	}

	l.mu.Lock()
	l.processed++
	l.lastEventTime = time.Now()
	l.mu.Unlock()
}

func (l *OrderEventListener) recordFailure(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failed++
	l.lastError = err.Error()
}

func (l *OrderEventListener) Health() HealthStatus {
	l.mu.Lock()
	defer l.mu.Unlock()

	uptime := ""
	if !l.startTime.IsZero() {
		uptime = time.Since(l.startTime).String()
	}
	return HealthStatus{
		IsHealthy:       l.isListening,
		LastEventTime:   l.lastEventTime,
		Uptime:          uptime,
		ProcessedEvents: l.processed,
		FailedEvents:    l.failed,
		LastError:       l.lastError,
	}
}
