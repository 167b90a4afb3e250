package orders

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/velora-store/velora-backend-go/models"
)

// MongoRepository stores orders in the orders collection.
type MongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(collection *mongo.Collection) *MongoRepository {
	return &MongoRepository{collection: collection}
}

func (r *MongoRepository) Create(ctx context.Context, order *models.Order) (primitive.ObjectID, error) {
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, order)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("failed to insert order: %w", err)
	}
	return order.ID, nil
}

func (r *MongoRepository) Get(ctx context.Context, id primitive.ObjectID) (models.Order, error) {
	var order models.Order
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Order{}, ErrOrderNotFound
	}
	if err != nil {
		return models.Order{}, err
	}
	return order, nil
}

func (r *MongoRepository) List(ctx context.Context) ([]models.Order, error) {
	opts := options.Find().SetSort(bson.M{"createdAt": -1})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var orders []models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *MongoRepository) ListByCustomerEmail(ctx context.Context, email string) ([]models.Order, error) {
	opts := options.Find().SetSort(bson.M{"createdAt": -1})
	cursor, err := r.collection.Find(ctx, bson.M{"customer.email": email}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var orders []models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *MongoRepository) MarkPaid(ctx context.Context, id primitive.ObjectID, paymentID string, paidAt time.Time) error {
	// Guarded on paymentStatus so the paid transition happens at most
	// once, no matter how often a confirmation is retried.
	update := bson.M{
		"$set": bson.M{
			"paymentStatus": models.PaymentStatusPaid,
			"paymentId":     paymentID,
			"paidAt":        paidAt,
		},
	}

	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id, "paymentStatus": models.PaymentStatusAwaiting},
		update,
	)
	if err != nil {
		return err
	}

	if result.MatchedCount == 0 {
		order, err := r.Get(ctx, id)
		if err != nil {
			return err
		}
		if order.PaymentStatus == models.PaymentStatusPaid && order.PaymentID == paymentID {
			return nil // repeat confirmation of the same charge
		}
		return ErrAlreadyPaid
	}

	// Fulfillment starts at pending if the document predates the field.
	_, err = r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id, "status": bson.M{"$in": bson.A{nil, ""}}},
		bson.M{"$set": bson.M{"status": models.FulfillmentPending}},
	)
	return err
}

func (r *MongoRepository) SetStatus(ctx context.Context, id primitive.ObjectID, status models.FulfillmentStatus) error {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *MongoRepository) Watch(ctx context.Context, id primitive.ObjectID, onChange func(models.Order)) (func(), error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.D{{Key: "documentKey._id", Value: id}}}},
	}

	streamCtx, cancel := context.WithCancel(ctx)
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
	stream, err := r.collection.Watch(streamCtx, pipeline, opts)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open order change stream: %w", err)
	}

	go func() {
		defer stream.Close(context.Background())
		for stream.Next(streamCtx) {
			var event struct {
				FullDocument models.Order `bson:"fullDocument"`
			}
			if err := stream.Decode(&event); err != nil {
				log.Printf("order watch decode error: %v", err)
				continue
			}
			onChange(event.FullDocument)
		}
	}()

	return cancel, nil
}
