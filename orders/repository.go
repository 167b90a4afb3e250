package orders

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/velora-store/velora-backend-go/models"
)

// Repository is the order document boundary. Post-creation writes are
// field updates only (status, payment fields), never full replacements,
// so a concurrent admin write cannot clobber line items.
type Repository interface {
	Create(ctx context.Context, order *models.Order) (primitive.ObjectID, error)
	Get(ctx context.Context, id primitive.ObjectID) (models.Order, error)
	List(ctx context.Context) ([]models.Order, error)

	// ListByCustomerEmail returns the customer's own orders, newest
	// first. The email comes from the authenticated identity, never
	// from request input.
	ListByCustomerEmail(ctx context.Context, email string) ([]models.Order, error)

	// MarkPaid flips awaiting_payment to paid exactly once, recording
	// the gateway transaction id and timestamp. A repeat call with the
	// same transaction id is a no-op; a repeat with a different one
	// returns ErrAlreadyPaid.
	MarkPaid(ctx context.Context, id primitive.ObjectID, paymentID string, paidAt time.Time) error

	SetStatus(ctx context.Context, id primitive.ObjectID, status models.FulfillmentStatus) error

	// Watch delivers every change to the order document until the
	// returned stop function is called or ctx is done. The consumer
	// owns calling stop on teardown.
	Watch(ctx context.Context, id primitive.ObjectID, onChange func(models.Order)) (func(), error)
}
