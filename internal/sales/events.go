package sales

import "context"

// EventKind classifies sale events handed to the notification pipeline.
type EventKind string

const (
	EventNewSale       EventKind = "NEW_SALE"
	EventStatusChanged EventKind = "STATUS_CHANGED"
	EventSaleCancelled EventKind = "SALE_CANCELLED"
)

// Event describes a committed sale change. Events are emitted only after
// the owning transaction commits.
type Event struct {
	Kind         EventKind
	SaleID       int64
	CustomerID   int64
	CustomerName string
	Total        float64
	OldStatus    Status
	NewStatus    Status
}

// EventSink receives sale events for asynchronous delivery. A sink failure
// is logged and swallowed by the caller: the sale is already committed.
type EventSink interface {
	Emit(ctx context.Context, ev Event) error
}
