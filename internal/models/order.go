package models

// MenuItem is a purchasable pizza. The menu is append-only through the API.
type MenuItem struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Image       string  `json:"image"`
	Price       float64 `json:"price"`
}

// OrderItem is one line of an order. The price is the caller-supplied price
// at order time, not a live menu lookup.
type OrderItem struct {
	MenuID      int64   `json:"menuId"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

// FulfillmentState tracks an order through the factory workflow.
type FulfillmentState string

const (
	// FulfillmentPersisted means the order is durably recorded but the
	// factory has not confirmed it.
	FulfillmentPersisted FulfillmentState = "persisted"
	// FulfillmentConfirmed means the factory accepted the order.
	FulfillmentConfirmed FulfillmentState = "confirmed"
	// FulfillmentFailed means the factory call errored; the order record
	// is kept for inspection.
	FulfillmentFailed FulfillmentState = "failed"
)

// Order is a diner's pizza order. DinerID is always the authenticated
// caller, never taken from the request body. After creation the only
// mutation is attaching the factory receipt and fulfillment state.
type Order struct {
	ID             int64            `json:"id"`
	DinerID        int64            `json:"dinerId"`
	FranchiseID    int64            `json:"franchiseId"`
	StoreID        int64            `json:"storeId"`
	Items          []OrderItem      `json:"items"`
	State          FulfillmentState `json:"state,omitempty"`
	FactoryReceipt string           `json:"factoryReceipt,omitempty"`
}
