package models

// Status is the canonical order status vocabulary. Backend payloads arrive
// with several spellings for the picked-up state; the normalizer folds them
// all into StatusPickedUp before anything downstream sees them.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusPickedUp  Status = "picked_up"
	StatusOnTheWay  Status = "on_the_way"
	StatusDelivered Status = "delivered"
)

// Terminal reports whether an order in this status is done from the driver's
// point of view and should leave every collection.
func (s Status) Terminal() bool {
	return s == StatusDelivered
}

// Order is the canonical post-normalization shape. Field names match the wire
// vocabulary so that serializing a canonical order and normalizing it again
// is a no-op.
type Order struct {
	ID              string   `json:"id"`
	RestaurantName  string   `json:"restaurantName"`
	CustomerName    string   `json:"customerName"`
	CustomerPhone   string   `json:"customerPhone,omitempty"`
	Items           []string `json:"items"`
	TotalAmount     float64  `json:"totalAmount"`
	DeliveryAddress string   `json:"deliveryAddress"`
	Status          Status   `json:"status"`
	Latitude        *float64 `json:"latitude,omitempty"`
	Longitude       *float64 `json:"longitude,omitempty"`
}

type Driver struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	IsOnline bool   `json:"isOnline"`
}

// Dashboard is the read-only aggregate the backend computes for a driver.
// It is replaced wholesale on every refresh, never recomputed locally.
type Dashboard struct {
	TodaysEarning   float64 `json:"todaysEarning"`
	TodaysCompleted int     `json:"todaysCompleted"`
	WeeklyEarning   float64 `json:"weeklyEarning"`
	WeeklyCompleted int     `json:"weeklyCompleted"`
	AverageRating   float64 `json:"averageRating"`
	TotalEarning    float64 `json:"totalEarning"`
}
