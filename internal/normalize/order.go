// Package normalize maps the loosely-shaped order payloads the backend emits
// into the one canonical models.Order shape. Every function here is total:
// malformed input degrades to documented defaults, never to an error.
package normalize

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/opencourier/driverd/internal/models"
)

// Status folds the status spellings seen across backend responses into the
// canonical vocabulary. Empty or unknown values mean the order was accepted
// but not yet progressed, so they map to StatusAccepted.
func Status(raw any) models.Status {
	v := strings.TrimSpace(strings.ToLower(fmt.Sprint(raw)))
	if raw == nil {
		v = ""
	}
	switch v {
	case "pending":
		return models.StatusPending
	case "accepted":
		return models.StatusAccepted
	case "picked_up", "picked up", "pickedup":
		return models.StatusPickedUp
	case "on_the_way", "on the way":
		return models.StatusOnTheWay
	case "delivered":
		return models.StatusDelivered
	default:
		return models.StatusAccepted
	}
}

// ID coerces a wire order id (string or number) to the canonical string key
// used for collection membership everywhere downstream.
func ID(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return fmt.Sprint(v)
	}
}

// Order maps a raw backend order payload to the canonical shape. It never
// fails and is idempotent over already-canonical payloads.
func Order(raw map[string]any) models.Order {
	o := models.Order{
		ID:     ID(firstNonNil(raw["id"], raw["orderId"])),
		Items:  Items(raw["items"]),
		Status: Status(raw["status"]),
	}

	if amount, ok := toFloat(firstNonNil(raw["totalAmount"], raw["totalCost"], raw["subtotal"])); ok && amount >= 0 {
		o.TotalAmount = amount
	}

	o.RestaurantName = firstString(nestedString(raw, "restaurant", "name"), raw["restaurantName"])
	if o.RestaurantName == "" {
		o.RestaurantName = "Restaurant"
	}

	o.CustomerName = firstString(raw["customerName"], nestedString(raw, "appCustomer", "name"))
	if o.CustomerName == "" {
		if id := ID(raw["customerId"]); id != "" {
			o.CustomerName = "Customer #" + id
		} else {
			o.CustomerName = "Customer"
		}
	}
	if phone := firstNonNil(raw["customerPhone"], nestedString(raw, "appCustomer", "phone")); phone != nil {
		o.CustomerPhone = fmt.Sprint(phone)
	}

	addrRaw := firstNonNil(
		raw["deliveryAddress"],
		nestedString(raw, "address", "full"),
		nestedString(raw, "delivery", "address"),
		nestedString(raw, "customer", "address"),
	)
	o.DeliveryAddress = FormatDeliveryAddress(addrRaw)

	if lat, lng, ok := ExtractLatLng(addrRaw); ok {
		o.Latitude, o.Longitude = &lat, &lng
	} else if lat, ok := toFloat(raw["latitude"]); ok {
		if lng, ok := toFloat(raw["longitude"]); ok {
			o.Latitude, o.Longitude = &lat, &lng
		}
	}

	return o
}

// Orders maps a slice of raw payloads, skipping entries that are not objects.
func Orders(raws []any) []models.Order {
	out := make([]models.Order, 0, len(raws))
	for _, r := range raws {
		if m, ok := r.(map[string]any); ok {
			out = append(out, Order(m))
		}
	}
	return out
}
