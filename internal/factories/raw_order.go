// Package factories builds raw order payloads in the shapes the backend is
// known to emit, for the demo command and for exercising the normalizer.
package factories

import (
	"encoding/json"
	"fmt"
	"math/rand"

	"github.com/jaswdr/faker"
	"github.com/lucsky/cuid"
)

var fake = faker.New()

type RawOrderFactory struct {
	Rng *rand.Rand
}

// CreateRawOrder produces one raw payload, cycling through the wire variants:
// clean nested objects, JSON-encoded item strings, double-encoded item
// strings, loose unquoted-key address strings and numeric ids.
func (rf *RawOrderFactory) CreateRawOrder() map[string]any {
	order := map[string]any{
		"status": rf.pick("pending", "accepted", "picked_up", "picked up", "pickedup", ""),
	}

	// ids alternate between numbers and strings, as seen in the wild
	if rf.Rng.Intn(2) == 0 {
		order["id"] = float64(rf.Rng.Intn(9000) + 1000)
	} else {
		order["orderId"] = cuid.New()
	}

	items := []any{
		map[string]any{"name": fake.Food().Fruit(), "quantity": float64(rf.Rng.Intn(3) + 1)},
		map[string]any{"name": fake.Food().Vegetable()},
	}
	switch rf.Rng.Intn(3) {
	case 0:
		order["items"] = items
	case 1:
		raw, _ := json.Marshal(items)
		order["items"] = string(raw)
	default:
		raw, _ := json.Marshal(items)
		again, _ := json.Marshal(string(raw))
		order["items"] = string(again)
	}

	street := fake.Address().StreetAddress()
	city := fake.Address().City()
	switch rf.Rng.Intn(3) {
	case 0:
		order["deliveryAddress"] = map[string]any{
			"addressLine1": street,
			"city":         city,
			"zip":          fake.Address().PostCode(),
			"latitude":     fake.Address().Latitude(),
			"longitude":    fake.Address().Longitude(),
		}
	case 1:
		order["address"] = map[string]any{
			"full": fmt.Sprintf("{addressLine1:%s,city:%s}", street, city),
		}
	default:
		order["delivery"] = map[string]any{"address": street}
	}

	switch rf.Rng.Intn(3) {
	case 0:
		order["totalAmount"] = fake.Float64(2, 5, 80)
	case 1:
		order["totalCost"] = fmt.Sprintf("%.2f", fake.Float64(2, 5, 80))
	default:
		order["subtotal"] = fake.Float64(2, 5, 80)
	}

	order["restaurant"] = map[string]any{"name": fake.Company().Name()}
	order["appCustomer"] = map[string]any{
		"name":  fake.Person().Name(),
		"phone": fake.Phone().Number(),
	}
	return order
}

func (rf *RawOrderFactory) pick(options ...string) string {
	return options[rf.Rng.Intn(len(options))]
}
