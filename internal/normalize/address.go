package normalize

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// AddressObject is the recognized shape behind the many address payload
// variants the backend produces: a structured object, a JSON string, a
// double-encoded JSON string, a loose "{key:value}" string with unquoted
// keys, or a plain address line.
type AddressObject struct {
	Latitude     any    `mapstructure:"latitude"`
	Longitude    any    `mapstructure:"longitude"`
	Lat          any    `mapstructure:"lat"`
	Lng          any    `mapstructure:"lng"`
	AddressLine1 string `mapstructure:"addressLine1"`
	AddressLine2 string `mapstructure:"addressLine2"`
	City         string `mapstructure:"city"`
	State        string `mapstructure:"state"`
	Zip          string `mapstructure:"zip"`
	Label        string `mapstructure:"label"`
}

var looseKeys = []string{
	"latitude", "lat", "longitude", "lng",
	"addressLine1", "addressLine2", "city", "state", "zip", "label",
}

func cleanField(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, `"`, ""))
}

// AddressFromRaw resolves any supported address payload shape to an
// AddressObject. It never fails; unrecognizable input yields nil.
func AddressFromRaw(raw any) *AddressObject {
	switch v := raw.(type) {
	case nil:
		return nil
	case map[string]any:
		return decodeAddressMap(v)
	case string:
		return addressFromString(v)
	case AddressObject:
		return &v
	case *AddressObject:
		return v
	default:
		return nil
	}
}

func addressFromString(s string) *AddressObject {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	// strict JSON first, unwrapping one level of double-encoding
	var parsed any
	if err := json.Unmarshal([]byte(s), &parsed); err == nil {
		if inner, ok := parsed.(string); ok {
			var again any
			if err := json.Unmarshal([]byte(inner), &again); err == nil {
				parsed = again
			} else {
				parsed = inner
			}
		}
		if m, ok := parsed.(map[string]any); ok {
			return decodeAddressMap(m)
		}
	}

	// loose "{key:value}" object string with unquoted keys
	if loose := parseLooseAddressString(s); loose != nil {
		return loose
	}

	// plain string address, treat as line 1
	return &AddressObject{AddressLine1: s}
}

func decodeAddressMap(m map[string]any) *AddressObject {
	var obj AddressObject
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &obj,
		WeaklyTypedInput: true, // zip may arrive as a number
	})
	if err != nil || dec.Decode(m) != nil {
		return nil
	}
	return &obj
}

func parseLooseAddressString(s string) *AddressObject {
	str := strings.TrimSpace(s)
	if !strings.HasPrefix(str, "{") || !strings.HasSuffix(str, "}") {
		return nil
	}

	get := func(key string) string {
		re := regexp.MustCompile(`(?i)` + key + `\s*:\s*([^,}]+)`)
		m := re.FindStringSubmatch(str)
		if m == nil {
			return ""
		}
		return cleanField(m[1])
	}

	obj := &AddressObject{
		AddressLine1: get("addressLine1"),
		AddressLine2: get("addressLine2"),
		City:         get("city"),
		State:        get("state"),
		Zip:          get("zip"),
		Label:        get("label"),
	}
	if lat := get("latitude"); lat != "" {
		obj.Latitude = lat
	} else if lat := get("lat"); lat != "" {
		obj.Lat = lat
	}
	if lng := get("longitude"); lng != "" {
		obj.Longitude = lng
	} else if lng := get("lng"); lng != "" {
		obj.Lng = lng
	}

	if obj.AddressLine1 == "" && obj.AddressLine2 == "" && obj.City == "" &&
		obj.State == "" && obj.Zip == "" && obj.Latitude == nil && obj.Lat == nil &&
		obj.Longitude == nil && obj.Lng == nil {
		return nil
	}
	return obj
}

// FormatDeliveryAddress renders any supported address payload as a display
// string, one component per line. It never fails and returns "No Address"
// exactly when no recognizable field is present.
func FormatDeliveryAddress(raw any) string {
	o := AddressFromRaw(raw)
	if o == nil {
		return "No Address"
	}

	line1 := cleanField(o.AddressLine1)
	line2 := cleanField(o.AddressLine2)
	city := cleanField(o.City)
	state := cleanField(o.State)
	zip := cleanField(o.Zip)
	label := cleanField(o.Label)

	var cityParts []string
	for _, p := range []string{city, state, zip} {
		if p != "" {
			cityParts = append(cityParts, p)
		}
	}
	cityLine := strings.Join(cityParts, ", ")

	var parts []string
	for _, p := range []string{line1, line2, cityLine, label} {
		if p != "" && p != "null" && p != "undefined" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "No Address"
	}
	return strings.Join(parts, "\n")
}

// ExtractLatLng pulls coordinates out of an address payload. ok is false
// unless both a finite latitude and longitude are present.
func ExtractLatLng(raw any) (lat, lng float64, ok bool) {
	o := AddressFromRaw(raw)
	if o == nil {
		return 0, 0, false
	}

	lat, latOK := toFloat(firstNonNil(o.Latitude, o.Lat))
	lng, lngOK := toFloat(firstNonNil(o.Longitude, o.Lng))
	if !latOK || !lngOK {
		return 0, 0, false
	}
	return lat, lng, true
}

func firstNonNil(vals ...any) any {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

// toFloat coerces the numeric representations seen in the wild (JSON numbers,
// quoted numbers, ints) to a finite float64.
func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, false
		}
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
