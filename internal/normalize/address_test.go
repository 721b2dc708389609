package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatDeliveryAddress(t *testing.T) {
	cases := []struct {
		name string
		raw  any
		want string
	}{
		{
			name: "structured object",
			raw: map[string]any{
				"addressLine1": "123 Main St",
				"addressLine2": "Apt 4",
				"city":         "Troy",
				"state":        "NY",
				"zip":          "12180",
				"label":        "Home",
			},
			want: "123 Main St\nApt 4\nTroy, NY, 12180\nHome",
		},
		{
			name: "json string",
			raw:  `{"addressLine1":"123 Main St","city":"Troy"}`,
			want: "123 Main St\nTroy",
		},
		{
			name: "double encoded json string",
			raw:  `"{\"addressLine1\":\"123 Main St\",\"city\":\"Troy\"}"`,
			want: "123 Main St\nTroy",
		},
		{
			name: "loose unquoted keys",
			raw:  "{addressLine1:123 Main St,city:Troy}",
			want: "123 Main St\nTroy",
		},
		{
			name: "plain string",
			raw:  "742 Evergreen Terrace",
			want: "742 Evergreen Terrace",
		},
		{
			name: "numeric zip survives",
			raw: map[string]any{
				"city": "Troy",
				"zip":  float64(12180),
			},
			want: "Troy, 12180",
		},
		{
			name: "null and undefined filtered",
			raw: map[string]any{
				"addressLine1": "null",
				"addressLine2": "undefined",
				"city":         "Troy",
			},
			want: "Troy",
		},
		{
			name: "stray quotes stripped",
			raw:  `{addressLine1:"123 Main St",city:"Troy"}`,
			want: "123 Main St\nTroy",
		},
		{name: "nil", raw: nil, want: "No Address"},
		{name: "empty string", raw: "", want: "No Address"},
		{name: "unsupported type", raw: float64(7), want: "No Address"},
		{
			name: "all fields null",
			raw: map[string]any{
				"addressLine1": "null",
			},
			want: "No Address",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatDeliveryAddress(tc.raw))
		})
	}
}

func TestExtractLatLng(t *testing.T) {
	t.Run("latitude longitude keys", func(t *testing.T) {
		lat, lng, ok := ExtractLatLng(map[string]any{
			"latitude":  float64(40.7),
			"longitude": float64(-74.0),
		})
		assert.True(t, ok)
		assert.Equal(t, 40.7, lat)
		assert.Equal(t, -74.0, lng)
	})

	t.Run("short keys", func(t *testing.T) {
		lat, lng, ok := ExtractLatLng(map[string]any{
			"lat": "51.5",
			"lng": "-0.1",
		})
		assert.True(t, ok)
		assert.Equal(t, 51.5, lat)
		assert.Equal(t, -0.1, lng)
	})

	t.Run("loose string coordinates", func(t *testing.T) {
		lat, lng, ok := ExtractLatLng("{latitude:40.7,longitude:-74.0,city:Troy}")
		assert.True(t, ok)
		assert.Equal(t, 40.7, lat)
		assert.Equal(t, -74.0, lng)
	})

	t.Run("one coordinate is not enough", func(t *testing.T) {
		_, _, ok := ExtractLatLng(map[string]any{"latitude": float64(40.7)})
		assert.False(t, ok)
	})

	t.Run("unparseable values", func(t *testing.T) {
		_, _, ok := ExtractLatLng(map[string]any{
			"latitude":  "north",
			"longitude": "west",
		})
		assert.False(t, ok)
	})
}

func TestItems(t *testing.T) {
	cases := []struct {
		name string
		raw  any
		want []string
	}{
		{
			name: "array of objects",
			raw: []any{
				map[string]any{"name": "Pizza", "quantity": float64(2)},
				map[string]any{"name": "Cola"},
			},
			want: []string{"Pizza x2", "Cola"},
		},
		{
			name: "json encoded string",
			raw:  `[{"name":"Pizza"}]`,
			want: []string{"Pizza"},
		},
		{
			name: "double encoded string",
			raw:  `"[{\"name\":\"Pizza\"}]"`,
			want: []string{"Pizza"},
		},
		{
			name: "nested menu item name",
			raw: []any{
				map[string]any{"menuItem": map[string]any{"name": "Ramen"}},
			},
			want: []string{"Ramen"},
		},
		{
			name: "variant and quantity",
			raw: []any{
				map[string]any{"name": "Wings", "variantName": "Hot", "qty": float64(3)},
			},
			want: []string{"Wings (Hot) x3"},
		},
		{
			name: "nameless item",
			raw:  []any{map[string]any{"price": float64(4)}},
			want: []string{"Item"},
		},
		{
			name: "unparseable string kept verbatim",
			raw:  "2x Pizza",
			want: []string{"2x Pizza"},
		},
		{name: "nil", raw: nil, want: []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Items(tc.raw))
		})
	}
}
