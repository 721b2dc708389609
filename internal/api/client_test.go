package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencourier/driverd/internal/models"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return New(srv.URL, 5*time.Second), srv
}

func TestBearerTokenOnAuthenticatedRequests(t *testing.T) {
	var gotAuth string
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]any{"orders": []any{}})
	})
	defer srv.Close()

	c.SetToken("tok_123")
	_, err := c.PendingOrders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok_123", gotAuth)
}

func TestNoAuthHeaderWithoutToken(t *testing.T) {
	var gotAuth string
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]any{"orders": []any{}})
	})
	defer srv.Close()

	_, err := c.PendingOrders(context.Background())
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestLoginValidatesBeforeNetwork(t *testing.T) {
	c := New("http://unreachable.invalid", time.Second)

	_, err := c.Login(context.Background(), "", "secret")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "phone", ve.Field)

	_, err = c.Login(context.Background(), "555", "")
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "password", ve.Field)
}

func TestLoginDecodesDriver(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/driver/auth/login", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "555", body["phone"])

		json.NewEncoder(w).Encode(map[string]any{
			"token":  "tok",
			"driver": map[string]any{"id": "d1", "name": "Sam"},
		})
	})
	defer srv.Close()

	res, err := c.Login(context.Background(), "555", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tok", res.Token)
	assert.Equal(t, "d1", res.Driver.ID)
}

func TestAPIErrorCarriesBackendMessage(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"message field", `{"message":"Invalid credentials"}`, "Invalid credentials"},
		{"error field", `{"error":"token expired"}`, "token expired"},
		{"plain text body", "bad gateway", "bad gateway"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(tc.body))
			})
			defer srv.Close()

			_, err := c.PendingOrders(context.Background())
			var ae *APIError
			require.ErrorAs(t, err, &ae)
			assert.Equal(t, http.StatusUnauthorized, ae.StatusCode)
			assert.Equal(t, tc.want, ae.Message)
		})
	}
}

func TestTransportFailureIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close() // nothing listening anymore

	c := New(url, time.Second)
	err := c.UpdateLocation(context.Background(), 1, 2)
	var ne *NetworkError
	require.ErrorAs(t, err, &ne)
	assert.True(t, IsNetwork(err))
}

func TestAcceptOrderSendsNumericIDAndUnwrapsOrder(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/driver/accept-order", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		// integer ids travel as JSON numbers
		assert.Equal(t, float64(77), body["orderId"])

		json.NewEncoder(w).Encode(map[string]any{
			"order": map[string]any{"id": 77, "status": "accepted"},
		})
	})
	defer srv.Close()

	raw, err := c.AcceptOrder(context.Background(), "77")
	require.NoError(t, err)
	assert.Equal(t, float64(77), raw["id"])
}

func TestAcceptOrderKeepsOpaqueIDAsString(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ord_abc", body["orderId"])
		json.NewEncoder(w).Encode(map[string]any{"order": map[string]any{"id": "ord_abc"}})
	})
	defer srv.Close()

	_, err := c.AcceptOrder(context.Background(), "ord_abc")
	require.NoError(t, err)
}

func TestUpdateStatusPayload(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/driver/update-status", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "picked_up", body["status"])
		w.Write([]byte(`{}`))
	})
	defer srv.Close()

	require.NoError(t, c.UpdateStatus(context.Background(), "77", models.StatusPickedUp))
}

func TestSetOnlineReturnsBackendState(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/driver/online", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{"isOnline": true})
	})
	defer srv.Close()

	online, err := c.SetOnline(context.Background(), true)
	require.NoError(t, err)
	assert.True(t, online)
}

func TestDashboard(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/driver/dashboard/d1", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"todaysEarning": 42.5, "todaysCompleted": 3},
		})
	})
	defer srv.Close()

	dash, err := c.Dashboard(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, 42.5, dash.TodaysEarning)
	assert.Equal(t, 3, dash.TodaysCompleted)
}

func TestMessageFallsBack(t *testing.T) {
	assert.Equal(t, "fallback", Message(nil, "fallback"))
	assert.Equal(t, "boom", Message(&APIError{StatusCode: 500, Message: "boom"}, "fallback"))
	assert.Equal(t, "request failed with status 500", Message(&APIError{StatusCode: 500}, "fallback"))
}
