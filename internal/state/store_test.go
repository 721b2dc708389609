package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencourier/driverd/internal/lifecycle"
	"github.com/opencourier/driverd/internal/models"
)

func TestLoadMissingFileIsFreshSession(t *testing.T) {
	st, err := NewStore(t.TempDir()).Load()
	require.NoError(t, err)
	assert.Empty(t, st.Token)
	assert.Nil(t, st.Driver)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())

	want := State{
		Token:  "tok",
		Driver: &models.Driver{ID: "d1", Name: "Sam"},
		Orders: lifecycle.Snapshot{
			Accepted: []models.Order{{ID: "77", Status: models.StatusPickedUp, Items: []string{"Pizza"}}},
		},
	}
	require.NoError(t, store.Save(want))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, want.Token, got.Token)
	assert.Equal(t, want.Driver, got.Driver)
	assert.Equal(t, want.Orders.Accepted, got.Orders.Accepted)
}

func TestSetOrdersKeepsAuth(t *testing.T) {
	store := NewStore(t.TempDir())
	require.NoError(t, store.SetAuth("tok", &models.Driver{ID: "d1"}))

	snap := lifecycle.Snapshot{Pending: []models.Order{{ID: "88"}}}
	require.NoError(t, store.SetOrders(snap))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok", got.Token)
	require.Len(t, got.Orders.Pending, 1)
	assert.Equal(t, "88", got.Orders.Pending[0].ID)
}

func TestClear(t *testing.T) {
	store := NewStore(t.TempDir())
	require.NoError(t, store.SetAuth("tok", nil))
	require.NoError(t, store.Clear())

	st, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, st.Token)

	// clearing an already-clean store is fine
	require.NoError(t, store.Clear())
}
