package cart

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/kennel/pkg/types"
)

var (
	kibble = types.Product{ID: types.NumberID(1), Name: "Kibble", Price: 30}
	leash  = types.Product{ID: types.NumberID(2), Name: "Leash", Price: 12.5}
)

func TestAddMergesQuantities(t *testing.T) {
	s := New(nil)
	s.Add(kibble, 1)
	s.Add(leash, 2)
	s.Add(kibble, 2)

	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "Kibble", items[0].Name)
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, 2, items[1].Quantity)
	assert.Equal(t, 115.0, s.Total())
	assert.Equal(t, 5, s.Count())
}

func TestUpdateQuantity(t *testing.T) {
	s := New(nil)
	s.Add(kibble, 1)
	s.Add(leash, 1)

	s.UpdateQuantity(kibble.ID, 4)
	assert.Equal(t, 4, s.Items()[0].Quantity)

	s.UpdateQuantity(kibble.ID, 0)
	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "Leash", items[0].Name)

	s.UpdateQuantity(leash.ID, -1)
	assert.Empty(t, s.Items())
}

func TestRemove(t *testing.T) {
	s := New(nil)
	s.Add(kibble, 1)
	s.Add(leash, 1)
	s.Remove(kibble.ID)
	s.Remove(types.StringID("1"))

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, leash.ID, items[0].ID)
}

func TestItemsIsACopy(t *testing.T) {
	s := New(nil)
	s.Add(kibble, 1)
	items := s.Items()
	items[0].Quantity = 99
	assert.Equal(t, 1, s.Items()[0].Quantity)
}

func TestConcurrentAdds(t *testing.T) {
	s := New(nil)
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Add(kibble, 1)
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, s.Count())
}
