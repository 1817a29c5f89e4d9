package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fraudops/fieldkit/core/storage"
)

func newTestCache(t *testing.T) (*Cache, *time.Time) {
	t.Helper()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := New(storage.NewMemoryStore(), "cache", nil)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestSetGetRoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	c.Set("cases", []byte(`{"open":3}`), 100*time.Millisecond)
	require.Equal(t, []byte(`{"open":3}`), c.Get("cases"))
}

func TestExpiryIsLazy(t *testing.T) {
	c, now := newTestCache(t)
	c.Set("cases", []byte(`1`), 100*time.Millisecond)

	*now = now.Add(50 * time.Millisecond)
	require.NotNil(t, c.Get("cases"))

	*now = now.Add(100 * time.Millisecond)
	require.Nil(t, c.Get("cases"))

	// The first expired read removed the entry.
	_, _, ok := c.GetWithMetadata("cases")
	require.False(t, ok)
}

func TestGetWithMetadataReportsAge(t *testing.T) {
	c, now := newTestCache(t)
	c.Set("units", []byte(`[]`), time.Minute)
	*now = now.Add(15 * time.Second)
	data, age, ok := c.GetWithMetadata("units")
	require.True(t, ok)
	require.Equal(t, []byte(`[]`), data)
	require.Equal(t, 15*time.Second, age)
}

func TestInvalidateAndClear(t *testing.T) {
	c, _ := newTestCache(t)
	c.Set("a", []byte(`1`), time.Minute)
	c.Set("b", []byte(`2`), time.Minute)
	c.Invalidate("a")
	require.Nil(t, c.Get("a"))
	require.NotNil(t, c.Get("b"))
	c.Clear()
	require.Nil(t, c.Get("b"))
}

// failingStore always errors, to verify cache errors never propagate.
type failingStore struct{}

func (failingStore) Load(string) ([]byte, error)    { return nil, errors.New("disk gone") }
func (failingStore) Save(string, []byte) error      { return errors.New("disk gone") }
func (failingStore) Delete(string) error            { return errors.New("disk gone") }
func (failingStore) Keys(string) ([]string, error)  { return nil, errors.New("disk gone") }

func TestStorageFailuresDegradeToMiss(t *testing.T) {
	c := New(failingStore{}, "cache", nil)
	c.Set("k", []byte(`1`), time.Minute)
	require.Nil(t, c.Get("k"))
	c.Invalidate("k")
	c.Clear()
}
