package entropy

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCryptoInRange(t *testing.T) {
	var src Crypto
	for i := 0; i < 1000; i++ {
		v := src.Float()
		require.GreaterOrEqual(t, v, 0.0)
		require.Less(t, v, 1.0)
	}
}

func TestSeededIsReproducible(t *testing.T) {
	a, b := NewSeeded(7), NewSeeded(7)
	for i := 0; i < 50; i++ {
		assert.Equal(t, a.Float(), b.Float())
	}
}

func TestSequenceRepeatsLast(t *testing.T) {
	s := NewSequence(0.1, 0.2)
	assert.Equal(t, 0.1, s.Float())
	assert.Equal(t, 0.2, s.Float())
	assert.Equal(t, 0.2, s.Float())
}

func TestIntn(t *testing.T) {
	assert.Equal(t, 0, Intn(Fixed(0), 3))
	assert.Equal(t, 2, Intn(Fixed(0.999), 3))
	assert.Equal(t, 0, Intn(Fixed(0.7), 0))
	assert.True(t, Chance(Fixed(0.1), 0.2))
	assert.False(t, Chance(Fixed(0.5), 0.5))
}

func TestNilClientFallsBack(t *testing.T) {
	var c *Client
	v := c.Float()
	assert.GreaterOrEqual(t, v, 0.0)
	assert.Less(t, v, 1.0)
	assert.IsType(t, Crypto{}, Default(""))
}

func TestClientDrawsFromPool(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result":{"random":{"data":[0.25,0.5,0.75,1.5]}}}`))
	}))
	defer srv.Close()

	c := NewClient("key")
	require.NotNil(t, c)
	c.endpoint = srv.URL

	assert.Equal(t, 0.25, c.Float())
	// 1.5 is out of range and dropped; the pool refills below ten.
	assert.Equal(t, 0.5, c.Float())
	assert.Greater(t, c.Pooled(), 0)
}
