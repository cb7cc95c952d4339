package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/vaultline/lockbox/masterkey"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestKeyCacheGetBeforeUpdate(t *testing.T) {
	c := NewKeyCache(50*time.Millisecond, nil)
	defer c.Close()

	_, ok := c.Get()
	assert.False(t, ok)
}

func TestKeyCacheUpdateThenGet(t *testing.T) {
	c := NewKeyCache(time.Second, nil)
	defer c.Close()

	mk, err := masterkey.Generate()
	require.NoError(t, err)

	c.Update(mk, 0)
	got, ok := c.Get()
	require.True(t, ok)
	assert.Same(t, mk, got)
}

func TestKeyCacheExpiry(t *testing.T) {
	c := NewKeyCache(30*time.Millisecond, nil)
	defer c.Close()

	mk, err := masterkey.Generate()
	require.NoError(t, err)
	c.Update(mk, 0)

	time.Sleep(80 * time.Millisecond)

	_, ok := c.Get()
	assert.False(t, ok)
}

func TestKeyCacheSlidingWindow(t *testing.T) {
	c := NewKeyCache(60*time.Millisecond, nil)
	defer c.Close()

	mk, err := masterkey.Generate()
	require.NoError(t, err)
	c.Update(mk, 0)

	deadline := time.Now().Add(150 * time.Millisecond)
	for time.Now().Before(deadline) {
		_, ok := c.Get()
		if !ok {
			t.Fatal("key expired despite continuous Get touches")
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestKeyCacheClear(t *testing.T) {
	c := NewKeyCache(time.Second, nil)
	defer c.Close()

	mk, err := masterkey.Generate()
	require.NoError(t, err)
	c.Update(mk, 0)

	c.Clear()
	_, ok := c.Get()
	assert.False(t, ok)
}

func TestKeyCacheUpdateReplacesPriorKey(t *testing.T) {
	c := NewKeyCache(time.Second, nil)
	defer c.Close()

	mk1, err := masterkey.Generate()
	require.NoError(t, err)
	mk2, err := masterkey.Generate()
	require.NoError(t, err)

	c.Update(mk1, 0)
	c.Update(mk2, 0)

	got, ok := c.Get()
	require.True(t, ok)
	assert.Same(t, mk2, got)
}
