package setstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemSetStoreBasics(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	ss := NewMemSetStore()

	ok, err := ss.InSet(ctx, "admins", "1")
	assert.NoError(err)
	assert.False(ok)

	assert.NoError(ss.Add(ctx, "admins", "1"))
	assert.NoError(ss.Add(ctx, "admins", "1"))
	ok, err = ss.InSet(ctx, "admins", "1")
	assert.NoError(err)
	assert.True(ok)
	n, err := ss.Size(ctx, "admins")
	assert.NoError(err)
	assert.Equal(1, n)

	// sets are independent
	ok, err = ss.InSet(ctx, "whitelist", "1")
	assert.NoError(err)
	assert.False(ok)

	assert.NoError(ss.Remove(ctx, "admins", "1"))
	assert.NoError(ss.Remove(ctx, "admins", "1"))
	assert.NoError(ss.Remove(ctx, "missing", "1"))
	ok, err = ss.InSet(ctx, "admins", "1")
	assert.NoError(err)
	assert.False(ok)
}

func TestMemSetStoreLoadFromFileJSON(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	ss := NewMemSetStore()

	assert.NoError(ss.LoadFromFileJSON("testdata/roles.json"))
	n, err := ss.Size(ctx, "admins")
	assert.NoError(err)
	assert.Equal(2, n)
	ok, err := ss.InSet(ctx, "whitelist", "2001")
	assert.NoError(err)
	assert.True(ok)

	assert.Error(ss.LoadFromFileJSON("testdata/missing.json"))
}

func TestRedisSetStoreBasics(t *testing.T) {
	t.Skip("live test, need redis running locally")
	assert := assert.New(t)
	ctx := context.Background()

	ss, err := NewRedisSetStore("redis://localhost:6379/0")
	if err != nil {
		t.Fail()
	}
	assert.NoError(ss.Remove(ctx, "test-admins", "1"))
	assert.NoError(ss.Add(ctx, "test-admins", "1"))
	ok, err := ss.InSet(ctx, "test-admins", "1")
	assert.NoError(err)
	assert.True(ok)
	assert.NoError(ss.Remove(ctx, "test-admins", "1"))
}
