package strikestore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsEscalated(t *testing.T) {
	assert := assert.New(t)
	now := time.Now()
	week := 7 * 24 * time.Hour

	fixtures := []struct {
		rec Record
		out bool
	}{
		// first offense
		{rec: Record{}, out: false},
		{rec: Record{Count: 1, LastStrikeAt: now.Add(-time.Hour)}, out: true},
		{rec: Record{Count: 1, LastStrikeAt: now.Add(-8 * 24 * time.Hour)}, out: false},
		{rec: Record{Count: 5, LastStrikeAt: now.Add(-week)}, out: true},
		{rec: Record{Count: 5, LastStrikeAt: now.Add(-week - time.Second)}, out: false},
	}
	for _, fix := range fixtures {
		assert.Equal(fix.out, IsEscalated(fix.rec, week, now), fix.rec)
	}
}

func TestEscalationDecision(t *testing.T) {
	assert := assert.New(t)
	now := time.Now()
	week := 7 * 24 * time.Hour

	assert.Equal(DecisionWarn, EscalationDecision(Record{}, week, now))
	// one strike two days ago: the current offense is the second
	assert.Equal(DecisionEnforce, EscalationDecision(Record{Count: 1, LastStrikeAt: now.Add(-48 * time.Hour)}, week, now))
	assert.Equal(DecisionWarn, EscalationDecision(Record{Count: 3, LastStrikeAt: now.Add(-30 * 24 * time.Hour)}, week, now))
}

func TestMemStrikeStoreBasics(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	ss := NewMemStrikeStore()
	now := time.Now()

	rec, err := ss.Get(ctx, 42)
	assert.NoError(err)
	assert.Equal(0, rec.Count)
	assert.True(rec.LastStrikeAt.IsZero())

	c, err := ss.RecordStrike(ctx, 42, now)
	assert.NoError(err)
	assert.Equal(1, c)
	c, err = ss.RecordStrike(ctx, 42, now.Add(time.Minute))
	assert.NoError(err)
	assert.Equal(2, c)

	rec, err = ss.Get(ctx, 42)
	assert.NoError(err)
	assert.Equal(2, rec.Count)
	assert.True(rec.LastStrikeAt.Equal(now.Add(time.Minute)))

	n, err := ss.Count(ctx)
	assert.NoError(err)
	assert.Equal(1, n)

	assert.NoError(ss.Reset(ctx, 42))
	assert.NoError(ss.Reset(ctx, 42))
	rec, err = ss.Get(ctx, 42)
	assert.NoError(err)
	assert.Equal(Record{}, rec)
}

func TestMemStrikeStoreMonotonic(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	ss := NewMemStrikeStore()
	now := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ss.RecordStrike(ctx, 7, now)
		}()
	}
	wg.Wait()

	rec, err := ss.Get(ctx, 7)
	assert.NoError(err)
	assert.Equal(20, rec.Count)
}

func TestRedisStrikeStoreBasics(t *testing.T) {
	t.Skip("live test, need redis running locally")
	assert := assert.New(t)
	ctx := context.Background()

	ss, err := NewRedisStrikeStore("redis://localhost:6379/0")
	if err != nil {
		t.Fail()
	}
	assert.NoError(ss.Reset(ctx, 99))

	now := time.Now().Truncate(time.Millisecond)
	c, err := ss.RecordStrike(ctx, 99, now)
	assert.NoError(err)
	assert.Equal(1, c)

	rec, err := ss.Get(ctx, 99)
	assert.NoError(err)
	assert.Equal(1, rec.Count)
	assert.True(rec.LastStrikeAt.Equal(now))
	assert.NoError(ss.Reset(ctx, 99))
}
