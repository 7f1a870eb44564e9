package store_test

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ultimatefreight/freightdesk/internal/store"
)

func TestQueryLog_AppendAndList(t *testing.T) {
	ctx := context.Background()
	ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	log := store.NewQueryLog(store.NewMemoryKV(), newTestLogger()).
		WithClock(func() time.Time { return ts })

	first, err := log.Append(ctx, store.QueryContact, map[string]string{"name": "Ada"})
	require.NoError(t, err)
	second, err := log.Append(ctx, store.QueryQuote, map[string]string{"fullName": "Grace"})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(first.ID, "query_"))
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, ts, first.Timestamp)

	records, err := log.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, first.ID, records[0].ID)
	assert.Equal(t, store.QueryContact, records[0].Type)
	assert.Equal(t, store.QueryQuote, records[1].Type)

	var data map[string]string
	require.NoError(t, json.Unmarshal(records[1].Data, &data))
	assert.Equal(t, "Grace", data["fullName"])
}

func TestQueryLog_EmptyAndClear(t *testing.T) {
	ctx := context.Background()
	log := store.NewQueryLog(store.NewMemoryKV(), newTestLogger())

	records, err := log.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.NotNil(t, records)

	_, err = log.Append(ctx, store.QueryPriceCalculation, map[string]int{"weight": 3})
	require.NoError(t, err)
	require.NoError(t, log.Clear(ctx))

	records, err = log.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestQueryLog_CorruptReadsAsEmpty(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	require.NoError(t, kv.Put(ctx, store.KeyQueries, []byte("[{broken")))

	log := store.NewQueryLog(kv, newTestLogger())
	records, err := log.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestQueryLog_ConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	log := store.NewQueryLog(store.NewMemoryKV(), newTestLogger())

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := log.Append(ctx, store.QueryContact, map[string]string{"n": fmt.Sprint(i)})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	records, err := log.List(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 25)
}
