package contract

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/Mohsinsiddi/w3canvas/internal/localstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResultLog(t *testing.T) (*ResultLog, *localstore.Store) {
	t.Helper()
	store := localstore.New(filepath.Join(t.TempDir(), "storage.json"))
	return NewResultLog(store), store
}

func TestResultLogNewestFirst(t *testing.T) {
	log, _ := newTestResultLog(t)
	clock := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	log.now = func() time.Time { clock = clock.Add(time.Minute); return clock }

	require.NoError(t, log.Record(addrA, CallRecord{Method: "count", Outputs: []string{"1"}}))
	require.NoError(t, log.Record(addrA, CallRecord{Method: "increment", DryRun: true}))
	require.NoError(t, log.Record(addrB, CallRecord{Method: "count", Outputs: []string{"9"}}))
	require.NoError(t, log.Record(addrA, CallRecord{Method: "count", Outputs: []string{"2"}}))

	recs, err := log.List(addrA)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "2026-10-19T12:04:00Z", recs[0].Time)
	assert.Equal(t, []string{"2"}, recs[0].Outputs)
	assert.Equal(t, "increment", recs[1].Method)
	assert.True(t, recs[1].DryRun)
	assert.Equal(t, []string{"1"}, recs[2].Outputs)

	recs, err = log.List(addrB)
	require.NoError(t, err)
	require.Len(t, recs, 1)
}

func TestResultLogOrdersByTime(t *testing.T) {
	log, _ := newTestResultLog(t)
	require.NoError(t, log.Record(addrA, CallRecord{Time: "2026-10-19T12:00:05Z", Method: "b"}))
	require.NoError(t, log.Record(addrA, CallRecord{Time: "2026-10-19T12:00:09Z", Method: "c"}))
	require.NoError(t, log.Record(addrA, CallRecord{Time: "2026-10-19T12:00:01Z", Method: "a"}))
	// same second as "c": recorded later, listed first
	require.NoError(t, log.Record(addrA, CallRecord{Time: "2026-10-19T12:00:09Z", Method: "d"}))

	recs, err := log.List(addrA)
	require.NoError(t, err)
	methods := make([]string, len(recs))
	for i, r := range recs {
		methods[i] = r.Method
	}
	assert.Equal(t, []string{"d", "c", "b", "a"}, methods)
}

func TestResultLogAddressCaseInsensitive(t *testing.T) {
	log, _ := newTestResultLog(t)
	require.NoError(t, log.Record(checksummed(addrC), CallRecord{Method: "count"}))

	recs, err := log.List(addrC)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestResultLogCapsPerContract(t *testing.T) {
	log, _ := newTestResultLog(t)
	for i := 0; i < maxResults+5; i++ {
		require.NoError(t, log.Record(addrA, CallRecord{Time: fmt.Sprintf("2026-10-19T12:%02d:00Z", i), Method: fmt.Sprint(i)}))
	}

	recs, err := log.List(addrA)
	require.NoError(t, err)
	require.Len(t, recs, maxResults)
	assert.Equal(t, fmt.Sprint(maxResults+4), recs[0].Method)
	assert.Equal(t, "5", recs[len(recs)-1].Method, "oldest records are dropped")
}

func TestResultLogClear(t *testing.T) {
	log, store := newTestResultLog(t)
	require.NoError(t, log.Record(addrA, CallRecord{Method: "count"}))
	require.NoError(t, log.Record(addrB, CallRecord{Method: "count"}))

	require.NoError(t, log.Clear(addrA))
	require.NoError(t, log.Clear(addrC), "clearing an empty log is a no-op")

	recs, err := log.List(addrA)
	require.NoError(t, err)
	assert.Empty(t, recs)

	var raw map[string][]CallRecord
	ok, err := store.GetInto(ResultsKey, &raw)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, raw, checksummed(addrB))
}

func TestResultLogSharesStoreWithRegistry(t *testing.T) {
	reg, store := newTestRegistry(t)
	log := NewResultLog(store)
	require.NoError(t, reg.Save(ref(addrA, "Counter")))
	require.NoError(t, log.Record(addrA, CallRecord{Method: "count"}))

	refs, err := reg.All()
	require.NoError(t, err)
	assert.Len(t, refs, 1)
	recs, err := log.List(addrA)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}
