package secboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotStoreRoundTrip(t *testing.T) {
	s, err := OpenSnapshotStore(INMEMORY_STORE)
	require.NoError(t, err)

	at := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.Save(KEY_TOOLS, []byte(`[{"ID":1}]`), at))

	got, err := s.Load(KEY_TOOLS)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"ID":1}]`, string(got.Payload))
	assert.True(t, got.FetchedAt.Equal(at))
}

func TestSnapshotStoreUpsert(t *testing.T) {
	s, err := OpenSnapshotStore(INMEMORY_STORE)
	require.NoError(t, err)

	require.NoError(t, s.Save(KEY_ALERTS, []byte(`[]`), time.Now()))
	require.NoError(t, s.Save(KEY_ALERTS, []byte(`[{"ID":7}]`), time.Now()))

	all, err := s.LoadAll()
	require.NoError(t, err)
	require.Len(t, all, 1, "saving twice must overwrite, not duplicate")
	assert.JSONEq(t, `[{"ID":7}]`, string(all[KEY_ALERTS].Payload))
}

func TestSnapshotStoreMissingKey(t *testing.T) {
	s, err := OpenSnapshotStore(INMEMORY_STORE)
	require.NoError(t, err)
	require.NoError(t, s.Save(KEY_TOOLS, []byte(`[]`), time.Now()))

	_, err = s.Load(KEY_HOSTS)
	require.Error(t, err)
}
