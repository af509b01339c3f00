package archive

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tileworld/hub"
	"tileworld/protocol"
	"tileworld/world"
)

func openTemp(t *testing.T) (*Archive, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "events.db")
	a, err := Open(path, nil)
	require.NoError(t, err)
	return a, path
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	_, err := Open("", nil)
	assert.Error(t, err)
}

func TestRecordAndRecent(t *testing.T) {
	a, path := openTemp(t)

	require.NoError(t, a.Record(protocol.PlayerConnected{Name: "alice", ID: "abc"}))
	require.NoError(t, a.Record(protocol.PlayerMoved{Name: "alice", From: world.Pos(10, 10), To: world.Pos(11, 10)}))
	require.NoError(t, a.Record(protocol.WorldTick{Tick: 1, ActivePlayers: 1, TotalEntities: 1}))
	require.NoError(t, a.Close())

	// Reopen so the assertions only see what reached disk.
	a, err := Open(path, nil)
	require.NoError(t, err)
	defer a.Close()

	recs, err := a.Recent(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, protocol.KindWorldTick, recs[0].Kind)
	assert.Equal(t, protocol.KindPlayerMoved, recs[1].Kind)
	assert.Greater(t, recs[0].Seq, recs[1].Seq)

	var moved protocol.PlayerMoved
	require.NoError(t, json.Unmarshal(recs[1].Payload, &moved))
	assert.Equal(t, world.Pos(11, 10), moved.To)

	all, err := a.Recent(context.Background(), 100)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	none, err := a.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRecordAfterCloseIsIgnored(t *testing.T) {
	a, _ := openTemp(t)
	require.NoError(t, a.Close())
	assert.NoError(t, a.Record(protocol.WorldTick{Tick: 1}))
	assert.NoError(t, a.Close())
}

func TestRunDrainsSubscription(t *testing.T) {
	a, _ := openTemp(t)
	defer a.Close()

	h := hub.New[protocol.GameEvent](16)
	sub := h.Subscribe()
	done := make(chan struct{})
	go func() {
		a.Run(context.Background(), sub)
		close(done)
	}()

	h.Publish(protocol.PlayerSpawned{Name: "bob", Pos: world.Pos(10, 10)})
	h.Publish(protocol.PlayerDisconnected{Name: "bob", ID: "x"})

	require.Eventually(t, func() bool {
		recs, err := a.Recent(context.Background(), 10)
		return err == nil && len(recs) == 2
	}, 5*time.Second, 20*time.Millisecond)

	h.Close()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after hub close")
	}
}
