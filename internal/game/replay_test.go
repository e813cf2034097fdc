package game

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/inkwell-labs/lorcana-engine/internal/game/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func frames(n int) *Replay {
	replay := NewReplay("game-123")
	for i := 0; i < n; i++ {
		replay.Record(&ReplayFrame{
			Action:   Action{Type: ActionPassTurn, PlayerID: "p1"},
			Snapshot: &state.Snapshot{GameID: "game-123", Turn: i + 1},
		})
	}
	return replay
}

func TestNewReplay(t *testing.T) {
	replay := NewReplay("game-123")
	assert.Equal(t, "game-123", replay.GameID)
	assert.Equal(t, 0, replay.CurrentIndex)
	assert.Equal(t, 0, replay.Size())
	assert.Nil(t, replay.Last())
}

func TestReplayNavigation(t *testing.T) {
	replay := frames(5)
	assert.Equal(t, 5, replay.Size())

	replay.Start()
	frame := replay.Next()
	require.NotNil(t, frame)
	assert.Equal(t, 1, frame.Snapshot.Turn)
	assert.Equal(t, 1, replay.CurrentIndex)

	replay.Next()
	frame = replay.Previous()
	require.NotNil(t, frame)
	assert.Equal(t, 2, frame.Snapshot.Turn)

	replay.Start()
	assert.Nil(t, replay.Previous(), "no frame before the first")

	for i := 0; i < 5; i++ {
		require.NotNil(t, replay.Next())
	}
	assert.Nil(t, replay.Next(), "no frame past the end")
	assert.Equal(t, 5, replay.Last().Snapshot.Turn)
}

func TestReplaySkip(t *testing.T) {
	replay := frames(10)
	replay.Start()

	assert.Equal(t, 4, replay.Skip(3).Snapshot.Turn)
	assert.Equal(t, 2, replay.Skip(-2).Snapshot.Turn)
	assert.Equal(t, 10, replay.Skip(100).Snapshot.Turn, "clamped to the last frame")
	assert.Equal(t, 1, replay.Skip(-100).Snapshot.Turn, "clamped to the first frame")

	assert.Nil(t, NewReplay("empty").Skip(1))
}

func TestReplayFrameAt(t *testing.T) {
	replay := frames(3)
	assert.Equal(t, 2, replay.FrameAt(1).Snapshot.Turn)
	assert.Nil(t, replay.FrameAt(-1))
	assert.Nil(t, replay.FrameAt(3))
}

func TestReplayLoadNonexistentFile(t *testing.T) {
	_, err := LoadReplayFromFile(t.TempDir(), "missing")
	assert.Error(t, err)
}

func TestReplayLoadRejectsTamperedFrames(t *testing.T) {
	dir := t.TempDir()
	snap := &state.Snapshot{GameID: "game-123", Turn: 2}
	sum, err := snap.Checksum()
	require.NoError(t, err)

	replay := NewReplay("game-123")
	replay.Record(&ReplayFrame{Action: Action{Type: ActionStart}, Snapshot: snap, Checksum: sum})
	replay.Record(&ReplayFrame{Action: Action{Type: ActionPassTurn}, Snapshot: &state.Snapshot{GameID: "game-123", Turn: 3}, Checksum: sum})
	require.NoError(t, replay.SaveToFile(dir))

	_, err = LoadReplayFromFile(dir, "game-123")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "frame 1: checksum mismatch")
}

func TestReplayRecorder(t *testing.T) {
	recorder := NewReplayRecorder(zap.NewNop(), "")
	snap := &state.Snapshot{GameID: "g", Turn: 1}

	recorder.RecordState("g", Action{Type: ActionStart}, snap)
	_, exists := recorder.GetReplay("g")
	assert.False(t, exists, "nothing is recorded before StartRecording")

	recorder.StartRecording("g")
	assert.True(t, recorder.IsRecording("g"))
	recorder.RecordState("g", Action{Type: ActionStart}, snap)
	recorder.RecordState("g", Action{Type: ActionPassTurn, PlayerID: "p1"}, snap)

	replay, exists := recorder.GetReplay("g")
	require.True(t, exists)
	assert.Equal(t, 2, replay.Size())
	assert.NotEmpty(t, replay.FrameAt(0).Checksum)

	recorder.StopRecording("g")
	recorder.RecordState("g", Action{Type: ActionPassTurn, PlayerID: "p2"}, snap)
	assert.Equal(t, 2, replay.Size())

	assert.Error(t, recorder.SaveReplay("g"), "no directory configured")

	recorder.ClearReplay("g")
	_, exists = recorder.GetReplay("g")
	assert.False(t, exists)
}

func TestReplayRecorderMultipleGames(t *testing.T) {
	recorder := NewReplayRecorder(nil, t.TempDir())
	recorder.StartRecording("a")
	recorder.StartRecording("b")
	recorder.RecordState("a", Action{Type: ActionStart}, &state.Snapshot{GameID: "a"})

	a, _ := recorder.GetReplay("a")
	b, _ := recorder.GetReplay("b")
	assert.Equal(t, 1, a.Size())
	assert.Equal(t, 0, b.Size())

	require.NoError(t, recorder.SaveReplay("a"))
	assert.Error(t, recorder.SaveReplay("a"), "saving removes the replay from memory")
	assert.True(t, recorder.IsRecording("b"))
}

func TestEngineRecordsEveryAcceptedAction(t *testing.T) {
	dir := t.TempDir()
	h := newHarness(t)
	// the game is already running, so recording starts from here
	h.engine.SetRecorder(NewReplayRecorder(zap.NewNop(), dir))
	recorder := h.engine.recorder
	recorder.StartRecording(h.gameID)

	hero := h.put("p1", "hero", state.ZoneHand)
	h.do(Action{Type: ActionInk, PlayerID: "p1", CardID: hero.ID})
	_, err := h.submit(Action{Type: ActionQuest, PlayerID: "p1", CardID: hero.ID})
	require.Error(t, err)
	h.pass("p1")
	last := h.pass("p2")

	replay, ok := recorder.GetReplay(h.gameID)
	require.True(t, ok)
	assert.Equal(t, 3, replay.Size(), "rejected actions are not recorded")
	assert.Equal(t, ActionInk, replay.FrameAt(0).Action.Type)

	require.NoError(t, h.engine.EndGame(h.gameID))
	_, err = os.Stat(filepath.Join(dir, h.gameID+".replay"))
	require.NoError(t, err)

	loaded, err := recorder.LoadReplay(h.gameID)
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.Size())
	assert.Equal(t, last.Turn, loaded.Last().Snapshot.Turn)

	want, err := last.Checksum()
	require.NoError(t, err)
	assert.Equal(t, want, loaded.Last().Checksum)

	_, err = h.engine.Snapshot(h.gameID)
	assert.Error(t, err, "ended games are removed")
}

func TestStartGameRecordsOpeningFrame(t *testing.T) {
	engine := NewEngine(zap.NewNop(), testCatalog(t))
	recorder := NewReplayRecorder(nil, "")
	engine.SetRecorder(recorder)

	_, err := engine.StartGame(t.Context(), "rec", []PlayerSetup{
		{ID: "p1", Deck: fillers(10)},
		{ID: "p2", Deck: fillers(10)},
	}, testOptions())
	require.NoError(t, err)
	_, err = engine.SubmitAction(t.Context(), "rec", Action{Type: ActionPassTurn, PlayerID: "p1"})
	require.NoError(t, err)

	replay, ok := recorder.GetReplay("rec")
	require.True(t, ok)
	require.Equal(t, 2, replay.Size(), "one frame for the start and one per action")
	assert.Equal(t, ActionStart, replay.FrameAt(0).Action.Type)
	assert.Equal(t, 1, replay.FrameAt(0).Snapshot.Turn)

	require.NoError(t, engine.EndGame("rec"))
	_, ok = recorder.GetReplay("rec")
	assert.True(t, ok, "without a directory the replay stays in memory")
	assert.False(t, recorder.IsRecording("rec"))
}
