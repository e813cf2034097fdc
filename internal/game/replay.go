package game

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/inkwell-labs/lorcana-engine/internal/game/state"
	"go.uber.org/zap"
)

const replayVersion = 1

// ReplayFrame is the game state after one accepted action.
type ReplayFrame struct {
	Action   Action
	Snapshot *state.Snapshot
	Checksum string
}

// Replay represents a recorded game with sequential state snapshots.
type Replay struct {
	GameID       string
	Frames       []*ReplayFrame
	CurrentIndex int
	mu           sync.RWMutex
}

// NewReplay creates a new replay instance
func NewReplay(gameID string) *Replay {
	return &Replay{
		GameID: gameID,
		Frames: make([]*ReplayFrame, 0),
	}
}

// Record appends a frame.
func (r *Replay) Record(frame *ReplayFrame) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Frames = append(r.Frames, frame)
}

// Start rewinds to the first frame.
func (r *Replay) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.CurrentIndex = 0
}

// Next returns the current frame and moves forward.
func (r *Replay) Next() *ReplayFrame {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.CurrentIndex < len(r.Frames) {
		frame := r.Frames[r.CurrentIndex]
		r.CurrentIndex++
		return frame
	}
	return nil
}

// Previous moves back one frame and returns it.
func (r *Replay) Previous() *ReplayFrame {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.CurrentIndex > 0 {
		r.CurrentIndex--
		return r.Frames[r.CurrentIndex]
	}
	return nil
}

// Skip moves by count frames, clamped to the recording.
func (r *Replay) Skip(count int) *ReplayFrame {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.Frames) == 0 {
		return nil
	}
	r.CurrentIndex = min(max(r.CurrentIndex+count, 0), len(r.Frames)-1)
	return r.Frames[r.CurrentIndex]
}

// Size returns the number of recorded frames
func (r *Replay) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.Frames)
}

// FrameAt returns the frame at index, or nil.
func (r *Replay) FrameAt(index int) *ReplayFrame {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if index >= 0 && index < len(r.Frames) {
		return r.Frames[index]
	}
	return nil
}

// Last returns the most recent frame, or nil.
func (r *Replay) Last() *ReplayFrame {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.Frames) == 0 {
		return nil
	}
	return r.Frames[len(r.Frames)-1]
}

// SaveToFile writes the replay as a gzipped gob stream named <game id>.replay.
func (r *Replay) SaveToFile(directory string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := os.MkdirAll(directory, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	filename := filepath.Join(directory, fmt.Sprintf("%s.replay", r.GameID))
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	defer gzipWriter.Close()

	encoder := gob.NewEncoder(gzipWriter)

	metadata := replayMetadata{
		GameID:     r.GameID,
		Timestamp:  time.Now(),
		Version:    replayVersion,
		FrameCount: len(r.Frames),
	}
	if err := encoder.Encode(&metadata); err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	for i, frame := range r.Frames {
		if err := encoder.Encode(frame); err != nil {
			return fmt.Errorf("failed to encode frame %d: %w", i, err)
		}
	}

	return nil
}

// LoadReplayFromFile reads a replay written by SaveToFile. Every frame's
// snapshot must still match its recorded checksum.
func LoadReplayFromFile(directory, gameID string) (*Replay, error) {
	filename := filepath.Join(directory, fmt.Sprintf("%s.replay", gameID))

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	gzipReader, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	decoder := gob.NewDecoder(gzipReader)

	var metadata replayMetadata
	if err := decoder.Decode(&metadata); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	if metadata.Version != replayVersion {
		return nil, fmt.Errorf("unsupported replay version: %d", metadata.Version)
	}

	replay := NewReplay(metadata.GameID)
	for i := 0; i < metadata.FrameCount; i++ {
		var frame ReplayFrame
		if err := decoder.Decode(&frame); err != nil {
			return nil, fmt.Errorf("failed to decode frame %d: %w", i, err)
		}
		if ok, err := VerifyChecksum(frame.Snapshot, frame.Checksum); err != nil || !ok {
			return nil, fmt.Errorf("frame %d: checksum mismatch", i)
		}
		replay.Frames = append(replay.Frames, &frame)
	}

	return replay, nil
}

// replayMetadata contains information about a saved replay
type replayMetadata struct {
	GameID     string
	Timestamp  time.Time
	Version    int
	FrameCount int
}

// ReplayRecorder manages replay recording for the engine
type ReplayRecorder struct {
	logger  *zap.Logger
	mu      sync.RWMutex
	replays map[string]*Replay // gameID -> Replay
	enabled map[string]bool    // gameID -> whether recording is enabled
	saveDir string             // empty keeps replays in memory only
}

// NewReplayRecorder creates a new replay recorder
func NewReplayRecorder(logger *zap.Logger, saveDir string) *ReplayRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReplayRecorder{
		logger:  logger,
		replays: make(map[string]*Replay),
		enabled: make(map[string]bool),
		saveDir: saveDir,
	}
}

// Directory returns where replays are saved.
func (rr *ReplayRecorder) Directory() string {
	return rr.saveDir
}

// StartRecording begins recording a game
func (rr *ReplayRecorder) StartRecording(gameID string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	rr.replays[gameID] = NewReplay(gameID)
	rr.enabled[gameID] = true

	rr.logger.Info("started replay recording",
		zap.String("game_id", gameID),
	)
}

// StopRecording stops recording a game
func (rr *ReplayRecorder) StopRecording(gameID string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	rr.enabled[gameID] = false

	rr.logger.Info("stopped replay recording",
		zap.String("game_id", gameID),
	)
}

// RecordState records the snapshot taken after action, if recording is enabled.
func (rr *ReplayRecorder) RecordState(gameID string, action Action, snapshot *state.Snapshot) {
	rr.mu.RLock()
	enabled := rr.enabled[gameID]
	replay := rr.replays[gameID]
	rr.mu.RUnlock()

	if !enabled || replay == nil || snapshot == nil {
		return
	}

	sum, err := snapshot.Checksum()
	if err != nil {
		rr.logger.Warn("failed to checksum replay frame",
			zap.String("game_id", gameID),
			zap.Error(err),
		)
		return
	}
	replay.Record(&ReplayFrame{Action: action, Snapshot: snapshot, Checksum: sum})

	rr.logger.Debug("recorded replay state",
		zap.String("game_id", gameID),
		zap.String("action", string(action.Type)),
		zap.Int("state_count", replay.Size()),
	)
}

// GetReplay returns the replay for a game
func (rr *ReplayRecorder) GetReplay(gameID string) (*Replay, bool) {
	rr.mu.RLock()
	defer rr.mu.RUnlock()

	replay, exists := rr.replays[gameID]
	return replay, exists
}

// SaveReplay saves a replay to disk and removes it from memory
func (rr *ReplayRecorder) SaveReplay(gameID string) error {
	if rr.saveDir == "" {
		return fmt.Errorf("no replay directory configured")
	}
	rr.mu.Lock()
	replay, exists := rr.replays[gameID]
	if !exists {
		rr.mu.Unlock()
		return fmt.Errorf("no replay found for game %s", gameID)
	}
	delete(rr.replays, gameID)
	delete(rr.enabled, gameID)
	rr.mu.Unlock()

	if err := replay.SaveToFile(rr.saveDir); err != nil {
		return fmt.Errorf("failed to save replay: %w", err)
	}

	rr.logger.Info("saved replay to disk",
		zap.String("game_id", gameID),
		zap.Int("state_count", replay.Size()),
		zap.String("directory", rr.saveDir),
	)

	return nil
}

// LoadReplay loads a replay from disk
func (rr *ReplayRecorder) LoadReplay(gameID string) (*Replay, error) {
	replay, err := LoadReplayFromFile(rr.saveDir, gameID)
	if err != nil {
		return nil, err
	}

	rr.logger.Info("loaded replay from disk",
		zap.String("game_id", gameID),
		zap.Int("state_count", replay.Size()),
	)

	return replay, nil
}

// ClearReplay removes a replay from memory without saving
func (rr *ReplayRecorder) ClearReplay(gameID string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	delete(rr.replays, gameID)
	delete(rr.enabled, gameID)

	rr.logger.Debug("cleared replay from memory",
		zap.String("game_id", gameID),
	)
}

// IsRecording returns whether recording is enabled for a game
func (rr *ReplayRecorder) IsRecording(gameID string) bool {
	rr.mu.RLock()
	defer rr.mu.RUnlock()

	return rr.enabled[gameID]
}
