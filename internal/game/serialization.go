package game

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/inkwell-labs/lorcana-engine/internal/game/state"
)

// SerializationChecksum identifies a snapshot's content.
type SerializationChecksum struct {
	Hash    string // BLAKE2b-256 of the canonical snapshot rendering
	Turn    int
	Version int
}

// ComputeChecksum checksums a snapshot. Journals and effect ids do not
// contribute, so equal games hash equally whatever path led to them.
func ComputeChecksum(snapshot *state.Snapshot) (*SerializationChecksum, error) {
	if snapshot == nil {
		return nil, fmt.Errorf("snapshot is nil")
	}
	hash, err := snapshot.Checksum()
	if err != nil {
		return nil, fmt.Errorf("failed to compute hash: %w", err)
	}
	return &SerializationChecksum{
		Hash:    hash,
		Turn:    snapshot.Turn,
		Version: replayVersion,
	}, nil
}

// VerifyChecksum reports whether the snapshot still hashes to expected.
func VerifyChecksum(snapshot *state.Snapshot, expected string) (bool, error) {
	computed, err := ComputeChecksum(snapshot)
	if err != nil {
		return false, fmt.Errorf("failed to compute checksum: %w", err)
	}
	return computed.Hash == expected, nil
}

// SerializeToBytes gob-encodes a snapshot, the encoding replays use.
func SerializeToBytes(snapshot *state.Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(snapshot); err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// DeserializeFromBytes decodes a snapshot written by SerializeToBytes.
func DeserializeFromBytes(data []byte) (*state.Snapshot, error) {
	var snapshot state.Snapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &snapshot, nil
}

// ValidateSerializationRoundtrip checks a snapshot survives encoding
// unchanged by comparing checksums before and after.
func ValidateSerializationRoundtrip(snapshot *state.Snapshot) error {
	original, err := ComputeChecksum(snapshot)
	if err != nil {
		return fmt.Errorf("failed to compute original checksum: %w", err)
	}

	data, err := SerializeToBytes(snapshot)
	if err != nil {
		return fmt.Errorf("failed to serialize: %w", err)
	}

	decoded, err := DeserializeFromBytes(data)
	if err != nil {
		return fmt.Errorf("failed to deserialize: %w", err)
	}

	roundtrip, err := ComputeChecksum(decoded)
	if err != nil {
		return fmt.Errorf("failed to compute deserialized checksum: %w", err)
	}

	if original.Hash != roundtrip.Hash {
		return fmt.Errorf("checksum mismatch: original=%s, deserialized=%s", original.Hash, roundtrip.Hash)
	}
	return nil
}
