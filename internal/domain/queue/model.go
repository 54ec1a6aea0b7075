// Package queue models the durable offline queue: mutations that failed
// against the remote store, kept locally until a later drain replays them.
package queue

import (
	"encoding/json"
	"errors"

	"gymdesk/internal/domain/member"
)

// Operation type tags.
const (
	TypeSaveSnapshot = "save_snapshot"
	TypeAppendLog    = "append_log"
)

// Domain errors.
var (
	ErrUnknownType = errors.New("unknown queued operation type")
)

// Operation is one queued mutation. The payload carries everything needed
// to retry independently of current remote state.
type Operation struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// SaveSnapshotPayload holds a full table snapshot to rewrite on replay.
type SaveSnapshotPayload struct {
	Records []member.Record `json:"records"`
	Error   string          `json:"error"`
}

// AppendLogPayload holds the fields of one audit line to append on replay.
type AppendLogPayload struct {
	Actor     string `json:"actor"`
	Action    string `json:"action"`
	SubjectID string `json:"subject_id"`
	Detail    string `json:"detail"`
	Error     string `json:"error"`
}

// NewSaveSnapshot wraps a table snapshot and the triggering error text.
// PRE: records is the full collection the failed write carried
// POST: Returns an Operation replayable without reading remote state
func NewSaveSnapshot(records []member.Record, errText string) (Operation, error) {
	raw, err := json.Marshal(SaveSnapshotPayload{Records: records, Error: errText})
	if err != nil {
		return Operation{}, err
	}
	return Operation{Type: TypeSaveSnapshot, Payload: raw}, nil
}

// NewAppendLog wraps one audit line and the triggering error text.
func NewAppendLog(actor, action, subjectID, detail, errText string) (Operation, error) {
	raw, err := json.Marshal(AppendLogPayload{
		Actor: actor, Action: action, SubjectID: subjectID, Detail: detail, Error: errText,
	})
	if err != nil {
		return Operation{}, err
	}
	return Operation{Type: TypeAppendLog, Payload: raw}, nil
}

// SaveSnapshot decodes a save_snapshot payload.
func (op Operation) SaveSnapshot() (SaveSnapshotPayload, error) {
	if op.Type != TypeSaveSnapshot {
		return SaveSnapshotPayload{}, ErrUnknownType
	}
	var p SaveSnapshotPayload
	if err := json.Unmarshal(op.Payload, &p); err != nil {
		return SaveSnapshotPayload{}, err
	}
	return p, nil
}

// AppendLog decodes an append_log payload.
func (op Operation) AppendLog() (AppendLogPayload, error) {
	if op.Type != TypeAppendLog {
		return AppendLogPayload{}, ErrUnknownType
	}
	var p AppendLogPayload
	if err := json.Unmarshal(op.Payload, &p); err != nil {
		return AppendLogPayload{}, err
	}
	return p, nil
}

// WithError returns a copy of the operation with the payload's error text
// replaced. Used when a replay attempt fails again.
func (op Operation) WithError(errText string) Operation {
	switch op.Type {
	case TypeSaveSnapshot:
		if p, err := op.SaveSnapshot(); err == nil {
			p.Error = errText
			if raw, err := json.Marshal(p); err == nil {
				return Operation{Type: op.Type, Payload: raw}
			}
		}
	case TypeAppendLog:
		if p, err := op.AppendLog(); err == nil {
			p.Error = errText
			if raw, err := json.Marshal(p); err == nil {
				return Operation{Type: op.Type, Payload: raw}
			}
		}
	}
	return op
}
