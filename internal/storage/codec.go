package storage

import (
	"encoding/json"
	"errors"
	"time"

	"banditd/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

// NewEvent stamps an event with the current record versions.
func NewEvent(kind model.InstanceKind, instanceID string, op model.EventOp, at time.Time) model.Event {
	return model.Event{
		VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion},
		InstanceID:      instanceID,
		Kind:            kind,
		Op:              op,
		At:              at.UTC(),
	}
}

func EncodeEvent(e model.Event) ([]byte, error) {
	return json.Marshal(e)
}

func DecodeEvent(data []byte) (model.Event, error) {
	var event model.Event
	if err := json.Unmarshal(data, &event); err != nil {
		return model.Event{}, err
	}
	if err := checkVersion(event.VersionedRecord); err != nil {
		return model.Event{}, err
	}
	return event, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
