package storage

import (
	"encoding/json"
	"errors"

	"morphogen/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

func EncodeRun(r model.RunRecord) ([]byte, error) {
	return json.Marshal(r)
}

func DecodeRun(data []byte) (model.RunRecord, error) {
	var run model.RunRecord
	if err := json.Unmarshal(data, &run); err != nil {
		return model.RunRecord{}, err
	}
	if err := checkVersion(run.VersionedRecord); err != nil {
		return model.RunRecord{}, err
	}
	return run, nil
}

func EncodeBestMember(b model.BestMemberRecord) ([]byte, error) {
	return json.Marshal(b)
}

func DecodeBestMember(data []byte) (model.BestMemberRecord, error) {
	var best model.BestMemberRecord
	if err := json.Unmarshal(data, &best); err != nil {
		return model.BestMemberRecord{}, err
	}
	if err := checkVersion(best.VersionedRecord); err != nil {
		return model.BestMemberRecord{}, err
	}
	if err := best.Seed.Validate(); err != nil {
		return model.BestMemberRecord{}, err
	}
	if err := best.Adult.Validate(); err != nil {
		return model.BestMemberRecord{}, err
	}
	return best, nil
}

func EncodeFitnessHistory(history []int) ([]byte, error) {
	return json.Marshal(history)
}

func DecodeFitnessHistory(data []byte) ([]int, error) {
	var history []int
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, err
	}
	return history, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}

// Stamp sets the current schema and codec versions on a record.
func Stamp() model.VersionedRecord {
	return model.VersionedRecord{
		SchemaVersion: CurrentSchemaVersion,
		CodecVersion:  CurrentCodecVersion,
	}
}
