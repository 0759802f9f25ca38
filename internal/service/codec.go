package service

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"skull_controller/internal/models"
)

// KeyVersion holds the schema version the stored blobs were written with.
const KeyVersion = "version"

// recordBlobSize is four little-endian int32: DutyMin, DutyMax, AngleMin, AngleMax.
const recordBlobSize = 16

var errMalformedBlob = errors.New("malformed blob")

func encodeRecord(rec models.CalibrationRecord) []byte {
	b := make([]byte, recordBlobSize)
	for i, v := range []int{rec.DutyMin, rec.DutyMax, rec.AngleMin, rec.AngleMax} {
		binary.LittleEndian.PutUint32(b[i*4:], uint32(int32(v)))
	}
	return b
}

func decodeRecord(b []byte) (models.CalibrationRecord, error) {
	if len(b) != recordBlobSize {
		return models.CalibrationRecord{}, fmt.Errorf("%w: record is %d bytes, want %d", errMalformedBlob, len(b), recordBlobSize)
	}
	field := func(i int) int {
		return int(int32(binary.LittleEndian.Uint32(b[i*4:])))
	}
	return models.CalibrationRecord{
		DutyMin:  field(0),
		DutyMax:  field(1),
		AngleMin: field(2),
		AngleMax: field(3),
	}, nil
}

func encodeUint32(v int) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(v))
	return b
}

func decodeUint32(b []byte) (int, error) {
	if len(b) != 4 {
		return 0, fmt.Errorf("%w: value is %d bytes, want 4", errMalformedBlob, len(b))
	}
	v := binary.LittleEndian.Uint32(b)
	if v > math.MaxInt32 {
		return 0, fmt.Errorf("%w: value %d out of range", errMalformedBlob, v)
	}
	return int(v), nil
}

func decodeText(b []byte) (string, error) {
	if len(b) == 0 {
		return "", fmt.Errorf("%w: empty string", errMalformedBlob)
	}
	return string(b), nil
}
