package cache

import (
	"encoding/binary"
	"errors"
	"time"
)

// footerSize is the length of the capture-time footer appended to every entry.
const footerSize = 8

// ErrCorruptEntry is returned when a blob is too short to carry a footer.
var ErrCorruptEntry = errors.New("cache: corrupt entry")

// encodeEntry lays out body followed by the capture time.
func encodeEntry(body []byte, captured time.Time) []byte {
	buf := make([]byte, len(body)+footerSize)
	copy(buf, body)
	binary.LittleEndian.PutUint64(buf[len(body):], uint64(captured.UnixNano()))
	return buf
}

// decodeEntry splits a blob into body and capture time.
// The returned body aliases blob.
func decodeEntry(blob []byte) ([]byte, time.Time, error) {
	if len(blob) < footerSize {
		return nil, time.Time{}, ErrCorruptEntry
	}

	n := len(blob) - footerSize
	nanos := int64(binary.LittleEndian.Uint64(blob[n:]))

	return blob[:n], time.Unix(0, nanos), nil
}
