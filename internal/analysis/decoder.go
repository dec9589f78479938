// Package analysis folds the backend's streamed analysis progress frames
// into a single renderable state.
package analysis

import (
	"bytes"
	"encoding/json"
	"strings"
)

// recordMarker prefixes every logical record on the wire.
const recordMarker = "event:"

// recordSeparator delimits records. Transport chunks may split a record
// anywhere; the decoder carries the incomplete tail between feeds.
var recordSeparator = []byte("\n\n")

// Frame is one decoded progress record.
type Frame struct {
	Stage    Stage          `json:"stage"`
	Message  string         `json:"message"`
	Progress float64        `json:"progress"`
	Details  map[string]any `json:"details"`
}

// FrameDecoder turns an arbitrarily-chunked byte stream into complete
// frames. Malformed records are dropped; they never abort the stream.
type FrameDecoder struct {
	buf bytes.Buffer
}

// NewFrameDecoder creates an empty decoder.
func NewFrameDecoder() *FrameDecoder {
	return &FrameDecoder{}
}

// Feed appends a chunk and returns every frame completed by it.
func (d *FrameDecoder) Feed(chunk []byte) []Frame {
	d.buf.Write(chunk)

	var frames []Frame
	for {
		raw := d.buf.Bytes()
		idx := bytes.Index(raw, recordSeparator)
		if idx < 0 {
			return frames
		}
		record := make([]byte, idx)
		copy(record, raw[:idx])
		d.buf.Next(idx + len(recordSeparator))

		if f, ok := parseRecord(record); ok {
			frames = append(frames, f)
		}
	}
}

// Pending reports whether an incomplete record is buffered.
func (d *FrameDecoder) Pending() bool {
	return d.buf.Len() > 0
}

func parseRecord(record []byte) (Frame, bool) {
	text := strings.TrimSpace(string(record))
	if !strings.HasPrefix(text, recordMarker) {
		return Frame{}, false
	}
	payload := strings.TrimSpace(text[len(recordMarker):])

	var f Frame
	if err := json.Unmarshal([]byte(payload), &f); err != nil {
		return Frame{}, false
	}
	if !f.Stage.Valid() {
		return Frame{}, false
	}
	return f, true
}
