package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecoderTwoChunks(t *testing.T) {
	d := NewFrameDecoder()

	frames := d.Feed([]byte(`event: {"stage":"scanning","message":"x","progress":0.2}` + "\n\n"))
	require.Len(t, frames, 1)
	assert.Equal(t, StageScanning, frames[0].Stage)
	assert.Equal(t, "x", frames[0].Message)

	frames = d.Feed([]byte(`event: {"stage":"completed","message":"done","progress":1.0,"details":{"result":"R"}}` + "\n\n"))
	require.Len(t, frames, 1)

	p := NewProgress("run-1")
	p.Apply(Frame{Stage: StageScanning, Message: "x", Progress: 0.2})
	p.Apply(frames[0])

	assert.Equal(t, StageCompleted, p.Stage)
	assert.Equal(t, 100, p.Percent)
	assert.Equal(t, "R", p.Result)
	assert.True(t, p.Terminal())
}

func TestDecoderSplitMidRecord(t *testing.T) {
	d := NewFrameDecoder()

	// Record split at an arbitrary byte boundary across three reads.
	assert.Empty(t, d.Feed([]byte(`event: {"stage":"prof`)))
	assert.True(t, d.Pending())
	assert.Empty(t, d.Feed([]byte(`iling","message":"p","progress":0.1}`)))

	frames := d.Feed([]byte("\n\nevent: {\"stage\":\"git\",\"message\":\"g\",\"progress\":0.5}\n\n"))
	require.Len(t, frames, 2)
	assert.Equal(t, StageProfiling, frames[0].Stage)
	assert.Equal(t, StageGit, frames[1].Stage)
	assert.False(t, d.Pending())
}

func TestDecoderDropsMalformedRecords(t *testing.T) {
	d := NewFrameDecoder()

	stream := "event: {not json}\n\n" +
		"noise without marker\n\n" +
		`event: {"stage":"teleporting","message":"?","progress":0.3}` + "\n\n" +
		`event: {"stage":"analyzing","message":"ok","progress":0.7}` + "\n\n"

	frames := d.Feed([]byte(stream))
	require.Len(t, frames, 1)
	assert.Equal(t, StageAnalyzing, frames[0].Stage)
}

func TestProgressClamping(t *testing.T) {
	tests := []struct {
		name     string
		fraction float64
		want     int
	}{
		{"negative", -0.5, 0},
		{"zero", 0, 0},
		{"half", 0.5, 50},
		{"full", 1.0, 100},
		{"overshoot", 1.7, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProgress("r")
			p.Apply(Frame{Stage: StageScanning, Progress: tt.fraction})
			assert.Equal(t, tt.want, p.Percent)
		})
	}
}

func TestProgressTerminalRejectsFurtherFrames(t *testing.T) {
	p := NewProgress("r")
	require.True(t, p.Apply(Frame{Stage: StageError, Message: "backend exploded"}))
	assert.Equal(t, "backend exploded", p.ErrorMessage)
	assert.True(t, p.Failed())

	applied := p.Apply(Frame{Stage: StageScanning, Message: "late", Progress: 0.9})
	assert.False(t, applied)
	assert.Equal(t, StageError, p.Stage)
	assert.Equal(t, "backend exploded", p.Message)
}

func TestProgressDetailsReplacedWholesale(t *testing.T) {
	p := NewProgress("r")
	p.Apply(Frame{Stage: StageScanning, Details: map[string]any{"files": 10, "dirs": 2}})
	p.Apply(Frame{Stage: StageAnalyzing, Details: map[string]any{"files": 25}})

	assert.Equal(t, 25, p.Details["files"])
	_, hasDirs := p.Details["dirs"]
	assert.False(t, hasDirs, "stale detail fields must not survive a new frame")
}

func TestAbortedRunStaysNonTerminalAndIsReplaced(t *testing.T) {
	p := NewProgress("run-1")
	p.Apply(Frame{Stage: StageProfiling, Message: "p", Progress: 0.1,
		Details: map[string]any{"cpu": "busy"}})

	// Stream dropped here: no terminal frame ever arrives.
	assert.False(t, p.Terminal())

	// A fresh run fully replaces the abandoned state.
	next := NewProgress("run-2")
	assert.Equal(t, StageStarting, next.Stage)
	assert.Nil(t, next.Details)
	assert.Empty(t, next.ErrorMessage)
}
