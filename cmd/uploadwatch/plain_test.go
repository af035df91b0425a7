package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/fileuploader/uploadwatch/internal/progress"
	"github.com/fileuploader/uploadwatch/internal/uploadsdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		snap *progress.Snapshot
		want string
	}{
		{
			name: "sending",
			snap: &progress.Snapshot{},
			want: "waiting for status...",
		},
		{
			name: "connecting",
			snap: &progress.Snapshot{UploadID: "0123456789abcdef", Conn: progress.ConnConnecting},
			want: "[01234567] connecting...",
		},
		{
			name: "in progress",
			snap: &progress.Snapshot{
				UploadID:  "abc",
				Conn:      progress.ConnOpen,
				Items:     []progress.ItemStatus{{ID: 0, Percent: 100}, {ID: 1, Percent: 60, TimeLeftSeconds: 150}},
				Aggregate: progress.Aggregate{Percent: 80, TimeLeftSeconds: 75, InProgress: true},
			},
			want: "[abc] 80.0% 1/2 files, time remaining 1 min 15 sec",
		},
		{
			name: "complete",
			snap: &progress.Snapshot{
				UploadID:  "abc",
				Conn:      progress.ConnClosedNormal,
				Items:     []progress.ItemStatus{{ID: 0, Percent: 100}, {ID: 1, Percent: 100}},
				Aggregate: progress.Aggregate{Percent: 100, Completed: true},
			},
			want: "[abc] 100% processing complete (2 files)",
		},
		{
			name: "error",
			snap: &progress.Snapshot{
				UploadID:  "abc",
				Conn:      progress.ConnClosedAnomalous,
				Items:     []progress.ItemStatus{{ID: 0, Percent: 40}},
				Aggregate: progress.Aggregate{Percent: 40},
				Error:     "Connection closed: Unknown reason (1011)",
			},
			want: "[abc] 40.0% error: Connection closed: Unknown reason (1011)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, describe(tt.snap))
		})
	}
}

func TestWatchPlain_UntilComplete(t *testing.T) {
	store := progress.NewStore()
	var out bytes.Buffer

	snap, err := watchPlain(context.Background(), &out, store, func() {
		store.Reset("0123456789ab")
		store.SetConn(progress.ConnOpen)
		assert.NoError(t, store.Upsert(progress.ItemStatus{ID: 0, Percent: 40, TimeLeftSeconds: 20}))
		assert.NoError(t, store.Upsert(progress.ItemStatus{ID: 1, Percent: 100, Error: "File is empty"}))
		assert.NoError(t, store.Upsert(progress.ItemStatus{ID: 0, Percent: 100}))
		store.SetConn(progress.ConnClosedNormal)
	})
	require.NoError(t, err)

	assert.Equal(t, progress.ConnClosedNormal, snap.Conn)
	assert.True(t, snap.Completed)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.GreaterOrEqual(t, len(lines), 2)
	assert.Equal(t, "[01234567] 100% processing complete (2 files)", lines[len(lines)-2])
	assert.Equal(t, "  file #1: File is empty", lines[len(lines)-1])
	assert.ErrorContains(t, outcome(snap), "1 of 2 file(s) failed")
}

func TestWatchPlain_Rejected(t *testing.T) {
	store := progress.NewStore()
	var out bytes.Buffer

	snap, err := watchPlain(context.Background(), &out, store, func() {
		store.Reset("")
		store.Terminate("Upload failed: Bad Gateway")
	})
	require.NoError(t, err)
	assert.True(t, snap.Settled())
	assert.Contains(t, out.String(), "error: Upload failed: Bad Gateway")
	assert.EqualError(t, outcome(snap), "Upload failed: Bad Gateway")
}

func TestWatchPlain_Cancelled(t *testing.T) {
	store := progress.NewStore()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := watchPlain(ctx, &bytes.Buffer{}, store, func() {})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSendProgressLine(t *testing.T) {
	line := sendProgressLine(uploadsdk.UploadProgress{FileName: "grades.csv", Sent: 1500, Total: 3000000})
	assert.Equal(t, "sending grades.csv 1.5 kB / 3.0 MB", line)
}

func TestOutcome(t *testing.T) {
	assert.ErrorIs(t, outcome(nil), ErrInterrupted)
	assert.ErrorIs(t, outcome(&progress.Snapshot{Conn: progress.ConnOpen}), ErrInterrupted)
	assert.NoError(t, outcome(&progress.Snapshot{
		Conn:      progress.ConnClosedNormal,
		Items:     []progress.ItemStatus{{ID: 0, Percent: 100}},
		Aggregate: progress.Aggregate{Percent: 100, Completed: true},
	}))
}
