package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fileuploader/uploadwatch/internal/progress"
	"github.com/fileuploader/uploadwatch/internal/uploadsdk"
)

// watchPlain prints a line whenever the session changes and returns the snapshot it settled on
func watchPlain(ctx context.Context, w io.Writer, store *progress.Store, start func()) (*progress.Snapshot, error) {
	sub := store.Subscribe()
	defer store.Unsubscribe(sub)

	go start()

	var last string
	for {
		select {
		case <-ctx.Done():
			return store.Snapshot(), ctx.Err()
		case snap, ok := <-sub:
			if !ok {
				return store.Snapshot(), ErrInterrupted
			}
			if line := describe(snap); line != last {
				fmt.Fprintln(w, line)
				last = line
			}
			if snap.Settled() {
				printFailures(w, snap)
				return snap, nil
			}
		}
	}
}

// describe is a one line summary of a snapshot
func describe(snap *progress.Snapshot) string {
	var b strings.Builder
	if snap.UploadID != "" {
		fmt.Fprintf(&b, "[%s] ", shortID(snap.UploadID))
	}

	switch {
	case snap.Error != "":
		fmt.Fprintf(&b, "%.1f%% error: %s", snap.Percent, snap.Error)
	case snap.Completed:
		fmt.Fprintf(&b, "100%% processing complete (%d files)", len(snap.Items))
	case snap.Conn == progress.ConnConnecting:
		b.WriteString("connecting...")
	case len(snap.Items) == 0:
		b.WriteString("waiting for status...")
	default:
		fmt.Fprintf(&b, "%.1f%% %d/%d files, time remaining %s",
			snap.Percent, doneCount(snap), len(snap.Items), formatTimeLeft(snap.TimeLeftSeconds))
	}
	return b.String()
}

func printFailures(w io.Writer, snap *progress.Snapshot) {
	for _, it := range snap.FailedItems() {
		fmt.Fprintf(w, "  file #%d: %s\n", it.ID, it.Error)
	}
}

func sendProgressLine(p uploadsdk.UploadProgress) string {
	return fmt.Sprintf("sending %s %s / %s", p.FileName, humanize.Bytes(uint64(p.Sent)), humanize.Bytes(uint64(p.Total)))
}

func doneCount(snap *progress.Snapshot) int {
	n := 0
	for _, it := range snap.Items {
		if it.Done() {
			n++
		}
	}
	return n
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
