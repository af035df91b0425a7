package main

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fileuploader/uploadwatch/internal/progress"
	"github.com/fileuploader/uploadwatch/internal/uploadsdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestModel(starts *int) progressModel {
	return newProgressModel("http://localhost:8080", make(chan *progress.Snapshot), func() { *starts++ })
}

func update(t *testing.T, m progressModel, msg tea.Msg) (progressModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	pm, ok := next.(progressModel)
	require.True(t, ok)
	return pm, cmd
}

func TestProgressModel_SendingThenProgress(t *testing.T) {
	var starts int
	m := newTestModel(&starts)

	assert.Contains(t, m.View(), txtWaiting)

	m, _ = update(t, m, sendProgressMsg(uploadsdk.UploadProgress{FileName: "a.csv", Sent: 1000, Total: 2000}))
	assert.Contains(t, m.View(), "sending a.csv 1.0 kB / 2.0 kB")

	m, cmd := update(t, m, snapshotMsg{snap: &progress.Snapshot{
		UploadID:  "upload-1",
		Conn:      progress.ConnOpen,
		Items:     []progress.ItemStatus{{ID: 0, Percent: 100}, {ID: 1, Percent: 60, TimeLeftSeconds: 42}},
		Aggregate: progress.Aggregate{Percent: 80, TimeLeftSeconds: 21, InProgress: true},
	}})
	assert.NotNil(t, cmd)

	view := m.View()
	assert.Contains(t, view, "upload-1")
	assert.Contains(t, view, "21 sec")
	assert.Contains(t, view, "1 of 2 done")
	assert.Contains(t, view, txtHelp)
	assert.NotContains(t, view, txtRetryHelp)
}

func TestProgressModel_QuitsWhenComplete(t *testing.T) {
	var starts int
	m := newTestModel(&starts)

	m, cmd := update(t, m, snapshotMsg{snap: &progress.Snapshot{
		UploadID:  "upload-1",
		Conn:      progress.ConnClosedNormal,
		Items:     []progress.ItemStatus{{ID: 0, Percent: 100}},
		Aggregate: progress.Aggregate{Percent: 100, Completed: true},
	}})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Contains(t, m.View(), txtComplete)
	assert.False(t, m.canRetry())
}

func TestProgressModel_RetryAfterFailure(t *testing.T) {
	var starts int
	m := newTestModel(&starts)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	assert.Equal(t, 0, m.retries, "retry is only offered once the session failed")

	m, _ = update(t, m, snapshotMsg{snap: &progress.Snapshot{
		UploadID:  "upload-1",
		Conn:      progress.ConnClosedAnomalous,
		Items:     []progress.ItemStatus{{ID: 0, Percent: 40}},
		Aggregate: progress.Aggregate{Percent: 40},
		Error:     "Connection closed: going away (1001)",
	}})
	view := m.View()
	assert.Contains(t, view, "ERROR:")
	assert.Contains(t, view, "Connection closed: going away (1001)")
	assert.Contains(t, view, txtRetryHelp)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	require.NotNil(t, cmd)
	assert.Equal(t, 1, m.retries)
	assert.Nil(t, m.snap)

	assert.Nil(t, cmd())
	assert.Equal(t, 1, starts)
}

func TestProgressModel_QuitKeys(t *testing.T) {
	for _, key := range []tea.KeyMsg{
		{Type: tea.KeyCtrlC},
		{Type: tea.KeyEsc},
		{Type: tea.KeyRunes, Runes: []rune("q")},
	} {
		var starts int
		_, cmd := update(t, newTestModel(&starts), key)
		require.NotNil(t, cmd, key.String())
		assert.IsType(t, tea.QuitMsg{}, cmd())
	}
}

func TestProgressModel_WindowResize(t *testing.T) {
	var starts int
	m, _ := update(t, newTestModel(&starts), tea.WindowSizeMsg{Width: 40, Height: 20})
	assert.Equal(t, 28, m.bar.Width)

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 200, Height: 20})
	assert.Equal(t, barMaxWidth, m.bar.Width)
}
