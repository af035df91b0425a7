package main

import (
	"context"
	"fmt"
	"strings"

	bprogress "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fileuploader/uploadwatch/internal/progress"
	"github.com/fileuploader/uploadwatch/internal/uploadsdk"
)

const (
	barPadding  = 2
	barMaxWidth = 60
)

const (
	txtTitle      = "uploadwatch"
	txtConnecting = "Connecting to status stream..."
	txtWaiting    = "Waiting for the server..."
	txtComplete   = "Processing complete"
	txtHelp       = "'q' to quit"
	txtRetryHelp  = "'r' to retry. 'q' to quit"
)

type snapshotMsg struct{ snap *progress.Snapshot }

type sendProgressMsg uploadsdk.UploadProgress

// progressModel renders one upload session
type progressModel struct {
	server  string
	sub     <-chan *progress.Snapshot
	start   func()
	snap    *progress.Snapshot
	sending *uploadsdk.UploadProgress
	bar     bprogress.Model
	spinner spinner.Model
	retries int
}

func newProgressModel(server string, sub <-chan *progress.Snapshot, start func()) progressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = cyan

	return progressModel{
		server:  server,
		sub:     sub,
		start:   start,
		bar:     bprogress.New(bprogress.WithDefaultGradient(), bprogress.WithWidth(barMaxWidth)),
		spinner: s,
	}
}

func waitForSnapshot(sub <-chan *progress.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-sub
		if !ok {
			return nil
		}
		return snapshotMsg{snap: snap}
	}
}

func (m progressModel) startCmd() tea.Cmd {
	return func() tea.Msg {
		m.start()
		return nil
	}
}

func (m progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForSnapshot(m.sub), m.startCmd())
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "r":
			if !m.canRetry() {
				return m, nil
			}
			m.retries++
			m.snap = nil
			m.sending = nil
			return m, m.startCmd()
		}

	case tea.WindowSizeMsg:
		m.bar.Width = min(msg.Width-barPadding*2-8, barMaxWidth)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case sendProgressMsg:
		p := uploadsdk.UploadProgress(msg)
		m.sending = &p

	case snapshotMsg:
		m.snap = msg.snap
		if m.snap.Conn == progress.ConnClosedNormal {
			return m, tea.Quit
		}
		return m, waitForSnapshot(m.sub)
	}

	return m, nil
}

// canRetry is true once the session ended without completing
func (m progressModel) canRetry() bool {
	return m.snap != nil && m.snap.Settled() && !m.snap.Completed
}

func (m progressModel) View() string {
	var b strings.Builder
	pad := strings.Repeat(" ", barPadding)

	b.WriteString(cyan.Bold(true).Render(txtTitle))
	b.WriteString(" " + gray.Render(m.server) + "\n\n")

	snap := m.snap
	switch {
	case snap == nil || (snap.UploadID == "" && snap.Error == ""):
		b.WriteString(pad + m.spinner.View() + " ")
		if m.sending != nil {
			b.WriteString(sendProgressLine(*m.sending))
		} else {
			b.WriteString(txtWaiting)
		}
		b.WriteString("\n")

	default:
		if snap.UploadID != "" {
			b.WriteString(pad + gray.Render("Upload  ") + lightGray.Render(snap.UploadID) + "\n\n")
		}
		m.renderProgress(&b, pad, snap)
	}

	b.WriteString("\n" + pad)
	if m.canRetry() {
		b.WriteString(gray.Render(txtRetryHelp))
	} else {
		b.WriteString(gray.Render(txtHelp))
	}
	b.WriteString("\n")
	return b.String()
}

func (m progressModel) renderProgress(b *strings.Builder, pad string, snap *progress.Snapshot) {
	if snap.Conn == progress.ConnConnecting {
		b.WriteString(pad + m.spinner.View() + " " + txtConnecting + "\n")
		return
	}

	b.WriteString(pad + m.bar.ViewAs(snap.Percent/100) + "\n")

	switch {
	case snap.Completed:
		b.WriteString(pad + green.Render(txtComplete) + "\n")
	case snap.InProgress && snap.Error == "":
		fmt.Fprintf(b, "%s%s %s\n", pad, gray.Render("Time remaining:"), formatTimeLeft(snap.TimeLeftSeconds))
	}

	if n := len(snap.Items); n > 0 {
		fmt.Fprintf(b, "%s%s %d of %d done\n", pad, gray.Render("Files:"), doneCount(snap), n)
	}
	for _, it := range snap.FailedItems() {
		fmt.Fprintf(b, "%s%s\n", pad, yellow.Render(fmt.Sprintf("file #%d: %s", it.ID, it.Error)))
	}
	if snap.Error != "" {
		b.WriteString("\n" + pad + red.Bold(true).Render("ERROR: ") + red.Render(snap.Error) + "\n")
	}
}

// runTUI shows the interactive view until the session completes or the user quits
func runTUI(ctx context.Context, r *batchRunner, server string) (*progress.Snapshot, error) {
	store := r.store()
	sub := store.Subscribe()
	defer store.Unsubscribe(sub)

	model := newProgressModel(server, sub, func() { r.start(ctx) })
	p := tea.NewProgram(model, tea.WithContext(ctx))
	r.onSend = func(u uploadsdk.UploadProgress) { p.Send(sendProgressMsg(u)) }

	if _, err := p.Run(); err != nil {
		return store.Snapshot(), fmt.Errorf("progress view: %w", err)
	}
	return store.Snapshot(), nil
}
