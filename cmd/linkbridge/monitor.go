package main

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewMonitorCommand runs the bridge with an interactive terminal UI.
func NewMonitorCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "monitor",
		Short: "Run the bridge with an interactive terminal UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			app, err := newBridgeApp(ctx, opts.Config)
			if err != nil {
				return err
			}
			defer app.close()

			tui := NewTUIManager(app)
			logrus.SetOutput(tui.GetLogWriter())
			defer logrus.SetOutput(cmd.ErrOrStderr())

			if err := app.start(ctx); err != nil {
				tui.Stop()
				return err
			}
			err = tui.Run()
			tui.Stop()
			return err
		},
	}
}

// TUIManager renders bridge status and turns key presses into requests.
type TUIManager struct {
	app    *tview.Application
	pages  *tview.Pages
	bridge *bridgeApp

	headerBar   *tview.TextView
	statusPanel *tview.Table
	beatPanel   *tview.TextView
	tempoPanel  *tview.TextView
	logPanel    *tview.TextView
	footerBar   *tview.TextView
	helpModal   *tview.Modal

	clickMu       sync.Mutex
	lastClickBeat float64
	clickCount    uint64

	updateTicker *time.Ticker
	stopUpdate   chan struct{}
	stopOnce     sync.Once
}

// NewTUIManager builds the UI for bridge.
func NewTUIManager(bridge *bridgeApp) *TUIManager {
	tui := &TUIManager{
		app:        tview.NewApplication(),
		pages:      tview.NewPages(),
		bridge:     bridge,
		stopUpdate: make(chan struct{}),
	}

	tui.setupComponents()
	tui.setupLayout()
	tui.setupKeyBindings()
	tui.startUpdateLoop()

	return tui
}

func (tui *TUIManager) setupComponents() {
	tui.headerBar = tview.NewTextView().
		SetTextAlign(tview.AlignCenter).
		SetDynamicColors(true).
		SetText("[white:blue:b] linkbridge [::-]")

	tui.statusPanel = tview.NewTable().
		SetBorders(false).
		SetSelectable(false, false)
	tui.statusPanel.SetTitle(" Transport ").SetBorder(true)

	tui.beatPanel = tview.NewTextView().
		SetTextAlign(tview.AlignCenter).
		SetDynamicColors(true).
		SetWrap(false)
	tui.beatPanel.SetTitle(" Beat & Bar ").SetBorder(true)

	tui.tempoPanel = tview.NewTextView().
		SetTextAlign(tview.AlignCenter).
		SetDynamicColors(true).
		SetWrap(false)
	tui.tempoPanel.SetTitle(" Tempo ").SetBorder(true)

	tui.logPanel = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetChangedFunc(func() {
			// Redrawn by the update loop.
			tui.logPanel.ScrollToEnd()
		})
	tui.logPanel.SetTitle(" Log Messages ").SetBorder(true)

	tui.footerBar = tview.NewTextView().
		SetTextAlign(tview.AlignCenter).
		SetDynamicColors(true).
		SetText("[black:white] ↑/↓ BPM [black:white] Space Transport [black:white] R Reset [black:white] H Help [black:white] Q Quit ")

	tui.helpModal = tview.NewModal().
		SetText("linkbridge Controls\n\n" +
			"↑/↓: Adjust BPM (±1.0)\n" +
			"Space: Toggle transport start/stop\n" +
			"R: Reset to beat 0\n" +
			"H: Show/hide this help\n" +
			"Q or Esc: Quit application").
		AddButtons([]string{"Close"}).
		SetDoneFunc(func(buttonIndex int, buttonLabel string) {
			tui.pages.HidePage("help")
		})
}

func (tui *TUIManager) setupLayout() {
	topRow := tview.NewFlex().
		AddItem(tui.statusPanel, 0, 1, false).
		AddItem(tui.beatPanel, 0, 1, false).
		AddItem(tui.tempoPanel, 0, 1, false)

	mainContent := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(topRow, 12, 0, false).
		AddItem(tui.logPanel, 0, 1, false)

	fullLayout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(tui.headerBar, 1, 0, false).
		AddItem(mainContent, 0, 1, true).
		AddItem(tui.footerBar, 1, 0, false)

	tui.pages.AddPage("main", fullLayout, true, true)
	tui.pages.AddPage("help", tui.helpModal, true, false)
	tui.app.SetRoot(tui.pages, true)
}

func (tui *TUIManager) setupKeyBindings() {
	tui.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch {
		case event.Rune() == 'q' || event.Rune() == 'Q' || event.Key() == tcell.KeyEscape:
			if name, _ := tui.pages.GetFrontPage(); name == "help" {
				tui.pages.HidePage("help")
				return nil
			}
			tui.Stop()
			return nil

		case event.Rune() == 'h' || event.Rune() == 'H':
			if name, _ := tui.pages.GetFrontPage(); name == "help" {
				tui.pages.HidePage("help")
			} else {
				tui.pages.ShowPage("help")
			}
			return nil

		case event.Key() == tcell.KeyUp:
			tui.bridge.adjustTempo(1.0)
			return nil

		case event.Key() == tcell.KeyDown:
			tui.bridge.adjustTempo(-1.0)
			return nil

		case event.Rune() == ' ':
			tui.bridge.toggleTransport()
			return nil

		case event.Rune() == 'r' || event.Rune() == 'R':
			tui.bridge.resetBeat()
			return nil
		}

		return event
	})
}

// startUpdateLoop redraws at 20 FPS and drains clicks.
func (tui *TUIManager) startUpdateLoop() {
	tui.updateTicker = time.NewTicker(50 * time.Millisecond)

	go func() {
		for {
			select {
			case <-tui.updateTicker.C:
				tui.app.QueueUpdateDraw(tui.updateAllPanels)
			case c := <-tui.bridge.clicks.C():
				tui.clickMu.Lock()
				tui.lastClickBeat = c.Beat
				tui.clickCount++
				tui.clickMu.Unlock()
			case <-tui.stopUpdate:
				return
			}
		}
	}()
}

func (tui *TUIManager) updateAllPanels() {
	pos := tui.bridge.position()
	tui.updateStatusPanel(pos)
	tui.updateBeatPanel(pos)
	tui.updateTempoPanel(pos)
}

func (tui *TUIManager) updateStatusPanel(pos position) {
	tui.clickMu.Lock()
	clickCount := tui.clickCount
	lastClick := tui.lastClickBeat
	tui.clickMu.Unlock()
	stats := tui.bridge.engine.Stats()

	tui.statusPanel.Clear()
	rows := [][2]string{
		{"Transport:", transportCell(pos.playing)},
		{"Quantum:", fmt.Sprintf("[cyan]%.0f", tui.bridge.cfg.Quantum)},
		{"Clicks:", fmt.Sprintf("[cyan]%d", clickCount)},
		{"Last click:", fmt.Sprintf("[cyan]beat %.0f", lastClick)},
		{"Callbacks:", fmt.Sprintf("[cyan]%d", stats.Callbacks)},
		{"Adoptions:", fmt.Sprintf("[cyan]%d", stats.Adoptions)},
		{"Dropped:", fmt.Sprintf("[cyan]%d", tui.bridge.clicks.Dropped())},
	}
	for row, cells := range rows {
		tui.statusPanel.SetCell(row, 0, tview.NewTableCell(cells[0]))
		tui.statusPanel.SetCell(row, 1, tview.NewTableCell(cells[1]))
	}
}

func transportCell(playing bool) string {
	if playing {
		return "[green]Playing"
	}
	return "[red]Stopped"
}

func (tui *TUIManager) updateBeatPanel(pos position) {
	quantum := tui.bridge.cfg.Quantum
	beatsPerBar := int(quantum)
	if beatsPerBar < 1 {
		beatsPerBar = 1
	}

	bar := int(pos.beat / quantum)
	currentBeatNum := int(pos.phase)

	var b strings.Builder
	b.WriteString("\n")
	fmt.Fprintf(&b, "[yellow::]  BAR %d  [white::]\n\n  ", bar+1)
	for i := 0; i < beatsPerBar; i++ {
		switch {
		case i == currentBeatNum && pos.playing:
			b.WriteString("[red::b]●[white::] ")
		case i == currentBeatNum:
			b.WriteString("[gray::b]●[white::] ")
		default:
			b.WriteString("[darkgray::]○[white::] ")
		}
	}
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "[cyan]Beat:[white] %.2f\n", pos.beat)
	fmt.Fprintf(&b, "[cyan]Phase:[white] %.3f", pos.phase)

	const progressWidth = 20
	normalized := pos.phase / quantum
	filled := int(normalized * progressWidth)
	b.WriteString("\n[")
	for i := 0; i < progressWidth; i++ {
		if i < filled {
			b.WriteString("[green::]█[white::]")
		} else {
			b.WriteString("[darkgray::]░[white::]")
		}
	}
	fmt.Fprintf(&b, "] %6.1f%%", normalized*100)

	tui.beatPanel.SetText(b.String())
}

func (tui *TUIManager) updateTempoPanel(pos position) {
	var b strings.Builder
	b.WriteString("\n[green]Session Tempo[white]\n")
	fmt.Fprintf(&b, "[white::b]%.1f[white::] BPM\n\n", pos.tempo)
	if pending, ok := tui.bridge.ctrl.Pending(); ok && pending.Tempo > 0 {
		b.WriteString("[yellow]Proposed[white]\n")
		fmt.Fprintf(&b, "[white::b]%.1f[white::] BPM", pending.Tempo)
	}
	tui.tempoPanel.SetText(b.String())
}

// GetLogWriter returns a writer for log output
func (tui *TUIManager) GetLogWriter() *TUILogWriter {
	return &TUILogWriter{tui: tui}
}

// TUILogWriter implements io.Writer for logrus output
type TUILogWriter struct {
	tui *TUIManager
}

func (w *TUILogWriter) Write(p []byte) (n int, err error) {
	timestamp := time.Now().Format("15:04:05")
	message := fmt.Sprintf("[darkgray]%s[white] %s", timestamp, tview.Escape(string(p)))
	message = strings.TrimRight(message, "\n")

	if w.tui.logPanel != nil {
		fmt.Fprintln(w.tui.logPanel, message)
	}
	return len(p), nil
}

// Run starts the TUI application
func (tui *TUIManager) Run() error {
	return tui.app.Run()
}

// Stop shuts down the TUI
func (tui *TUIManager) Stop() {
	tui.stopOnce.Do(func() {
		tui.updateTicker.Stop()
		close(tui.stopUpdate)
		tui.app.Stop()
	})
}
