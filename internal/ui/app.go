package ui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/riloraspopo/scrcpygui/internal/config"
	"github.com/riloraspopo/scrcpygui/internal/devices"
	"github.com/riloraspopo/scrcpygui/internal/discovery"
	"github.com/riloraspopo/scrcpygui/internal/scan"
	"github.com/riloraspopo/scrcpygui/internal/session"
	"github.com/riloraspopo/scrcpygui/internal/subnet"
)

// phase is the current activity of the application.
type phase int

const (
	phaseScanning phase = iota
	phaseDevices
	phaseSession
)

// Messages for async operations
type scanStartMsg struct{}

type scanProgressMsg scan.Progress

type scanDoneMsg struct {
	result *scan.Result
	extra  []*devices.Device
	err    error
}

type sessionMsg struct {
	snap session.Snapshot
	err  error
}

type toggleMsg struct {
	on  bool
	err error
}

type sessionTickMsg time.Time

// listKeyMap defines key bindings for the device list
type listKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Enter  key.Binding
	Rescan key.Binding
	Quit   key.Binding
}

func (k listKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Enter, k.Rescan, k.Quit}
}

func (k listKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Enter},
		{k.Rescan, k.Quit},
	}
}

// scanningKeyMap defines key bindings while a sweep is running
type scanningKeyMap struct {
	Cancel key.Binding
	Quit   key.Binding
}

func (k scanningKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Cancel, k.Quit}
}

func (k scanningKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Cancel, k.Quit}}
}

// sessionKeyMap defines key bindings while a session is up
type sessionKeyMap struct {
	Toggle key.Binding
	Stop   key.Binding
	Back   key.Binding
	Quit   key.Binding
}

func (k sessionKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Stop, k.Back, k.Quit}
}

func (k sessionKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Toggle, k.Stop, k.Back, k.Quit}}
}

// deviceItem wraps a Device for use with bubbles/list
type deviceItem struct {
	device   *devices.Device
	nickname string
}

func (d deviceItem) FilterValue() string {
	return d.device.Address + " " + d.nickname
}

func (d deviceItem) Title() string {
	if d.nickname != "" {
		return fmt.Sprintf("%s (%s)", d.nickname, d.device.Address)
	}
	return d.device.Address
}

func (d deviceItem) Description() string {
	return fmt.Sprintf("%s • %s", d.device.Endpoint(), d.device.Source)
}

// deviceDelegate renders one device row in the list
type deviceDelegate struct{}

func (d deviceDelegate) Height() int  { return 2 }
func (d deviceDelegate) Spacing() int { return 1 }

func (d deviceDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d deviceDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	di, ok := item.(deviceItem)
	if !ok {
		return
	}

	title := di.Title()
	desc := SubtitleStyle.Render(di.Description())
	if index == m.Index() {
		title = lipgloss.NewStyle().Foreground(HighlightColor).Bold(true).Render("→ " + title)
	} else {
		title = "  " + title
	}
	fmt.Fprintf(w, "%s\n  %s", title, desc)
}

// Options configures the application model.
type Options struct {
	Range        *subnet.Range
	Coordinator  *scan.Coordinator
	Devices      *devices.Registry
	Config       *config.Registry
	Orchestrator *session.Orchestrator
	Browser      *discovery.Browser // nil disables mDNS supplement
}

// App is the top-level bubbletea model: sweep, device list, session panel.
type App struct {
	opts Options

	phase      phase
	width      int
	height     int
	err        error
	statusLine string

	// Scan state
	progressCh chan scan.Progress
	cancelScan context.CancelFunc
	completed  int
	total      int
	scanStart  time.Time

	// Session state
	snap session.Snapshot

	deviceList  list.Model
	spinner     spinner.Model
	progressBar progress.Model
	help        help.Model

	listKeys listKeyMap
	scanKeys scanningKeyMap
	sessKeys sessionKeyMap
}

// NewApp creates the application model. The first sweep starts on Init.
func NewApp(opts Options) App {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 40

	deviceList := list.New([]list.Item{}, deviceDelegate{}, 0, 0)
	deviceList.Title = "Devices"
	deviceList.SetShowStatusBar(false)
	deviceList.SetFilteringEnabled(true)
	deviceList.SetShowHelp(false)
	deviceList.Styles.Title = TitleStyle

	return App{
		opts:        opts,
		phase:       phaseScanning,
		deviceList:  deviceList,
		spinner:     s,
		progressBar: bar,
		help:        help.New(),
		listKeys: listKeyMap{
			Up: key.NewBinding(
				key.WithKeys("up", "k"),
				key.WithHelp("↑/k", "move up"),
			),
			Down: key.NewBinding(
				key.WithKeys("down", "j"),
				key.WithHelp("↓/j", "move down"),
			),
			Enter: key.NewBinding(
				key.WithKeys("enter"),
				key.WithHelp("enter", "connect"),
			),
			Rescan: key.NewBinding(
				key.WithKeys("r"),
				key.WithHelp("r", "rescan"),
			),
			Quit: key.NewBinding(
				key.WithKeys("q", "esc"),
				key.WithHelp("q", "quit"),
			),
		},
		scanKeys: scanningKeyMap{
			Cancel: key.NewBinding(
				key.WithKeys("esc"),
				key.WithHelp("esc", "stop scan, keep results"),
			),
			Quit: key.NewBinding(
				key.WithKeys("q", "ctrl+c"),
				key.WithHelp("q", "quit"),
			),
		},
		sessKeys: sessionKeyMap{
			Toggle: key.NewBinding(
				key.WithKeys("o"),
				key.WithHelp("o", "toggle screen"),
			),
			Stop: key.NewBinding(
				key.WithKeys("s"),
				key.WithHelp("s", "stop mirror"),
			),
			Back: key.NewBinding(
				key.WithKeys("esc"),
				key.WithHelp("esc", "back to devices"),
			),
			Quit: key.NewBinding(
				key.WithKeys("q"),
				key.WithHelp("q", "quit"),
			),
		},
	}
}

// Init kicks off the first network sweep. The sweep is started from Update
// so the state it sets up lands on the model copy bubbletea keeps.
func (m App) Init() tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return scanStartMsg{} },
		m.spinner.Tick,
	)
}

// startScan wires the coordinator's progress callback to a channel the
// update loop drains, then runs the sweep in a command.
func (m *App) startScan() tea.Cmd {
	ch := make(chan scan.Progress, 16)
	m.progressCh = ch
	m.completed = 0
	m.total = m.opts.Range.Count()
	m.scanStart = time.Now()
	m.phase = phaseScanning
	m.err = nil

	ctx, cancel := context.WithCancel(context.Background())
	m.cancelScan = cancel

	coord := m.opts.Coordinator
	coord.OnProgress = func(p scan.Progress) {
		select {
		case ch <- p:
		default:
		}
	}

	opts := m.opts
	run := func() tea.Msg {
		defer close(ch)
		result, err := coord.Run(ctx, opts.Range)

		var extra []*devices.Device
		if opts.Browser != nil {
			found, berr := opts.Browser.Browse(ctx)
			if berr == nil {
				extra = found
			}
		}
		return scanDoneMsg{result: result, extra: extra, err: err}
	}

	return tea.Batch(run, waitForProgress(ch))
}

func waitForProgress(ch chan scan.Progress) tea.Cmd {
	return func() tea.Msg {
		p, ok := <-ch
		if !ok {
			return nil
		}
		return scanProgressMsg(p)
	}
}

func (m *App) startSession(address string) tea.Cmd {
	orch := m.opts.Orchestrator
	reg := m.opts.Devices
	return func() tea.Msg {
		if _, err := reg.Select(address); err != nil {
			return sessionMsg{err: err}
		}
		snap, err := orch.Start(context.Background())
		return sessionMsg{snap: snap, err: err}
	}
}

func (m *App) toggleScreen() tea.Cmd {
	orch := m.opts.Orchestrator
	return func() tea.Msg {
		on, err := orch.ToggleScreen(context.Background())
		return toggleMsg{on: on, err: err}
	}
}

func (m *App) stopSession() tea.Cmd {
	orch := m.opts.Orchestrator
	return func() tea.Msg {
		err := orch.Stop()
		return sessionMsg{snap: orch.Snapshot(), err: err}
	}
}

func sessionTick() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return sessionTickMsg(t)
	})
}

// Update handles all messages.
func (m App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.deviceList.SetWidth(msg.Width - 6)
		m.deviceList.SetHeight(msg.Height - 10)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.shutdown()
			return m, tea.Quit
		}
		switch m.phase {
		case phaseScanning:
			return m.updateScanning(msg)
		case phaseDevices:
			return m.updateDevices(msg)
		case phaseSession:
			return m.updateSession(msg)
		}

	case scanStartMsg:
		return m, m.startScan()

	case scanProgressMsg:
		m.completed = msg.Completed
		m.total = msg.Total
		return m, waitForProgress(m.progressCh)

	case scanDoneMsg:
		return m.finishScan(msg)

	case sessionMsg:
		m.err = msg.err
		m.snap = msg.snap
		if msg.err == nil && msg.snap.State == session.StateActive {
			m.phase = phaseSession
			m.statusLine = ""
			return m, sessionTick()
		}
		return m, nil

	case toggleMsg:
		if msg.err != nil {
			m.statusLine = WarningStyle.Render("toggle failed: " + msg.err.Error())
		} else if msg.on {
			m.statusLine = "screen assumed on"
		} else {
			m.statusLine = "screen assumed off"
		}
		return m, nil

	case sessionTickMsg:
		if m.phase != phaseSession {
			return m, nil
		}
		m.snap = m.opts.Orchestrator.Snapshot()
		return m, sessionTick()

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.phase == phaseDevices {
		m.deviceList, cmd = m.deviceList.Update(msg)
	}
	return m, cmd
}

func (m App) updateScanning(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		// Cooperative cancel: the sweep stops handing out probes and the
		// completion message still arrives with the partial results.
		if m.cancelScan != nil {
			m.cancelScan()
		}
	case "q":
		m.shutdown()
		return m, tea.Quit
	}
	return m, nil
}

func (m App) updateDevices(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.deviceList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.deviceList, cmd = m.deviceList.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q", "esc":
		m.shutdown()
		return m, tea.Quit

	case "enter":
		if item, ok := m.deviceList.SelectedItem().(deviceItem); ok {
			m.statusLine = "connecting to " + item.device.Address + "..."
			return m, m.startSession(item.device.Address)
		}

	case "r":
		m.deviceList.SetItems([]list.Item{})
		return m, tea.Batch(m.startScan(), m.spinner.Tick)
	}

	var cmd tea.Cmd
	m.deviceList, cmd = m.deviceList.Update(msg)
	return m, cmd
}

func (m App) updateSession(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "o":
		return m, m.toggleScreen()
	case "s":
		return m, m.stopSession()
	case "esc":
		m.phase = phaseDevices
		m.statusLine = ""
		return m, nil
	case "q":
		m.shutdown()
		return m, tea.Quit
	}
	return m, nil
}

func (m App) finishScan(msg scanDoneMsg) (tea.Model, tea.Cmd) {
	m.phase = phaseDevices
	m.cancelScan = nil

	if msg.err != nil {
		m.err = msg.err
		return m, nil
	}

	found := msg.result.Devices
	seen := make(map[string]bool, len(found))
	for _, d := range found {
		seen[d.Address] = true
	}
	for _, d := range msg.extra {
		if !seen[d.Address] {
			seen[d.Address] = true
			found = append(found, d)
		}
	}

	m.opts.Devices.Replace(found)

	items := make([]list.Item, len(found))
	for i, d := range found {
		m.opts.Config.UpdateDeviceLastSeen(d.Address)
		items[i] = deviceItem{device: d, nickname: m.opts.Config.Nickname(d.Address)}
	}
	m.deviceList.SetItems(items)

	// Persisting last-seen timestamps is best effort.
	_ = m.opts.Config.Save()

	if msg.result.Cancelled {
		m.statusLine = WarningStyle.Render(
			fmt.Sprintf("scan cancelled after %d/%d hosts", msg.result.Completed, msg.result.Candidates))
	} else {
		m.statusLine = ""
	}
	return m, nil
}

// shutdown stops any in-flight scan and active session before quitting.
func (m *App) shutdown() {
	if m.cancelScan != nil {
		m.cancelScan()
	}
	if m.opts.Orchestrator.State() == session.StateActive {
		_ = m.opts.Orchestrator.Stop()
	}
}

// View renders the current phase.
func (m App) View() string {
	width := m.width
	if width == 0 {
		width = GetTerminalWidth()
	}

	var content, helpText string
	switch m.phase {
	case phaseScanning:
		content = m.renderScanning(width)
		helpText = m.help.View(m.scanKeys)
	case phaseSession:
		content = m.renderSession()
		helpText = m.help.View(m.sessKeys)
	default:
		content = m.renderDevices()
		helpText = m.help.View(m.listKeys)
	}

	return RenderApplicationContainer(content, helpText, width, m.height)
}

func (m App) renderScanning(width int) string {
	elapsed := int(time.Since(m.scanStart).Seconds())

	var pct float64
	if m.total > 0 {
		pct = float64(m.completed) / float64(m.total)
	}

	title := fmt.Sprintf("%s SCANNING %s", m.spinner.View(), m.opts.Range.String())
	counter := fmt.Sprintf("%d/%d hosts • %ds elapsed", m.completed, m.total, elapsed)

	content := lipgloss.JoinVertical(lipgloss.Center,
		"",
		TitleStyle.Render(title),
		"",
		m.progressBar.ViewAs(pct),
		"",
		SubtitleStyle.Render(counter),
		"",
	)

	return lipgloss.Place(width-4, 0, lipgloss.Center, lipgloss.Top, content)
}

func (m App) renderDevices() string {
	var b strings.Builder
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(RenderError(m.err.Error()))
		b.WriteString("\n\n")
	}

	if len(m.deviceList.Items()) == 0 {
		b.WriteString("  ")
		b.WriteString(WarningStyle.Render("No devices found"))
		b.WriteString("\n\n")
		b.WriteString("  Make sure wireless debugging is enabled on the device\n")
		b.WriteString("  (Settings > Developer options > Wireless debugging),\n")
		b.WriteString("  or run \"adb tcpip 5555\" over USB first. Press r to rescan.\n")
	} else {
		b.WriteString(m.deviceList.View())
	}

	if m.statusLine != "" {
		b.WriteString("\n  ")
		b.WriteString(m.statusLine)
		b.WriteString("\n")
	}
	return b.String()
}

func (m App) renderSession() string {
	var b strings.Builder
	b.WriteString("\n")

	var stateLine string
	switch m.snap.State {
	case session.StateActive:
		stateLine = StatusActiveStyle.Render("● active")
	case session.StateFailed:
		stateLine = StatusFailedStyle.Render(fmt.Sprintf("✗ failed (%s)", m.snap.FailedStep))
	case session.StateEnded:
		stateLine = StatusNeutralStyle.Render("■ ended")
	default:
		stateLine = StatusNeutralStyle.Render(m.snap.State.String())
	}

	screen := "on"
	if !m.snap.ScreenOn {
		screen = "off"
	}

	var card strings.Builder
	card.WriteString(KeyLabelStyle.Render("Device") + ValueStyle.Render(m.snap.Endpoint) + "\n")
	card.WriteString(KeyLabelStyle.Render("Status") + stateLine + "\n")
	card.WriteString(KeyLabelStyle.Render("Screen") + ValueStyle.Render(screen) + "\n")
	card.WriteString(KeyLabelStyle.Render("Started") + SubtitleStyle.Render(m.snap.StartedAt.Format("15:04:05")))

	b.WriteString(SessionBoxStyle.Render(card.String()))
	b.WriteString("\n")

	if m.snap.State == session.StateEnded {
		b.WriteString("\n  ")
		b.WriteString(SubtitleStyle.Render("Mirror closed. Press esc for the device list."))
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(RenderError(m.err.Error()))
		b.WriteString("\n")
	}
	if m.statusLine != "" {
		b.WriteString("\n  ")
		b.WriteString(m.statusLine)
		b.WriteString("\n")
	}
	return b.String()
}
