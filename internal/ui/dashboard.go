// Package ui renders a live terminal dashboard of tracked devices.
package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hautomata/jellybridge/internal/devices"
	"github.com/hautomata/jellybridge/internal/jellyfin"
)

var (
	Primary   = lipgloss.Color("#AA5CC3") // Purple (gradient start)
	Secondary = lipgloss.Color("#00A4DC") // Cyan/Blue (gradient end)
	FgPrimary = lipgloss.Color("#FFFFFF")
	FgMuted   = lipgloss.Color("#888888")
	ErrColor  = lipgloss.Color("#FF5555")

	titleStyle = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true).
			Padding(0, 1)

	statusStyle = lipgloss.NewStyle().
			Foreground(FgMuted).
			Padding(0, 1)

	errStyle = lipgloss.NewStyle().
			Foreground(ErrColor).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(FgMuted).
			Padding(0, 1)
)

// SessionLister is the slice of the Jellyfin client the dashboard
// polls.
type SessionLister interface {
	GetSessions() ([]jellyfin.Session, error)
}

type sessionsMsg []jellyfin.Session

type pollErrMsg struct{ err error }

type tickMsg time.Time

// Model is the bubbletea model for the sessions dashboard.
type Model struct {
	lister   SessionLister
	manager  *devices.Manager
	table    table.Model
	keys     []string
	interval time.Duration
	err      error
	updated  time.Time
}

// NewModel builds a dashboard polling at the given interval.
func NewModel(lister SessionLister, manager *devices.Manager, interval time.Duration) Model {
	if interval <= 0 {
		interval = 2 * time.Second
	}

	columns := []table.Column{
		{Title: "Device", Width: 22},
		{Title: "Client", Width: 16},
		{Title: "User", Width: 12},
		{Title: "State", Width: 8},
		{Title: "Now Playing", Width: 34},
		{Title: "Position", Width: 16},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(12),
	)

	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(Secondary).
		BorderBottom(true).
		Foreground(FgPrimary).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(FgPrimary).
		Background(Primary).
		Bold(false)
	t.SetStyles(styles)

	return Model{
		lister:   lister,
		manager:  manager,
		table:    t,
		interval: interval,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.pollCmd(), m.tickCmd())
}

func (m Model) pollCmd() tea.Cmd {
	return func() tea.Msg {
		sessions, err := m.lister.GetSessions()
		if err != nil {
			return pollErrMsg{err: err}
		}
		return sessionsMsg(sessions)
	}
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ":
			return m, m.transportCmd(togglePlayPause)
		case "x":
			return m, m.transportCmd(func(d *devices.Device) error { return d.Stop() })
		case "n":
			return m, m.transportCmd(func(d *devices.Device) error { return d.NextTrack() })
		case "b":
			return m, m.transportCmd(func(d *devices.Device) error { return d.PreviousTrack() })
		}

	case tickMsg:
		return m, tea.Batch(m.pollCmd(), m.tickCmd())

	case sessionsMsg:
		m.manager.Apply([]jellyfin.Session(msg))
		m.err = nil
		m.updated = time.Now()
		m.refreshRows()
		return m, nil

	case pollErrMsg:
		m.err = msg.err
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func togglePlayPause(d *devices.Device) error {
	if d.State() == devices.StatePlaying {
		return d.Pause()
	}
	return d.Play()
}

func (m *Model) transportCmd(action func(*devices.Device) error) tea.Cmd {
	cursor := m.table.Cursor()
	if cursor < 0 || cursor >= len(m.keys) {
		return nil
	}
	d, ok := m.manager.Device(m.keys[cursor])
	if !ok || !d.Active() || !d.SupportsRemoteControl() {
		return nil
	}
	return func() tea.Msg {
		if err := action(d); err != nil {
			return pollErrMsg{err: err}
		}
		return nil
	}
}

func (m *Model) refreshRows() {
	all := m.manager.Devices()
	rows := make([]table.Row, 0, len(all))
	keys := make([]string, 0, len(all))

	for _, d := range all {
		rows = append(rows, table.Row{
			d.Name(),
			d.ClientName(),
			d.Username(),
			string(d.State()),
			nowPlayingCell(d),
			positionCell(d),
		})
		keys = append(keys, d.Key())
	}

	m.table.SetRows(rows)
	m.keys = keys
}

func nowPlayingCell(d *devices.Device) string {
	title := d.MediaTitle()
	if title == "" {
		return "-"
	}
	if series := d.SeriesTitle(); series != "" {
		return fmt.Sprintf("%s - %s", series, title)
	}
	if artist := d.Artist(); artist != "" {
		return fmt.Sprintf("%s - %s", artist, title)
	}
	return title
}

func positionCell(d *devices.Device) string {
	pos, ok := d.Position()
	if !ok {
		return "-"
	}
	runtime, ok := d.Runtime()
	if !ok {
		return formatClock(pos)
	}
	return fmt.Sprintf("%s / %s", formatClock(pos), formatClock(runtime))
}

func formatClock(seconds float64) string {
	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func (m Model) View() string {
	view := titleStyle.Render("jellybridge sessions") + "\n"
	view += m.table.View() + "\n"

	if m.err != nil {
		view += errStyle.Render("poll failed: "+m.err.Error()) + "\n"
	} else if !m.updated.IsZero() {
		view += statusStyle.Render(fmt.Sprintf("%d active / updated %s",
			m.manager.ActiveCount(), m.updated.Format("15:04:05"))) + "\n"
	}

	view += helpStyle.Render("space play/pause  x stop  n next  b previous  q quit")
	return view
}

// Run starts the dashboard and blocks until the user quits.
func Run(lister SessionLister, manager *devices.Manager, interval time.Duration) error {
	p := tea.NewProgram(NewModel(lister, manager, interval))
	_, err := p.Run()
	return err
}
