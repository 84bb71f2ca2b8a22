package monitor

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	fx "github.com/robotalks/roboclaw.go/pkg/framework"
	"github.com/robotalks/roboclaw.go/pkg/l1"
	"github.com/robotalks/roboclaw.go/pkg/l1/comm/mqtt"
	"github.com/robotalks/roboclaw.go/pkg/l1/msgs"
)

// TelemetryMsg carries a received telemetry event into the model.
type TelemetryMsg struct {
	Ref   l1.ControllerRef
	Event *msgs.Telemetry
}

type entryKey struct {
	robot      string
	controller uint32
	motor      uint32
	kind       string
}

// Model is the bubbletea model showing the latest reading of every
// (robot, controller, motor, kind).
type Model struct {
	table   table.Model
	entries map[entryKey]*msgs.Telemetry
	keys    []entryKey

	received uint64
	invalid  uint64
	lastErr  string
}

// New creates the Model.
func New() Model {
	columns := []table.Column{
		{Title: "Robot", Width: 20},
		{Title: "Ctl", Width: 4},
		{Title: "Motor", Width: 5},
		{Title: "Kind", Width: 14},
		{Title: "Value", Width: 24},
		{Title: "Error", Width: 24},
	}
	t := table.New(table.WithColumns(columns), table.WithHeight(16))
	t.SetStyles(defaultTableStyles())
	return Model{table: t, entries: make(map[entryKey]*msgs.Telemetry)}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		if h := msg.Height - 4; h > 0 {
			m.table.SetHeight(h)
		}
	case TelemetryMsg:
		m.record(msg)
		return m, nil
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *Model) record(msg TelemetryMsg) {
	ev := msg.Event
	key := entryKey{robot: msg.Ref.Name(), controller: ev.Controller, motor: ev.Motor, kind: ev.Kind}
	if _, ok := m.entries[key]; !ok {
		m.keys = append(m.keys, key)
		sort.Slice(m.keys, func(i, j int) bool { return m.keys[i].less(m.keys[j]) })
	}
	m.entries[key] = ev
	m.received++
	if !ev.Valid {
		m.invalid++
		m.lastErr = fmt.Sprintf("%s ctl %d %s: %s", key.robot, ev.Controller, ev.Kind, ev.Error)
	}
	rows := make([]table.Row, 0, len(m.keys))
	for _, k := range m.keys {
		e := m.entries[k]
		motor := "-"
		if e.Motor != 0 {
			motor = "M" + strconv.Itoa(int(e.Motor))
		}
		rows = append(rows, table.Row{
			k.robot,
			strconv.Itoa(int(e.Controller)),
			motor,
			e.Kind,
			FormatValues(e),
			e.Error,
		})
	}
	m.table.SetRows(rows)
	if len(rows) > 0 && m.table.Cursor() >= len(rows) {
		m.table.SetCursor(len(rows) - 1)
	}
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render("clawmon: RoboClaw telemetry") + "\n")
	b.WriteString(m.table.View() + "\n")
	status := fmt.Sprintf("received %d, invalid %d", m.received, m.invalid)
	b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(status) + "\n")
	if m.lastErr != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Render("last error: "+m.lastErr) + "\n")
	}
	b.WriteString("q: quit\n")
	return b.String()
}

func (k entryKey) less(o entryKey) bool {
	if k.robot != o.robot {
		return k.robot < o.robot
	}
	if k.controller != o.controller {
		return k.controller < o.controller
	}
	if k.motor != o.motor {
		return k.motor < o.motor
	}
	return k.kind < o.kind
}

// FormatValues renders values with the unit of the kind.
// Voltages and temperatures are in tenths, currents in 10mA.
func FormatValues(ev *msgs.Telemetry) string {
	if !ev.Valid {
		return "-"
	}
	strs := make([]string, len(ev.Values))
	for n, val := range ev.Values {
		switch ev.Kind {
		case "main-battery", "logic-battery":
			strs[n] = fmt.Sprintf("%.1fV", float64(val)/10)
		case "temperature":
			strs[n] = fmt.Sprintf("%.1fC", float64(val)/10)
		case "currents":
			strs[n] = fmt.Sprintf("%.2fA", float64(val)/100)
		case "error-state":
			strs[n] = fmt.Sprintf("0x%08x", val)
		default:
			strs[n] = strconv.FormatInt(val, 10)
		}
	}
	return strings.Join(strs, " ")
}

// FormatEvent renders an event as a single log line.
func FormatEvent(ref l1.ControllerRef, ev *msgs.Telemetry) string {
	at := time.Unix(0, ev.Timestamp).Format("15:04:05.000")
	line := fmt.Sprintf("%s %s ctl=%d motor=%d %s: %s", at, ref.Name(), ev.Controller, ev.Motor, ev.Kind, FormatValues(ev))
	if ev.Error != "" {
		line += " error=" + ev.Error
	}
	return line
}

// Subscribe forwards telemetry events of ref to fn.
func Subscribe(q *mqtt.Queue, ref l1.ControllerRef, fn func(TelemetryMsg)) *mqtt.Subscription {
	return q.SubEvents(ref, func(from l1.ControllerRef, msg fx.Message) {
		if ev, ok := msg.(*msgs.Telemetry); ok {
			fn(TelemetryMsg{Ref: from, Event: ev})
		}
	})
}

func defaultTableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).BorderBottom(true).Bold(true)
	s.Selected = lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Bold(true)
	return s
}
