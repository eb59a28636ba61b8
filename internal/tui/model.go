package tui

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"geolabel/internal/domain"
)

// tokenPreview caps how many tokens the detail pane lists.
const tokenPreview = 60

// Model is the Bubble Tea model for browsing labeled clusters.
type Model struct {
	clusters []domain.LabeledCluster
	visible  []int
	input    textinput.Model
	viewport viewport.Model
	summary  string
	status   string
	filter   string
	cursor   int
	ready    bool
}

// New creates a browser over clusters, largest first.
func New(clusters []domain.LabeledCluster, summary string) Model {
	sorted := make([]domain.LabeledCluster, len(clusters))
	copy(sorted, clusters)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Count > sorted[j].Count })

	ti := textinput.New()
	ti.Prompt = "filter> "
	ti.Placeholder = "Type to filter by label or token"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	m := Model{clusters: sorted, input: ti, viewport: vp, summary: summary}
	m.applyFilter("")
	return m
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Selected returns the cluster under the cursor.
func (m Model) Selected() (domain.LabeledCluster, bool) {
	if len(m.visible) == 0 {
		return domain.LabeledCluster{}, false
	}
	return m.clusters[m.visible[m.cursor]], true
}

// Visible returns how many clusters match the current filter.
func (m Model) Visible() int { return len(m.visible) }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, dh := detailBoxStyle.GetFrameSize()
		_, fh := filterBoxStyle.GetFrameSize()
		reserved := 2 + 1 + fh + 1 // header and summary, status, spacer
		vh := msg.Height - reserved
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-dh)
		m.viewport.SetContent(m.renderCurrent())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		switch msg.String() {
		case "down":
			if len(m.visible) > 0 {
				m.cursor = (m.cursor + 1) % len(m.visible)
				m.refresh()
			}
			return m, nil
		case "up":
			if len(m.visible) > 0 {
				m.cursor = (m.cursor - 1 + len(m.visible)) % len(m.visible)
				m.refresh()
			}
			return m, nil
		case "pgdown":
			m.viewport.HalfViewDown()
			return m, nil
		case "pgup":
			m.viewport.HalfViewUp()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if q := strings.TrimSpace(m.input.Value()); q != m.filter {
		m.applyFilter(q)
	}
	return m, cmd
}

// View renders the TUI layout and current cluster.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Cluster Labels")
	summary := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.summary)
	input := filterBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	detail := detailBoxStyle.Render(m.viewport.View())
	return header + "\n" + summary + "\n" + detail + "\n" + input + "\n" + status
}

func (m *Model) applyFilter(q string) {
	m.filter = q
	m.visible = make([]int, 0, len(m.clusters))
	terms := toTokenSet(q)
	needle := strings.ToLower(q)
	for i, c := range m.clusters {
		if needle == "" || strings.Contains(strings.ToLower(c.Label), needle) || anyToken(c.Tokens, terms) {
			m.visible = append(m.visible, i)
		}
	}
	m.cursor = 0
	switch {
	case len(m.clusters) == 0:
		m.status = "No clusters found."
	case q == "":
		m.status = fmt.Sprintf("%d clusters. Up/down to browse, type to filter, esc to quit.", len(m.clusters))
	default:
		m.status = fmt.Sprintf("%d of %d clusters match %q", len(m.visible), len(m.clusters), q)
	}
	m.refresh()
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderCurrent())
	m.viewport.GotoTop()
}

func (m Model) renderCurrent() string {
	c, ok := m.Selected()
	if !ok {
		return "Nothing to show."
	}
	title := fmt.Sprintf("Cluster %d/%d  id=%d  points=%d", m.cursor+1, len(m.visible), c.ID, c.Count)
	label := labelStyle.Render(c.Label)
	centroid := fmt.Sprintf("centroid (%.6f, %.6f)", c.Centroid.X(), c.Centroid.Y())
	return title + "\n" + label + "\n" + centroid + "\n\n" + renderTokens(c.Tokens, toTokenSet(m.filter))
}

var (
	detailBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	filterBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	labelStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	unicodeWordRe  = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
)

func renderTokens(tokens []string, terms map[string]struct{}) string {
	if len(tokens) == 0 {
		return "(no tokens)"
	}
	shown := tokens
	if len(shown) > tokenPreview {
		shown = shown[:tokenPreview]
	}
	parts := make([]string, len(shown))
	for i, t := range shown {
		if _, ok := terms[strings.ToLower(t)]; ok {
			parts[i] = highlightStyle.Render(t)
		} else {
			parts[i] = t
		}
	}
	out := fmt.Sprintf("tokens (%d):\n%s", len(tokens), strings.Join(parts, ", "))
	if len(tokens) > len(shown) {
		out += fmt.Sprintf(", … (+%d)", len(tokens)-len(shown))
	}
	return out
}

func anyToken(tokens []string, terms map[string]struct{}) bool {
	if len(terms) == 0 {
		return false
	}
	for _, t := range tokens {
		if _, ok := terms[strings.ToLower(t)]; ok {
			return true
		}
	}
	return false
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}
