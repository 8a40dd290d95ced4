package picker

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/nikbrunner/linkshelf/internal/model"
	"github.com/nikbrunner/linkshelf/internal/search"
)

var (
	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")).
			Bold(true)

	normalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	urlStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")).
			Italic(true)

	collectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("99"))

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("99")).
			Bold(true).
			MarginBottom(1)

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))
)

// Picker is a simple TUI for selecting from search results.
type Picker struct {
	results   []search.SearchResult
	query     string
	keys      KeyMap
	cursor    int
	selected  bool
	cancelled bool
	status    string
	width     int
	height    int

	copyURL func(string) error
}

// New creates a new Picker with the given search results.
func New(results []search.SearchResult, query string) Picker {
	return Picker{
		results: results,
		query:   query,
		keys:    DefaultKeyMap(),
		width:   80,
		height:  24,
		copyURL: clipboard.WriteAll,
	}
}

// Init implements tea.Model.
func (p Picker) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (p Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.width = msg.Width
		p.height = msg.Height
		return p, nil

	case tea.KeyMsg:
		p.status = ""

		switch {
		case key.Matches(msg, p.keys.Cancel):
			p.cancelled = true
			return p, tea.Quit

		case key.Matches(msg, p.keys.Open):
			p.selected = true
			return p, tea.Quit

		case key.Matches(msg, p.keys.Down):
			if p.cursor < len(p.results)-1 {
				p.cursor++
			}
			return p, nil

		case key.Matches(msg, p.keys.Up):
			if p.cursor > 0 {
				p.cursor--
			}
			return p, nil

		case key.Matches(msg, p.keys.Yank):
			if p.cursor < len(p.results) {
				if err := p.copyURL(p.results[p.cursor].Link.URL); err != nil {
					p.status = fmt.Sprintf("Copy failed: %v", err)
				} else {
					p.status = "Copied URL"
				}
			}
			return p, nil
		}
	}

	return p, nil
}

// View implements tea.Model.
func (p Picker) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render(fmt.Sprintf("Search: %s (%d results)", p.query, len(p.results))))
	b.WriteString("\n\n")

	for i, result := range p.results {
		cursor := "  "
		style := normalStyle
		if i == p.cursor {
			cursor = "> "
			style = selectedStyle
		}

		title := style.Render(result.Link.Title)
		collection := collectionStyle.Render("[" + result.CollectionName + "]")
		url := urlStyle.Render(result.Link.URL)

		b.WriteString(fmt.Sprintf("%s%s %s\n", cursor, title, collection))
		b.WriteString(fmt.Sprintf("   %s\n", url))
	}

	b.WriteString("\n")
	if p.status != "" {
		b.WriteString(footerStyle.Render(p.status))
		b.WriteString("\n")
	}
	b.WriteString(footerStyle.Render(helpLine(p.keys.ShortHelp())))

	return b.String()
}

func helpLine(bindings []key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, kb := range bindings {
		h := kb.Help()
		parts = append(parts, h.Key+": "+h.Desc)
	}
	return strings.Join(parts, "  ")
}

// SelectedLink returns the selected link, or nil if cancelled.
func (p Picker) SelectedLink() *model.Link {
	if p.cancelled || !p.selected {
		return nil
	}
	if p.cursor < len(p.results) {
		link := p.results[p.cursor].Link
		return &link
	}
	return nil
}

// Cancelled returns true if the user cancelled the selection.
func (p Picker) Cancelled() bool {
	return p.cancelled
}
