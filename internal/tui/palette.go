package tui

import (
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/joss/workbench/internal/backend"
	"github.com/joss/workbench/internal/language"
)

// fileItem implements list.Item for the quick-open palette.
type fileItem struct {
	relPath string
	icon    string
}

func (i fileItem) Title() string       { return i.icon + " " + i.relPath }
func (i fileItem) Description() string { return "" }
func (i fileItem) FilterValue() string { return i.relPath }

// fileItems implements fuzzy.Source over the palette entries.
type fileItems []fileItem

func (f fileItems) String(i int) string { return f[i].relPath }
func (f fileItems) Len() int            { return len(f) }

// Palette is the ctrl+p quick-open surface: a query line over a fuzzy
// ranked view of the cached tree. It never touches the backend; excluded
// globs were already filtered out of the item set.
type Palette struct {
	query textinput.Model
	list  list.Model
	items fileItems
}

// NewPalette creates an empty palette.
func NewPalette(width, height int) *Palette {
	q := textinput.New()
	q.Placeholder = "search files..."
	q.CharLimit = 200
	q.Prompt = "> "
	q.Focus()

	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	delegate.SetHeight(1)
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(lipgloss.Color("205")).
		BorderForeground(lipgloss.Color("205"))

	l := list.New([]list.Item{}, delegate, width, height)
	l.Title = "Quick open"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = lipgloss.NewStyle().
		Foreground(lipgloss.Color("205")).
		Bold(true)

	return &Palette{query: q, list: l}
}

// SetFiles replaces the item set from a tree snapshot.
func (p *Palette) SetFiles(files []backend.FileNode) {
	items := make(fileItems, 0, len(files))
	for _, f := range files {
		items = append(items, fileItem{
			relPath: f.Path,
			icon:    language.Icon(f.Path, false),
		})
	}
	p.items = items
	p.query.SetValue("")
	p.apply("")
}

func (p *Palette) apply(filter string) {
	var rows []list.Item
	if filter == "" {
		for _, item := range p.items {
			rows = append(rows, item)
		}
	} else {
		for _, match := range fuzzy.FindFrom(filter, p.items) {
			rows = append(rows, p.items[match.Index])
		}
	}
	p.list.SetItems(rows)
	p.list.ResetSelected()
}

// Update routes input: printable keys refine the query, the rest drive the
// result list.
func (p *Palette) Update(msg tea.Msg) (*Palette, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "up", "down", "pgup", "pgdown":
			var cmd tea.Cmd
			p.list, cmd = p.list.Update(msg)
			return p, cmd
		}
	}

	before := p.query.Value()
	var cmd tea.Cmd
	p.query, cmd = p.query.Update(msg)
	if p.query.Value() != before {
		p.apply(p.query.Value())
	}
	return p, cmd
}

// View renders the palette.
func (p *Palette) View() string {
	return boxStyle.Render(p.query.View() + "\n" + p.list.View())
}

// Selected returns the highlighted path.
func (p *Palette) Selected() (string, bool) {
	item, ok := p.list.SelectedItem().(fileItem)
	if !ok {
		return "", false
	}
	return item.relPath, true
}

// SetSize updates the palette dimensions.
func (p *Palette) SetSize(width, height int) {
	p.query.Width = width - 4
	p.list.SetSize(width, height)
}
