package app

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/rs/zerolog"

	"github.com/rebeliceyang/lazyadmin/internal/bookmarks"
	"github.com/rebeliceyang/lazyadmin/internal/config"
	"github.com/rebeliceyang/lazyadmin/internal/entity"
	"github.com/rebeliceyang/lazyadmin/internal/models"
	"github.com/rebeliceyang/lazyadmin/internal/statecache"
	"github.com/rebeliceyang/lazyadmin/internal/ui/components"
	"github.com/rebeliceyang/lazyadmin/internal/ui/help"
	"github.com/rebeliceyang/lazyadmin/internal/ui/theme"
)

// App is the main application model
type App struct {
	state      models.AppState
	config     *config.Config
	theme      theme.Theme
	logger     zerolog.Logger
	leftPanel  components.Panel
	rightPanel components.Panel

	registry  *entity.Registry
	store     *statecache.URLStore
	views     map[string]*view
	current   *view
	bookmarks *bookmarks.Manager
	copy      func(string) error

	// Error overlay
	showError    bool
	errorOverlay *components.ErrorOverlay

	// Overlays; at most one is open
	prompt       *components.Prompt
	picker       *components.Picker
	filterEditor *components.FilterEditor

	tableView  *components.TableView
	detailView *components.DetailView
	// entity and key of the detail being loaded; later results are stale
	pendingDetail string

	flash string
}

// ErrorMsg is sent when an error occurs
type ErrorMsg struct {
	Title   string
	Message string
}

// Option configures an App
type Option func(*App)

// WithLogger sets the logger
func WithLogger(logger zerolog.Logger) Option {
	return func(a *App) { a.logger = logger }
}

// WithBookmarks enables saving and opening bookmarks
func WithBookmarks(m *bookmarks.Manager) Option {
	return func(a *App) { a.bookmarks = m }
}

// WithClipboard replaces the system clipboard
func WithClipboard(fn func(string) error) Option {
	return func(a *App) { a.copy = fn }
}

// New creates a new App over the entities in registry
func New(cfg *config.Config, registry *entity.Registry, opts ...Option) *App {
	if cfg == nil {
		cfg = config.GetDefaults()
	}
	state := models.NewAppState()
	state.Entities = registry.Names()

	th := theme.GetTheme(cfg.UI.Theme)
	if cfg.UI.PanelWidthRatio > 0 && cfg.UI.PanelWidthRatio < 100 {
		state.LeftPanelWidth = cfg.UI.PanelWidthRatio
	}

	start := cfg.General.DefaultEntity
	if _, ok := registry.Get(start); !ok && len(state.Entities) > 0 {
		start = state.Entities[0]
	}

	tv := components.NewTableView(th)
	if cfg.UI.MaxCellWidth > 0 {
		tv.MaxCellWidth = cfg.UI.MaxCellWidth
	}

	a := &App{
		state:        state,
		config:       cfg,
		theme:        th,
		logger:       zerolog.Nop(),
		registry:     registry,
		store:        statecache.NewURLStore(entityPath(start)),
		views:        make(map[string]*view),
		copy:         clipboard.WriteAll,
		errorOverlay: components.NewErrorOverlay(th),
		tableView:    tv,
		leftPanel:    components.Panel{Title: "Entities", Theme: th},
		rightPanel:   components.Panel{Theme: th},
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With().Str("component", "app").Logger()

	if v, err := a.view(start); err == nil {
		a.store.Navigate(entityPath(start), a.lastValues(v), statecache.Replace)
	}

	a.updatePanelDimensions()
	a.updatePanelStyles()
	return a
}

// Open moves to a location produced by the view location encoder, such as
// a bookmark. It must be called before the program starts.
func (a *App) Open(location string) error {
	return a.openLocation(location, statecache.Replace)
}

func (a *App) openLocation(location string, mode statecache.NavigationMode) error {
	if !strings.HasPrefix(location, "/") {
		location = "/" + location
	}
	name := entityFromPath(location)
	if _, ok := a.registry.Get(name); !ok {
		return fmt.Errorf("unknown entity %q", name)
	}
	return a.store.Open(location, mode)
}

// Location returns the shareable location of the current view
func (a *App) Location() string {
	return a.store.Encode()
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return a.syncLocation()
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ErrorMsg:
		a.ShowError(msg.Title, msg.Message)
		return a, nil

	case tea.WindowSizeMsg:
		a.state.Width = msg.Width
		a.state.Height = msg.Height
		a.updatePanelDimensions()
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	return a, a.handleMsg(msg)
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if a.showError {
		switch key {
		case "esc", "enter":
			a.DismissError()
		case "ctrl+c":
			return a, tea.Quit
		}
		return a, nil
	}
	if key == "ctrl+c" {
		return a, tea.Quit
	}

	switch {
	case a.prompt != nil:
		var cmd tea.Cmd
		a.prompt, cmd = a.prompt.Update(msg)
		return a, cmd
	case a.picker != nil:
		var cmd tea.Cmd
		a.picker, cmd = a.picker.Update(msg)
		return a, cmd
	case a.filterEditor != nil:
		var cmd tea.Cmd
		a.filterEditor, cmd = a.filterEditor.Update(msg)
		return a, cmd
	}

	if a.state.ViewMode == models.HelpMode {
		if key == "?" || key == "esc" || key == "q" {
			a.state.ViewMode = models.NormalMode
		}
		return a, nil
	}

	if a.state.ViewMode == models.DetailMode {
		return a, a.handleDetailKey(msg)
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "?":
		a.state.ViewMode = models.HelpMode
		return a, nil
	case "tab":
		if a.state.FocusedPanel == models.LeftPanel {
			a.state.FocusedPanel = models.RightPanel
		} else {
			a.state.FocusedPanel = models.LeftPanel
		}
		a.updatePanelStyles()
		return a, nil
	case "[":
		return a, a.back()
	case "]":
		return a, a.forward()
	case "y":
		return a, a.copyLocation()
	case "m":
		a.openBookmarkPrompt()
		return a, nil
	case "b":
		a.openBookmarks()
		return a, nil
	}

	if a.state.FocusedPanel == models.LeftPanel {
		return a, a.handleEntityKey(key)
	}
	return a, a.handleListKey(key)
}

// handleEntityKey moves through the entity list in the left panel
func (a *App) handleEntityKey(key string) tea.Cmd {
	switch key {
	case "up", "k":
		if a.state.EntityCursor > 0 {
			a.state.EntityCursor--
		}
	case "down", "j":
		if a.state.EntityCursor < len(a.state.Entities)-1 {
			a.state.EntityCursor++
		}
	case "enter", "l", "right":
		if a.state.EntityCursor < len(a.state.Entities) {
			a.state.FocusedPanel = models.RightPanel
			a.updatePanelStyles()
			return a.navigate(a.state.Entities[a.state.EntityCursor])
		}
	}
	return nil
}

// handleMsg routes non-key messages
func (a *App) handleMsg(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case components.PromptSubmitMsg:
		a.prompt = nil
		return a.promptSubmitted(msg)
	case components.PromptCancelMsg:
		a.prompt = nil
	case components.PickedMsg:
		a.picker = nil
		return a.picked(msg)
	case components.PickerDeleteMsg:
		return a.pickerDelete(msg)
	case components.ClosePickerMsg:
		a.picker = nil
	case components.ApplyFiltersMsg:
		a.filterEditor = nil
		return a.change(func(v *view) tea.Cmd {
			return v.list.SetFilters(msg.Filters)
		})
	case components.CloseFilterEditorMsg:
		a.filterEditor = nil
	default:
		return a.handleDataMsg(msg)
	}
	return nil
}

// View implements tea.Model
func (a *App) View() string {
	if a.showError {
		return lipgloss.Place(
			a.state.Width, a.state.Height,
			lipgloss.Center, lipgloss.Center,
			a.errorOverlay.View(),
		)
	}

	if a.state.ViewMode == models.HelpMode {
		return help.Render(a.state.Width, a.state.Height, a.theme)
	}

	var overlay string
	switch {
	case a.prompt != nil:
		a.prompt.Width = min(a.state.Width-4, 80)
		overlay = a.prompt.View()
	case a.picker != nil:
		a.picker.Width = min(a.state.Width-4, 70)
		a.picker.Height = min(a.state.Height-4, 24)
		overlay = a.picker.View()
	case a.filterEditor != nil:
		a.filterEditor.Width = min(a.state.Width-4, 90)
		overlay = a.filterEditor.View()
	}
	if overlay != "" {
		return lipgloss.Place(
			a.state.Width, a.state.Height,
			lipgloss.Center, lipgloss.Center,
			overlay,
		)
	}

	return a.renderNormalView()
}

// renderNormalView renders the panels with the top and bottom bars
func (a *App) renderNormalView() string {
	topBar := lipgloss.NewStyle().
		Width(a.state.Width).
		Background(a.theme.BorderFocused).
		Foreground(lipgloss.Color("230")).
		Padding(0, 2).
		Render(a.formatStatusBar("lazyadmin", a.config.DataSource.Kind))

	bottomLeft := a.flash
	if bottomLeft == "" {
		bottomLeft = "[tab] Switch panel | [?] Help | [q] Quit"
	}
	bottomBar := lipgloss.NewStyle().
		Width(a.state.Width).
		Background(a.theme.Selection).
		Foreground(a.theme.Foreground).
		Padding(0, 2).
		Render(a.formatStatusBar(bottomLeft, a.store.Encode()))

	a.leftPanel.Content = a.renderEntities()
	if a.state.ViewMode == models.DetailMode {
		a.rightPanel.Title = a.current.entity.Label()
		a.rightPanel.Content = a.renderDetail()
	} else {
		a.rightPanel.Content = a.renderList()
	}

	panels := lipgloss.JoinHorizontal(
		lipgloss.Top,
		a.leftPanel.View(),
		a.rightPanel.View(),
	)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		topBar,
		panels,
		bottomBar,
	)
}

func (a *App) renderEntities() string {
	lines := make([]string, len(a.state.Entities))
	for i, name := range a.state.Entities {
		label := name
		if e, ok := a.registry.Get(name); ok {
			label = e.Label()
		}
		style := lipgloss.NewStyle().Padding(0, 1)
		if name == a.state.CurrentEntity {
			style = style.Foreground(a.theme.BorderFocused).Bold(true)
		}
		if i == a.state.EntityCursor && a.state.FocusedPanel == models.LeftPanel {
			style = style.Background(a.theme.Selection)
		}
		lines[i] = style.Render(runewidth.Truncate(label, a.leftPanel.Width-2, "…"))
	}
	return strings.Join(lines, "\n")
}

// updatePanelDimensions calculates panel sizes based on window size
func (a *App) updatePanelDimensions() {
	if a.state.Width <= 0 || a.state.Height <= 0 {
		return
	}

	// Top bar, bottom bar and the panel borders
	contentHeight := a.state.Height - 4
	if contentHeight < 5 {
		contentHeight = 5
	}

	leftWidth := (a.state.Width * a.state.LeftPanelWidth) / 100
	if leftWidth < 16 {
		leftWidth = 16
	}
	rightWidth := a.state.Width - leftWidth - 4
	if rightWidth < 20 {
		rightWidth = 20
		leftWidth = a.state.Width - rightWidth - 4
	}

	a.leftPanel.Width = leftWidth
	a.leftPanel.Height = contentHeight
	a.rightPanel.Width = rightWidth
	a.rightPanel.Height = contentHeight
}

// updatePanelStyles updates panel styling based on focus
func (a *App) updatePanelStyles() {
	a.leftPanel.Focused = a.state.FocusedPanel == models.LeftPanel
	a.rightPanel.Focused = a.state.FocusedPanel == models.RightPanel
}

// formatStatusBar formats a status bar with left and right aligned content
func (a *App) formatStatusBar(left, right string) string {
	// Account for padding (2 chars on each side)
	availableWidth := a.state.Width - 4
	if availableWidth < 0 {
		availableWidth = 0
	}

	leftLen := runewidth.StringWidth(left)
	rightLen := runewidth.StringWidth(right)

	if leftLen+rightLen+1 > availableWidth {
		if availableWidth > leftLen+2 {
			return left + " " + runewidth.Truncate(right, availableWidth-leftLen-1, "…")
		}
		return runewidth.Truncate(left, availableWidth, "…")
	}

	spacing := availableWidth - leftLen - rightLen
	return left + strings.Repeat(" ", spacing) + right
}

// ShowError displays an error overlay with the given title and message
func (a *App) ShowError(title, message string) {
	a.errorOverlay.SetError(title, message)
	a.showError = true
}

// DismissError hides the error overlay
func (a *App) DismissError() {
	a.showError = false
}

func (a *App) setFlash(format string, args ...any) {
	a.flash = fmt.Sprintf(format, args...)
}
