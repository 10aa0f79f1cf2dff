package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/trvl/internal/config"
	"github.com/pders01/trvl/internal/pagination"
	"github.com/pders01/trvl/internal/post"
	"github.com/pders01/trvl/internal/search"
)

const searchDebounce = 150 * time.Millisecond

type App struct {
	config     *config.Config
	store      *pagination.Store
	searcher   search.Searcher
	keyHandler *KeyHandler

	postList    list.Model
	searchList  list.Model
	searchInput textinput.Model
	viewport    viewport.Model
	spinner     spinner.Model

	view           View
	previousView   View
	cameFromSearch bool

	posts       []post.Post
	currentPost *post.Post

	width  int
	height int

	err        error
	status     string
	statusKind StatusKind

	loading       bool
	renderingPost bool

	glamourRenderer *glamour.TermRenderer
	rendererWidth   int

	searchSeq          int
	pendingSearchQuery string
}

// NewApp builds the TUI around a seeded store. searcher may be nil, which
// disables the search view.
func NewApp(cfg *config.Config, store *pagination.Store, searcher search.Searcher) *App {
	ApplyColors(cfg.UI.Colors)

	postList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	postList.Title = "› posts"
	postList.SetShowStatusBar(false)
	postList.SetFilteringEnabled(true)
	postList.SetShowHelp(true)

	searchList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	searchList.Title = "› resultados"
	searchList.SetShowStatusBar(false)
	searchList.SetShowHelp(false)
	searchList.SetFilteringEnabled(false)

	si := textinput.New()
	si.Placeholder = "Buscar por título, subtítulo ou autor..."
	si.CharLimit = 256

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	app := &App{
		config:       cfg,
		store:        store,
		searcher:     searcher,
		postList:     postList,
		searchList:   searchList,
		searchInput:  si,
		viewport:     viewport.New(0, 0),
		spinner:      sp,
		view:         ViewPosts,
		previousView: ViewPosts,
	}
	app.keyHandler = NewKeyHandler(app, cfg)
	app.setPosts(store.Results())

	return app
}

func (a *App) getRenderer() (*glamour.TermRenderer, error) {
	wordWrapWidth := (a.width * 9) / 10
	if wordWrapWidth > 100 {
		wordWrapWidth = 100
	}
	if wordWrapWidth < 40 {
		wordWrapWidth = 40
	}
	if a.width > 0 && a.width < 50 {
		wordWrapWidth = a.width - 4
		if wordWrapWidth < 20 {
			wordWrapWidth = 20
		}
	}

	if a.glamourRenderer == nil || abs(a.rendererWidth-wordWrapWidth) > 10 {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wordWrapWidth),
		)
		if err != nil {
			return nil, err
		}
		a.glamourRenderer = r
		a.rendererWidth = wordWrapWidth
	}

	return a.glamourRenderer, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func (a *App) Init() tea.Cmd {
	return tea.EnterAltScreen
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// title bar, load-more line, separator and status line
		a.postList.SetSize(msg.Width, msg.Height-4)
		searchListHeight := msg.Height - 10
		if searchListHeight < 5 {
			searchListHeight = 5
		}
		a.searchList.SetSize(msg.Width, searchListHeight)
		a.viewport.Width = msg.Width
		a.viewport.Height = msg.Height - 3

	case tea.KeyMsg:
		return a.keyHandler.HandleKey(msg)

	case postsLoadedMsg:
		a.loading = false
		a.err = nil
		a.setPosts(msg.posts)
		switch {
		case msg.added > 0 && !msg.hasMore:
			a.setStatus(MsgAppended(msg.added)+" • "+MsgAllLoaded, StatusSuccess)
		case msg.added > 0:
			a.setStatus(MsgAppended(msg.added), StatusSuccess)
		case !msg.hasMore:
			a.setStatus(MsgAllLoaded, StatusInfo)
		default:
			a.clearStatus()
		}
		return a, nil

	case loadFailedMsg:
		a.loading = false
		a.err = msg.err
		a.setStatus(describeLoadError(msg.err), StatusError)
		return a, nil

	case postRenderedMsg:
		if a.view == ViewReader {
			a.viewport.SetContent(msg.content)
			a.viewport.GotoTop()
		}
		a.renderingPost = false
		a.clearStatus()
		return a, nil

	case searchDebounceFireMsg:
		if msg.seq == a.searchSeq && a.view == ViewSearch {
			return a, a.performSearch(a.pendingSearchQuery)
		}
		return a, nil

	case searchResultsMsg:
		if a.view == ViewSearch && msg.query == a.pendingSearchQuery {
			items := make([]list.Item, len(msg.results))
			for i, r := range msg.results {
				items[i] = r
			}
			a.searchList.SetItems(items)
			if len(items) == 0 {
				a.setStatus(MsgNoResults, StatusInfo)
			} else {
				a.setStatus(MsgResultsCount(len(items)), StatusInfo)
			}
		}
		return a, nil

	case spinner.TickMsg:
		if a.loading || a.renderingPost {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil

	case errorMsg:
		a.err = msg.err
		a.setStatus(msg.err.Error(), StatusError)
		return a, nil
	}

	switch a.view {
	case ViewPosts:
		var cmd tea.Cmd
		a.postList, cmd = a.postList.Update(msg)
		cmds = append(cmds, cmd)
	case ViewReader:
		var cmd tea.Cmd
		a.viewport, cmd = a.viewport.Update(msg)
		cmds = append(cmds, cmd)
	case ViewSearch:
		var cmd tea.Cmd
		a.searchList, cmd = a.searchList.Update(msg)
		cmds = append(cmds, cmd)
	}

	return a, tea.Batch(cmds...)
}

// setPosts replaces the list items with the store's current results, keeping
// the cursor on the same row.
func (a *App) setPosts(posts []post.Post) {
	a.posts = posts
	selected := a.postList.Index()
	items := make([]list.Item, len(posts))
	for i, p := range posts {
		items[i] = postItem{post: p, position: i}
	}
	a.postList.SetItems(items)
	if selected < len(items) {
		a.postList.Select(selected)
	}
}

func (a *App) setStatus(text string, kind StatusKind) {
	a.status = text
	a.statusKind = kind
}

func (a *App) clearStatus() {
	a.status = ""
	a.statusKind = StatusInfo
}

func (a *App) View() string {
	var content string
	contentHeight := a.height - 3

	switch a.view {
	case ViewPosts:
		if len(a.posts) == 0 {
			content = renderCentered(a.width, contentHeight, GetEmptyMessage())
		} else {
			content = lipgloss.JoinVertical(lipgloss.Left, a.postList.View(), a.loadMoreLine())
		}

	case ViewReader:
		if a.renderingPost {
			content = renderCentered(a.width, contentHeight, renderMuted(a.spinner.View()+" Carregando post…"))
		} else {
			content = a.viewport.View()
		}

	case ViewSearch:
		searchInputWidth := a.width - 8
		if searchInputWidth < 10 {
			searchInputWidth = a.width - 4
		}
		a.searchInput.Width = searchInputWidth

		helpText := ""
		switch {
		case a.searchInput.Focused():
			helpText = "Digite para buscar • Tab/↓: resultados • Esc: voltar"
		case len(a.searchList.Items()) > 0:
			helpText = "↑↓: navegar • Enter: abrir • Tab/↑: campo de busca • Esc: voltar"
		default:
			helpText = MsgNoResults + " • Tab/↑: campo de busca • Esc: voltar"
		}

		searchContent := lipgloss.JoinVertical(
			lipgloss.Top,
			renderHeader("› buscar", "nos "+MsgLoadedCount(len(a.posts))+" carregados", a.width),
			"",
			renderInputFrame(a.searchInput.View(), a.searchInput.Focused(), searchInputWidth),
			renderHelp(helpText),
			"",
			a.searchList.View(),
		)

		content = lipgloss.NewStyle().
			Width(a.width).
			Height(contentHeight).
			MaxHeight(contentHeight).
			Render(searchContent)
	}

	separatorWidth := a.width - 2
	if separatorWidth < 0 {
		separatorWidth = 0
	}
	separator := SeparatorStyle.Render("─" + strings.Repeat("─", separatorWidth))

	return lipgloss.JoinVertical(lipgloss.Top, content, separator, a.getCustomStatusBar())
}

func (a *App) loadMoreLine() string {
	switch {
	case a.loading:
		return StatusBarStyle.Render(a.spinner.View() + " " + MsgLoadingMore)
	case a.store.HasMore():
		return StatusBarStyle.Render(lipgloss.NewStyle().Foreground(AccentColor).Bold(true).Render("› " + MsgLoadMore))
	default:
		return ""
	}
}

func (a *App) getCustomStatusBar() string {
	var parts []string

	if a.config.Preview() {
		parts = append(parts, PreviewBadgeStyle.Render(MsgPreview+" "+truncateMiddle(a.config.CMS.PreviewRef, 16)))
	}

	switch {
	case a.err != nil && a.status == "":
		parts = append(parts, StatusErrorStyle.Render(fmt.Sprintf("✗ %v", a.err)))
	case a.status != "":
		text := a.status
		if a.statusKind == StatusError {
			text = "✗ " + text
		}
		parts = append(parts, a.statusKind.style().Render(text))
	default:
		if commands := a.keyHandler.GetHelpForCurrentView(); len(commands) > 0 {
			parts = append(parts, strings.Join(commands, " • "))
		}
	}

	parts = append(parts, MsgLoadedCount(len(a.posts)))

	return StatusBarStyle.
		Width(a.width).
		Render(strings.Join(parts, " • "))
}

type postItem struct {
	post     post.Post
	position int
}

func (i postItem) Title() string { return i.post.Title }

func (i postItem) Description() string {
	meta := i.post.PublishedAt
	if i.post.Author != "" {
		meta += " • " + i.post.Author
	}
	if i.post.Subtitle == "" {
		return meta
	}
	return truncateEnd(i.post.Subtitle, 60) + " • " + meta
}

func (i postItem) FilterValue() string { return i.post.Title + " " + i.post.Author }

type searchResultItem struct {
	result *search.Result
}

func (i searchResultItem) Title() string { return i.result.Post.Title }

func (i searchResultItem) Description() string {
	desc := i.result.Snippet
	if desc == "" {
		desc = i.result.Post.Author
	}
	return desc + " • " + i.result.Post.PublishedAt
}

func (i searchResultItem) FilterValue() string { return i.result.Post.Title }

type postsLoadedMsg struct {
	posts   []post.Post
	added   int
	hasMore bool
}

type loadFailedMsg struct {
	err error
}

type postRenderedMsg struct {
	content string
}

type searchDebounceFireMsg struct {
	seq int
}

type searchResultsMsg struct {
	query   string
	results []searchResultItem
}

type errorMsg struct {
	err error
}
