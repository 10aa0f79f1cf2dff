package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/trvl/internal/config"
	"github.com/pders01/trvl/internal/search"
)

type KeyHandler struct {
	app         *App
	bindings    config.KeyBindings
	modifierKey string
}

func NewKeyHandler(app *App, cfg *config.Config) *KeyHandler {
	return &KeyHandler{
		app:         app,
		bindings:    cfg.Keys.Bindings,
		modifierKey: cfg.Keys.Modifier + "+",
	}
}

func (kh *KeyHandler) HandleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if kh.isInTextInputMode() {
		return kh.handleTextInputMode(msg)
	}

	if model, cmd, handled := kh.handleCustomKeys(key); handled {
		return model, cmd
	}

	return kh.delegateToCharm(msg)
}

// isInTextInputMode reports whether keystrokes belong to an input: the search
// box or the post list's own filter prompt.
func (kh *KeyHandler) isInTextInputMode() bool {
	switch kh.app.view {
	case ViewSearch:
		return kh.app.searchInput.Focused()
	case ViewPosts:
		return kh.app.postList.FilterState() == list.Filtering
	default:
		return false
	}
}

func (kh *KeyHandler) handleTextInputMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if kh.app.view == ViewPosts {
		// the list owns filter editing, including esc and enter
		return kh.delegateToCharm(msg)
	}

	switch msg.String() {
	case "esc":
		return kh.navigateBack()
	case "ctrl+c":
		return kh.app, tea.Quit
	case "enter":
		if items := kh.app.searchList.Items(); len(items) > 0 {
			if i, ok := items[0].(searchResultItem); ok {
				return kh.selectSearchResult(i)
			}
		}
		return kh.app, nil
	case "tab", "down":
		if len(kh.app.searchList.Items()) > 0 {
			kh.app.searchInput.Blur()
			kh.app.searchList.Select(0)
		}
		return kh.app, nil
	default:
		return kh.delegateToTextInput(msg)
	}
}

// delegateToTextInput passes the key to the search box and schedules a
// debounced search when the query changed.
func (kh *KeyHandler) delegateToTextInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	prev := kh.app.pendingSearchQuery
	var cmd tea.Cmd
	kh.app.searchInput, cmd = kh.app.searchInput.Update(msg)

	newVal := sanitizeSearchInput(kh.app.searchInput.Value())
	if newVal == prev {
		return kh.app, cmd
	}

	kh.app.pendingSearchQuery = newVal
	kh.app.searchSeq++
	seq := kh.app.searchSeq
	return kh.app, tea.Batch(cmd, tea.Tick(searchDebounce, func(time.Time) tea.Msg {
		return searchDebounceFireMsg{seq: seq}
	}))
}

func (kh *KeyHandler) handleCustomKeys(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case "ctrl+c", kh.bindings.Quit:
		return kh.app, tea.Quit, true
	case kh.bindings.Back:
		model, cmd := kh.navigateBack()
		return model, cmd, true
	case kh.modifierKey + kh.bindings.Search:
		model, cmd := kh.enterSearchMode()
		return model, cmd, true
	}

	if kh.app.view == ViewPosts {
		switch key {
		case "m", kh.modifierKey + kh.bindings.LoadMore:
			model, cmd := kh.loadMore()
			return model, cmd, true
		}
	}

	return kh.app, nil, false
}

// loadMore starts fetching the next page unless one is already loading or
// the list is complete.
func (kh *KeyHandler) loadMore() (tea.Model, tea.Cmd) {
	a := kh.app
	if a.loading {
		return a, nil
	}
	if !a.store.HasMore() {
		a.setStatus(MsgAllLoaded, StatusInfo)
		return a, nil
	}

	a.loading = true
	a.err = nil
	a.setStatus(MsgLoadingMore, StatusInfo)
	return a, tea.Batch(a.spinner.Tick, a.loadMore())
}

func (kh *KeyHandler) delegateToCharm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch kh.app.view {
	case ViewPosts:
		filtering := kh.app.postList.FilterState() == list.Filtering
		kh.app.postList, cmd = kh.app.postList.Update(msg)
		if msg.String() == "enter" && !filtering {
			if i, ok := kh.app.postList.SelectedItem().(postItem); ok {
				kh.app.cameFromSearch = false
				return kh.app, kh.openPost(i.post.Title, i.position)
			}
		}
		return kh.app, cmd

	case ViewSearch:
		switch msg.String() {
		case "tab", "shift+tab", "/", "i":
			kh.app.searchInput.Focus()
			return kh.app, nil
		case "up":
			if len(kh.app.searchList.Items()) > 0 && kh.app.searchList.Index() == 0 {
				kh.app.searchInput.Focus()
				return kh.app, nil
			}
		}

		kh.app.searchList, cmd = kh.app.searchList.Update(msg)
		if msg.String() == "enter" {
			if i, ok := kh.app.searchList.SelectedItem().(searchResultItem); ok {
				return kh.selectSearchResult(i)
			}
		}
		return kh.app, cmd

	case ViewReader:
		kh.app.viewport, cmd = kh.app.viewport.Update(msg)
		return kh.app, cmd

	default:
		return kh.app, nil
	}
}

// openPost switches to the reader for the post at position.
func (kh *KeyHandler) openPost(title string, position int) tea.Cmd {
	a := kh.app
	if position < 0 || position >= len(a.posts) {
		return nil
	}
	p := a.posts[position]
	a.currentPost = &p
	a.renderingPost = true
	a.view = ViewReader
	a.viewport.SetContent("")
	a.setStatus(truncateEnd(title, 40), StatusInfo)
	return tea.Batch(a.spinner.Tick, a.renderPost(p))
}

func (kh *KeyHandler) selectSearchResult(item searchResultItem) (tea.Model, tea.Cmd) {
	if item.result == nil {
		return kh.app, nil
	}
	kh.app.previousView = ViewSearch
	kh.app.cameFromSearch = true
	return kh.app, kh.openPost(item.result.Post.Title, item.result.Position)
}

func (kh *KeyHandler) navigateBack() (tea.Model, tea.Cmd) {
	switch kh.app.view {
	case ViewSearch:
		kh.app.view = ViewPosts
		kh.resetSearch()
		kh.app.clearStatus()
		return kh.app, nil

	case ViewReader:
		kh.app.currentPost = nil
		kh.app.clearStatus()
		if kh.app.cameFromSearch {
			kh.app.view = ViewSearch
			kh.app.cameFromSearch = false
			kh.app.searchInput.Blur()
			return kh.app, nil
		}
		kh.app.view = ViewPosts
		return kh.app, nil

	default:
		if kh.app.postList.FilterState() != list.Unfiltered {
			kh.app.postList.ResetFilter()
			return kh.app, nil
		}
		return kh.app, tea.Quit
	}
}

func (kh *KeyHandler) enterSearchMode() (tea.Model, tea.Cmd) {
	if kh.app.searcher == nil {
		kh.app.setStatus("Busca indisponível", StatusWarn)
		return kh.app, nil
	}
	kh.app.previousView = kh.app.view
	kh.app.view = ViewSearch
	kh.resetSearch()
	kh.app.searchInput.Focus()

	if ds, ok := kh.app.searcher.(search.DebugStatser); ok {
		if n, err := ds.DocCount(); err == nil {
			kh.app.setStatus(fmt.Sprintf("Busca • idx: %d docs", n), StatusInfo)
			return kh.app, nil
		}
	}
	kh.app.clearStatus()
	return kh.app, nil
}

func (kh *KeyHandler) resetSearch() {
	kh.app.searchInput.Reset()
	kh.app.pendingSearchQuery = ""
	kh.app.searchSeq++
	kh.app.searchList.SetItems([]list.Item{})
}

// sanitizeSearchInput trims, collapses whitespace and limits query length
func sanitizeSearchInput(input string) string {
	input = strings.Join(strings.Fields(input), " ")
	if r := []rune(input); len(r) > 256 {
		input = string(r[:256])
	}
	return input
}

// GetHelpForCurrentView returns only our custom help text (Charm handles the rest)
func (kh *KeyHandler) GetHelpForCurrentView() []string {
	switch kh.app.view {
	case ViewPosts:
		help := []string{"enter: ler"}
		if kh.app.store.HasMore() {
			help = append(help, "m: carregar mais")
		}
		return append(help, kh.modifierKey+kh.bindings.Search+": buscar", kh.bindings.Quit+": sair")

	case ViewReader:
		return []string{"esc: voltar", kh.modifierKey + kh.bindings.Search + ": buscar"}

	case ViewSearch:
		return []string{"enter: abrir", "esc: voltar"}

	default:
		return []string{}
	}
}
