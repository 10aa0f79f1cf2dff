package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/trvl/internal/post"
)

// loadMore appends the next page. The store rejects overlapping calls, so a
// second press while a fetch is in flight reports zero posts added.
func (a *App) loadMore() tea.Cmd {
	return func() tea.Msg {
		added, err := a.store.AppendNextPage(context.Background())
		if err != nil {
			return loadFailedMsg{err: err}
		}
		return postsLoadedMsg{
			posts:   a.store.Results(),
			added:   added,
			hasMore: a.store.HasMore(),
		}
	}
}

func (a *App) renderPost(p post.Post) tea.Cmd {
	return func() tea.Msg {
		r, err := a.getRenderer()
		if err != nil {
			return postRenderedMsg{content: MsgRenderFailed + ": " + err.Error()}
		}

		rendered, err := r.Render(postMarkdown(p))
		if err != nil {
			return postRenderedMsg{content: fmt.Sprintf("# Erro\n\n%s: %s\n\nPressione Esc para voltar.", MsgRenderFailed, err.Error())}
		}
		return postRenderedMsg{content: rendered}
	}
}

func postMarkdown(p post.Post) string {
	var b strings.Builder
	title := p.Title
	if title == "" {
		title = "(sem título)"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	if p.Subtitle != "" {
		fmt.Fprintf(&b, "_%s_\n\n", p.Subtitle)
	}
	fmt.Fprintf(&b, "**Publicado em** %s", p.PublishedAt)
	if p.Author != "" {
		fmt.Fprintf(&b, " **por** %s", p.Author)
	}
	b.WriteString("\n\n---\n\n")
	if p.ID != "" {
		fmt.Fprintf(&b, "`/post/%s`\n", p.ID)
	}
	return b.String()
}

func (a *App) performSearch(query string) tea.Cmd {
	return func() tea.Msg {
		if a.searcher == nil {
			return searchResultsMsg{query: query}
		}
		results, err := a.searcher.Search(query, 20)
		if err != nil {
			return errorMsg{err: wrapErr("busca", err)}
		}
		items := make([]searchResultItem, 0, len(results))
		for _, r := range results {
			items = append(items, searchResultItem{result: r})
		}
		return searchResultsMsg{query: query, results: items}
	}
}
