package tui

import (
	"fmt"
)

// Canonical short status messages used across the app.
const (
	MsgLoadMore     = "Carregar mais posts"
	MsgLoadingMore  = "Carregando…"
	MsgAllLoaded    = "Todos os posts foram carregados"
	MsgPreview      = "Modo preview"
	MsgNoResults    = "Nenhum resultado"
	MsgNoPosts      = "Nenhum post publicado"
	MsgRenderFailed = "Falha ao exibir o post"
)

func MsgLoadedCount(n int) string {
	if n == 1 {
		return "1 post"
	}
	return fmt.Sprintf("%d posts", n)
}

func MsgAppended(n int) string {
	if n == 1 {
		return "1 novo post"
	}
	return fmt.Sprintf("%d novos posts", n)
}

func MsgResultsCount(n int) string {
	if n == 1 {
		return "1 resultado"
	}
	return fmt.Sprintf("%d resultados", n)
}
