package search

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pders01/trvl/internal/post"
)

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"como", "utilizar", "hooks"}, tokenize("Como utilizar Hooks"))
	assert.Equal(t, []string{"sincronização", "app"}, tokenize("Sincronização, a APP!"))
	assert.Empty(t, tokenize("a b c"))
}

func TestSnippet(t *testing.T) {
	p := post.Post{Title: "Hooks", Subtitle: "Pensando em sincronização", Author: "Joseph Oliveira"}

	assert.Equal(t, "Joseph Oliveira", Snippet(p, []string{"joseph"}, 80))
	assert.Equal(t, "Pensando em sincronização", Snippet(p, []string{"pensando"}, 80))
	assert.Equal(t, "Pensando em sincronização", Snippet(p, []string{"hooks"}, 80))
	assert.Equal(t, "Pens…", Snippet(p, []string{"hooks"}, 5))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "ação…", truncate("açãoção", 5))
	assert.Equal(t, "anything", truncate("anything", 0))
}
