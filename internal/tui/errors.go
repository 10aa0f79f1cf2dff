package tui

import (
	"errors"
	"fmt"

	"github.com/pders01/trvl/internal/cms"
)

// wrapErr formats an error with a contextual prefix.
func wrapErr(context string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", context, err)
}

// describeLoadError turns a failed page load into a short status line.
func describeLoadError(err error) string {
	var fe *cms.FetchError
	var me *cms.MalformedResponseError
	switch {
	case errors.As(err, &fe) && fe.StatusCode != 0:
		return fmt.Sprintf("Falha ao carregar posts (HTTP %d)", fe.StatusCode)
	case errors.As(err, &fe):
		return "Falha ao carregar posts: sem conexão com o CMS"
	case errors.As(err, &me):
		return "Falha ao carregar posts: resposta inválida do CMS"
	default:
		return wrapErr("Falha ao carregar posts", err).Error()
	}
}
