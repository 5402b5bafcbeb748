// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"io"
	"os"

	"golang.org/x/term"

	"github.com/pyflat/pyflat/internal/config"
)

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// glamourStyle picks the glamour style for help pages written to w.
func glamourStyle(scheme config.ColorScheme, tty bool) string {
	if !tty {
		return "notty"
	}
	if scheme == config.ColorSchemeLight {
		return "light"
	}
	return "dark"
}
