// Package wizard holds the interactive pickers used to enroll people.
package wizard

import (
	"os"

	"golang.org/x/term"
)

// IsTerminal returns true if stdin and stdout are both terminals.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}
