package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/tessro/entrance/internal/entrance"
)

var (
	bannerStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("205")).
			Padding(0, 2)

	bannerTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("205"))

	bannerDimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

// bannerAnnouncer draws a box on the terminal for each entrance.
type bannerAnnouncer struct {
	out io.Writer
}

// terminalBanner returns a banner announcer when stdout is a terminal.
func terminalBanner() (entrance.Announcer, bool) {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return nil, false
	}
	return bannerAnnouncer{out: os.Stdout}, true
}

func (b bannerAnnouncer) Announce(_ context.Context, a entrance.Announcement) error {
	_, err := fmt.Fprintln(b.out, renderBanner(a))
	return err
}

func renderBanner(a entrance.Announcement) string {
	body := bannerTitleStyle.Render("*** ENTRANCE ***") + "\n" +
		a.Owner + "\n" +
		a.Title + " " + bannerDimStyle.Render("by "+a.Artist)
	if a.Device != "" {
		body += "\n" + bannerDimStyle.Render("via "+a.Device+" at "+a.At.Format("15:04:05"))
	}
	return bannerStyle.Render(body)
}
