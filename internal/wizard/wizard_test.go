package wizard

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tessro/entrance/internal/core"
	"github.com/tessro/entrance/internal/store"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestDeviceModelSelects(t *testing.T) {
	devices := []store.Device{
		{MACAddress: "aa:aa:aa:aa:aa:aa", Hostname: "laptop"},
		{MACAddress: "d0:50:99:07:6b:d1", Hostname: "austins-phone"},
	}

	var m tea.Model = NewDeviceModel(devices)
	m, _ = m.Update(key("down"))
	m, _ = m.Update(key("down"))
	m, cmd := m.Update(key("enter"))

	if cmd == nil {
		t.Error("enter should quit the picker")
	}
	got := m.(DeviceModel).Selected()
	if got == nil || got.Hostname != "austins-phone" {
		t.Errorf("Selected() = %+v", got)
	}
	if !strings.Contains(m.View(), "austins-phone") {
		t.Errorf("View() missing device:\n%s", m.View())
	}
}

func TestDeviceModelCancel(t *testing.T) {
	var m tea.Model = NewDeviceModel(nil)
	m, _ = m.Update(key("enter"))
	m, _ = m.Update(key("esc"))
	if m.(DeviceModel).Selected() != nil {
		t.Error("Selected() should be nil after cancel")
	}
	if !strings.Contains(m.View(), "No unclaimed devices") {
		t.Errorf("View() = %q", m.View())
	}
}

func TestSearchModelResults(t *testing.T) {
	var queried string
	search := func(q string) ([]core.Track, error) {
		queried = q
		return []core.Track{
			{URI: "spotify:track:1", Title: "Thunderstruck", Artist: "AC/DC", Album: "The Razors Edge"},
			{URI: "spotify:track:2", Title: "Thunderstruck (Live)", Artist: "AC/DC", Album: "Live"},
		}, nil
	}

	var m tea.Model = NewSearchModel(search)
	m, _ = m.Update(debounceMsg{query: ""})
	sm := m.(SearchModel)
	msg := sm.doSearch("acdc thunder")()
	if queried != "acdc thunder" {
		t.Errorf("query = %q", queried)
	}

	m, _ = m.Update(msg)
	m, _ = m.Update(key("down"))
	m, _ = m.Update(key("enter"))

	got := m.(SearchModel).Selected()
	if got == nil || got.URI != "spotify:track:2" {
		t.Errorf("Selected() = %+v", got)
	}
}

func TestSearchModelShowsErrors(t *testing.T) {
	var m tea.Model = NewSearchModel(nil)
	m, _ = m.Update(searchResultsMsg{err: errors.New("not authenticated")})
	if !strings.Contains(m.View(), "not authenticated") {
		t.Errorf("View() = %q", m.View())
	}
}
