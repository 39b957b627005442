// Package watch follows entrances announced over MQTT from any host.
package watch

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/tessro/entrance/internal/entrance"
)

// Formatter formats announcements for output.
type Formatter struct {
	showEmoji     bool
	showTimestamp bool
	template      *template.Template
}

// FormatterOption configures a Formatter.
type FormatterOption func(*Formatter)

// WithEmoji enables emoji output.
func WithEmoji(enabled bool) FormatterOption {
	return func(f *Formatter) {
		f.showEmoji = enabled
	}
}

// WithTimestamp enables timestamp output.
func WithTimestamp(enabled bool) FormatterOption {
	return func(f *Formatter) {
		f.showTimestamp = enabled
	}
}

// WithTemplate sets a custom text/template over the announcement fields,
// e.g. "{{.Owner}} -> {{.Title}}".
func WithTemplate(tmpl string) FormatterOption {
	return func(f *Formatter) {
		if tmpl == "" {
			return
		}
		if t, err := template.New("format").Parse(tmpl); err == nil {
			f.template = t
		}
	}
}

// NewFormatter creates a new formatter with the given options.
func NewFormatter(opts ...FormatterOption) *Formatter {
	f := &Formatter{showEmoji: true}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format formats an announcement as one line.
func (f *Formatter) Format(a entrance.Announcement) string {
	if f.template != nil {
		var buf bytes.Buffer
		if err := f.template.Execute(&buf, templateData{Announcement: a, Time: a.At.Local().Format("15:04:05")}); err == nil {
			return buf.String()
		}
	}

	var parts []string
	if f.showTimestamp {
		parts = append(parts, a.At.Local().Format("15:04:05"))
	}
	if f.showEmoji {
		parts = append(parts, "🎺")
	}
	parts = append(parts, fmt.Sprintf("%s arrived: %s - %s", a.Owner, a.Artist, a.Title))
	if a.Device != "" {
		parts = append(parts, "("+a.Device+")")
	}
	return strings.Join(parts, " ")
}

type templateData struct {
	entrance.Announcement
	Time string
}
