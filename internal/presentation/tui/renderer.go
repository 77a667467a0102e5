package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/formwork/pkg/schema"
	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// Renderer turns markdown into terminal output.
type Renderer func(string) (string, error)

// NewRenderer returns a glamour renderer that picks a light or dark style
// from the terminal background.
func NewRenderer() (Renderer, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return nil, fmt.Errorf("create renderer: %w", err)
	}
	return r.Render, nil
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// FieldMarkdown describes a single schema field as markdown.
func FieldMarkdown(f schema.Field) string {
	var b strings.Builder
	fmt.Fprintf(&b, "### %s\n\n", f.Name)
	if f.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", f.Description)
	}
	if f.ResourceType != "" && f.ResourceType != schema.TypeString {
		fmt.Fprintf(&b, "*%s*\n\n", f.ResourceType)
	}
	for i, opt := range f.ValidOptions {
		fmt.Fprintf(&b, "%d. `%s`\n", i+1, opt)
	}
	if len(f.ValidOptions) > 0 {
		b.WriteString("\n")
	}
	if f.DefaultValue != nil {
		fmt.Fprintf(&b, "Default: `%s`\n", *f.DefaultValue)
	}
	return b.String()
}

// SchemaMarkdown renders every field of s as a markdown table in
// presentation order.
func SchemaMarkdown(s schema.Schema) string {
	var b strings.Builder
	b.WriteString("| Key | Name | Type | Required | Default |\n")
	b.WriteString("|-----|------|------|----------|---------|\n")
	for _, f := range s.Ordered() {
		def := ""
		if f.DefaultValue != nil {
			def = *f.DefaultValue
		}
		req := "no"
		if f.Required {
			req = "yes"
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n", f.Key, escape(f.Name), f.ResourceType, req, escape(def))
	}
	return b.String()
}

func escape(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
