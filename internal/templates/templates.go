package templates

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"slices"
	"strings"
	"text/template"
)

// DefaultKey is used when no template is requested.
const DefaultKey = "bash"

var ErrUnknownTemplate = errors.New("unknown template")

//go:embed files/*.tmpl
var files embed.FS

// Template is a starter file for a new migration.
type Template struct {
	Key         string `json:"key"`
	Extension   string `json:"extension"`
	Interpreter string `json:"interpreter"`
	file        string
}

// Data is passed to a template when it's rendered.
type Data struct {
	ID          string
	Description string
}

var all = []Template{
	{Key: "bash", Extension: "sh", Interpreter: "bash", file: "files/bash.sh.tmpl"},
	{Key: "node", Extension: "mjs", Interpreter: "node", file: "files/node.mjs.tmpl"},
	{Key: "python", Extension: "py", Interpreter: "python3", file: "files/python.py.tmpl"},
	{Key: "ruby", Extension: "rb", Interpreter: "ruby", file: "files/ruby.rb.tmpl"},
	{Key: "ts", Extension: "ts", Interpreter: "tsx", file: "files/ts.ts.tmpl"},
}

// List returns every template ordered by key.
func List() []Template {
	return slices.Clone(all)
}

// Keys returns the key of every template.
func Keys() []string {
	keys := make([]string, len(all))
	for i, t := range all {
		keys[i] = t.Key
	}
	return keys
}

func Get(key string) (Template, error) {
	if key == "" {
		key = DefaultKey
	}
	for _, t := range all {
		if t.Key == key {
			return t, nil
		}
	}
	return Template{}, fmt.Errorf("%w %q: must be one of %s", ErrUnknownTemplate, key, strings.Join(Keys(), ", "))
}

// Render executes the template. Whitespace in the description is collapsed
// so that it stays on one comment line.
func (t Template) Render(data Data) ([]byte, error) {
	src, err := files.ReadFile(t.file)
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", t.Key, err)
	}
	tmpl, err := template.New(t.Key).Option("missingkey=error").Parse(string(src))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", t.Key, err)
	}

	data.Description = strings.Join(strings.Fields(data.Description), " ")

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render template %s: %w", t.Key, err)
	}

	return buf.Bytes(), nil
}
