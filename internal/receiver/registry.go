// internal/receiver/registry.go
package receiver

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind selects the receiver implementation for an application root.
type Kind string

const (
	KindDocument Kind = "document"
	KindBrowser  Kind = "browser"
)

// Entry maps an application root to its receiver. An empty Receiver means the
// application is recognized but has no API receiver.
type Entry struct {
	Root     string `yaml:"root"`
	Receiver Kind   `yaml:"receiver"`
	// Family is the automation object family used to attach to a running instance.
	Family string `yaml:"family"`
	// Suffix is stripped from a window title before fuzzy matching.
	Suffix string `yaml:"suffix"`
}

// Registry is an immutable root -> Entry table. Lookups ignore case since
// executable names are reported inconsistently.
type Registry struct {
	entries map[string]Entry
}

// DefaultEntries is the built-in table.
var DefaultEntries = []Entry{
	{Root: "WINWORD.EXE", Receiver: KindDocument, Family: "Word.Application", Suffix: ".docx"},
	{Root: "EXCEL.EXE", Family: "Excel.Application", Suffix: ".xlsx"},
	{Root: "POWERPNT.EXE", Family: "PowerPoint.Application", Suffix: ".pptx"},
	{Root: "olk.exe", Family: "Outlook.Application", Suffix: ".msg"},
	{Root: "chrome.exe", Receiver: KindBrowser, Family: BrowserFamily},
	{Root: "msedge.exe", Receiver: KindBrowser, Family: BrowserFamily},
}

// NewRegistry builds a registry, rejecting empty or duplicate roots.
func NewRegistry(entries ...Entry) (*Registry, error) {
	r := &Registry{entries: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		if strings.TrimSpace(e.Root) == "" {
			return nil, fmt.Errorf("registry entry has an empty root")
		}
		if e.Family == "" {
			return nil, fmt.Errorf("registry entry %q has no object family", e.Root)
		}
		key := strings.ToLower(e.Root)
		if _, dup := r.entries[key]; dup {
			return nil, fmt.Errorf("duplicate registry entry for root %q", e.Root)
		}
		r.entries[key] = e
	}
	return r, nil
}

// DefaultRegistry returns the built-in registry.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultEntries...)
	if err != nil {
		panic(fmt.Sprintf("built-in receiver registry is invalid: %v", err))
	}
	return r
}

type registryFile struct {
	Receivers []Entry `yaml:"receivers"`
}

// LoadRegistry reads a YAML file of the form
//
//	receivers:
//	  - root: WINWORD.EXE
//	    receiver: document
//	    family: Word.Application
//	    suffix: .docx
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read receiver registry: %w", err)
	}
	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse receiver registry %s: %w", path, err)
	}
	return NewRegistry(file.Receivers...)
}

// Lookup returns the entry for root.
func (r *Registry) Lookup(root string) (Entry, bool) {
	e, ok := r.entries[strings.ToLower(root)]
	return e, ok
}

// Suffix returns the title suffix for root, or "" for unknown roots.
func (r *Registry) Suffix(root string) string {
	return r.entries[strings.ToLower(root)].Suffix
}

// Entries lists all entries sorted by root.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Root < out[j].Root })
	return out
}
