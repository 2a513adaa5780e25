package asyncapi

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// YAMLToJSON converts a YAML spec body to indented JSON for the viewer's
// json tab. The document is not validated as AsyncAPI - this is a surface
// conversion only.
func YAMLToJSON(body string) (string, error) {
	var doc any
	if err := yaml.Unmarshal([]byte(body), &doc); err != nil {
		return "", fmt.Errorf("parsing yaml: %w", err)
	}
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding json: %w", err)
	}
	return string(out), nil
}

// specInfo is the surface metadata the preview tab shows.
type specInfo struct {
	Info struct {
		Title       string `yaml:"title"`
		Version     string `yaml:"version"`
		Description string `yaml:"description"`
	} `yaml:"info"`
	AsyncAPI string         `yaml:"asyncapi"`
	Channels map[string]any `yaml:"channels"`
}

// PreviewMarkdown builds a markdown summary of a spec body for the preview
// tab. It surfaces info and channel names only; full rendering belongs to an
// external viewer.
func PreviewMarkdown(body string) (string, error) {
	var info specInfo
	if err := yaml.Unmarshal([]byte(body), &info); err != nil {
		return "", fmt.Errorf("parsing yaml: %w", err)
	}

	var b strings.Builder
	title := info.Info.Title
	if title == "" {
		title = "Untitled"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	if info.AsyncAPI != "" {
		fmt.Fprintf(&b, "AsyncAPI `%s`", info.AsyncAPI)
		if info.Info.Version != "" {
			fmt.Fprintf(&b, " · version `%s`", info.Info.Version)
		}
		b.WriteString("\n\n")
	}
	if info.Info.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", info.Info.Description)
	}

	if len(info.Channels) > 0 {
		fmt.Fprintf(&b, "## Channels (%d)\n\n", len(info.Channels))
		names := make([]string, 0, len(info.Channels))
		for name := range info.Channels {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(&b, "- `%s`\n", name)
		}
	} else {
		b.WriteString("_No channels declared._\n")
	}

	return b.String(), nil
}
