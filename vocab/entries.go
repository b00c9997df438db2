package vocab

import (
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/teranos/umi/errors"
)

// Entry is one titled record of a structured (.yaml) source.
type Entry struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Prompts     []string `json:"prompts"`
	Prefixes    []string `json:"prefixes,omitempty"`
	Suffixes    []string `json:"suffixes,omitempty"`
	Tags        []string `json:"tags"`
	Source      string   `json:"source"` // key of the structured source
	File        string   `json:"file"`
}

// Tagged reports whether the entry takes part in tag queries.
func (e Entry) Tagged() bool {
	return len(e.Tags) > 0
}

// HasTag reports whether the entry carries tag (already lower-cased).
func (e Entry) HasTag(tag string) bool {
	i := sort.SearchStrings(e.Tags, tag)
	return i < len(e.Tags) && e.Tags[i] == tag
}

// parseEntries decodes a structured source: a mapping of title to
// {Description, Prompts, Prefix, Suffix, Tags}, each field a scalar or a
// list. Malformed entries are returned as problems and skipped; a
// document that is not a mapping fails as a whole.
func parseEntries(data []byte, source string) ([]Entry, []error, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, errors.Wrapf(errors.ErrMalformedStructure, "%s: %v", source, err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, nil, nil
	}

	root := doc.Content[0]
	if root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
		return nil, nil, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, nil, errors.Wrapf(errors.ErrMalformedStructure, "top level of %s is not a mapping", source)
	}

	var entries []Entry
	var problems []error
	for i := 0; i+1 < len(root.Content); i += 2 {
		titleNode, body := root.Content[i], root.Content[i+1]
		title := strings.TrimSpace(titleNode.Value)
		if title == "" {
			problems = append(problems, errors.Wrapf(errors.ErrMalformedStructure, "%s:%d: empty title", source, titleNode.Line))
			continue
		}

		entry, err := decodeEntry(title, body)
		if err != nil {
			problems = append(problems, errors.Wrapf(err, "%s:%d: entry %q", source, titleNode.Line, title))
			continue
		}
		entry.Source = source
		entries = append(entries, entry)
	}
	return entries, problems, nil
}

func decodeEntry(title string, body *yaml.Node) (Entry, error) {
	if body.Kind != yaml.MappingNode {
		return Entry{}, errors.Wrap(errors.ErrMalformedStructure, "entry is not a mapping")
	}

	entry := Entry{Title: title}
	for i := 0; i+1 < len(body.Content); i += 2 {
		field := strings.ToLower(strings.TrimSpace(body.Content[i].Value))
		values, err := stringList(body.Content[i+1])
		if err != nil {
			return Entry{}, errors.Wrapf(err, "field %s", field)
		}

		switch field {
		case "description":
			if len(values) > 0 {
				entry.Description = values[0]
			}
		case "prompts", "prompt":
			entry.Prompts = values
		case "prefix", "prefixes":
			entry.Prefixes = values
		case "suffix", "suffixes":
			entry.Suffixes = values
		case "tags", "tag":
			entry.Tags = normalizeTags(values)
		}
	}
	return entry, nil
}

// stringList accepts a scalar, a sequence of scalars, or null.
func stringList(n *yaml.Node) ([]string, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return nil, nil
		}
		if v := strings.TrimSpace(n.Value); v != "" {
			return []string{v}, nil
		}
		return nil, nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(n.Content))
		for _, item := range n.Content {
			if item.Kind != yaml.ScalarNode {
				return nil, errors.Wrap(errors.ErrMalformedStructure, "list item is not a scalar")
			}
			if item.Tag == "!!null" {
				continue
			}
			if v := strings.TrimSpace(item.Value); v != "" {
				out = append(out, v)
			}
		}
		return out, nil
	case yaml.AliasNode:
		return stringList(n.Alias)
	default:
		return nil, errors.Wrap(errors.ErrMalformedStructure, "expected a string or list of strings")
	}
}

// normalizeTags lower-cases, trims, de-duplicates and sorts tags.
func normalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
