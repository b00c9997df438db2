package display

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pterm/pterm"

	"github.com/teranos/umi/history"
	"github.com/teranos/umi/prompt"
	"github.com/teranos/umi/ratio"
	"github.com/teranos/umi/vocab"
)

func table(data pterm.TableData) string {
	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		// only fails on a writer error, which Srender does not use
		return ""
	}
	return out
}

func label(s string) string {
	return pterm.Gray(s)
}

// Batch renders every image of a generated batch.
func Batch(b *prompt.Batch, verbose bool) string {
	var sb strings.Builder
	for i, img := range b.Images {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%s %s\n", label(fmt.Sprintf("#%d seed %d", img.Index, img.Seed)), pterm.LightGreen(img.Prompt))
		if img.Negative != "" {
			fmt.Fprintf(&sb, "  %s %s\n", label("negative:"), pterm.LightRed(img.Negative))
		}
		if !img.Overrides.Empty() {
			fmt.Fprintf(&sb, "  %s %s\n", label("settings:"), pterm.Yellow(img.Overrides.String()))
		}
	}
	if verbose {
		if b.WildcardPrompt != "" {
			fmt.Fprintf(&sb, "\n%s %s\n", label("Wildcard prompt:"), b.WildcardPrompt)
		}
		if len(b.Files) > 0 {
			fmt.Fprintf(&sb, "%s %s\n", label("File includes:"), strings.Join(b.Files, "|"))
		}
	}
	return sb.String()
}

// Sources renders the vocabulary's loaded files with a summary line.
func Sources(files []string, stats vocab.Stats) string {
	data := pterm.TableData{{"FILE", "KIND"}}
	for _, f := range files {
		kind := vocab.KindList
		if !strings.HasSuffix(f, ".txt") {
			kind = vocab.KindStructured
		}
		data = append(data, []string{f, kind.String()})
	}
	summary := fmt.Sprintf("%d lists, %d structured sources, %d entries (%d tagged), %d tags",
		stats.Lists, stats.Structured, stats.Entries, stats.Tagged, stats.Tags)
	return table(data) + "\n" + label(summary) + "\n"
}

// Titles renders entry titles matching a tag query.
func Titles(query string, titles []string) string {
	if len(titles) == 0 {
		return pterm.Yellow("no entries match "+query) + "\n"
	}
	data := pterm.TableData{{"#", "TITLE"}}
	for i, t := range titles {
		data = append(data, []string{strconv.Itoa(i + 1), t})
	}
	return table(data)
}

// Tags renders every indexed tag in columns.
func Tags(tags []string) string {
	if len(tags) == 0 {
		return pterm.Yellow("no tags indexed") + "\n"
	}
	return strings.Join(tags, ", ") + "\n"
}

// Entry renders one structured entry.
func Entry(e vocab.Entry) string {
	var sb strings.Builder
	sb.WriteString(pterm.Bold.Sprint(e.Title) + "\n")
	if e.Description != "" {
		sb.WriteString(e.Description + "\n")
	}
	row := func(name string, values []string) {
		if len(values) > 0 {
			fmt.Fprintf(&sb, "  %-9s %s\n", label(name), strings.Join(values, " | "))
		}
	}
	row("prompts", e.Prompts)
	row("prefixes", e.Prefixes)
	row("suffixes", e.Suffixes)
	row("tags", e.Tags)
	row("file", []string{e.File})
	return sb.String()
}

// Presets renders the ratio presets.
func Presets(presets []ratio.Preset) string {
	data := pterm.TableData{{"RATIO", "SIZE", "CATEGORY", "NAME"}}
	for _, p := range presets {
		data = append(data, []string{p.Ratio, fmt.Sprintf("%dx%d", p.Width, p.Height), string(p.Category), p.Name})
	}
	return table(data)
}

// History renders stored generations, newest first.
func History(records []history.Record) string {
	if len(records) == 0 {
		return pterm.Yellow("no generations recorded") + "\n"
	}
	data := pterm.TableData{{"ID", "WHEN", "SEED", "PROMPT"}}
	for _, r := range records {
		data = append(data, []string{
			shortID(r.ID),
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			strconv.FormatInt(r.Seed, 10),
			truncate(r.Prompt, 60),
		})
	}
	return table(data)
}

// Record renders one stored generation in full.
func Record(r *history.Record) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s\n", label("id:"), r.ID)
	fmt.Fprintf(&sb, "%s %s\n", label("batch:"), r.BatchID)
	fmt.Fprintf(&sb, "%s %s\n", label("created:"), r.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&sb, "%s %d (image %d)\n", label("seed:"), r.Seed, r.Index)
	fmt.Fprintf(&sb, "%s %s\n", label("template:"), r.Template)
	fmt.Fprintf(&sb, "%s %s\n", label("prompt:"), pterm.LightGreen(r.Prompt))
	if r.Negative != "" {
		fmt.Fprintf(&sb, "%s %s\n", label("negative:"), pterm.LightRed(r.Negative))
	}
	if !r.Overrides.Empty() {
		fmt.Fprintf(&sb, "%s %s\n", label("settings:"), r.Overrides.String())
	}
	if len(r.Entries) > 0 {
		fmt.Fprintf(&sb, "%s %s\n", label("entries:"), strings.Join(r.Entries, ", "))
	}
	if len(r.Files) > 0 {
		fmt.Fprintf(&sb, "%s %s\n", label("files:"), strings.Join(r.Files, "|"))
	}
	return sb.String()
}

func shortID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
