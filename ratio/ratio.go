// Package ratio provides the latent image size presets and picks one by
// name or at random from a category.
package ratio

import (
	"strings"

	"github.com/teranos/umi/errors"
	"github.com/teranos/umi/internal/util"
	"github.com/teranos/umi/selection"
	"github.com/teranos/umi/settings"
)

// Category groups presets by orientation.
type Category string

const (
	All       Category = "all"
	Portrait  Category = "portrait"
	Landscape Category = "landscape"
	Square    Category = "square"
)

// DefaultPreset is used when no ratio is named.
const DefaultPreset = "1:1 Square - 1024x1024"

// Preset is one named image size.
type Preset struct {
	Name     string   `json:"name"`
	Ratio    string   `json:"ratio"`
	Width    int      `json:"width"`
	Height   int      `json:"height"`
	Category Category `json:"category"`
}

var presets = []Preset{
	{"2:3 Portrait - 832x1248", "2:3", 832, 1248, Portrait},
	{"3:4 Standard Portrait - 880x1176", "3:4", 880, 1176, Portrait},
	{"4:5 Large Format Portrait - 912x1144", "4:5", 912, 1144, Portrait},
	{"9:16 Selfie & Social Media - 768x1360", "9:16", 768, 1360, Portrait},

	{"1:1 Square - 1024x1024", "1:1", 1024, 1024, Square},

	{"4:3 SD TV - 1176x880", "4:3", 1176, 880, Landscape},
	{"1.43:1 IMAX - 1224x856", "1.43:1", 1224, 856, Landscape},
	{"1.66:1 European Widescreen - 1312x792", "1.66:1", 1312, 792, Landscape},
	{"16:9 Widescreen HD TV - 1360x768", "16:9", 1360, 768, Landscape},
	{"1.85:1 Standard Widescreen - 1392x752", "1.85:1", 1392, 752, Landscape},
	{"2.35:1 Cinemascope - 1568x664", "2.35:1", 1568, 664, Landscape},
	{"2.39:1 Anamorphic Widescreen - 1576x656", "2.39:1", 1576, 656, Landscape},
	{"1.618:1 Golden Ratio - 1296x800", "1.618:1", 1296, 800, Landscape},
	{"3:2 Landscape - 1216x832", "3:2", 1216, 832, Landscape},
	{"21:9 Ultrawide - 1536x640", "21:9", 1536, 640, Landscape},
}

// Presets returns every preset in display order.
func Presets() []Preset {
	return append([]Preset(nil), presets...)
}

// InCategory returns the presets of c; All returns every preset.
func InCategory(c Category) []Preset {
	if c == All {
		return Presets()
	}
	var out []Preset
	for _, p := range presets {
		if p.Category == c {
			out = append(out, p)
		}
	}
	return out
}

// ParseCategory accepts a category name, case-insensitively, with an
// optional " only" suffix ("Portrait Only"). Empty means All.
func ParseCategory(s string) (Category, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimSpace(strings.TrimSuffix(s, " only"))
	switch Category(s) {
	case "", All:
		return All, nil
	case Portrait, Landscape, Square:
		return Category(s), nil
	}
	return "", errors.WithHint(
		errors.NewInvalidRequestError("unknown ratio category %q", s),
		"categories are: all, portrait, landscape, square")
}

// ByName finds a preset by its full name or its ratio ("16:9").
func ByName(name string) (Preset, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultPreset
	}
	for _, p := range presets {
		if strings.EqualFold(p.Name, name) || p.Ratio == name {
			return p, nil
		}
	}
	return Preset{}, errors.WithHint(
		errors.NewNotFoundError("ratio preset %q", name),
		"run `umi ratio` to list presets")
}

// Random picks a preset of category c. The same seed picks the same preset.
func Random(c Category, seed int64) Preset {
	cands := InCategory(c)
	if len(cands) == 0 {
		p, _ := ByName(DefaultPreset)
		return p
	}
	return cands[selection.New(seed).Intn(len(cands))]
}

// Overrides returns the preset as width and height overrides.
func (p Preset) Overrides() settings.Overrides {
	return settings.Overrides{Width: util.Ptr(p.Width), Height: util.Ptr(p.Height)}
}

// LatentSize is the preset's size in latent space (1/8 of the pixels).
func (p Preset) LatentSize() (width, height int) {
	return p.Width / 8, p.Height / 8
}
