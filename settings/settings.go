// Package settings parses @@key=value@@ directives into typed generation
// overrides.
package settings

import (
	"sort"
	"strconv"
	"strings"

	"github.com/teranos/umi/errors"
	"github.com/teranos/umi/internal/util"
)

// Setting names accepted in directives.
const (
	CfgScale          = "cfg_scale"
	Sampler           = "sampler"
	Steps             = "steps"
	Width             = "width"
	Height            = "height"
	DenoisingStrength = "denoising_strength"
)

var names = []string{CfgScale, Sampler, Steps, Width, Height, DenoisingStrength}

// Overrides holds the settings a prompt asked for. Nil fields were not set.
type Overrides struct {
	CfgScale          *float64 `json:"cfg_scale,omitempty"`
	Sampler           *string  `json:"sampler,omitempty"`
	Steps             *int     `json:"steps,omitempty"`
	Width             *int     `json:"width,omitempty"`
	Height            *int     `json:"height,omitempty"`
	DenoisingStrength *float64 `json:"denoising_strength,omitempty"`
}

// Names returns the accepted setting names.
func Names() []string {
	return append([]string(nil), names...)
}

// Empty reports whether no setting was given.
func (o Overrides) Empty() bool {
	return o.CfgScale == nil && o.Sampler == nil && o.Steps == nil &&
		o.Width == nil && o.Height == nil && o.DenoisingStrength == nil
}

// Merge copies every field set in other over o.
func (o *Overrides) Merge(other Overrides) {
	if other.CfgScale != nil {
		o.CfgScale = other.CfgScale
	}
	if other.Sampler != nil {
		o.Sampler = other.Sampler
	}
	if other.Steps != nil {
		o.Steps = other.Steps
	}
	if other.Width != nil {
		o.Width = other.Width
	}
	if other.Height != nil {
		o.Height = other.Height
	}
	if other.DenoisingStrength != nil {
		o.DenoisingStrength = other.DenoisingStrength
	}
}

// Map returns the set fields keyed by setting name.
func (o Overrides) Map() map[string]any {
	m := make(map[string]any)
	if o.CfgScale != nil {
		m[CfgScale] = *o.CfgScale
	}
	if o.Sampler != nil {
		m[Sampler] = *o.Sampler
	}
	if o.Steps != nil {
		m[Steps] = *o.Steps
	}
	if o.Width != nil {
		m[Width] = *o.Width
	}
	if o.Height != nil {
		m[Height] = *o.Height
	}
	if o.DenoisingStrength != nil {
		m[DenoisingStrength] = *o.DenoisingStrength
	}
	return m
}

// String renders set fields as "k=v, k=v" in name order.
func (o Overrides) String() string {
	m := o.Map()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + format(m[k])
	}
	return strings.Join(parts, ", ")
}

func format(v any) string {
	switch x := v.(type) {
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case string:
		return x
	}
	return ""
}

// Canonical maps a possibly abbreviated name to a setting name. An exact
// name always wins; otherwise the prefix must match exactly one setting.
func Canonical(raw string) (string, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return "", errors.NewInvalidRequestError("empty setting name")
	}
	var matches []string
	for _, n := range names {
		if n == raw {
			return n, nil
		}
		if strings.HasPrefix(n, raw) {
			matches = append(matches, n)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return "", errors.WithHint(
			errors.NewInvalidRequestError("unknown setting %q", raw),
			"settings are: "+strings.Join(names, ", "))
	default:
		return "", errors.NewInvalidRequestError("setting %q is ambiguous: %s", raw, strings.Join(matches, ", "))
	}
}

// Set parses value for the named (possibly abbreviated) setting.
func (o *Overrides) Set(name, value string) error {
	key, err := Canonical(name)
	if err != nil {
		return err
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return errors.NewInvalidRequestError("setting %s needs a value", key)
	}

	switch key {
	case Sampler:
		o.Sampler = util.Ptr(value)
	case CfgScale, DenoisingStrength:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return errors.Wrapf(errors.ErrInvalidRequest, "%s=%s: not a number", key, value)
		}
		if key == CfgScale {
			o.CfgScale = &f
		} else {
			o.DenoisingStrength = &f
		}
	case Steps, Width, Height:
		n, err := strconv.Atoi(value)
		if err != nil {
			return errors.Wrapf(errors.ErrInvalidRequest, "%s=%s: not an integer", key, value)
		}
		switch key {
		case Steps:
			o.Steps = &n
		case Width:
			o.Width = &n
		default:
			o.Height = &n
		}
	}
	return nil
}

// Parse reads the body of one @@...@@ directive. Assignments are separated
// by commas, or by '|' when the body has no comma. Bad assignments are
// returned as problems and do not stop the rest from applying.
func Parse(body string) (Overrides, []error) {
	var o Overrides
	var problems []error

	sep := ","
	if !strings.Contains(body, ",") {
		sep = "|"
	}
	for _, assignment := range strings.Split(body, sep) {
		assignment = strings.TrimSpace(assignment)
		if assignment == "" {
			continue
		}
		name, value, ok := strings.Cut(assignment, "=")
		if !ok {
			problems = append(problems, errors.NewInvalidRequestError("setting %q should assign a value", assignment))
			continue
		}
		if err := o.Set(name, value); err != nil {
			problems = append(problems, err)
		}
	}
	return o, problems
}
