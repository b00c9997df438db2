package vocab

import (
	"path"
	"sort"
	"strings"
)

// Key normalises a source reference: lower case, forward slashes, no
// surrounding whitespace or known extension.
func Key(ref string) string {
	k := strings.ToLower(strings.TrimSpace(ref))
	k = strings.ReplaceAll(k, "\\", "/")
	k = strings.Trim(k, "/")
	for _, ext := range []string{".txt", ".yaml", ".yml"} {
		if strings.HasSuffix(k, ext) {
			return strings.TrimSuffix(k, ext)
		}
	}
	return k
}

// keySet is a sorted set of normalised source keys.
type keySet []string

func newKeySet(keys []string) keySet {
	ks := append(keySet(nil), keys...)
	sort.Strings(ks)
	return ks
}

// resolve finds the source a reference names, in order of preference:
// exact relative path, a nested path ending in the reference, and (for
// folder-qualified references with ignoreFolders) the bare basename.
// The first key in sorted order wins when several match.
func (ks keySet) resolve(ref string, ignoreFolders bool) (string, bool) {
	k := Key(ref)
	if k == "" {
		return "", false
	}

	i := sort.SearchStrings(ks, k)
	if i < len(ks) && ks[i] == k {
		return k, true
	}

	suffix := "/" + k
	for _, candidate := range ks {
		if strings.HasSuffix(candidate, suffix) {
			return candidate, true
		}
	}

	if ignoreFolders && strings.Contains(k, "/") {
		base := path.Base(k)
		for _, candidate := range ks {
			if path.Base(candidate) == base {
				return candidate, true
			}
		}
	}
	return "", false
}
