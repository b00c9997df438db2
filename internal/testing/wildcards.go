package testing

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// WildcardFS builds an in-memory wildcard tree from path -> content.
func WildcardFS(files map[string]string) fstest.MapFS {
	fsys := make(fstest.MapFS, len(files))
	for name, content := range files {
		fsys[name] = &fstest.MapFile{Data: []byte(content), Mode: 0644}
	}
	return fsys
}

// WriteWildcards writes files below a fresh temp dir and returns its path.
func WriteWildcards(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatalf("Failed to create %s: %v", filepath.Dir(p), err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", p, err)
		}
	}
	return dir
}

// Logger returns a sugared logger that writes through t.Log.
func Logger(t *testing.T) *zap.SugaredLogger {
	t.Helper()
	return zaptest.NewLogger(t).Sugar()
}

// Basic is a small vocabulary exercising lists, nested folders, structured
// entries, prefixes/suffixes and negative fragments.
var Basic = map[string]string{
	"colors.txt": "red\ngreen\nblue\n",
	"animals.txt": `# comment line
cat   # inline comment
dog
bird
`,
	"clothing/hats.txt":   "beret\nfedora\n",
	"clothing/shoes.txt":  "boots\nsandals\n",
	"nested.txt":          "a __colors__ hat\n",
	"self.txt":            "__self__\n",
	"ping.txt":            "__pong__\n",
	"pong.txt":            "__ping__\n",
	"empty.txt":           "# nothing here\n\n",
	"outfits.txt":         "Red Dress\nplain shirt\n",
	"seeded.txt":          "#1$$alpha\n",
	"styles/looks.yaml": `Red Dress:
  Description: A red evening dress
  Prompts:
    - red evening dress
  Prefix: elegant
  Suffix: "**casual clothes**"
  Tags: [Clothing, Formal, Red]
Blue Jeans:
  Prompts: [blue jeans, denim jeans]
  Prefix: [casual]
  Tags:
    - clothing
    - casual
    - blue
Untagged Thing:
  Prompts: just a thing
`,
	"styles/moods.yaml": `Happy:
  Prompts: smiling, joyful
  Tags: mood
Broken: not-a-mapping
`,
}
