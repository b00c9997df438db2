// Package vocab loads the wildcard vocabulary: flat lists (.txt) whose lines
// are candidates, and structured sources (.yaml) of titled, tagged entries.
//
// A Store holds an immutable snapshot of the source tree. Refresh builds a
// new snapshot and swaps it in, so readers never observe a partial load.
package vocab

import (
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/umi/errors"
	"github.com/teranos/umi/logger"
)

// Options controls how sources are loaded and looked up.
type Options struct {
	// CacheFiles keeps parsed lists in the snapshot. When false every List
	// call re-reads the file so edits show up without a refresh.
	CacheFiles bool
	// IgnoreFolders lets a folder-qualified reference fall back to any
	// source with the same basename.
	IgnoreFolders bool
}

// Kind says what a reference resolved to.
type Kind int

const (
	KindNone Kind = iota
	KindList
	KindStructured
)

func (k Kind) String() string {
	switch k {
	case KindList:
		return "list"
	case KindStructured:
		return "structured"
	default:
		return "none"
	}
}

// Source is the result of looking a reference up.
type Source struct {
	Kind Kind
	Key  string   // normalised key of the matched source
	File string   // path inside the store's file system
	Refs []string // list lines, or entry titles in file order
}

// Stats summarises a snapshot.
type Stats struct {
	Lists      int       `json:"lists"`
	Structured int       `json:"structured"`
	Entries    int       `json:"entries"`
	Tagged     int       `json:"tagged"`
	Tags       int       `json:"tags"`
	LoadedAt   time.Time `json:"loaded_at"`
}

type listSource struct {
	file  string
	lines []string // nil unless CacheFiles
}

type structuredSource struct {
	file   string
	titles []string // file order
}

type snapshot struct {
	lists      map[string]listSource
	listKeys   keySet
	structured map[string]structuredSource
	structKeys keySet
	entries    map[string]Entry  // title -> entry
	byLower    map[string]string // lower(title) -> title
	tagged     []string          // sorted titles with at least one tag
	tagIndex   map[string][]string
	files      []string
	loadedAt   time.Time
}

// Store is the vocabulary shared by every resolution session.
type Store struct {
	fsys fs.FS
	opts Options
	log  *zap.SugaredLogger

	mu   sync.RWMutex
	snap *snapshot

	missMu sync.Mutex
	misses map[string]bool
}

// Open scans fsys and returns a store over it.
func Open(fsys fs.FS, opts Options, log *zap.SugaredLogger) (*Store, error) {
	s := &Store{
		fsys:   fsys,
		opts:   opts,
		log:    logger.OrComponent(log, "vocab"),
		misses: make(map[string]bool),
	}
	if err := s.Refresh(); err != nil {
		return nil, err
	}
	return s, nil
}

// Options returns the options the store was opened with.
func (s *Store) Options() Options {
	return s.opts
}

// Refresh re-scans the source tree and replaces the snapshot wholesale.
// On failure the previous snapshot stays in place.
func (s *Store) Refresh() error {
	start := time.Now()
	snap, err := s.scan()
	if err != nil {
		return errors.Wrap(err, "failed to scan wildcards")
	}

	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()

	s.missMu.Lock()
	s.misses = make(map[string]bool)
	s.missMu.Unlock()

	st := snap.stats()
	s.log.Infow("Vocabulary loaded",
		logger.FieldLists, st.Lists,
		logger.FieldEntries, st.Entries,
		logger.FieldTags, st.Tags,
		logger.FieldDurationMS, time.Since(start).Milliseconds())
	return nil
}

func (s *Store) current() *snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

func (s *Store) scan() (*snapshot, error) {
	snap := &snapshot{
		lists:      make(map[string]listSource),
		structured: make(map[string]structuredSource),
		entries:    make(map[string]Entry),
		byLower:    make(map[string]string),
		tagIndex:   make(map[string][]string),
		loadedAt:   time.Now(),
	}

	var listFiles, yamlFiles []string
	err := fs.WalkDir(s.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == "." {
				return err
			}
			s.log.Warnw("Skipping unreadable path", logger.FieldFile, p, logger.FieldError, err)
			return nil
		}
		if d.IsDir() {
			if p != "." && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		switch strings.ToLower(path.Ext(p)) {
		case ".txt":
			listFiles = append(listFiles, p)
		case ".yaml", ".yml":
			yamlFiles = append(yamlFiles, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(listFiles)
	sort.Strings(yamlFiles)

	for _, file := range listFiles {
		key := Key(file)
		if _, dup := snap.lists[key]; dup {
			s.log.Warnw("Duplicate list key, keeping first", logger.FieldKey, key, logger.FieldFile, file)
			continue
		}
		src := listSource{file: file}
		if s.opts.CacheFiles {
			src.lines = s.readList(file)
		}
		snap.lists[key] = src
		snap.files = append(snap.files, file)
	}

	for _, file := range yamlFiles {
		s.loadStructured(snap, file)
	}

	snap.listKeys = newKeySet(mapKeys(snap.lists))
	snap.structKeys = newKeySet(mapKeys(snap.structured))
	sort.Strings(snap.files)
	sort.Strings(snap.tagged)
	for tag := range snap.tagIndex {
		sort.Strings(snap.tagIndex[tag])
	}
	return snap, nil
}

func (s *Store) loadStructured(snap *snapshot, file string) {
	key := Key(file)
	if _, dup := snap.structured[key]; dup {
		s.log.Warnw("Duplicate structured key, keeping first", logger.FieldKey, key, logger.FieldFile, file)
		return
	}

	data, err := fs.ReadFile(s.fsys, file)
	if err != nil {
		s.log.Warnw("Failed to read structured source", logger.FieldFile, file, logger.FieldError, err)
		return
	}
	entries, problems, err := parseEntries(data, key)
	if err != nil {
		s.log.Warnw("Skipping malformed structured source", logger.FieldFile, file, logger.FieldError, err)
		return
	}
	for _, p := range problems {
		s.log.Warnw("Skipping malformed entry", logger.FieldFile, file, logger.FieldError, p)
	}

	src := structuredSource{file: file}
	for _, e := range entries {
		if _, dup := snap.entries[e.Title]; dup {
			s.log.Warnw("Duplicate entry title, keeping first", logger.FieldTitle, e.Title, logger.FieldFile, file)
			continue
		}
		e.File = file
		snap.entries[e.Title] = e
		if _, ok := snap.byLower[strings.ToLower(e.Title)]; !ok {
			snap.byLower[strings.ToLower(e.Title)] = e.Title
		}
		src.titles = append(src.titles, e.Title)
		if e.Tagged() {
			snap.tagged = append(snap.tagged, e.Title)
			for _, tag := range e.Tags {
				snap.tagIndex[tag] = append(snap.tagIndex[tag], e.Title)
			}
		}
	}
	snap.structured[key] = src
	snap.files = append(snap.files, file)
}

func (s *Store) readList(file string) []string {
	f, err := s.fsys.Open(file)
	if err != nil {
		s.log.Warnw("Failed to open list", logger.FieldFile, file, logger.FieldError, err)
		return nil
	}
	defer f.Close()

	lines, err := parseLines(f)
	if err != nil {
		s.log.Warnw("Failed to read list", logger.FieldFile, file, logger.FieldError, err)
	}
	return lines
}

// Lookup resolves a reference to a flat list or, failing that, a
// structured source. Unresolved references are recorded in Misses.
func (s *Store) Lookup(ref string) Source {
	snap := s.current()

	if key, ok := snap.listKeys.resolve(ref, s.opts.IgnoreFolders); ok {
		src := snap.lists[key]
		lines := src.lines
		if !s.opts.CacheFiles {
			lines = s.readList(src.file)
		}
		return Source{Kind: KindList, Key: key, File: src.file, Refs: lines}
	}

	if key, ok := snap.structKeys.resolve(ref, s.opts.IgnoreFolders); ok {
		src := snap.structured[key]
		return Source{Kind: KindStructured, Key: key, File: src.file, Refs: src.titles}
	}

	s.recordMiss(ref)
	return Source{Kind: KindNone, Key: Key(ref)}
}

// List returns the candidates of the flat list ref names, or nil.
func (s *Store) List(ref string) []string {
	src := s.Lookup(ref)
	if src.Kind != KindList {
		return nil
	}
	return src.Refs
}

// Entry returns the entry with the given title, matching case-insensitively
// when no exact title exists.
func (s *Store) Entry(title string) (Entry, bool) {
	snap := s.current()
	title = strings.TrimSpace(title)
	if e, ok := snap.entries[title]; ok {
		return e, true
	}
	if exact, ok := snap.byLower[strings.ToLower(title)]; ok {
		return snap.entries[exact], true
	}
	return Entry{}, false
}

// EntriesIn returns the titles of one structured source in file order.
func (s *Store) EntriesIn(ref string) []string {
	snap := s.current()
	key, ok := snap.structKeys.resolve(ref, s.opts.IgnoreFolders)
	if !ok {
		s.recordMiss(ref)
		return nil
	}
	return append([]string(nil), snap.structured[key].titles...)
}

// Files returns every loaded source file, sorted.
func (s *Store) Files() []string {
	return append([]string(nil), s.current().files...)
}

// Keys returns the normalised keys of all lists and structured sources.
func (s *Store) Keys() (lists, structured []string) {
	snap := s.current()
	return append([]string(nil), snap.listKeys...), append([]string(nil), snap.structKeys...)
}

// Tags returns every indexed tag, sorted.
func (s *Store) Tags() []string {
	return mapKeys(s.current().tagIndex)
}

// Misses returns references that resolved to nothing since the last refresh.
func (s *Store) Misses() []string {
	s.missMu.Lock()
	defer s.missMu.Unlock()
	return mapKeys(s.misses)
}

func (s *Store) recordMiss(ref string) {
	k := Key(ref)
	if k == "" {
		return
	}
	s.missMu.Lock()
	defer s.missMu.Unlock()
	if !s.misses[k] {
		s.misses[k] = true
		s.log.Warnw("Wildcard source not found",
			logger.FieldKey, ref,
			logger.FieldError, errors.MissingSource(k))
	}
}

// Stats summarises the current snapshot.
func (s *Store) Stats() Stats {
	return s.current().stats()
}

func (snap *snapshot) stats() Stats {
	return Stats{
		Lists:      len(snap.lists),
		Structured: len(snap.structured),
		Entries:    len(snap.entries),
		Tagged:     len(snap.tagged),
		Tags:       len(snap.tagIndex),
		LoadedAt:   snap.loadedAt,
	}
}

func mapKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
