package lhapdf

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DataPathEnv is the primary search path variable.
	DataPathEnv = "LHAPDF_DATA_PATH"
	// LegacyDataPathEnv is consulted when DataPathEnv is unset.
	LegacyDataPathEnv = "LHAPATH"

	// IndexFileName is the index file looked up on the search path.
	IndexFileName = "pdfsets.index"

	// FileLibraryVersion is the library release whose behavior FileLibrary reproduces.
	FileLibraryVersion = "6.5.4"

	headerSeparator = "---"
)

// SearchPathFromEnv returns the directories named by LHAPDF_DATA_PATH, or by
// LHAPATH when the former is unset. Empty segments are dropped.
func SearchPathFromEnv() []string {
	value, ok := os.LookupEnv(DataPathEnv)
	if !ok {
		value, ok = os.LookupEnv(LegacyDataPathEnv)
	}
	if !ok {
		return nil
	}
	return SplitSearchPath(value)
}

// SplitSearchPath splits a colon separated directory list and drops empty entries.
func SplitSearchPath(value string) []string {
	var out []string
	for _, p := range strings.Split(value, ":") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

type indexEntry struct {
	id   int
	name string
}

// FileLibrary implements Library on top of the on-disk set layout: sets,
// member headers and the ID index are resolved from the search path the same
// way the native library resolves them. It does not interpolate.
//
// Like the native library it keeps global state (verbosity, memoized index)
// without internal locking.
type FileLibrary struct {
	paths     []string
	verbosity int

	index       []indexEntry
	indexLoaded bool
}

var _ Library = (*FileLibrary)(nil)

// FileLibraryOption configures a FileLibrary.
type FileLibraryOption func(*FileLibrary)

// WithPaths fixes the search path instead of reading it from the environment
// on every call.
func WithPaths(paths ...string) FileLibraryOption {
	return func(l *FileLibrary) { l.paths = append([]string(nil), paths...) }
}

// NewFileLibrary creates a file-backed library.
func NewFileLibrary(opts ...FileLibraryOption) *FileLibrary {
	l := &FileLibrary{verbosity: 1}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Paths returns the current search path.
func (l *FileLibrary) Paths() []string {
	if l.paths != nil {
		return l.paths
	}
	return SearchPathFromEnv()
}

func (l *FileLibrary) findFile(rel string) (string, bool) {
	for _, dir := range l.Paths() {
		candidate := filepath.Join(dir, rel)
		if st, err := os.Stat(candidate); err == nil && st.Mode().IsRegular() {
			return candidate, true
		}
	}
	return "", false
}

// LookupPDF implements Library.
func (l *FileLibrary) LookupPDF(id int) (string, int, bool) {
	if !l.indexLoaded {
		if !l.loadIndex() {
			return "", 0, false
		}
	}

	// Entries are sorted by first ID; the owning set is the last one not after id.
	i := sort.Search(len(l.index), func(i int) bool { return l.index[i].id > id })
	if i == 0 {
		return "", 0, false
	}
	e := l.index[i-1]
	return e.name, id - e.id, true
}

func (l *FileLibrary) loadIndex() bool {
	path, ok := l.findFile(IndexFileName)
	if !ok {
		return false
	}
	entries, err := parseIndex(path)
	if err != nil {
		return false
	}
	l.index = entries
	l.indexLoaded = true
	return true
}

func parseIndex(path string) ([]indexEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var entries []indexEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		id, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		entries = append(entries, indexEntry{id: id, name: fields[1]})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].id < entries[j].id })
	return entries, nil
}

// ResetIndex implements Library.
func (l *FileLibrary) ResetIndex() {
	l.index = nil
	l.indexLoaded = false
}

// NewPDFSet implements Library.
func (l *FileLibrary) NewPDFSet(set string) (*PDFSet, error) {
	if set == "" || set == "." || set == ".." || strings.ContainsAny(set, `/\`) {
		return nil, NewInfoNotFoundError(set)
	}
	path, ok := l.findFile(filepath.Join(set, set+".info"))
	if !ok {
		return nil, NewInfoNotFoundError(set)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Kind: KindRead, Set: set, Path: path, Err: err}
	}
	var info Info
	if err := yaml.Unmarshal(data, &info); err != nil {
		return nil, &Error{Kind: KindRead, Set: set, Path: path, Err: err}
	}
	meta := Metadata{}
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return nil, &Error{Kind: KindRead, Set: set, Path: path, Err: err}
	}
	return NewPDFSetValue(set, info, meta), nil
}

// MkPDF implements Library.
func (l *FileLibrary) MkPDF(set string, member int) (*PDF, error) {
	pdfSet, err := l.NewPDFSet(set)
	if err != nil {
		return nil, err
	}
	if member < 0 || (pdfSet.Size() > 0 && member >= pdfSet.Size()) {
		return nil, &Error{Kind: KindMemberRange, Set: set, Member: member}
	}

	rel := filepath.Join(set, fmt.Sprintf("%s_%04d.dat", set, member))
	path, ok := l.findFile(rel)
	if !ok {
		return nil, &Error{Kind: KindDataNotFound, Set: set, Member: member}
	}
	header, err := readMemberHeader(path)
	if err != nil {
		return nil, &Error{Kind: KindRead, Set: set, Member: member, Path: path, Err: err}
	}
	return NewPDFValue(pdfSet, member, header), nil
}

// readMemberHeader parses the YAML block that precedes the first "---" line
// of a member data file.
func readMemberHeader(path string) (Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var buf bytes.Buffer
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == headerSeparator {
			break
		}
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	header := Metadata{}
	if err := yaml.Unmarshal(buf.Bytes(), &header); err != nil {
		return nil, err
	}
	return header, nil
}

// SetVerbosity implements Library.
func (l *FileLibrary) SetVerbosity(level int) { l.verbosity = level }

// Verbosity implements Library.
func (l *FileLibrary) Verbosity() int { return l.verbosity }

// Version implements Library.
func (l *FileLibrary) Version() string { return FileLibraryVersion }
