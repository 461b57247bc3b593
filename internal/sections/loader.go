package sections

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/terra-clan/math-practice/internal/models"
	"github.com/terra-clan/math-practice/internal/validation"
)

var (
	ErrFileNotFound         = errors.New("section file not found")
	ErrInvalidFileName      = errors.New("invalid section file name")
	ErrUnsupportedExtension = errors.New("unsupported section file extension")
	ErrInvalidContent       = errors.New("invalid section file content")
)

var numericPrefix = regexp.MustCompile(`^(\d+)`)

// sectionFile is the object form of a section file: { "ejercicios": [...] }
type sectionFile struct {
	Exercises []models.RawExerciseEntry `json:"ejercicios" yaml:"ejercicios"`
}

// Loader reads section definition files from the upload folder
type Loader struct {
	dir        string
	extensions []string

	// serializes file writes and deletes against each other
	mu sync.Mutex
}

// NewLoader creates a new section loader for dir.
// Only files whose extension is in extensions are recognized.
func NewLoader(dir string, extensions []string) *Loader {
	exts := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		exts = append(exts, strings.ToLower(ext))
	}

	return &Loader{
		dir:        dir,
		extensions: exts,
	}
}

// Dir returns the upload folder
func (l *Loader) Dir() string {
	return l.dir
}

// Extensions returns the recognized file extensions
func (l *Loader) Extensions() []string {
	return append([]string(nil), l.extensions...)
}

// Load reads every recognized file and returns their entries in file order.
// A missing folder yields no entries. A malformed file is logged and skipped.
func (l *Loader) Load() ([]models.RawExerciseEntry, error) {
	files, err := l.ListFiles()
	if err != nil {
		return nil, err
	}

	var entries []models.RawExerciseEntry
	loaded := 0
	for _, name := range files {
		fileEntries, err := l.LoadFile(name)
		if err != nil {
			slog.Warn("failed to load section file", "file", name, "error", err)
			continue
		}
		entries = append(entries, fileEntries...)
		loaded++
		slog.Debug("section file loaded", "file", name, "exercises", len(fileEntries))
	}

	slog.Info("section files loaded",
		"dir", l.dir,
		"count", loaded,
		"total_files", len(files),
		"exercises", len(entries),
	)

	return entries, nil
}

// LoadFile parses one file from the upload folder and tags its entries with the file name
func (l *Loader) LoadFile(name string) ([]models.RawExerciseEntry, error) {
	data, err := os.ReadFile(filepath.Join(l.dir, name))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	entries, err := Parse(name, data)
	if err != nil {
		return nil, err
	}

	for i := range entries {
		entries[i].SourceFileTag = name
	}

	return entries, nil
}

// Parse decodes section file content. The format is chosen by the extension of name.
// Content is either a list of records or an object with an "ejercicios" list.
func Parse(name string, data []byte) ([]models.RawExerciseEntry, error) {
	var (
		entries []models.RawExerciseEntry
		err     error
	)

	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		entries, err = parseJSON(data)
	case ".yaml", ".yml":
		entries, err = parseYAML(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedExtension, filepath.Ext(name))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}

	for i := range entries {
		if err := validation.Struct(entries[i]); err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrInvalidContent, i, err)
		}
	}

	return entries, nil
}

func parseJSON(data []byte) ([]models.RawExerciseEntry, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var entries []models.RawExerciseEntry
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
		return entries, nil
	}

	var file sectionFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return file.Exercises, nil
}

func parseYAML(data []byte) ([]models.RawExerciseEntry, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if len(root.Content) == 0 {
		return nil, nil
	}

	doc := root.Content[0]
	if doc.Kind == yaml.SequenceNode {
		var entries []models.RawExerciseEntry
		if err := doc.Decode(&entries); err != nil {
			return nil, fmt.Errorf("failed to decode YAML list: %w", err)
		}
		return entries, nil
	}

	var file sectionFile
	if err := doc.Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to decode YAML: %w", err)
	}
	return file.Exercises, nil
}

// ListFiles returns recognized file names sorted by numeric prefix, then name.
// A missing folder yields an empty list.
func (l *Loader) ListFiles() ([]string, error) {
	dirEntries, err := os.ReadDir(l.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Debug("sections folder not found", "dir", l.dir)
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read sections directory: %w", err)
	}

	files := make([]string, 0, len(dirEntries))
	for _, e := range dirEntries {
		if e.IsDir() || !l.recognized(e.Name()) {
			continue
		}
		files = append(files, e.Name())
	}

	SortByNumericPrefix(files)
	return files, nil
}

// SaveFile validates and writes a section file, creating the folder if missing
func (l *Loader) SaveFile(name string, content []byte) error {
	if err := l.checkName(name); err != nil {
		return err
	}

	if len(strings.TrimSpace(string(content))) == 0 {
		return fmt.Errorf("%w: empty file", ErrInvalidContent)
	}

	if _, err := Parse(name, content); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create sections directory: %w", err)
	}

	tmp, err := os.CreateTemp(l.dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write section file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close section file: %w", err)
	}

	if err := os.Rename(tmpName, filepath.Join(l.dir, name)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to store section file: %w", err)
	}

	slog.Info("section file saved", "file", name, "bytes", len(content))
	return nil
}

// DeleteFile removes a section file from the upload folder
func (l *Loader) DeleteFile(name string) error {
	if err := l.checkName(name); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.Remove(filepath.Join(l.dir, name)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrFileNotFound
		}
		return fmt.Errorf("failed to delete section file: %w", err)
	}

	slog.Info("section file deleted", "file", name)
	return nil
}

// checkName rejects names that could escape the folder or are not recognized
func (l *Loader) checkName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") ||
		strings.HasPrefix(name, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidFileName, name)
	}

	if !l.recognized(name) {
		return fmt.Errorf("%w: %q (allowed: %s)", ErrUnsupportedExtension, name, strings.Join(l.extensions, ", "))
	}

	return nil
}

func (l *Loader) recognized(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range l.extensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// SortByNumericPrefix orders names by their leading integer (missing prefix counts as 0),
// breaking ties by the full name
func SortByNumericPrefix(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		pi, pj := prefixOf(names[i]), prefixOf(names[j])
		if pi != pj {
			return pi < pj
		}
		return names[i] < names[j]
	})
}

func prefixOf(name string) int {
	m := numericPrefix.FindStringSubmatch(name)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}
