package netdisk

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"blog_backend/internal/platform/metrics"

	"go.uber.org/zap"
)

// ErrUnsafePath is returned for paths that would leave the storage root.
var ErrUnsafePath = errors.New("path escapes storage root")

// Storage performs file operations below a single root directory. Paths are
// slash separated and relative to the root.
type Storage struct {
	root   string
	logger *zap.Logger
	now    func() time.Time
}

// Entry describes one file or directory.
type Entry struct {
	Name         string    `json:"name"`
	Path         string    `json:"path"`
	Size         int64     `json:"size"`
	ModifiedTime time.Time `json:"modified_time"`
	IsDirectory  bool      `json:"is_directory"`
	DisplayName  string    `json:"display_name,omitempty"`
	UserID       string    `json:"user_id,omitempty"`
}

// CleanupReport lists what a cleanup pass removed.
type CleanupReport struct {
	Cutoff       time.Time `json:"cutoff"`
	DryRun       bool      `json:"dry_run"`
	DeletedFiles []string  `json:"deleted_files"`
	DeletedDirs  []string  `json:"deleted_dirs"`
	Errors       []string  `json:"errors"`
}

// NewStorage creates the root directory if needed.
func NewStorage(root string, logger *zap.Logger) (*Storage, error) {
	if root == "" {
		return nil, fmt.Errorf("storage path cannot be empty")
	}
	if err := os.MkdirAll(root, os.ModePerm); err != nil {
		logger.Error("Failed to create storage path directory", zap.String("path", root), zap.Error(err))
		return nil, fmt.Errorf("failed to create storage path %s: %w", root, err)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage path %s: %w", root, err)
	}
	logger.Info("Network disk storage initialized", zap.String("root", abs))
	return &Storage{root: abs, logger: logger, now: time.Now}, nil
}

// SplitPath cleans a user supplied relative path into its parts.
func SplitPath(rel string) ([]string, error) {
	rel = strings.TrimSpace(strings.ReplaceAll(rel, "\\", "/"))
	if strings.HasPrefix(rel, "/") || strings.Contains(rel, "..") {
		return nil, ErrUnsafePath
	}
	var parts []string
	for _, p := range strings.Split(rel, "/") {
		if p != "" && p != "." {
			parts = append(parts, p)
		}
	}
	return parts, nil
}

// resolve maps path parts to an absolute path inside the root.
func (s *Storage) resolve(parts ...string) (string, error) {
	full := filepath.Join(append([]string{s.root}, parts...)...)
	if full != s.root && !strings.HasPrefix(full, s.root+string(os.PathSeparator)) {
		return "", ErrUnsafePath
	}
	return full, nil
}

func (s *Storage) entry(full string, info fs.FileInfo) Entry {
	rel, _ := filepath.Rel(s.root, full)
	e := Entry{
		Name:         info.Name(),
		Path:         filepath.ToSlash(rel),
		ModifiedTime: info.ModTime(),
		IsDirectory:  info.IsDir(),
	}
	if !info.IsDir() {
		e.Size = info.Size()
	}
	return e
}

// Stat returns the entry at parts.
func (s *Storage) Stat(parts []string) (Entry, error) {
	full, err := s.resolve(parts...)
	if err != nil {
		return Entry{}, err
	}
	info, err := os.Stat(full)
	if err != nil {
		return Entry{}, err
	}
	return s.entry(full, info), nil
}

// EnsureDir creates a directory and its parents.
func (s *Storage) EnsureDir(parts []string) error {
	full, err := s.resolve(parts...)
	if err != nil {
		return err
	}
	return os.MkdirAll(full, os.ModePerm)
}

// List returns the directories and files of a directory, each sorted by name.
func (s *Storage) List(parts []string) (dirs, files []Entry, err error) {
	full, err := s.resolve(parts...)
	if err != nil {
		return nil, nil, err
	}
	items, err := os.ReadDir(full)
	if err != nil {
		return nil, nil, err
	}
	for _, item := range items {
		info, err := item.Info()
		if err != nil {
			continue
		}
		e := s.entry(filepath.Join(full, item.Name()), info)
		if e.IsDirectory {
			dirs = append(dirs, e)
		} else {
			files = append(files, e)
		}
	}
	byName := func(list []Entry) {
		sort.Slice(list, func(i, j int) bool { return strings.ToLower(list[i].Name) < strings.ToLower(list[j].Name) })
	}
	byName(dirs)
	byName(files)
	return dirs, files, nil
}

// SaveUploadedFile writes a multipart file into dir under its base name,
// replacing an existing file of the same name.
func (s *Storage) SaveUploadedFile(fileHeader *multipart.FileHeader, dir []string) (Entry, error) {
	if fileHeader == nil {
		return Entry{}, fmt.Errorf("fileHeader cannot be nil")
	}
	name := filepath.Base(filepath.Clean("/" + strings.ReplaceAll(fileHeader.Filename, "\\", "/")))
	if err := ValidateName(name); err != nil {
		return Entry{}, err
	}

	src, err := fileHeader.Open()
	if err != nil {
		s.logger.Error("Failed to open uploaded file", zap.Error(err))
		return Entry{}, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	destinationDir, err := s.resolve(dir...)
	if err != nil {
		return Entry{}, err
	}
	if err := os.MkdirAll(destinationDir, os.ModePerm); err != nil {
		s.logger.Error("Failed to create upload directory", zap.String("path", destinationDir), zap.Error(err))
		return Entry{}, fmt.Errorf("failed to create directory %s: %w", destinationDir, err)
	}
	destinationPath := filepath.Join(destinationDir, name)

	dst, err := os.Create(destinationPath)
	if err != nil {
		s.logger.Error("Failed to create destination file", zap.String("path", destinationPath), zap.Error(err))
		return Entry{}, fmt.Errorf("failed to create file %s: %w", destinationPath, err)
	}
	defer dst.Close()

	written, err := io.Copy(dst, src)
	if err != nil {
		s.logger.Error("Failed to copy uploaded file to destination", zap.String("path", destinationPath), zap.Error(err))
		_ = os.Remove(destinationPath)
		return Entry{}, fmt.Errorf("failed to save file: %w", err)
	}
	metrics.NetdiskBytesUploaded.Add(float64(written))

	info, err := dst.Stat()
	if err != nil {
		return Entry{}, err
	}
	s.logger.Info("File saved successfully", zap.String("path", destinationPath), zap.Int64("bytes", written))
	return s.entry(destinationPath, info), nil
}

// Mkdir creates name inside dir. It fails with fs.ErrExist if name exists.
func (s *Storage) Mkdir(dir []string, name string) (Entry, error) {
	if err := ValidateName(name); err != nil {
		return Entry{}, err
	}
	full, err := s.resolve(append(append([]string{}, dir...), name)...)
	if err != nil {
		return Entry{}, err
	}
	if err := os.MkdirAll(filepath.Dir(full), os.ModePerm); err != nil {
		return Entry{}, err
	}
	if err := os.Mkdir(full, os.ModePerm); err != nil {
		return Entry{}, err
	}
	info, err := os.Stat(full)
	if err != nil {
		return Entry{}, err
	}
	return s.entry(full, info), nil
}

// Rename renames the entry at parts within its directory.
func (s *Storage) Rename(parts []string, newName string) (Entry, error) {
	if err := ValidateName(newName); err != nil {
		return Entry{}, err
	}
	from, err := s.resolve(parts...)
	if err != nil {
		return Entry{}, err
	}
	to := filepath.Join(filepath.Dir(from), newName)
	if _, err := os.Stat(from); err != nil {
		return Entry{}, err
	}
	if _, err := os.Stat(to); err == nil {
		return Entry{}, fs.ErrExist
	}
	if err := os.Rename(from, to); err != nil {
		return Entry{}, fmt.Errorf("rename %s: %w", from, err)
	}
	info, err := os.Stat(to)
	if err != nil {
		return Entry{}, err
	}
	return s.entry(to, info), nil
}

// Remove deletes a file or a whole directory tree.
func (s *Storage) Remove(parts []string) error {
	full, err := s.resolve(parts...)
	if err != nil {
		return err
	}
	if full == s.root {
		return ErrUnsafePath
	}
	if _, err := os.Stat(full); err != nil {
		return err
	}
	if err := os.RemoveAll(full); err != nil {
		s.logger.Error("Failed to delete path", zap.String("path", full), zap.Error(err))
		return fmt.Errorf("failed to delete %s: %w", full, err)
	}
	s.logger.Info("Path deleted successfully", zap.String("path", full))
	return nil
}

// FilePath returns the absolute path of a regular file for serving.
func (s *Storage) FilePath(parts []string) (string, error) {
	full, err := s.resolve(parts...)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(full)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fs.ErrNotExist
	}
	return full, nil
}

// Walk lists every regular file below parts.
func (s *Storage) Walk(parts []string) ([]Entry, error) {
	base, err := s.resolve(parts...)
	if err != nil {
		return nil, err
	}
	var files []Entry
	err = filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		files = append(files, s.entry(path, info))
		return nil
	})
	return files, err
}

// Cleanup removes files last modified before now-age, then directories that
// are old and empty. Directory ages are taken before any file is removed.
// Deepest directories go first so emptied parents follow.
func (s *Storage) Cleanup(age time.Duration, dryRun bool) (*CleanupReport, error) {
	report := &CleanupReport{Cutoff: s.now().Add(-age), DryRun: dryRun}

	var dirs []string
	oldDirs := make(map[string]bool)
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			report.Errors = append(report.Errors, err.Error())
			return nil
		}
		if path == s.root {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			report.Errors = append(report.Errors, err.Error())
			return nil
		}
		if d.IsDir() {
			dirs = append(dirs, path)
			oldDirs[path] = info.ModTime().Before(report.Cutoff)
			return nil
		}
		if info.ModTime().Before(report.Cutoff) {
			rel, _ := filepath.Rel(s.root, path)
			if !dryRun {
				if err := os.Remove(path); err != nil {
					report.Errors = append(report.Errors, err.Error())
					return nil
				}
			}
			report.DeletedFiles = append(report.DeletedFiles, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return report, err
	}

	sort.Slice(dirs, func(i, j int) bool { return len(dirs[i]) > len(dirs[j]) })
	deleted := make(map[string]bool)
	for _, dir := range dirs {
		if !oldDirs[dir] {
			continue
		}
		items, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		remaining := 0
		for _, item := range items {
			child := filepath.Join(dir, item.Name())
			if !deleted[child] && !(dryRun && isListed(report, s.root, child)) {
				remaining++
			}
		}
		if remaining > 0 {
			continue
		}
		rel, _ := filepath.Rel(s.root, dir)
		if !dryRun {
			if err := os.Remove(dir); err != nil {
				report.Errors = append(report.Errors, err.Error())
				continue
			}
		}
		deleted[dir] = true
		report.DeletedDirs = append(report.DeletedDirs, filepath.ToSlash(rel))
	}

	s.logger.Info("Network disk cleanup finished",
		zap.Time("cutoff", report.Cutoff),
		zap.Bool("dryRun", dryRun),
		zap.Int("files", len(report.DeletedFiles)),
		zap.Int("dirs", len(report.DeletedDirs)),
		zap.Int("errors", len(report.Errors)))
	return report, nil
}

// isListed reports whether a dry run already counted full as deleted.
func isListed(report *CleanupReport, root, full string) bool {
	rel, err := filepath.Rel(root, full)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, f := range report.DeletedFiles {
		if f == rel {
			return true
		}
	}
	for _, d := range report.DeletedDirs {
		if d == rel {
			return true
		}
	}
	return false
}

// ValidateName rejects names that are empty or could change directory.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" || name == "." {
		return fmt.Errorf("%w: empty name", ErrInvalidName)
	}
	if strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// ErrInvalidName is returned for file or directory names that are not allowed.
var ErrInvalidName = errors.New("invalid name")
