package netdisk

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime/multipart"
	"net/http"
	"sort"
	"strings"
	"time"

	"blog_backend/internal/common"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Operation is a kind of access checked against the folder rules.
type Operation int

const (
	OpRead Operation = iota
	OpWrite
	OpDelete
)

// UserDirectory resolves folder owners to usernames.
type UserDirectory interface {
	UsernamesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
}

// CleanupPolicy supplies the retention period in days.
type CleanupPolicy interface {
	CleanupDays() int
}

// Listing is the response for a directory listing.
type Listing struct {
	CurrentPath          string     `json:"current_path"`
	PathParts            []string   `json:"path_parts"`
	PathUsernames        []string   `json:"path_usernames"`
	CurrentUserID        *uuid.UUID `json:"current_user_id"`
	CurrentOwnerID       *uuid.UUID `json:"current_owner_id"`
	CurrentOwnerUsername string     `json:"current_owner_username,omitempty"`
	CanWrite             bool       `json:"can_write"`
	CanDelete            bool       `json:"can_delete"`
	Directories          []Entry    `json:"directories"`
	Files                []Entry    `json:"files"`
	ParentPath           string     `json:"parent_path"`
}

// StorageInfo summarises a user's folder.
type StorageInfo struct {
	UsedBytes int64 `json:"used_bytes"`
	FileCount int   `json:"file_count"`
}

// AdminFile is one row of the admin file overview.
type AdminFile struct {
	Entry
	Username string `json:"username"`
}

// AdminOverview lists every file on the disk.
type AdminOverview struct {
	Files          []AdminFile `json:"files"`
	TotalSizeBytes int64       `json:"total_size_bytes"`
	FileCount      int         `json:"file_count"`
}

// Service defines the network disk operations.
type Service interface {
	List(ctx context.Context, viewer *uuid.UUID, path string) (*Listing, error)
	Upload(ctx context.Context, userID uuid.UUID, path string, file *multipart.FileHeader) (*Entry, error)
	// Download returns the absolute path of a file readable by anyone.
	Download(ctx context.Context, path string) (string, error)
	Delete(ctx context.Context, userID uuid.UUID, path string) error
	Mkdir(ctx context.Context, userID uuid.UUID, path, name string) (*Entry, error)
	Rename(ctx context.Context, userID uuid.UUID, path, newName string) (*Entry, error)
	StorageInfo(ctx context.Context, userID uuid.UUID) (*StorageInfo, error)

	AdminOverview(ctx context.Context) (*AdminOverview, error)
	AdminDelete(ctx context.Context, path string) error
	// Cleanup removes content older than days; days <= 0 uses the site setting.
	Cleanup(ctx context.Context, days int, dryRun bool) (*CleanupReport, error)
}

type service struct {
	storage   *Storage
	users     UserDirectory
	policy    CleanupPolicy
	maxUpload int64
	logger    *zap.Logger
}

// NewService creates a network disk service. maxUploadBytes <= 0 disables the
// size check.
func NewService(storage *Storage, users UserDirectory, policy CleanupPolicy, maxUploadBytes int64, logger *zap.Logger) Service {
	return &service{storage: storage, users: users, policy: policy, maxUpload: maxUploadBytes, logger: logger}
}

// ownerOf returns the user owning a path: the first part, when it is a user ID.
func ownerOf(parts []string) *uuid.UUID {
	if len(parts) == 0 {
		return nil
	}
	id, err := uuid.Parse(parts[0])
	if err != nil {
		return nil
	}
	return &id
}

// CheckPermission applies the folder rules: guests and the root are read
// only, users own their folder and may read everything else.
func CheckPermission(userID *uuid.UUID, parts []string, op Operation) error {
	if op == OpRead {
		return nil
	}
	if userID == nil {
		return common.ErrForbidden.WithDetails("Guests cannot upload or delete files.")
	}
	if len(parts) == 0 {
		return common.ErrForbidden.WithDetails("The root folder is read only.")
	}
	if owner := ownerOf(parts); owner != nil && *owner == *userID {
		return nil
	}
	return common.ErrForbidden.WithDetails("You cannot modify another user's files.")
}

func parsePath(path string) ([]string, error) {
	parts, err := SplitPath(path)
	if err != nil {
		return nil, common.ErrBadRequest.WithDetails("Invalid path.")
	}
	return parts, nil
}

func mapFSError(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrNotExist):
		return common.ErrNotFound.WithDetails(what + " does not exist.")
	case errors.Is(err, fs.ErrExist):
		return common.ErrConflict.WithDetails(what + " already exists.")
	case errors.Is(err, ErrInvalidName):
		return common.ErrBadRequest.WithDetails("Name contains invalid characters.")
	case errors.Is(err, ErrUnsafePath):
		return common.ErrForbidden.WithDetails("Access denied.")
	}
	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return err
}

func (s *service) usernames(ctx context.Context, ids []uuid.UUID) map[uuid.UUID]string {
	if len(ids) == 0 {
		return map[uuid.UUID]string{}
	}
	names, err := s.users.UsernamesByIDs(ctx, ids)
	if err != nil {
		s.logger.Warn("Failed to resolve folder owners", zap.Error(err))
		return map[uuid.UUID]string{}
	}
	return names
}

func (s *service) List(ctx context.Context, viewer *uuid.UUID, path string) (*Listing, error) {
	parts, err := parsePath(path)
	if err != nil {
		return nil, err
	}
	if viewer != nil {
		if err := s.storage.EnsureDir([]string{viewer.String()}); err != nil {
			s.logger.Warn("Failed to create user folder", zap.String("userID", viewer.String()), zap.Error(err))
		}
	}

	owner := ownerOf(parts)
	var ownerName string
	if len(parts) > 0 {
		if owner == nil {
			return nil, common.ErrNotFound.WithDetails("Path does not exist.")
		}
		name, ok := s.usernames(ctx, []uuid.UUID{*owner})[*owner]
		if !ok {
			return nil, common.ErrNotFound.WithDetails("User does not exist.")
		}
		ownerName = name
		if err := s.storage.EnsureDir(parts[:1]); err != nil {
			return nil, fmt.Errorf("ensure user folder: %w", err)
		}
	}

	entry, err := s.storage.Stat(parts)
	if err != nil {
		return nil, mapFSError(err, "Path")
	}
	if !entry.IsDirectory {
		return nil, common.ErrNotFound.WithDetails("Path is a file, not a directory.")
	}

	dirs, files, err := s.storage.List(parts)
	if err != nil {
		return nil, mapFSError(err, "Path")
	}
	if len(parts) == 0 {
		dirs, files = s.userFolders(ctx, dirs), []Entry{}
	}

	listing := &Listing{
		CurrentPath:          strings.Join(parts, "/"),
		PathParts:            parts,
		PathUsernames:        append([]string{}, parts...),
		CurrentUserID:        viewer,
		CurrentOwnerID:       owner,
		CurrentOwnerUsername: ownerName,
		CanWrite:             CheckPermission(viewer, parts, OpWrite) == nil,
		CanDelete:            CheckPermission(viewer, parts, OpDelete) == nil,
		Directories:          nonNil(dirs),
		Files:                nonNil(files),
	}
	if len(parts) > 0 {
		listing.PathUsernames[0] = ownerName
		listing.ParentPath = strings.Join(parts[:len(parts)-1], "/")
	}
	return listing, nil
}

// userFolders keeps root folders that belong to existing users and labels
// them with the username.
func (s *service) userFolders(ctx context.Context, dirs []Entry) []Entry {
	ids := make([]uuid.UUID, 0, len(dirs))
	for _, d := range dirs {
		if id, err := uuid.Parse(d.Name); err == nil {
			ids = append(ids, id)
		}
	}
	names := s.usernames(ctx, ids)
	out := make([]Entry, 0, len(dirs))
	for _, d := range dirs {
		id, err := uuid.Parse(d.Name)
		if err != nil {
			continue
		}
		name, ok := names[id]
		if !ok {
			continue
		}
		d.DisplayName = name
		d.UserID = id.String()
		out = append(out, d)
	}
	sortByDisplayName(out)
	return out
}

func (s *service) Upload(ctx context.Context, userID uuid.UUID, path string, file *multipart.FileHeader) (*Entry, error) {
	parts, err := parsePath(path)
	if err != nil {
		return nil, err
	}
	if len(parts) == 0 {
		parts = []string{userID.String()}
	}
	if err := CheckPermission(&userID, parts, OpWrite); err != nil {
		return nil, err
	}
	if file == nil {
		return nil, common.ErrBadRequest.WithDetails("No file was uploaded.")
	}
	if s.maxUpload > 0 && file.Size > s.maxUpload {
		return nil, common.NewAPIError(http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "File is too large.").
			WithDetails(map[string]int64{"max_bytes": s.maxUpload})
	}
	entry, err := s.storage.SaveUploadedFile(file, parts)
	if err != nil {
		return nil, mapFSError(err, "File")
	}
	s.logger.Info("Network disk upload", zap.String("userID", userID.String()), zap.String("path", entry.Path), zap.Int64("size", entry.Size))
	return &entry, nil
}

func (s *service) Download(ctx context.Context, path string) (string, error) {
	parts, err := parsePath(path)
	if err != nil {
		return "", err
	}
	if len(parts) == 0 {
		return "", common.ErrNotFound.WithDetails("File does not exist.")
	}
	full, err := s.storage.FilePath(parts)
	if err != nil {
		return "", mapFSError(err, "File")
	}
	return full, nil
}

func (s *service) Delete(ctx context.Context, userID uuid.UUID, path string) error {
	parts, err := parsePath(path)
	if err != nil {
		return err
	}
	if err := CheckPermission(&userID, parts, OpDelete); err != nil {
		return err
	}
	if len(parts) == 1 {
		return common.ErrBadRequest.WithDetails("Your own folder cannot be deleted.")
	}
	if err := s.storage.Remove(parts); err != nil {
		return mapFSError(err, "File or directory")
	}
	s.logger.Info("Network disk delete", zap.String("userID", userID.String()), zap.String("path", strings.Join(parts, "/")))
	return nil
}

func (s *service) Mkdir(ctx context.Context, userID uuid.UUID, path, name string) (*Entry, error) {
	parts, err := parsePath(path)
	if err != nil {
		return nil, err
	}
	if len(parts) == 0 {
		parts = []string{userID.String()}
	}
	if err := CheckPermission(&userID, parts, OpWrite); err != nil {
		return nil, err
	}
	entry, err := s.storage.Mkdir(parts, strings.TrimSpace(name))
	if err != nil {
		return nil, mapFSError(err, "Directory")
	}
	return &entry, nil
}

func (s *service) Rename(ctx context.Context, userID uuid.UUID, path, newName string) (*Entry, error) {
	parts, err := parsePath(path)
	if err != nil {
		return nil, err
	}
	if err := CheckPermission(&userID, parts, OpWrite); err != nil {
		return nil, err
	}
	if len(parts) == 1 {
		return nil, common.ErrBadRequest.WithDetails("Your own folder cannot be renamed.")
	}
	entry, err := s.storage.Rename(parts, strings.TrimSpace(newName))
	if err != nil {
		return nil, mapFSError(err, "Target")
	}
	return &entry, nil
}

func (s *service) StorageInfo(ctx context.Context, userID uuid.UUID) (*StorageInfo, error) {
	files, err := s.storage.Walk([]string{userID.String()})
	if err != nil {
		return nil, mapFSError(err, "Folder")
	}
	info := &StorageInfo{FileCount: len(files)}
	for _, f := range files {
		info.UsedBytes += f.Size
	}
	return info, nil
}

func (s *service) AdminOverview(ctx context.Context) (*AdminOverview, error) {
	files, err := s.storage.Walk(nil)
	if err != nil {
		return nil, mapFSError(err, "Network disk")
	}
	var ids []uuid.UUID
	for _, f := range files {
		if owner := ownerOf(strings.SplitN(f.Path, "/", 2)); owner != nil {
			ids = append(ids, *owner)
		}
	}
	names := s.usernames(ctx, ids)

	overview := &AdminOverview{Files: make([]AdminFile, 0, len(files)), FileCount: len(files)}
	for _, f := range files {
		row := AdminFile{Entry: f}
		folder := strings.SplitN(f.Path, "/", 2)[0]
		row.UserID = folder
		if owner := ownerOf([]string{folder}); owner != nil {
			row.Username = names[*owner]
		}
		if row.Username == "" {
			row.Username = "user " + folder
		}
		overview.Files = append(overview.Files, row)
		overview.TotalSizeBytes += f.Size
	}
	return overview, nil
}

func (s *service) AdminDelete(ctx context.Context, path string) error {
	parts, err := parsePath(path)
	if err != nil {
		return err
	}
	if len(parts) == 0 {
		return common.ErrBadRequest.WithDetails("File path cannot be empty.")
	}
	if err := s.storage.Remove(parts); err != nil {
		return mapFSError(err, "File")
	}
	s.logger.Info("Network disk admin delete", zap.String("path", strings.Join(parts, "/")))
	return nil
}

func (s *service) Cleanup(ctx context.Context, days int, dryRun bool) (*CleanupReport, error) {
	if days <= 0 {
		days = s.policy.CleanupDays()
	}
	return s.storage.Cleanup(time.Duration(days)*24*time.Hour, dryRun)
}

func nonNil(entries []Entry) []Entry {
	if entries == nil {
		return []Entry{}
	}
	return entries
}

func sortByDisplayName(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		return strings.ToLower(entries[i].DisplayName) < strings.ToLower(entries[j].DisplayName)
	})
}
