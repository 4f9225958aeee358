package vfs

import (
	"fmt"
	"path"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/mdmarufa/cloudex/internal/events"
	"github.com/mdmarufa/cloudex/internal/logging"
	"github.com/mdmarufa/cloudex/internal/metrics"
	"github.com/mdmarufa/cloudex/pkg/models"
	"github.com/mdmarufa/cloudex/pkg/vpath"
)

// Upload describes a mock file added to the catalogue.
type Upload struct {
	Name string          `json:"name"`
	Size int64           `json:"size"`
	Type models.FileType `json:"type,omitempty"`
}

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	if !vpath.ValidName(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return name, nil
}

// nameTakenLocked reports whether dir already shows an entry named name
// (case-insensitive), ignoring the record at index skip.
func (s *Store) nameTakenLocked(dir, name string, skip int) bool {
	for i := range s.items {
		if i != skip && s.items[i].Path == dir && strings.EqualFold(s.items[i].Name, name) {
			return true
		}
	}
	for _, n := range s.folderNamesLocked(dir) {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}

// uniqueNameLocked appends " (n)" before the extension until name is free
// in dir.
func (s *Store) uniqueNameLocked(dir, name string) string {
	if !s.nameTakenLocked(dir, name, -1) {
		return name
	}
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s (%d)%s", stem, n, ext)
		if !s.nameTakenLocked(dir, candidate, -1) {
			return candidate
		}
	}
}

// CreateFolder adds an explicit folder record named name inside parent.
// The parent path is resolved case-insensitively first.
func (s *Store) CreateFolder(parent, name, owner string) (models.FileItem, error) {
	name, err := cleanName(name)
	if err != nil {
		metrics.RecordFileOperation("create_folder", false)
		return models.FileItem{}, err
	}

	s.mu.Lock()
	parent = s.resolveLocked(parent)
	if !s.dirExistsLocked(parent) {
		s.mu.Unlock()
		metrics.RecordFileOperation("create_folder", false)
		return models.FileItem{}, fmt.Errorf("create folder in %s: %w", parent, ErrNotFound)
	}
	if s.nameTakenLocked(parent, name, -1) {
		s.mu.Unlock()
		metrics.RecordFileOperation("create_folder", false)
		return models.FileItem{}, fmt.Errorf("create folder %s: %w", vpath.Join(parent, name), ErrExists)
	}

	folder := models.FileItem{
		ID:         s.newID(),
		Name:       name,
		Type:       models.TypeFolder,
		ModifiedAt: s.now(),
		Owner:      owner,
		Path:       parent,
	}
	s.items = append(s.items, folder)
	s.updateMetricsLocked()
	s.mu.Unlock()

	metrics.RecordFileOperation("create_folder", true)
	logging.Info("folder created", zap.String("path", FullPath(folder)))
	s.publish(events.Event{Type: events.EventCreate, Path: FullPath(folder), ItemID: folder.ID, Name: folder.Name})
	return folder, nil
}

// AddFiles adds mock uploads to dir. The batch is rejected as a whole when
// a name is invalid or the storage limit would be exceeded. Colliding names
// get a " (n)" suffix.
func (s *Store) AddFiles(dir string, uploads []Upload, owner string) ([]models.FileItem, error) {
	uploads = slices.Clone(uploads)
	var total int64
	for i := range uploads {
		name, err := cleanName(uploads[i].Name)
		if err != nil {
			metrics.RecordFileOperation("upload", false)
			return nil, err
		}
		if uploads[i].Size < 0 {
			metrics.RecordFileOperation("upload", false)
			return nil, fmt.Errorf("%w: negative size for %q", ErrInvalidName, name)
		}
		uploads[i].Name = name
		total += uploads[i].Size
	}

	s.mu.Lock()
	dir = s.resolveLocked(dir)
	if !s.dirExistsLocked(dir) {
		s.mu.Unlock()
		metrics.RecordFileOperation("upload", false)
		return nil, fmt.Errorf("upload to %s: %w", dir, ErrNotFound)
	}
	if s.limit > 0 && s.usedLocked()+total > s.limit {
		used := s.usedLocked()
		s.mu.Unlock()
		metrics.RecordFileOperation("upload", false)
		metrics.RecordQuotaExceeded()
		return nil, fmt.Errorf("upload %d bytes with %d of %d used: %w", total, used, s.limit, ErrQuotaExceeded)
	}

	now := s.now()
	added := make([]models.FileItem, 0, len(uploads))
	for _, u := range uploads {
		typ := u.Type
		if typ == "" || typ == models.TypeFolder {
			typ = models.TypeFromName(u.Name)
		}
		item := models.FileItem{
			ID:         s.newID(),
			Name:       s.uniqueNameLocked(dir, u.Name),
			Type:       typ,
			Size:       u.Size,
			ModifiedAt: now,
			Owner:      owner,
			Path:       dir,
		}
		s.items = append(s.items, item)
		added = append(added, item)
	}
	s.updateMetricsLocked()
	s.mu.Unlock()

	metrics.RecordFileOperation("upload", true)
	logging.Info("files added", zap.String("dir", dir), zap.Int("count", len(added)), zap.Int64("bytes", total))
	s.publish(events.Event{Type: events.EventUpload, Path: dir, Count: len(added)})
	return added, nil
}

// Rename renames an item. Renaming a folder rewrites the path prefix of
// every record below its old full path. Virtual folders can be renamed;
// only their descendants change.
func (s *Store) Rename(id, newName string) (models.FileItem, error) {
	newName, err := cleanName(newName)
	if err != nil {
		metrics.RecordFileOperation("rename", false)
		return models.FileItem{}, err
	}

	s.mu.Lock()
	item, idx, err := s.lookupLocked(id)
	if err != nil {
		s.mu.Unlock()
		metrics.RecordFileOperation("rename", false)
		return models.FileItem{}, fmt.Errorf("rename %s: %w", id, err)
	}
	if item.Name == newName {
		s.mu.Unlock()
		return item, nil
	}

	if !strings.EqualFold(item.Name, newName) && s.nameTakenLocked(item.Path, newName, idx) {
		s.mu.Unlock()
		metrics.RecordFileOperation("rename", false)
		return models.FileItem{}, fmt.Errorf("rename to %s: %w", vpath.Join(item.Path, newName), ErrExists)
	}

	oldFull := FullPath(item)
	newFull := vpath.Join(item.Path, newName)
	if idx >= 0 {
		s.items[idx].Name = newName
	}
	affected := 0
	if item.IsFolder() {
		affected = s.rebaseLocked(oldFull, newFull, idx)
	}
	item.Name = newName
	if idx < 0 {
		item = s.virtualFolderLocked(item.Path, newName)
	}
	s.mu.Unlock()

	metrics.RecordFileOperation("rename", true)
	if item.IsFolder() {
		metrics.RecordCascade("rename", affected)
	}
	logging.Info("item renamed",
		zap.String("from", oldFull),
		zap.String("to", newFull),
		zap.Int("descendants", affected))
	s.publish(events.Event{Type: events.EventRename, Path: newFull, OldPath: oldFull, ItemID: item.ID, Name: newName, Count: affected})
	return item, nil
}

// rebaseLocked rewrites the Path of every record within oldFull, except
// the record at skip, and returns how many changed.
func (s *Store) rebaseLocked(oldFull, newFull string, skip int) int {
	n := 0
	for i := range s.items {
		if i == skip || !vpath.IsWithin(s.items[i].Path, oldFull) {
			continue
		}
		s.items[i].Path = vpath.Rebase(s.items[i].Path, oldFull, newFull)
		n++
	}
	return n
}

// ToggleStar flips the starred flag of an item.
func (s *Store) ToggleStar(id string) (models.FileItem, error) {
	s.mu.Lock()
	_, idx, err := s.lookupLocked(id)
	if err == nil && idx < 0 {
		err = ErrVirtual
	}
	if err != nil {
		s.mu.Unlock()
		metrics.RecordFileOperation("star", false)
		return models.FileItem{}, fmt.Errorf("star %s: %w", id, err)
	}
	s.items[idx].IsStarred = !s.items[idx].IsStarred
	item := s.items[idx]
	s.mu.Unlock()

	metrics.RecordFileOperation("star", true)
	s.publish(events.Event{Type: events.EventStar, Path: FullPath(item), ItemID: item.ID, Name: item.Name})
	return item, nil
}

// Move moves an item into destDir. Folders carry their subtree along.
func (s *Store) Move(id, destDir string) (models.FileItem, error) {
	s.mu.Lock()
	item, idx, err := s.lookupLocked(id)
	if err != nil {
		s.mu.Unlock()
		metrics.RecordFileOperation("move", false)
		return models.FileItem{}, fmt.Errorf("move %s: %w", id, err)
	}

	destDir = s.resolveLocked(destDir)
	oldFull := FullPath(item)
	if item.IsFolder() && vpath.IsWithin(destDir, oldFull) {
		s.mu.Unlock()
		metrics.RecordFileOperation("move", false)
		return models.FileItem{}, fmt.Errorf("move %s into %s: %w", oldFull, destDir, ErrInvalidMove)
	}
	if !s.dirExistsLocked(destDir) {
		s.mu.Unlock()
		metrics.RecordFileOperation("move", false)
		return models.FileItem{}, fmt.Errorf("move to %s: %w", destDir, ErrNotFound)
	}
	if item.Path == destDir {
		s.mu.Unlock()
		return item, nil
	}
	if s.nameTakenLocked(destDir, item.Name, -1) {
		s.mu.Unlock()
		metrics.RecordFileOperation("move", false)
		return models.FileItem{}, fmt.Errorf("move to %s: %w", vpath.Join(destDir, item.Name), ErrExists)
	}

	newFull := vpath.Join(destDir, item.Name)
	affected := 0
	if item.IsFolder() {
		affected = s.rebaseLocked(oldFull, newFull, idx)
	}
	if idx >= 0 {
		s.items[idx].Path = destDir
		item = s.items[idx]
	} else {
		item = s.virtualFolderLocked(destDir, item.Name)
	}
	s.mu.Unlock()

	metrics.RecordFileOperation("move", true)
	if item.IsFolder() {
		metrics.RecordCascade("move", affected)
	}
	logging.Info("item moved", zap.String("from", oldFull), zap.String("to", newFull), zap.Int("descendants", affected))
	s.publish(events.Event{Type: events.EventMove, Path: newFull, OldPath: oldFull, ItemID: item.ID, Name: item.Name, Count: affected})
	return item, nil
}

// Delete removes an item. Deleting a folder also removes every record
// whose Path lies within the folder's full path. The removed records are
// returned.
func (s *Store) Delete(id string) ([]models.FileItem, error) {
	return s.DeleteMany([]string{id})
}

// DeleteMany removes several items at once. Every ID must exist when the
// call starts; IDs already covered by another folder's cascade are fine.
func (s *Store) DeleteMany(ids []string) ([]models.FileItem, error) {
	s.mu.Lock()

	var roots []models.FileItem
	remove := make(map[int]bool)
	for _, id := range ids {
		item, idx, err := s.lookupLocked(id)
		if err != nil {
			s.mu.Unlock()
			metrics.RecordFileOperation("delete", false)
			return nil, fmt.Errorf("delete %s: %w", id, err)
		}
		roots = append(roots, item)
		if idx >= 0 {
			remove[idx] = true
		}
		if item.IsFolder() {
			full := FullPath(item)
			for i := range s.items {
				if vpath.IsWithin(s.items[i].Path, full) {
					remove[i] = true
				}
			}
		}
	}

	removed := make([]models.FileItem, 0, len(remove))
	kept := make([]models.FileItem, 0, len(s.items)-len(remove))
	for i := range s.items {
		if remove[i] {
			removed = append(removed, s.items[i])
			continue
		}
		kept = append(kept, s.items[i])
	}
	s.items = kept
	s.updateMetricsLocked()
	s.mu.Unlock()

	metrics.RecordFileOperation("delete", true)
	for _, root := range roots {
		full := FullPath(root)
		n := 0
		for _, r := range removed {
			if vpath.IsWithin(FullPath(r), full) {
				n++
			}
		}
		if root.IsFolder() {
			metrics.RecordCascade("delete", n)
		}
		logging.Info("item deleted", zap.String("path", full), zap.Int("removed", n))
		s.publish(events.Event{Type: events.EventDelete, Path: full, ItemID: root.ID, Name: root.Name, Count: n})
	}
	return removed, nil
}
