package vfs

import (
	"fmt"
	"slices"
	"strings"

	"github.com/mdmarufa/cloudex/pkg/models"
	"github.com/mdmarufa/cloudex/pkg/vpath"
)

// FolderNames returns the names of the folders directly under dir:
// explicit folder records whose Path is dir, plus the first segment below
// dir of every nested record path. Explicit casing wins over inferred
// casing; among inferred names the first one seen wins.
func (s *Store) FolderNames(dir string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.folderNamesLocked(vpath.Normalize(dir))
}

func (s *Store) folderNamesLocked(dir string) []string {
	seen := make(map[string]string)
	var order []string
	add := func(name string) {
		key := strings.ToLower(name)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = name
		order = append(order, key)
	}

	for i := range s.items {
		if s.items[i].IsFolder() && s.items[i].Path == dir {
			add(s.items[i].Name)
		}
	}
	for i := range s.items {
		if name, ok := vpath.FirstSegmentBelow(s.items[i].Path, dir); ok {
			add(name)
		}
	}

	names := make([]string, 0, len(order))
	for _, key := range order {
		names = append(names, seen[key])
	}
	slices.SortFunc(names, func(a, b string) int {
		return strings.Compare(strings.ToLower(a), strings.ToLower(b))
	})
	return names
}

// Resolve walks a user-typed path segment by segment. At each level a
// case-insensitive match against the visible folder names adopts the
// canonical casing; otherwise the typed segment is kept as is.
func (s *Store) Resolve(input string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolveLocked(input)
}

func (s *Store) resolveLocked(input string) string {
	cur := vpath.Root
	for _, seg := range vpath.Split(input) {
		next := seg
		for _, name := range s.folderNamesLocked(cur) {
			if strings.EqualFold(name, seg) {
				next = name
				break
			}
		}
		cur = vpath.Join(cur, next)
	}
	return cur
}

// DirExists reports whether dir is the root, an explicit folder, or a
// virtual folder.
func (s *Store) DirExists(dir string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirExistsLocked(vpath.Normalize(dir))
}

func (s *Store) dirExistsLocked(dir string) bool {
	if dir == vpath.Root {
		return true
	}
	return s.explicitFolderIndexLocked(dir) >= 0 || s.hasDescendantsLocked(dir)
}

// ListDir returns the direct children of dir, with virtual folders
// synthesized for inferred folder names that have no record.
func (s *Store) ListDir(dir string) ([]models.FileItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listDirLocked(vpath.Normalize(dir))
}

func (s *Store) listDirLocked(dir string) ([]models.FileItem, error) {
	if !s.dirExistsLocked(dir) {
		return nil, fmt.Errorf("list %s: %w", dir, ErrNotFound)
	}

	var out []models.FileItem
	explicit := make(map[string]bool)
	for i := range s.items {
		if s.items[i].Path != dir {
			continue
		}
		out = append(out, s.items[i])
		if s.items[i].IsFolder() {
			explicit[strings.ToLower(s.items[i].Name)] = true
		}
	}
	for _, name := range s.folderNamesLocked(dir) {
		if explicit[strings.ToLower(name)] {
			continue
		}
		out = append(out, s.virtualFolderLocked(dir, name))
	}

	sortListing(out)
	return out, nil
}

// sortListing orders folders first, then by case-insensitive name.
func sortListing(items []models.FileItem) {
	slices.SortStableFunc(items, func(a, b models.FileItem) int {
		if a.IsFolder() != b.IsFolder() {
			if a.IsFolder() {
				return -1
			}
			return 1
		}
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
}

// Tree returns the nested view of the whole catalogue.
func (s *Store) Tree() *models.TreeNode {
	s.mu.RLock()
	defer s.mu.RUnlock()

	root := &models.TreeNode{
		Item:     models.FileItem{ID: "root", Name: "", Type: models.TypeFolder, Path: vpath.Root},
		FullPath: vpath.Root,
	}
	s.fillTreeLocked(root)
	return root
}

func (s *Store) fillTreeLocked(node *models.TreeNode) {
	children, err := s.listDirLocked(node.FullPath)
	if err != nil {
		return
	}
	for _, child := range children {
		cn := &models.TreeNode{Item: child, FullPath: FullPath(child)}
		if child.IsFolder() && vpath.IsBelow(cn.FullPath, node.FullPath) {
			s.fillTreeLocked(cn)
		}
		node.Children = append(node.Children, cn)
	}
}
