package vfs

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/mdmarufa/cloudex/pkg/models"
	"github.com/mdmarufa/cloudex/pkg/vpath"
)

// Date buckets accepted by Query.Date.
const (
	DateAll   = "all"
	DateToday = "today"
	DateWeek  = "week"
	DateMonth = "month"
	DateYear  = "year"
)

// Sort keys accepted by Query.Sort.
const (
	SortName = "name"
	SortSize = "size"
	SortDate = "date"
	SortType = "type"
)

// Query filters and orders the catalogue. Zero values mean "no filter".
type Query struct {
	Text    string
	Type    models.FileType
	Date    string
	Starred bool
	Dir     string
	Sort    string
	Desc    bool
	Limit   int
}

// ValidDate reports whether d is a known date bucket.
func ValidDate(d string) bool {
	switch d {
	case "", DateAll, DateToday, DateWeek, DateMonth, DateYear:
		return true
	}
	return false
}

// ValidSort reports whether key is a known sort key.
func ValidSort(key string) bool {
	switch key {
	case "", SortName, SortSize, SortDate, SortType:
		return true
	}
	return false
}

// Search returns the explicit records matching q. Text matches the name
// or the full path, case-insensitively. Dir scopes the search to a
// subtree and is resolved like any typed path.
func (s *Store) Search(q Query) []models.FileItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	text := strings.ToLower(strings.TrimSpace(q.Text))
	dir := ""
	if strings.TrimSpace(q.Dir) != "" {
		dir = s.resolveLocked(q.Dir)
	}
	since, bounded := dateCutoff(s.now(), q.Date)

	out := []models.FileItem{}
	for _, item := range s.items {
		if dir != "" && !vpath.IsWithin(item.Path, dir) {
			continue
		}
		if q.Type != "" && item.Type != q.Type {
			continue
		}
		if q.Starred && !item.IsStarred {
			continue
		}
		if bounded && item.ModifiedAt.Before(since) {
			continue
		}
		if text != "" &&
			!strings.Contains(strings.ToLower(item.Name), text) &&
			!strings.Contains(strings.ToLower(FullPath(item)), text) {
			continue
		}
		out = append(out, item)
	}

	SortItems(out, q.Sort, q.Desc)
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

// dateCutoff returns the earliest modification time that falls into the
// bucket. "today" starts at local midnight.
func dateCutoff(now time.Time, bucket string) (time.Time, bool) {
	switch bucket {
	case DateToday:
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location()), true
	case DateWeek:
		return now.AddDate(0, 0, -7), true
	case DateMonth:
		return now.AddDate(0, -1, 0), true
	case DateYear:
		return now.AddDate(-1, 0, 0), true
	}
	return time.Time{}, false
}

// SortItems orders items by key. Name sorting keeps folders first in both
// directions; ties fall back to the name.
func SortItems(items []models.FileItem, key string, desc bool) {
	byName := func(a, b models.FileItem) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	}
	slices.SortStableFunc(items, func(a, b models.FileItem) int {
		var c int
		switch key {
		case SortSize:
			c = cmp.Compare(a.Size, b.Size)
		case SortDate:
			c = a.ModifiedAt.Compare(b.ModifiedAt)
		case SortType:
			c = cmp.Compare(a.Type, b.Type)
		default:
			if a.IsFolder() != b.IsFolder() {
				if a.IsFolder() {
					return -1
				}
				return 1
			}
			c = byName(a, b)
		}
		if c == 0 && key != SortName && key != "" {
			c = byName(a, b)
		}
		if desc {
			return -c
		}
		return c
	})
}
