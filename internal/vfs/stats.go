package vfs

import (
	"cmp"
	"slices"

	"github.com/mdmarufa/cloudex/pkg/models"
)

const statsTopN = 5

// Stats types live in models so the API client can share them.
type (
	TypeUsage   = models.TypeUsage
	GrowthPoint = models.GrowthPoint
	Stats       = models.StorageStats
)

// Stats computes usage against limit. A zero limit falls back to the
// store's configured limit.
func (s *Store) Stats(limit int64) Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = s.limit
	}
	st := Stats{Limit: limit}

	byType := make(map[models.FileType]*TypeUsage)
	for _, t := range models.FileTypes {
		if t != models.TypeFolder {
			byType[t] = &TypeUsage{Type: t}
		}
	}
	monthly := make(map[string]int64)
	var files []models.FileItem

	for _, item := range s.items {
		if item.IsStarred {
			st.Starred++
		}
		if item.IsFolder() {
			st.Folders++
			continue
		}
		st.Files++
		st.Used += item.Size
		if u, ok := byType[item.Type]; ok {
			u.Count++
			u.Bytes += item.Size
		}
		monthly[item.ModifiedAt.UTC().Format("2006-01")] += item.Size
		files = append(files, item)
	}

	for _, t := range models.FileTypes {
		if u, ok := byType[t]; ok {
			st.ByType = append(st.ByType, *u)
		}
	}

	if limit > 0 {
		st.Free = max(limit-st.Used, 0)
		st.PercentUsed = float64(st.Used) * 100 / float64(limit)
	}

	largest := slices.Clone(files)
	slices.SortStableFunc(largest, func(a, b models.FileItem) int {
		return cmp.Compare(b.Size, a.Size)
	})
	st.Largest = largest[:min(statsTopN, len(largest))]

	recent := slices.Clone(files)
	slices.SortStableFunc(recent, func(a, b models.FileItem) int {
		return b.ModifiedAt.Compare(a.ModifiedAt)
	})
	st.Recent = recent[:min(statsTopN, len(recent))]

	months := make([]string, 0, len(monthly))
	for m := range monthly {
		months = append(months, m)
	}
	slices.Sort(months)
	var total int64
	st.Growth = make([]GrowthPoint, 0, len(months))
	for _, m := range months {
		total += monthly[m]
		st.Growth = append(st.Growth, GrowthPoint{Month: m, Bytes: total})
	}
	return st
}
