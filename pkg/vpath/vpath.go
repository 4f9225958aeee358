// Package vpath provides helpers for the slash-separated paths of the
// virtual catalogue.
package vpath

import "strings"

// Root is the catalogue root.
const Root = "/"

// Join builds the full path of an entry named name inside parent.
func Join(parent, name string) string {
	if parent == Root || parent == "" {
		return Root + name
	}
	return parent + "/" + name
}

// Normalize returns an absolute path without empty segments and without a
// trailing slash. Whitespace around segments is trimmed and backslashes are
// treated as separators.
func Normalize(p string) string {
	segs := Split(p)
	if len(segs) == 0 {
		return Root
	}
	return Root + strings.Join(segs, "/")
}

// Split returns the segments of p. The root has none. "." is dropped and
// ".." removes the previous segment; it never climbs above the root.
func Split(p string) []string {
	p = strings.ReplaceAll(p, "\\", "/")
	var segs []string
	for _, s := range strings.Split(p, "/") {
		s = strings.TrimSpace(s)
		switch s {
		case "", ".":
			continue
		case "..":
			if len(segs) > 0 {
				segs = segs[:len(segs)-1]
			}
			continue
		}
		segs = append(segs, s)
	}
	return segs
}

// Parent returns the directory containing p.
func Parent(p string) string {
	p = Normalize(p)
	i := strings.LastIndex(p, "/")
	if i <= 0 {
		return Root
	}
	return p[:i]
}

// Base returns the last segment of p, or "" for the root.
func Base(p string) string {
	p = Normalize(p)
	if p == Root {
		return ""
	}
	return p[strings.LastIndex(p, "/")+1:]
}

// IsWithin reports whether p equals dir or lies below it. Matching is by
// whole segments, so "/Designs" is not within "/Design".
func IsWithin(p, dir string) bool {
	if dir == Root {
		return strings.HasPrefix(p, Root)
	}
	return p == dir || strings.HasPrefix(p, dir+"/")
}

// IsBelow reports whether p lies strictly below dir.
func IsBelow(p, dir string) bool {
	return p != dir && IsWithin(p, dir)
}

// Rebase replaces the leading oldPrefix of p with newPrefix. Paths not
// within oldPrefix are returned unchanged.
func Rebase(p, oldPrefix, newPrefix string) string {
	if !IsWithin(p, oldPrefix) {
		return p
	}
	if oldPrefix == Root {
		return Normalize(newPrefix + p)
	}
	rest := p[len(oldPrefix):]
	if newPrefix == Root {
		if rest == "" {
			return Root
		}
		return rest
	}
	return newPrefix + rest
}

// FirstSegmentBelow returns the name of the child of dir on the way to p.
// ok is false when p is not strictly below dir.
func FirstSegmentBelow(p, dir string) (string, bool) {
	if !IsBelow(p, dir) {
		return "", false
	}
	rest := strings.TrimPrefix(p, dir)
	rest = strings.TrimPrefix(rest, "/")
	if i := strings.Index(rest, "/"); i >= 0 {
		rest = rest[:i]
	}
	if rest == "" {
		return "", false
	}
	return rest, true
}

// ValidName reports whether name can be used as a single path segment.
func ValidName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, "/\\")
}
