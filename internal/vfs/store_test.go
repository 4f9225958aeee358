package vfs

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/mdmarufa/cloudex/internal/events"
	"github.com/mdmarufa/cloudex/pkg/models"
	"github.com/mdmarufa/cloudex/pkg/vpath"
)

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(e events.Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) last() events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return events.Event{}
	}
	return r.events[len(r.events)-1]
}

// fixture:
//
//	/Design            explicit folder
//	/Design/logo.png
//	/Design/Assets     explicit folder
//	/Design/Assets/icon.svg
//	/Designs/brief.pdf (Designs is virtual)
//	/notes.txt
//	/Media/Video/clip.mp4 (Media and Video are virtual)
func fixture() []models.FileItem {
	old := testNow.AddDate(0, -2, 0)
	return []models.FileItem{
		{ID: "1", Name: "Design", Type: models.TypeFolder, Path: "/", ModifiedAt: old, Owner: "demo"},
		{ID: "2", Name: "logo.png", Type: models.TypeImage, Size: 100, Path: "/Design", ModifiedAt: old, Owner: "demo"},
		{ID: "3", Name: "Assets", Type: models.TypeFolder, Path: "/Design", ModifiedAt: old, Owner: "demo"},
		{ID: "4", Name: "icon.svg", Type: models.TypeImage, Size: 50, Path: "/Design/Assets", ModifiedAt: old, Owner: "demo", IsStarred: true},
		{ID: "5", Name: "brief.pdf", Type: models.TypeDocument, Size: 200, Path: "/Designs", ModifiedAt: old, Owner: "sara"},
		{ID: "6", Name: "notes.txt", Type: models.TypeDocument, Size: 10, Path: "/", ModifiedAt: testNow.Add(-72 * time.Hour), Owner: "demo"},
		{ID: "7", Name: "clip.mp4", Type: models.TypeVideo, Size: 1000, Path: "/Media/Video", ModifiedAt: testNow.Add(-time.Hour), Owner: "omar"},
	}
}

func newTestStore(t *testing.T, limit int64) (*Store, *recorder) {
	t.Helper()
	rec := &recorder{}
	n := 100
	s := New(Options{
		StorageLimit: limit,
		Publisher:    rec,
		Now:          func() time.Time { return testNow },
		NewID: func() string {
			n++
			return fmt.Sprintf("n%d", n)
		},
	})
	s.Load(fixture())
	return s, rec
}

func pathsByID(items []models.FileItem) map[string]string {
	m := make(map[string]string, len(items))
	for _, it := range items {
		m[it.ID] = it.Path
	}
	return m
}

func ids(items []models.FileItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	slices.Sort(out)
	return out
}

func names(items []models.FileItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Name)
	}
	return out
}

func TestResolve(t *testing.T) {
	s, _ := newTestStore(t, 0)

	tests := []struct {
		input string
		want  string
	}{
		{"", "/"},
		{"/", "/"},
		{"/design/assets", "/Design/Assets"},
		{"design//ASSETS/", "/Design/Assets"},
		{"/designs", "/Designs"},
		{"/media/video", "/Media/Video"},
		{"/design/New", "/Design/New"},
		{"/unknown/path", "/unknown/path"},
		{"/design/../designs", "/Designs"},
		{"/design/assets/..", "/Design"},
		{"/../design", "/Design"},
	}
	for _, tt := range tests {
		got := s.Resolve(tt.input)
		if got != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.input, got, tt.want)
		}
		if again := s.Resolve(got); again != got {
			t.Errorf("Resolve not idempotent: %q -> %q", got, again)
		}
	}
}

func TestResolvePrefersExplicitCasing(t *testing.T) {
	s := New(Options{})
	s.Load([]models.FileItem{
		{ID: "a", Name: "x.txt", Type: models.TypeDocument, Path: "/photos"},
		{ID: "b", Name: "Photos", Type: models.TypeFolder, Path: "/"},
	})
	if got := s.Resolve("/PHOTOS"); got != "/Photos" {
		t.Errorf("Resolve = %q, want /Photos", got)
	}
	if got := s.FolderNames("/"); !slices.Equal(got, []string{"Photos"}) {
		t.Errorf("FolderNames = %v", got)
	}

	sub, err := s.ListDir("/Photos")
	if err != nil {
		t.Fatalf("ListDir: %v", err)
	}
	if len(sub) != 1 || sub[0].ID != "a" || sub[0].Path != "/Photos" {
		t.Errorf("ListDir(/Photos) = %+v, want x.txt", sub)
	}
	tree := s.Tree()
	if len(tree.Children) != 1 || len(tree.Children[0].Children) != 1 {
		t.Errorf("tree should hold Photos/x.txt, got %+v", tree.Children)
	}

	removed, err := s.Delete("b")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(removed) != 2 || s.Len() != 0 {
		t.Errorf("delete cascade removed %d, %d left", len(removed), s.Len())
	}
}

func TestLoadMergesInferredCasing(t *testing.T) {
	s := New(Options{})
	s.Load([]models.FileItem{
		{ID: "a", Name: "a.txt", Type: models.TypeDocument, Path: "/Notes/2026"},
		{ID: "b", Name: "b.txt", Type: models.TypeDocument, Path: "/notes"},
	})
	items := s.Items()
	if items[0].Path != "/Notes/2026" || items[1].Path != "/Notes" {
		t.Errorf("paths = %q, %q; want /Notes/2026, /Notes", items[0].Path, items[1].Path)
	}
	list, err := s.ListDir("/Notes")
	if err != nil {
		t.Fatalf("ListDir: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("ListDir(/Notes) = %+v, want 2026 folder and b.txt", list)
	}
}

func TestCreateFolderDotDotParent(t *testing.T) {
	s, _ := newTestStore(t, 0)
	f, err := s.CreateFolder("/design/..", "Archive", "demo")
	if err != nil {
		t.Fatalf("CreateFolder: %v", err)
	}
	if f.Path != "/" {
		t.Errorf("Path = %q, want /", f.Path)
	}
}

func TestFolderNames(t *testing.T) {
	s, _ := newTestStore(t, 0)

	tests := []struct {
		dir  string
		want []string
	}{
		{"/", []string{"Design", "Designs", "Media"}},
		{"/Design", []string{"Assets"}},
		{"/Media", []string{"Video"}},
		{"/Media/Video", []string{}},
	}
	for _, tt := range tests {
		got := s.FolderNames(tt.dir)
		if !slices.Equal(got, tt.want) {
			t.Errorf("FolderNames(%q) = %v, want %v", tt.dir, got, tt.want)
		}
	}
}

func TestListDir(t *testing.T) {
	s, _ := newTestStore(t, 0)

	root, err := s.ListDir("/")
	if err != nil {
		t.Fatalf("ListDir: %v", err)
	}
	want := []string{"Design", "Designs", "Media", "notes.txt"}
	if got := names(root); !slices.Equal(got, want) {
		t.Fatalf("ListDir(/) = %v, want %v", got, want)
	}

	designs := root[1]
	if !designs.Virtual || designs.ID != "virtual:/Designs" {
		t.Errorf("expected virtual Designs, got %+v", designs)
	}
	if designs.Size != 200 {
		t.Errorf("virtual folder size = %d, want 200", designs.Size)
	}
	if root[0].Virtual {
		t.Error("explicit folder Design listed as virtual")
	}

	media := root[2]
	if !media.ModifiedAt.Equal(testNow.Add(-time.Hour)) || media.Owner != "omar" {
		t.Errorf("virtual folder should carry newest descendant, got %v %q", media.ModifiedAt, media.Owner)
	}

	if _, err := s.ListDir("/nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetVirtual(t *testing.T) {
	s, _ := newTestStore(t, 0)

	item, err := s.Get("virtual:/Media/Video")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if item.Path != "/Media" || item.Name != "Video" {
		t.Errorf("unexpected virtual folder %+v", item)
	}

	for _, id := range []string{"virtual:/Design", "virtual:/", "virtual:/Nothing", "missing"} {
		if _, err := s.Get(id); !errors.Is(err, ErrNotFound) {
			t.Errorf("Get(%q): expected ErrNotFound, got %v", id, err)
		}
	}
}

func TestTree(t *testing.T) {
	s, _ := newTestStore(t, 0)
	root := s.Tree()

	if root.FullPath != "/" || len(root.Children) != 4 {
		t.Fatalf("unexpected root %+v", root)
	}
	media := root.Children[2]
	if media.FullPath != "/Media" || len(media.Children) != 1 {
		t.Fatalf("unexpected Media node %+v", media)
	}
	video := media.Children[0]
	if len(video.Children) != 1 || video.Children[0].Item.Name != "clip.mp4" {
		t.Errorf("unexpected Video children %+v", video.Children)
	}
	design := root.Children[0]
	if got := len(design.Children); got != 2 {
		t.Errorf("Design children = %d, want 2", got)
	}
}

// checkRenameCascade verifies that only items under oldFull moved and
// that each moved by exactly the prefix swap.
func checkRenameCascade(t *testing.T, before, after []models.FileItem, folderID, oldFull, newFull string) {
	t.Helper()
	was := pathsByID(before)
	now := pathsByID(after)
	for id, p := range was {
		got := now[id]
		switch {
		case id == folderID:
			if got != p {
				t.Errorf("folder %s path changed %q -> %q", id, p, got)
			}
		case vpath.IsWithin(p, oldFull):
			if want := vpath.Rebase(p, oldFull, newFull); got != want {
				t.Errorf("descendant %s path = %q, want %q", id, got, want)
			}
		default:
			if got != p {
				t.Errorf("unrelated item %s changed %q -> %q", id, p, got)
			}
		}
	}
}

func TestRenameCascadeProperty(t *testing.T) {
	folders := []struct {
		id      string
		oldFull string
	}{
		{"1", "/Design"},
		{"3", "/Design/Assets"},
		{"virtual:/Designs", "/Designs"},
		{"virtual:/Media", "/Media"},
		{"virtual:/Media/Video", "/Media/Video"},
	}
	for _, f := range folders {
		t.Run(f.oldFull, func(t *testing.T) {
			s, rec := newTestStore(t, 0)
			before := s.Items()

			renamed, err := s.Rename(f.id, "Renamed")
			if err != nil {
				t.Fatalf("Rename: %v", err)
			}
			newFull := vpath.Join(vpath.Parent(f.oldFull), "Renamed")
			if FullPath(renamed) != newFull {
				t.Errorf("renamed full path = %q, want %q", FullPath(renamed), newFull)
			}
			checkRenameCascade(t, before, s.Items(), f.id, f.oldFull, newFull)

			e := rec.last()
			if e.Type != events.EventRename || e.OldPath != f.oldFull || e.Path != newFull {
				t.Errorf("unexpected event %+v", e)
			}
		})
	}
}

func TestRenameDesignLeavesDesigns(t *testing.T) {
	s, _ := newTestStore(t, 0)
	if _, err := s.Rename("1", "Brand"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	paths := pathsByID(s.Items())
	want := map[string]string{
		"1": "/", "2": "/Brand", "3": "/Brand", "4": "/Brand/Assets",
		"5": "/Designs", "6": "/", "7": "/Media/Video",
	}
	for id, p := range want {
		if paths[id] != p {
			t.Errorf("item %s path = %q, want %q", id, paths[id], p)
		}
	}
	if got := s.Resolve("/brand/assets"); got != "/Brand/Assets" {
		t.Errorf("Resolve after rename = %q", got)
	}
}

func TestRenameErrors(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		newName string
		wantErr error
	}{
		{"empty", "6", "   ", ErrEmptyName},
		{"slash", "6", "a/b", ErrInvalidName},
		{"dotdot", "6", "..", ErrInvalidName},
		{"collides with folder", "6", "design", ErrExists},
		{"collides with virtual folder", "1", "MEDIA", ErrExists},
		{"missing", "nope", "x", ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestStore(t, 0)
			before := s.Items()
			_, err := s.Rename(tt.id, tt.newName)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if !slices.Equal(before, s.Items()) {
				t.Error("failed rename modified the catalogue")
			}
		})
	}
}

func TestRenameCaseOnly(t *testing.T) {
	s, _ := newTestStore(t, 0)
	if _, err := s.Rename("1", "DESIGN"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if got := pathsByID(s.Items())["4"]; got != "/DESIGN/Assets" {
		t.Errorf("icon path = %q", got)
	}
}

func TestDeleteCascadeProperty(t *testing.T) {
	folders := []struct {
		id   string
		full string
	}{
		{"1", "/Design"},
		{"3", "/Design/Assets"},
		{"virtual:/Designs", "/Designs"},
		{"virtual:/Media", "/Media"},
	}
	for _, f := range folders {
		t.Run(f.full, func(t *testing.T) {
			s, _ := newTestStore(t, 0)
			before := s.Items()

			removed, err := s.Delete(f.id)
			if err != nil {
				t.Fatalf("Delete: %v", err)
			}
			after := s.Items()
			if len(before) != len(after)+len(removed) {
				t.Errorf("before=%d after=%d removed=%d", len(before), len(after), len(removed))
			}
			for _, it := range after {
				if vpath.IsWithin(it.Path, f.full) || FullPath(it) == f.full {
					t.Errorf("item %s survived under %s", FullPath(it), f.full)
				}
			}
			kept := pathsByID(after)
			for _, it := range before {
				inside := vpath.IsWithin(FullPath(it), f.full)
				if _, ok := kept[it.ID]; ok == inside {
					t.Errorf("item %s: inside=%v kept=%v", FullPath(it), inside, ok)
				}
			}
		})
	}
}

func TestDeleteDesignExample(t *testing.T) {
	s := New(Options{})
	s.Load([]models.FileItem{
		{ID: "folder", Name: "Design", Type: models.TypeFolder, Path: "/"},
		{ID: "logo", Name: "logo.png", Type: models.TypeImage, Path: "/Design"},
	})
	removed, err := s.Delete("folder")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got := ids(removed); !slices.Equal(got, []string{"folder", "logo"}) {
		t.Errorf("removed = %v", got)
	}
	if s.Len() != 0 {
		t.Errorf("expected empty catalogue, got %d items", s.Len())
	}
}

func TestDeleteFileOnly(t *testing.T) {
	s, rec := newTestStore(t, 0)
	removed, err := s.Delete("2")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(removed) != 1 || s.Len() != 6 {
		t.Errorf("removed %d, left %d", len(removed), s.Len())
	}
	if e := rec.last(); e.Type != events.EventDelete || e.Path != "/Design/logo.png" {
		t.Errorf("unexpected event %+v", e)
	}
}

func TestDeleteMany(t *testing.T) {
	s, _ := newTestStore(t, 0)

	if _, err := s.DeleteMany([]string{"6", "missing"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if s.Len() != 7 {
		t.Fatalf("failed batch should not delete, have %d items", s.Len())
	}

	removed, err := s.DeleteMany([]string{"1", "4", "6"})
	if err != nil {
		t.Fatalf("DeleteMany: %v", err)
	}
	if got := ids(removed); !slices.Equal(got, []string{"1", "2", "3", "4", "6"}) {
		t.Errorf("removed = %v", got)
	}
}

func TestCreateFolder(t *testing.T) {
	s, rec := newTestStore(t, 0)

	f, err := s.CreateFolder("/design", "  Drafts ", "demo")
	if err != nil {
		t.Fatalf("CreateFolder: %v", err)
	}
	if f.Path != "/Design" || f.Name != "Drafts" || !f.IsFolder() {
		t.Errorf("unexpected folder %+v", f)
	}
	if e := rec.last(); e.Type != events.EventCreate || e.Path != "/Design/Drafts" {
		t.Errorf("unexpected event %+v", e)
	}

	// virtual parents are valid
	if _, err := s.CreateFolder("/media", "Audio", "demo"); err != nil {
		t.Errorf("CreateFolder in virtual parent: %v", err)
	}

	tests := []struct {
		parent, name string
		wantErr      error
	}{
		{"/", "", ErrEmptyName},
		{"/", "   ", ErrEmptyName},
		{"/", "a/b", ErrInvalidName},
		{"/", "design", ErrExists},
		{"/", "DESIGNS", ErrExists},
		{"/", "NOTES.TXT", ErrExists},
		{"/missing", "x", ErrNotFound},
	}
	for _, tt := range tests {
		if _, err := s.CreateFolder(tt.parent, tt.name, "demo"); !errors.Is(err, tt.wantErr) {
			t.Errorf("CreateFolder(%q, %q): expected %v, got %v", tt.parent, tt.name, tt.wantErr, err)
		}
	}
}

func TestAddFiles(t *testing.T) {
	s, rec := newTestStore(t, 2000)

	added, err := s.AddFiles("/", []Upload{
		{Name: "notes.txt", Size: 1},
		{Name: "photo.PNG", Size: 2},
		{Name: "mix", Size: 3, Type: models.TypeAudio},
		{Name: "bad", Size: 4, Type: models.TypeFolder},
	}, "demo")
	if err != nil {
		t.Fatalf("AddFiles: %v", err)
	}
	want := []struct {
		name string
		typ  models.FileType
	}{
		{"notes (1).txt", models.TypeDocument},
		{"photo.PNG", models.TypeImage},
		{"mix", models.TypeAudio},
		{"bad", models.TypeDocument},
	}
	for i, w := range want {
		if added[i].Name != w.name || added[i].Type != w.typ {
			t.Errorf("added[%d] = %q %s, want %q %s", i, added[i].Name, added[i].Type, w.name, w.typ)
		}
		if !added[i].ModifiedAt.Equal(testNow) || added[i].Owner != "demo" {
			t.Errorf("added[%d] metadata %+v", i, added[i])
		}
	}
	if e := rec.last(); e.Type != events.EventUpload || e.Count != 4 {
		t.Errorf("unexpected event %+v", e)
	}

	again, err := s.AddFiles("/", []Upload{{Name: "notes.txt", Size: 1}}, "demo")
	if err != nil {
		t.Fatalf("AddFiles: %v", err)
	}
	if again[0].Name != "notes (2).txt" {
		t.Errorf("second duplicate named %q", again[0].Name)
	}
}

func TestAddFilesErrors(t *testing.T) {
	s, _ := newTestStore(t, 2000) // 1360 used

	tests := []struct {
		name    string
		dir     string
		uploads []Upload
		wantErr error
	}{
		{"quota", "/", []Upload{{Name: "a.bin", Size: 500}, {Name: "b.bin", Size: 200}}, ErrQuotaExceeded},
		{"empty name", "/", []Upload{{Name: "ok.txt"}, {Name: " "}}, ErrEmptyName},
		{"invalid name", "/", []Upload{{Name: "x/y.txt"}}, ErrInvalidName},
		{"missing dir", "/nowhere", []Upload{{Name: "a.txt"}}, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.AddFiles(tt.dir, tt.uploads, "demo"); !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
			if s.Len() != 7 {
				t.Errorf("failed upload changed catalogue size to %d", s.Len())
			}
		})
	}

	if _, err := s.AddFiles("/design/assets", []Upload{{Name: "fits.bin", Size: 640}}, "demo"); err != nil {
		t.Errorf("upload up to the limit: %v", err)
	}
}

func TestToggleStar(t *testing.T) {
	s, _ := newTestStore(t, 0)

	item, err := s.ToggleStar("4")
	if err != nil || item.IsStarred {
		t.Fatalf("ToggleStar = %+v, %v", item, err)
	}
	item, _ = s.ToggleStar("4")
	if !item.IsStarred {
		t.Error("second toggle should star again")
	}
	if _, err := s.ToggleStar("virtual:/Media"); !errors.Is(err, ErrVirtual) {
		t.Errorf("expected ErrVirtual, got %v", err)
	}
	if _, err := s.ToggleStar("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMove(t *testing.T) {
	s, rec := newTestStore(t, 0)

	moved, err := s.Move("3", "/media")
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if moved.Path != "/Media" {
		t.Errorf("moved path = %q", moved.Path)
	}
	paths := pathsByID(s.Items())
	if paths["4"] != "/Media/Assets" || paths["2"] != "/Design" {
		t.Errorf("unexpected paths %v", paths)
	}
	if e := rec.last(); e.Type != events.EventMove || e.OldPath != "/Design/Assets" || e.Path != "/Media/Assets" || e.Count != 1 {
		t.Errorf("unexpected event %+v", e)
	}

	if _, err := s.Move("6", "/Design"); err != nil {
		t.Errorf("Move file: %v", err)
	}

	tests := []struct {
		name    string
		id      string
		dest    string
		wantErr error
	}{
		{"into itself", "1", "/Design", ErrInvalidMove},
		{"into descendant", "virtual:/Media", "/media/assets", ErrInvalidMove},
		{"missing destination", "2", "/nowhere", ErrNotFound},
		{"missing item", "zzz", "/", ErrNotFound},
		{"same parent", "2", "/Design", nil},
	}
	for _, tt := range tests {
		_, err := s.Move(tt.id, tt.dest)
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.wantErr, err)
		}
	}

	if _, err := s.CreateFolder("/", "notes.txt", "demo"); err != nil {
		t.Fatalf("CreateFolder: %v", err)
	}
	if _, err := s.Move("6", "/"); !errors.Is(err, ErrExists) {
		t.Errorf("expected ErrExists, got %v", err)
	}
}

func TestSearch(t *testing.T) {
	s, _ := newTestStore(t, 0)

	tests := []struct {
		name  string
		query Query
		want  []string
	}{
		{"text on name and path", Query{Text: "DESIGN"}, []string{"Assets", "Design", "brief.pdf", "icon.svg", "logo.png"}},
		{"type", Query{Type: models.TypeImage}, []string{"icon.svg", "logo.png"}},
		{"starred", Query{Starred: true}, []string{"icon.svg"}},
		{"scoped", Query{Dir: "/design", Sort: SortSize, Desc: true}, []string{"logo.png", "icon.svg", "Assets"}},
		{"today", Query{Date: DateToday}, []string{"clip.mp4"}},
		{"week", Query{Date: DateWeek, Sort: SortDate}, []string{"notes.txt", "clip.mp4"}},
		{"year limit", Query{Date: DateYear, Sort: SortSize, Desc: true, Limit: 2}, []string{"clip.mp4", "brief.pdf"}},
		{"type sort", Query{Dir: "/designs", Sort: SortType}, []string{"brief.pdf"}},
		{"no match", Query{Text: "zzz"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := names(s.Search(tt.query))
			if !slices.Equal(got, tt.want) {
				t.Errorf("Search(%+v) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestSortItemsFoldersFirst(t *testing.T) {
	items := []models.FileItem{
		{Name: "b.txt"},
		{Name: "Zeta", Type: models.TypeFolder},
		{Name: "a.txt"},
		{Name: "alpha", Type: models.TypeFolder},
	}
	SortItems(items, SortName, true)
	want := []string{"Zeta", "alpha", "b.txt", "a.txt"}
	if got := names(items); !slices.Equal(got, want) {
		t.Errorf("SortItems desc = %v, want %v", got, want)
	}
}

func TestStats(t *testing.T) {
	s, _ := newTestStore(t, 2000)
	st := s.Stats(0)

	if st.Used != 1360 || st.Limit != 2000 || st.Free != 640 {
		t.Errorf("used=%d limit=%d free=%d", st.Used, st.Limit, st.Free)
	}
	if st.PercentUsed != 68 {
		t.Errorf("percent = %v, want 68", st.PercentUsed)
	}
	if st.Files != 5 || st.Folders != 2 || st.Starred != 1 {
		t.Errorf("files=%d folders=%d starred=%d", st.Files, st.Folders, st.Starred)
	}
	if st.ByType[0].Type != models.TypeImage || st.ByType[0].Count != 2 || st.ByType[0].Bytes != 150 {
		t.Errorf("image usage = %+v", st.ByType[0])
	}
	if len(st.Largest) != 5 || st.Largest[0].Name != "clip.mp4" {
		t.Errorf("largest = %v", names(st.Largest))
	}
	if st.Recent[0].Name != "clip.mp4" || st.Recent[1].Name != "notes.txt" {
		t.Errorf("recent = %v", names(st.Recent))
	}
	wantGrowth := []GrowthPoint{{Month: "2026-01", Bytes: 350}, {Month: "2026-03", Bytes: 1360}}
	if !slices.Equal(st.Growth, wantGrowth) {
		t.Errorf("growth = %v, want %v", st.Growth, wantGrowth)
	}

	if other := s.Stats(4000); other.Limit != 4000 || other.Free != 2640 {
		t.Errorf("explicit limit ignored: %+v", other)
	}
}

func TestAddFilesDoesNotModifyInput(t *testing.T) {
	s, _ := newTestStore(t, 0)
	uploads := []Upload{{Name: "  spaced.txt  ", Size: 1}}
	added, err := s.AddFiles("/", uploads, "demo")
	if err != nil {
		t.Fatalf("AddFiles: %v", err)
	}
	if uploads[0].Name != "  spaced.txt  " {
		t.Errorf("caller upload mutated: %q", uploads[0].Name)
	}
	if added[0].Name != "spaced.txt" {
		t.Errorf("stored name = %q, want spaced.txt", added[0].Name)
	}
}
