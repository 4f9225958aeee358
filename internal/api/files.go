package api

import (
	"net/http"
	"strconv"

	"github.com/mdmarufa/cloudex/internal/auth"
	"github.com/mdmarufa/cloudex/internal/vfs"
	"github.com/mdmarufa/cloudex/internal/viewstate"
	"github.com/mdmarufa/cloudex/pkg/models"
	"github.com/mdmarufa/cloudex/pkg/protocol"
	"github.com/mdmarufa/cloudex/pkg/vpath"
)

// ─── Queries ────────────────────────────────────────────────────────────────

// fileQuery builds a catalogue query from the view-state parameters plus
// the listing-only "path", "starred" and "limit" parameters.
func fileQuery(r *http.Request) (vfs.Query, error) {
	v := r.URL.Query()
	st, err := viewstate.Parse(v)
	if err != nil {
		return vfs.Query{}, err
	}
	q := st.SearchQuery()
	q.Dir = v.Get("path")
	q.Starred, _ = strconv.ParseBool(v.Get("starred"))
	if n, err := strconv.Atoi(v.Get("limit")); err == nil && n > 0 {
		q.Limit = n
	}
	return q, nil
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	q, err := fileQuery(r)
	if err != nil {
		s.sendDomainError(w, r, err)
		return
	}
	items := s.files.Search(q)
	s.sendJSON(w, http.StatusOK, protocol.ListResponse{Path: q.Dir, Items: items, Total: len(items)})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q, err := fileQuery(r)
	if err != nil {
		s.sendDomainError(w, r, err)
		return
	}
	items := s.files.Search(q)
	s.sendJSON(w, http.StatusOK, protocol.ListResponse{Items: items, Total: len(items)})
}

func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	item, err := s.files.Get(r.PathValue("id"))
	if err != nil {
		s.sendDomainError(w, r, err)
		return
	}
	s.sendJSON(w, http.StatusOK, item)
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, protocol.TreeResponse{Root: s.files.Tree()})
}

// handleListDir lists one directory. The path is resolved case-insensitively
// first, so /api/v1/dir/design/assets lists /Design/Assets.
func (s *Server) handleListDir(w http.ResponseWriter, r *http.Request) {
	dir := s.files.Resolve(r.PathValue("path"))
	items, err := s.files.ListDir(dir)
	if err != nil {
		s.sendDomainError(w, r, err)
		return
	}

	v := r.URL.Query()
	if v.Has(viewstate.ParamSort) || v.Has(viewstate.ParamOrder) {
		st, err := viewstate.Parse(v)
		if err != nil {
			s.sendDomainError(w, r, err)
			return
		}
		vfs.SortItems(items, st.Sort, st.Order == viewstate.OrderDesc)
	}
	s.sendJSON(w, http.StatusOK, protocol.ListResponse{Path: dir, Items: items, Total: len(items)})
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	input := r.URL.Query().Get("path")
	resolved := s.files.Resolve(input)
	s.sendJSON(w, http.StatusOK, protocol.ResolveResponse{
		Input:  input,
		Path:   resolved,
		Exists: s.files.DirExists(resolved),
	})
}

// ─── Mutations ──────────────────────────────────────────────────────────────

func (s *Server) handleCreateFolder(w http.ResponseWriter, r *http.Request) {
	var req protocol.CreateFolderRequest
	if err := decodeJSON(r, &req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Parent == "" {
		req.Parent = vpath.Root
	}

	folder, err := s.files.CreateFolder(s.files.Resolve(req.Parent), req.Name, s.ownerName(r))
	if err != nil {
		s.sendDomainError(w, r, err)
		return
	}
	s.sendJSON(w, http.StatusCreated, folder)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	var req protocol.UploadRequest
	if err := decodeJSON(r, &req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Files) == 0 {
		s.sendError(w, http.StatusBadRequest, "no files to upload")
		return
	}

	uploads := make([]vfs.Upload, len(req.Files))
	for i, f := range req.Files {
		uploads[i] = vfs.Upload{Name: f.Name, Size: f.Size, Type: f.Type}
	}
	dir := s.files.Resolve(req.Path)
	items, err := s.files.AddFiles(dir, uploads, s.ownerName(r))
	if err != nil {
		s.sendDomainError(w, r, err)
		return
	}
	s.sendJSON(w, http.StatusCreated, protocol.ListResponse{Path: dir, Items: items, Total: len(items)})
}

func (s *Server) handleRename(w http.ResponseWriter, r *http.Request) {
	var req protocol.RenameRequest
	if err := decodeJSON(r, &req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	item, err := s.files.Rename(r.PathValue("id"), req.Name)
	if err != nil {
		s.sendDomainError(w, r, err)
		return
	}
	s.sendJSON(w, http.StatusOK, item)
}

func (s *Server) handleStar(w http.ResponseWriter, r *http.Request) {
	item, err := s.files.ToggleStar(r.PathValue("id"))
	if err != nil {
		s.sendDomainError(w, r, err)
		return
	}
	s.sendJSON(w, http.StatusOK, item)
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req protocol.MoveRequest
	if err := decodeJSON(r, &req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	item, err := s.files.Move(r.PathValue("id"), s.files.Resolve(req.Destination))
	if err != nil {
		s.sendDomainError(w, r, err)
		return
	}
	s.sendJSON(w, http.StatusOK, item)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	removed, err := s.files.Delete(r.PathValue("id"))
	if err != nil {
		s.sendDomainError(w, r, err)
		return
	}
	s.sendJSON(w, http.StatusOK, protocol.DeleteResponse{Removed: removed, Count: len(removed)})
}

func (s *Server) handleBulkDelete(w http.ResponseWriter, r *http.Request) {
	var req protocol.BulkDeleteRequest
	if err := decodeJSON(r, &req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.IDs) == 0 {
		s.sendError(w, http.StatusBadRequest, "no ids given")
		return
	}
	removed, err := s.files.DeleteMany(req.IDs)
	if err != nil {
		s.sendDomainError(w, r, err)
		return
	}
	s.sendJSON(w, http.StatusOK, protocol.DeleteResponse{Removed: removed, Count: len(removed)})
}

// ─── Stats ──────────────────────────────────────────────────────────────────

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	var limit int64
	if u, ok := s.currentUser(r); ok {
		limit = u.StorageLimit
	}
	s.sendJSON(w, http.StatusOK, s.files.Stats(limit))
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func (s *Server) currentUser(r *http.Request) (models.User, bool) {
	claims := auth.GetClaims(r.Context())
	if claims == nil {
		return models.User{}, false
	}
	return s.auth.User(claims.UserID)
}

// ownerName is the owner recorded on items the caller creates.
func (s *Server) ownerName(r *http.Request) string {
	if claims := auth.GetClaims(r.Context()); claims != nil {
		return claims.Username
	}
	return ""
}
