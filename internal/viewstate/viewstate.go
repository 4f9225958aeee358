// Package viewstate parses and encodes the dashboard view state carried in
// URL query parameters.
package viewstate

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/mdmarufa/cloudex/internal/vfs"
	"github.com/mdmarufa/cloudex/pkg/models"
)

// Query parameter names.
const (
	ParamModal  = "modal"
	ParamFileID = "fileId"
	ParamQuery  = "q"
	ParamType   = "type"
	ParamDate   = "date"
	ParamSort   = "sort"
	ParamOrder  = "order"
	ParamView   = "view"
)

const (
	OrderAsc  = "asc"
	OrderDesc = "desc"

	ViewGrid = "grid"
	ViewList = "list"

	TypeAll = "all"
)

// Modals that can be opened through the URL.
const (
	ModalNewFolder = "newFolder"
	ModalUpload    = "upload"
	ModalSearch    = "search"
	ModalInbox     = "inbox"
	ModalPreview   = "preview"
	ModalRename    = "rename"
	ModalMove      = "move"
	ModalDelete    = "delete"
	ModalDetails   = "details"
)

var (
	ErrInvalidValue = errors.New("invalid view state value")
	ErrMissingFile  = errors.New("modal requires fileId")
)

var modals = map[string]bool{
	ModalNewFolder: false,
	ModalUpload:    false,
	ModalSearch:    false,
	ModalInbox:     false,
	ModalPreview:   true,
	ModalRename:    true,
	ModalMove:      true,
	ModalDelete:    true,
	ModalDetails:   true,
}

// State is the normalized view state. Type is TypeAll or a lower-case
// file type name.
type State struct {
	Modal  string `json:"modal,omitempty"`
	FileID string `json:"fileId,omitempty"`
	Query  string `json:"q,omitempty"`
	Type   string `json:"type"`
	Date   string `json:"date"`
	Sort   string `json:"sort"`
	Order  string `json:"order"`
	View   string `json:"view"`
}

// Default returns the state of a bare dashboard URL.
func Default() State {
	return State{
		Type:  TypeAll,
		Date:  vfs.DateAll,
		Sort:  vfs.SortName,
		Order: OrderAsc,
		View:  ViewGrid,
	}
}

// Parse reads the view state from query values. Invalid values fall back
// to their defaults; the returned error lists every rejected parameter.
func Parse(v url.Values) (State, error) {
	st := Default()
	var errs []error
	reject := func(param, value string) {
		errs = append(errs, fmt.Errorf("%w: %s=%q", ErrInvalidValue, param, value))
	}

	st.Query = strings.TrimSpace(v.Get(ParamQuery))
	st.FileID = strings.TrimSpace(v.Get(ParamFileID))

	if t := strings.ToLower(strings.TrimSpace(v.Get(ParamType))); t != "" && t != TypeAll {
		if ft, ok := models.ParseFileType(t); ok {
			st.Type = strings.ToLower(string(ft))
		} else {
			reject(ParamType, t)
		}
	}
	if d := strings.ToLower(strings.TrimSpace(v.Get(ParamDate))); d != "" {
		if vfs.ValidDate(d) {
			st.Date = d
		} else {
			reject(ParamDate, d)
		}
	}
	if s := strings.ToLower(strings.TrimSpace(v.Get(ParamSort))); s != "" {
		if vfs.ValidSort(s) {
			st.Sort = s
		} else {
			reject(ParamSort, s)
		}
	}
	switch o := strings.ToLower(strings.TrimSpace(v.Get(ParamOrder))); o {
	case "":
	case OrderAsc, OrderDesc:
		st.Order = o
	default:
		reject(ParamOrder, o)
	}
	switch view := strings.ToLower(strings.TrimSpace(v.Get(ParamView))); view {
	case "":
	case ViewGrid, ViewList:
		st.View = view
	default:
		reject(ParamView, view)
	}

	if m := strings.TrimSpace(v.Get(ParamModal)); m != "" {
		needsFile, ok := modals[m]
		switch {
		case !ok:
			reject(ParamModal, m)
		case needsFile && st.FileID == "":
			errs = append(errs, fmt.Errorf("%w: %s", ErrMissingFile, m))
		default:
			st.Modal = m
		}
	}
	if st.Modal == "" || !modals[st.Modal] {
		st.FileID = ""
	}

	return st, errors.Join(errs...)
}

// Encode writes the state back as query values, leaving out defaults.
func (s State) Encode() url.Values {
	d := Default()
	v := url.Values{}
	set := func(key, val, def string) {
		if val != "" && val != def {
			v.Set(key, val)
		}
	}
	set(ParamModal, s.Modal, "")
	set(ParamFileID, s.FileID, "")
	set(ParamQuery, s.Query, "")
	set(ParamType, s.Type, d.Type)
	set(ParamDate, s.Date, d.Date)
	set(ParamSort, s.Sort, d.Sort)
	set(ParamOrder, s.Order, d.Order)
	set(ParamView, s.View, d.View)
	return v
}

// FileType returns the filtered type, or "" for all types.
func (s State) FileType() models.FileType {
	if s.Type == "" || s.Type == TypeAll {
		return ""
	}
	ft, _ := models.ParseFileType(s.Type)
	return ft
}

// SearchQuery converts the state into a catalogue query.
func (s State) SearchQuery() vfs.Query {
	return vfs.Query{
		Text: s.Query,
		Type: s.FileType(),
		Date: s.Date,
		Sort: s.Sort,
		Desc: s.Order == OrderDesc,
	}
}
