// Package models contains the data types shared by the server, the client
// and the command-line tool.
package models

import (
	"strings"
	"time"
)

// FileType classifies a catalogue entry.
type FileType string

const (
	TypeImage    FileType = "IMAGE"
	TypeDocument FileType = "DOCUMENT"
	TypeVideo    FileType = "VIDEO"
	TypeAudio    FileType = "AUDIO"
	TypeArchive  FileType = "ARCHIVE"
	TypeFolder   FileType = "FOLDER"
)

// FileTypes lists every type in display order.
var FileTypes = []FileType{TypeFolder, TypeImage, TypeDocument, TypeVideo, TypeAudio, TypeArchive}

// ParseFileType parses a type name case-insensitively.
func ParseFileType(s string) (FileType, bool) {
	t := FileType(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range FileTypes {
		if t == known {
			return t, true
		}
	}
	return "", false
}

// TypeFromName infers a file type from the extension of name.
// Unknown extensions are documents.
func TypeFromName(name string) FileType {
	i := strings.LastIndex(name, ".")
	if i < 0 || i == len(name)-1 {
		return TypeDocument
	}
	switch strings.ToLower(name[i+1:]) {
	case "jpg", "jpeg", "png", "gif", "webp", "svg", "bmp", "tiff", "ico", "heic", "heif", "raw", "fig", "psd", "sketch":
		return TypeImage
	case "mp4", "mov", "avi", "mkv", "webm", "flv", "wmv", "m4v":
		return TypeVideo
	case "mp3", "wav", "flac", "aac", "ogg", "wma", "m4a":
		return TypeAudio
	case "zip", "tar", "gz", "tgz", "bz2", "7z", "rar", "xz", "zst":
		return TypeArchive
	default:
		return TypeDocument
	}
}

// FileItem is one record of the flat catalogue. Path is the parent
// directory of the item, not its own full path.
type FileItem struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Type       FileType  `json:"type"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modifiedAt"`
	Owner      string    `json:"owner"`
	IsStarred  bool      `json:"isStarred"`
	Path       string    `json:"path"`

	// Virtual is set on folders synthesized from descendant paths.
	Virtual bool `json:"virtual,omitempty"`
}

// IsFolder reports whether the item is a folder.
func (f FileItem) IsFolder() bool {
	return f.Type == TypeFolder
}

// TreeNode is a nested view over the flat catalogue.
type TreeNode struct {
	Item     FileItem    `json:"item"`
	FullPath string      `json:"fullPath"`
	Children []*TreeNode `json:"children,omitempty"`
}

// User is a dashboard account.
type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	DisplayName  string `json:"displayName"`
	Email        string `json:"email"`
	StorageLimit int64  `json:"storageLimit"`
}
