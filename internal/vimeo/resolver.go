// Package vimeo provides the Vimeo upload client and folder URI resolution
package vimeo

import (
	"regexp"
)

// FolderRef identifies a Vimeo folder (project) and the context that owns
// it. A zero FolderRef means no folder: the video stays at the root of the
// authenticated account's library.
type FolderRef struct {
	FolderID string
	UserID   string
	TeamID   string
}

// IsZero reports whether the ref names no folder
func (r FolderRef) IsZero() bool {
	return r.FolderID == ""
}

// Folder URIs arrive in two shapes: the URL operators copy out of the
// Vimeo web UI, and the API-style URI. The web form never carries an
// owner, so assignment goes through the "me" context.
var (
	webFolderPattern = regexp.MustCompile(`vimeo\.com/manage/folders/(\d+)`)
	apiFolderPattern = regexp.MustCompile(`/(users|me|teams)(?:/(\d+))?/(albums|projects)/(\d+)`)
)

// ResolveFolder parses a worksheet Vimeo URI into a folder reference.
// Returns ok=false when the URI matches neither form; callers treat that
// as a root upload, not an error.
func ResolveFolder(uri string) (FolderRef, bool) {
	if uri == "" {
		return FolderRef{}, false
	}

	if m := webFolderPattern.FindStringSubmatch(uri); m != nil {
		return FolderRef{FolderID: m[1]}, true
	}

	if m := apiFolderPattern.FindStringSubmatch(uri); m != nil {
		ref := FolderRef{FolderID: m[4]}
		switch m[1] {
		case "users":
			ref.UserID = m[2]
		case "teams":
			ref.TeamID = m[2]
		}
		return ref, true
	}

	return FolderRef{}, false
}
