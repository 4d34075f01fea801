package libgen

import "errors"

var (
	// ErrUnreachable indicates a mirror could not be contacted
	ErrUnreachable = errors.New("couldn't connect to mirror")
	// ErrBadResponse indicates a mirror answered but the body could not be read
	ErrBadResponse = errors.New("couldn't read mirror response")
	// ErrNotFound indicates a search produced no content hash
	ErrNotFound = errors.New("no hash found")
	// ErrMisconfigured indicates the mirror lacks a URL the operation needs
	ErrMisconfigured = errors.New("mirror is missing a required url")
	// ErrLinkNotFound indicates the download page had no recognizable file link
	ErrLinkNotFound = errors.New("couldn't find download link")
	// ErrUnsupportedHost indicates no dialect is known for the mirror
	ErrUnsupportedHost = errors.New("unsupported download mirror")
)
