package downloader

import "errors"

var (
	// ErrTransport indicates the request failed or the stream broke mid-transfer
	ErrTransport = errors.New("download transport error")
	// ErrIO indicates the destination file could not be created or written
	ErrIO = errors.New("download i/o error")
	// ErrFileExists indicates the destination file is already present
	ErrFileExists = errors.New("file already exists")
	// ErrChecksumMismatch indicates a saved file doesn't hash to its content hash
	ErrChecksumMismatch = errors.New("checksum mismatch")
)
