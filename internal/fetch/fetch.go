// Package fetch resolves remote media metadata and downloads audio via yt-dlp.
package fetch

import (
	"context"
	"errors"
)

// ErrFetch wraps failures talking to the downloader. Callers match it with
// errors.Is to distinguish network trouble from programming errors.
var ErrFetch = errors.New("fetch failed")

// Metadata is the subset of media metadata the pipeline needs.
type Metadata struct {
	ID       string
	Title    string
	Duration float64
	URL      string
}

// Options tunes a single download.
type Options struct {
	// Directory receives the downloaded file.
	Directory string
	// Format is the yt-dlp format selector.
	Format string
	// CookiesFile is an optional Netscape cookies file for gated content.
	CookiesFile string
	// ConcurrentFragments controls parallel fragment downloads.
	ConcurrentFragments int
}

// Fetcher abstracts the downloader so the pipeline can be tested without
// touching the network. All three calls honor opts.CookiesFile; age-restricted
// media needs cookies even for metadata resolution.
type Fetcher interface {
	// ResolveMetadata fetches title and identifier without downloading media.
	ResolveMetadata(ctx context.Context, url string, opts Options) (Metadata, error)
	// Download fetches the audio track into opts.Directory. The output file
	// name embeds the media identifier so the asset index can locate it.
	Download(ctx context.Context, url string, opts Options) error
	// ListEntries expands a playlist or account URL into individual media URLs.
	ListEntries(ctx context.Context, url string, opts Options) ([]string, error)
}
