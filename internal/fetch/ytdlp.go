package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lrstanley/go-ytdlp"
)

// outputTemplate names downloads "<title> [<id>].<ext>" so the identifier is
// recoverable from the filename alone.
const outputTemplate = "%(title)s [%(id)s].%(ext)s"

// mediaInfo mirrors the fields we read from yt-dlp's --dump-json output.
type mediaInfo struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Duration    float64 `json:"duration"`
	WebpageURL  string  `json:"webpage_url"`
	OriginalURL string  `json:"original_url"`
	URL         string  `json:"url"`
}

// YTDLP implements Fetcher using the yt-dlp binary.
type YTDLP struct {
	logger *slog.Logger
}

// NewYTDLP returns a Fetcher backed by yt-dlp.
func NewYTDLP(logger *slog.Logger) *YTDLP {
	return &YTDLP{logger: logger}
}

func (f *YTDLP) ResolveMetadata(ctx context.Context, url string, opts Options) (Metadata, error) {
	cmd := ytdlp.New().
		DumpJSON().
		SkipDownload().
		NoPlaylist().
		Quiet()

	if opts.CookiesFile != "" {
		cmd = cmd.Cookies(opts.CookiesFile)
	}

	result, err := cmd.Run(ctx, url)
	if err != nil {
		return Metadata{}, fmt.Errorf("%w: resolve metadata for %s: %v", ErrFetch, url, err)
	}

	var info mediaInfo
	if err := json.Unmarshal([]byte(firstJSONLine(result.Stdout)), &info); err != nil {
		return Metadata{}, fmt.Errorf("%w: parse metadata for %s: %v", ErrFetch, url, err)
	}
	if info.ID == "" {
		return Metadata{}, fmt.Errorf("%w: no media id in metadata for %s", ErrFetch, url)
	}

	meta := Metadata{ID: info.ID, Title: info.Title, Duration: info.Duration, URL: info.WebpageURL}
	if meta.URL == "" {
		meta.URL = url
	}
	f.logger.Debug("resolved metadata", "identifier", meta.ID, "title", meta.Title)
	return meta, nil
}

func (f *YTDLP) Download(ctx context.Context, url string, opts Options) error {
	cmd := ytdlp.New().
		Format(opts.Format).
		Output(outputTemplate).
		Paths(opts.Directory).
		NoPlaylist().
		Quiet()

	if opts.CookiesFile != "" {
		cmd = cmd.Cookies(opts.CookiesFile)
	}
	if opts.ConcurrentFragments > 0 {
		cmd = cmd.ConcurrentFragments(opts.ConcurrentFragments)
	}

	f.logger.Info("downloading audio", "url", url)
	if _, err := cmd.Run(ctx, url); err != nil {
		return fmt.Errorf("%w: download %s: %v", ErrFetch, url, err)
	}
	return nil
}

func (f *YTDLP) ListEntries(ctx context.Context, url string, opts Options) ([]string, error) {
	cmd := ytdlp.New().
		FlatPlaylist().
		DumpJSON().
		SkipDownload().
		Quiet()

	if opts.CookiesFile != "" {
		cmd = cmd.Cookies(opts.CookiesFile)
	}

	result, err := cmd.Run(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: list entries for %s: %v", ErrFetch, url, err)
	}

	var urls []string
	for _, line := range strings.Split(result.Stdout, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !strings.HasPrefix(line, "{") {
			continue
		}
		var info mediaInfo
		if err := json.Unmarshal([]byte(line), &info); err != nil {
			f.logger.Debug("skipping unparseable playlist entry", "error", err)
			continue
		}
		entry := info.WebpageURL
		if entry == "" {
			entry = info.URL
		}
		if entry == "" && info.ID != "" {
			entry = "https://www.youtube.com/watch?v=" + info.ID
		}
		if entry != "" {
			urls = append(urls, entry)
		}
	}

	if len(urls) == 0 {
		return nil, fmt.Errorf("%w: no entries found for %s", ErrFetch, url)
	}
	f.logger.Info("expanded listing", "url", url, "entries", len(urls))
	return urls, nil
}

// firstJSONLine returns the first non-empty line of yt-dlp output, which for
// --dump-json of a single item is the whole JSON document.
func firstJSONLine(out string) string {
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "{") {
			return line
		}
	}
	return out
}
