// Package references turns user-supplied media sources into ordered batches
// of canonical references with stable identifiers.
package references

import (
	"bufio"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"bdetect/internal/fileutil"
)

// ErrNoReferences indicates a source expanded to an empty batch.
var ErrNoReferences = errors.New("no references found")

// Kind classifies what a source string points at.
type Kind int

const (
	// KindUnknown is an unclassifiable source.
	KindUnknown Kind = iota
	// KindSingle is a URL for one media item.
	KindSingle
	// KindLocalFile is an audio file already on disk.
	KindLocalFile
	// KindListFile is a text file holding one URL per line.
	KindListFile
	// KindPlaylist is a playlist URL.
	KindPlaylist
	// KindAccount is a channel or account page.
	KindAccount
)

func (k Kind) String() string {
	switch k {
	case KindSingle:
		return "single"
	case KindLocalFile:
		return "local file"
	case KindListFile:
		return "list file"
	case KindPlaylist:
		return "playlist"
	case KindAccount:
		return "account"
	default:
		return "unknown"
	}
}

// Reference is one unit of work: a canonical URL or local path plus the
// identifier used for ledger and cache lookups.
type Reference struct {
	// Source is the canonical URL, or the absolute path for local files.
	Source string
	// Identifier keys the ledger and the asset cache.
	Identifier string
	// Local marks references that are files already on disk.
	Local bool
}

// Classify determines what a source string refers to. Local paths are checked
// against the filesystem; everything else is judged by URL shape.
func Classify(source string) Kind {
	source = strings.TrimSpace(source)
	if source == "" {
		return KindUnknown
	}

	if !strings.Contains(source, "://") {
		info, err := os.Stat(source)
		if err != nil || info.IsDir() {
			return KindUnknown
		}
		if strings.EqualFold(filepath.Ext(source), ".txt") {
			return KindListFile
		}
		return KindLocalFile
	}

	u, err := url.Parse(source)
	if err != nil {
		return KindUnknown
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	path := u.Path

	switch {
	case host == "youtube.com" || host == "m.youtube.com":
		if strings.HasPrefix(path, "/playlist") {
			return KindPlaylist
		}
		if strings.HasPrefix(path, "/@") || strings.HasPrefix(path, "/channel/") ||
			strings.HasPrefix(path, "/c/") || strings.HasPrefix(path, "/user/") {
			return KindAccount
		}
		return KindSingle
	case host == "youtu.be":
		return KindSingle
	case host == "tiktok.com":
		if strings.Contains(path, "/video/") {
			return KindSingle
		}
		if strings.HasPrefix(path, "/@") {
			return KindAccount
		}
		return KindUnknown
	case host == "twitch.tv":
		if strings.HasPrefix(path, "/videos/") || strings.Contains(path, "/clip/") {
			return KindSingle
		}
		if strings.Count(strings.Trim(path, "/"), "/") == 0 && path != "/" {
			return KindAccount
		}
		return KindUnknown
	case host == "clips.twitch.tv":
		return KindSingle
	}

	return KindSingle
}

// Canonicalize rewrites a URL to its canonical form: shorts and youtu.be
// links become watch URLs and playlist context parameters are stripped.
func Canonicalize(source string) string {
	source = strings.TrimSpace(source)
	u, err := url.Parse(source)
	if err != nil || u.Host == "" {
		return source
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")

	switch host {
	case "youtube.com", "m.youtube.com":
		if strings.HasPrefix(u.Path, "/shorts/") {
			id := strings.Trim(strings.TrimPrefix(u.Path, "/shorts/"), "/")
			return "https://www.youtube.com/watch?v=" + id
		}
		if u.Path == "/watch" {
			v := u.Query().Get("v")
			if v != "" {
				return "https://www.youtube.com/watch?v=" + v
			}
		}
	case "youtu.be":
		id := strings.Trim(u.Path, "/")
		if id != "" {
			return "https://www.youtube.com/watch?v=" + id
		}
	}

	return source
}

// Identifier extracts the stable identifier from a canonical URL. Sources
// with no recognizable identifier fall back to the full string so repeat
// runs still converge.
func Identifier(source string) string {
	u, err := url.Parse(source)
	if err != nil || u.Host == "" {
		return source
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")

	switch host {
	case "youtube.com", "m.youtube.com":
		if v := u.Query().Get("v"); v != "" {
			return v
		}
		if strings.HasPrefix(u.Path, "/shorts/") {
			return strings.Trim(strings.TrimPrefix(u.Path, "/shorts/"), "/")
		}
	case "youtu.be":
		if id := strings.Trim(u.Path, "/"); id != "" {
			return id
		}
	case "tiktok.com":
		if idx := strings.Index(u.Path, "/video/"); idx >= 0 {
			id := strings.Trim(u.Path[idx+len("/video/"):], "/")
			if id != "" {
				return id
			}
		}
	case "twitch.tv":
		if strings.HasPrefix(u.Path, "/videos/") {
			if id := strings.Trim(strings.TrimPrefix(u.Path, "/videos/"), "/"); id != "" {
				return id
			}
		}
		if idx := strings.Index(u.Path, "/clip/"); idx >= 0 {
			if id := strings.Trim(u.Path[idx+len("/clip/"):], "/"); id != "" {
				return id
			}
		}
	case "clips.twitch.tv":
		if id := strings.Trim(u.Path, "/"); id != "" {
			return id
		}
	}

	return source
}

// Single builds the one-element batch for a direct URL.
func Single(source string) Reference {
	canonical := Canonicalize(source)
	return Reference{Source: canonical, Identifier: Identifier(canonical)}
}

// LocalFile builds the reference for an on-disk audio file. The identifier is
// the absolute path so the cache check trivially succeeds.
func LocalFile(path string) (Reference, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Reference{}, fmt.Errorf("resolve local path %s: %w", path, err)
	}
	return Reference{Source: abs, Identifier: abs, Local: true}, nil
}

// FromListFile reads a text file of URLs, one per line, and returns the
// canonical references in file order with duplicates removed.
func FromListFile(path string) ([]Reference, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open list file %s: %w", path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read list file %s: %w", path, err)
	}

	refs := FromURLs(lines)
	if len(refs) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoReferences, path)
	}
	return refs, nil
}

// FromURLs canonicalizes a slice of URLs, dropping blanks, comments and
// duplicate identifiers while preserving first-seen order.
func FromURLs(urls []string) []Reference {
	seen := make(map[string]struct{}, len(urls))
	refs := make([]Reference, 0, len(urls))
	for _, raw := range urls {
		raw = strings.TrimSpace(raw)
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		ref := Single(raw)
		if _, dup := seen[ref.Identifier]; dup {
			continue
		}
		seen[ref.Identifier] = struct{}{}
		refs = append(refs, ref)
	}
	return refs
}

// AccountSlug extracts a filesystem-safe name for an account URL, used to
// name the per-account URL cache file.
func AccountSlug(source string) string {
	u, err := url.Parse(source)
	if err != nil {
		return sanitizeSlug(source)
	}
	path := strings.Trim(u.Path, "/")
	for _, prefix := range []string{"@", "channel/", "c/", "user/"} {
		if strings.HasPrefix(path, prefix) {
			path = strings.TrimPrefix(path, prefix)
			break
		}
	}
	if idx := strings.IndexByte(path, '/'); idx >= 0 {
		path = path[:idx]
	}
	if path == "" {
		path = u.Hostname()
	}
	return sanitizeSlug(path)
}

func sanitizeSlug(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// AccountCachePath returns where the cached URL listing for an account lives.
func AccountCachePath(dir, source string) string {
	return filepath.Join(dir, "urls-"+AccountSlug(source)+".txt")
}

// ReadAccountCache loads a previously cached account URL listing. A missing
// file returns ok=false without error.
func ReadAccountCache(path string) ([]string, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("open account cache %s: %w", path, err)
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			urls = append(urls, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, false, fmt.Errorf("read account cache %s: %w", path, err)
	}
	return urls, true, nil
}

// WriteAccountCache saves an account URL listing for reuse on later runs.
func WriteAccountCache(path string, urls []string) error {
	if err := fileutil.WriteLines(path, urls); err != nil {
		return fmt.Errorf("write account cache: %w", err)
	}
	return nil
}
