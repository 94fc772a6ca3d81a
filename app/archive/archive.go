// Package archive downloads the application source archive and places its content into the install directory.
package archive

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	log "github.com/go-pkgz/lgr"
)

// Repeater repeats failed function
type Repeater interface {
	Do(ctx context.Context, fun func() error, errors ...error) (err error)
}

// errClientStatus is returned for 4xx responses, repeater stops on it
var errClientStatus = errors.New("client error status")

// Fetcher gets remote resources with retries
type Fetcher struct {
	Client    *http.Client
	Repeater  Repeater
	UserAgent string
}

// URL returns the archive URL. Explicit zipURL wins, otherwise GitHub branch archive is used.
func URL(repo, branch, zipURL string) string {
	if zipURL != "" {
		return zipURL
	}
	return fmt.Sprintf("https://github.com/%s/archive/refs/heads/%s.zip", strings.Trim(repo, "/"), branch)
}

// Download saves url to dst. Partial content goes to dst.part and renamed on success.
func (f *Fetcher) Download(ctx context.Context, url, dst string) error {
	log.Printf("[INFO] download %s", url)
	tmp := dst + ".part"
	err := f.repeat(ctx, url, func(body io.Reader) error {
		fh, err := os.Create(tmp) // nolint gosec
		if err != nil {
			return fmt.Errorf("can't create %s: %w", tmp, err)
		}
		n, err := io.Copy(fh, body)
		if closeErr := fh.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		if err != nil {
			return fmt.Errorf("failed to save %s: %w", tmp, err)
		}
		log.Printf("[DEBUG] downloaded %d bytes from %s", n, url)
		return nil
	})
	if err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, dst); err != nil {
		return fmt.Errorf("can't rename %s to %s: %w", tmp, dst, err)
	}
	return nil
}

// Fetch gets url content into memory, for small text resources
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	var res []byte
	err := f.repeat(ctx, url, func(body io.Reader) (err error) {
		res, err = io.ReadAll(io.LimitReader(body, 4*1024*1024))
		return err
	})
	return res, err
}

// repeat makes GET request and passes body to fn, retrying on network errors and 5xx
func (f *Fetcher) repeat(ctx context.Context, url string, fn func(body io.Reader) error) error {
	var statusErr error
	err := f.Repeater.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
		if err != nil {
			return fmt.Errorf("can't make request for %s: %w", url, err)
		}
		if f.UserAgent != "" {
			req.Header.Set("User-Agent", f.UserAgent)
		}
		resp, err := f.client().Do(req)
		if err != nil {
			log.Printf("[DEBUG] request %s failed, %v", url, err)
			return fmt.Errorf("request %s failed: %w", url, err)
		}
		defer resp.Body.Close() // nolint
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			statusErr = fmt.Errorf("unexpected status %d for %s", resp.StatusCode, url)
			return errClientStatus
		}
		if resp.StatusCode != http.StatusOK {
			log.Printf("[DEBUG] request %s returned %d", url, resp.StatusCode)
			return fmt.Errorf("unexpected status %d for %s", resp.StatusCode, url)
		}
		return fn(resp.Body)
	}, errClientStatus)

	if errors.Is(err, errClientStatus) && statusErr != nil {
		return statusErr
	}
	return err
}

func (f *Fetcher) client() *http.Client {
	if f.Client != nil {
		return f.Client
	}
	return &http.Client{Timeout: 5 * time.Minute}
}

// Extract unpacks zip file into dest and returns the list of extracted files, relative to dest.
// A single top-level directory shared by all entries (GitHub archives have "repo-branch/") is stripped.
// Entries escaping dest are skipped.
func Extract(zipFile, dest string) ([]string, error) {
	zr, err := zip.OpenReader(zipFile)
	if err != nil {
		return nil, fmt.Errorf("can't open archive %s: %w", zipFile, err)
	}
	defer zr.Close() // nolint

	strip := commonRoot(zr.File)
	if strip != "" {
		log.Printf("[DEBUG] strip top-level directory %q", strip)
	}

	files := []string{}
	for _, zf := range zr.File {
		name := strings.TrimPrefix(filepath.ToSlash(zf.Name), strip)
		if name == "" || name == "/" {
			continue
		}
		rel := filepath.Clean(filepath.FromSlash(name))
		if !safeEntry(rel) {
			log.Printf("[WARN] skip unsafe archive entry %q", zf.Name)
			continue
		}
		target := filepath.Join(dest, rel)

		if zf.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil { // nolint gosec
				return nil, fmt.Errorf("can't make directory %s: %w", target, err)
			}
			continue
		}
		if err := extractFile(zf, target); err != nil {
			return nil, err
		}
		files = append(files, rel)
	}
	return files, nil
}

func extractFile(zf *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil { // nolint gosec
		return fmt.Errorf("can't make directory for %s: %w", target, err)
	}
	rc, err := zf.Open()
	if err != nil {
		return fmt.Errorf("can't open archive entry %s: %w", zf.Name, err)
	}
	defer rc.Close() // nolint

	mode := zf.Mode().Perm()
	if mode == 0 {
		mode = 0o644
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode) // nolint gosec
	if err != nil {
		return fmt.Errorf("can't create %s: %w", target, err)
	}
	if _, err = io.Copy(out, rc); err != nil { // nolint gosec
		_ = out.Close()
		return fmt.Errorf("can't extract %s: %w", zf.Name, err)
	}
	return out.Close()
}

// commonRoot returns "dir/" if every entry lives under the same top-level directory
func commonRoot(files []*zip.File) string {
	root := ""
	nested := false
	for _, zf := range files {
		name := filepath.ToSlash(zf.Name)
		idx := strings.Index(name, "/")
		if idx <= 0 {
			return "" // a file in the archive root
		}
		top := name[:idx+1]
		if root == "" {
			root = top
		}
		if top != root {
			return ""
		}
		if len(name) > len(top) {
			nested = true
		}
	}
	if !nested {
		return ""
	}
	return root
}

// safeEntry checks the cleaned relative name stays inside the destination
func safeEntry(rel string) bool {
	if rel == "." || filepath.IsAbs(rel) || filepath.VolumeName(rel) != "" {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Place copies everything from src into dst, creating dst if needed. Application files are
// overwritten, but top-level entries listed in keep are left untouched if already present in dst.
// Returns the number of copied files.
func Place(src, dst string, keep []string) (int, error) {
	if err := os.MkdirAll(dst, 0o755); err != nil { // nolint gosec
		return 0, fmt.Errorf("can't make install directory %s: %w", dst, err)
	}

	kept := map[string]bool{}
	for _, k := range keep {
		if _, err := os.Stat(filepath.Join(dst, k)); err == nil {
			kept[strings.ToLower(k)] = true
		}
	}

	count := 0
	err := filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		top := strings.SplitN(filepath.ToSlash(rel), "/", 2)[0]
		if kept[strings.ToLower(top)] {
			log.Printf("[DEBUG] keep existing %s", rel)
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755) // nolint gosec
		}
		if err := copyFile(path, target); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return count, fmt.Errorf("failed to place files into %s: %w", dst, err)
	}
	return count, nil
}

func copyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	in, err := os.Open(src) // nolint gosec
	if err != nil {
		return err
	}
	defer in.Close() // nolint

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm()) // nolint gosec
	if err != nil {
		return fmt.Errorf("can't write %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("can't copy %s: %w", src, err)
	}
	return out.Close()
}
