// Package utils provides small helpers for fetching and caching remote
// data assets (the world basemap geojson).
package utils

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

var ErrNotFound = errors.New("file not found on server")

// DownloadFile downloads a URL to a local path atomically: the payload is
// written to a temp file in the destination directory and renamed into
// place only on success.
func DownloadFile(url, path string) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Printf("[fetch] closing response body: %v", err)
		}
	}()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bad status: %s", resp.Status)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmpFile.Name()
	defer func() {
		if err := os.Remove(tmpName); err != nil && !os.IsNotExist(err) {
			log.Printf("[fetch] removing temp file %s: %v", tmpName, err)
		}
	}()

	if _, err := io.Copy(tmpFile, resp.Body); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// CachedReader returns a reader for the URL, downloading into cacheDir on
// first use and reading the cached copy afterwards.
func CachedReader(url, cacheDir, label string) (io.ReadCloser, error) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	parts := strings.Split(url, "/")
	localPath := filepath.Join(cacheDir, parts[len(parts)-1])

	if _, err := os.Stat(localPath); os.IsNotExist(err) {
		log.Printf("%s downloading %s", label, url)
		if err := DownloadFile(url, localPath); err != nil {
			return nil, err
		}
	} else {
		log.Printf("%s using cached file: %s", label, localPath)
	}
	return os.Open(localPath)
}
