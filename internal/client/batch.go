package client

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const maxConcurrentUploads = 4

// FileResult is the outcome of uploading one file.
type FileResult struct {
	Path     string
	Download *Download
	Err      error
}

// UploadFiles uploads every path with bounded concurrency. Results keep the
// order of paths; a failed file does not stop the others.
func (c *Client) UploadFiles(ctx context.Context, paths []string) []FileResult {
	results := make([]FileResult, len(paths))

	var (
		wg  sync.WaitGroup
		sem = make(chan struct{}, maxConcurrentUploads)
	)

	for i, path := range paths {
		wg.Add(1)

		go func(index int, p string) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			d, err := c.uploadFile(ctx, p)
			results[index] = FileResult{Path: p, Download: d, Err: err}

			if err != nil {
				c.logger.Warn("upload failed", "file", p, "error", err)
			} else {
				c.logger.Info("file scored", "file", p, "warnings", d.Warnings)
			}
		}(i, path)
	}

	wg.Wait()

	return results
}

func (c *Client) uploadFile(ctx context.Context, path string) (*Download, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	return c.Upload(ctx, filepath.Base(path), f)
}
