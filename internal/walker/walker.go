// Package walker enumerates a directory tree as album batches: every
// subdirectory becomes an album named after its base name, holding that
// directory's files in sorted order.
package walker

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// AlbumBatch pairs an album name with the ordered photo paths that
// belong in it. Photos are absolute paths.
type AlbumBatch struct {
	Album  string
	Photos []string
}

// Walk returns one batch per subdirectory beneath root, in lexical
// order. Directories without files still produce a batch, so their
// albums get created. Unreadable entries below root are skipped.
func Walk(root string) ([]AlbumBatch, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	var batches []AlbumBatch
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() || path == root {
			return nil
		}

		entries, err := os.ReadDir(path)
		if err != nil {
			return nil
		}
		batch := AlbumBatch{Album: d.Name()}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			abs, err := filepath.Abs(filepath.Join(path, entry.Name()))
			if err != nil {
				return err
			}
			batch.Photos = append(batch.Photos, abs)
		}
		batches = append(batches, batch)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return batches, nil
}
