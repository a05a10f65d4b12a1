package gphotos

import (
	"context"
	"errors"
	"log/slog"

	"github.com/adventcavalier/google-photos-upload/internal/walker"
)

// UploadAlbums processes directory-walker batches in order, resolving
// each album and uploading its files. A failure in one album's batch is
// logged and does not prevent processing of the next album.
func (c *Client) UploadAlbums(ctx context.Context, batches []walker.AlbumBatch) error {
	for _, batch := range batches {
		c.logger.Info("Processing album",
			slog.String("album", batch.Album),
			slog.Int("photos", len(batch.Photos)))

		if _, err := c.UploadPhotos(ctx, batch.Photos, batch.Album); err != nil {
			var albumErr *AlbumError
			if errors.As(err, &albumErr) {
				c.logger.Error("Album failed, continuing with next album",
					slog.String("album", albumErr.Title),
					slog.String("error", err.Error()))
				continue
			}
			return err
		}
	}
	return nil
}
