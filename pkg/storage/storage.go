// Package storage abstracts the blob store listing images and avatars are
// uploaded to.
package storage

import "context"

// Uploader uploads a local file into a folder and returns its public URL.
// Uploads happen before anything referencing the URL is persisted, so a
// failed upload aborts the surrounding operation cleanly.
type Uploader interface {
	Upload(ctx context.Context, localPath, folder string) (string, error)
}
