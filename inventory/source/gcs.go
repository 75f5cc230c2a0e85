package source

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
)

type objectOpener func(ctx context.Context, bucket, object string) (io.ReadCloser, error)

// GCSSource reads the export from a Cloud Storage object.
type GCSSource struct {
	bucket string
	object string
	open   objectOpener
}

func NewGCSSource(client *storage.Client, bucket, object string) *GCSSource {
	return &GCSSource{
		bucket: bucket,
		object: object,
		open: func(ctx context.Context, bucket, object string) (io.ReadCloser, error) {
			return client.Bucket(bucket).Object(object).NewReader(ctx)
		},
	}
}

func (g *GCSSource) Load(ctx context.Context) ([]byte, error) {
	r, err := g.open(ctx, g.bucket, g.object)
	if err != nil {
		return nil, fmt.Errorf("failed to open inventory object gs://%s/%s: %w", g.bucket, g.object, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read inventory object gs://%s/%s: %w", g.bucket, g.object, err)
	}
	return data, nil
}
