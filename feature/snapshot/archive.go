package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"

	"roleboard/core/storage"

	"github.com/minio/minio-go/v7"
)

const archivePrefix = "players/"

// Archive keeps each account's last synced roster in object storage.
type Archive struct {
	client storage.Client
	bucket string
}

// NewArchive creates an archive writing to bucket.
func NewArchive(client storage.Client, bucket string) *Archive {
	return &Archive{client: client, bucket: bucket}
}

// ObjectName returns the object key holding uid's raw data.
func ObjectName(uid string) string {
	return path.Join(archivePrefix, uid, "rawData.json")
}

// Save writes the blobs of uid.
func (a *Archive) Save(ctx context.Context, uid string, blobs []Blob) error {
	if blobs == nil {
		blobs = []Blob{}
	}
	data, err := json.Marshal(blobs)
	if err != nil {
		return fmt.Errorf("failed to encode archive: %w", err)
	}
	_, err = a.client.PutObject(ctx, a.bucket, ObjectName(uid), bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("failed to upload archive for %s: %w", uid, err)
	}
	return nil
}

// Load reads the blobs of uid.
func (a *Archive) Load(ctx context.Context, uid string) ([]Blob, error) {
	obj, err := a.client.GetObject(ctx, a.bucket, ObjectName(uid), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to open archive for %s: %w", uid, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive for %s: %w", uid, err)
	}

	var blobs []Blob
	if err := json.Unmarshal(data, &blobs); err != nil {
		return nil, fmt.Errorf("failed to decode archive for %s: %w", uid, err)
	}
	return blobs, nil
}

// List returns the uids that have an archive.
func (a *Archive) List(ctx context.Context) ([]string, error) {
	var uids []string
	for obj := range a.client.ListObjects(ctx, a.bucket, minio.ListObjectsOptions{Prefix: archivePrefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list archives: %w", obj.Err)
		}
		rest := strings.TrimPrefix(obj.Key, archivePrefix)
		uid, file, ok := strings.Cut(rest, "/")
		if ok && file == "rawData.json" {
			uids = append(uids, uid)
		}
	}
	return uids, nil
}

// Delete removes the archive of uid.
func (a *Archive) Delete(ctx context.Context, uid string) error {
	if err := a.client.RemoveObject(ctx, a.bucket, ObjectName(uid), minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete archive for %s: %w", uid, err)
	}
	return nil
}
