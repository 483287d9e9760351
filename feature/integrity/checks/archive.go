package checks

import (
	"context"
	"fmt"

	"roleboard/core/storage"
	"roleboard/feature/snapshot"
)

// ArchiveReport describes the raw-data archive bucket.
type ArchiveReport struct {
	Bucket   string `json:"bucket"`
	Exists   bool   `json:"exists"`
	Archives int    `json:"archives"`
}

// CheckArchive reports whether the archive bucket exists and how many accounts it holds.
func CheckArchive(ctx context.Context, client storage.Client, bucket string) (*ArchiveReport, error) {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	report := &ArchiveReport{Bucket: bucket, Exists: exists}
	if !exists {
		return report, nil
	}

	uids, err := snapshot.NewArchive(client, bucket).List(ctx)
	if err != nil {
		return nil, err
	}
	report.Archives = len(uids)
	return report, nil
}

// FixArchive creates the archive bucket when it is missing.
func FixArchive(ctx context.Context, client storage.Client, bucket, region string) error {
	return storage.EnsureBucket(ctx, client, bucket, region)
}
