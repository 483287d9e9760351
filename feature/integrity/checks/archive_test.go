package checks

import (
	"context"
	"errors"
	"testing"

	"roleboard/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCheckArchive(t *testing.T) {
	ctx := context.Background()

	t.Run("counts archives", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "roleboard").Return(true, nil)
		client.On("ListObjects", mock.Anything, "roleboard", mock.Anything).
			Return(mocks.Objects("players/100/rawData.json", "players/200/rawData.json", "players/200/other.txt"))

		report, err := CheckArchive(ctx, client, "roleboard")
		require.NoError(t, err)
		assert.Equal(t, &ArchiveReport{Bucket: "roleboard", Exists: true, Archives: 2}, report)
	})

	t.Run("missing bucket", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "roleboard").Return(false, nil)

		report, err := CheckArchive(ctx, client, "roleboard")
		require.NoError(t, err)
		assert.False(t, report.Exists)
		client.AssertNotCalled(t, "ListObjects", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("bucket error", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "roleboard").Return(false, errors.New("unreachable"))

		_, err := CheckArchive(ctx, client, "roleboard")
		assert.ErrorContains(t, err, "unreachable")
	})
}

func TestFixArchive(t *testing.T) {
	client := new(mocks.Client)
	client.On("BucketExists", mock.Anything, "roleboard").Return(false, nil)
	client.On("MakeBucket", mock.Anything, "roleboard", minio.MakeBucketOptions{Region: "eu"}).Return(nil)

	require.NoError(t, FixArchive(context.Background(), client, "roleboard", "eu"))
	client.AssertExpectations(t)
}
