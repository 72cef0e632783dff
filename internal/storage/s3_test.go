package storage

import (
	"context"
	"strings"
	"testing"

	miniogo "github.com/minio/minio-go/v7"
	miniocreds "github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/minio"
)

// setupMinioService starts a MinIO container, creates a bucket, and returns a
// service pointed at it.
func setupMinioService(t *testing.T) S3Service {
	t.Helper()
	ctx := context.Background()

	container, err := minio.Run(ctx,
		"minio/minio:RELEASE.2024-10-29T16-01-48Z",
		minio.WithUsername("minioadmin"),
		minio.WithPassword("minioadmin"),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, container.Terminate(context.Background()))
	})

	endpoint, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	adminClient, err := miniogo.New(endpoint, &miniogo.Options{
		Creds: miniocreds.NewStaticV4("minioadmin", "minioadmin", ""),
	})
	require.NoError(t, err)

	bucket := "groundmeas-test"
	require.NoError(t, adminClient.MakeBucket(ctx, bucket, miniogo.MakeBucketOptions{}))

	svc, err := NewS3Service(S3Config{
		Bucket:    bucket,
		Endpoint:  endpoint,
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
	})
	require.NoError(t, err)
	return svc
}

func TestS3Service_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	svc := setupMinioService(t)
	ctx := context.Background()

	t.Run("upload download delete round trip", func(t *testing.T) {
		key := "exports/test-export.json"
		payload := []byte(`[{"id":"m1"}]`)
		require.NoError(t, svc.UploadFile(ctx, key, "application/json", payload))

		got, err := svc.DownloadFile(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, payload, got)

		require.NoError(t, svc.DeleteFile(ctx, key))
		_, err = svc.DownloadFile(ctx, key)
		assert.Error(t, err)
	})

	t.Run("presigned URLs", func(t *testing.T) {
		key := "attachments/m1/trace.csv"
		uploadURL, err := svc.GenerateUploadURL(ctx, key, "text/csv")
		require.NoError(t, err)
		assert.True(t, strings.Contains(uploadURL, key))

		require.NoError(t, svc.UploadFile(ctx, key, "text/csv", []byte("d,v\n10,1.2\n")))
		downloadURL, err := svc.GenerateDownloadURL(ctx, key)
		require.NoError(t, err)
		assert.True(t, strings.Contains(downloadURL, key))
	})

	t.Run("rejects unknown content type", func(t *testing.T) {
		_, err := svc.GenerateUploadURL(ctx, "attachments/m1/clip.mp4", "video/mp4")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid content type")
	})
}
