package s3

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
)

const defaultSignedURLTTL = 15 * time.Minute

// Signer issues short-lived presigned GET URLs for stored media objects.
type Signer struct {
	client *minio.Client
	bucket string
}

func NewSigner(client *minio.Client, bucket string) *Signer {
	return &Signer{client: client, bucket: bucket}
}

func (s *Signer) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if s == nil || s.client == nil {
		return "", fmt.Errorf("s3 client is nil")
	}
	if key == "" {
		return "", fmt.Errorf("object key is required")
	}
	if ttl <= 0 {
		ttl = defaultSignedURLTTL
	}

	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, key, ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign get object: %w", err)
	}

	return presigned.String(), nil
}
