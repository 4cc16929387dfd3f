package utils

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var artifactClient *s3.Client
var artifactBucket string
var artifactBaseURL string

// InitArtifactStore configures the R2 bucket that holds submission artifacts
// (code archives, design exports, video/audio files).
func InitArtifactStore() error {
	accountID := os.Getenv("CLOUDFLARE_ACCOUNT_ID")
	accessKeyID := os.Getenv("R2_ACCESS_KEY_ID")
	accessKeySecret := os.Getenv("R2_ACCESS_KEY_SECRET")
	artifactBucket = os.Getenv("R2_BUCKET_NAME")
	artifactBaseURL = os.Getenv("CDN_BASE_URL")
	if artifactBaseURL == "" {
		artifactBaseURL = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountID)
	}

	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion("auto"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKeyID, accessKeySecret, "",
		)),
		config.WithEndpointResolver(aws.EndpointResolverFunc(
			func(service, region string) (aws.Endpoint, error) {
				return aws.Endpoint{
					URL: fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountID),
				}, nil
			}),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to load R2 config: %w", err)
	}

	artifactClient = s3.NewFromConfig(cfg)
	return nil
}

// UploadArtifact stores a submission artifact under
// submissions/<challengeID>/<userID>/<filename> and returns the public URL.
func UploadArtifact(ctx context.Context, fileHeader *multipart.FileHeader, challengeID, userID string) (string, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, file); err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	key := path.Join("submissions", challengeID, userID, fileHeader.Filename)
	_, err = artifactClient.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(artifactBucket),
		Key:         aws.String(key),
		Body:        buf,
		ContentType: aws.String(fileHeader.Header.Get("Content-Type")),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to R2: %w", err)
	}

	return fmt.Sprintf("%s/%s", artifactBaseURL, key), nil
}
