package blob

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"systemqa/internal/services"
)

type fakeS3 struct {
	objects map[string]string
	puts    []*s3.PutObjectInput
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	body, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.puts = append(f.puts, in)
	return &s3.PutObjectOutput{}, nil
}

func TestS3ClientGetAndPut(t *testing.T) {
	api := &fakeS3{objects: map[string]string{"bucket/v/video.mp4": "data"}}
	client := NewS3Client(api, "bucket")
	ctx := context.Background()

	body, err := client.Get(ctx, "v/video.mp4")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	data, _ := io.ReadAll(body)
	body.Close()
	if string(data) != "data" {
		t.Fatalf("unexpected body %q", data)
	}

	if _, err := client.Get(ctx, "v/missing.mp4"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := client.Put(ctx, "v/step.png", strings.NewReader("PNG"), PNGContentType); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if len(api.puts) != 1 {
		t.Fatalf("expected one put, got %d", len(api.puts))
	}
	put := api.puts[0]
	if aws.ToString(put.Bucket) != "bucket" || aws.ToString(put.Key) != "v/step.png" || aws.ToString(put.ContentType) != PNGContentType {
		t.Fatalf("unexpected put input: bucket=%s key=%s type=%s", aws.ToString(put.Bucket), aws.ToString(put.Key), aws.ToString(put.ContentType))
	}
}
