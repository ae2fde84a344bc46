package utils

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakePutter struct {
	input *s3.PutObjectInput
	body  string
	err   error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = in
	b, _ := io.ReadAll(in.Body)
	f.body = string(b)
	return &s3.PutObjectOutput{}, nil
}

func TestR2ArchiverUpload(t *testing.T) {
	putter := &fakePutter{}
	a := newR2Archiver(putter, "dumps-bucket", "https://cdn.example.com/", "https://acct.r2.cloudflarestorage.com")

	url, err := a.Upload(context.Background(), "dumps/x.txt", []byte("report"), "text/plain")
	if err != nil {
		t.Fatalf("Upload error: %v", err)
	}
	if url != "https://cdn.example.com/dumps/x.txt" {
		t.Fatalf("url = %q", url)
	}
	if aws.ToString(putter.input.Bucket) != "dumps-bucket" || aws.ToString(putter.input.Key) != "dumps/x.txt" {
		t.Fatalf("input = %+v", putter.input)
	}
	if putter.body != "report" || aws.ToString(putter.input.ContentType) != "text/plain" {
		t.Fatalf("body=%q content-type=%q", putter.body, aws.ToString(putter.input.ContentType))
	}
}

func TestR2ArchiverDefaultsToEndpoint(t *testing.T) {
	a := newR2Archiver(&fakePutter{}, "b", "", "https://acct.r2.cloudflarestorage.com")
	url, err := a.Upload(context.Background(), "k", nil, "text/plain")
	if err != nil || url != "https://acct.r2.cloudflarestorage.com/k" {
		t.Fatalf("url=%q err=%v", url, err)
	}
}

func TestR2ArchiverUploadError(t *testing.T) {
	a := newR2Archiver(&fakePutter{err: errors.New("denied")}, "b", "", "https://e")
	if _, err := a.Upload(context.Background(), "k", nil, "text/plain"); err == nil {
		t.Fatal("expected upload error")
	}
}
