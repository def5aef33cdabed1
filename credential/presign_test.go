package credential_test

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/nimbusfs/core/credential"
)

func TestSignProducesExpectedURLShape(t *testing.T) {
	u, err := credential.Sign(credential.PresignRequest{
		Method:    http.MethodGet,
		AccessKey: "AK",
		SecretKey: "SK",
		SSL:       true,
		Endpoint:  "s3.example.com",
		Bucket:    "proj",
		Key:       "a/readme.txt",
		Duration:  15 * time.Minute,
	})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if !strings.HasPrefix(u, "https://s3.example.com/proj/a/readme.txt") {
		t.Fatalf("unexpected URL shape: %s", u)
	}
	if !strings.Contains(u, "X-Amz-Signature=") {
		t.Fatalf("expected a SigV4 query signature, got: %s", u)
	}
}

func TestSignMultipartIncludesPartAndUploadID(t *testing.T) {
	u, err := credential.Sign(credential.PresignRequest{
		Method:     http.MethodPut,
		AccessKey:  "AK",
		SecretKey:  "SK",
		Endpoint:   "s3.example.com",
		Bucket:     "proj",
		Key:        "a/readme.txt",
		Duration:   15 * time.Minute,
		Multipart:  true,
		PartNumber: 2,
		UploadID:   "upload-123",
	})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if !strings.Contains(u, "partNumber=2") || !strings.Contains(u, "uploadId=upload-123") {
		t.Fatalf("expected multipart query params, got: %s", u)
	}
}
