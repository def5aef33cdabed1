// Package credential implements endpoint credential issuance and AWS
// SigV4 presigning (spec.md §4.I).
package credential

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go/aws/credentials"
	v4 "github.com/aws/aws-sdk-go/aws/signer/v4"
	"github.com/nimbusfs/core/cmn"
)

// Region and Service are fixed per spec.md §4.I "Presign": every
// presigned URL is signed for the literal region "RegionOne" and
// service "s3", regardless of the endpoint's real location.
const (
	Region  = "RegionOne"
	Service = "s3"
)

// PresignRequest describes one URL to sign.
type PresignRequest struct {
	Method     string
	AccessKey  string
	SecretKey  string
	SSL        bool
	Endpoint   string // host[:port], no scheme
	Bucket     string
	Key        string
	Duration   time.Duration
	Multipart  bool
	PartNumber int
	UploadID   string
}

// Sign produces a presigned URL for req using AWS SigV4 (spec.md §4.I
// "sign"). Grounded on the standard aws-sdk-go v4.Signer.Presign
// pattern: build the plain *http.Request the operation would have
// used, then let the signer attach the query-string signature, rather
// than hand-rolling the canonical-request algorithm.
func Sign(req PresignRequest) (string, error) {
	scheme := "http"
	if req.SSL {
		scheme = "https"
	}

	u := &url.URL{
		Scheme: scheme,
		Host:   req.Endpoint,
		Path:   "/" + req.Bucket + "/" + req.Key,
	}
	q := u.Query()
	if req.Multipart {
		q.Set("partNumber", strconv.Itoa(req.PartNumber))
		if req.UploadID != "" {
			q.Set("uploadId", req.UploadID)
		}
	}
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequest(req.Method, u.String(), nil)
	if err != nil {
		return "", cmn.Wrap(cmn.KindInternal, err, "presign: build request")
	}

	signer := v4.NewSigner(credentials.NewStaticCredentials(req.AccessKey, req.SecretKey, ""))
	if _, err := signer.Presign(httpReq, nil, Service, Region, req.Duration, time.Now()); err != nil {
		return "", cmn.Wrap(cmn.KindInternal, err, "presign: sign request")
	}
	return httpReq.URL.String(), nil
}
