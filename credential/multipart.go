package credential

import (
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// MultipartBootstrap initializes a multipart upload through the real S3
// endpoint using impersonated credentials, returning the opaque
// upload-id the first presigned part refers to (spec.md §4.I "For
// multipart, initializes the upload through the real S3 endpoint using
// impersonated credentials and returns the opaque upload-id on the
// first part").
func MultipartBootstrap(ctx context.Context, endpointURL string, ssl bool, accessKey, secretKey, bucket, key string) (string, error) {
	sess, err := session.NewSession(&aws.Config{
		Region:           aws.String(Region),
		Endpoint:         aws.String(endpointURL),
		Credentials:      credentials.NewStaticCredentials(accessKey, secretKey, ""),
		DisableSSL:       aws.Bool(!ssl),
		S3ForcePathStyle: aws.Bool(true),
	})
	if err != nil {
		return "", err
	}

	out, err := s3.New(sess).CreateMultipartUploadWithContext(ctx, &s3.CreateMultipartUploadInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", err
	}
	return aws.StringValue(out.UploadId), nil
}
