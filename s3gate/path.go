// Package s3gate implements the S3 access gate (spec.md §4.F):
// check_access dispatch over Root/Bucket/Object paths, the
// "objects/"/"bundles/" pseudo-buckets, partial-sync safety, and CORS
// header population.
//
// Grounded on the teacher's ais/tgts3.go (method-dispatch shape: one
// switch over http.Method feeding per-verb handlers, path split via
// strings.SplitN) generalized from AIStore's flat bucket/object naming
// to this system's Project/Collection/Dataset/Object prefix and the two
// reserved pseudo-buckets.
package s3gate

import "strings"

// PathKind distinguishes the three S3 path shapes (spec.md §4.F).
type PathKind uint8

const (
	PathRoot PathKind = iota
	PathBucket
	PathObject
)

// Path is a parsed S3 request path.
type Path struct {
	Kind   PathKind
	Bucket string
	Key    string
}

// ParsePath splits "/bucket/key..." into a Path, matching the teacher's
// strings.Trim+SplitN shape in ais/tgts3.go's copyObjS3.
func ParsePath(raw string) Path {
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return Path{Kind: PathRoot}
	}
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) == 1 {
		return Path{Kind: PathBucket, Bucket: parts[0]}
	}
	return Path{Kind: PathObject, Bucket: parts[0], Key: parts[1]}
}

// pseudo-bucket names (spec.md §4.F).
const (
	BucketObjects = "objects"
	BucketBundles = "bundles"
)

// SplitKey breaks an object key into ordered path segments for
// BuildResourceStates (spec.md §4.F "parse bucket/key into an ordered
// prefix").
func SplitKey(key string) []string {
	key = strings.Trim(key, "/")
	if key == "" {
		return nil
	}
	return strings.Split(key, "/")
}
