package s3gate

import (
	"github.com/nimbusfs/core/cmn"
	"github.com/nimbusfs/core/graph"
)

// UserStateKind distinguishes an anonymous caller from one whose
// access-key mapped to a known identity.
type UserStateKind uint8

const (
	UserAnonymous UserStateKind = iota
	UserRegistered
)

// UserState is the caller identity resolved from SigV4 credentials
// (spec.md §4.F "Decision carries ... a user state").
type UserState struct {
	Kind        UserStateKind
	UserID      cmn.ID
	Permissions map[cmn.ID]cmn.PermLevel
}

// CORSHeaders mirrors spec.md §4.F/§6's three response headers.
type CORSHeaders struct {
	AllowOrigin  string
	AllowMethods string
	AllowHeaders string
}

// Decision is check_access's result (spec.md §4.F).
type Decision struct {
	States   *graph.ResourceStates
	User     UserState
	CORS     *CORSHeaders
	Location string // backing S3 location, when resolved
}
