// Package token implements the asymmetric-key signed token format that
// carries intent across the catalog and the data proxy (spec.md §4.A).
//
// Grounded on the teacher's authn/utils.go (User/Token/Cluster/Bucket
// JWT shape, DecryptToken's jwt.Parse pattern) and on the original
// ArunaServer data_proxy/src/auth/auth.rs (ArunaTokenClaims, the
// Intent/Action wire encoding "<target>_<action>", and the three named
// convenience signers).
package token

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nimbusfs/core/cmn"
)

// Audience is the recognized `aud` claim value.
type Audience string

const (
	AudProxy Audience = "proxy"
	AudRoot  Audience = "root"
	AudHook  Audience = "hook"
)

// Action is the intent carried alongside a target endpoint.
type Action uint8

const (
	ActionAll Action = iota
	ActionCreateSecrets
	ActionImpersonate
	ActionFetchInfo
	ActionDpExchange
)

func (a Action) String() string {
	switch a {
	case ActionCreateSecrets:
		return "CreateSecrets"
	case ActionImpersonate:
		return "Impersonate"
	case ActionFetchInfo:
		return "FetchInfo"
	case ActionDpExchange:
		return "DpExchange"
	default:
		return "All"
	}
}

// Intent scopes what the bearer may do and where. Wire-encoded as a
// single string "<target-endpoint-ulid>_<action-int>", matching the
// original implementation's Serialize/Deserialize of `it`.
type Intent struct {
	Target cmn.ID
	Action Action
}

func (it Intent) MarshalJSON() ([]byte, error) {
	s := fmt.Sprintf("%s_%d", it.Target, uint8(it.Action))
	return []byte(strconv.Quote(s)), nil
}

func (it *Intent) UnmarshalJSON(b []byte) error {
	s, err := strconv.Unquote(string(b))
	if err != nil {
		return err
	}
	parts := strings.SplitN(s, "_", 2)
	if len(parts) != 2 {
		return fmt.Errorf("token: malformed intent %q", s)
	}
	id, err := cmn.ParseID(parts[0])
	if err != nil {
		return fmt.Errorf("token: malformed intent target: %w", err)
	}
	n, err := strconv.ParseUint(parts[1], 10, 8)
	if err != nil {
		return fmt.Errorf("token: malformed intent action: %w", err)
	}
	it.Target = id
	it.Action = Action(n)
	return nil
}

// Claims is the full claim set (spec.md §4.A "Token format"). It
// implements jwt.Claims directly (rather than embedding
// jwt.RegisteredClaims) since none of `iss`/`sub`/`aud` are plain
// strings here: `sub` is a cmn.ID and `aud` is a closed enum.
type Claims struct {
	Issuer    string   `json:"iss"` // issuing endpoint id, or "root"
	Subject   cmn.ID   `json:"sub"` // user-id or endpoint-id
	Aud       Audience `json:"aud"`
	ExpiresAt int64    `json:"exp"`
	TokenID   string   `json:"tid,omitempty"`
	Intent    *Intent  `json:"it,omitempty"`
}

func (c Claims) Valid() error {
	if c.ExpiresAt == 0 {
		return fmt.Errorf("token: missing exp")
	}
	if time.Now().Unix() > c.ExpiresAt {
		return fmt.Errorf("token: expired")
	}
	switch c.Aud {
	case AudProxy, AudRoot, AudHook:
	default:
		return fmt.Errorf("token: unexpected audience %q", c.Aud)
	}
	return nil
}

func (c Claims) Expiry() time.Time { return time.Unix(c.ExpiresAt, 0) }
