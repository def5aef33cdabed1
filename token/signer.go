package token

import (
	"crypto/ed25519"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/nimbusfs/core/cmn"
)

// durations for the three named convenience signers (spec.md §4.A
// "Signing convenience").
const (
	ImpersonationTTL = 15 * time.Minute
	NotificationTTL  = 10 * 365 * 24 * time.Hour
	DpExchangeTTL    = 15 * time.Minute
)

// Signer issues and verifies EdDSA-signed tokens for a single endpoint
// (or "root"). Matches the original implementation's AuthHandler: one
// encoding key, one self identity, one cache-backed pubkey resolver.
type Signer struct {
	selfID     string // endpoint id, or "root"
	serial     int32
	privateKey ed25519.PrivateKey
	resolver   Resolver
}

func NewSigner(selfID string, serial int32, priv ed25519.PrivateKey, resolver Resolver) *Signer {
	return &Signer{selfID: selfID, serial: serial, privateKey: priv, resolver: resolver}
}

// Sign appends a serial-bearing header and signs with EdDSA. Fails only
// on malformed key material (spec.md §4.A contract for `sign`).
func (s *Signer) Sign(c Claims) (string, error) {
	if len(s.privateKey) != ed25519.PrivateKeySize {
		return "", cmn.NewError(cmn.KindInternal, "token: malformed signing key")
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodEdDSA, c)
	tok.Header["kid"] = strconv.FormatInt(int64(s.serial), 10)
	return tok.SignedString(s.privateKey)
}

// Verify resolves the serial in the JWT header to a public key, checks
// the EdDSA signature, the expiry, and that the audience is one we
// accept; it rejects everything else (spec.md §4.A contract for
// `verify`).
func (s *Signer) Verify(raw string) (Claims, PubKey, error) {
	var claims Claims
	var resolvedKey PubKey

	parsed, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("token: unexpected signing method %v", t.Header["alg"])
		}
		kidStr, _ := t.Header["kid"].(string)
		if kidStr == "" {
			return nil, fmt.Errorf("token: missing kid")
		}
		serial, err := strconv.ParseInt(kidStr, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("token: malformed kid: %w", err)
		}
		pk, ok := s.resolver.ResolvePubKey(int32(serial))
		if !ok {
			return nil, fmt.Errorf("token: unknown key serial %d", serial)
		}
		resolvedKey = pk
		return pk.Key, nil
	})
	if err != nil || !parsed.Valid {
		return Claims{}, PubKey{}, cmn.Wrap(cmn.KindUnauthenticated, errOrInvalid(err), "invalid or expired token")
	}
	return claims, resolvedKey, nil
}

func errOrInvalid(err error) error {
	if err != nil {
		return err
	}
	return fmt.Errorf("token: not valid")
}

// CheckPermissions implements spec.md §4.A's `check_permissions`: it
// verifies the token, then applies the Intent rules a data proxy must
// enforce against its own identity. Root-only intents (Impersonate,
// FetchInfo) are rejected here unconditionally: callers running as
// root use CheckRootPermissions instead.
func (s *Signer) CheckPermissions(raw string) (userID cmn.ID, tokenID *string, pk PubKey, err error) {
	claims, pk, err := s.Verify(raw)
	if err != nil {
		return "", nil, PubKey{}, err
	}
	userID = claims.Subject
	if claims.Intent == nil {
		if claims.TokenID != "" {
			tid := claims.TokenID
			tokenID = &tid
		}
		return userID, tokenID, pk, nil
	}
	switch claims.Intent.Action {
	case ActionAll:
		if claims.TokenID != "" {
			tid := claims.TokenID
			tokenID = &tid
		}
		return userID, tokenID, pk, nil
	case ActionCreateSecrets:
		if claims.Intent.Target.String() != s.selfID {
			return "", nil, PubKey{}, cmn.NewError(cmn.KindUnauthenticated, "token not valid for this endpoint")
		}
		if claims.TokenID != "" {
			tid := claims.TokenID
			tokenID = &tid
		}
		return userID, tokenID, pk, nil
	case ActionDpExchange:
		if claims.Intent.Target.String() != s.selfID {
			return "", nil, PubKey{}, cmn.NewError(cmn.KindUnauthenticated, "token not valid for this endpoint")
		}
		// DpExchange always clears tid, even if one was present.
		return userID, nil, pk, nil
	case ActionImpersonate, ActionFetchInfo:
		return "", nil, PubKey{}, cmn.NewError(cmn.KindUnauthenticated, "intent is root-only")
	default:
		return "", nil, PubKey{}, cmn.NewError(cmn.KindUnauthenticated, "unrecognized intent action")
	}
}

// SignImpersonation mints a short-lived, root-audience impersonation
// token (spec.md §4.A). tokenID is optional and threads through as the
// `tid` claim when the impersonation stands in for a specific API
// token rather than an OIDC session.
func (s *Signer) SignImpersonation(targetUser cmn.ID, tokenID string) (string, error) {
	return s.Sign(Claims{
		Issuer:    s.selfID,
		Subject:   targetUser,
		Aud:       AudRoot,
		ExpiresAt: time.Now().Add(ImpersonationTTL).Unix(),
		TokenID:   tokenID,
		Intent:    &Intent{Target: cmn.ID(s.selfID), Action: ActionImpersonate},
	})
}

// SignNotification mints a long-lived (10y) root-audience token used to
// authenticate hook/notification callbacks originating from this
// endpoint.
func (s *Signer) SignNotification() (string, error) {
	return s.Sign(Claims{
		Issuer:    s.selfID,
		Subject:   cmn.ID(s.selfID),
		Aud:       AudRoot,
		ExpiresAt: time.Now().Add(NotificationTTL).Unix(),
		Intent:    &Intent{Target: cmn.ID(s.selfID), Action: ActionFetchInfo},
	})
}

// SignDpExchange mints a short-lived, proxy-audience token this data
// proxy presents to another data proxy (spec.md §9 "Replication
// callbacks"); the subject is this endpoint's own identity, not an
// impersonated user.
func (s *Signer) SignDpExchange(target cmn.ID) (string, error) {
	return s.Sign(Claims{
		Issuer:    s.selfID,
		Subject:   cmn.ID(s.selfID),
		Aud:       AudProxy,
		ExpiresAt: time.Now().Add(DpExchangeTTL).Unix(),
		Intent:    &Intent{Target: target, Action: ActionDpExchange},
	})
}

// SignCreateSecrets mints the token used to request/rotate S3
// credentials at a target endpoint (spec.md §4.I step 1).
func (s *Signer) SignCreateSecrets(user cmn.ID, target cmn.ID, ttl time.Duration) (string, error) {
	return s.Sign(Claims{
		Issuer:    s.selfID,
		Subject:   user,
		Aud:       AudProxy,
		ExpiresAt: time.Now().Add(ttl).Unix(),
		Intent:    &Intent{Target: target, Action: ActionCreateSecrets},
	})
}
