package token_test

import (
	"crypto/ed25519"
	"strings"
	"testing"
	"time"

	"github.com/nimbusfs/core/cmn"
	"github.com/nimbusfs/core/token"
)

func newSigner(t *testing.T, selfID string, serial int32) (*token.Signer, *token.Ring) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	ring := token.NewRing()
	ring.Add(token.PubKey{Serial: serial, Key: pub, Owner: selfID})
	return token.NewSigner(selfID, serial, priv, ring), ring
}

// Property (spec.md §8.1): verify(sign(c)) == c for every well-formed claim.
func TestSignVerifyRoundTrip(t *testing.T) {
	s, _ := newSigner(t, "root", 1)
	user := cmn.NewID()
	c := token.Claims{
		Issuer:    "root",
		Subject:   user,
		Aud:       token.AudRoot,
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
		TokenID:   "tid-1",
	}
	raw, err := s.Sign(c)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	got, _, err := s.Verify(raw)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got.Subject != c.Subject || got.Aud != c.Aud || got.TokenID != c.TokenID || got.ExpiresAt != c.ExpiresAt {
		t.Fatalf("round-trip mismatch: got %+v want %+v", got, c)
	}
}

// Tampering any byte of a signed token must yield Unauthenticated, never a
// partial/garbled claim set (spec.md §8.1).
func TestVerifyRejectsTamperedToken(t *testing.T) {
	s, _ := newSigner(t, "root", 1)
	raw, err := s.Sign(token.Claims{
		Issuer:    "root",
		Subject:   cmn.NewID(),
		Aud:       token.AudRoot,
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		t.Fatalf("expected a 3-part JWT, got %d parts", len(parts))
	}
	// Flip the last character of the signature segment.
	sig := []byte(parts[2])
	if sig[len(sig)-1] == 'A' {
		sig[len(sig)-1] = 'B'
	} else {
		sig[len(sig)-1] = 'A'
	}
	parts[2] = string(sig)
	tampered := strings.Join(parts, ".")

	if _, _, err := s.Verify(tampered); !cmn.IsKind(err, cmn.KindUnauthenticated) {
		t.Fatalf("expected Unauthenticated for tampered token, got %v", err)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	s, _ := newSigner(t, "root", 1)
	raw, err := s.Sign(token.Claims{
		Issuer:    "root",
		Subject:   cmn.NewID(),
		Aud:       token.AudRoot,
		ExpiresAt: time.Now().Add(-time.Minute).Unix(),
	})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if _, _, err := s.Verify(raw); !cmn.IsKind(err, cmn.KindUnauthenticated) {
		t.Fatalf("expected Unauthenticated for expired token, got %v", err)
	}
}

func TestVerifyRejectsUnknownSerial(t *testing.T) {
	s, ring := newSigner(t, "root", 1)
	raw, err := s.Sign(token.Claims{
		Issuer:    "root",
		Subject:   cmn.NewID(),
		Aud:       token.AudRoot,
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	ring.Remove(1)
	if _, _, err := s.Verify(raw); !cmn.IsKind(err, cmn.KindUnauthenticated) {
		t.Fatalf("expected Unauthenticated for unknown serial, got %v", err)
	}
}

// S4 from spec.md §8: a CreateSecrets-intent token minted for one endpoint
// is rejected by a different endpoint.
func TestCheckPermissionsRejectsIntentTargetMismatch(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	ring := token.NewRing()
	ring.Add(token.PubKey{Serial: 1, Key: pub, Owner: "root"})

	e1, e2 := cmn.NewID(), cmn.NewID()
	root := token.NewSigner("root", 1, priv, ring)
	raw, err := root.SignCreateSecrets(cmn.NewID(), e1, time.Minute)
	if err != nil {
		t.Fatalf("SignCreateSecrets: %v", err)
	}

	e2Signer := token.NewSigner(e2.String(), 1, priv, ring)
	if _, _, _, err := e2Signer.CheckPermissions(raw); !cmn.IsKind(err, cmn.KindUnauthenticated) {
		t.Fatalf("expected Unauthenticated for target mismatch, got %v", err)
	}

	e1Signer := token.NewSigner(e1.String(), 1, priv, ring)
	if _, _, _, err := e1Signer.CheckPermissions(raw); err != nil {
		t.Fatalf("expected the matching endpoint to accept the token: %v", err)
	}
}

// spec.md §4.A: DpExchange always clears tid, even when one was present in
// the underlying claims (it isn't, here, since SignDpExchange never sets
// one — this asserts the contract stays true for CheckPermissions itself).
func TestCheckPermissionsDpExchangeClearsTokenID(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	ring := token.NewRing()
	ring.Add(token.PubKey{Serial: 1, Key: pub, Owner: "e1"})

	e1, e2 := cmn.NewID(), cmn.NewID()
	sender := token.NewSigner(e1.String(), 1, priv, ring)
	raw, err := sender.SignDpExchange(e2)
	if err != nil {
		t.Fatalf("SignDpExchange: %v", err)
	}

	receiver := token.NewSigner(e2.String(), 1, priv, ring)
	_, tid, _, err := receiver.CheckPermissions(raw)
	if err != nil {
		t.Fatalf("CheckPermissions: %v", err)
	}
	if tid != nil {
		t.Fatalf("expected DpExchange to clear tid, got %v", *tid)
	}
}

func TestCheckPermissionsRejectsRootOnlyIntents(t *testing.T) {
	s, _ := newSigner(t, "e1", 1)
	for _, action := range []token.Action{token.ActionImpersonate, token.ActionFetchInfo} {
		raw, err := s.Sign(token.Claims{
			Issuer:    "e1",
			Subject:   cmn.NewID(),
			Aud:       token.AudRoot,
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
			Intent:    &token.Intent{Target: cmn.NewID(), Action: action},
		})
		if err != nil {
			t.Fatalf("Sign(%v): %v", action, err)
		}
		if _, _, _, err := s.CheckPermissions(raw); !cmn.IsKind(err, cmn.KindUnauthenticated) {
			t.Fatalf("expected %v to be rejected at the proxy, got %v", action, err)
		}
	}
}
