package cmn

import (
	"crypto/rand"
	"errors"
	mathrand "math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/teris-io/shortid"
)

// Identifiers are 128-bit, monotonically-ordered ULIDs encoded as
// 26-char Crockford base32 on the wire (spec.md §6 "Persisted layouts").
type ID string

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewID mints a fresh, time-ordered identifier. Safe for concurrent use:
// ulid.Monotonic is not itself goroutine-safe so access is serialized.
func NewID() ID {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ID(ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String())
}

func ParseID(s string) (ID, error) {
	if _, err := ulid.ParseStrict(s); err != nil {
		return "", NewErrorf(KindInvalidArgument, "invalid identifier %q", s)
	}
	return ID(s), nil
}

func (id ID) String() string { return string(id) }
func (id ID) Empty() bool    { return id == "" }

// sid generates short, human-legible nonces used for idempotency ties and
// request ids - never for resource identity. Adapted from the teacher's
// cmn/shortid.go, which used the same library for the same purpose.
// alphabet mirrors the teacher's own cmn/shortid.go choice of a
// hand-picked alphabet rather than the library default.
const shortIDAlphabet = "-5nZJDft6LuzsjGNpPwY7rQa39vehq4i1cV2FROo8yHSlC0BUEdWbIxMmTgKXAk_"

var sid *shortid.Shortid

func init() {
	var seed uint64
	var b [8]byte
	if _, err := rand.Read(b[:]); err == nil {
		for _, c := range b {
			seed = seed<<8 | uint64(c)
		}
	} else {
		seed = uint64(time.Now().UnixNano())
	}
	s, err := shortid.New(1, shortIDAlphabet, seed)
	if err != nil {
		panic(err)
	}
	sid = s
}

// GenRequestID returns a short opaque id attached to every handler
// invocation for log correlation (never returned to the caller as a
// resource id).
func GenRequestID() string {
	id, err := sid.Generate()
	if err != nil {
		// extremely unlikely; fall back to a local fast source
		return shortidFallback()
	}
	return id
}

func shortidFallback() string {
	const abc = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, 9)
	for i := range b {
		b[i] = abc[mathrand.Intn(len(abc))]
	}
	return string(b)
}

var ErrEmptyID = errors.New("empty identifier")
