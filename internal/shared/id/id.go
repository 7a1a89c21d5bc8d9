// Package id generates sortable identifiers for sessions and archive jobs.
//
// Identifiers are prefixed ULIDs (sess_01HV..., job_01HV...). They are
// k-sortable, so log lines for one session read in creation order, and they
// are never used as secrets: session tokens are generated separately from
// crypto/rand by the session package.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// SessionID identifies a session in logs without exposing its token.
type SessionID string

// JobID identifies one compress or extract run.
type JobID string

const (
	SessionPrefix = "sess"
	JobPrefix     = "job"
)

// Generator produces ULIDs from a shared entropy source.
type Generator struct {
	mu      sync.Mutex
	entropy io.Reader
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the process-wide generator.
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator(rand.Reader)
	})
	return defaultGenerator
}

// NewGenerator creates a generator reading from entropy. Tests pass a
// deterministic reader.
func NewGenerator(entropy io.Reader) *Generator {
	return &Generator{entropy: ulid.Monotonic(entropy, 0)}
}

// Generate returns a ULID stamped with the current time.
func (g *Generator) Generate() ulid.ULID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// WithPrefix returns "<prefix>_<ulid>".
func (g *Generator) WithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate().String())
}

// NewSessionID generates a session identifier.
func NewSessionID() SessionID {
	return SessionID(Default().WithPrefix(SessionPrefix))
}

// NewJobID generates an archive job identifier.
func NewJobID() JobID {
	return JobID(Default().WithPrefix(JobPrefix))
}

func (s SessionID) String() string { return string(s) }
func (j JobID) String() string     { return string(j) }

// Timestamp extracts the creation time from a prefixed or bare identifier.
func Timestamp(s string) (time.Time, error) {
	if i := strings.LastIndexByte(s, '_'); i >= 0 {
		s = s[i+1:]
	}
	parsed, err := ulid.Parse(s)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
