package models

import (
	"strings"
	"time"
)

// EndpointClass groups routes that share a request budget.
type EndpointClass string

const (
	// ClassAuth covers login and registration.
	ClassAuth EndpointClass = "auth"
	// ClassWrite covers mutations: filing complaints, paying bills, voting.
	ClassWrite EndpointClass = "write"
	// ClassRead covers lookups and listings.
	ClassRead EndpointClass = "read"
)

func (c EndpointClass) IsValid() bool {
	switch c {
	case ClassAuth, ClassWrite, ClassRead:
		return true
	}
	return false
}

// KeyPrefix distinguishes the identity a bucket counts requests for.
type KeyPrefix string

const (
	KeyPrefixIP   KeyPrefix = "ip"
	KeyPrefixUser   KeyPrefix = "user"
	KeyPrefixGlobal KeyPrefix = "global"
)

// GlobalKey is the single bucket every request is charged to when a global
// limit is configured.
const GlobalKey = "global:all"

// Limit is a request budget over a sliding window.
type Limit struct {
	RequestsPerWindow int
	Window            time.Duration
}

// Limits holds the per-class budgets for anonymous (IP) and authenticated
// (user) callers. Global caps the whole API; a zero value disables it.
type Limits struct {
	IP     map[EndpointClass]Limit
	User   map[EndpointClass]Limit
	Global Limit
}

// GlobalPerSecond builds the global cap from a requests-per-second figure.
func GlobalPerSecond(n int) Limit {
	if n <= 0 {
		return Limit{}
	}
	return Limit{RequestsPerWindow: n, Window: time.Second}
}

// DefaultLimits are sized for a municipal portal: login is tight, reads are
// generous.
func DefaultLimits() Limits {
	return Limits{
		IP: map[EndpointClass]Limit{
			ClassAuth:  {RequestsPerWindow: 10, Window: time.Minute},
			ClassWrite: {RequestsPerWindow: 50, Window: time.Minute},
			ClassRead:  {RequestsPerWindow: 200, Window: time.Minute},
		},
		User: map[EndpointClass]Limit{
			ClassAuth:  {RequestsPerWindow: 10, Window: time.Minute},
			ClassWrite: {RequestsPerWindow: 30, Window: time.Minute},
			ClassRead:  {RequestsPerWindow: 120, Window: time.Minute},
		},
	}
}

// Result is the outcome of a single rate limit check.
type Result struct {
	Allowed    bool      `json:"allowed"`
	Limit      int       `json:"limit"`
	Remaining  int       `json:"remaining"`
	ResetAt    time.Time `json:"reset_at"`
	RetryAfter int       `json:"retry_after,omitempty"` // seconds, only set when not allowed
	// Degraded is set when the answer came from the in-process fallback.
	Degraded bool `json:"-"`
	// Exempt is set for allowlisted callers; no budget was charged.
	Exempt bool `json:"-"`
}

// ExceededResponse is the 429 body.
type ExceededResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after"`
}

// NewKey builds the bucket key "<prefix>:<identifier>:<class>".
func NewKey(prefix KeyPrefix, identifier string, class EndpointClass) string {
	return string(prefix) + ":" + SanitizeKeySegment(identifier) + ":" + string(class)
}

// SanitizeKeySegment escapes the key delimiter so a crafted identifier such
// as "user:admin" cannot land in another bucket.
func SanitizeKeySegment(s string) string {
	return strings.ReplaceAll(s, ":", "_")
}
