package registry

import (
	"encoding/json"
	"fmt"
)

/* InstanceConfig is the registry's description of one bot instance.
 * Immutable once fetched; each refresh replaces the previous snapshot
 * wholesale and configs are compared by value to detect restarts.
 */
type InstanceConfig struct {
	ID     int64    `json:"id" yaml:"id"`
	Token  string   `json:"token" yaml:"token"`
	Status Status   `json:"status" yaml:"status"`
	Cache  CacheMode `json:"cache" yaml:"cache"`
}

// Same reports whether two configs describe the same instance behavior, i.e.
// whether a running pipeline built from old can keep serving new. A token
// change also forces a restart: the pipeline is routed by token, and the old
// route must die with the old token.
func (c InstanceConfig) Same(other InstanceConfig) bool {
	return c == other
}

/* Status is the registry's approval state for an instance.
 * Only Approved instances get the full command set; the rest answer
 * every update with a static awaiting-approval reply.
 */
type Status int

const (
	Pending Status = iota + 1
	Approved
	Blocked
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Approved:
		return "approved"
	case Blocked:
		return "blocked"
	default:
		return "unknown"
	}
}

// NewStatus creates a Status from a string.
func NewStatus(str string) Status {
	switch str {
	case "pending":
		return Pending
	case "approved":
		return Approved
	case "blocked":
		return Blocked
	default:
		return Pending
	}
}

// Validate checks if the status is valid.
func (s Status) Validate() error {
	if s < Pending || s > Blocked {
		return fmt.Errorf("invalid status: %d", s)
	}
	return nil
}

// MarshalJSON encodes the status as its wire string.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes the status from its wire string.
func (s *Status) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("decoding status: %w", err)
	}
	*s = NewStatus(str)
	return nil
}

// UnmarshalYAML decodes the status from the static instances file.
func (s *Status) UnmarshalYAML(unmarshal func(any) error) error {
	var str string
	if err := unmarshal(&str); err != nil {
		return fmt.Errorf("decoding status: %w", err)
	}
	*s = NewStatus(str)
	return nil
}

/* CacheMode controls whether an instance's file deliveries may be served
 * from the cache service or must always hit the source channel.
 */
type CacheMode int

const (
	Original CacheMode = iota + 1
	WithCopy
	NoCache
)

// String returns the string representation of the cache mode.
func (c CacheMode) String() string {
	switch c {
	case Original:
		return "original"
	case WithCopy:
		return "cache"
	case NoCache:
		return "no_cache"
	default:
		return "unknown"
	}
}

// NewCacheMode creates a CacheMode from a string.
func NewCacheMode(str string) CacheMode {
	switch str {
	case "original":
		return Original
	case "cache":
		return WithCopy
	case "no_cache":
		return NoCache
	default:
		return Original
	}
}

// UsesCachedCopies reports whether delivery should try the cached chat
// copy before downloading the file itself.
func (c CacheMode) UsesCachedCopies() bool {
	return c == Original || c == WithCopy
}

// CopiesOnRead reports whether the cache service should duplicate the
// stored message on lookup instead of handing out the original.
func (c CacheMode) CopiesOnRead() bool {
	return c == WithCopy
}

// Validate checks if the cache mode is valid.
func (c CacheMode) Validate() error {
	if c < Original || c > NoCache {
		return fmt.Errorf("invalid cache mode: %d", c)
	}
	return nil
}

// MarshalJSON encodes the cache mode as its wire string.
func (c CacheMode) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON decodes the cache mode from its wire string.
func (c *CacheMode) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("decoding cache mode: %w", err)
	}
	*c = NewCacheMode(str)
	return nil
}

// UnmarshalYAML decodes the cache mode from the static instances file.
func (c *CacheMode) UnmarshalYAML(unmarshal func(any) error) error {
	var str string
	if err := unmarshal(&str); err != nil {
		return fmt.Errorf("decoding cache mode: %w", err)
	}
	*c = NewCacheMode(str)
	return nil
}
