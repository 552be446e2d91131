// Package normalize maps heterogeneous provider records onto model.Lead.
//
// Each platform has its own Normalizer. A Normalizer is scoped to one scrape
// invocation: it remembers identities it has already accepted so repeated
// records for the same person are rejected.
package normalize

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/sells-group/outreach-cli/internal/model"
)

// Reason explains why a record produced no lead.
type Reason string

const (
	ReasonNone         Reason = ""
	ReasonNoName       Reason = "no_name"
	ReasonOrganization Reason = "organization"
	ReasonDuplicate    Reason = "duplicate_identity"
)

// placeholderName is what some actors emit when they could not resolve a name.
const placeholderName = "Unknown"

// maxBioLen caps the bio text copied onto a lead.
const maxBioLen = 500

// Query carries the search context echoed onto every lead.
type Query struct {
	Keyword  string
	Location string
}

// Normalizer turns raw records into leads for one platform.
type Normalizer interface {
	// Normalize returns a lead, or nil and the rejection reason.
	Normalize(rec RawRecord) (*model.Lead, Reason)
	Platform() model.Platform
}

// IDFunc generates the random part of a lead ID.
type IDFunc func() string

// Option configures a Normalizer.
type Option func(*base)

// WithIDFunc overrides the random ID generator.
func WithIDFunc(fn IDFunc) Option {
	return func(b *base) {
		b.newID = fn
	}
}

// New returns the Normalizer for platform.
func New(platform model.Platform, q Query, opts ...Option) Normalizer {
	b := base{
		platform: platform,
		query:    q,
		seen:     make(map[string]struct{}),
		ids:      make(map[string]struct{}),
		newID:    randomHex,
	}
	for _, opt := range opts {
		opt(&b)
	}
	switch platform {
	case model.PlatformLinkedIn:
		return &linkedIn{base: b}
	case model.PlatformX:
		return &twitter{base: b}
	case model.PlatformTikTok:
		return &tikTok{base: b}
	default:
		return nil
	}
}

// base holds per-invocation state shared by the platform normalizers.
type base struct {
	platform model.Platform
	query    Query
	seen     map[string]struct{}
	ids      map[string]struct{}
	newID    IDFunc
}

func (b *base) Platform() model.Platform {
	return b.platform
}

// claim records identity as seen. It reports false for blank or repeated keys.
func (b *base) claim(identity string) bool {
	if identity == "" {
		return false
	}
	if _, dup := b.seen[identity]; dup {
		return false
	}
	b.seen[identity] = struct{}{}
	return true
}

// leadID returns a platform-prefixed ID not yet issued by this normalizer.
func (b *base) leadID() string {
	id := b.platform.IDPrefix() + b.newID()
	if _, taken := b.ids[id]; taken {
		id += "_" + strconv.Itoa(len(b.ids))
	}
	b.ids[id] = struct{}{}
	return id
}

// randomHex returns 8 random hex characters.
func randomHex() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

func validName(name string) bool {
	return name != "" && name != placeholderName
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
