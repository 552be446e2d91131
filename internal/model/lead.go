package model

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Platform identifies the social network a lead was discovered on.
type Platform string

const (
	PlatformLinkedIn Platform = "LinkedIn"
	PlatformX        Platform = "X"
	PlatformTikTok   Platform = "TikTok"
)

// IDPrefix returns the short tag prepended to lead IDs for this platform.
func (p Platform) IDPrefix() string {
	switch p {
	case PlatformLinkedIn:
		return "li_"
	case PlatformX:
		return "x_"
	case PlatformTikTok:
		return "tt_"
	default:
		return "lead_"
	}
}

// Key returns the lowercase config/actor key for the platform.
func (p Platform) Key() string {
	return strings.ToLower(string(p))
}

// AllPlatforms returns the supported platforms in display order.
func AllPlatforms() []Platform {
	return []Platform{PlatformLinkedIn, PlatformX, PlatformTikTok}
}

// ErrUnknownPlatform is returned by ParsePlatform for names it does not recognize.
var ErrUnknownPlatform = eris.New("unknown platform")

// ParsePlatform maps a caller-supplied platform name onto a Platform.
// Matching is case-insensitive; "twitter" is an alias for X.
func ParsePlatform(name string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "linkedin":
		return PlatformLinkedIn, nil
	case "x", "twitter":
		return PlatformX, nil
	case "tiktok":
		return PlatformTikTok, nil
	default:
		return "", eris.Wrapf(ErrUnknownPlatform, "platform %q", name)
	}
}

// Lead is the canonical, normalized record for one discovered person.
type Lead struct {
	ID          string   `json:"id" csv:"id"`
	Name        string   `json:"name" csv:"name"`
	Role        string   `json:"role" csv:"role"`
	Company     string   `json:"company" csv:"company"`
	Platform    Platform `json:"platform" csv:"platform"`
	ContactLink string   `json:"contact_link" csv:"contact_link"`
	Region      string   `json:"region" csv:"region"`
	Notes       string   `json:"notes" csv:"notes"`
	Followers   int64    `json:"followers" csv:"followers"`

	// Platform-specific attributes.
	Verified bool   `json:"verified,omitempty" csv:"verified"`
	Likes    int64  `json:"likes,omitempty" csv:"likes"`
	Industry string `json:"industry,omitempty" csv:"industry"`
	Headline string `json:"headline,omitempty" csv:"headline"`
	Bio      string `json:"bio,omitempty" csv:"bio"`
}

// SavedLead is a bookmarked lead.
type SavedLead struct {
	Lead
	SavedAt time.Time `json:"saved_at"`
}
