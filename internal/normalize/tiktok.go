package normalize

import (
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/classify"
	"github.com/sells-group/outreach-cli/internal/model"
)

const tikTokProfileBase = "https://tiktok.com/@"

// User-search results are profiles; video results carry the profile under
// authorMeta (or author on older actor versions).
var (
	ttHandle    = []StringRule{Str("uniqueId"), Str("id")}
	ttName      = []StringRule{Str("nickname"), Str("nickName"), Str("name")}
	ttBio       = []StringRule{Str("signature"), Str("bio")}
	ttFollowers = []CountRule{Count("fans"), Count("followerCount")}
	ttLikes     = []CountRule{Count("heart"), Count("heartCount")}
	ttVerified  = []BoolRule{Flag("verified")}
)

type tikTok struct {
	base
}

func (n *tikTok) Normalize(rec RawRecord) (*model.Lead, Reason) {
	profile := profileScope(rec)
	if profile == nil {
		return nil, ReasonDuplicate
	}

	handle := FirstString(profile, ttHandle...)
	if !n.claim(handle) {
		return nil, ReasonDuplicate
	}

	name := FirstString(profile, ttName...)
	if !validName(name) {
		name = handle
	}
	bio := FirstString(profile, ttBio...)
	if rule := classify.Explain(name, bio, ""); rule != "" {
		zap.L().Debug("normalize: skipping organization",
			zap.String("platform", string(n.platform)),
			zap.String("name", name),
			zap.String("rule", rule),
		)
		return nil, ReasonOrganization
	}

	return &model.Lead{
		ID:          n.leadID(),
		Name:        name,
		Role:        "@" + handle,
		Platform:    model.PlatformTikTok,
		ContactLink: tikTokProfileBase + handle,
		Region:      n.query.Location,
		Notes:       n.query.Keyword,
		Followers:   FirstCount(profile, ttFollowers...),
		Likes:       FirstCount(profile, ttLikes...),
		Verified:    FirstFlag(profile, ttVerified...),
		Bio:         truncate(bio, maxBioLen),
	}, ReasonNone
}

// profileScope picks the object that describes the account. It returns nil
// for a video whose author is present but not an object, since the video's
// own id would otherwise pass for a handle.
func profileScope(rec RawRecord) RawRecord {
	if _, ok := Str("uniqueId")(rec); ok {
		return rec
	}
	authorKeys := []string{"authorMeta", "author"}
	for _, path := range authorKeys {
		if sub := rec.Scope(path); sub != nil {
			return sub
		}
	}
	for _, path := range authorKeys {
		if rec.Get(path).Exists() {
			return nil
		}
	}
	return rec
}
