package normalize

import (
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/classify"
	"github.com/sells-group/outreach-cli/internal/model"
)

const xProfileBase = "https://x.com/"

// Tweet records carry the account under "author".
var (
	xHandle    = []StringRule{Str("author.userName"), Str("author.username")}
	xName      = []StringRule{Str("author.name")}
	xBio       = []StringRule{Str("author.description")}
	xLocation  = []StringRule{Str("author.location")}
	xFollowers = []CountRule{Count("author.followers"), Count("author.followersCount")}
	xVerified  = []BoolRule{Flag("author.isBlueVerified"), Flag("author.isVerified")}
)

type twitter struct {
	base
}

func (n *twitter) Normalize(rec RawRecord) (*model.Lead, Reason) {
	handle := FirstString(rec, xHandle...)
	if !n.claim(handle) {
		return nil, ReasonDuplicate
	}

	name := FirstString(rec, xName...)
	if !validName(name) {
		name = handle
	}
	bio := FirstString(rec, xBio...)
	if rule := classify.Explain(name, bio, ""); rule != "" {
		zap.L().Debug("normalize: skipping organization",
			zap.String("platform", string(n.platform)),
			zap.String("name", name),
			zap.String("rule", rule),
		)
		return nil, ReasonOrganization
	}

	region := FirstString(rec, xLocation...)
	if region == "" {
		region = n.query.Location
	}

	return &model.Lead{
		ID:          n.leadID(),
		Name:        name,
		Role:        "@" + handle,
		Platform:    model.PlatformX,
		ContactLink: xProfileBase + handle,
		Region:      region,
		Notes:       n.query.Keyword,
		Followers:   FirstCount(rec, xFollowers...),
		Verified:    FirstFlag(rec, xVerified...),
		Bio:         truncate(bio, maxBioLen),
	}, ReasonNone
}
