package normalize

import (
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/classify"
	"github.com/sells-group/outreach-cli/internal/model"
)

const linkedInProfileBase = "https://www.linkedin.com/in/"

// LinkedIn field priorities. Profile-scraper actors send first/last name
// pairs; the Exa people search actor sends "author" and a "Name | Headline"
// title.
var (
	liName = []StringRule{
		Join("firstName", "lastName"),
		Str("fullName"),
		Str("name"),
		Str("author"),
		SplitPart("title", "|", 0),
	}
	liHeadline = []StringRule{
		Str("headline"),
		Str("occupation"),
		Str("jobTitle"),
		SplitPart("title", "|", 1),
	}
	liBio = []StringRule{
		Str("about"),
		Str("summary"),
		Str("bio"),
		Str("text"),
	}
	liLocation = []StringRule{
		Str("location"),
		Str("geoLocationName"),
		Str("addressWithCountry"),
		Str("locationName"),
	}
	liCompany = []StringRule{
		Under("currentCompany", Str("name")),
		Str("companyName"),
		FirstElem("positions", Str("companyName")),
		FirstElem("positions", Str("company")),
		FirstElem("experience", Str("companyName")),
		FirstElem("experience", Str("company")),
	}
	liTitle = []StringRule{
		Under("currentCompany", Str("title")),
		Str("jobTitle"),
		FirstElem("positions", Str("title")),
		FirstElem("experience", Str("title")),
	}
	liURL = []StringRule{
		Str("url"),
		Str("profileUrl"),
		Str("linkedinUrl"),
		Str("linkedInProfileUrl"),
	}
	liPublicID = []StringRule{
		Str("publicIdentifier"),
		Str("public_identifier"),
	}
	liIndustry = []StringRule{
		Str("industry"),
		Under("currentCompany", Str("industry")),
	}
	liFollowers = []CountRule{
		Count("followers"),
		Count("followersCount"),
		Count("connections"),
	}
)

// regionOverride promotes a more specific region when its keyword occurs in
// the bio. Entries are ordered most specific first.
type regionOverride struct {
	keyword string
	region  string
}

var regionOverrides = []regionOverride{
	{"Berlin", "Berlin, Germany"},
	{"Munich", "Munich, Germany"},
	{"München", "Munich, Germany"},
	{"Hamburg", "Hamburg, Germany"},
	{"Frankfurt", "Frankfurt, Germany"},
	{"Cologne", "Cologne, Germany"},
	{"Germany", "Germany"},
	{"Deutschland", "Germany"},
}

type linkedIn struct {
	base
}

func (n *linkedIn) Normalize(rec RawRecord) (*model.Lead, Reason) {
	name := FirstString(rec, liName...)
	if !validName(name) {
		zap.L().Debug("normalize: skipping record without name", zap.String("platform", string(n.platform)))
		return nil, ReasonNoName
	}

	headline := FirstString(rec, liHeadline...)
	bio := FirstString(rec, liBio...)
	if rule := classify.Explain(name, bio, headline); rule != "" {
		zap.L().Debug("normalize: skipping organization",
			zap.String("platform", string(n.platform)),
			zap.String("name", name),
			zap.String("rule", rule),
		)
		return nil, ReasonOrganization
	}

	link := FirstString(rec, liURL...)
	if link == "" {
		if pid := FirstString(rec, liPublicID...); pid != "" {
			link = linkedInProfileBase + pid
		}
	}
	if link != "" && !n.claim(strings.TrimRight(strings.ToLower(link), "/")) {
		return nil, ReasonDuplicate
	}

	role := FirstString(rec, liTitle...)
	if role == "" {
		role = headline
	}

	return &model.Lead{
		ID:          n.leadID(),
		Name:        name,
		Role:        role,
		Company:     FirstString(rec, liCompany...),
		Platform:    model.PlatformLinkedIn,
		ContactLink: link,
		Region:      n.region(rec, bio),
		Notes:       n.query.Keyword,
		Followers:   FirstCount(rec, liFollowers...),
		Industry:    FirstString(rec, liIndustry...),
		Headline:    headline,
		Bio:         truncate(bio, maxBioLen),
	}, ReasonNone
}

// region resolves the lead's region. An explicit profile location wins;
// otherwise a bio keyword override applies, then the search location.
func (n *linkedIn) region(rec RawRecord, bio string) string {
	if loc := FirstString(rec, liLocation...); loc != "" {
		return loc
	}
	for _, o := range regionOverrides {
		if strings.Contains(bio, o.keyword) {
			return o.region
		}
	}
	return strings.TrimSpace(n.query.Location)
}
