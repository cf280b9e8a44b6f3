package domain

import (
	"regexp"
	"strings"
)

var (
	// habitatPrefixRe matches a leading habitat word plus separator, e.g.
	// "Forest_" or "grassland - ".
	habitatPrefixRe = regexp.MustCompile(`(?i)^(forest|grassland)(?:[\s_-]+|$)`)

	// unitSiteRe splits "<CODE><sep><site>", e.g. "GWMP - Turkey Run".
	unitSiteRe = regexp.MustCompile(`^([A-Z][A-Z0-9]{1,5})(?:\s*-\s*|_|\s+)(.+)$`)
)

// SheetIdentity is the administrative unit and site encoded in a sheet name.
type SheetIdentity struct {
	UnitCode string
	SiteName string
}

// ParseSheetName derives the unit code and site name from a sheet name. It
// never fails: parts that cannot be recovered are set to Unknown.
func ParseSheetName(name string) SheetIdentity {
	rest := strings.TrimSpace(name)
	rest = strings.TrimSpace(habitatPrefixRe.ReplaceAllString(rest, ""))
	if rest == "" {
		return SheetIdentity{UnitCode: Unknown, SiteName: Unknown}
	}

	if m := unitSiteRe.FindStringSubmatch(rest); m != nil {
		site := strings.TrimSpace(m[2])
		if site == "" {
			site = Unknown
		}
		return SheetIdentity{UnitCode: m[1], SiteName: site}
	}

	return SheetIdentity{UnitCode: rest, SiteName: Unknown}
}
