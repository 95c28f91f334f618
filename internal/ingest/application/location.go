package application

import "strings"

// LocationParts is a parsed "<district>, <neighborhood>, <address>" line.
type LocationParts struct {
	District     string
	Neighborhood string
	Address      string
}

// ParseLocation splits a free-text location line into its three fixed
// segments. The first two segments run up to their delimiting comma; the
// remainder forms the address and may itself contain commas. A leading
// "<label>:" before the district (sent by some firmware revisions) is
// tolerated. Anything else is a non-match, never a best-effort guess.
func ParseLocation(line string) (LocationParts, bool) {
	parts := strings.SplitN(line, ",", 3)
	if len(parts) != 3 {
		return LocationParts{}, false
	}

	district := strings.TrimSpace(parts[0])
	if idx := strings.LastIndex(district, ":"); idx >= 0 {
		district = strings.TrimSpace(district[idx+1:])
	}
	neighborhood := strings.TrimSpace(parts[1])
	address := strings.TrimSpace(parts[2])

	if district == "" || neighborhood == "" || address == "" {
		return LocationParts{}, false
	}
	return LocationParts{District: district, Neighborhood: neighborhood, Address: address}, true
}
