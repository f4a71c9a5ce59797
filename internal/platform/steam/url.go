package steam

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"

	"github.com/avelory/steamflipper/internal/domain"
)

var listingRE = regexp.MustCompile(`/market/listings/(\d+)/([^?#]+)`)

// ParseListingURL extracts the app ID and market hash name from a community
// market listing URL such as
// "https://steamcommunity.com/market/listings/730/Fracture%20Case".
// It returns domain.ErrInvalidListingURL when the URL does not point at a
// market listing.
func ParseListingURL(raw string) (int, string, error) {
	m := listingRE.FindStringSubmatch(raw)
	if m == nil {
		return 0, "", fmt.Errorf("steam: parse %q: %w", raw, domain.ErrInvalidListingURL)
	}

	appID, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, "", fmt.Errorf("steam: parse %q: %w", raw, domain.ErrInvalidListingURL)
	}

	name, err := url.PathUnescape(m[2])
	if err != nil || name == "" {
		return 0, "", fmt.Errorf("steam: parse %q: %w", raw, domain.ErrInvalidListingURL)
	}

	return appID, name, nil
}

// ListingURL builds the community market listing URL for an item.
func ListingURL(appID int, marketHashName string) string {
	return fmt.Sprintf("https://steamcommunity.com/market/listings/%d/%s",
		appID, url.PathEscape(marketHashName))
}
