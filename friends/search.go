package friends

import (
	"strings"

	"github.com/achievement-hub/api/models"
	"github.com/achievement-hub/api/pkg/apperr"
)

const (
	searchPrefixLimit   = 100
	searchFallbackLimit = 500
)

// SearchPublic matches public profiles against queryText. Two tiers: a
// prefix range query over the normalized search key, then, only when that
// yields nothing, a bounded scan filtered by substring. Either way the final
// set is re-filtered on display-name containment so a stale search key can
// never surface a non-matching profile.
func (s *Service) SearchPublic(queryText string) ([]models.ProfileSearchResult, error) {
	normalized := strings.ToLower(strings.TrimSpace(queryText))
	if normalized == "" {
		return []models.ProfileSearchResult{}, nil
	}

	profiles, err := s.Profiles.SearchPrefix(normalized, searchPrefixLimit)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "profile search failed")
	}

	if len(profiles) == 0 {
		page, scanErr := s.Profiles.ScanPage(searchFallbackLimit)
		if scanErr != nil {
			return nil, apperr.Wrap(scanErr, apperr.CodeInternal, "profile search failed")
		}
		for _, profile := range page {
			if strings.Contains(strings.ToLower(profile.DisplayName), normalized) {
				profiles = append(profiles, profile)
			}
		}
	}

	results := []models.ProfileSearchResult{}
	for _, profile := range profiles {
		if !strings.Contains(strings.ToLower(profile.DisplayName), normalized) {
			continue
		}
		results = append(results, models.ProfileSearchResult{
			UserID:      profile.UserID,
			DisplayName: profile.DisplayName,
			PhotoURL:    profile.PhotoURL,
		})
	}

	return results, nil
}
