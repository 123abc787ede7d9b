package metadata

// MergeRecords combines an authoritative record with a supplementary one.
// Fields present in both keep the authoritative value; fields absent from
// the authoritative record are filled from the supplement. Genres are the
// set-union of both, authoritative names first.
func MergeRecords(auth, supp *GameRecord) *GameRecord {
	merged := &GameRecord{
		Name:        auth.Name,
		Description: auth.Description,
		ReleaseDate: auth.ReleaseDate,
		CriticScore: auth.CriticScore,
		UserScore:   auth.UserScore,
		Genres:      append([]string(nil), auth.Genres...),
		DetailURLs:  make(map[string]string, len(auth.DetailURLs)),
	}
	for provider, url := range auth.DetailURLs {
		merged.DetailURLs[provider] = url
	}

	if supp == nil {
		return merged
	}

	if merged.Name == "" {
		merged.Name = supp.Name
	}
	if merged.Description == "" {
		merged.Description = supp.Description
	}
	if merged.ReleaseDate == "" {
		merged.ReleaseDate = supp.ReleaseDate
	}
	if merged.CriticScore == nil {
		merged.CriticScore = supp.CriticScore
	}
	if merged.UserScore == nil {
		merged.UserScore = supp.UserScore
	}

	seen := make(map[string]struct{}, len(merged.Genres))
	for _, g := range merged.Genres {
		seen[g] = struct{}{}
	}
	for _, g := range supp.Genres {
		if _, ok := seen[g]; !ok {
			merged.Genres = append(merged.Genres, g)
			seen[g] = struct{}{}
		}
	}

	for provider, url := range supp.DetailURLs {
		if _, ok := merged.DetailURLs[provider]; !ok {
			merged.DetailURLs[provider] = url
		}
	}

	return merged
}
