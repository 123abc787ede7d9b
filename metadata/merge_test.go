package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeRecords_Precedence(t *testing.T) {
	score := 7.5
	auth := &GameRecord{
		Name:   "X",
		Genres: []string{"RPG"},
	}
	supp := &GameRecord{
		Name:        "Y",
		Genres:      []string{"Action"},
		CriticScore: &score,
	}

	merged := MergeRecords(auth, supp)

	assert.Equal(t, "X", merged.Name, "authoritative name wins")
	assert.ElementsMatch(t, []string{"RPG", "Action"}, merged.Genres, "genres are the set-union")
	assert.Equal(t, &score, merged.CriticScore, "absent fields are filled from the supplement")
}

func TestMergeRecords_NilSupplement(t *testing.T) {
	auth := &GameRecord{
		Name:       "X",
		Genres:     []string{"RPG"},
		DetailURLs: map[string]string{"igdb": "http://example.com"},
	}

	merged := MergeRecords(auth, nil)

	assert.Equal(t, auth.Name, merged.Name)
	assert.Equal(t, auth.Genres, merged.Genres)
	assert.Equal(t, auth.DetailURLs, merged.DetailURLs)
}

func TestMergeRecords_GenreUnionDedup(t *testing.T) {
	auth := &GameRecord{Name: "X", Genres: []string{"RPG", "Action"}}
	supp := &GameRecord{Genres: []string{"Action", "Strategy"}}

	merged := MergeRecords(auth, supp)

	assert.Equal(t, []string{"RPG", "Action", "Strategy"}, merged.Genres)
}

func TestMergeRecords_DetailURLs(t *testing.T) {
	auth := &GameRecord{Name: "X", DetailURLs: map[string]string{"igdb": "a"}}
	supp := &GameRecord{DetailURLs: map[string]string{"giantbomb": "b", "igdb": "c"}}

	merged := MergeRecords(auth, supp)

	assert.Equal(t, "a", merged.DetailURLs["igdb"], "authoritative URL wins on conflict")
	assert.Equal(t, "b", merged.DetailURLs["giantbomb"])
}

func TestMergeRecords_FieldFill(t *testing.T) {
	user := 88.0
	auth := &GameRecord{Name: "X", Description: "auth desc"}
	supp := &GameRecord{
		Description: "supp desc",
		ReleaseDate: "1998-11-21",
		UserScore:   &user,
	}

	merged := MergeRecords(auth, supp)

	assert.Equal(t, "auth desc", merged.Description)
	assert.Equal(t, "1998-11-21", merged.ReleaseDate)
	assert.Equal(t, &user, merged.UserScore)
}
