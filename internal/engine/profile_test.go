package engine

import (
	"testing"

	"github.com/desertthunder/mixtape/internal/models"
	mocks "github.com/desertthunder/mixtape/internal/testing"
)

func anchorTrack(id, title, artistID, artistName string) models.Track {
	return models.Track{
		ID:      id,
		Title:   title,
		Artists: []models.Artist{{ID: artistID, Name: artistName}},
	}
}

func TestBuildVibeProfileCentroid(t *testing.T) {
	anchors := []models.Track{
		anchorTrack("t1", "A", "a1", "Artist One"),
		anchorTrack("t2", "B", "a2", "Artist Two"),
	}
	features := map[string]models.Features{
		"t1": {Energy: mocks.FloatPtr(0.2), Tempo: mocks.FloatPtr(100)},
		"t2": {Energy: mocks.FloatPtr(0.8), Tempo: mocks.FloatPtr(140), Valence: mocks.FloatPtr(0.6)},
	}

	profile := BuildVibeProfile(anchors, features, nil)

	if !profile.HasFeatures {
		t.Fatal("expected HasFeatures")
	}
	if profile.Centroid.Energy == nil || *profile.Centroid.Energy != 0.5 {
		t.Errorf("unexpected energy centroid: %v", profile.Centroid.Energy)
	}
	if profile.Centroid.Tempo == nil || *profile.Centroid.Tempo != 120 {
		t.Errorf("unexpected tempo centroid: %v", profile.Centroid.Tempo)
	}
	// only one anchor defines valence, so the centroid is that value
	if profile.Centroid.Valence == nil || *profile.Centroid.Valence != 0.6 {
		t.Errorf("unexpected valence centroid: %v", profile.Centroid.Valence)
	}
	if profile.Centroid.Danceability != nil {
		t.Error("expected danceability undefined when no anchor supplies it")
	}
}

// each centroid value must lie within [min,max] of the anchor values
func TestBuildVibeProfileCentroidBounds(t *testing.T) {
	anchors := []models.Track{
		anchorTrack("t1", "A", "a1", "One"),
		anchorTrack("t2", "B", "a2", "Two"),
		anchorTrack("t3", "C", "a3", "Three"),
	}
	features := map[string]models.Features{
		"t1": {Energy: mocks.FloatPtr(0.1), Valence: mocks.FloatPtr(0.9)},
		"t2": {Energy: mocks.FloatPtr(0.5), Valence: mocks.FloatPtr(0.2)},
		"t3": {Energy: mocks.FloatPtr(0.9), Valence: mocks.FloatPtr(0.4)},
	}

	profile := BuildVibeProfile(anchors, features, nil)

	if e := *profile.Centroid.Energy; e < 0.1 || e > 0.9 {
		t.Errorf("energy centroid %v outside anchor bounds", e)
	}
	if v := *profile.Centroid.Valence; v < 0.2 || v > 0.9 {
		t.Errorf("valence centroid %v outside anchor bounds", v)
	}
}

func TestBuildVibeProfileNoFeatures(t *testing.T) {
	anchors := []models.Track{anchorTrack("t1", "A", "a1", "One")}

	profile := BuildVibeProfile(anchors, nil, nil)

	if profile.HasFeatures {
		t.Error("expected HasFeatures false with no feature data")
	}
	if profile.Centroid.Defined() {
		t.Error("expected undefined centroid")
	}
}

func TestBuildVibeProfileGenreWeights(t *testing.T) {
	anchors := []models.Track{
		anchorTrack("t1", "A", "a1", "One"),
		anchorTrack("t2", "B", "a2", "Two"),
	}
	artistGenres := map[string][]string{
		"a1": {"art rock", "alternative"},
		"a2": {"art rock", "electronica"},
	}

	profile := BuildVibeProfile(anchors, nil, artistGenres)

	if w := profile.Genres["art rock"]; w != 0.5 {
		t.Errorf("expected art rock weight 0.5, got %v", w)
	}
	if w := profile.Genres["alternative"]; w != 0.25 {
		t.Errorf("expected alternative weight 0.25, got %v", w)
	}

	var sum float64
	for _, w := range profile.Genres {
		sum += w
	}
	if sum < 0.999 || sum > 1.001 {
		t.Errorf("genre weights should sum to 1, got %v", sum)
	}

	top := profile.TopGenres(2)
	if len(top) != 2 || top[0] != "art rock" {
		t.Errorf("unexpected top genres: %v", top)
	}
	// alternative was seen before electronica; equal weights keep that order
	if top[1] != "alternative" {
		t.Errorf("expected insertion order tiebreak, got %v", top)
	}
}

func TestBuildVibeProfileAnchorArtists(t *testing.T) {
	anchors := []models.Track{
		anchorTrack("t1", "A", "a1", "One"),
		anchorTrack("t2", "B", "a1", "One"),
	}

	profile := BuildVibeProfile(anchors, nil, nil)

	if len(profile.AnchorArtistIDs) != 1 {
		t.Errorf("expected deduplicated anchor artist set, got %v", profile.AnchorArtistIDs)
	}
	if len(profile.AnchorIDs) != 2 {
		t.Errorf("expected 2 anchor ids, got %v", profile.AnchorIDs)
	}
}
