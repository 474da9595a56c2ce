package mode

import (
	"testing"
	"time"

	"github.com/anandk/sahay/internal/model"
)

func TestShopping_RanksByDistanceWhenLocationKnown(t *testing.T) {
	stores := []model.Store{
		{ID: "far", Name: "Far Store", Location: model.Coordinate{Lat: 28.70, Lng: 77.30}},
		{ID: "near", Name: "Near Store", Location: model.Coordinate{Lat: 28.61, Lng: 77.21}},
		{ID: "mid", Name: "Mid Store", Location: model.Coordinate{Lat: 28.65, Lng: 77.25}},
	}
	in := Input{Location: &model.Coordinate{Lat: 28.61, Lng: 77.21}}

	content := Shopping(in, stores)

	if len(content.Stores) != 3 {
		t.Fatalf("len(Stores) = %d, want 3", len(content.Stores))
	}
	wantOrder := []string{"near", "mid", "far"}
	for i, want := range wantOrder {
		if got := content.Stores[i].Store.ID; got != want {
			t.Errorf("Stores[%d].ID = %q, want %q", i, got, want)
		}
		if !content.Stores[i].HasDistance {
			t.Errorf("Stores[%d].HasDistance = false, want true with known location", i)
		}
	}
	if content.Stores[0].DistanceKm > content.Stores[1].DistanceKm {
		t.Error("stores not sorted by ascending distance")
	}
}

func TestShopping_KeepsGivenOrderWithoutLocation(t *testing.T) {
	stores := []model.Store{
		{ID: "b", Name: "B Store"},
		{ID: "a", Name: "A Store"},
	}

	content := Shopping(Input{Location: nil}, stores)

	if got := content.Stores[0].Store.ID; got != "b" {
		t.Errorf("Stores[0].ID = %q, want original order preserved", got)
	}
	for i, view := range content.Stores {
		if view.HasDistance {
			t.Errorf("Stores[%d].HasDistance = true, want false without location", i)
		}
	}
}

func TestSchemes_PassesThroughSchemes(t *testing.T) {
	schemes := []model.Scheme{
		{ID: "s1", Title: "Pension Update", PublishedAt: time.Now()},
	}

	content := Schemes(Input{}, schemes)

	if content.TitleKey != "scheme_mode" {
		t.Errorf("TitleKey = %q, want scheme_mode", content.TitleKey)
	}
	if len(content.Schemes) != 1 || content.Schemes[0].ID != "s1" {
		t.Errorf("Schemes = %+v, want passthrough", content.Schemes)
	}
}

func TestReligiousAndWellness_HaveCards(t *testing.T) {
	if got := Religious(Input{}); len(got.Cards) == 0 || got.TitleKey != "religious_mode" {
		t.Errorf("Religious() = %+v, want cards and religious_mode title", got)
	}
	if got := Wellness(Input{}); len(got.Cards) == 0 || got.TitleKey != "wellness_mode" {
		t.Errorf("Wellness() = %+v, want cards and wellness_mode title", got)
	}
}

func TestDistanceKm_KnownDistance(t *testing.T) {
	// デリー コンノートプレイス -> インド門 はおよそ2.2km
	a := model.Coordinate{Lat: 28.6315, Lng: 77.2167}
	b := model.Coordinate{Lat: 28.6129, Lng: 77.2295}

	got := distanceKm(a, b)
	if got < 1.5 || got > 3.0 {
		t.Errorf("distanceKm() = %v, want roughly 2.2", got)
	}
}
