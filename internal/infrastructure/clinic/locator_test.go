package clinic

import (
	"testing"

	"symptom-advisor-bot/internal/config"
)

func TestSearchURL(t *testing.T) {
	l := NewMapsLocator(&config.ClinicConfig{})
	got := l.SearchURL(25.033, 121.5654)
	want := "https://www.google.com/maps/search/%E8%A8%BA%E6%89%80/@25.033000,121.565400,15z"
	if got != want {
		t.Errorf("SearchURL = %q, want %q", got, want)
	}

	l = NewMapsLocator(&config.ClinicConfig{MapsBaseURL: "https://maps.example/q", SearchKeyword: "pharmacy", Zoom: 12})
	s := l.Locate("家", "台北市", 1.5, -2.25)
	if s.SearchURL != "https://maps.example/q/pharmacy/@1.500000,-2.250000,12z" {
		t.Errorf("SearchURL = %q", s.SearchURL)
	}
	if s.Address != "台北市" || s.Title != "家" {
		t.Errorf("search = %+v", s)
	}
}
