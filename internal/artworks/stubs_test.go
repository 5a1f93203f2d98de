package artworks

import (
	"context"
	"errors"
	"time"

	"github.com/matthieumontaigu/plex-poster-manager/internal/domain"
	"github.com/matthieumontaigu/plex-poster-manager/internal/provider"
)

type stubProvider struct {
	name  string
	found map[string]provider.Found
	err   map[string]error
	calls []domain.Target
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Artworks(_ context.Context, t domain.Target) (provider.Found, error) {
	p.calls = append(p.calls, t)
	if err := p.err[t.Country]; err != nil {
		return provider.Found{}, err
	}
	return p.found[t.Country], nil
}

type stubLocalizer struct {
	titles map[string]string
}

func (l stubLocalizer) LocalizedTitle(_ context.Context, m domain.Movie, country string) (string, error) {
	if country == m.MetadataCountry {
		return m.Title, nil
	}
	t, ok := l.titles[country]
	if !ok {
		return "", errors.New("unsupported")
	}
	return t, nil
}

func (l stubLocalizer) Language(country string) (string, error) {
	switch country {
	case "fr":
		return "fr", nil
	case "us", "gb":
		return "en", nil
	}
	return "", errors.New("unsupported")
}

type stubLogo struct {
	urls  map[string]string
	calls []string
}

func (s *stubLogo) Name() string { return "tmdb" }

func (s *stubLogo) Logo(_ context.Context, _ int, country string) (string, error) {
	s.calls = append(s.calls, country)
	return s.urls[country], nil
}

type sleepRecorder struct {
	calls []time.Duration
}

func (s *sleepRecorder) Sleep(_ context.Context, d time.Duration) error {
	s.calls = append(s.calls, d)
	return nil
}

func img(url, country, title, source string) *domain.Image {
	return &domain.Image{URL: url, Country: country, Title: title, Source: source}
}
