package metadata

import (
	"context"
	"errors"
	"testing"

	"github.com/matthieumontaigu/plex-poster-manager/internal/domain"
)

type stubDates struct {
	date    string
	err     error
	country string
}

func (s *stubDates) ReleaseDate(_ context.Context, _ int, country string) (string, error) {
	s.country = country
	return s.date, s.err
}

type stubLibrary struct {
	err   error
	dates []string
}

func (s *stubLibrary) UpdateReleaseDate(_ context.Context, _ int, date string) error {
	s.dates = append(s.dates, date)
	return s.err
}

func TestFormatDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2025-02-12T00:00:00.000Z", "2025-02-12", true},
		{"2025-02-12", "2025-02-12", true},
		{"2025-02-12 garbage", "2025-02-12", true},
		{"", "", false},
		{"soon", "", false},
	}
	for _, tc := range cases {
		got, ok := FormatDate(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("FormatDate(%q)：期望 (%q,%v)，实际 (%q,%v)", tc.in, tc.want, tc.ok, got, ok)
		}
	}
}

func TestUpdateReleaseDate(t *testing.T) {
	m := domain.Movie{ID: 7, Title: "Up", TMDBID: 14160, MetadataCountry: "fr"}

	dates := &stubDates{date: "2009-07-29T00:00:00.000Z"}
	lib := &stubLibrary{}
	if !NewUpdater(dates, lib, nil).UpdateReleaseDate(context.Background(), m) {
		t.Fatalf("期望写入成功")
	}
	if dates.country != "fr" {
		t.Fatalf("应查询元数据国家，实际 %q", dates.country)
	}
	if len(lib.dates) != 1 || lib.dates[0] != "2009-07-29" {
		t.Fatalf("写入的日期不正确：%v", lib.dates)
	}
}

func TestUpdateReleaseDate_Failures(t *testing.T) {
	m := domain.Movie{ID: 7, Title: "Up", TMDBID: 14160, MetadataCountry: "fr"}
	cases := []struct {
		name  string
		movie domain.Movie
		dates *stubDates
		lib   *stubLibrary
	}{
		{"no tmdb id", domain.Movie{ID: 7, Title: "Up"}, &stubDates{date: "2009-07-29"}, &stubLibrary{}},
		{"no date", m, &stubDates{}, &stubLibrary{}},
		{"lookup error", m, &stubDates{err: errors.New("timeout")}, &stubLibrary{}},
		{"upload error", m, &stubDates{date: "2009-07-29"}, &stubLibrary{err: errors.New("http 500")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if NewUpdater(tc.dates, tc.lib, nil).UpdateReleaseDate(context.Background(), tc.movie) {
				t.Fatalf("期望失败")
			}
		})
	}
}
