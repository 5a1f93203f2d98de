package appletv

import (
	"os"
	"path/filepath"
	"testing"
)

func loadPage(t *testing.T, name string) *Page {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("读取 fixture 失败：%v", err)
	}
	p, err := ParsePage(b)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	return p
}

func TestPage_MovieFixture(t *testing.T) {
	p := loadPage(t, "movie.html")

	a, ok := p.Attributes()
	if !ok {
		t.Fatalf("期望找到 JSON-LD 属性")
	}
	if a.Type != "Movie" || a.Name != "Captain America : Brave New World" {
		t.Fatalf("属性不正确：%+v", a)
	}
	if len(a.Directors) != 1 || a.Directors[0] != "Julius Onah" {
		t.Fatalf("导演不正确：%v", a.Directors)
	}
	if a.Image != "https://is1-ssl.mzstatic.com/image/thumb/Video/poster/1200x675.jpg" {
		t.Fatalf("poster 不正确：%q", a.Image)
	}
	if got := a.ReleaseDate(); got != "2025-02-12" {
		t.Fatalf("上映日期期望 2025-02-12，实际 %q", got)
	}

	if got := p.LogoURL(); got != "https://is1-ssl.mzstatic.com/image/thumb/logo/2400x900.png" {
		t.Fatalf("logo 不正确：%q", got)
	}
	if got := p.BackgroundURL(); got != "https://is1-ssl.mzstatic.com/image/thumb/bg/4320x3240.jpg" {
		t.Fatalf("background 不正确：%q", got)
	}

	c := a.Candidate("https://tv.apple.com/fr/movie/x/umc.cmc.1")
	if c.Title != a.Name || c.Director != "Julius Onah" || c.Year != 2025 {
		t.Fatalf("候选投影不正确：%+v", c)
	}
}

func TestPage_ArrayJSONLDAndMissingImages(t *testing.T) {
	p := loadPage(t, "tvseries_array.html")
	a, ok := p.Attributes()
	if !ok {
		t.Fatalf("期望从数组中找到 TVSeries")
	}
	if a.Name != "Severance" || a.Image != "https://img.test/sev.jpg" || len(a.Directors) != 1 || a.Directors[0] != "Ben Stiller" {
		t.Fatalf("属性不正确：%+v", a)
	}
	if p.LogoURL() != "" {
		t.Fatalf("没有 picture* 时 logo 应为空")
	}
	if p.BackgroundURL() != "" {
		t.Fatalf("没有 jpg srcset 时 background 应为空")
	}
}

func TestPage_NoJSONLD(t *testing.T) {
	p, err := ParsePage([]byte(`<html><body><p>nothing</p></body></html>`))
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if _, ok := p.Attributes(); ok {
		t.Fatalf("没有 JSON-LD 时不应返回属性")
	}
}

func TestResizeURL(t *testing.T) {
	cases := []struct {
		in, size, ext, want string
	}{
		{"https://x/a/1478x646.png", "2400x900", "png", "https://x/a/2400x900.png"},
		{"https://x/a/1680x945sr-60.jpg", "4320x3240", "jpg", "https://x/a/4320x3240.jpg"},
		{"https://x/a/plain.jpg", "4320x3240", "jpg", "https://x/a/plain.jpg"},
	}
	for _, c := range cases {
		if got := ResizeURL(c.in, c.size, c.ext); got != c.want {
			t.Fatalf("ResizeURL(%q)：期望 %q，实际 %q", c.in, c.want, got)
		}
	}
}
