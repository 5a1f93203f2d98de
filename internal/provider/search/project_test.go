package search

import (
	"encoding/json"
	"testing"
)

func TestProject_MetatagsAndLanguage(t *testing.T) {
	raw := `{
		"link": "https://tv.apple.com/fr/movie/captain-america-brave-new-world/umc.cmc.2jtfbobm5r8b1ptmqzmpv8ix6?l=en#top",
		"title": "ignored - Apple TV",
		"pagemap": {"metatags": [{
			"apple:title": "Captain America : Brave New World",
			"og:video:director": "Julius Onah",
			"og:video:release_date": "2025-02-12T00:00:00Z"
		}]}
	}`
	var it Item
	if err := json.Unmarshal([]byte(raw), &it); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	c := Project(it)
	if c.URL != "https://tv.apple.com/fr/movie/captain-america-brave-new-world/umc.cmc.2jtfbobm5r8b1ptmqzmpv8ix6" {
		t.Fatalf("url 未去掉 query/fragment：%q", c.URL)
	}
	if c.Title != "Captain America : Brave New World" || c.Director != "Julius Onah" || c.Year != 2025 || c.Language != "en" {
		t.Fatalf("投影结果不正确：%+v", c)
	}
}

func TestProject_FallbackToPageTitle(t *testing.T) {
	c := Project(Item{Link: "https://tv.apple.com/us/movie/x/umc.cmc.1", Title: "Am&eacute;lie: Le Film - Apple TV"})
	if c.Title != "Amélie Le Film" {
		t.Fatalf("页面标题清洗不正确：%q", c.Title)
	}
	if c.Director != "" || c.Year != 0 || c.Language != "" {
		t.Fatalf("缺失字段应为空：%+v", c)
	}
}

func TestParseYear(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"2025-02-12T00:00:00Z", 2025},
		{"2024-11-20T00:00:00.000Z", 2024},
		{"2019-05-01", 2019},
		{"released in 1999 (fr)", 1999},
		{"no year here", 0},
		{"", 0},
	}
	for _, c := range cases {
		if got := ParseYear(c.in); got != c.want {
			t.Fatalf("ParseYear(%q)：期望 %d，实际 %d", c.in, c.want, got)
		}
	}
}
