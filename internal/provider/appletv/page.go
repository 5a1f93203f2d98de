package appletv

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/matthieumontaigu/plex-poster-manager/internal/domain"
	"github.com/matthieumontaigu/plex-poster-manager/internal/provider/search"
)

const (
	logoSize       = "2400x900"
	backgroundSize = "4320x3240"
)

var knownScriptIDs = []string{"schema:movie", "schema:tv-series"}

// Attributes 是详情页 JSON-LD 中 Movie/TVSeries 对象的必要字段。
type Attributes struct {
	Type          string
	Name          string
	Directors     []string
	DatePublished string
	Image         string
}

// Candidate 把属性投影为可打分的候选（导演取第一位）。
func (a Attributes) Candidate(pageURL string) domain.Candidate {
	c := domain.Candidate{URL: pageURL, Title: a.Name, Year: search.ParseYear(a.DatePublished)}
	if len(a.Directors) > 0 {
		c.Director = a.Directors[0]
	}
	return c
}

// ReleaseDate 返回 YYYY-MM-DD；无法解析时为空。
func (a Attributes) ReleaseDate() string {
	s := strings.TrimSpace(a.DatePublished)
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(time.DateOnly)
		}
	}
	return ""
}

// Page 是解析后的详情页。
type Page struct {
	doc *goquery.Document
}

func ParsePage(html []byte) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, err
	}
	return &Page{doc: doc}, nil
}

// Attributes 先找已知 id 的 JSON-LD，再扫描全部 JSON-LD；
// 取第一个 @type 为 Movie/TVSeries 的对象（对象或数组都接受）。
func (p *Page) Attributes() (Attributes, bool) {
	for _, id := range knownScriptIDs {
		sel := p.doc.Find(`script[id="` + id + `"][type="application/ld+json"]`).First()
		if sel.Length() == 0 {
			continue
		}
		if a, ok := parseJSONLD(sel.Text()); ok {
			return a, true
		}
	}

	var (
		out   Attributes
		found bool
	)
	p.doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		out, found = parseJSONLD(s.Text())
		return !found
	})
	return out, found
}

type jsonldPerson struct {
	Name string `json:"name"`
}

type jsonldTitle struct {
	Type          string          `json:"@type"`
	Name          string          `json:"name"`
	Director      json.RawMessage `json:"director"`
	DatePublished string          `json:"datePublished"`
	Image         json.RawMessage `json:"image"`
}

func parseJSONLD(text string) (Attributes, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Attributes{}, false
	}

	var objs []json.RawMessage
	if strings.HasPrefix(text, "[") {
		if err := json.Unmarshal([]byte(text), &objs); err != nil {
			return Attributes{}, false
		}
	} else {
		objs = []json.RawMessage{json.RawMessage(text)}
	}

	for _, raw := range objs {
		var t jsonldTitle
		if err := json.Unmarshal(raw, &t); err != nil {
			continue
		}
		if t.Type != "Movie" && t.Type != "TVSeries" {
			continue
		}
		return Attributes{
			Type:          t.Type,
			Name:          strings.TrimSpace(t.Name),
			Directors:     parsePeople(t.Director),
			DatePublished: t.DatePublished,
			Image:         parseImage(t.Image),
		}, true
	}
	return Attributes{}, false
}

func parsePeople(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var many []jsonldPerson
	if err := json.Unmarshal(raw, &many); err != nil {
		var one jsonldPerson
		if err := json.Unmarshal(raw, &one); err != nil {
			return nil
		}
		many = []jsonldPerson{one}
	}
	var out []string
	for _, p := range many {
		if n := strings.TrimSpace(p.Name); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// image 可能是字符串，也可能是 ImageObject。
func parseImage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var obj struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return strings.TrimSpace(obj.URL)
	}
	return ""
}

// LogoURL：第一个 class 以 "picture" 开头的 <picture> 中的 png。
func (p *Page) LogoURL() string {
	return imageURL(p.firstPicture("picture"), logoSize, "png")
}

// BackgroundURL：第一个 class 以 "svelte" 开头的 <picture> 中的 jpg。
func (p *Page) BackgroundURL() string {
	return imageURL(p.firstPicture("svelte"), backgroundSize, "jpg")
}

func (p *Page) firstPicture(classPrefix string) *goquery.Selection {
	return p.doc.Find("picture").FilterFunction(func(_ int, s *goquery.Selection) bool {
		for _, c := range strings.Fields(s.AttrOr("class", "")) {
			if strings.HasPrefix(c, classPrefix) {
				return true
			}
		}
		return false
	}).First()
}

func imageURL(picture *goquery.Selection, size, ext string) string {
	if picture == nil || picture.Length() == 0 {
		return ""
	}
	marker := "." + ext + " "
	var srcset string
	picture.Find("source").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if v := s.AttrOr("srcset", ""); strings.Contains(v, marker) {
			srcset = v
			return false
		}
		return true
	})
	if srcset == "" {
		return ""
	}
	first := strings.SplitN(srcset, ", ", 2)[0]
	first = strings.SplitN(strings.TrimSpace(first), " ", 2)[0]
	return ResizeURL(first, size, ext)
}

var resizeREs = map[string]*regexp.Regexp{
	"png": regexp.MustCompile(`[\w]+x[\w]+-?[\d]+\.png$`),
	"jpg": regexp.MustCompile(`[\w]+x[\w]+-?[\d]+\.jpg$`),
}

// ResizeURL 把 mzstatic 缩略图 URL 末尾的尺寸段替换为 size.ext。
func ResizeURL(u, size, ext string) string {
	re, ok := resizeREs[ext]
	if !ok {
		re = regexp.MustCompile(`[\w]+x[\w]+-?[\d]+\.` + regexp.QuoteMeta(ext) + `$`)
	}
	return re.ReplaceAllLiteralString(u, size+"."+ext)
}
