package domain

import "fmt"

// ArtworkKind 是三个图片槽位之一。
type ArtworkKind string

const (
	Poster     ArtworkKind = "poster"
	Background ArtworkKind = "background"
	Logo       ArtworkKind = "logo"
)

// ArtworkKinds 是固定的槽位顺序（上传、比较、日志都按该顺序）。
var ArtworkKinds = []ArtworkKind{Poster, Background, Logo}

func ParseArtworkKind(s string) (ArtworkKind, error) {
	switch ArtworkKind(s) {
	case Poster, Background, Logo:
		return ArtworkKind(s), nil
	default:
		return "", fmt.Errorf("未知的 artwork 类型：%q（只能是 poster/background/logo）", s)
	}
}

// Image 是一张候选图片。相等性是结构化的（全部字段）。
type Image struct {
	URL      string `json:"url"`
	Country  string `json:"country"`
	Language string `json:"language,omitempty"`
	Title    string `json:"title"`
	Source   string `json:"source"`
}

// NewImage 以 base 的标签构造图片；url 为空时返回 nil（“这里没有图”）。
func NewImage(url string, base Image) *Image {
	if url == "" {
		return nil
	}
	img := base
	img.URL = url
	return &img
}

// Metadata 是带来源国家的元数据值（例如上映日期）。
type Metadata struct {
	Value   string `json:"value"`
	Country string `json:"country"`
}

func NewMetadata(value, country string) *Metadata {
	if value == "" {
		return nil
	}
	return &Metadata{Value: value, Country: country}
}

// Artworks 固定持有三个图片槽位与一个可选的上映日期槽位。
//
// 不变量：槽位要么为空，要么持有一张完整的 Image。
type Artworks struct {
	Poster      *Image    `json:"poster"`
	Background  *Image    `json:"background"`
	Logo        *Image    `json:"logo"`
	ReleaseDate *Metadata `json:"release_date,omitempty"`
}

func (a *Artworks) Get(kind ArtworkKind) *Image {
	switch kind {
	case Poster:
		return a.Poster
	case Background:
		return a.Background
	case Logo:
		return a.Logo
	}
	return nil
}

func (a *Artworks) Set(kind ArtworkKind, img *Image) {
	switch kind {
	case Poster:
		a.Poster = img
	case Background:
		a.Background = img
	case Logo:
		a.Logo = img
	}
}

// IsComplete ⇔ 三个图片槽位都非空。
func (a *Artworks) IsComplete() bool {
	return a.Poster != nil && a.Background != nil && a.Logo != nil
}

// IsEmpty ⇔ 三个图片槽位都为空。
func (a *Artworks) IsEmpty() bool {
	return a.Poster == nil && a.Background == nil && a.Logo == nil
}

// Equal 做结构化比较；nil 与任何值都不相等（首次处理时没有“上一轮”）。
func (a *Artworks) Equal(b *Artworks) bool {
	if a == nil || b == nil {
		return false
	}
	for _, k := range ArtworkKinds {
		if !sameImage(a.Get(k), b.Get(k)) {
			return false
		}
	}
	switch {
	case a.ReleaseDate == nil && b.ReleaseDate == nil:
		return true
	case a.ReleaseDate == nil || b.ReleaseDate == nil:
		return false
	default:
		return *a.ReleaseDate == *b.ReleaseDate
	}
}

func (a Artworks) Clone() Artworks {
	out := Artworks{}
	for _, k := range ArtworkKinds {
		if img := a.Get(k); img != nil {
			cp := *img
			out.Set(k, &cp)
		}
	}
	if a.ReleaseDate != nil {
		md := *a.ReleaseDate
		out.ReleaseDate = &md
	}
	return out
}

func sameImage(x, y *Image) bool {
	if x == nil || y == nil {
		return x == nil && y == nil
	}
	return *x == *y
}
