package plex

import (
	"encoding/xml"
	"net/url"
	"strconv"
	"strings"

	"github.com/matthieumontaigu/plex-poster-manager/internal/domain"
)

type mediaContainer struct {
	Videos []video `xml:"Video"`
	Photos []photo `xml:"Photo"`
}

type video struct {
	RatingKey             string     `xml:"ratingKey,attr"`
	Title                 string     `xml:"title,attr"`
	Year                  string     `xml:"year,attr"`
	AddedAt               string     `xml:"addedAt,attr"`
	OriginallyAvailableAt string     `xml:"originallyAvailableAt,attr"`
	GUID                  string     `xml:"guid,attr"`
	Directors             []tag      `xml:"Director"`
	Guids                 []guidElem `xml:"Guid"`
}

type tag struct {
	Tag string `xml:"tag,attr"`
}

type guidElem struct {
	ID string `xml:"id,attr"`
}

type photo struct {
	Attrs []xml.Attr `xml:",any,attr"`
}

func parseContainer(b []byte) (mediaContainer, error) {
	var mc mediaContainer
	if err := xml.Unmarshal(b, &mc); err != nil {
		return mediaContainer{}, err
	}
	return mc, nil
}

// toMovie 把 <Video> 转为 Movie；缺少 ratingKey 视为数据错误。
func (v video) toMovie(country string) (domain.Movie, error) {
	id, err := strconv.Atoi(strings.TrimSpace(v.RatingKey))
	if err != nil {
		return domain.Movie{}, &ParseError{Field: "ratingKey", Value: v.RatingKey}
	}
	m := domain.Movie{
		ID:              id,
		Title:           strings.ReplaceAll(v.Title, "\u00a0", " "),
		Year:            atoiOrZero(v.Year),
		AddedAt:         int64(atoiOrZero(v.AddedAt)),
		ReleaseDate:     v.OriginallyAvailableAt,
		MetadataCountry: country,
		GUID:            v.GUID,
		Directors:       []string{},
	}
	for _, d := range v.Directors {
		if d.Tag != "" {
			m.Directors = append(m.Directors, d.Tag)
		}
	}
	for _, g := range v.Guids {
		if rest, ok := strings.CutPrefix(g.ID, "tmdb://"); ok {
			m.TMDBID = atoiOrZero(rest)
			break
		}
	}
	return m, nil
}

func (p photo) toImage() Image {
	img := Image{Attrs: make(map[string]string, len(p.Attrs))}
	for _, a := range p.Attrs {
		v, err := url.PathUnescape(a.Value)
		if err != nil {
			v = a.Value
		}
		img.Attrs[a.Name.Local] = v
		switch a.Name.Local {
		case "key":
			img.Key = v
		case "ratingKey":
			img.RatingKey = v
		case "thumb":
			img.Thumb = v
		case "selected":
			img.Selected = v == "1"
		}
	}
	return img
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

// ParseError 表示 Plex 返回的数据缺少必要字段。
type ParseError struct {
	Field string
	Value string
}

func (e *ParseError) Error() string {
	return "plex: 无效的 " + e.Field + "：" + strconv.Quote(e.Value)
}
