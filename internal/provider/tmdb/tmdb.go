// Package tmdb 是元数据目录（The Movie Database）的最小客户端。
//
// 只覆盖本项目需要的三个接口：标题、logo、上映日期。
// 非 2xx 返回 *provider.HTTPStatusError；重试由 httpx.Transport 负责。
package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/matthieumontaigu/plex-poster-manager/internal/provider"
)

const (
	DefaultBaseURL      = "https://api.themoviedb.org/3"
	DefaultImageBaseURL = "https://image.tmdb.org/t/p/original"

	// TheatricalRelease 是 release_dates 中“院线上映”的类型编号。
	TheatricalRelease = 3
)

type Client struct {
	BaseURL      string
	ImageBaseURL string
	APIKey       string
	HTTP         *http.Client
}

func NewClient(apiKey string, c *http.Client) *Client {
	return &Client{
		BaseURL:      DefaultBaseURL,
		ImageBaseURL: DefaultImageBaseURL,
		APIKey:       apiKey,
		HTTP:         c,
	}
}

type movieDetails struct {
	Title string `json:"title"`
}

type movieImages struct {
	Logos []struct {
		FilePath string `json:"file_path"`
	} `json:"logos"`
}

// ReleaseDate 是 release_dates 结果中的一条。
type ReleaseDate struct {
	ReleaseDate string `json:"release_date"`
	Type        int    `json:"type"`
}

// CountryReleases 是某个国家（ISO 3166-1 大写）的全部上映记录。
type CountryReleases struct {
	Country      string        `json:"iso_3166_1"`
	ReleaseDates []ReleaseDate `json:"release_dates"`
}

type releaseDatesResponse struct {
	Results []CountryReleases `json:"results"`
}

// Title 返回 language 下的电影标题；没有则为 ""。
func (c *Client) Title(ctx context.Context, id int, language string) (string, error) {
	var out movieDetails
	if err := c.get(ctx, "movie/"+strconv.Itoa(id), url.Values{"language": {language}}, &out); err != nil {
		return "", err
	}
	return out.Title, nil
}

// Logo 返回 locale 下的第一张 logo（svg 改为 png）；没有则为 ""。
func (c *Client) Logo(ctx context.Context, id int, locale string) (string, error) {
	var out movieImages
	q := url.Values{"language": {locale}, "include_image_language": {locale}}
	if err := c.get(ctx, "movie/"+strconv.Itoa(id)+"/images", q, &out); err != nil {
		return "", err
	}
	if len(out.Logos) == 0 || out.Logos[0].FilePath == "" {
		return "", nil
	}
	return strings.ReplaceAll(c.imageBaseURL()+out.Logos[0].FilePath, ".svg", ".png"), nil
}

// ReleaseDates 返回电影在所有国家的上映记录。
func (c *Client) ReleaseDates(ctx context.Context, id int) ([]CountryReleases, error) {
	var out releaseDatesResponse
	if err := c.get(ctx, "movie/"+strconv.Itoa(id)+"/release_dates", nil, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// ReleaseDate 返回 country（两位小写）首个院线上映日期；没有则为 ""。
func (c *Client) ReleaseDate(ctx context.Context, id int, country string) (string, error) {
	results, err := c.ReleaseDates(ctx, id)
	if err != nil {
		return "", err
	}
	return CountryReleaseDate(results, strings.ToUpper(country), TheatricalRelease), nil
}

// CountryReleaseDate 在 results 中找 country 的第一条 typ 类型记录。
func CountryReleaseDate(results []CountryReleases, country string, typ int) string {
	for _, cr := range results {
		if cr.Country != country {
			continue
		}
		for _, rd := range cr.ReleaseDates {
			if rd.Type == typ {
				return rd.ReleaseDate
			}
		}
		return ""
	}
	return ""
}

func (c *Client) get(ctx context.Context, endpoint string, q url.Values, out any) error {
	if q == nil {
		q = url.Values{}
	}
	q.Set("api_key", c.APIKey)
	u := strings.TrimRight(c.baseURL(), "/") + "/" + endpoint + "?" + q.Encode()

	b, err := provider.Get(ctx, c.HTTP, u, http.Header{"Accept": {"application/json"}})
	if err != nil {
		return fmt.Errorf("tmdb %s: %w", endpoint, err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("tmdb %s: 解析 JSON 失败：%w", endpoint, err)
	}
	return nil
}

func (c *Client) baseURL() string {
	if c.BaseURL == "" {
		return DefaultBaseURL
	}
	return c.BaseURL
}

func (c *Client) imageBaseURL() string {
	if c.ImageBaseURL == "" {
		return DefaultImageBaseURL
	}
	return c.ImageBaseURL
}
