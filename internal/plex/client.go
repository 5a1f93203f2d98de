// Package plex 是媒体库服务器（Plex Media Server）的 XML 客户端。
//
// 约束：
// - 所有请求带 X-Plex-Token
// - 读接口的“没找到”不是错误：Exists 对 404 返回 false
// - 写接口只在 200 时视为成功，不在同一轮内重试
package plex

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/matthieumontaigu/plex-poster-manager/internal/domain"
	"github.com/matthieumontaigu/plex-poster-manager/internal/logx"
	"github.com/matthieumontaigu/plex-poster-manager/internal/provider"
)

type Config struct {
	URL             string
	Token           string
	MetadataCountry string
	MetadataPath    string
	MoviesSectionID int
}

type Client struct {
	cfg  Config
	http *http.Client
	log  *slog.Logger
}

func New(cfg Config, c *http.Client, log *slog.Logger) *Client {
	cfg.URL = strings.TrimRight(cfg.URL, "/")
	if cfg.MoviesSectionID <= 0 {
		cfg.MoviesSectionID = 1
	}
	return &Client{cfg: cfg, http: c, log: logx.OrNull(log)}
}

// AllMovies 返回电影分区中的全部电影。
func (c *Client) AllMovies(ctx context.Context) ([]domain.Movie, error) {
	return c.movies(ctx, "library/sections/"+strconv.Itoa(c.cfg.MoviesSectionID)+"/all", nil)
}

// RecentlyAdded 按 Plex 的顺序（最新在前）返回最近添加的电影。
func (c *Client) RecentlyAdded(ctx context.Context) ([]domain.Movie, error) {
	return c.movies(ctx, "library/recentlyAdded", url.Values{"type": {"1"}})
}

// Metadata 返回单部电影；ok=false 表示 Plex 中不存在。
func (c *Client) Metadata(ctx context.Context, id int) (domain.Movie, bool, error) {
	b, err := c.get(ctx, metadataEndpoint(id), nil)
	if isNotFound(err) {
		return domain.Movie{}, false, nil
	}
	if err != nil {
		return domain.Movie{}, false, err
	}
	mc, err := parseContainer(b)
	if err != nil {
		return domain.Movie{}, false, fmt.Errorf("plex metadata %d: 解析 XML 失败：%w", id, err)
	}
	if len(mc.Videos) == 0 {
		return domain.Movie{}, false, nil
	}
	m, err := mc.Videos[0].toMovie(c.cfg.MetadataCountry)
	if err != nil {
		return domain.Movie{}, false, err
	}
	return m, true, nil
}

func (c *Client) Exists(ctx context.Context, id int) (bool, error) {
	_, err := c.get(ctx, metadataEndpoint(id), nil)
	if isNotFound(err) {
		return false, nil
	}
	return err == nil, err
}

// TMDBID 返回电影匹配到的 TMDB id；0 表示未匹配。
func (c *Client) TMDBID(ctx context.Context, id int) (int, error) {
	m, ok, err := c.Metadata(ctx, id)
	if err != nil || !ok {
		return 0, err
	}
	return m.TMDBID, nil
}

// UploadImage 让 Plex 从 imageURL 拉取图片并设为该槽位的当前图。
func (c *Client) UploadImage(ctx context.Context, id int, kind domain.ArtworkKind, imageURL string) error {
	ep, err := imageEndpoint(id, kind)
	if err != nil {
		return err
	}
	return c.send(ctx, http.MethodPost, ep, url.Values{"url": {imageURL}}, nil)
}

// UploadImageFile 把本地文件作为请求体上传到该槽位。
func (c *Client) UploadImageFile(ctx context.Context, id int, kind domain.ArtworkKind, path string) error {
	ep, err := imageEndpoint(id, kind)
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return c.send(ctx, http.MethodPost, ep, nil, f)
}

// UpdateReleaseDate 写入 originallyAvailableAt（YYYY-MM-DD）。
func (c *Client) UpdateReleaseDate(ctx context.Context, id int, date string) error {
	return c.send(ctx, http.MethodPut, metadataEndpoint(id), url.Values{"originallyAvailableAt": {date}}, nil)
}

// Images 列出该槽位的全部候选图（含 agent 与上传图）。
func (c *Client) Images(ctx context.Context, id int, kind domain.ArtworkKind) ([]Image, error) {
	ep, err := imageEndpoint(id, kind)
	if err != nil {
		return nil, err
	}
	b, err := c.get(ctx, ep, nil)
	if err != nil {
		return nil, err
	}
	mc, err := parseContainer(b)
	if err != nil {
		return nil, fmt.Errorf("plex images %d: 解析 XML 失败：%w", id, err)
	}
	out := make([]Image, 0, len(mc.Photos))
	for _, p := range mc.Photos {
		out = append(out, p.toImage())
	}
	return out, nil
}

// BundlePath 返回电影的 bundle 目录；guid 未知时为 ""。
func (c *Client) BundlePath(ctx context.Context, id int) (string, error) {
	m, ok, err := c.Metadata(ctx, id)
	if err != nil || !ok {
		return "", err
	}
	return BundlePath(c.cfg.MetadataPath, m.GUID), nil
}

// ImageFile 把 Photo key 解析为磁盘路径（依赖 metadata_path）。
func (c *Client) ImageFile(ctx context.Context, key string) (string, error) {
	id, ok := MovieIDFromKey(key)
	if !ok {
		return "", fmt.Errorf("无法从 key 中解析电影 id：%q", key)
	}
	bundle, err := c.BundlePath(ctx, id)
	if err != nil {
		return "", err
	}
	return ImagePath(bundle, key), nil
}

func (c *Client) movies(ctx context.Context, endpoint string, q url.Values) ([]domain.Movie, error) {
	b, err := c.get(ctx, endpoint, q)
	if err != nil {
		return nil, err
	}
	mc, err := parseContainer(b)
	if err != nil {
		return nil, fmt.Errorf("plex %s: 解析 XML 失败：%w", endpoint, err)
	}
	out := make([]domain.Movie, 0, len(mc.Videos))
	for _, v := range mc.Videos {
		m, err := v.toMovie(c.cfg.MetadataCountry)
		if err != nil {
			c.log.Warn("skip malformed plex video", "endpoint", endpoint, "err", err)
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (c *Client) url(endpoint string, q url.Values) string {
	u := c.cfg.URL + "/" + endpoint
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

func (c *Client) header() http.Header {
	return http.Header{
		"X-Plex-Token": {c.cfg.Token},
		"Accept":       {"application/xml"},
	}
}

func (c *Client) get(ctx context.Context, endpoint string, q url.Values) ([]byte, error) {
	return provider.Get(ctx, c.http, c.url(endpoint, q), c.header())
}

func (c *Client) send(ctx context.Context, method, endpoint string, q url.Values, body io.Reader) error {
	u := c.url(endpoint, q)
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	req.Header = c.header()
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return &provider.HTTPStatusError{URL: endpoint, StatusCode: resp.StatusCode}
	}
	return nil
}

func metadataEndpoint(id int) string { return "library/metadata/" + strconv.Itoa(id) }

func imageEndpoint(id int, kind domain.ArtworkKind) (string, error) {
	ep := endpointFor(kind)
	if ep == "" {
		return "", fmt.Errorf("未知的 artwork 类型：%q", kind)
	}
	return metadataEndpoint(id) + "/" + ep, nil
}

func isNotFound(err error) bool {
	var se *provider.HTTPStatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}
