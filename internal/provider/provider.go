package provider

import (
	"context"

	"github.com/matthieumontaigu/plex-poster-manager/internal/domain"
)

// Found 是一次商店查询得到的原始结果（URL 尚未打 country/source 标签）。
// 空字符串表示“这里没有”。
type Found struct {
	PosterURL     string
	BackgroundURL string
	LogoURL       string
	ReleaseDate   string // YYYY-MM-DD
}

// IsEmpty ⇔ 三张图都没有。
func (f Found) IsEmpty() bool {
	return f.PosterURL == "" && f.BackgroundURL == "" && f.LogoURL == ""
}

// ArtworkProvider 把“站点变化”限制在 provider 包内部；核心流程只依赖统一接口。
//
// 约束：
// - 没找到不是错误：返回零值 Found 与 nil
// - err 只表示传输/解析失败，调用方记录日志后按“没找到”处理
// - 不做缓存、不做重试（重试由 httpx.Transport 统一实现）
type ArtworkProvider interface {
	Name() string
	Artworks(ctx context.Context, t domain.Target) (Found, error)
}

// LogoProvider 是次要来源：按元数据目录 id 与国家取一张 logo。
type LogoProvider interface {
	Name() string
	Logo(ctx context.Context, tmdbID int, country string) (string, error)
}
