package tmdb

import "context"

// LocaleResolver 把国家解析为 locale（由 localizer 提供）。
type LocaleResolver interface {
	Locale(country string) (string, error)
}

// LogoProvider 是次要 logo 来源：部分国家的商店页从不提供本地化 logo。
type LogoProvider struct {
	Client  *Client
	Locales LocaleResolver
}

func (LogoProvider) Name() string { return "tmdb" }

func (p LogoProvider) Logo(ctx context.Context, tmdbID int, country string) (string, error) {
	if tmdbID == 0 {
		return "", nil
	}
	locale, err := p.Locales.Locale(country)
	if err != nil {
		return "", err
	}
	return p.Client.Logo(ctx, tmdbID, locale)
}
