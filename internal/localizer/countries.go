package localizer

import (
	"fmt"
	"maps"
	"strings"
)

// Tables 是国家 → 语言、语言 → locale 的查找表。
// 由调用方显式注入；Localizer 只读取，不修改。
type Tables struct {
	Languages map[string]string
	Locales   map[string]string
}

// DefaultTables 返回内置表的副本。
func DefaultTables() Tables {
	return Tables{
		Languages: maps.Clone(languageCodes),
		Locales:   maps.Clone(locales),
	}
}

var languageCodes = map[string]string{
	"fr": "fr",
	"us": "en",
	"gb": "en",
	"au": "en",
	"nz": "en",
	"ca": "fr",
	"be": "fr",
	"lu": "fr",
	"ch": "fr",
	"de": "de",
	"it": "it",
	"es": "es",
}

var locales = map[string]string{
	"fr": "fr-FR",
	"en": "en-US",
	"de": "de-DE",
	"it": "it-IT",
	"es": "es-ES",
}

// Supported 判断 country 是否在内置表中。
func Supported(country string) bool {
	_, ok := languageCodes[strings.ToLower(strings.TrimSpace(country))]
	return ok
}

// UnsupportedCountryError 表示国家不在查找表中（不做静默回退）。
type UnsupportedCountryError struct {
	Country string
}

func (e *UnsupportedCountryError) Error() string {
	return fmt.Sprintf("不支持的国家代码：%q", e.Country)
}

// Language 返回国家对应的语言代码。
func (t Tables) Language(country string) (string, error) {
	lang, ok := t.Languages[country]
	if !ok {
		return "", &UnsupportedCountryError{Country: country}
	}
	return lang, nil
}

// Locale 返回国家对应的 locale；语言没有 locale 时退化为语言代码本身。
func (t Tables) Locale(country string) (string, error) {
	lang, err := t.Language(country)
	if err != nil {
		return "", err
	}
	if loc, ok := t.Locales[lang]; ok {
		return loc, nil
	}
	return lang, nil
}
