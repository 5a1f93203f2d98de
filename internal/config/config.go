package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/matthieumontaigu/plex-poster-manager/internal/domain"
	"github.com/matthieumontaigu/plex-poster-manager/internal/localizer"
)

const (
	// ErrCodeNotFound 表示 --config-path 指向的文件不存在。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
	// ErrCodeMissingField 表示缺少必填字段。
	ErrCodeMissingField = "config_missing_field"
)

const (
	DefaultTargetSource        = "apple"
	DefaultMoviesSleepInterval = 1.0
	DefaultUploadSleepInterval = 1.0
	DefaultSearchMinInterval   = 1.0
	DefaultTitleThreshold      = 0.75
	DefaultMoviesSectionID     = 1
	DefaultLogLevel            = "info"

	// EnvPrefix：例如 PPM_PLEX_PLEX_TOKEN 覆盖 plex.plex_token。
	EnvPrefix = "PPM"
)

// Config 是合并默认值、配置文件与环境变量之后的最终配置。
type Config struct {
	Plex      PlexConfig                `mapstructure:"plex"`
	TMDB      TMDBConfig                `mapstructure:"tmdb"`
	Google    GoogleConfig              `mapstructure:"google"`
	Search    SearchConfig              `mapstructure:"search"`
	Artworks  ArtworksConfig            `mapstructure:"artworks"`
	Schedules map[string]ScheduleConfig `mapstructure:"schedules"`
	Cache     CacheConfig               `mapstructure:"cache"`
	Log       LogConfig                 `mapstructure:"log"`
}

type PlexConfig struct {
	URL             string `mapstructure:"plex_url"`
	Token           string `mapstructure:"plex_token"`
	MetadataCountry string `mapstructure:"metadata_country"`
	MetadataPath    string `mapstructure:"metadata_path"`
	MoviesSectionID int    `mapstructure:"movies_section_id"`
}

type TMDBConfig struct {
	APIToken string `mapstructure:"api_token"`
}

type GoogleConfig struct {
	APIKey         string `mapstructure:"api_key"`
	CustomSearchID string `mapstructure:"custom_search_id"`
}

type SearchConfig struct {
	MinInterval    float64 `mapstructure:"min_interval"`
	TitleThreshold float64 `mapstructure:"title_threshold"`
}

type ArtworksConfig struct {
	Retriever RetrieverConfig `mapstructure:"retriever"`
	Selector  SelectorConfig  `mapstructure:"selector"`
	Reverter  ReverterConfig  `mapstructure:"reverter"`

	MoviesSleepInterval    float64 `mapstructure:"movies_sleep_interval"`
	CountriesSleepInterval float64 `mapstructure:"countries_sleep_interval"`
	UploadSleepInterval    float64 `mapstructure:"upload_sleep_interval"`
}

type RetrieverConfig struct {
	Countries []string `mapstructure:"countries"`
}

type SelectorConfig struct {
	MatchMovieTitle bool   `mapstructure:"match_movie_title"`
	MatchLogoPoster bool   `mapstructure:"match_logo_poster"`
	TargetSource    string `mapstructure:"target_source"`
}

type ReverterConfig struct {
	ArtworksTypes []string `mapstructure:"artworks_types"`
}

// ScheduleConfig 对应 {"type": "every"|"daily_at", "params": [...]}。
type ScheduleConfig struct {
	Type   string `mapstructure:"type"`
	Params []any  `mapstructure:"params"`
}

type CacheConfig struct {
	Path          string `mapstructure:"cache_path"`
	RetentionDays int    `mapstructure:"retention_days"`
}

type LogConfig struct {
	Path  string `mapstructure:"path"`
	Level string `mapstructure:"level"`
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeMissingField:
		return fmt.Sprintf("%s：配置文件 %q 缺少必填字段：%v", e.Code, e.Path, e.Err)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：配置文件 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置文件 %q 无效", e.Code, e.Path)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Load 读取 JSON 配置文件（允许 PPM_ 前缀的环境变量覆盖），补齐默认值并校验。
func Load(path string) (Config, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Config{}, &Error{Code: ErrCodeMissingField, Path: path, Err: errors.New("--config-path")}
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return Config{}, &Error{Code: ErrCodeNotFound, Path: path, Err: err}
		}
		return Config{}, &Error{Code: ErrCodeInvalid, Path: path, Err: err}
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, &Error{Code: ErrCodeInvalid, Path: path, Err: err}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, &Error{Code: ErrCodeInvalid, Path: path, Err: err}
	}
	if !v.IsSet("artworks.countries_sleep_interval") {
		cfg.Artworks.CountriesSleepInterval = cfg.Artworks.MoviesSleepInterval / 10
	}
	normalize(&cfg)

	if err := validate(cfg); err != nil {
		var fe *Error
		if errors.As(err, &fe) {
			fe.Path = path
			return Config{}, fe
		}
		return Config{}, &Error{Code: ErrCodeInvalid, Path: path, Err: err}
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("plex.movies_section_id", DefaultMoviesSectionID)
	v.SetDefault("artworks.selector.target_source", DefaultTargetSource)
	v.SetDefault("artworks.movies_sleep_interval", DefaultMoviesSleepInterval)
	v.SetDefault("artworks.upload_sleep_interval", DefaultUploadSleepInterval)
	v.SetDefault("search.min_interval", DefaultSearchMinInterval)
	v.SetDefault("search.title_threshold", DefaultTitleThreshold)
	v.SetDefault("cache.retention_days", 0)
	v.SetDefault("log.level", DefaultLogLevel)
}

func normalize(cfg *Config) {
	cfg.Plex.URL = strings.TrimRight(strings.TrimSpace(cfg.Plex.URL), "/")
	cfg.Plex.MetadataCountry = strings.ToLower(strings.TrimSpace(cfg.Plex.MetadataCountry))
	for i, c := range cfg.Artworks.Retriever.Countries {
		cfg.Artworks.Retriever.Countries[i] = strings.ToLower(strings.TrimSpace(c))
	}
	cfg.Artworks.Selector.TargetSource = strings.ToLower(strings.TrimSpace(cfg.Artworks.Selector.TargetSource))
}

func validate(cfg Config) error {
	required := []struct {
		key string
		val string
	}{
		{"plex.plex_url", cfg.Plex.URL},
		{"plex.plex_token", cfg.Plex.Token},
		{"plex.metadata_country", cfg.Plex.MetadataCountry},
		{"tmdb.api_token", cfg.TMDB.APIToken},
		{"google.api_key", cfg.Google.APIKey},
		{"google.custom_search_id", cfg.Google.CustomSearchID},
		{"cache.cache_path", cfg.Cache.Path},
	}
	for _, r := range required {
		if strings.TrimSpace(r.val) == "" {
			return &Error{Code: ErrCodeMissingField, Err: errors.New(r.key)}
		}
	}

	u, err := url.Parse(cfg.Plex.URL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("plex.plex_url 必须是 http/https URL：%q", cfg.Plex.URL)
	}

	if !localizer.Supported(cfg.Plex.MetadataCountry) {
		return fmt.Errorf("plex.metadata_country 不受支持：%q", cfg.Plex.MetadataCountry)
	}
	if len(cfg.Artworks.Retriever.Countries) == 0 {
		return &Error{Code: ErrCodeMissingField, Err: errors.New("artworks.retriever.countries")}
	}
	for _, c := range cfg.Artworks.Retriever.Countries {
		if !localizer.Supported(c) {
			return fmt.Errorf("artworks.retriever.countries 含不受支持的国家：%q", c)
		}
	}
	for _, k := range cfg.Artworks.Reverter.ArtworksTypes {
		if _, err := domain.ParseArtworkKind(k); err != nil {
			return fmt.Errorf("artworks.reverter.artworks_types：%w", err)
		}
	}
	if cfg.Search.TitleThreshold <= 0 || cfg.Search.TitleThreshold > 1 {
		return fmt.Errorf("search.title_threshold 必须在 (0, 1] 内：%v", cfg.Search.TitleThreshold)
	}
	if cfg.Cache.RetentionDays < 0 {
		return fmt.Errorf("cache.retention_days 不能为负数：%d", cfg.Cache.RetentionDays)
	}
	for name, s := range cfg.Schedules {
		switch s.Type {
		case "every", "daily_at":
		default:
			return fmt.Errorf("schedules.%s.type 只能是 every 或 daily_at，实际是 %q", name, s.Type)
		}
	}
	return nil
}

// Seconds 把配置中的浮点秒转换为 time.Duration。
func Seconds(s float64) time.Duration {
	if s <= 0 {
		return 0
	}
	return time.Duration(s * float64(time.Second))
}

// Retention 返回 recently_added 缓存的保留窗口。
func (c CacheConfig) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}
