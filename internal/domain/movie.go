package domain

// Movie 是媒体库中的一部电影（以 Plex ratingKey 为主键）。
//
// 约束：
// - ID 是稳定主键：缓存 membership 只看 ID
// - TMDBID == 0 表示尚未匹配到元数据目录
// - AddedAt 为 epoch 秒，用于缓存保留窗口裁剪
// - Artworks 只在“未完成”缓存中携带（上一轮的快照）
type Movie struct {
	ID              int       `json:"plex_movie_id"`
	Title           string    `json:"title"`
	Year            int       `json:"year"`
	AddedAt         int64     `json:"added_date"`
	ReleaseDate     string    `json:"release_date,omitempty"`
	Directors       []string  `json:"director"`
	MetadataCountry string    `json:"metadata_country"`
	GUID            string    `json:"guid,omitempty"`
	TMDBID          int       `json:"tmdb_id,omitempty"`
	Artworks        *Artworks `json:"artworks,omitempty"`
}

// Clone 返回深拷贝（切片与 Artworks 不共享底层存储）。
func (m Movie) Clone() Movie {
	out := m
	if m.Directors != nil {
		out.Directors = append([]string(nil), m.Directors...)
	}
	if m.Artworks != nil {
		a := m.Artworks.Clone()
		out.Artworks = &a
	}
	return out
}

// Target 返回以 title 作为检索标题的匹配目标。
func (m Movie) Target(title, country string) Target {
	return Target{
		Title:     title,
		Directors: append([]string(nil), m.Directors...),
		Year:      m.Year,
		Country:   country,
		Entity:    EntityMovie,
	}
}
