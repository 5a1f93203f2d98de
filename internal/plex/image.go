package plex

import (
	"crypto/sha1"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/matthieumontaigu/plex-poster-manager/internal/domain"
)

const (
	agentMarker  = "tv.plex.agents.movie"
	uploadMarker = "upload"
)

// Image 是 Plex 为某个槽位列出的一张候选图（<Photo>），属性已做 URL 反转义。
type Image struct {
	Key       string
	RatingKey string
	Thumb     string
	Selected  bool
	Attrs     map[string]string
}

func (i Image) FromAgent() bool { return strings.Contains(i.Key, agentMarker) }
func (i Image) Uploaded() bool  { return strings.Contains(i.Key, uploadMarker) }

// LastUploadIfAgentSelected 返回最后一张上传图，前提是当前选中的是 agent 图。
// 用于把被 agent 覆盖的槽位恢复为我们上传的图。
func LastUploadIfAgentSelected(images []Image) (Image, bool) {
	var (
		last          Image
		hasUpload     bool
		agentSelected bool
	)
	for _, img := range images {
		if img.Uploaded() {
			last, hasUpload = img, true
		}
		if img.Selected && img.FromAgent() {
			agentSelected = true
		}
	}
	if !agentSelected || !hasUpload {
		return Image{}, false
	}
	return last, true
}

// BundlePath 返回电影在 Plex 元数据目录中的 bundle 路径。
// 约束：guid 为空时返回 ""。
func BundlePath(metadataPath, guid string) string {
	if guid == "" {
		return ""
	}
	sum := sha1.Sum([]byte(guid))
	h := hex.EncodeToString(sum[:])
	return metadataPath + "/Movies/" + h[:1] + "/" + h[1:] + ".bundle"
}

// ImagePath 把 Photo key 映射为磁盘上的文件路径：
//
//	/library/metadata/55579/file?url=metadata://clearLogos/tv.plex.agents.movie_4965…
//	/library/metadata/55579/file?url=upload://clearLogos/05dc99b9…
//
// metadata:// → Contents/_combined；upload:// → Uploads；其它返回 ""。
func ImagePath(bundlePath, key string) string {
	if bundlePath == "" {
		return ""
	}
	_, u, ok := strings.Cut(key, "url=")
	if !ok {
		return ""
	}
	var middle string
	switch {
	case strings.HasPrefix(u, "metadata://"):
		middle = "Contents/_combined"
	case strings.HasPrefix(u, "upload://"):
		middle = "Uploads"
	default:
		return ""
	}
	_, rel, _ := strings.Cut(u, "://")
	return bundlePath + "/" + middle + "/" + rel
}

// MovieIDFromKey 从 /library/metadata/{id}/file?... 中取出 id。
func MovieIDFromKey(key string) (int, bool) {
	parts := strings.Split(key, "/")
	if len(parts) < 4 || parts[1] != "library" || parts[2] != "metadata" {
		return 0, false
	}
	id, err := strconv.Atoi(parts[3])
	if err != nil {
		return 0, false
	}
	return id, true
}

func endpointFor(kind domain.ArtworkKind) string {
	switch kind {
	case domain.Poster:
		return "posters"
	case domain.Background:
		return "arts"
	case domain.Logo:
		return "clearLogos"
	}
	return ""
}
