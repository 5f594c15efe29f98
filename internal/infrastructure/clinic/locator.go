// Package clinic 生成附近诊所的地图搜索链接
package clinic

import (
	"fmt"
	"net/url"
	"strings"

	"symptom-advisor-bot/internal/application/card"
	"symptom-advisor-bot/internal/application/dispatch"
	"symptom-advisor-bot/internal/config"
)

// MapsLocator 基于地图搜索 URL 的诊所定位
type MapsLocator struct {
	baseURL string
	keyword string
	zoom    int
}

var _ dispatch.ClinicLocator = (*MapsLocator)(nil)

// NewMapsLocator 创建定位器
func NewMapsLocator(cfg *config.ClinicConfig) *MapsLocator {
	base := cfg.MapsBaseURL
	if base == "" {
		base = "https://www.google.com/maps/search/"
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	keyword := cfg.SearchKeyword
	if keyword == "" {
		keyword = "診所"
	}
	zoom := cfg.Zoom
	if zoom <= 0 {
		zoom = 15
	}
	return &MapsLocator{baseURL: base, keyword: keyword, zoom: zoom}
}

// Locate 返回以坐标为中心的诊所搜索
func (l *MapsLocator) Locate(title, address string, lat, lng float64) card.ClinicSearch {
	return card.ClinicSearch{
		Title:     title,
		Address:   address,
		SearchURL: l.SearchURL(lat, lng),
	}
}

// SearchURL 例如 https://www.google.com/maps/search/%E8%A8%BA%E6%89%80/@25.033000,121.565400,15z
func (l *MapsLocator) SearchURL(lat, lng float64) string {
	return fmt.Sprintf("%s%s/@%.6f,%.6f,%dz", l.baseURL, url.PathEscape(l.keyword), lat, lng, l.zoom)
}
