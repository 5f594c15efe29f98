package card

import "strings"

const colorClinic = "#16A085"

// ClinicSearch 位置消息回复所需信息
type ClinicSearch struct {
	Title     string
	Address   string
	SearchURL string
}

// BuildClinicCard 构建附近诊所卡片
func BuildClinicCard(s ClinicSearch) *Bubble {
	address := strings.TrimSpace(s.Address)
	if address == "" {
		address = strings.TrimSpace(s.Title)
	}
	if address == "" {
		address = "您分享的位置"
	}

	contents := []Component{
		&Text{Text: "您的位置", Weight: "bold", Size: "md", Color: colorLabel},
		&Text{Text: address, Wrap: true, Size: "sm", Margin: "sm"},
	}
	footer := &Box{
		Layout: "vertical",
		Contents: []Component{
			&Button{
				Action: Action{Label: "在地圖上搜尋診所", URI: s.SearchURL},
				Style:  "primary",
				Color:  colorClinic,
				Height: "sm",
			},
		},
		PaddingAll: "15px",
	}
	if s.SearchURL == "" {
		footer = nil
	}

	return &Bubble{
		Header: header(variantStyle{title: "附近診所", color: colorClinic}),
		Body: &Box{
			Layout:     "vertical",
			Contents:   contents,
			PaddingAll: "20px",
		},
		Footer: footer,
	}
}
