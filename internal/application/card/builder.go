// Package card 把结构化医疗建议转换为 LINE Flex 卡片
package card

import (
	"strings"

	"symptom-advisor-bot/internal/domain/entity"
)

// ListSeparator 列表字段的拼接符
const ListSeparator = "、"

const (
	colorMatched   = "#27AE60"
	colorUnmatched = "#F39C12"
	colorUnrelated = "#3498DB"
	colorWhite     = "#FFFFFF"
	colorLabel     = "#555555"
	colorCaution   = "#C0392B"
	colorCautionBg = "#FDEDEC"
)

type variantStyle struct {
	title string
	color string
}

var styles = map[entity.ResponseKind]variantStyle{
	entity.KindMatched:   {title: "分析結果", color: colorMatched},
	entity.KindUnmatched: {title: "需要更多資訊", color: colorUnmatched},
	entity.KindUnrelated: {title: "一般對話", color: colorUnrelated},
}

// field 正文中的一个标签块
type field struct {
	label string
	value string
}

// Build 根据变体构建卡片；resp 为 nil 或变体未知时返回 nil
func Build(resp *entity.MedicalResponse) *Bubble {
	if resp == nil {
		return nil
	}
	style, ok := styles[resp.Kind]
	if !ok {
		return nil
	}

	var (
		fields []field
		footer *Box
	)
	switch resp.Kind {
	case entity.KindMatched:
		if resp.Matched == nil {
			return nil
		}
		m := resp.Matched
		fields = []field{
			{"可能疾病", m.Disease},
			{"常見症狀", join(m.Symptoms)},
			{"建議事項", join(m.Suggestions)},
			{"潛伏期", m.AdditionalInfo.IncubationPeriod},
			{"傳播方式", m.AdditionalInfo.Transmission},
			{"預防方法", join(m.AdditionalInfo.Prevention)},
		}
		footer = cautionFooter(m)
	case entity.KindUnmatched:
		if resp.Unmatched == nil {
			return nil
		}
		fields = []field{{"", resp.Unmatched.Message}}
	case entity.KindUnrelated:
		if resp.Unrelated == nil {
			return nil
		}
		fields = []field{{"", resp.Unrelated.Message}}
	}

	return &Bubble{
		Header: header(style),
		Body:   body(fields),
		Footer: footer,
	}
}

func header(s variantStyle) *Box {
	return &Box{
		Layout: "vertical",
		Contents: []Component{
			&Text{Text: s.title, Weight: "bold", Color: colorWhite, Size: "lg"},
		},
		BackgroundColor: s.color,
		PaddingAll:      "15px",
	}
}

func body(fields []field) *Box {
	contents := make([]Component, 0, len(fields)*2)
	for i, f := range fields {
		if i > 0 {
			contents = append(contents, &Separator{Margin: "lg"})
		}
		contents = append(contents, block(f))
	}
	return &Box{
		Layout:     "vertical",
		Contents:   contents,
		PaddingAll: "20px",
		Spacing:    "md",
	}
}

// block 无标签时只渲染正文
func block(f field) *Box {
	value := &Text{Text: f.value, Wrap: true, Size: "md"}
	if f.label == "" {
		return &Box{Layout: "vertical", Contents: []Component{value}}
	}
	value.Size = "sm"
	value.Margin = "sm"
	return &Box{
		Layout: "vertical",
		Contents: []Component{
			&Text{Text: f.label, Weight: "bold", Size: "md", Color: colorLabel},
			value,
		},
	}
}

func cautionFooter(m *entity.Matched) *Box {
	advice := "如症狀持續或加重，請就醫檢查"
	if m.NeedDoctor {
		advice = "建議盡快就醫檢查"
	}
	return &Box{
		Layout: "vertical",
		Contents: []Component{
			&Text{Text: "⚠️ " + advice, Weight: "bold", Color: colorCaution, Size: "sm", Wrap: true},
			&Text{Text: "緊急程度：" + UrgencyLabel(m.Urgency), Color: colorCaution, Size: "sm", Margin: "sm"},
			&Text{Text: "本建議僅供參考，不能取代專業醫療診斷。", Color: colorLabel, Size: "xs", Margin: "md", Wrap: true},
		},
		BackgroundColor: colorCautionBg,
		PaddingAll:      "15px",
	}
}

// UrgencyLabel 把 high/medium/low 转为中文，其他值原样返回
func UrgencyLabel(u string) string {
	switch strings.ToLower(strings.TrimSpace(u)) {
	case "high":
		return "高"
	case "medium":
		return "中"
	case "low":
		return "低"
	}
	return u
}

func join(items []string) string {
	return strings.Join(items, ListSeparator)
}

// AltText 通知预览文字
func AltText(resp *entity.MedicalResponse) string {
	if resp == nil {
		return "醫療諮詢回覆"
	}
	switch resp.Kind {
	case entity.KindMatched:
		if resp.Matched != nil {
			return "分析結果：" + resp.Matched.Disease
		}
	case entity.KindUnmatched:
		if resp.Unmatched != nil {
			return truncate(resp.Unmatched.Message, 100)
		}
	case entity.KindUnrelated:
		if resp.Unrelated != nil {
			return truncate(resp.Unrelated.Message, 100)
		}
	}
	return "醫療諮詢回覆"
}

// truncate 按字符截断，LINE altText 上限 400
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
