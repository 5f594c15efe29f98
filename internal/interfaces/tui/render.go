package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"symptom-advisor-bot/internal/application/card"
	"symptom-advisor-bot/internal/application/dispatch"
)

// RenderCard 把 Flex 卡片渲染为终端文本，颜色沿用卡片上的色值
func RenderCard(b *card.Bubble, width int) string {
	if b == nil {
		return ""
	}
	if width <= 0 {
		width = 60
	}

	var sections []string
	if b.Header != nil {
		style := lipgloss.NewStyle().Bold(true).Padding(0, 1).Width(width)
		if b.Header.BackgroundColor != "" {
			style = style.Background(lipgloss.Color(b.Header.BackgroundColor))
		}
		sections = append(sections, style.Render(strings.Join(textsOf(b.Header), " ")))
	}
	for _, box := range []*card.Box{b.Body, b.Footer} {
		if box != nil {
			sections = append(sections, renderBox(box, width))
		}
	}
	return strings.Join(sections, "\n")
}

func renderBox(box *card.Box, width int) string {
	var lines []string
	for _, c := range box.Contents {
		switch v := c.(type) {
		case *card.Text:
			style := lipgloss.NewStyle().Width(width)
			if v.Weight == "bold" {
				style = style.Bold(true)
			}
			if v.Color != "" {
				style = style.Foreground(lipgloss.Color(v.Color))
			}
			lines = append(lines, style.Render(v.Text))
		case *card.Separator:
			lines = append(lines, dimStyle.Render(strings.Repeat("─", width)))
		case *card.Button:
			lines = append(lines, fmt.Sprintf("[%s] %s", v.Action.Label, v.Action.URI))
		case *card.Box:
			lines = append(lines, renderBox(v, width))
		}
	}
	return strings.Join(lines, "\n")
}

func textsOf(box *card.Box) []string {
	var out []string
	for _, c := range box.Contents {
		if t, ok := c.(*card.Text); ok {
			out = append(out, t.Text)
		}
	}
	return out
}

// RenderHits 列出检索命中的切片
func RenderHits(ans *dispatch.Answer) string {
	if ans == nil || len(ans.Hits) == 0 {
		return dimStyle.Render("沒有檢索到相關資料")
	}
	var b strings.Builder
	for i, h := range ans.Hits {
		title := fmt.Sprintf("#%d %s [%d]  distance=%.4f", i+1, h.Chunk.Filename, h.Chunk.ChunkID, h.Distance)
		b.WriteString(titleStyle.Render(title))
		b.WriteString("\n")
		b.WriteString(h.Chunk.Content)
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
