// Package tui 终端问答界面，用于本地调试检索与卡片输出
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"symptom-advisor-bot/internal/application/dispatch"
	"symptom-advisor-bot/internal/domain/service"
)

// Asker 问答流水线
type Asker interface {
	Answer(ctx context.Context, question string) (*dispatch.Answer, error)
}

type answerMsg struct {
	question string
	answer   *dispatch.Answer
	err      error
	elapsed  time.Duration
}

// Model Bubble Tea 模型
type Model struct {
	asker   Asker
	timeout time.Duration
	summary string

	input    textinput.Model
	spinner  spinner.Model
	viewport viewport.Model

	last       *answerMsg
	showChunks bool
	busy       bool
	ready      bool
	status     string
}

// New 创建模型；summary 显示在标题下方（如索引条目数）
func New(asker Asker, summary string, timeout time.Duration) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "描述您的症狀，Enter 送出"
	ti.Focus()
	ti.CharLimit = 500

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	if timeout <= 0 {
		timeout = 90 * time.Second
	}

	return Model{
		asker:    asker,
		timeout:  timeout,
		summary:  summary,
		input:    ti,
		spinner:  sp,
		viewport: viewport.New(0, 0),
		status:   "Tab 切換檢索結果，Ctrl+C 離開",
	}
}

// Init 启动光标闪烁
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update 处理按键、窗口与问答结果
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, frame := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		// 标题、摘要、状态栏与输入框
		h := msg.Height - 3 - qh - 1 - frame
		m.viewport.Width = max(20, msg.Width-4)
		m.viewport.Height = max(3, h)
		m.viewport.SetContent(m.content())
		return m, nil

	case answerMsg:
		m.busy = false
		m.last = &msg
		if msg.err != nil {
			m.status = "錯誤：" + msg.err.Error()
		} else {
			m.status = fmt.Sprintf("完成（%s）", msg.elapsed.Round(time.Millisecond))
		}
		m.viewport.SetContent(m.content())
		m.viewport.GotoTop()
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyTab:
			m.showChunks = !m.showChunks
			m.viewport.SetContent(m.content())
			return m, nil
		case tea.KeyPgUp, tea.KeyPgDown, tea.KeyUp, tea.KeyDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		case tea.KeyEnter:
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.busy {
				return m, nil
			}
			m.busy = true
			m.status = "分析中：" + q
			m.input.SetValue("")
			return m, tea.Batch(m.spinner.Tick, m.ask(q))
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) ask(question string) tea.Cmd {
	asker, timeout := m.asker, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		ctx = service.WithWorkflow(ctx, service.WorkflowChatTUI)

		start := time.Now()
		ans, err := asker.Answer(ctx, question)
		return answerMsg{question: question, answer: ans, err: err, elapsed: time.Since(start)}
	}
}

// View 渲染界面
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := titleStyle.Render("症狀諮詢小幫手")
	summary := dimStyle.Render(m.summary)
	results := resultBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())

	status := statusStyle.Render(m.status)
	if m.busy {
		status = m.spinner.View() + " " + status
	}
	return header + "\n" + summary + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) content() string {
	if m.last == nil {
		return dimStyle.Render("尚無結果")
	}
	if m.last.err != nil {
		return errorStyle.Render(m.last.err.Error())
	}

	ans := m.last.answer
	var b strings.Builder
	b.WriteString(dimStyle.Render("問題：" + m.last.question))
	b.WriteString("\n\n")

	if m.showChunks {
		b.WriteString(RenderHits(ans))
		return b.String()
	}

	if ans.Card != nil {
		b.WriteString(RenderCard(ans.Card, m.viewport.Width))
	} else {
		b.WriteString(ans.Raw)
	}
	return b.String()
}

var (
	titleStyle     = lipgloss.NewStyle().Bold(true)
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)
