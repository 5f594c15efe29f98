// Package main 终端问答，直接调用检索与生成流水线
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"symptom-advisor-bot/internal/config"
	"symptom-advisor-bot/internal/infrastructure/eino/callback"
	"symptom-advisor-bot/internal/interfaces/tui"
	"symptom-advisor-bot/internal/wire"
	"symptom-advisor-bot/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	var configDir string
	flag.StringVar(&configDir, "config-dir", "configs", "配置目录")
	flag.Parse()

	cfg, err := config.LoadFrom(configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 日志写到 stderr 会打乱界面
	logFile, err := os.OpenFile("symptom-chat.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	logger.InitWithWriter(logFile, cfg.Observability.Logging.Level, "json")

	callback.Init()

	ctx := context.Background()
	chat, cleanup, err := wire.InitializeChat(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	summary := fmt.Sprintf("%s 索引 %d 筆，模型 %s", cfg.Vector.Backend, chat.Retriever.Size(), cfg.Embedding.Model)
	p := tea.NewProgram(tui.New(chat.Pipeline, summary, 0), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "tui error: %v\n", err)
		os.Exit(1)
	}
}
