package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bguntupallics/TradingSandbox/internal/config"
	"github.com/bguntupallics/TradingSandbox/internal/ui"
	"github.com/bguntupallics/TradingSandbox/internal/util"
	"github.com/bguntupallics/TradingSandbox/pkg/sandbox"
)

func main() {
	cfgPath := "config/sandbox.yaml"
	if p := os.Getenv("SANDBOX_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	// Stdout belongs to the terminal renderer, so logs go to a file.
	logPath := cfg.Logging.File
	if logPath == "" {
		logPath = fmt.Sprintf("/tmp/sandbox-tui-%s.log", time.Now().Format("2006-01-02"))
	}
	logger, logFile, err := util.NewFileLogger(logPath, cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()

	if cfg.Client.Email == "" || cfg.Client.Password == "" {
		fmt.Fprintln(os.Stderr, "client email and password must be set (config or SANDBOX_EMAIL/SANDBOX_PASSWORD)")
		os.Exit(1)
	}

	client := sandbox.NewClient(cfg.Client.APIBase)

	loginCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Login(loginCtx, cfg.Client.Email, cfg.Client.Password); err != nil {
		fmt.Fprintf(os.Stderr, "login failed: %v\n", err)
		os.Exit(1)
	}
	logger.Info("logged in", "api", cfg.Client.APIBase, "email", cfg.Client.Email)

	p := tea.NewProgram(ui.NewModel(client), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		logger.Error("terminal error", "error", err)
		fmt.Fprintf(os.Stderr, "terminal error: %v\n", err)
		os.Exit(1)
	}

	logoutCtx, cancelLogout := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelLogout()
	if err := client.Logout(logoutCtx); err != nil {
		logger.Warn("logout failed", "error", err)
	}
}
