package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"tetrecs-server/config"
	"tetrecs-server/game"
	"tetrecs-server/loghandler"
	"tetrecs-server/storage"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	name := flag.String("name", defaultName(), "player name for the score table")
	seed := flag.Int64("seed", 0, "piece sequence seed (0 = random)")
	logFile := flag.String("log", "", "write logs to this file")
	flag.Parse()

	var logOut io.Writer = io.Discard
	if *logFile != "" {
		f, err := tea.LogToFile(*logFile, "")
		if err != nil {
			fmt.Fprintln(os.Stderr, "open log:", err)
			os.Exit(1)
		}
		defer f.Close()
		logOut = f
	}
	slog.SetDefault(slog.New(loghandler.NewCompactHandler(logOut, cfg.SlogLevel())))

	store, err := storage.NewFileStore(cfg.ScoresFile, cfg.LeaderboardSize)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open scores:", err)
		os.Exit(1)
	}

	g := game.NewGame("local", cfg, game.NewRandomSource(*seed), nil)
	m := newModel(cfg, g, store, *name)

	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		fmt.Fprintln(os.Stderr, "tetrecs:", err)
		os.Exit(1)
	}
	g.Stop()
}

func defaultName() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "Player"
}
