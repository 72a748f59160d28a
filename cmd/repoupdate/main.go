package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/repoupdate/internal/config"
	"git.home.luguber.info/inful/repoupdate/internal/git"
	"git.home.luguber.info/inful/repoupdate/internal/journal"
	"git.home.luguber.info/inful/repoupdate/internal/logfields"
	"git.home.luguber.info/inful/repoupdate/internal/update"
)

var CLI struct {
	RepoPath string `arg:"" optional:"" help:"Path to the working copy to update"`
	Stable   bool   `help:"Pin to the latest numeric version tag after updating"`
	Config   string `short:"c" help:"Configuration file path (optional)"`
	Journal  string `help:"Path to a SQLite run journal (overrides config)"`
	Verbose  bool   `short:"v" help:"Enable verbose logging"`
}

func main() {
	kong.Parse(&CLI,
		kong.Name("repoupdate"),
		kong.Description("Synchronize a git working copy with its remote tracking branch."),
	)

	if CLI.RepoPath == "" {
		fmt.Printf("Usage: repoupdate <repo_path> [--stable]\n")
		os.Exit(1)
	}
	repoPath := strings.TrimRight(CLI.RepoPath, "/\\")

	// Set up logging
	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if err := run(repoPath); err != nil {
		slog.Error("Update failed", logfields.Error(err))
		os.Exit(1)
	}
	slog.Info("Done")
}

func run(repoPath string) error {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return err
	}
	if CLI.Journal != "" {
		cfg.Journal = &config.JournalConfig{Path: CLI.Journal}
	}

	backend, err := git.Open(repoPath, git.OpenOptions{Trust: cfg.Trust})
	if err != nil {
		return err
	}

	updater := update.New(backend, cfg, update.NewEmitter(os.Stdout))
	if cfg.Journal != nil && cfg.Journal.Path != "" {
		j, jerr := journal.Open(cfg.Journal.Path)
		if jerr != nil {
			slog.Warn("Could not open run journal", logfields.Path(cfg.Journal.Path), logfields.Error(jerr))
		} else {
			defer j.Close()
			updater = updater.WithJournal(j)
		}
	}

	return updater.Run(context.Background(), repoPath, CLI.Stable)
}
