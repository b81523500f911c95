// Command gitpix uploads image files to a GitHub repository branch and
// prints one Markdown image link per success, in input order.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gitpix/gitpix/internal/config"
	"github.com/gitpix/gitpix/internal/github"
	"github.com/gitpix/gitpix/internal/logger"
	"github.com/gitpix/gitpix/internal/uploader"
	"github.com/gitpix/gitpix/internal/version"
)

type cliOptions struct {
	configPath  string
	owner       string
	repo        string
	branch      string
	timeout     time.Duration
	showVersion bool
}

func main() {
	opts := parseFlags()
	if opts.showVersion {
		fmt.Printf("gitpix %s\n", version.GetInfo())
		return
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	applyOverrides(&cfg, opts)

	logger.Init(cfg.Log.Level, cfg.Log.Format)

	paths := flag.Args()
	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "usage: gitpix [flags] image-file...")
		os.Exit(2)
	}

	files, err := readFiles(paths)
	if err != nil {
		logger.L.Error("read input", slog.Any("error", err))
		os.Exit(1)
	}

	client := github.NewClient(logger.L, github.DefaultBaseURL, opts.timeout)
	service := uploader.NewService(logger.L, client, cfg)

	result, err := service.UploadBatch(context.Background(), files)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	for _, link := range result.Links {
		fmt.Println(link)
	}
	if result.Failed > 0 {
		fmt.Fprintln(os.Stderr, result.Notice)
		os.Exit(1)
	}
}

func parseFlags() cliOptions {
	var opts cliOptions
	defaultConfig := os.Getenv("CONFIG_PATH")
	if strings.TrimSpace(defaultConfig) == "" {
		defaultConfig = config.DefaultConfigPath
	}

	flag.StringVar(&opts.configPath, "config", defaultConfig, "Path to config.toml")
	flag.StringVar(&opts.owner, "owner", "", "Repository owner (overrides config)")
	flag.StringVar(&opts.repo, "repo", "", "Repository name (overrides config)")
	flag.StringVar(&opts.branch, "branch", "", "Target branch (overrides config)")
	flag.DurationVar(&opts.timeout, "timeout", 30*time.Second, "Per-request timeout")
	flag.BoolVar(&opts.showVersion, "version", false, "Show version information")
	flag.Parse()

	return opts
}

func applyOverrides(cfg *config.Config, opts cliOptions) {
	if opts.owner != "" {
		cfg.GitHub.Owner = opts.owner
	}
	if opts.repo != "" {
		cfg.GitHub.Repo = opts.repo
	}
	if opts.branch != "" {
		cfg.GitHub.Branch = opts.branch
	}
}

func readFiles(paths []string) ([]uploader.File, error) {
	files := make([]uploader.File, 0, len(paths))
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		files = append(files, uploader.File{
			Name:    filepath.Base(path),
			Mime:    mime.TypeByExtension(filepath.Ext(path)),
			Content: content,
		})
	}
	return files, nil
}
