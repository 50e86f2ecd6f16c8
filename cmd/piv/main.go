// piv is a terminal viewer for company page insights.
//
// It opens a page from the insights service and discloses it progressively:
// the page card first, then employees and posts, more posts on request, and
// comments per post only when a post is expanded.
//
// Usage:
//
//	piv                         # Start on the search screen
//	piv <page-id>               # Open a page directly
//	piv <page-id> --json        # Dump the page as JSON and exit
//	piv --api <url>             # Use a specific insights service
//	piv --config <path>         # Use a specific config file
//	piv --version               # Print version and exit
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/daviddao/piv/internal/api"
	"github.com/daviddao/piv/internal/config"
	"github.com/daviddao/piv/internal/datasource"
	"github.com/daviddao/piv/internal/snapshot"
)

// Version is set via ldflags at build time (e.g. -X main.Version=v0.1.0).
var Version = "dev"

// errNoTerminal is returned when the TUI would start without a terminal.
var errNoTerminal = errors.New("stdout is not a terminal (use --json for non-interactive output)")

type flags struct {
	configPath string
	apiURL     string
	jsonMode   bool
	maxPages   int
	debug      bool
	logFile    string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "piv: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:           "piv [page-id]",
		Short:         "Browse company page insights in the terminal",
		Version:       Version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var pageID string
			if len(args) == 1 {
				pageID = args[0]
			}
			return run(cmd, f, pageID)
		},
	}
	cmd.SetVersionTemplate("piv {{.Version}}\n")

	fl := cmd.Flags()
	fl.StringVar(&f.configPath, "config", "", "path to config file (default: auto-discover .piv/config.yaml)")
	fl.StringVar(&f.apiURL, "api", "", "insights service base URL (overrides config)")
	fl.BoolVar(&f.jsonMode, "json", false, "dump the page as JSON and exit (no TUI)")
	fl.IntVar(&f.maxPages, "max-pages", 5, "post pages to load beyond the first in --json mode")
	fl.BoolVar(&f.debug, "debug", false, "enable debug logging")
	fl.StringVar(&f.logFile, "log-file", "", "write logs to this file")
	return cmd
}

// loadConfig resolves the config file and applies flag overrides on top.
func loadConfig(f flags) (config.Config, string, error) {
	cfg, path, err := datasource.Open(f.configPath)
	if err != nil {
		return config.Config{}, "", err
	}
	if f.apiURL != "" {
		cfg.API.BaseURL = f.apiURL
	}
	if f.logFile != "" {
		cfg.Logging.File = f.logFile
	}
	if f.debug {
		cfg.Logging.Level = zerolog.DebugLevel.String()
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, "", err
	}
	return cfg, path, nil
}

func newClient(cfg config.Config, logger zerolog.Logger) (*api.Client, error) {
	return api.New(cfg.API.BaseURL,
		api.WithHTTPClient(&http.Client{Timeout: cfg.API.Timeout}),
		api.WithLogger(logger),
	)
}

func run(cmd *cobra.Command, f flags, pageID string) error {
	cfg, path, err := loadConfig(f)
	if err != nil {
		return err
	}

	if f.jsonMode {
		if pageID == "" {
			return errors.New("--json needs a page id")
		}
		return runJSON(cmd.Context(), cfg, f, pageID, cmd.OutOrStdout(), cmd.ErrOrStderr())
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errNoTerminal
	}

	// The TUI owns the terminal; logs only go to a file.
	logger, closeLog, err := config.NewLogger(cfg.Logging, nil)
	if err != nil {
		return err
	}
	defer closeLog()

	client, err := newClient(cfg, logger)
	if err != nil {
		return err
	}

	var w *datasource.Watcher
	if path != "" {
		w, err = datasource.NewWatcher(path)
		if err != nil {
			// Presets just won't live-reload.
			logger.Warn().Err(err).Str("path", path).Msg("config watch disabled")
		} else {
			defer w.Close()
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := newModel(ctx, client, cfg.Presets, logger)
	m.configPath = path
	m.watcher = w
	if pageID != "" {
		m = m.openPage(pageID)
	}

	p := tea.NewProgram(m, tea.WithAltScreen())

	// Feed config edits into the TUI until the watcher closes.
	if w != nil {
		go func() {
			for range w.Changes() {
				p.Send(configChangedMsg{})
			}
		}()
	}

	logger.Info().Str("api", client.BaseURL()).Str("config", path).Msg("starting")
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

func runJSON(ctx context.Context, cfg config.Config, f flags, pageID string, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger, closeLog, err := config.NewLogger(cfg.Logging, stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	client, err := newClient(cfg, logger)
	if err != nil {
		return err
	}

	snap, err := snapshot.Build(ctx, client, pageID, snapshot.Options{
		MaxPages: f.maxPages,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(buildJSONOutput(snap)); err != nil {
		return fmt.Errorf("json: %w", err)
	}
	return nil
}

// jsonOutput is the structure for --json mode.
type jsonOutput struct {
	Page      jsonPage       `json:"page"`
	Employees []api.Employee `json:"employees"`
	Posts     []jsonPost     `json:"posts"`
	Stats     jsonStats      `json:"stats"`
}

type jsonPage struct {
	ID            int64  `json:"id"`
	LinkedInID    string `json:"linkedin_id"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	Website       string `json:"website,omitempty"`
	Industry      string `json:"industry,omitempty"`
	FollowerCount int    `json:"follower_count"`
	HeadCount     int    `json:"head_count"`
	Founded       string `json:"founded,omitempty"`
	Specialties   string `json:"specialties,omitempty"`
	LastScraped   string `json:"last_scraped_at,omitempty"`
}

type jsonPost struct {
	ID            int64         `json:"id"`
	Content       string        `json:"content"`
	URL           string        `json:"post_url,omitempty"`
	Likes         int           `json:"like_count"`
	CommentCount  int           `json:"comment_count"`
	PostedAt      string        `json:"posted_at,omitempty"`
	Comments      []jsonComment `json:"comments,omitempty"`
	CommentsError string        `json:"comments_error,omitempty"`
}

type jsonComment struct {
	Author  string `json:"author"`
	Content string `json:"content"`
	Likes   int    `json:"like_count"`
}

type jsonStats struct {
	Posts         int    `json:"posts"`
	Employees     int    `json:"employees"`
	Exhausted     bool   `json:"exhausted"`
	PagingError   string `json:"paging_error,omitempty"`
	CommentErrors int    `json:"comment_errors"`
	BuiltAt       string `json:"built_at"`
}

// buildJSONOutput converts a snapshot into the JSON output structure.
func buildJSONOutput(snap *snapshot.DataSnapshot) jsonOutput {
	p := snap.Page
	page := jsonPage{
		ID:            p.ID,
		LinkedInID:    p.LinkedInID,
		Name:          p.Name,
		Description:   p.Description,
		Website:       p.Website,
		Industry:      p.Industry,
		FollowerCount: p.FollowerCount,
		HeadCount:     p.HeadCount,
		Founded:       p.Founded,
		Specialties:   p.Specialties,
	}
	if p.LastScrapedAt != nil {
		page.LastScraped = p.LastScrapedAt.Format(time.RFC3339)
	}

	commentErrors := 0
	posts := make([]jsonPost, len(snap.Posts))
	for i, post := range snap.Posts {
		jp := jsonPost{
			ID:           post.ID,
			Content:      post.Content,
			URL:          post.PostURL,
			Likes:        post.LikeCount,
			CommentCount: post.CommentCount,
		}
		if post.PostedAt != nil {
			jp.PostedAt = post.PostedAt.Format(time.RFC3339)
		}
		if pc, ok := snap.Comments[post.ID]; ok {
			if pc.Err != nil {
				jp.CommentsError = pc.Err.Error()
				commentErrors++
			}
			for _, c := range pc.Comments {
				jp.Comments = append(jp.Comments, jsonComment{
					Author:  c.AuthorName,
					Content: c.Content,
					Likes:   c.LikeCount,
				})
			}
		}
		posts[i] = jp
	}

	employees := p.Employees
	if employees == nil {
		employees = []api.Employee{}
	}

	stats := jsonStats{
		Posts:         len(posts),
		Employees:     len(employees),
		Exhausted:     snap.Exhausted,
		CommentErrors: commentErrors,
		BuiltAt:       snap.BuiltAt.Format(time.RFC3339),
	}
	if snap.PagingErr != nil {
		stats.PagingError = snap.PagingErr.Error()
	}

	return jsonOutput{
		Page:      page,
		Employees: employees,
		Posts:     posts,
		Stats:     stats,
	}
}
