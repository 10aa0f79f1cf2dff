package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/pders01/trvl/internal/cms"
	"github.com/pders01/trvl/internal/config"
	"github.com/pders01/trvl/internal/debuglog"
	"github.com/pders01/trvl/internal/pagination"
	"github.com/pders01/trvl/internal/post"
	"github.com/pders01/trvl/internal/prerender"
	"github.com/pders01/trvl/internal/search"
	"github.com/pders01/trvl/internal/storage"
	"github.com/pders01/trvl/internal/tui"
)

// Version is the version of the application, set at build time
var Version = "dev"

var (
	configPath string
	previewRef string
	logLevel   string
	quiet      bool

	listPages int
	listJSON  bool
)

var rootCmd = &cobra.Command{
	Use:           "trvl",
	Short:         "Terminal reader for the spacetraveling blog",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runTUI,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(_ *cobra.Command, _ []string) {
		if !quiet {
			tui.ShowBanner(Version)
		}
		fmt.Printf("trvl %s\n", Version)
		fmt.Println("spacetraveling reader")
		fmt.Println("github.com/pders01/trvl")
	},
}

var configGenCmd = &cobra.Command{
	Use:   "generate-config",
	Short: "Write the default configuration file",
	RunE: func(_ *cobra.Command, _ []string) error {
		path := configPath
		if path == "" {
			path = config.DefaultPath()
		}
		if err := config.GenerateDefaultConfig(path); err != nil {
			return fmt.Errorf("generating config: %w", err)
		}
		fmt.Printf("Generated default configuration at: %s\n", path)
		return nil
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Fetch the first page now and store it as the seed snapshot",
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		snap, err := s.generator().Generate(cmd.Context())
		if err != nil {
			return fmt.Errorf("generating snapshot: %w", err)
		}

		next := "none"
		if !snap.Page.NextPage.IsZero() {
			next = snap.Page.NextPage.String()
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Generated seed snapshot for %s: %d posts, next page: %s\n",
			snap.Ref, len(snap.Page.Results), next)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print posts without the interactive interface",
	RunE:  runList,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Path to configuration file")
	flags.StringVar(&previewRef, "preview-ref", "", "Read unpublished content through this preview ref")
	flags.StringVar(&logLevel, "log-level", "", "Log level: off, error, warn, info, debug (overrides config)")
	flags.BoolVar(&quiet, "quiet", false, "Skip startup banner")

	listCmd.Flags().IntVar(&listPages, "pages", 1, "Number of pages to load")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Print posts as JSON")

	rootCmd.AddCommand(versionCmd, configGenCmd, generateCmd, listCmd)
}

func main() {
	defer debuglog.Close()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// session holds what every data command needs: config, CMS client and the
// optional seed snapshot store.
type session struct {
	cfg       *config.Config
	client    *cms.Client
	snapshots *storage.Store
}

func openSession() (*session, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if previewRef != "" {
		cfg.CMS.PreviewRef = previewRef
	}

	level := cfg.Log.Level
	if logLevel != "" {
		level = logLevel
	}
	if err := debuglog.Setup(debuglog.ParseLogLevel(level), cfg.Log.File); err != nil {
		return nil, err
	}

	client, err := cms.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating CMS client: %w", err)
	}

	s := &session{cfg: cfg, client: client}
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		debuglog.Warnf("seed snapshots disabled: %v", err)
		return s, nil
	}
	snapshots, err := storage.NewStore(cfg.Database.Path, cfg.Database.Timeout)
	if err != nil {
		// another instance may hold the lock; run without snapshots
		debuglog.Warnf("seed snapshots disabled: %v", err)
		return s, nil
	}
	s.snapshots = snapshots
	return s, nil
}

func (s *session) generator() *prerender.Generator {
	if s.snapshots == nil {
		return prerender.NewGenerator(s.client, nil, s.cfg.Database.Revalidate)
	}
	return prerender.NewGenerator(s.client, s.snapshots, s.cfg.Database.Revalidate)
}

func (s *session) Close() {
	if s.snapshots != nil {
		if err := s.snapshots.Close(); err != nil {
			debuglog.Warnf("closing snapshot store: %v", err)
		}
	}
}

func runTUI(cmd *cobra.Command, _ []string) error {
	if !quiet {
		tui.ShowBanner(Version)
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	snap, err := s.generator().Load(cmd.Context())
	if err != nil {
		return fmt.Errorf("loading first page: %w", err)
	}
	seed := pagination.Seed(&snap.Page)

	var searcher search.Searcher
	var opts []pagination.Option
	if idx, err := search.NewIndex(); err != nil {
		debuglog.Warnf("search disabled: %v", err)
	} else if err := idx.Index(seed.Results); err != nil {
		debuglog.Warnf("search disabled: %v", err)
	} else {
		searcher = idx
		opts = append(opts, pagination.WithChangeListener(search.IndexOnChange(idx)))
	}

	store := pagination.NewStore(seed, s.client, opts...)
	app := tui.NewApp(s.cfg, store, searcher)
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running interface: %w", err)
	}
	return nil
}

func runList(cmd *cobra.Command, _ []string) error {
	if listPages < 1 {
		return fmt.Errorf("--pages must be at least 1")
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	snap, err := s.generator().Load(ctx)
	if err != nil {
		return fmt.Errorf("loading first page: %w", err)
	}

	store := pagination.NewStore(pagination.Seed(&snap.Page), s.client)
	for page := 2; page <= listPages && store.HasMore(); page++ {
		if _, err := store.AppendNextPage(ctx); err != nil {
			return fmt.Errorf("loading page %d: %w", page, err)
		}
	}

	return printPosts(cmd.OutOrStdout(), store.Snapshot(), s.cfg.Preview(), listJSON)
}

type listOutput struct {
	Results  []post.Post `json:"results"`
	NextPage *string     `json:"next_page"`
	Preview  bool        `json:"preview"`
}

func printPosts(w io.Writer, state pagination.State, preview, asJSON bool) error {
	if asJSON {
		out := listOutput{Results: state.Results, Preview: preview}
		if state.HasMore() {
			next := state.NextCursor.String()
			out.NextPage = &next
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(out)
	}

	if preview {
		fmt.Fprintln(w, tui.MsgPreview)
	}
	if state.Len() == 0 {
		fmt.Fprintln(w, tui.MsgNoPosts)
		return nil
	}
	for _, p := range state.Results {
		fmt.Fprintf(w, "%s  %s\n", p.PublishedAt, p.Title)
		if p.Subtitle != "" {
			fmt.Fprintf(w, "    %s\n", p.Subtitle)
		}
		if p.Author != "" {
			fmt.Fprintf(w, "    %s\n", p.Author)
		}
	}
	fmt.Fprintf(w, "\n%s\n", tui.MsgLoadedCount(state.Len()))
	if state.HasMore() {
		fmt.Fprintf(w, "%s: trvl list --pages %d\n", tui.MsgLoadMore, listPages+1)
	}
	return nil
}
