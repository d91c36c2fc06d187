// langsurface manages multi-language string tables: import CSV, JSON and
// text files into projects, edit keys and languages, translate with AI
// providers and export CSV or JSON.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/minios-linux/langsurface/config"
	"github.com/minios-linux/langsurface/i18n"
	"github.com/minios-linux/langsurface/langcode"
	"github.com/minios-linux/langsurface/lockfile"
	"github.com/minios-linux/langsurface/project"
	"github.com/minios-linux/langsurface/settings"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ANSI colors
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
	colorBlue   = "\033[0;34m"
	colorGray   = "\033[0;90m"
)

func logInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorBlue+"[INFO]"+colorReset+" "+format+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorGreen+"[OK]"+colorReset+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorYellow+"[WARN]"+colorReset+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorRed+"[ERROR]"+colorReset+" "+format+"\n", args...)
}

// ---------------------------------------------------------------------------
// Global flags
// ---------------------------------------------------------------------------

var (
	rootDir     string
	projectRef  string
	storageKind string
	storagePath string
)

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "langsurface",
		Short: i18n.T("Multi-language string table manager with AI translation"),
		Long: `langsurface keeps translation projects: keys with one value per language.

Commands:
  status      Show the current project and translation progress
  project     List, create, rename, duplicate, delete and select projects
  import      Import CSV, JSON, multi-file JSON or plain text
  export      Export CSV, single JSON or one JSON file per language
  lang        Add or delete project languages
  key         List, add, edit, rename and delete keys
  rules       Manage glossary rules used by AI translation
  translate   Fill missing translations with an AI provider
  settings    Show or change stored settings
  init        Write a starter .langsurface.yaml
  reset       Wipe all projects and settings

AI Providers:
  openai         OpenAI Responses API (default), API key
  google         Google AI (Gemini), API key
  groq           Groq, API key
  ollama         Ollama local server
  custom-openai  Custom OpenAI-compatible endpoint`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global persistent flags, inherited by all subcommands
	pf := root.PersistentFlags()
	pf.StringVar(&rootDir, "root", ".", "Directory holding .langsurface.yaml")
	pf.StringVarP(&projectRef, "project", "p", "", "Project id or name (default: the selected project)")
	pf.StringVar(&storageKind, "storage", "", "State storage: file or sqlite (default from config)")
	pf.StringVar(&storagePath, "storage-path", "", "State storage directory (default ~/.local/share/langsurface)")

	_ = root.RegisterFlagCompletionFunc("project", completeProjects)

	root.AddCommand(
		newStatusCmd(),
		newProjectCmd(),
		newImportCmd(),
		newExportCmd(),
		newLangCmd(),
		newKeyCmd(),
		newRulesCmd(),
		newTranslateCmd(),
		newSettingsCmd(),
		newInitCmd(),
		newResetCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	i18n.Init("")
	if err := newRootCmd().Execute(); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// version
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: i18n.T("Show version information"),
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "langsurface version %s\n", version)
			fmt.Fprintf(out, "  commit:    %s\n", commit)
			fmt.Fprintf(out, "  built:     %s\n", date)
			fmt.Fprintf(out, "  ui langs:  %s\n", strings.Join(append([]string{"en"}, i18n.Available()...), ", "))
		},
	}
}

// ---------------------------------------------------------------------------
// init
// ---------------------------------------------------------------------------

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: i18n.T("Write a starter .langsurface.yaml"),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.Init(rootDir)
			if err != nil {
				return err
			}
			logSuccess(i18n.T("Created %s"), path)
			return nil
		},
	}
}

// ---------------------------------------------------------------------------
// Session: config + stored state + lock file
// ---------------------------------------------------------------------------

type session struct {
	cfg     *config.Config
	dir     string
	backend settings.Backend
	state   *settings.State
	lock    *lockfile.LockFile
}

func openSession(ctx context.Context) (*session, error) {
	cfg, err := config.Load(rootDir)
	if err != nil {
		return nil, err
	}
	if storageKind != "" {
		cfg.Storage = storageKind
	}
	if storagePath != "" {
		cfg.StoragePath = storagePath
	}

	dir := expandHome(cfg.StoragePath)
	if dir == "" {
		if dir, err = settings.DataDir(); err != nil {
			return nil, err
		}
	}

	backend, err := settings.Open(cfg.Storage, dir)
	if err != nil {
		return nil, err
	}
	st, err := settings.Load(ctx, backend)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}
	lock, err := lockfile.Load(dir)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}
	return &session{cfg: cfg, dir: dir, backend: backend, state: st, lock: lock}, nil
}

func (s *session) close() {
	_ = s.backend.Close()
}

// save writes state and lock file. Commands call it only after the whole
// operation succeeded.
func (s *session) save(ctx context.Context) error {
	if err := settings.Save(ctx, s.backend, s.state); err != nil {
		return err
	}
	return s.lock.Save()
}

// project returns the project named by --project, else the selected one.
func (s *session) project() (*project.Project, error) {
	if projectRef != "" {
		return s.state.Project(projectRef)
	}
	if p := s.state.Current(); p != nil {
		return p, nil
	}
	return nil, errors.New(i18n.T("no project selected; create one with \"langsurface project create\""))
}

// withSession opens the session, runs fn and closes it.
func withSession(cmd *cobra.Command, fn func(ctx context.Context, s *session) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.close()
	return fn(ctx, s)
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

// confirm asks a yes/no question unless the user disabled confirmations
// or passed --yes.
func confirm(s *session, in io.Reader, yes bool, question string) bool {
	if yes || !s.state.Settings.ConfirmDeletes {
		return true
	}
	fmt.Fprintf(os.Stderr, "%s [y/N]: ", question)
	line, _ := bufio.NewReader(in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func completeProjects(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var names []string
	_ = withSession(cmd, func(ctx context.Context, s *session) error {
		for _, p := range s.state.SortedProjects() {
			names = append(names, p.ID+"\t"+p.Name)
		}
		return nil
	})
	return names, cobra.ShellCompDirectiveNoFileComp
}

// ---------------------------------------------------------------------------
// Language list flag
// ---------------------------------------------------------------------------

// langList is a comma-separated language flag. Codes are normalized and
// must be known languages.
type langList []string

var _ pflag.Value = (*langList)(nil)

func (l *langList) String() string { return strings.Join(*l, ",") }

func (l *langList) Type() string { return "langs" }

func (l *langList) Set(v string) error {
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !langcode.IsWellFormed(part) {
			return fmt.Errorf("%w: %q", project.ErrInvalidLanguage, part)
		}
		if !langcode.IsKnownBase(part) {
			return fmt.Errorf("%w: %q", project.ErrUnknownLanguage, part)
		}
		*l = append(*l, langcode.Normalize(part))
	}
	*l = langcode.Unique(*l)
	return nil
}

// ---------------------------------------------------------------------------
// Display helpers
// ---------------------------------------------------------------------------

func progressBar(percent, width int) string {
	percent = max(0, min(100, percent))
	filled := percent * width / 100
	color := colorRed
	switch {
	case percent >= 80:
		color = colorGreen
	case percent >= 40:
		color = colorYellow
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("%s%s%s %3d%%", color, bar, colorReset, percent)
}

func langFlag(code string) string {
	return langcode.Resolve(code).Flag
}

func langColumnWidth(langs []string) int {
	w := 0
	for _, l := range langs {
		w = max(w, len(l))
	}
	return w
}

// langCell renders "<flag> <code>" padded to width code columns.
func langCell(code string, width int) string {
	flag := langFlag(code)
	if flag == "" {
		flag = "  "
	}
	return fmt.Sprintf("%s %-*s", flag, width, code)
}

// clip shortens s to width runes, marking the cut with "…".
func clip(s string, width int) string {
	s = strings.ReplaceAll(s, "\n", "⏎")
	r := []rune(s)
	if width <= 0 || len(r) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}
