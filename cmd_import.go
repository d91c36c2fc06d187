package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/minios-linux/langsurface/i18n"
	"github.com/minios-linux/langsurface/importer"
	"github.com/minios-linux/langsurface/merge"
)

type importFlags struct {
	newName    string
	allowClear bool
	dryRun     bool
}

func (f *importFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.newName, "new", "", "Create a new project with this name instead of merging")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Show what would change without saving")
	cmd.Flags().BoolVar(&f.allowClear, "allow-clear", false, "Let empty imported values clear existing translations")
}

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: i18n.T("Import CSV, JSON, multi-file JSON or plain text"),
		Long: `Import translations into the current project (or a new one with --new).

Imports only add keys and fill the languages they carry. A value already
present is never replaced by an empty one unless --allow-clear is given.
Nothing is saved when the import fails.

Formats:
  csv     key,<lang>,<lang>... header, one row per key
  json    language-map tree ({"menu":{"start":{"en":"Start"}}}), flat map
          ({"menu.start":{"en":"Start"}}) or one-language tree
  files   several one-language JSON files, language taken from the file
          name (en.json, app_ja.json) or from language-map content
  text    one value per non-empty line, keys line_1, line_2, ...
  auto    detect the format of each file`,
	}
	cmd.AddCommand(
		newImportCSVCmd(),
		newImportJSONCmd(),
		newImportFilesCmd(),
		newImportTextCmd(),
		newImportAutoCmd(),
	)
	return cmd
}

func newImportCSVCmd() *cobra.Command {
	var f importFlags
	cmd := &cobra.Command{
		Use:   "csv FILE",
		Short: i18n.T("Import a CSV file (use - for stdin)"),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			res, err := importer.ImportCSV(data)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			return applyImport(cmd, res, f)
		},
	}
	f.register(cmd)
	return cmd
}

func newImportJSONCmd() *cobra.Command {
	var (
		f    importFlags
		lang string
	)
	cmd := &cobra.Command{
		Use:   "json FILE",
		Short: i18n.T("Import a JSON file (use - for stdin)"),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			return withSession(cmd, func(ctx context.Context, s *session) error {
				res, err := importer.ImportJSON(data, s.jsonOptions(args[0], lang))
				if err != nil {
					return err
				}
				return s.applyImport(ctx, res, f)
			})
		},
	}
	cmd.Flags().StringVar(&lang, "lang", "", "Language of a one-language file (default: from file name)")
	f.register(cmd)
	return cmd
}

func newImportFilesCmd() *cobra.Command {
	var f importFlags
	cmd := &cobra.Command{
		Use:   "files FILE|DIR...",
		Short: i18n.T("Import several JSON files, one language each"),
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := readJSONFiles(args)
			if err != nil {
				return err
			}
			return withSession(cmd, func(ctx context.Context, s *session) error {
				res, err := importer.ImportJSONFiles(files, s.jsonOptions("", ""))
				if err != nil {
					return err
				}
				return s.applyImport(ctx, res, f)
			})
		},
	}
	f.register(cmd)
	return cmd
}

func newImportTextCmd() *cobra.Command {
	var (
		f      importFlags
		lang   string
		prefix string
	)
	cmd := &cobra.Command{
		Use:   "text FILE",
		Short: i18n.T("Import plain text, one value per line (use - for stdin)"),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			return withSession(cmd, func(ctx context.Context, s *session) error {
				if prefix == "" {
					prefix = s.cfg.TextPrefix
				}
				if lang == "" {
					lang = s.sourceLang()
				}
				res, err := importer.ImportText(data, lang, prefix)
				if err != nil {
					return fmt.Errorf("%s: %w", args[0], err)
				}
				return s.applyImport(ctx, res, f)
			})
		},
	}
	cmd.Flags().StringVar(&lang, "lang", "", "Language of the lines (default: source language)")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Key prefix (default from config, \"line\")")
	f.register(cmd)
	return cmd
}

func newImportAutoCmd() *cobra.Command {
	var (
		f    importFlags
		lang string
	)
	cmd := &cobra.Command{
		Use:   "auto FILE...",
		Short: i18n.T("Detect the format of each file and import them together"),
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				total := &importer.Result{Entries: map[string]map[string]string{}}
				for _, path := range args {
					res, err := s.importAuto(path, lang, cmd)
					if err != nil {
						return err
					}
					total.Merge(res)
				}
				return s.applyImport(ctx, total, f)
			})
		},
	}
	cmd.Flags().StringVar(&lang, "lang", "", "Language of one-language JSON and text files")
	f.register(cmd)
	return cmd
}

func (s *session) importAuto(path, lang string, cmd *cobra.Command) (*importer.Result, error) {
	data, err := readInput(path, cmd.InOrStdin())
	if err != nil {
		return nil, err
	}
	format := importer.Detect(path, data)
	logInfo(i18n.T("%s: detected %s"), path, format)
	var res *importer.Result
	switch format {
	case importer.FormatCSV:
		res, err = importer.ImportCSV(data)
	case importer.FormatJSON:
		res, err = importer.ImportJSON(data, s.jsonOptions(path, lang))
	default:
		if lang == "" {
			lang = s.sourceLang()
		}
		res, err = importer.ImportText(data, lang, s.cfg.TextPrefix)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return res, nil
}

func (s *session) jsonOptions(fileName, lang string) importer.JSONOptions {
	fallback := s.cfg.FallbackLang
	if fallback == "" {
		fallback = s.state.Settings.FallbackLang
	}
	return importer.JSONOptions{
		FileName:         fileName,
		Language:         lang,
		DefaultLanguage:  s.cfg.DefaultLang,
		FallbackLanguage: fallback,
	}
}

// readJSONFiles reads the given files and the *.json and *.jsonc files
// directly inside given directories, in name order.
func readJSONFiles(paths []string) ([]importer.File, error) {
	var names []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		if !info.IsDir() {
			names = append(names, p)
			continue
		}
		var matches []string
		for _, pattern := range []string{"*.json", "*.jsonc"} {
			m, err := filepath.Glob(filepath.Join(p, pattern))
			if err != nil {
				return nil, err
			}
			matches = append(matches, m...)
		}
		sort.Strings(matches)
		names = append(names, matches...)
	}

	files := make([]importer.File, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		files = append(files, importer.File{Name: name, Data: data})
	}
	return files, nil
}

func applyImport(cmd *cobra.Command, res *importer.Result, f importFlags) error {
	return withSession(cmd, func(ctx context.Context, s *session) error {
		return s.applyImport(ctx, res, f)
	})
}

// applyImport merges res into the current project, or creates a new one,
// and saves.
func (s *session) applyImport(ctx context.Context, res *importer.Result, f importFlags) error {
	logInfo(i18n.T("Read %s in %s"), i18n.Nf("%d key", "%d keys", len(res.Entries), len(res.Entries)), strings.Join(res.Languages, ", "))

	if f.newName != "" {
		p := merge.NewProject(f.newName, res)
		if f.dryRun {
			logInfo(i18n.T("Dry run: would create project %q"), p.Name)
			return nil
		}
		s.state.AddProject(p)
		if err := s.save(ctx); err != nil {
			return err
		}
		logSuccess(i18n.T("Created project %q (%s)"), p.Name, p.ID)
		return nil
	}

	p, err := s.project()
	if err != nil {
		return err
	}
	if f.dryRun {
		p = p.Duplicate()
	}
	sum := merge.IntoWith(p, res, merge.Options{AllowClear: f.allowClear})
	if len(sum.AddedLanguages) > 0 {
		logInfo(i18n.T("New languages: %s"), strings.Join(sum.AddedLanguages, ", "))
	}
	logInfo(i18n.T("Added: %d, updated: %d"), len(sum.AddedKeys), len(sum.UpdatedKeys))
	if f.dryRun {
		logInfo(i18n.T("Dry run: nothing saved."))
		return nil
	}
	if !sum.Changed() {
		logInfo(i18n.T("Nothing changed."))
		return nil
	}
	if err := s.save(ctx); err != nil {
		return err
	}
	logSuccess(i18n.T("Saved."))
	return nil
}
