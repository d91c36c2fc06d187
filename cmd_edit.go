package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/minios-linux/langsurface/glossary"
	"github.com/minios-linux/langsurface/i18n"
	"github.com/minios-linux/langsurface/langcode"
	"github.com/minios-linux/langsurface/lockfile"
	"github.com/minios-linux/langsurface/project"
	"github.com/minios-linux/langsurface/settings"
)

// editProject runs fn on the current project and saves when it succeeds.
func editProject(cmd *cobra.Command, fn func(s *session, p *project.Project) error) error {
	return withSession(cmd, func(ctx context.Context, s *session) error {
		p, err := s.project()
		if err != nil {
			return err
		}
		if err := fn(s, p); err != nil {
			return err
		}
		return s.save(ctx)
	})
}

// ---------------------------------------------------------------------------
// lang
// ---------------------------------------------------------------------------

func newLangCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lang",
		Short: i18n.T("List, add or delete project languages"),
	}

	list := &cobra.Command{
		Use:   "list",
		Short: i18n.T("List project languages"),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				p, err := s.project()
				if err != nil {
					return err
				}
				width := langColumnWidth(p.Languages)
				for _, l := range p.Languages {
					fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", langCell(l, width), langcode.Resolve(l).Name)
				}
				return nil
			})
		},
	}

	add := &cobra.Command{
		Use:   "add CODE...",
		Short: i18n.T("Add languages to the project"),
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editProject(cmd, func(s *session, p *project.Project) error {
				for _, code := range args {
					lang, err := p.AddLanguage(code)
					if err != nil {
						return err
					}
					logSuccess(i18n.T("Added language %s"), lang)
				}
				return nil
			})
		},
	}

	var yes bool
	del := &cobra.Command{
		Use:   "delete CODE",
		Short: i18n.T("Delete a language and all its values"),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editProject(cmd, func(s *session, p *project.Project) error {
				lang := langcode.Normalize(args[0])
				if !p.HasLanguage(lang) {
					return fmt.Errorf("%w: %q", project.ErrLanguageNotFound, args[0])
				}
				if !confirm(s, cmd.InOrStdin(), yes, i18n.Tf("Delete language %s from %q?", lang, p.Name)) {
					return errCancelled
				}
				if err := p.DeleteLanguage(lang); err != nil {
					return err
				}
				s.lock.RemoveTarget(lockfile.Target(p.ID, lang))
				if p.ID == s.state.UI.SelectedProjectID {
					s.state.UI.VisibleLangs = s.state.UI.Visible(p)
				}
				logSuccess(i18n.T("Deleted language %s"), lang)
				return nil
			})
		},
	}
	del.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")

	cmd.AddCommand(list, add, del)
	return cmd
}

// errCancelled aborts an edit without saving.
var errCancelled = errors.New("cancelled")

// ---------------------------------------------------------------------------
// key
// ---------------------------------------------------------------------------

func newKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: i18n.T("List, add, edit, rename and delete keys"),
	}
	cmd.AddCommand(
		newKeyListCmd(),
		newKeyAddCmd(),
		newKeySetCmd(),
		newKeyShowCmd(),
		newKeyRenameCmd(),
		newKeyDeleteCmd(),
	)
	return cmd
}

func newKeyListCmd() *cobra.Command {
	var (
		filterKey, filterText string
		page, pageSize        int
		langs                 langList
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   i18n.T("List keys page by page; filters and page are remembered"),
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				p, err := s.project()
				if err != nil {
					return err
				}
				ui := &s.state.UI
				if p.ID != ui.SelectedProjectID {
					if err := s.state.Select(p.ID); err != nil {
						return err
					}
				}
				f := cmd.Flags()
				if f.Changed("key") {
					ui.ListFilterKey = filterKey
					ui.ListPage = 0
				}
				if f.Changed("text") {
					ui.ListFilterText = filterText
					ui.ListPage = 0
				}
				if f.Changed("page-size") {
					ui.ListPageSize = pageSize
				}
				if f.Changed("page") {
					ui.ListPage = page - 1
				}
				if f.Changed("lang") {
					ui.VisibleLangs = []string(langs)
				}

				view := ui.View(p)
				printKeyTable(cmd, s, p, view)
				return s.save(ctx)
			})
		},
	}
	cmd.Flags().StringVar(&filterKey, "key", "", "Show keys containing this text")
	cmd.Flags().StringVar(&filterText, "text", "", "Show keys whose values contain this text")
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&pageSize, "page-size", settings.DefaultPageSize, "Keys per page: 25, 50, 100, 200, 500 or 1000")
	cmd.Flags().Var(&langs, "lang", "Languages to show (comma-separated)")
	return cmd
}

func printKeyTable(cmd *cobra.Command, s *session, p *project.Project, view settings.View) {
	out := cmd.OutOrStdout()
	wrap := s.state.Settings.CellDisplay == "wrap"

	keyWidth := 8
	for _, k := range view.Keys {
		keyWidth = max(keyWidth, len([]rune(k)))
	}
	keyWidth = min(keyWidth, 40)

	fmt.Fprintf(out, "%-*s", keyWidth, "KEY")
	for _, l := range view.Langs {
		fmt.Fprintf(out, "  %-*s", columnWidth(s, l), strings.ToUpper(l))
	}
	fmt.Fprintln(out)

	for _, k := range view.Keys {
		fmt.Fprintf(out, "%-*s", keyWidth, clip(k, keyWidth))
		for _, l := range view.Langs {
			v := p.Translation(k, l)
			if !wrap {
				v = clip(v, columnWidth(s, l))
			}
			fmt.Fprintf(out, "  %-*s", columnWidth(s, l), v)
		}
		fmt.Fprintln(out)
	}
	if view.Total == 0 {
		fmt.Fprintln(out, i18n.T("No matching keys."))
	}
	fmt.Fprintf(out, "%s%s%s\n", colorGray,
		i18n.Tf("Page %d/%d, %s", view.Page+1, view.Pages, i18n.Nf("%d key", "%d keys", view.Total, view.Total)),
		colorReset)
}

// columnWidth reads a stored column width in characters, clamped to 8..80.
func columnWidth(s *session, lang string) int {
	w, ok := s.state.UI.ColWidths[lang]
	if !ok {
		return 24
	}
	return max(8, min(80, w))
}

func newKeyAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add KEY [LANG=VALUE...]",
		Short: i18n.T("Add a key, optionally with values"),
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editProject(cmd, func(s *session, p *project.Project) error {
				key, err := p.AddKey(args[0])
				if err != nil {
					return err
				}
				for _, kv := range args[1:] {
					lang, value, ok := strings.Cut(kv, "=")
					if !ok {
						return fmt.Errorf("expected LANG=VALUE, got %q", kv)
					}
					if err := p.SetTranslation(key, lang, value); err != nil {
						return err
					}
				}
				logSuccess(i18n.T("Added key %s"), key)
				return nil
			})
		},
	}
}

func newKeySetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY LANG VALUE",
		Short: i18n.T("Set the value of a key in one language"),
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editProject(cmd, func(s *session, p *project.Project) error {
				if err := p.SetTranslation(args[0], args[1], args[2]); err != nil {
					return err
				}
				logSuccess(i18n.T("Saved."))
				return nil
			})
		},
	}
}

func newKeyShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show KEY",
		Short: i18n.T("Show every value of a key"),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				p, err := s.project()
				if err != nil {
					return err
				}
				key := project.NormalizeKey(args[0])
				if !p.HasKey(key) {
					return fmt.Errorf("%w: %s", project.ErrKeyNotFound, key)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, key)
				width := langColumnWidth(p.Languages)
				src := s.sourceLang()
				for _, l := range p.Languages {
					v := p.Translation(key, l)
					mark := ""
					if l != src && s.lock.IsStale(lockfile.Target(p.ID, l), key, p.Translation(key, src)) {
						mark = colorYellow + " (" + i18n.T("stale") + ")" + colorReset
					}
					if v == "" {
						v = colorGray + "-" + colorReset
					}
					fmt.Fprintf(out, "  %s  %s%s\n", langCell(l, width), v, mark)
				}
				return nil
			})
		},
	}
}

func newKeyRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename OLD NEW",
		Short: i18n.T("Rename a key"),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editProject(cmd, func(s *session, p *project.Project) error {
				key, err := p.RenameKey(args[0], args[1])
				if err != nil {
					return err
				}
				s.lock.Rename(p.ID, project.NormalizeKey(args[0]), key)
				logSuccess(i18n.T("Renamed key to %s"), key)
				return nil
			})
		},
	}
}

func newKeyDeleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete KEY...",
		Short: i18n.T("Delete keys"),
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editProject(cmd, func(s *session, p *project.Project) error {
				if !confirm(s, cmd.InOrStdin(), yes, i18n.Nf("Delete %d key?", "Delete %d keys?", len(args), len(args))) {
					return errCancelled
				}
				for _, key := range args {
					if err := p.DeleteKey(key); err != nil {
						return err
					}
				}
				s.lock.Clean(p.ID, p.Keys())
				logSuccess(i18n.Nf("Deleted %d key", "Deleted %d keys", len(args), len(args)))
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

// ---------------------------------------------------------------------------
// rules
// ---------------------------------------------------------------------------

func newRulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: i18n.T("Manage glossary rules used by AI translation"),
		Long: `Glossary rules tell the AI how to translate specific terms.

A rule applies when its source and target languages match the translation
pair ("all" matches any) and its "from" text occurs in the source text,
ignoring case. In "from", * matches exactly one character.

Rules from .langsurface.yaml apply to every project; they are listed
with a "config" marker and cannot be removed here.`,
	}

	list := &cobra.Command{
		Use:   "list",
		Short: i18n.T("List rules"),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				p, err := s.project()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for i, r := range p.TranslationRules {
					fmt.Fprintf(out, "%3d  %s → %s  %q → %q\n", i+1, r.SourceLang, r.TargetLang, r.From, r.To)
				}
				for _, r := range s.cfg.Rules {
					fmt.Fprintf(out, "%3s  %s → %s  %q → %q\n", "config", r.SourceLang, r.TargetLang, r.From, r.To)
				}
				if len(p.TranslationRules)+len(s.cfg.Rules) == 0 {
					fmt.Fprintln(out, i18n.T("No rules."))
				}
				return nil
			})
		},
	}

	var src, tgt string
	add := &cobra.Command{
		Use:   "add FROM TO",
		Short: i18n.T("Add a rule"),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editProject(cmd, func(s *session, p *project.Project) error {
				for _, l := range []string{src, tgt} {
					if l != "" && l != glossary.AnyLanguage && !langcode.IsWellFormed(l) {
						return fmt.Errorf("%w: %q", project.ErrInvalidLanguage, l)
					}
				}
				r := glossary.Rule{SourceLang: langcode.Normalize(src), TargetLang: langcode.Normalize(tgt), From: args[0], To: args[1]}
				if err := p.AddRule(r); err != nil {
					return err
				}
				logSuccess(i18n.T("Added rule %d"), len(p.TranslationRules))
				return nil
			})
		},
	}
	add.Flags().StringVar(&src, "source", glossary.AnyLanguage, "Source language or \"all\"")
	add.Flags().StringVar(&tgt, "target", glossary.AnyLanguage, "Target language or \"all\"")

	remove := &cobra.Command{
		Use:   "remove N",
		Short: i18n.T("Remove rule number N"),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid rule number %q", args[0])
			}
			return editProject(cmd, func(s *session, p *project.Project) error {
				if err := p.RemoveRule(n - 1); err != nil {
					return err
				}
				logSuccess(i18n.T("Removed rule %d"), n)
				return nil
			})
		},
	}

	cmd.AddCommand(list, add, remove)
	return cmd
}

// ---------------------------------------------------------------------------
// settings
// ---------------------------------------------------------------------------

// settingFields maps setting names to setters.
var settingFields = map[string]func(s *settings.Settings, v string) error{
	"theme": func(s *settings.Settings, v string) error {
		if v != "dark" && v != "light" {
			return fmt.Errorf("theme must be dark or light")
		}
		s.Theme = v
		return nil
	},
	"cell-display": func(s *settings.Settings, v string) error {
		if v != "clip" && v != "wrap" {
			return fmt.Errorf("cell-display must be clip or wrap")
		}
		s.CellDisplay = v
		return nil
	},
	"api-key": func(s *settings.Settings, v string) error {
		s.OpenAIAPIKey = strings.TrimSpace(v)
		return nil
	},
	"model": func(s *settings.Settings, v string) error {
		s.OpenAIModel = strings.TrimSpace(v)
		return nil
	},
	"provider": func(s *settings.Settings, v string) error {
		s.Provider = strings.TrimSpace(v)
		return nil
	},
	"max-chars": func(s *settings.Settings, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("max-chars must be a non-negative number")
		}
		s.DefaultMaxChars = n
		return nil
	},
	"source-lang": func(s *settings.Settings, v string) error {
		if !langcode.IsWellFormed(v) {
			return fmt.Errorf("%w: %q", project.ErrInvalidLanguage, v)
		}
		s.DefaultSourceLang = langcode.Normalize(v)
		return nil
	},
	"fallback-lang": func(s *settings.Settings, v string) error {
		if v != "" && !langcode.IsWellFormed(v) {
			return fmt.Errorf("%w: %q", project.ErrInvalidLanguage, v)
		}
		s.FallbackLang = langcode.Normalize(v)
		return nil
	},
	"confirm-deletes": func(s *settings.Settings, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("confirm-deletes must be true or false")
		}
		s.ConfirmDeletes = b
		return nil
	},
}

func newSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: i18n.T("Show or change stored settings"),
	}

	show := &cobra.Command{
		Use:   "show",
		Short: i18n.T("Show stored settings"),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				st := s.state.Settings
				key := "-"
				if st.OpenAIAPIKey != "" {
					key = settings.MaskKey(st.OpenAIAPIKey)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%-16s %s\n", "theme", st.Theme)
				fmt.Fprintf(out, "%-16s %s\n", "cell-display", st.CellDisplay)
				fmt.Fprintf(out, "%-16s %s\n", "api-key", key)
				fmt.Fprintf(out, "%-16s %s\n", "model", st.OpenAIModel)
				fmt.Fprintf(out, "%-16s %s\n", "provider", st.Provider)
				fmt.Fprintf(out, "%-16s %d\n", "max-chars", st.DefaultMaxChars)
				fmt.Fprintf(out, "%-16s %s\n", "source-lang", st.DefaultSourceLang)
				fmt.Fprintf(out, "%-16s %s\n", "fallback-lang", st.FallbackLang)
				fmt.Fprintf(out, "%-16s %t\n", "confirm-deletes", st.ConfirmDeletes)
				return nil
			})
		},
	}

	set := &cobra.Command{
		Use:   "set NAME VALUE",
		Short: i18n.T("Change a stored setting"),
		Args:  cobra.ExactArgs(2),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			names := make([]string, 0, len(settingFields))
			for n := range settingFields {
				names = append(names, n)
			}
			return names, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			setter, ok := settingFields[args[0]]
			if !ok {
				return errors.New(i18n.Tf("Unknown setting %q", args[0]))
			}
			return withSession(cmd, func(ctx context.Context, s *session) error {
				if err := setter(&s.state.Settings, args[1]); err != nil {
					return err
				}
				if err := s.save(ctx); err != nil {
					return err
				}
				logSuccess(i18n.T("Saved."))
				return nil
			})
		},
	}

	cmd.AddCommand(show, set)
	return cmd
}
