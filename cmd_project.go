package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/minios-linux/langsurface/i18n"
	"github.com/minios-linux/langsurface/langcode"
	"github.com/minios-linux/langsurface/lockfile"
	"github.com/minios-linux/langsurface/project"
	"github.com/minios-linux/langsurface/settings"
)

// ---------------------------------------------------------------------------
// status (read-only)
// ---------------------------------------------------------------------------

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: i18n.T("Show the current project and translation progress"),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				p, err := s.project()
				if err != nil {
					return err
				}
				showStatus(s, p)
				return nil
			})
		},
	}
}

func showStatus(s *session, p *project.Project) {
	fmt.Fprintf(os.Stderr, "%s%s%s  %s(%s)%s\n", colorBlue, p.Name, colorReset, colorGray, p.ID, colorReset)
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
	fmt.Fprintf(os.Stderr, "  %-14s %s\n", i18n.T("Keys:"), i18n.Nf("%d key", "%d keys", len(p.Entries), len(p.Entries)))
	fmt.Fprintf(os.Stderr, "  %-14s %s\n", i18n.T("Languages:"), strings.Join(p.Languages, ", "))
	fmt.Fprintf(os.Stderr, "  %-14s %d\n", i18n.T("Rules:"), len(p.TranslationRules)+len(s.cfg.Rules))
	fmt.Fprintf(os.Stderr, "  %-14s %s\n", i18n.T("Updated:"), time.UnixMilli(p.Meta.UpdatedAt).Format("2006-01-02 15:04"))
	if s.cfg.Path() != "" {
		fmt.Fprintf(os.Stderr, "  %-14s %s\n", i18n.T("Config:"), s.cfg.Path())
	}
	fmt.Fprintf(os.Stderr, "  %-14s %s (%s)\n", i18n.T("Storage:"), s.dir, s.cfg.Storage)

	if len(p.Entries) == 0 {
		fmt.Fprintln(os.Stderr)
		logInfo(i18n.T("No keys yet. Import a file or add keys with \"langsurface key add\"."))
		return
	}

	width := langColumnWidth(p.Languages)
	fmt.Fprintf(os.Stderr, "\n%sTranslation Statistics%s\n", colorBlue, colorReset)
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
	for _, st := range p.Stats() {
		stale := len(s.lock.StaleKeys(lockfile.Target(p.ID, st.Lang), sourceTexts(p, s.sourceLang())))
		line := fmt.Sprintf("  %s  %s  %d/%d", langCell(st.Lang, width), progressBar(st.Percent(), 20), st.Translated, st.Total)
		if stale > 0 {
			line += fmt.Sprintf("  %s%s%s", colorYellow, i18n.Nf("%d stale", "%d stale", stale, stale), colorReset)
		}
		fmt.Fprintf(os.Stderr, "%s  %s%s%s\n", line, colorGray, langcode.Resolve(st.Lang).Name, colorReset)
	}
	fmt.Fprintln(os.Stderr)
}

// sourceLang returns the configured source language, else the stored
// default, else "en".
func (s *session) sourceLang() string {
	switch {
	case s.cfg.SourceLang != "":
		return s.cfg.SourceLang
	case s.state.Settings.DefaultSourceLang != "":
		return langcode.Normalize(s.state.Settings.DefaultSourceLang)
	}
	return "en"
}

// sourceTexts maps each key of p to its text in lang.
func sourceTexts(p *project.Project, lang string) map[string]string {
	out := make(map[string]string, len(p.Entries))
	for key := range p.Entries {
		if v := p.Translation(key, lang); v != "" {
			out[key] = v
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// project
// ---------------------------------------------------------------------------

func newProjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: i18n.T("List, create, rename, duplicate, delete and select projects"),
	}
	cmd.AddCommand(
		newProjectListCmd(),
		newProjectCreateCmd(),
		newProjectRenameCmd(),
		newProjectDuplicateCmd(),
		newProjectDeleteCmd(),
		newProjectUseCmd(),
	)
	return cmd
}

func newProjectListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   i18n.T("List projects"),
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				out := cmd.OutOrStdout()
				for _, p := range s.state.SortedProjects() {
					mark := " "
					if p.ID == s.state.UI.SelectedProjectID {
						mark = "*"
					}
					fmt.Fprintf(out, "%s %-36s %-24s %6d  %s\n", mark, p.ID, p.Name, len(p.Entries), strings.Join(p.Languages, ","))
				}
				return nil
			})
		},
	}
}

func newProjectCreateCmd() *cobra.Command {
	langs := langList{}
	cmd := &cobra.Command{
		Use:   "create [NAME]",
		Short: i18n.T("Create an empty project and select it"),
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				name := "New Project"
				if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
					name = args[0]
				}
				if len(langs) == 0 {
					langs = langList{s.sourceLang()}
				}
				p := project.New(name, langs, nil)
				s.state.AddProject(p)
				if err := s.save(ctx); err != nil {
					return err
				}
				logSuccess(i18n.T("Created project %q (%s)"), p.Name, p.ID)
				return nil
			})
		},
	}
	cmd.Flags().Var(&langs, "lang", "Languages (comma-separated, default: source language)")
	return cmd
}

func newProjectRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename NAME",
		Short: i18n.T("Rename the project"),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				p, err := s.project()
				if err != nil {
					return err
				}
				if strings.TrimSpace(args[0]) == "" {
					return fmt.Errorf("project name is empty")
				}
				p.Rename(args[0])
				if err := s.save(ctx); err != nil {
					return err
				}
				logSuccess(i18n.T("Renamed project to %q"), p.Name)
				return nil
			})
		},
	}
}

func newProjectDuplicateCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "duplicate",
		Short: i18n.T("Copy the project and select the copy"),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				p, err := s.project()
				if err != nil {
					return err
				}
				c := p.Duplicate()
				if name != "" {
					c.Name = strings.TrimSpace(name)
				}
				s.state.AddProject(c)
				if err := s.save(ctx); err != nil {
					return err
				}
				logSuccess(i18n.T("Duplicated project as %q (%s)"), c.Name, c.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Name of the copy (default: \"<name> (copy)\")")
	return cmd
}

func newProjectDeleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete",
		Short: i18n.T("Delete the project"),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				p, err := s.project()
				if err != nil {
					return err
				}
				if !confirm(s, cmd.InOrStdin(), yes, i18n.Tf("Delete project %q? This cannot be undone.", p.Name)) {
					logInfo(i18n.T("Cancelled."))
					return nil
				}
				if err := s.state.DeleteProject(p.ID); err != nil {
					return err
				}
				s.lock.RemoveProject(p.ID)
				if err := s.save(ctx); err != nil {
					return err
				}
				logSuccess(i18n.T("Deleted project %q"), p.Name)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func newProjectUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "use REF",
		Short:             i18n.T("Select a project by id or name"),
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeProjects,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				p, err := s.state.Project(args[0])
				if err != nil {
					return err
				}
				if err := s.state.Select(p.ID); err != nil {
					return err
				}
				if err := s.save(ctx); err != nil {
					return err
				}
				logSuccess(i18n.T("Selected project %q"), p.Name)
				return nil
			})
		},
	}
}

// ---------------------------------------------------------------------------
// reset
// ---------------------------------------------------------------------------

func newResetCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: i18n.T("Wipe all projects and settings"),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				if !confirm(s, cmd.InOrStdin(), yes, i18n.T("Reset langsurface? This wipes all stored projects and settings.")) {
					logInfo(i18n.T("Cancelled."))
					return nil
				}
				s.state = settings.Seed()
				for _, t := range s.lock.Targets() {
					s.lock.RemoveTarget(t)
				}
				if err := s.save(ctx); err != nil {
					return err
				}
				logSuccess(i18n.T("State reset."))
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}
