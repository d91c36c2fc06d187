package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/minios-linux/langsurface/glossary"
	"github.com/minios-linux/langsurface/i18n"
	"github.com/minios-linux/langsurface/langcode"
	"github.com/minios-linux/langsurface/project"
	"github.com/minios-linux/langsurface/settings"
	"github.com/minios-linux/langsurface/translate"
)

type translateArgs struct {
	source                     string
	langs                      langList
	overwrite, refreshStale    bool
	maxChars                   int
	extraContext               string
	provider, apiKey, model    string
	baseURL, proxy, prompt     string
	timeout                    time.Duration
	maxRetries                 int
	verbose, dryRun            bool
	maxCharsSet, maxRetriesSet bool
}

func newTranslateCmd() *cobra.Command {
	var a translateArgs

	cmd := &cobra.Command{
		Use:   "translate",
		Short: i18n.T("Fill missing translations with an AI provider"),
		Long: `Translate every key from the source language into the target languages.

Keys are translated one at a time and the project is saved after each
one. Existing translations are kept unless --overwrite is given, or
--refresh-stale is given and the source text changed since the
translation was made. Glossary rules of the project and of
.langsurface.yaml are sent with each request.

Press Ctrl+C once to stop after the current key, twice to abort.

Examples:
  # Translate into every project language (OpenAI, key from settings)
  langsurface translate

  # Japanese and French only, limited to 40 characters
  langsurface translate --lang ja,fr --max-chars 40

  # Local Ollama model
  langsurface translate --provider ollama --model llama3.2

  # Show what would be translated
  langsurface translate --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.maxCharsSet = cmd.Flags().Changed("max-chars")
			a.maxRetriesSet = cmd.Flags().Changed("max-retries")
			return withSession(cmd, func(ctx context.Context, s *session) error {
				return runTranslate(ctx, cmd.OutOrStdout(), s, a)
			})
		},
	}

	// Target selection
	cmd.Flags().StringVar(&a.source, "source", "", "Source language (default from config or settings)")
	cmd.Flags().Var(&a.langs, "lang", "Target languages (comma-separated, default: all but the source)")

	// Translation behavior
	cmd.Flags().BoolVar(&a.overwrite, "overwrite", false, "Re-translate values that are already filled")
	cmd.Flags().BoolVar(&a.refreshStale, "refresh-stale", false, "Re-translate values whose source text changed")
	cmd.Flags().IntVar(&a.maxChars, "max-chars", 0, "Maximum translation length (0 = no limit)")
	cmd.Flags().StringVar(&a.extraContext, "context", "", "Extra context for the translator")
	cmd.Flags().StringVar(&a.prompt, "prompt", "", "Custom system prompt (use {{sourceLang}} and {{targetLang}})")
	cmd.Flags().BoolVar(&a.verbose, "verbose", false, "Enable detailed logging")
	cmd.Flags().BoolVar(&a.dryRun, "dry-run", false, "Show what would be translated without calling AI")

	// Provider selection
	cmd.Flags().StringVar(&a.provider, "provider", "", "AI provider: openai, google, groq, ollama, custom-openai")
	cmd.Flags().StringVar(&a.model, "model", "", "Model name (default: provider default)")
	cmd.Flags().StringVar(&a.apiKey, "api-key", "", "API key (or LANGSURFACE_API_KEY env var)")
	cmd.Flags().StringVar(&a.baseURL, "base-url", "", "Custom API base URL")

	// Network
	cmd.Flags().DurationVar(&a.timeout, "timeout", 0, "Request timeout (0 = default)")
	cmd.Flags().StringVar(&a.proxy, "proxy", "", "HTTP/HTTPS proxy URL")
	cmd.Flags().IntVar(&a.maxRetries, "max-retries", 3, "Maximum retries on rate limit (429)")

	_ = cmd.RegisterFlagCompletionFunc("provider", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		var out []string
		providers := translate.DefaultProviders()
		for _, id := range translate.ProviderIDs() {
			out = append(out, id+"\t"+providers[id].Name)
		}
		return out, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// resolveClient builds the translation client from flags, config and
// stored settings, in that order.
func resolveClient(s *session, a translateArgs) (*translate.Client, error) {
	id := firstNonEmpty(a.provider, s.cfg.Provider, s.state.Settings.Provider, translate.DefaultProvider)
	model := firstNonEmpty(a.model, s.cfg.Model)
	if model == "" && id == translate.ProviderOpenAI {
		model = s.state.Settings.OpenAIModel
	}
	key, source := settings.APIKey(a.apiKey, s.cfg.APIKey, s.state)

	prov, err := translate.LookupProvider(id, key, model, firstNonEmpty(a.baseURL, s.cfg.BaseURL))
	if err != nil {
		return nil, err
	}
	prov.Proxy = a.proxy
	if s.cfg.Timeout > 0 {
		prov.Timeout = s.cfg.Timeout
	}
	if a.timeout > 0 {
		prov.Timeout = a.timeout
	}
	if a.verbose && key != "" {
		logInfo(i18n.T("Using API key %s from %s"), settings.MaskKey(key), source)
	}

	c := translate.NewClient(prov)
	c.SystemPrompt = firstNonEmpty(a.prompt, s.cfg.Prompt)
	c.Verbose = a.verbose
	c.MaxRetries = s.cfg.MaxRetries
	if a.maxRetriesSet {
		c.MaxRetries = a.maxRetries
	}
	c.OnRetry = func(err error, wait time.Duration) {
		logWarning(i18n.T("Rate limited, retrying in %s"), wait.Round(time.Second))
	}
	return c, nil
}

func runTranslate(ctx context.Context, out io.Writer, s *session, a translateArgs) error {
	p, err := s.project()
	if err != nil {
		return err
	}

	src := s.sourceLang()
	if a.source != "" {
		if !langcode.IsWellFormed(a.source) {
			return fmt.Errorf("%w: %q", project.ErrInvalidLanguage, a.source)
		}
		src = langcode.Normalize(a.source)
	}
	maxChars := s.state.Settings.DefaultMaxChars
	if s.cfg.MaxChars > 0 {
		maxChars = s.cfg.MaxChars
	}
	if a.maxCharsSet {
		maxChars = a.maxChars
	}

	opts := translate.BulkOptions{
		SourceLang:   src,
		TargetLangs:  a.langs,
		MaxChars:     maxChars,
		ExtraContext: a.extraContext,
		Rules:        append(append([]glossary.Rule(nil), s.cfg.Rules...), p.TranslationRules...),
		Overwrite:    a.overwrite,
		RefreshStale: a.refreshStale,
		Tracker:      s.lock,
	}

	if a.dryRun {
		return showTranslatePlan(out, p, opts)
	}

	client, err := resolveClient(s, a)
	if err != nil {
		return err
	}

	// Ctrl+C once: finish the current key, then stop. Twice: abort.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	var stop atomic.Bool
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)
	go func() {
		for range sigCh {
			if stop.CompareAndSwap(false, true) {
				logWarning(i18n.T("Stopping after the current key (press Ctrl+C again to abort)..."))
				continue
			}
			logWarning(i18n.T("Aborting..."))
			cancel()
			return
		}
	}()

	opts.StopFlag = &stop
	opts.Persist = func(key, lang string) error {
		// Saved even after an abort request, so the finished key is kept.
		return s.save(context.WithoutCancel(ctx))
	}
	opts.OnProgress = func(lang string, done, total int) {
		logInfo("  %s: %d/%d", lang, done, total)
	}
	opts.OnLog = func(format string, args ...any) {
		logInfo(format, args...)
	}

	logInfo(i18n.T("Translating %q from %s with %s (%s)"), p.Name, src, client.Provider.Name, firstNonEmpty(client.Provider.Model, client.Provider.DefaultModel))
	start := time.Now()
	res, err := translate.Bulk(ctx, client, p, opts)

	switch {
	case errors.Is(err, context.Canceled):
		logWarning(i18n.T("Translation aborted, %d keys saved, %d left"), res.Translated, res.Pending)
		return nil
	case err != nil:
		var rl *translate.RateLimitedError
		if errors.As(err, &rl) && rl.RetryAfter > 0 {
			logError(i18n.T("Still rate limited; try again in %s"), rl.RetryAfter.Round(time.Second))
		}
		if errors.Is(err, translate.ErrMissingCredential) {
			logError(i18n.T("Set a key with --api-key, LANGSURFACE_API_KEY or \"langsurface settings set api-key KEY\""))
		}
		if res.Translated > 0 {
			logWarning(i18n.T("%d keys were translated and saved before the error"), res.Translated)
		}
		return err
	case res.Stopped:
		logWarning(i18n.T("Stopped, %d keys saved, %d left"), res.Translated, res.Pending)
		return nil
	}

	if res.Translated == 0 {
		logInfo(i18n.T("Nothing to translate."))
		return s.save(ctx)
	}
	logSuccess(i18n.T("Translated %d keys in %s (%d skipped)"), res.Translated, time.Since(start).Round(time.Second), res.Skipped)
	return nil
}

// showTranslatePlan logs per-language counts and writes one line per
// planned key that a glossary rule matches.
func showTranslatePlan(out io.Writer, p *project.Project, opts translate.BulkOptions) error {
	src := langcode.Normalize(opts.SourceLang)
	if !p.HasLanguage(src) {
		return fmt.Errorf("%w: source %q", project.ErrLanguageNotFound, opts.SourceLang)
	}
	targets := opts.TargetLangs
	if len(targets) == 0 {
		targets = p.Languages
	}
	for _, lang := range langcode.Unique(targets) {
		if lang == src {
			continue
		}
		if !p.HasLanguage(lang) {
			return fmt.Errorf("%w: target %q", project.ErrLanguageNotFound, lang)
		}
		keys, skipped := translate.Plan(p, lang, opts)
		rules := glossary.ForPair(opts.Rules, src, lang)
		logInfo(i18n.T("%s (%s): %d to translate, %d skipped, %d rules"), lang, langcode.Resolve(lang).Name, len(keys), skipped, len(rules))
		for _, key := range keys {
			matched := glossary.Relevant(rules, src, lang, p.Translation(key, src))
			if len(matched) == 0 {
				continue
			}
			terms := make([]string, len(matched))
			for i, r := range matched {
				terms[i] = fmt.Sprintf("%q → %q", r.From, r.To)
			}
			fmt.Fprintf(out, "%s\t%s\t%s\n", lang, key, strings.Join(terms, ", "))
		}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
