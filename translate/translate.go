// Package translate fills project translations through AI providers:
// OpenAI (Responses API), Google AI (Gemini), Groq, Ollama and any
// OpenAI-compatible endpoint.
//
// Bulk runs strictly one key at a time. Each success is persisted before
// the next request starts, so an error or a stop request leaves every
// finished translation in place.
package translate

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/minios-linux/langsurface/glossary"
	"github.com/minios-linux/langsurface/langcode"
	"github.com/minios-linux/langsurface/lockfile"
	"github.com/minios-linux/langsurface/project"
)

// Tracker remembers which source text each translation was made from.
type Tracker interface {
	// IsStale reports whether a recorded source differs from source.
	IsStale(target, key, source string) bool
	// Update records source as the origin of a translation.
	Update(target, key, source string)
}

// BulkOptions controls Bulk.
type BulkOptions struct {
	// SourceLang is the language translated from.
	SourceLang string
	// TargetLangs are translated in order. Empty means every project
	// language except SourceLang.
	TargetLangs []string
	// MaxChars limits output length; 0 means no limit.
	MaxChars int
	// ExtraContext is appended to the prompt.
	ExtraContext string
	// Rules are filtered per language pair before each request.
	Rules []glossary.Rule
	// Overwrite re-translates values that are already filled.
	Overwrite bool
	// RefreshStale re-translates filled values whose source changed since
	// they were produced. Needs Tracker.
	RefreshStale bool
	// Tracker records the source of every new translation. Optional.
	Tracker Tracker
	// StopFlag is checked before each key; once set, Bulk returns.
	StopFlag *atomic.Bool
	// Persist is called after every successful translation.
	Persist func(key, lang string) error
	// OnProgress is called after each key is translated.
	OnProgress func(lang string, done, total int)
	// OnLog emits log messages.
	OnLog func(format string, args ...any)
}

func (o *BulkOptions) log(format string, args ...any) {
	if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

func (o *BulkOptions) stopped() bool {
	return o.StopFlag != nil && o.StopFlag.Load()
}

// BulkResult reports how far Bulk got.
type BulkResult struct {
	Translated int
	Skipped    int
	// Stopped is set when the stop flag or context ended the run early.
	Stopped bool
	// Pending counts keys that were due but not reached.
	Pending int
}

type bulkItem struct {
	key, lang, source string
}

// Plan returns the keys Bulk would translate for lang, in key order, and
// how many keys were skipped.
func Plan(p *project.Project, lang string, opts BulkOptions) (keys []string, skipped int) {
	src := langcode.Normalize(opts.SourceLang)
	target := lockfile.Target(p.ID, lang)
	for _, key := range p.Keys() {
		source := p.Translation(key, src)
		if source == "" {
			skipped++
			continue
		}
		if existing := p.Translation(key, lang); existing != "" && !opts.Overwrite {
			if !opts.RefreshStale || opts.Tracker == nil || !opts.Tracker.IsStale(target, key, source) {
				skipped++
				continue
			}
		}
		keys = append(keys, key)
	}
	return keys, skipped
}

// Bulk translates p from opts.SourceLang into each target language, one key
// at a time. On error it returns the progress made so far.
func Bulk(ctx context.Context, tr Translator, p *project.Project, opts BulkOptions) (BulkResult, error) {
	var res BulkResult

	src := langcode.Normalize(opts.SourceLang)
	if !p.HasLanguage(src) {
		return res, fmt.Errorf("%w: source %q", project.ErrLanguageNotFound, opts.SourceLang)
	}
	targets := opts.TargetLangs
	if len(targets) == 0 {
		targets = p.Languages
	}

	var queue []bulkItem
	totals := make(map[string]int)
	for _, t := range langcode.Unique(targets) {
		if t == src {
			continue
		}
		if !p.HasLanguage(t) {
			return res, fmt.Errorf("%w: target %q", project.ErrLanguageNotFound, t)
		}
		keys, skipped := Plan(p, t, opts)
		res.Skipped += skipped
		totals[t] = len(keys)
		for _, k := range keys {
			queue = append(queue, bulkItem{key: k, lang: t, source: p.Translation(k, src)})
		}
	}

	done := make(map[string]int)
	for i, item := range queue {
		if opts.stopped() || ctx.Err() != nil {
			res.Stopped = true
			res.Pending = len(queue) - i
			opts.log("Stopped with %d keys left", res.Pending)
			return res, ctx.Err()
		}

		rules := glossary.ForPair(opts.Rules, src, item.lang)
		out, err := tr.Translate(ctx, Request{
			SourceText:   item.source,
			SourceLang:   src,
			TargetLang:   item.lang,
			MaxChars:     opts.MaxChars,
			Rules:        rules,
			ExtraContext: opts.ExtraContext,
		})
		if err != nil {
			res.Pending = len(queue) - i
			return res, fmt.Errorf("translating %q to %s: %w", item.key, item.lang, err)
		}

		if err := p.SetTranslation(item.key, item.lang, out); err != nil {
			res.Pending = len(queue) - i
			return res, err
		}
		if opts.Tracker != nil {
			opts.Tracker.Update(lockfile.Target(p.ID, item.lang), item.key, item.source)
		}
		if opts.Persist != nil {
			if err := opts.Persist(item.key, item.lang); err != nil {
				res.Pending = len(queue) - i - 1
				res.Translated++
				return res, fmt.Errorf("saving %q: %w", item.key, err)
			}
		}
		res.Translated++
		done[item.lang]++
		if opts.OnProgress != nil {
			opts.OnProgress(item.lang, done[item.lang], totals[item.lang])
		}
	}
	return res, nil
}
