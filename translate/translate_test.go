// Package translate contains tests for the translation client and the
// bulk runner.
package translate

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/minios-linux/langsurface/glossary"
	"github.com/minios-linux/langsurface/lockfile"
	"github.com/minios-linux/langsurface/project"
)

// ---------------------------------------------------------------------------
// extractResponseText
// ---------------------------------------------------------------------------

func TestExtractResponseText(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{"chat", `{"choices":[{"message":{"content":"Bonjour"}}]}`, "Bonjour", false},
		{"gemini", `{"candidates":[{"content":{"parts":[{"text":"Hal"},{"text":"lo"}]}}]}`, "Hallo", false},
		{"responses", `{"output":[{"type":"reasoning"},{"type":"message","content":[{"type":"output_text","text":"やあ"}]}]}`, "やあ", false},
		{"responses bare item", `{"output":[{"type":"output_text","text":"Hola"}]}`, "Hola", false},
		{"api error", `{"error":{"message":"bad key"}}`, "", true},
		{"unknown shape", `{"foo":1}`, "", true},
		{"not json", `<html>`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractResponseText([]byte(tt.body))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// buildHTTPRequest
// ---------------------------------------------------------------------------

func TestBuildHTTPRequest(t *testing.T) {
	tests := []struct {
		provider   string
		wantURL    string
		wantHeader string
		wantValue  string
	}{
		{ProviderOpenAI, "https://api.openai.com/v1/responses", "Authorization", "Bearer k"},
		{ProviderGoogle, "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.5-flash:generateContent", "x-goog-api-key", "k"},
		{ProviderGroq, "https://api.groq.com/openai/v1/chat/completions", "Authorization", "Bearer k"},
		{ProviderOllama, "http://localhost:11434/v1/chat/completions", "Authorization", "Bearer k"},
	}
	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			prov, err := LookupProvider(tt.provider, "k", "", "")
			if err != nil {
				t.Fatal(err)
			}
			if prov.Model == "" && prov.DefaultModel == "" {
				prov.Model = "m"
			}
			endpoint, headers, body, err := buildHTTPRequest(prov, "sys", "user", 0.2)
			if err != nil {
				t.Fatal(err)
			}
			if endpoint != tt.wantURL {
				t.Errorf("endpoint = %s, want %s", endpoint, tt.wantURL)
			}
			if headers[tt.wantHeader] != tt.wantValue {
				t.Errorf("%s = %q, want %q", tt.wantHeader, headers[tt.wantHeader], tt.wantValue)
			}
			if !json.Valid(body) {
				t.Errorf("body is not JSON: %s", body)
			}
		})
	}
}

func TestLookupProvider(t *testing.T) {
	if _, err := LookupProvider("nope", "", "", ""); err == nil {
		t.Fatal("unknown provider accepted")
	}
	if _, err := LookupProvider(ProviderCustomOpenAI, "", "m", ""); err == nil {
		t.Fatal("custom-openai without base URL accepted")
	}
	prov, err := LookupProvider("", "", "", "")
	if err != nil || prov.ID != ProviderOpenAI {
		t.Fatalf("default provider = %q, %v", prov.ID, err)
	}
}

// ---------------------------------------------------------------------------
// Client
// ---------------------------------------------------------------------------

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	prov, err := LookupProvider(ProviderOpenAI, "test-key", "", srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	c := NewClient(prov)
	c.HTTPClient = srv.Client()
	c.NewBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	return c
}

func TestClientTranslate(t *testing.T) {
	var got struct {
		Model string `json:"model"`
		Input string `json:"input"`
	}
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/responses" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("request body: %v", err)
		}
		io.WriteString(w, `{"output":[{"type":"message","content":[{"type":"output_text","text":"  体力を回復  "}]}]}`)
	})

	out, err := c.Translate(context.Background(), Request{
		SourceText: "Restore HP",
		SourceLang: "en",
		TargetLang: "ja",
		MaxChars:   12,
		Rules:      []glossary.Rule{{SourceLang: "en", TargetLang: "ja", From: "HP", To: "体力"}},
	})
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if out != "体力を回復" {
		t.Fatalf("out = %q", out)
	}
	if got.Model != "gpt-4.1-mini" {
		t.Errorf("model = %q", got.Model)
	}
	for _, want := range []string{"Restore HP", "<= 12 characters", `{"from":"HP","to":"体力"}`, "(ja)"} {
		if !strings.Contains(got.Input, want) {
			t.Errorf("prompt missing %q:\n%s", want, got.Input)
		}
	}
}

func TestClientTranslate_MissingCredential(t *testing.T) {
	prov, err := LookupProvider(ProviderGroq, "", "llama", "")
	if err != nil {
		t.Fatal(err)
	}
	_, err = NewClient(prov).Translate(context.Background(), Request{SourceText: "x", SourceLang: "en", TargetLang: "ja"})
	if !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("err = %v, want ErrMissingCredential", err)
	}
}

func TestClientTranslate_RetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		io.WriteString(w, `{"output_text":"ok"}`)
	})
	var retries int
	c.OnRetry = func(error, time.Duration) { retries++ }

	out, err := c.Translate(context.Background(), Request{SourceText: "x", SourceLang: "en", TargetLang: "ja"})
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if out != "ok" || calls.Load() != 3 || retries != 2 {
		t.Fatalf("out = %q, calls = %d, retries = %d", out, calls.Load(), retries)
	}
}

func TestClientTranslate_RateLimitExhausted(t *testing.T) {
	var calls atomic.Int32
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, `{"error":{"message":"slow down"}}`)
	})
	c.MaxRetries = 2

	_, err := c.Translate(context.Background(), Request{SourceText: "x", SourceLang: "en", TargetLang: "ja"})
	var rl *RateLimitedError
	if !errors.As(err, &rl) {
		t.Fatalf("err = %v, want *RateLimitedError", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("calls = %d, want 3", calls.Load())
	}
}

func TestClientTranslate_OtherErrorsAreNotRetried(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `oops`},
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"bad key"}}`},
		{"empty output", http.StatusOK, `{"output_text":"   "}`},
		{"garbage", http.StatusOK, `not json`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})
			_, err := c.Translate(context.Background(), Request{SourceText: "x", SourceLang: "en", TargetLang: "ja"})
			if !errors.Is(err, ErrTransport) {
				t.Fatalf("err = %v, want ErrTransport", err)
			}
			if calls.Load() != 1 {
				t.Fatalf("calls = %d, want 1", calls.Load())
			}
		})
	}
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	h := http.Header{}
	h.Set("Retry-After", "7")
	if got := parseRetryAfter(h, nil, now); got != 7*time.Second {
		t.Errorf("seconds header = %v", got)
	}

	h.Set("Retry-After", now.Add(30*time.Second).Format(http.TimeFormat))
	if got := parseRetryAfter(h, nil, now); got != 30*time.Second {
		t.Errorf("date header = %v", got)
	}

	body := []byte(`{"error":{"details":[{"@type":"type.googleapis.com/google.rpc.RetryInfo","retryDelay":"1.5s"}]}}`)
	if got := parseRetryAfter(http.Header{}, body, now); got != 1500*time.Millisecond {
		t.Errorf("RetryInfo = %v", got)
	}
	if got := parseRetryAfter(http.Header{}, []byte(`{}`), now); got != 0 {
		t.Errorf("nothing = %v", got)
	}
}

// ---------------------------------------------------------------------------
// Bulk
// ---------------------------------------------------------------------------

type fakeTranslator struct {
	calls  []Request
	failAt int
	err    error
}

func (f *fakeTranslator) Translate(_ context.Context, req Request) (string, error) {
	f.calls = append(f.calls, req)
	if f.failAt > 0 && len(f.calls) == f.failAt {
		return "", f.err
	}
	return "[" + req.TargetLang + "] " + req.SourceText, nil
}

type fakeTracker map[string]string

func (f fakeTracker) IsStale(target, key, source string) bool {
	old, ok := f[target+"|"+key]
	return ok && old != source
}

func (f fakeTracker) Update(target, key, source string) {
	f[target+"|"+key] = source
}

func bulkProject() *project.Project {
	return project.New("Game", []string{"en", "ja", "fr"}, map[string]map[string]string{
		"a": {"en": "A"},
		"b": {"en": "B", "ja": "ビー"},
		"c": {"en": "C"},
		"d": {"ja": "only ja"},
	})
}

func TestBulk(t *testing.T) {
	p := bulkProject()
	tr := &fakeTranslator{}
	var persisted []string
	rules := []glossary.Rule{
		{SourceLang: "en", TargetLang: "ja", From: "A", To: "エー"},
		{SourceLang: "en", TargetLang: "fr", From: "A", To: "Ah"},
	}

	res, err := Bulk(context.Background(), tr, p, BulkOptions{
		SourceLang:  "en",
		TargetLangs: []string{"ja"},
		Rules:       rules,
		Persist: func(key, lang string) error {
			persisted = append(persisted, key+"/"+lang)
			return nil
		},
	})
	if err != nil {
		t.Fatalf("Bulk: %v", err)
	}
	if res.Translated != 2 || res.Skipped != 2 || res.Stopped {
		t.Fatalf("result = %+v", res)
	}
	if strings.Join(persisted, ",") != "a/ja,c/ja" {
		t.Fatalf("persisted = %v", persisted)
	}
	if p.Translation("a", "ja") != "[ja] A" || p.Translation("b", "ja") != "ビー" {
		t.Fatalf("entries = %v", p.Entries)
	}
	for _, call := range tr.calls {
		if len(call.Rules) != 1 || call.Rules[0].To != "エー" {
			t.Fatalf("rules for en→ja = %v", call.Rules)
		}
	}
}

func TestBulk_Overwrite(t *testing.T) {
	p := bulkProject()
	tr := &fakeTranslator{}
	res, err := Bulk(context.Background(), tr, p, BulkOptions{SourceLang: "en", TargetLangs: []string{"ja"}, Overwrite: true})
	if err != nil {
		t.Fatal(err)
	}
	if res.Translated != 3 || p.Translation("b", "ja") != "[ja] B" {
		t.Fatalf("result = %+v, b = %q", res, p.Translation("b", "ja"))
	}
}

func TestBulk_AllTargets(t *testing.T) {
	p := bulkProject()
	tr := &fakeTranslator{}
	res, err := Bulk(context.Background(), tr, p, BulkOptions{SourceLang: "en"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Translated != 5 {
		t.Fatalf("Translated = %d, want 5", res.Translated)
	}
	if tr.calls[0].TargetLang != "ja" || tr.calls[len(tr.calls)-1].TargetLang != "fr" {
		t.Fatalf("unexpected order: %v", tr.calls)
	}
}

func TestBulk_RefreshStale(t *testing.T) {
	p := bulkProject()
	tracker := fakeTracker{}
	tracker.Update(lockfile.Target(p.ID, "ja"), "b", "old B")

	tr := &fakeTranslator{}
	res, err := Bulk(context.Background(), tr, p, BulkOptions{
		SourceLang:   "en",
		TargetLangs:  []string{"ja"},
		RefreshStale: true,
		Tracker:      tracker,
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Translated != 3 || p.Translation("b", "ja") != "[ja] B" {
		t.Fatalf("result = %+v, b = %q", res, p.Translation("b", "ja"))
	}
	if tracker[lockfile.Target(p.ID, "ja")+"|b"] != "B" {
		t.Fatalf("tracker not updated: %v", tracker)
	}
}

func TestBulk_StopFlag(t *testing.T) {
	p := bulkProject()
	tr := &fakeTranslator{}
	var stop atomic.Bool
	res, err := Bulk(context.Background(), tr, p, BulkOptions{
		SourceLang:  "en",
		TargetLangs: []string{"ja", "fr"},
		StopFlag:    &stop,
		Persist: func(key, lang string) error {
			stop.Store(true)
			return nil
		},
	})
	if err != nil {
		t.Fatalf("Bulk: %v", err)
	}
	if !res.Stopped || res.Translated != 1 || res.Pending != 4 || len(tr.calls) != 1 {
		t.Fatalf("result = %+v, calls = %d", res, len(tr.calls))
	}
	if p.Translation("a", "ja") == "" {
		t.Fatal("finished translation lost")
	}
}

func TestBulk_ErrorKeepsProgress(t *testing.T) {
	p := bulkProject()
	tr := &fakeTranslator{failAt: 2, err: &RateLimitedError{RetryAfter: time.Second}}
	res, err := Bulk(context.Background(), tr, p, BulkOptions{SourceLang: "en", TargetLangs: []string{"ja"}})
	var rl *RateLimitedError
	if !errors.As(err, &rl) {
		t.Fatalf("err = %v, want *RateLimitedError", err)
	}
	if res.Translated != 1 || res.Pending != 1 {
		t.Fatalf("result = %+v", res)
	}
	if p.Translation("a", "ja") != "[ja] A" || p.Translation("c", "ja") != "" {
		t.Fatalf("entries = %v", p.Entries)
	}
}

func TestBulk_UnknownLanguages(t *testing.T) {
	p := bulkProject()
	if _, err := Bulk(context.Background(), &fakeTranslator{}, p, BulkOptions{SourceLang: "ko"}); !errors.Is(err, project.ErrLanguageNotFound) {
		t.Fatalf("source: err = %v", err)
	}
	if _, err := Bulk(context.Background(), &fakeTranslator{}, p, BulkOptions{SourceLang: "en", TargetLangs: []string{"ko"}}); !errors.Is(err, project.ErrLanguageNotFound) {
		t.Fatalf("target: err = %v", err)
	}
}

func TestBuildPrompt(t *testing.T) {
	system, user := BuildPrompt("", Request{SourceText: "Hi", SourceLang: "en", TargetLang: "ja", ExtraContext: "game menu"})
	if !strings.Contains(system, "from English (en) to 日本語 (ja)") {
		t.Errorf("system prompt languages:\n%s", system)
	}
	if !strings.Contains(system, "- Extra context: game menu") || strings.Contains(system, "characters") {
		t.Errorf("system prompt options:\n%s", system)
	}
	if !strings.HasSuffix(system, returnOnly) {
		t.Errorf("system prompt ending:\n%s", system)
	}
	if user != "Text:\nHi" {
		t.Errorf("user = %q", user)
	}

	custom, _ := BuildPrompt("Translate into {{targetLang}}.", Request{TargetLang: "fr"})
	if !strings.HasPrefix(custom, "Translate into Français (fr).") {
		t.Errorf("custom prompt = %q", custom)
	}
}
