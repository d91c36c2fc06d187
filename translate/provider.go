package translate

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// Provider IDs
// ---------------------------------------------------------------------------

const (
	ProviderOpenAI       = "openai"
	ProviderGoogle       = "google"
	ProviderGroq         = "groq"
	ProviderCustomOpenAI = "custom-openai"
	ProviderOllama       = "ollama"
)

// DefaultProvider is used when no provider is configured.
const DefaultProvider = ProviderOpenAI

// ---------------------------------------------------------------------------
// Provider configuration
// ---------------------------------------------------------------------------

// Provider holds the configuration for an AI translation service.
type Provider struct {
	// ID is the provider identifier (openai, google, groq, etc.).
	ID string
	// Name is the display name.
	Name string
	// BaseURL is the API base URL.
	BaseURL string
	// APIKey is the authentication key (empty for local services).
	APIKey string
	// Model is the model identifier.
	Model string
	// DefaultModel is used when Model is empty.
	DefaultModel string
	// Proxy is an optional HTTP/HTTPS proxy URL.
	Proxy string
	// Timeout is the request timeout.
	Timeout time.Duration
	// NeedsKey reports whether requests fail without an API key.
	NeedsKey bool

	format apiFormat
}

// DefaultProviders returns the pre-configured provider definitions.
func DefaultProviders() map[string]Provider {
	return map[string]Provider{
		ProviderOpenAI: {
			ID:           ProviderOpenAI,
			Name:         "OpenAI",
			BaseURL:      "https://api.openai.com/v1",
			DefaultModel: "gpt-4.1-mini",
			Timeout:      60 * time.Second,
			NeedsKey:     true,
			format:       formatOpenAIResponses,
		},
		ProviderGoogle: {
			ID:           ProviderGoogle,
			Name:         "Google AI (Gemini)",
			BaseURL:      "https://generativelanguage.googleapis.com",
			DefaultModel: "gemini-2.5-flash",
			Timeout:      120 * time.Second,
			NeedsKey:     true,
			format:       formatGeminiNative,
		},
		ProviderGroq: {
			ID:       ProviderGroq,
			Name:     "Groq",
			BaseURL:  "https://api.groq.com/openai/v1",
			Timeout:  60 * time.Second,
			NeedsKey: true,
			format:   formatOpenAIChat,
		},
		ProviderCustomOpenAI: {
			ID:      ProviderCustomOpenAI,
			Name:    "Custom OpenAI",
			Timeout: 60 * time.Second,
			format:  formatOpenAIChat,
		},
		ProviderOllama: {
			ID:      ProviderOllama,
			Name:    "Ollama",
			BaseURL: "http://localhost:11434/v1",
			Timeout: 120 * time.Second,
			format:  formatOpenAIChat,
		},
	}
}

// LookupProvider returns the definition of id with the given overrides
// applied. Empty overrides keep the defaults.
func LookupProvider(id, apiKey, model, baseURL string) (Provider, error) {
	if id == "" {
		id = DefaultProvider
	}
	prov, ok := DefaultProviders()[id]
	if !ok {
		return Provider{}, fmt.Errorf("unknown provider %q (available: %s)", id, strings.Join(ProviderIDs(), ", "))
	}
	prov.APIKey = strings.TrimSpace(apiKey)
	if model != "" {
		prov.Model = model
	}
	if baseURL != "" {
		prov.BaseURL = baseURL
	}
	if prov.BaseURL == "" {
		return Provider{}, fmt.Errorf("provider %s needs a base URL", id)
	}
	return prov, nil
}

// ProviderIDs returns the known provider IDs in display order.
func ProviderIDs() []string {
	return []string{ProviderOpenAI, ProviderGoogle, ProviderGroq, ProviderOllama, ProviderCustomOpenAI}
}

func (p Provider) model() string {
	if p.Model != "" {
		return p.Model
	}
	return p.DefaultModel
}

// ---------------------------------------------------------------------------
// HTTP client with real proxy support
// ---------------------------------------------------------------------------

func makeHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if proxyURL != "" {
		parsed, err := url.Parse(proxyURL)
		if err == nil {
			transport.Proxy = http.ProxyURL(parsed)
		}
	} else {
		transport.Proxy = http.ProxyFromEnvironment
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// ---------------------------------------------------------------------------
// API format types
// ---------------------------------------------------------------------------

type apiFormat int

const (
	formatOpenAIChat      apiFormat = iota // OpenAI chat/completions
	formatGeminiNative                     // Google Gemini generateContent
	formatOpenAIResponses                  // OpenAI responses API
)

// ---------------------------------------------------------------------------
// Request builders for each API format
// ---------------------------------------------------------------------------

func buildOpenAIChatRequest(model, systemPrompt, userPrompt string, temperature float64) ([]byte, error) {
	type msg struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	req := struct {
		Model       string  `json:"model"`
		Messages    []msg   `json:"messages"`
		Temperature float64 `json:"temperature"`
		Stream      bool    `json:"stream"`
	}{
		Model: model,
		Messages: []msg{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: temperature,
	}
	return json.Marshal(req)
}

func buildGeminiRequest(systemPrompt, userPrompt string, temperature float64) ([]byte, error) {
	type part struct {
		Text string `json:"text"`
	}
	type content struct {
		Role  string `json:"role,omitempty"`
		Parts []part `json:"parts"`
	}
	type genConfig struct {
		Temperature float64 `json:"temperature"`
	}
	req := struct {
		Contents          []content `json:"contents"`
		GenerationConfig  genConfig `json:"generationConfig"`
		SystemInstruction *content  `json:"systemInstruction,omitempty"`
	}{
		Contents: []content{
			{Role: "user", Parts: []part{{Text: userPrompt}}},
		},
		GenerationConfig: genConfig{Temperature: temperature},
	}
	if systemPrompt != "" {
		req.SystemInstruction = &content{Parts: []part{{Text: systemPrompt}}}
	}
	return json.Marshal(req)
}

func buildOpenAIResponsesRequest(model, prompt string, temperature float64) ([]byte, error) {
	req := struct {
		Model       string  `json:"model"`
		Input       string  `json:"input"`
		Temperature float64 `json:"temperature"`
	}{
		Model:       model,
		Input:       prompt,
		Temperature: temperature,
	}
	return json.Marshal(req)
}

// buildHTTPRequest constructs the endpoint, headers, and body for a provider.
func buildHTTPRequest(prov Provider, systemPrompt, userPrompt string, temperature float64) (string, map[string]string, []byte, error) {
	headers := map[string]string{
		"Content-Type": "application/json",
	}
	base := strings.TrimRight(prov.BaseURL, "/")

	var endpoint string
	var body []byte
	var err error

	switch prov.format {
	case formatGeminiNative:
		// POST /v1beta/models/{model}:generateContent
		endpoint = fmt.Sprintf("%s/v1beta/models/%s:generateContent", base, prov.model())
		if prov.APIKey != "" {
			headers["x-goog-api-key"] = prov.APIKey
		}
		body, err = buildGeminiRequest(systemPrompt, userPrompt, temperature)

	case formatOpenAIResponses:
		endpoint = base + "/responses"
		if prov.APIKey != "" {
			headers["Authorization"] = "Bearer " + prov.APIKey
		}
		body, err = buildOpenAIResponsesRequest(prov.model(), systemPrompt+"\n\n"+userPrompt, temperature)

	default: // formatOpenAIChat
		if strings.HasSuffix(base, "/chat/completions") {
			endpoint = base
		} else {
			endpoint = base + "/chat/completions"
		}
		if prov.APIKey != "" {
			headers["Authorization"] = "Bearer " + prov.APIKey
		}
		body, err = buildOpenAIChatRequest(prov.model(), systemPrompt, userPrompt, temperature)
	}

	if err != nil {
		return "", nil, nil, err
	}
	return endpoint, headers, body, nil
}

// ---------------------------------------------------------------------------
// Response parsers (multi-format)
// ---------------------------------------------------------------------------

// extractResponseText tries all known response formats and returns the text.
func extractResponseText(body []byte) (string, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", fmt.Errorf("invalid JSON response: %w", err)
	}

	if errObj, ok := raw["error"]; ok && errObj != nil {
		if errMap, ok := errObj.(map[string]any); ok {
			if msg, ok := errMap["message"].(string); ok {
				return "", fmt.Errorf("API error: %s", msg)
			}
		}
		return "", fmt.Errorf("API error: %v", errObj)
	}

	// 1. OpenAI chat format: choices[0].message.content
	if choices, ok := raw["choices"].([]any); ok && len(choices) > 0 {
		if choice, ok := choices[0].(map[string]any); ok {
			if message, ok := choice["message"].(map[string]any); ok {
				if content, ok := message["content"].(string); ok {
					return content, nil
				}
			}
		}
	}

	// 2. Gemini format: candidates[0].content.parts[].text
	if candidates, ok := raw["candidates"].([]any); ok && len(candidates) > 0 {
		if candidate, ok := candidates[0].(map[string]any); ok {
			if content, ok := candidate["content"].(map[string]any); ok {
				if parts, ok := content["parts"].([]any); ok {
					var sb strings.Builder
					for _, p := range parts {
						if part, ok := p.(map[string]any); ok {
							if text, ok := part["text"].(string); ok {
								sb.WriteString(text)
							}
						}
					}
					if sb.Len() > 0 {
						return sb.String(), nil
					}
				}
			}
		}
	}

	// 3. OpenAI responses format: output[] items of type "message" holding
	// "output_text" blocks, or bare "output_text" items.
	if output, ok := raw["output"].([]any); ok {
		var sb strings.Builder
		for _, o := range output {
			item, ok := o.(map[string]any)
			if !ok {
				continue
			}
			switch item["type"] {
			case "message":
				if contentArr, ok := item["content"].([]any); ok {
					for _, c := range contentArr {
						if block, ok := c.(map[string]any); ok && block["type"] == "output_text" {
							if text, ok := block["text"].(string); ok {
								sb.WriteString(text)
							}
						}
					}
				}
			case "output_text":
				if text, ok := item["text"].(string); ok {
					sb.WriteString(text)
				}
			}
		}
		if sb.Len() > 0 {
			return sb.String(), nil
		}
	}

	// 4. Convenience field some gateways add.
	if text, ok := raw["output_text"].(string); ok {
		return text, nil
	}

	return "", fmt.Errorf("could not extract text from response: %s", truncate(string(body), 500))
}

// truncate truncates a string to maxLen bytes.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
