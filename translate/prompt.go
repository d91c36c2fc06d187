package translate

import (
	"fmt"
	"strings"

	"github.com/minios-linux/langsurface/glossary"
	"github.com/minios-linux/langsurface/langcode"
)

// DefaultSystemPrompt is the instruction set sent with every request.
// {{sourceLang}} and {{targetLang}} are replaced with display names.
const DefaultSystemPrompt = `You are a professional localization translator.
Translate the text from {{sourceLang}} to {{targetLang}}.
Rules:
- Keep placeholders intact (e.g. {name}, %s, %d, {{var}}, ${var}).
- Keep punctuation style natural for the target language.`

const returnOnly = "Return ONLY the translated text, no quotes, no explanations."

// LanguageLabel renders a code as "Name (code)" for prompts.
func LanguageLabel(code string) string {
	code = langcode.Normalize(code)
	name := langcode.Resolve(code).Name
	if name == "" || strings.EqualFold(name, code) {
		return code
	}
	return fmt.Sprintf("%s (%s)", name, code)
}

// BuildPrompt returns the system and user prompts for req. A non-empty
// custom prompt replaces DefaultSystemPrompt.
func BuildPrompt(custom string, req Request) (system, user string) {
	prompt := custom
	if prompt == "" {
		prompt = DefaultSystemPrompt
	}
	prompt = strings.ReplaceAll(prompt, "{{sourceLang}}", LanguageLabel(req.SourceLang))
	prompt = strings.ReplaceAll(prompt, "{{targetLang}}", LanguageLabel(req.TargetLang))

	var b strings.Builder
	b.WriteString(strings.TrimRight(prompt, "\n"))
	b.WriteString("\n")
	if req.MaxChars > 0 {
		fmt.Fprintf(&b, "- Output must be <= %d characters.\n", req.MaxChars)
	}
	if ctx := strings.TrimSpace(req.ExtraContext); ctx != "" {
		fmt.Fprintf(&b, "- Extra context: %s\n", ctx)
	}
	if rules := glossary.Instruction(req.Rules); rules != "" {
		fmt.Fprintf(&b, "- Always translate these terms as given (JSON list of from/to pairs): %s\n", rules)
	}
	b.WriteString("\n")
	b.WriteString(returnOnly)

	return b.String(), "Text:\n" + req.SourceText
}
