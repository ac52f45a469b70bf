package translate

import (
	"fmt"

	"github.com/linguafluent/linguafluent/internal/lang"
)

// Directive is the system instruction sent with every translation request.
// Engines that honor it return the translation text alone, which the caller
// records verbatim.
const Directive = "You are a professional translator. Provide only the translation, no additional text, no explanations, no quotation marks."

// Prompt renders the user-facing translation instruction for req. Language
// codes are expanded to display names so the engine is never asked to guess
// what "zh" means.
func Prompt(req Request) string {
	return fmt.Sprintf("Translate %q from %s to %s.",
		req.Text,
		lang.DisplayName(req.SourceLanguage),
		lang.DisplayName(req.TargetLanguage),
	)
}
