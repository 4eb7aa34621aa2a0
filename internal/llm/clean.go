package llm

import (
	"regexp"
	"strings"
)

var fenceRe = regexp.MustCompile("^```(?:bash|shell|powershell)?|```$")

// CleanCommand strips a leading and a trailing code fence from a completion.
func CleanCommand(text string) string {
	text = strings.TrimSpace(text)
	text = fenceRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
