package render

import "unicode/utf8"

// InstructionsLimit is the visible-text budget for assignment instructions.
const InstructionsLimit = 200

// TruncateHTML returns fragment unchanged when its visible text fits in
// limit characters. Otherwise it returns a collapsed <details> block whose
// summary is the escaped first limit characters of the text and whose body
// is the full original markup. The cut is made on the text, never on the markup.
// A negative limit is treated as 0.
func TruncateHTML(fragment string, limit int) string {
	limit = max(limit, 0)
	text := PlainText(fragment)
	if utf8.RuneCountInString(text) <= limit {
		return fragment
	}

	head := string([]rune(text)[:limit])
	return `<details><summary>` + EscapeHTML(head) + `...</summary>` +
		`<div class="full-instructions">` + fragment + `</div></details>`
}
