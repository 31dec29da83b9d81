package source

import "strings"

const (
	filenameOpenTag  = "<filename>"
	filenameCloseTag = "</filename>"
	codeOpenTag      = "<code>"
	codeCloseTag     = "</code>"
)

// FormatEntries renders entries in order as
// "<filename>{path}</filename>\n<code>{content}</code>" with no separator.
// Contents are not escaped.
func FormatEntries(entries []Entry) string {
	size := 0
	for _, e := range entries {
		size += len(filenameOpenTag) + len(e.Path) + len(filenameCloseTag) + 1 +
			len(codeOpenTag) + len(e.Content) + len(codeCloseTag)
	}

	sb := strings.Builder{}
	sb.Grow(size)

	for _, e := range entries {
		sb.WriteString(filenameOpenTag)
		sb.WriteString(e.Path)
		sb.WriteString(filenameCloseTag)
		sb.WriteString("\n")
		sb.WriteString(codeOpenTag)
		sb.WriteString(e.Content)
		sb.WriteString(codeCloseTag)
	}

	return sb.String()
}
