package prompt

// Assemble embeds the flattened source into the user prompt. The template is
// fixed and nothing inside flattenedSource is escaped.
func Assemble(userPrompt, flattenedSource string) string {
	return userPrompt + "\n\n<code>\n" + flattenedSource + "\n</code>"
}
