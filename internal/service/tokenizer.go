package service

import (
	"strings"
	"unicode"
)

// Placeholders stand in for escaped quotes while the splitter runs, so a
// literal \" or \' never opens or closes a quoted section.
const (
	escapedDoubleToken = "\x00q\x00"
	escapedSingleToken = "\x00a\x00"
)

// Tokenize splits a free-form tag string into individual tag values. Tags
// are comma separated; a tag wrapped in single or double quotes keeps
// embedded commas and surrounding whitespace, and escaped quote characters
// are treated as literals. Tags are trimmed and fully-wrapping quotes are
// stripped. An input with no tags yields an empty slice.
func Tokenize(raw string) []string {
	escaped := strings.NewReplacer(`\"`, escapedDoubleToken, `\'`, escapedSingleToken).Replace(raw)

	var (
		tokens  []string
		current strings.Builder
		quote   rune
		prev    rune
	)

	flush := func() {
		token := cleanToken(current.String())
		if token != "" {
			tokens = append(tokens, token)
		}
		current.Reset()
	}

	for _, r := range escaped {
		switch {
		case quote == 0 && r == '"':
			quote = r
			current.WriteRune(r)
		case quote == 0 && r == '\'' && (current.Len() == 0 || unicode.IsSpace(prev)):
			// A single quote only opens at the start of a tag or after
			// whitespace; a mid-word apostrophe is an ordinary character.
			quote = r
			current.WriteRune(r)
		case quote != 0 && r == quote:
			quote = 0
			current.WriteRune(r)
		case quote == 0 && r == ',':
			flush()
		default:
			current.WriteRune(r)
		}
		prev = r
	}
	flush()

	unescaped := strings.NewReplacer(escapedDoubleToken, `"`, escapedSingleToken, `'`)
	for i, token := range tokens {
		tokens[i] = unescaped.Replace(token)
	}

	if tokens == nil {
		return []string{}
	}
	return tokens
}

// JoinTags renders a tag slice back into tokenizer input. Tags containing
// commas, quotes or edge whitespace are quoted so the result round-trips
// through Tokenize.
func JoinTags(tags []string) string {
	parts := make([]string, 0, len(tags))
	for _, tag := range tags {
		parts = append(parts, quoteTag(tag))
	}
	return strings.Join(parts, ", ")
}

func cleanToken(token string) string {
	token = strings.TrimSpace(token)
	if len(token) >= 2 {
		first := token[0]
		last := token[len(token)-1]
		if first == last && (first == '"' || first == '\'') {
			token = token[1 : len(token)-1]
		}
	}
	return token
}

func quoteTag(tag string) string {
	if !strings.ContainsAny(tag, `,"'`) && tag == strings.TrimSpace(tag) {
		return tag
	}
	escaped := strings.NewReplacer(`"`, `\"`, `'`, `\'`).Replace(tag)
	return `"` + escaped + `"`
}
