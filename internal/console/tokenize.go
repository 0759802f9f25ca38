package console

import "strings"

// MaxTokens caps the number of tokens taken from one line, command name included.
const MaxTokens = 5

// Separators are the bytes that split a line into tokens.
const Separators = " ,"

func isSeparator(ch byte) bool {
	return strings.IndexByte(Separators, ch) >= 0
}

// Tokenize splits line on spaces and commas. Runs of separators produce no
// empty tokens, and tokens past MaxTokens are dropped.
// A blank line yields nil.
func Tokenize(line string) []string {
	var tokens []string
	i := 0
	for i < len(line) && len(tokens) < MaxTokens {
		for i < len(line) && isSeparator(line[i]) {
			i++
		}
		start := i
		for i < len(line) && !isSeparator(line[i]) {
			i++
		}
		if i > start {
			tokens = append(tokens, line[start:i])
		}
	}
	return tokens
}
