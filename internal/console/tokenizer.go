// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OTLib Contributors

package console

import "strings"

// Tokenize splits a command line into whitespace-delimited tokens, keeping
// double-quoted spans intact (the quotes themselves are stripped). The second
// return value reports a mismatched quote: the input ended while a quoted
// span was still open. The partial span is still returned as a token so the
// host can decide whether to reject or tolerate the line.
func Tokenize(line string) (tokens []string, mismatched bool) {
	var current strings.Builder
	inQuote := false
	hasToken := false

	flush := func() {
		if hasToken {
			tokens = append(tokens, current.String())
			current.Reset()
			hasToken = false
		}
	}

	for _, r := range line {
		switch {
		case r == '"':
			if inQuote {
				inQuote = false
				flush()
			} else {
				// A quote glued to preceding text ends that token.
				flush()
				inQuote = true
				// An opening quote starts a token even if empty ("").
				hasToken = true
			}
		case !inQuote && (r == ' ' || r == '\t'):
			flush()
		default:
			current.WriteRune(r)
			hasToken = true
		}
	}
	flush()

	return tokens, inQuote
}
