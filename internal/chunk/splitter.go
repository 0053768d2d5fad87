package chunk

import "strings"

// separators is the split hierarchy, most semantically meaningful first:
// paragraph breaks, line breaks, sentence ends, clause ends, then words.
var separators = []string{"\n\n", "\n", ". ", "? ", "! ", "; ", ", ", " "}

// split recursively splits text into pieces of at most budget tokens,
// preferring the most meaningful separator present, then greedily merges
// adjacent pieces back together while they fit. Whitespace-only pieces are
// dropped.
func split(text string, budget int, count TokenCounter) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	if count(trimmed) <= budget {
		return []string{trimmed}
	}

	sep, pieces := splitOnce(trimmed)

	// No separator left: hard-cut by characters.
	if sep == "" {
		return hardSplit(trimmed, budget, count)
	}

	var out []string
	var current strings.Builder
	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			out = append(out, s)
		}
		current.Reset()
	}

	for _, piece := range pieces {
		if strings.TrimSpace(piece) == "" {
			continue
		}

		// Oversized pieces recurse on the next separator level.
		if count(piece) > budget {
			flush()
			out = append(out, split(piece, budget, count)...)
			continue
		}

		if current.Len() > 0 {
			candidate := current.String() + sep + piece
			if count(candidate) > budget {
				flush()
			} else {
				current.WriteString(sep)
				current.WriteString(piece)
				continue
			}
		}
		current.WriteString(piece)
	}
	flush()

	return out
}

// splitOnce splits on the first separator of the hierarchy that occurs in
// text. Sentence-style separators keep their punctuation attached to the
// preceding piece.
func splitOnce(text string) (string, []string) {
	for _, sep := range separators {
		if !strings.Contains(text, sep) {
			continue
		}
		pieces := strings.Split(text, sep)
		if punct := strings.TrimSuffix(sep, " "); punct != sep {
			for i := 0; i < len(pieces)-1; i++ {
				pieces[i] += punct
			}
			sep = " "
		}
		return sep, pieces
	}
	return "", nil
}

// hardSplit cuts text into token-budget windows when no separator remains,
// e.g. a single enormous word. Cuts are on rune boundaries.
func hardSplit(text string, budget int, count TokenCounter) []string {
	var out []string
	runes := []rune(text)
	for len(runes) > 0 {
		k := len(runes)
		for k > 1 && count(string(runes[:k])) > budget {
			step := k / 10
			if step < 1 {
				step = 1
			}
			k -= step
		}
		out = append(out, string(runes[:k]))
		runes = runes[k:]
	}
	return out
}
