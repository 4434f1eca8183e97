package extract

import "strings"

type (
	docLine struct {
		num  int // 1-based position in the original text
		text string
	}

	// document is the normalized view of one input text: trimmed non-empty
	// lines in original order plus a lowercase shadow for keyword scans.
	// Original casing is preserved in lines for token extraction.
	document struct {
		raw   string
		lines []docLine
		lower string
	}
)

func normalize(text string) document {
	doc := document{
		raw:   text,
		lower: strings.ToLower(text),
	}
	for i, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		doc.lines = append(doc.lines, docLine{num: i + 1, text: trimmed})
	}
	return doc
}

// collapseSpaces reduces any run of whitespace to a single space and trims.
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
