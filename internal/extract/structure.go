package extract

import "strings"

// classifyStructure decides the document shape and produces the candidate
// set. A line qualifies as a transaction row iff it carries both a
// date-grammar token and an amount-grammar token; any qualifying line makes
// the document tabular, with one candidate per qualifying line in document
// order. Otherwise the whole text becomes a single candidate, with date and
// amount matched independently anywhere in it.
func classifyStructure(doc document) ([]candidate, Structure) {
	var cands []candidate
	for _, ln := range doc.lines {
		date, dateSpan, matched := findDate(ln.text)
		tok, amountSpan, found := findAmount(ln.text)
		if !matched || !found {
			continue
		}
		c := candidate{
			line:      ln.num,
			raw:       ln.text,
			lower:     strings.ToLower(ln.text),
			date:      date,
			dateSpan:  dateSpan,
			amountTok: tok,
		}
		if cents, ok := amountCents(tok); ok {
			c.hasAmount = true
			c.amountCents = cents
			c.amountSpan = amountSpan
		}
		cands = append(cands, c)
	}
	if len(cands) > 0 {
		return cands, StructureTabular
	}
	return []candidate{documentCandidate(doc)}, StructureSingle
}

// documentCandidate builds the one candidate of a single-mode document.
func documentCandidate(doc document) candidate {
	c := candidate{
		raw:          doc.raw,
		lower:        doc.lower,
		fallbackDesc: documentDefaultDescription(doc),
	}

	date, dateSpan, matched := findDate(doc.raw)
	if matched {
		c.date = date
		c.dateSpan = dateSpan
	}

	if tok, span, ok := findAmount(doc.raw); ok {
		if cents, parsed := amountCents(tok); parsed {
			c.hasAmount = true
			c.amountCents = cents
			c.amountTok = tok
			c.amountSpan = span
		}
	}
	return c
}

// documentDefaultDescription picks the document-level fallback used when a
// single candidate's residual text is unusable: a merchant-style label if
// present, else the first usable line, else a fixed placeholder.
func documentDefaultDescription(doc document) string {
	if m := merchantLabelRe.FindStringSubmatch(doc.raw); m != nil {
		if label := collapseSpaces(m[1]); usableDescription(label) {
			return label
		}
	}
	for _, ln := range doc.lines {
		if usableDescription(ln.text) {
			return ln.text
		}
	}
	return "Scanned Receipt"
}
