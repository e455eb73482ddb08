package ocr

import (
	"regexp"
	"strings"
)

var (
	disallowedRE   = regexp.MustCompile(`[^a-zA-Z0-9,'".:;()\-\s]`)
	periodSpaceRE  = regexp.MustCompile(`\.\s`)
	caseBoundaryRE = regexp.MustCompile(`([a-z])([A-Z])`)
	letterRE       = regexp.MustCompile(`[a-zA-Z]`)
)

// maxNoiseTail is the longest trailing word treated as OCR debris.
const maxNoiseTail = 2

// CleanLine applies the title cleanup heuristics to a single OCR line.
// CleanLine(CleanLine(s)) == CleanLine(s) for every s.
func CleanLine(s string) string {
	s = disallowedRE.ReplaceAllString(s, "")
	s = normalizeOCRText(s)
	// a comma read as a period
	s = periodSpaceRE.ReplaceAllString(s, ", ")
	// words OCR glued together, "FirstOf" -> "First Of"
	s = caseBoundaryRE.ReplaceAllString(s, "$1 $2")
	return trimNoiseTail(s)
}

// trimNoiseTail drops trailing words of maxNoiseTail characters or fewer,
// always keeping the first word.
func trimNoiseTail(s string) string {
	words := strings.Fields(s)
	for len(words) > 1 && len(words[len(words)-1]) <= maxNoiseTail {
		words = words[:len(words)-1]
	}
	return strings.Join(words, " ")
}

// CleanLines cleans every line of raw OCR output and returns the non-empty
// lines that still carry at least one letter, in reading order.
func CleanLines(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = CleanLine(line)
		if line == "" || !letterRE.MatchString(line) {
			continue
		}
		out = append(out, line)
	}
	return out
}

// CleanTitle returns the best-guess title from raw OCR output, or "" when
// nothing usable survives cleanup.
func CleanTitle(raw string) string {
	lines := CleanLines(raw)
	if len(lines) == 0 {
		return ""
	}
	return lines[0]
}
