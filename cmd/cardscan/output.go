package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"cardprice/pkg/identify"
	"cardprice/process/scan"
)

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

type resultRecord struct {
	File            string            `json:"file"`
	ExtractedText   string            `json:"extracted_text"`
	BestMatch       string            `json:"best_match,omitempty"`
	CardValue       map[string]string `json:"card_value,omitempty"`
	SimilarityScore float64           `json:"similarity_score,omitempty"`
	Set             string            `json:"set,omitempty"`
	CollectorNumber string            `json:"collector_number,omitempty"`
	ReferenceImage  string            `json:"reference_image,omitempty"`
	Cached          bool              `json:"cached"`
	Error           string            `json:"error,omitempty"`
	ElapsedMS       int64             `json:"elapsed_ms"`
}

func toRecord(r scan.Result) resultRecord {
	rec := resultRecord{File: r.File, ExtractedText: r.Outcome.ExtractedText, ElapsedMS: r.Elapsed.Milliseconds()}
	if r.Err != nil {
		rec.Error = identify.Reason(r.Err)
		return rec
	}
	m := r.Outcome.Match
	rec.BestMatch = m.MatchedName
	rec.CardValue = m.CardValue()
	rec.SimilarityScore = m.SimilarityScore
	rec.Set = m.Set
	rec.CollectorNumber = m.CollectorNumber
	rec.ReferenceImage = m.ReferenceImagePath
	if rec.ReferenceImage == "" {
		rec.ReferenceImage = m.ReferenceImageURL
	}
	rec.Cached = r.Outcome.Cached
	return rec
}

// writeJSONLines writes one compact JSON object per result.
func writeJSONLines(w io.Writer, results []scan.Result) error {
	enc := json.NewEncoder(w)
	for _, r := range results {
		if err := enc.Encode(toRecord(r)); err != nil {
			return err
		}
	}
	return nil
}
