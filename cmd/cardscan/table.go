package main

import (
	"fmt"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"cardprice/pkg/card"
	"cardprice/pkg/identify"
	"cardprice/process/scan"
)

var resultHeaders = table.Row{"File", "Title", "Match", "Set", "#", "USD", "USD Foil", "Score", "Note"}

// numeric columns, 1-based like go-pretty column numbers
var rightAligned = map[int]bool{6: true, 7: true, 8: true}

func renderResults(results []scan.Result) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(resultHeaders)
	for _, r := range results {
		tw.AppendRow(resultRow(r))
	}
	configs := make([]table.ColumnConfig, 0, len(resultHeaders))
	for i := range resultHeaders {
		align := text.AlignLeft
		if rightAligned[i+1] {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}

func resultRow(r scan.Result) table.Row {
	name := filepath.Base(r.File)
	if r.Err != nil {
		return table.Row{name, r.Outcome.ExtractedText, "", "", "", "", "", "", identify.Reason(r.Err)}
	}
	m := r.Outcome.Match
	note := ""
	if r.Outcome.Cached {
		note = "cached"
	}
	return table.Row{
		name, r.Outcome.ExtractedText, m.MatchedName, m.Set, m.CollectorNumber,
		m.Prices.Value(card.PriceUSD), m.Prices.Value(card.PriceUSDFoil),
		fmt.Sprintf("%.3f", m.SimilarityScore), note,
	}
}

func summaryLine(r scan.Result) string {
	name := filepath.Base(r.File)
	if r.Err != nil {
		return fmt.Sprintf("%s: %s", name, identify.Reason(r.Err))
	}
	m := r.Outcome.Match
	return fmt.Sprintf("%s: %s [%s #%s] usd=%s score=%.3f", name, m.MatchedName, m.Set, m.CollectorNumber,
		m.Prices.Value(card.PriceUSD), m.SimilarityScore)
}
