// Package output provides utilities for formatting and displaying baked offers.
package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/iwvelando/offer-oven/internal/oven"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// PrettyFormat outputs a human-readable rather than machine-readable table.
func PrettyFormat(results []oven.Result) {
	WritePretty(os.Stdout, results)
}

// WritePretty writes the human-readable table to w.
func WritePretty(w io.Writer, results []oven.Result) {
	p := message.NewPrinter(language.English)
	for i, result := range results {
		_, _ = fmt.Fprintf(w, "--- Offer for deal %s (%s) ---\n", result.Name, result.Strategy)
		if result.Address != "" {
			_, _ = fmt.Fprintf(w, "Address: %s\n", result.Address)
		}
		_, _ = fmt.Fprintf(w, "Metric               | Value         | Rating\n")
		_, _ = fmt.Fprintf(w, "______               | _____________ | ______\n")

		offer := result.Offer
		money := func(label string, value float64, rating string) {
			_, _ = p.Fprintf(w, "%-20s | $%.2f | %s\n", label, value, rating)
		}
		percent := func(label string, value float64, rating string) {
			_, _ = p.Fprintf(w, "%-20s | %.2f%% | %s\n", label, value, rating)
		}

		money("Offer price", offer.OfferPrice, "")
		money("Down payment", offer.DownPayment, "")
		money("Entry fee", offer.EntryFee, "")
		percent("Entry fee %", offer.EntryFeePercent, string(result.Scorecard.EntryFeePercent))
		money("Operating expenses", offer.TotalMonthlyOperatingExpenses, "")
		money("Debt service", offer.MonthlyDebtService, "")
		money("Monthly cash flow", offer.MonthlyCashFlow, string(result.Scorecard.CashFlow))
		percent("Cash on cash", offer.CashOnCashPercent, string(result.Scorecard.CashOnCash))
		money("Projected profit", offer.ProjectedNetProfit, "")
		if offer.BalloonPayment > 0 {
			money("Balloon payment", offer.BalloonPayment, result.BalloonDue)
		}

		if len(result.Notes) > 0 {
			_, _ = fmt.Fprintf(w, "Notes: %s\n", strings.Join(result.Notes, "; "))
		}

		if s := result.Optimization; s != nil {
			_, _ = fmt.Fprintf(w, "Optimization:\n")
			status := "converged"
			if !s.Converged {
				status = "not converged"
			}
			_, _ = p.Fprintf(w, "  %s (%s >= %.2f): %s -> %s, headroom %.2f, %d iterations, %s\n",
				s.Field, s.Metric, s.Floor, s.OriginalDisplay, s.ValueDisplay, s.Headroom, s.Iterations, status)
			for _, note := range s.Notes {
				_, _ = fmt.Fprintf(w, "  note: %s\n", note)
			}
		}

		if len(results) > 1 && i < len(results)-1 {
			_, _ = fmt.Fprintf(w, "\n")
		}
	}
}

var csvHeader = []string{
	"name", "address", "strategy", "offerPrice", "downPayment", "entryFee", "entryFeePercent",
	"monthlyDebtService", "monthlyCashFlow", "cashOnCashPercent", "projectedNetProfit",
	"balloonPayment", "balloonDue", "cashFlowRating", "entryFeeRating", "cashOnCashRating", "notes",
}

// CsvFormat outputs in comma-separated value format.
func CsvFormat(results []oven.Result) {
	if err := WriteCSV(os.Stdout, results); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "failed to write csv: %v\n", err)
	}
}

// CsvString returns the comma-separated value rendering of results.
func CsvString(results []oven.Result) (string, error) {
	var b strings.Builder
	if err := WriteCSV(&b, results); err != nil {
		return "", err
	}
	return b.String(), nil
}

// WriteCSV writes one header row and one row per result to w.
func WriteCSV(w io.Writer, results []oven.Result) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, result := range results {
		offer := result.Offer
		row := []string{
			result.Name,
			result.Address,
			string(result.Strategy),
			amount(offer.OfferPrice),
			amount(offer.DownPayment),
			amount(offer.EntryFee),
			amount(offer.EntryFeePercent),
			amount(offer.MonthlyDebtService),
			amount(offer.MonthlyCashFlow),
			amount(offer.CashOnCashPercent),
			amount(offer.ProjectedNetProfit),
			amount(offer.BalloonPayment),
			result.BalloonDue,
			string(result.Scorecard.CashFlow),
			string(result.Scorecard.EntryFeePercent),
			string(result.Scorecard.CashOnCash),
			strings.Join(result.Notes, "; "),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func amount(value float64) string {
	return strconv.FormatFloat(value, 'f', 2, 64)
}
