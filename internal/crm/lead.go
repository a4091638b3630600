// Package crm keeps frozen snapshots of computed offers as leads and tracks
// the leads that move on to disposition.
package crm

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/offer-oven/internal/deal"
	"github.com/iwvelando/offer-oven/pkg/mathutil"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a lead or dispo does not exist.
var ErrNotFound = errors.New("crm record not found")

// LeadStatus is a stage of the acquisition pipeline.
type LeadStatus string

const (
	LeadNotContacted   LeadStatus = "Not Contacted"
	LeadContacted      LeadStatus = "Contacted"
	LeadOfferMade      LeadStatus = "Offer Made"
	LeadNegotiating    LeadStatus = "Negotiating"
	LeadContractSigned LeadStatus = "Contract Signed"
	LeadClosed         LeadStatus = "Closed"
	LeadDead           LeadStatus = "Dead"
)

// LeadStatuses lists the pipeline stages in order.
var LeadStatuses = []LeadStatus{
	LeadNotContacted, LeadContacted, LeadOfferMade, LeadNegotiating, LeadContractSigned, LeadClosed, LeadDead,
}

// SellerStatus is the seller's answer to an offer.
type SellerStatus string

const (
	SellerPending  SellerStatus = "Pending"
	SellerAccepted SellerStatus = "Accepted"
	SellerDeclined SellerStatus = "Declined"
)

// OfferType is the pipeline label of an acquisition strategy.
type OfferType string

const (
	OfferCash     OfferType = "Cash"
	OfferCreative OfferType = "Creative"
	OfferSubTo    OfferType = "SubTo"
	OfferNovation OfferType = "Novation"
)

// OfferTypeFor maps a strategy onto its pipeline label.
func OfferTypeFor(strategy deal.Strategy) OfferType {
	switch strategy {
	case deal.StrategySubTo:
		return OfferSubTo
	case deal.StrategySellerFinance:
		return OfferCreative
	case deal.StrategyNovation:
		return OfferNovation
	default:
		return OfferCash
	}
}

// Lead is a snapshot of an offer saved to the pipeline. Its money fields are
// frozen at creation; recalculating the deal does not change them.
type Lead struct {
	ID             string          `json:"id"`
	DealName       string          `json:"dealName,omitempty"`
	Address        string          `json:"address"`
	Status         LeadStatus      `json:"status"`
	SellerStatus   SellerStatus    `json:"sellerStatus"`
	OfferType      OfferType       `json:"offerType"`
	PurchasePrice  decimal.Decimal `json:"purchasePrice"`
	EMD            decimal.Decimal `json:"emd"`
	DownPayment    decimal.Decimal `json:"downPayment"`
	MonthlyPayment decimal.Decimal `json:"monthlyPayment"`
	CashFlow       decimal.Decimal `json:"cashFlow"`
	CashOnCash     decimal.Decimal `json:"cashOnCash"`
	AssignmentFee  decimal.Decimal `json:"assignmentFee"`
	Balloon        string          `json:"balloon,omitempty"`
	Notes          string          `json:"notes,omitempty"`
	DateAdded      time.Time       `json:"dateAdded"`
}

// LeadFromOffer freezes an offer into a new lead, rounding money to cents.
func LeadFromOffer(name, address string, offer deal.OfferResult, now time.Time) Lead {
	lead := Lead{
		ID:             uuid.NewString(),
		DealName:       name,
		Address:        address,
		Status:         LeadNotContacted,
		SellerStatus:   SellerPending,
		OfferType:      OfferTypeFor(offer.Strategy),
		PurchasePrice:  cents(offer.OfferPrice),
		DownPayment:    cents(offer.DownPayment),
		MonthlyPayment: cents(offer.MonthlyDebtService),
		CashFlow:       cents(offer.MonthlyCashFlow),
		CashOnCash:     cents(offer.CashOnCashPercent),
		AssignmentFee:  cents(offer.AssignmentFee),
		DateAdded:      now.UTC(),
	}
	if offer.BalloonYears > 0 {
		lead.Balloon = fmt.Sprintf("%d years", offer.BalloonYears)
	}
	return lead
}

// ParseLeadStatus validates a pipeline stage name.
func ParseLeadStatus(value string) (LeadStatus, error) {
	for _, status := range LeadStatuses {
		if string(status) == value {
			return status, nil
		}
	}
	return "", fmt.Errorf("unknown lead status %q", value)
}

func cents(value float64) decimal.Decimal {
	return decimal.NewFromFloat(mathutil.Finite(value)).Round(2)
}
