package crm

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DispoStatus is a stage of the disposition pipeline.
type DispoStatus string

const (
	DispoMarketing   DispoStatus = "Marketing"
	DispoNegotiating DispoStatus = "Negotiating"
	DispoAssigned    DispoStatus = "Assigned"
	DispoClosed      DispoStatus = "Closed"
)

// Dispo tracks a contracted lead while it is marketed to end buyers.
type Dispo struct {
	ID            string          `json:"id"`
	LeadID        string          `json:"leadId"`
	Address       string          `json:"address"`
	PurchasePrice decimal.Decimal `json:"purchasePrice"`
	EMD           decimal.Decimal `json:"emd"`
	BuyerName     string          `json:"buyerName,omitempty"`
	BuyerPhone    string          `json:"buyerPhone,omitempty"`
	BuyerEmail    string          `json:"buyerEmail,omitempty"`
	AssignedPrice decimal.Decimal `json:"assignedPrice"`
	NetProfit     decimal.Decimal `json:"netProfit"`
	Status        DispoStatus     `json:"status"`
	Notes         string          `json:"notes,omitempty"`
	DateAdded     time.Time       `json:"dateAdded"`
}

// Buyer is the end buyer details supplied when a lead is pushed to dispo.
type Buyer struct {
	Name          string          `json:"buyerName"`
	Phone         string          `json:"buyerPhone"`
	Email         string          `json:"buyerEmail" validate:"omitempty,email"`
	AssignedPrice decimal.Decimal `json:"assignedPrice"`
	Notes         string          `json:"notes"`
}

// NewDispo opens a dispo for lead. A positive assigned price assigns it
// immediately.
func NewDispo(lead Lead, buyer Buyer, now time.Time) Dispo {
	d := Dispo{
		ID:            uuid.NewString(),
		LeadID:        lead.ID,
		Address:       lead.Address,
		PurchasePrice: lead.PurchasePrice,
		EMD:           lead.EMD,
		BuyerName:     buyer.Name,
		BuyerPhone:    buyer.Phone,
		BuyerEmail:    buyer.Email,
		Status:        DispoMarketing,
		Notes:         buyer.Notes,
		DateAdded:     now.UTC(),
	}
	if d.Notes == "" {
		d.Notes = lead.Notes
	}
	if buyer.AssignedPrice.IsPositive() {
		d.Assign(buyer.AssignedPrice)
	}
	return d
}

// Assign records the price an end buyer pays for the contract.
func (d *Dispo) Assign(price decimal.Decimal) {
	d.AssignedPrice = price.Round(2)
	d.NetProfit = d.AssignedPrice.Sub(d.PurchasePrice)
	d.Status = DispoAssigned
}

// ParseDispoStatus validates a disposition stage name.
func ParseDispoStatus(value string) (DispoStatus, error) {
	switch DispoStatus(value) {
	case DispoMarketing, DispoNegotiating, DispoAssigned, DispoClosed:
		return DispoStatus(value), nil
	}
	return "", fmt.Errorf("unknown dispo status %q", value)
}

// PipelineStats summarizes the lead pipeline.
type PipelineStats struct {
	Active         int             `json:"active"`
	OffersMade     int             `json:"offersMade"`
	Closed         int             `json:"closed"`
	AssignmentFees decimal.Decimal `json:"assignmentFees"`
}

// Stats counts leads by stage and totals the assignment fees of signed and
// closed leads.
func Stats(leads []Lead) PipelineStats {
	stats := PipelineStats{AssignmentFees: decimal.Zero}
	for _, lead := range leads {
		switch lead.Status {
		case LeadDead:
			continue
		case LeadOfferMade:
			stats.OffersMade++
		case LeadContractSigned, LeadClosed:
			stats.Closed++
			stats.AssignmentFees = stats.AssignmentFees.Add(lead.AssignmentFee)
		}
		stats.Active++
	}
	return stats
}
