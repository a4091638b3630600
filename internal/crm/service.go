package crm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iwvelando/offer-oven/internal/deal"
	"go.uber.org/zap"
)

// Service applies pipeline rules on top of a Store.
type Service struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a Service backed by store.
func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger, now: time.Now}
}

// CreateLead saves a snapshot of offer as a new lead.
func (s *Service) CreateLead(ctx context.Context, name, address string, offer deal.OfferResult) (Lead, error) {
	lead := LeadFromOffer(name, address, offer, s.now())
	if err := s.store.SaveLead(ctx, lead); err != nil {
		return Lead{}, err
	}
	s.logger.Info("lead created",
		zap.String("op", "crm.CreateLead"),
		zap.String("lead", lead.ID),
		zap.String("offerType", string(lead.OfferType)),
		zap.String("purchasePrice", lead.PurchasePrice.StringFixed(2)),
	)
	return lead, nil
}

// Lead returns the lead with the given id.
func (s *Service) Lead(ctx context.Context, id string) (Lead, error) {
	return s.store.GetLead(ctx, id)
}

// Leads returns every lead, newest first.
func (s *Service) Leads(ctx context.Context) ([]Lead, error) {
	return s.store.ListLeads(ctx)
}

// Dispos returns every dispo, newest first.
func (s *Service) Dispos(ctx context.Context) ([]Dispo, error) {
	return s.store.ListDispos(ctx)
}

// DeleteLead removes a lead. Dispos opened from it are kept.
func (s *Service) DeleteLead(ctx context.Context, id string) error {
	if err := s.store.DeleteLead(ctx, id); err != nil {
		return err
	}
	s.logger.Info("lead deleted", zap.String("op", "crm.DeleteLead"), zap.String("lead", id))
	return nil
}

// UpdateLeadStatus moves a lead to another pipeline stage.
func (s *Service) UpdateLeadStatus(ctx context.Context, id string, status LeadStatus) (Lead, error) {
	if _, err := ParseLeadStatus(string(status)); err != nil {
		return Lead{}, err
	}
	lead, err := s.store.GetLead(ctx, id)
	if err != nil {
		return Lead{}, err
	}
	lead.Status = status
	if err := s.store.SaveLead(ctx, lead); err != nil {
		return Lead{}, err
	}
	return lead, nil
}

// PushToDispo opens a dispo for the lead and marks the lead as signed and
// accepted by the seller. A lead can be pushed once; if the lead update
// fails the dispo is removed again.
func (s *Service) PushToDispo(ctx context.Context, leadID string, buyer Buyer) (Dispo, error) {
	lead, err := s.store.GetLead(ctx, leadID)
	if err != nil {
		return Dispo{}, err
	}

	dispo := NewDispo(lead, buyer, s.now())
	if err := s.store.CreateDispo(ctx, dispo); err != nil {
		if errors.Is(err, ErrAlreadyInDispo) {
			return Dispo{}, fmt.Errorf("lead %s: %w", leadID, err)
		}
		return Dispo{}, err
	}

	lead.Status = LeadContractSigned
	lead.SellerStatus = SellerAccepted
	if err := s.store.SaveLead(ctx, lead); err != nil {
		if rollbackErr := s.store.DeleteDispo(ctx, dispo.ID); rollbackErr != nil {
			s.logger.Error("failed to remove dispo after lead update failed",
				zap.String("op", "crm.PushToDispo"),
				zap.String("lead", lead.ID),
				zap.String("dispo", dispo.ID),
				zap.Error(rollbackErr),
			)
		}
		return Dispo{}, err
	}

	s.logger.Info("lead pushed to dispo",
		zap.String("op", "crm.PushToDispo"),
		zap.String("lead", lead.ID),
		zap.String("dispo", dispo.ID),
		zap.String("status", string(dispo.Status)),
	)
	return dispo, nil
}

// Stats summarizes the current lead pipeline.
func (s *Service) Stats(ctx context.Context) (PipelineStats, error) {
	leads, err := s.store.ListLeads(ctx)
	if err != nil {
		return PipelineStats{}, err
	}
	return Stats(leads), nil
}
