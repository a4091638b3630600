package deal

import (
	"github.com/iwvelando/offer-oven/pkg/constants"
	"github.com/iwvelando/offer-oven/pkg/mathutil"
)

// NovationDeal profiles a renovate-and-resell partnership. The offer is what
// the seller nets after repairs, selling costs, and the investor's profit.
// It is a resale play, so there is no debt service and no cash flow.
func NovationDeal(f PropertyFinancials, t NovationTerms) OfferResult {
	arv := f.AfterRepairValue
	sellingCosts := arv * constants.NovationSellingCostRate
	netToSeller := arv - f.EstimatedRepairs - sellingCosts - t.InvestorProfitTarget

	return OfferResult{
		Strategy:           StrategyNovation,
		OfferPrice:         netToSeller,
		EntryFee:           f.EstimatedRepairs,
		EntryFeePercent:    mathutil.Finite(mathutil.CalculatePercentage(f.EstimatedRepairs, arv)),
		ClosingCosts:       sellingCosts,
		AssignmentFee:      t.InvestorProfitTarget,
		AgentCommission:    arv * constants.NovationAgentCommissionRate,
		ProjectedNetProfit: t.InvestorProfitTarget,
	}
}
