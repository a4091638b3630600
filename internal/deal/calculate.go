package deal

import "fmt"

// Calculate dispatches a request to the calculator for its terms. A request
// without terms produces the zero result.
func Calculate(req Request) OfferResult {
	switch t := req.Terms.(type) {
	case CashTerms:
		return CashDeal(req.Financials, t)
	case SubToTerms:
		var loan ExistingLoan
		if req.Loan != nil {
			loan = *req.Loan
		}
		return SubToDeal(req.Financials, loan, t)
	case SellerFinanceTerms:
		return SellerFinanceDeal(req.Financials, t)
	case NovationTerms:
		return NovationDeal(req.Financials, t)
	default:
		return OfferResult{}
	}
}

// ParseStrategy maps the accepted spellings of a strategy name onto a
// Strategy.
func ParseStrategy(value string) (Strategy, error) {
	switch value {
	case "cash", "Cash":
		return StrategyCash, nil
	case "subto", "subTo", "SubTo", "subject_to", "subject-to":
		return StrategySubTo, nil
	case "seller_finance", "sellerFinance", "SellerFinance", "seller-finance", "creative":
		return StrategySellerFinance, nil
	case "novation", "Novation":
		return StrategyNovation, nil
	default:
		return "", fmt.Errorf("unknown strategy %q", value)
	}
}
