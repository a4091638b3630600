package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/iwvelando/offer-oven/internal/crm"
	"github.com/iwvelando/offer-oven/internal/oven"
	"github.com/iwvelando/offer-oven/internal/subscription"
	"github.com/iwvelando/offer-oven/pkg/constants"
	"github.com/iwvelando/offer-oven/pkg/optimization"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

const subToDeal = `{
	"name": "Birch",
	"address": "14 Birch Ln",
	"strategy": "subto",
	"property": {
		"price": 180000,
		"marketMonthlyRent": 1800,
		"annualPropertyTax": 2400,
		"annualInsurance": 1200,
		"monthlyHOA": 100,
		"vacancyRate": 0,
		"maintenanceRate": 0,
		"managementRate": 0
	},
	"loan": {"currentBalance": 150000, "monthlyPrincipalAndInterest": 900, "arrearsOwed": 2000},
	"subTo": {"cashToSeller": 5000, "assignmentFee": 8000, "closingCostRate": 0.02}
}`

const sellerFinanceDeal = `{
	"name": "Cedar",
	"strategy": "seller_finance",
	"closingMonth": "2027-06",
	"property": {
		"price": 200000,
		"marketMonthlyRent": 2200,
		"annualPropertyTax": 0,
		"annualInsurance": 0,
		"vacancyRate": 0,
		"maintenanceRate": 0,
		"managementRate": 0
	},
	"sellerFinance": {"downPayment": 20000, "interestRate": 6, "amortizationYears": 30, "balloonYears": 5},
	"optimizer": {"metric": "cashFlow", "floor": 200, "max": 500000}
}`

type failingSubscriptionStore struct{}

func (failingSubscriptionStore) Upsert(context.Context, subscription.Subscription) error {
	return errors.New("database unavailable")
}

func (failingSubscriptionStore) UpdateStatus(context.Context, string, subscription.Status, time.Time) error {
	return errors.New("database unavailable")
}

func (failingSubscriptionStore) Get(context.Context, string) (subscription.Subscription, error) {
	return subscription.Subscription{}, errors.New("database unavailable")
}

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	return NewHandler(zap.NewNop(), constants.DefaultMaxBodySizeBytes, "v-test", Services{WebhookSecret: testSecret})
}

func perform(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func TestHandleOfferSuccess(t *testing.T) {
	rr := perform(t, newTestHandler(t), http.MethodPost, "/api/offer", subToDeal)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	resp := decode[offerResponse](t, rr)
	assert.Equal(t, "subto", string(resp.Strategy))
	assert.InDelta(t, 157000, resp.Result.OfferPrice, 0.01)
	assert.InDelta(t, 18600, resp.Result.EntryFee, 0.01)
	assert.InDelta(t, 500, resp.Result.MonthlyCashFlow, 0.01)
	assert.InDelta(t, 32.258, resp.Result.CashOnCashPercent, 0.001)
	assert.Equal(t, "good", string(resp.Scorecard.CashFlow))
	assert.Equal(t, "caution", string(resp.Scorecard.EntryFeePercent))
	assert.Empty(t, resp.Notes)
}

func TestHandleOfferBalloonNotes(t *testing.T) {
	rr := perform(t, newTestHandler(t), http.MethodPost, "/api/offer", sellerFinanceDeal)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	resp := decode[offerResponse](t, rr)
	assert.Equal(t, "2032-06", resp.BalloonDue)
	assert.Greater(t, resp.Result.BalloonPayment, 0.0)
	require.Len(t, resp.Notes, 1)
	assert.Contains(t, resp.Notes[0], "balloon")
	require.NotNil(t, resp.Optimization)
	assert.True(t, resp.Optimization.Converged)
}

func TestHandleOfferErrors(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		body     string
		expected int
		contains string
	}{
		{"Malformed JSON", http.MethodPost, "{", http.StatusBadRequest, "failed to decode request"},
		{"Unknown strategy", http.MethodPost, `{"name":"x","strategy":"lease_option"}`, http.StatusBadRequest, "lease_option"},
		{"Negative price", http.MethodPost, `{"name":"x","strategy":"cash","property":{"price":-1}}`, http.StatusBadRequest, "Price"},
		{"Bad defaults", http.MethodPost, `{"strategy":"cash","defaults":{"taxInsuranceEstimate":"zip"}}`, http.StatusBadRequest, "taxInsuranceEstimate"},
		{"Wrong method", http.MethodGet, "", http.StatusMethodNotAllowed, ""},
	}

	handler := newTestHandler(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := perform(t, handler, tt.method, "/api/offer", tt.body)
			assert.Equal(t, tt.expected, rr.Code, rr.Body.String())
			if tt.contains != "" {
				resp := decode[map[string]string](t, rr)
				assert.Contains(t, resp["error"], tt.contains)
			}
		})
	}
}

func TestHandleOfferBodyTooLarge(t *testing.T) {
	handler := NewHandler(zap.NewNop(), 64, "", Services{})
	rr := perform(t, handler, http.MethodPost, "/api/offer", subToDeal)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}

func TestHandleCompare(t *testing.T) {
	rr := perform(t, newTestHandler(t), http.MethodPost, "/api/offers/compare", sellerFinanceDeal)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	resp := decode[compareResponse](t, rr)
	require.Len(t, resp.Offers, 4)

	strategies := make([]string, 0, len(resp.Offers))
	for _, offer := range resp.Offers {
		strategies = append(strategies, string(offer.Strategy))
		assert.Nil(t, offer.Optimization, "compare should not run the optimizer")
	}
	assert.Equal(t, []string{"cash", "subto", "seller_finance", "novation"}, strategies)
	assert.InDelta(t, 200000, resp.Offers[2].Result.OfferPrice, 0.01)
}

func TestHandleOptimize(t *testing.T) {
	handler := newTestHandler(t)

	rr := perform(t, handler, http.MethodPost, "/api/optimize", sellerFinanceDeal)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	summary := decode[optimization.Summary](t, rr)
	assert.True(t, summary.Converged)
	assert.Equal(t, "price", summary.Field)
	assert.GreaterOrEqual(t, summary.Achieved, summary.Floor)
	assert.Greater(t, summary.Value, 200000.0)

	rr = perform(t, handler, http.MethodPost, "/api/optimize", subToDeal)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, decode[map[string]string](t, rr)["error"], "optimizer directive is required")

	mismatched := strings.Replace(subToDeal, `"subTo"`, `"optimizer": {"field": "price", "max": 10}, "subTo"`, 1)
	rr = perform(t, handler, http.MethodPost, "/api/optimize", mismatched)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, decode[map[string]string](t, rr)["error"], "does not apply")
}

func TestHandleBookUpload(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("..", "config", "testdata", "deals.yaml"))
	require.NoError(t, err)

	rr := performUpload(t, newTestHandler(t), string(data), "deals.yaml")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp bookResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Len(t, resp.Results, 3)
	assert.NotEmpty(t, resp.CSV)
	assert.NotEmpty(t, resp.Duration)
	assert.Contains(t, strings.Join(resp.Warnings, "\n"), "inactive")

	var cedar *oven.Result
	for i := range resp.Results {
		if resp.Results[i].Name == "Cedar carryback" {
			cedar = &resp.Results[i]
		}
	}
	require.NotNil(t, cedar)
	assert.Equal(t, "2032-06", cedar.BalloonDue)
}

func TestHandleBookUploadErrors(t *testing.T) {
	handler := newTestHandler(t)

	rr := performUpload(t, handler, "defaults: [unterminated", "deals.yaml")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = performUpload(t, handler, "deals:\n  - name: Bad\n    active: true\n    strategy: barter\n", "deals.yaml")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "barter")

	req := httptest.NewRequest(http.MethodPost, "/api/book", strings.NewReader(""))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=none")
	missing := httptest.NewRecorder()
	handler.ServeHTTP(missing, req)
	assert.Equal(t, http.StatusBadRequest, missing.Code)

	small := NewHandler(zap.NewNop(), 128, "", Services{})
	rr = performUpload(t, small, strings.Repeat("# padding\n", 100), "deals.yaml")
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}

func TestLeadPipeline(t *testing.T) {
	handler := newTestHandler(t)

	rr := perform(t, handler, http.MethodPost, "/api/leads", subToDeal)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	lead := decode[crm.Lead](t, rr)
	assert.Equal(t, crm.LeadNotContacted, lead.Status)
	assert.Equal(t, crm.OfferSubTo, lead.OfferType)
	assert.Equal(t, "14 Birch Ln", lead.Address)
	assert.Equal(t, "157000", lead.PurchasePrice.String())

	rr = perform(t, handler, http.MethodGet, "/api/leads", "")
	require.Equal(t, http.StatusOK, rr.Code)
	list := decode[leadsResponse](t, rr)
	require.Len(t, list.Leads, 1)
	assert.Equal(t, 1, list.Stats.Active)

	rr = perform(t, handler, http.MethodGet, "/api/leads/"+lead.ID, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, lead.ID, decode[crm.Lead](t, rr).ID)

	rr = perform(t, handler, http.MethodPatch, "/api/leads/"+lead.ID, `{"status":"Offer Made"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, crm.LeadOfferMade, decode[crm.Lead](t, rr).Status)

	rr = perform(t, handler, http.MethodPatch, "/api/leads/"+lead.ID, `{"status":"Won"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = perform(t, handler, http.MethodPost, "/api/leads/"+lead.ID+"/dispo", `{"buyerEmail":"not-an-email"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = perform(t, handler, http.MethodPost, "/api/leads/"+lead.ID+"/dispo", `{"buyerName":"Ada","assignedPrice":"170000"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	dispo := decode[crm.Dispo](t, rr)
	assert.Equal(t, crm.DispoAssigned, dispo.Status)
	assert.Equal(t, "13000", dispo.NetProfit.String())

	rr = perform(t, handler, http.MethodPost, "/api/leads/"+lead.ID+"/dispo", `{}`)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = perform(t, handler, http.MethodGet, "/api/leads/"+lead.ID, "")
	assert.Equal(t, crm.LeadContractSigned, decode[crm.Lead](t, rr).Status)

	rr = perform(t, handler, http.MethodGet, "/api/dispos", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[map[string][]crm.Dispo](t, rr)["dispos"], 1)

	rr = perform(t, handler, http.MethodDelete, "/api/leads/"+lead.ID, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		rr = perform(t, handler, method, "/api/leads/"+lead.ID, "")
		assert.Equal(t, http.StatusNotFound, rr.Code, method)
	}
	rr = perform(t, handler, http.MethodPost, "/api/leads/missing/dispo", `{}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func performWebhook(t *testing.T, handler http.Handler, body, signature string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/whop", strings.NewReader(body))
	if signature != "" {
		req.Header.Set(subscription.SignatureHeader, signature)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestWebhook(t *testing.T) {
	handler := newTestHandler(t)
	created := `{"action":"purchase.created","data":{"id":"p_1","email":"buyer@example.com","user_id":"u_1"}}`

	t.Run("Missing signature", func(t *testing.T) {
		rr := performWebhook(t, handler, created, "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("Invalid signature writes nothing", func(t *testing.T) {
		rr := performWebhook(t, handler, created, subscription.Sign("wrong", []byte(created)))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)

		rr = perform(t, handler, http.MethodGet, "/api/subscriptions/p_1", "")
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("Created then cancelled", func(t *testing.T) {
		rr := performWebhook(t, handler, created, subscription.Sign(testSecret, []byte(created)))
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		assert.Equal(t, map[string]bool{"received": true}, decode[map[string]bool](t, rr))

		rr = perform(t, handler, http.MethodGet, "/api/subscriptions/p_1", "")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, subscription.StatusActive, decode[subscription.Subscription](t, rr).Status)

		cancelled := `{"action":"membership.went_cancelled","data":{"id":"p_1"}}`
		rr = performWebhook(t, handler, cancelled, subscription.Sign(testSecret, []byte(cancelled)))
		require.Equal(t, http.StatusOK, rr.Code)

		rr = perform(t, handler, http.MethodGet, "/api/subscriptions/p_1", "")
		assert.Equal(t, subscription.StatusCancelled, decode[subscription.Subscription](t, rr).Status)
	})

	t.Run("Unknown action acknowledged", func(t *testing.T) {
		body := `{"action":"payment.refunded","data":{"id":"p_9"}}`
		rr := performWebhook(t, handler, body, subscription.Sign(testSecret, []byte(body)))
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("Malformed event", func(t *testing.T) {
		body := `{"action":`
		rr := performWebhook(t, handler, body, subscription.Sign(testSecret, []byte(body)))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestWebhookWithoutSecretRejectsAll(t *testing.T) {
	handler := NewHandler(zap.NewNop(), 0, "", Services{})
	body := `{"action":"purchase.created","data":{"id":"p_1","email":"a@example.com"}}`
	rr := performWebhook(t, handler, body, subscription.Sign("", []byte(body)))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestWebhookStoreFailure(t *testing.T) {
	handler := NewHandler(zap.NewNop(), 0, "", Services{
		Subscriptions: subscription.NewService(failingSubscriptionStore{}, zap.NewNop()),
		WebhookSecret: testSecret,
	})

	body := `{"action":"purchase.created","data":{"id":"p_1","email":"a@example.com"}}`
	rr := performWebhook(t, handler, body, subscription.Sign(testSecret, []byte(body)))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "webhook handler failed", decode[map[string]string](t, rr)["error"])

	rr = perform(t, handler, http.MethodGet, "/api/subscriptions/p_1", "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestVersionAndMetrics(t *testing.T) {
	handler := newTestHandler(t)

	rr := perform(t, handler, http.MethodGet, "/api/version", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "v-test", decode[map[string]string](t, rr)["version"])

	defaulted := NewHandler(nil, 0, "  ", Services{})
	rr = perform(t, defaulted, http.MethodGet, "/api/version", "")
	assert.Equal(t, "dev", decode[map[string]string](t, rr)["version"])

	perform(t, handler, http.MethodPost, "/api/offer", subToDeal)
	rr = perform(t, handler, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, `offers_computed_total{strategy="subto"}`)
	assert.Contains(t, body, "http_request_duration_seconds")
}

func TestOfferResponseRoundsTrip(t *testing.T) {
	rr := perform(t, newTestHandler(t), http.MethodPost, "/api/offer", subToDeal)
	require.Equal(t, http.StatusOK, rr.Code)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &raw))
	for _, key := range []string{"strategy", "result", "scorecard"} {
		assert.Contains(t, raw, key)
	}
	resp := decode[offerResponse](t, rr)
	assert.False(t, math.IsNaN(resp.Result.CashOnCashPercent))
}

func performUpload(t *testing.T, handler http.Handler, content, filename string) *httptest.ResponseRecorder {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("failed to write form data: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/book", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	return rr
}
