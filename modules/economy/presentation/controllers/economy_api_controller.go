package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/ar3/our-gruuv-sub016/modules/economy/domain/aggregates/ledger"
	"github.com/ar3/our-gruuv-sub016/modules/economy/domain/entities/economyconfig"
	"github.com/ar3/our-gruuv-sub016/modules/economy/domain/entities/redemption"
	"github.com/ar3/our-gruuv-sub016/modules/economy/domain/entities/transaction"
	"github.com/ar3/our-gruuv-sub016/modules/economy/services"
	"github.com/ar3/our-gruuv-sub016/pkg/application"
	"github.com/ar3/our-gruuv-sub016/pkg/constants"
	"github.com/ar3/our-gruuv-sub016/pkg/httpapi"
	"github.com/ar3/our-gruuv-sub016/pkg/middleware"
)

// EconomyAPIController is the JSON surface for the points economy: manual
// awards, redemptions, balances and config overrides.
type EconomyAPIController struct {
	app         application.Application
	awards      *services.AwardService
	redemptions *services.RedemptionService
	ledgers     *services.LedgerService
	rewards     *services.RewardService
	configs     *services.EconomyConfigService
	apiPrefix   string
}

func NewEconomyAPIController(app application.Application) application.Controller {
	return &EconomyAPIController{
		app:         app,
		awards:      app.Service(services.AwardService{}).(*services.AwardService),
		redemptions: app.Service(services.RedemptionService{}).(*services.RedemptionService),
		ledgers:     app.Service(services.LedgerService{}).(*services.LedgerService),
		rewards:     app.Service(services.RewardService{}).(*services.RewardService),
		configs:     app.Service(services.EconomyConfigService{}).(*services.EconomyConfigService),
		apiPrefix:   "/api/economy",
	}
}

func (c *EconomyAPIController) Key() string {
	return c.apiPrefix
}

func (c *EconomyAPIController) Register(r *mux.Router) {
	api := r.PathPrefix(c.apiPrefix).Subrouter()
	api.Use(
		middleware.RequireTenantHeader(),
		middleware.WithActorHeader(),
	)

	api.HandleFunc("/bank-awards", c.CreateBankAward).Methods(http.MethodPost)
	api.HandleFunc("/observer-awards", c.CreateObserverAward).Methods(http.MethodPost)

	api.HandleFunc("/redemptions", c.CreateRedemption).Methods(http.MethodPost)
	api.HandleFunc("/redemptions/{id}/fulfill", c.FulfillRedemption).Methods(http.MethodPost)
	api.HandleFunc("/redemptions/{id}/cancel", c.CancelRedemption).Methods(http.MethodPost)

	api.HandleFunc("/ledgers/{teammateID}", c.GetLedger).Methods(http.MethodGet)
	api.HandleFunc("/ledgers/{teammateID}/transactions", c.GetTransactions).Methods(http.MethodGet)
	api.HandleFunc("/ledgers/{teammateID}/redemptions", c.GetRedemptions).Methods(http.MethodGet)
	api.HandleFunc("/ledgers/{teammateID}/reconciliation", c.GetReconciliation).Methods(http.MethodGet)

	api.HandleFunc("/rewards", c.ListRewards).Methods(http.MethodGet)
	api.HandleFunc("/rewards", c.CreateReward).Methods(http.MethodPost)
	api.HandleFunc("/rewards/{id}", c.DeleteReward).Methods(http.MethodDelete)

	api.HandleFunc("/configs/{eventKey}", c.SetConfigOverride).Methods(http.MethodPut)
}

type bankAwardRequest struct {
	RecipientID   uuid.UUID `json:"recipient_id" validate:"required"`
	PointsToGive  string    `json:"points_to_give"`
	PointsToSpend string    `json:"points_to_spend"`
	Reason        string    `json:"reason"`
}

type transactionResponse struct {
	ID         string `json:"id"`
	Kind       string `json:"kind"`
	TeammateID string `json:"teammate_id"`
	GiveDelta  string `json:"give_delta"`
	SpendDelta string `json:"spend_delta"`
	Reason     string `json:"reason"`
	PostedAt   string `json:"posted_at,omitempty"`
}

func (c *EconomyAPIController) CreateBankAward(w http.ResponseWriter, r *http.Request) {
	var req bankAwardRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	give, ok := parseOptionalAmount(w, req.PointsToGive, "points_to_give")
	if !ok {
		return
	}
	spend, ok := parseOptionalAmount(w, req.PointsToSpend, "points_to_spend")
	if !ok {
		return
	}

	posted, err := c.awards.PostBankAward(r.Context(), services.BankAwardInput{
		RecipientID:   req.RecipientID,
		PointsToGive:  give,
		PointsToSpend: spend,
		Reason:        req.Reason,
	})
	if err != nil {
		writeEconomyError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, toTransactionResponse(posted))
}

type observerAwardRequest struct {
	ObservationID uuid.UUID   `json:"observation_id" validate:"required"`
	ObserverID    uuid.UUID   `json:"observer_id" validate:"required"`
	ObserveeIDs   []uuid.UUID `json:"observee_ids" validate:"required,min=1"`
	Kind          string      `json:"kind" validate:"required"`
	TotalPoints   string      `json:"total_points" validate:"required"`
}

// CreateObserverAward spends the observer's own give balance across the
// observees of an observation.
func (c *EconomyAPIController) CreateObserverAward(w http.ResponseWriter, r *http.Request) {
	var req observerAwardRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	total, err := decimal.NewFromString(req.TotalPoints)
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, services.CodeValidationFailed,
			"total_points is not a valid amount", nil)
		return
	}

	err = c.awards.PostObserverDirectedAward(r.Context(), services.ObservationInput{
		ObservationID: req.ObservationID,
		ObserverID:    req.ObserverID,
		ObserveeIDs:   req.ObserveeIDs,
		Kind:          req.Kind,
	}, total)
	if err != nil {
		writeEconomyError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type redeemRequest struct {
	TeammateID uuid.UUID `json:"teammate_id" validate:"required"`
	RewardID   uuid.UUID `json:"reward_id" validate:"required"`
	Notes      string    `json:"notes"`
}

type redemptionResponse struct {
	ID                string `json:"id"`
	TeammateID        string `json:"teammate_id"`
	RewardID          string `json:"reward_id"`
	PointsSpent       string `json:"points_spent"`
	Status            string `json:"status"`
	ExternalReference string `json:"external_reference,omitempty"`
	Notes             string `json:"notes,omitempty"`
	ResolvedAt        string `json:"resolved_at,omitempty"`
}

func (c *EconomyAPIController) CreateRedemption(w http.ResponseWriter, r *http.Request) {
	var req redeemRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	created, err := c.redemptions.Redeem(r.Context(), req.TeammateID, req.RewardID, req.Notes)
	if err != nil {
		writeEconomyError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, toRedemptionResponse(created))
}

type fulfillRequest struct {
	ExternalReference string `json:"external_reference" validate:"required"`
}

func (c *EconomyAPIController) FulfillRedemption(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req fulfillRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	updated, err := c.redemptions.Fulfill(r.Context(), id, req.ExternalReference)
	if err != nil {
		writeEconomyError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, toRedemptionResponse(updated))
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (c *EconomyAPIController) CancelRedemption(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req cancelRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	updated, err := c.redemptions.Cancel(r.Context(), id, req.Reason)
	if err != nil {
		writeEconomyError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, toRedemptionResponse(updated))
}

type ledgerResponse struct {
	TeammateID    string `json:"teammate_id"`
	PointsToGive  string `json:"points_to_give"`
	PointsToSpend string `json:"points_to_spend"`
	Version       int64  `json:"version"`
}

func (c *EconomyAPIController) GetLedger(w http.ResponseWriter, r *http.Request) {
	teammateID, ok := pathID(w, r, "teammateID")
	if !ok {
		return
	}

	led, err := c.ledgers.Get(r.Context(), teammateID)
	if err != nil {
		writeEconomyError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, toLedgerResponse(led))
}

func (c *EconomyAPIController) GetTransactions(w http.ResponseWriter, r *http.Request) {
	teammateID, ok := pathID(w, r, "teammateID")
	if !ok {
		return
	}

	history, err := c.ledgers.History(r.Context(), teammateID, &transaction.FindParams{Limit: 100})
	if err != nil {
		writeEconomyError(w, err)
		return
	}
	out := make([]transactionResponse, 0, len(history))
	for _, t := range history {
		out = append(out, toTransactionResponse(t))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, out)
}

func (c *EconomyAPIController) GetRedemptions(w http.ResponseWriter, r *http.Request) {
	teammateID, ok := pathID(w, r, "teammateID")
	if !ok {
		return
	}

	results, err := c.redemptions.ListForTeammate(r.Context(), teammateID)
	if err != nil {
		writeEconomyError(w, err)
		return
	}
	out := make([]redemptionResponse, 0, len(results))
	for _, entity := range results {
		out = append(out, toRedemptionResponse(entity))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, out)
}

type reconciliationResponse struct {
	Balanced    bool   `json:"balanced"`
	LedgerGive  string `json:"ledger_points_to_give"`
	LedgerSpend string `json:"ledger_points_to_spend"`
	SumGive     string `json:"transaction_sum_give"`
	SumSpend    string `json:"transaction_sum_spend"`
}

func (c *EconomyAPIController) GetReconciliation(w http.ResponseWriter, r *http.Request) {
	teammateID, ok := pathID(w, r, "teammateID")
	if !ok {
		return
	}

	rec, err := c.ledgers.Reconcile(r.Context(), teammateID)
	if err != nil {
		writeEconomyError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, reconciliationResponse{
		Balanced:    rec.Balanced,
		LedgerGive:  rec.LedgerGive.String(),
		LedgerSpend: rec.LedgerSpend.String(),
		SumGive:     rec.SumGive.String(),
		SumSpend:    rec.SumSpend.String(),
	})
}

type rewardRequest struct {
	Name         string `json:"name" validate:"required"`
	CostInPoints string `json:"cost_in_points" validate:"required"`
}

type rewardResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	CostInPoints string `json:"cost_in_points"`
	Active       bool   `json:"active"`
}

func (c *EconomyAPIController) ListRewards(w http.ResponseWriter, r *http.Request) {
	results, err := c.rewards.List(r.Context())
	if err != nil {
		writeEconomyError(w, err)
		return
	}
	out := make([]rewardResponse, 0, len(results))
	for _, rw := range results {
		out = append(out, rewardResponse{
			ID:           rw.ID().String(),
			Name:         rw.Name(),
			CostInPoints: rw.CostInPoints().String(),
			Active:       rw.Active(),
		})
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, out)
}

func (c *EconomyAPIController) CreateReward(w http.ResponseWriter, r *http.Request) {
	var req rewardRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	cost, err := decimal.NewFromString(req.CostInPoints)
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, services.CodeValidationFailed,
			"cost_in_points is not a valid amount", nil)
		return
	}

	created, err := c.rewards.Create(r.Context(), req.Name, cost)
	if err != nil {
		writeEconomyError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, rewardResponse{
		ID:           created.ID().String(),
		Name:         created.Name(),
		CostInPoints: created.CostInPoints().String(),
		Active:       created.Active(),
	})
}

func (c *EconomyAPIController) DeleteReward(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := c.rewards.Delete(r.Context(), id); err != nil {
		writeEconomyError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type configOverrideRequest struct {
	PointsToGive  string `json:"points_to_give"`
	PointsToSpend string `json:"points_to_spend"`
}

func (c *EconomyAPIController) SetConfigOverride(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["eventKey"]
	var req configOverrideRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	give, ok := parseOptionalAmount(w, req.PointsToGive, "points_to_give")
	if !ok {
		return
	}
	spend, ok := parseOptionalAmount(w, req.PointsToSpend, "points_to_spend")
	if !ok {
		return
	}

	err := c.configs.SetOverride(r.Context(), economyconfig.EventKey(key), economyconfig.Amounts{
		PointsToGive:  give,
		PointsToSpend: spend,
	})
	if err != nil {
		writeEconomyError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, services.CodeValidationFailed,
			"invalid request body", nil)
		return false
	}
	if err := constants.Validate.Struct(dst); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, services.CodeValidationFailed,
			err.Error(), nil)
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, services.CodeValidationFailed,
			name+" is not a valid id", nil)
		return uuid.Nil, false
	}
	return id, true
}

func parseOptionalAmount(w http.ResponseWriter, raw, field string) (decimal.Decimal, bool) {
	if raw == "" {
		return decimal.Zero, true
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, services.CodeValidationFailed,
			field+" is not a valid amount", nil)
		return decimal.Zero, false
	}
	return d, true
}

func writeEconomyError(w http.ResponseWriter, err error) {
	var se *services.ServiceError
	if errors.As(err, &se) {
		_ = httpapi.WriteError(w, se.Status, se.Code, se.Message, nil)
		return
	}
	_ = httpapi.WriteError(w, http.StatusInternalServerError, "ECONOMY_INTERNAL",
		"internal error", nil)
}

func toTransactionResponse(t transaction.Transaction) transactionResponse {
	out := transactionResponse{
		ID:         t.ID.String(),
		Kind:       string(t.Kind),
		TeammateID: t.TeammateID.String(),
		GiveDelta:  t.GiveDelta.String(),
		SpendDelta: t.SpendDelta.String(),
		Reason:     t.Reason,
	}
	if t.PostedAt != nil {
		out.PostedAt = t.PostedAt.UTC().Format(time.RFC3339)
	}
	return out
}

func toRedemptionResponse(r redemption.Redemption) redemptionResponse {
	out := redemptionResponse{
		ID:                r.ID().String(),
		TeammateID:        r.TeammateID().String(),
		RewardID:          r.RewardID().String(),
		PointsSpent:       r.PointsSpent().String(),
		Status:            string(r.Status()),
		ExternalReference: r.ExternalReference(),
		Notes:             r.Notes(),
	}
	if r.ResolvedAt() != nil {
		out.ResolvedAt = r.ResolvedAt().UTC().Format(time.RFC3339)
	}
	return out
}

func toLedgerResponse(l ledger.Ledger) ledgerResponse {
	return ledgerResponse{
		TeammateID:    l.TeammateID().String(),
		PointsToGive:  l.PointsToGive().String(),
		PointsToSpend: l.PointsToSpend().String(),
		Version:       l.Version(),
	}
}
