package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"genlayer-market/internal/blockchain"
	"genlayer-market/internal/models"
	"genlayer-market/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Coordinator drives the market lifecycle end to end: creation, trade
// execution against the detected contract version, the two-chain resolution
// flow and claim settlement. It owns the lifecycle state machine; the
// blockchain package owns the wire-level calls.
type Coordinator struct {
	repo     *repository.Repository
	ledger   *LedgerService
	adapter  *blockchain.TradeAdapter
	bridge   *blockchain.ResolutionBridge
	genlayer *blockchain.GenLayerClient
}

// NewCoordinator creates the coordinator service
func NewCoordinator(repo *repository.Repository, ledger *LedgerService,
	adapter *blockchain.TradeAdapter, bridge *blockchain.ResolutionBridge,
	genlayer *blockchain.GenLayerClient) *Coordinator {
	return &Coordinator{
		repo:     repo,
		ledger:   ledger,
		adapter:  adapter,
		bridge:   bridge,
		genlayer: genlayer,
	}
}

// ClaimOutcome reports a settled claim back to the caller.
type ClaimOutcome struct {
	Amount decimal.Decimal `json:"amount"`
	TxHash *string         `json:"tx_hash,omitempty"`
}

// CreateMarket validates and stores a new market row. Contract addresses are
// checked syntactically here; the version probe runs lazily on first trade.
func (c *Coordinator) CreateMarket(ctx context.Context, req *models.CreateMarketRequest, creatorAddress string) (*models.Market, error) {
	endTime := time.Unix(req.EndTime, 0)
	if !endTime.After(time.Now()) {
		return nil, fmt.Errorf("end time must be in the future")
	}

	market := &models.Market{
		ID:                 uuid.New(),
		Question:           req.Question,
		ResolutionCriteria: req.ResolutionCriteria,
		Category:           req.Category,
		Tags:               req.Tags,
		CreatorAddress:     creatorAddress,
		Status:             models.MarketStatusOpen,
		ResolutionState:    models.ResolutionUndecided,
		Probability:        50,
		Volume:             decimal.Zero,
		YesPool:            decimal.Zero,
		NoPool:             decimal.Zero,
		ResolvedOutcome:    models.OutcomeUndefined,
		EndTime:            endTime,
	}

	if req.ContractAddress != "" {
		if !blockchain.IsValidAddress(req.ContractAddress) {
			return nil, fmt.Errorf("%w: malformed contract address %q", blockchain.ErrInvalidContract, req.ContractAddress)
		}
		addr := req.ContractAddress
		market.ContractAddress = &addr
	}
	if req.ResolutionAddress != "" {
		if !blockchain.IsValidAddress(req.ResolutionAddress) {
			return nil, fmt.Errorf("%w: malformed resolution address %q", blockchain.ErrInvalidContract, req.ResolutionAddress)
		}
		addr := req.ResolutionAddress
		market.ResolutionAddress = &addr
	}

	if err := c.repo.CreateMarket(ctx, market); err != nil {
		return nil, fmt.Errorf("failed to create market: %w", err)
	}

	log.Printf("[Coordinator] Market created: %s (%q)", market.ID, market.Question)
	return market, nil
}

// GetMarket retrieves one market.
func (c *Coordinator) GetMarket(ctx context.Context, marketID uuid.UUID) (*models.Market, error) {
	return c.repo.GetMarketByID(ctx, marketID)
}

// ListMarkets retrieves markets with optional filters.
func (c *Coordinator) ListMarkets(ctx context.Context, status, category, tag string, limit, offset int) ([]*models.Market, int64, error) {
	return c.repo.ListMarkets(ctx, status, category, tag, limit, offset)
}

// ExecuteBuy buys outcome shares. For contract-backed markets the chain write
// confirms first and the ledger shadows it; for shadow markets the ledger is
// the only book.
func (c *Coordinator) ExecuteBuy(ctx context.Context, marketID uuid.UUID, userAddress string, side models.Outcome, amount decimal.Decimal) (*models.Trade, error) {
	market, err := c.tradableMarket(ctx, marketID)
	if err != nil {
		return nil, err
	}

	var txHash *string
	if market.HasContract() {
		result, err := c.adapter.Buy(ctx, *market.ContractAddress, blockchain.Side(side), amount.BigInt())
		if err != nil {
			return nil, err
		}
		txHash = &result.TxHash
	}

	return c.ledger.RecordBuy(ctx, market, userAddress, side, amount, txHash)
}

// ExecuteSell sells shares back. Only legacy-interface contracts support this;
// the adapter fails fast for current-version contracts and shadow markets have
// no on-chain pool to sell into, so they take the ledger path directly.
func (c *Coordinator) ExecuteSell(ctx context.Context, marketID uuid.UUID, userAddress string, side models.Outcome, shares decimal.Decimal) (*models.Trade, error) {
	market, err := c.tradableMarket(ctx, marketID)
	if err != nil {
		return nil, err
	}

	var txHash *string
	if market.HasContract() {
		result, err := c.adapter.Sell(ctx, *market.ContractAddress, blockchain.Side(side), shares.BigInt())
		if err != nil {
			return nil, err
		}
		txHash = &result.TxHash
	}

	return c.ledger.RecordSell(ctx, market, userAddress, side, shares, txHash)
}

func (c *Coordinator) tradableMarket(ctx context.Context, marketID uuid.UUID) (*models.Market, error) {
	market, err := c.repo.GetMarketByID(ctx, marketID)
	if err != nil {
		return nil, err
	}
	if market.Status != models.MarketStatusOpen {
		return nil, fmt.Errorf("%w: market status is %s", blockchain.ErrMarketClosed, market.Status)
	}
	if !market.EndTime.After(time.Now()) {
		return nil, fmt.Errorf("%w: market ended %s", blockchain.ErrMarketClosed, market.EndTime.UTC().Format(time.RFC3339))
	}
	return market, nil
}

// ResolveMarket runs the resolution flow for a market. AI-resolved markets go
// through the resolution chain first; the settlement chain is only touched
// once a finalized outcome is in hand. Each step records its sub-state before
// running and falls back to that same state on failure, so a partial failure
// is retried from the step that failed, not from scratch.
func (c *Coordinator) ResolveMarket(ctx context.Context, marketID uuid.UUID, actingAddress string, requested models.Outcome) (*models.ResolutionRecord, error) {
	market, err := c.repo.GetMarketByID(ctx, marketID)
	if err != nil {
		return nil, err
	}

	if market.Status == models.MarketStatusResolved {
		return nil, fmt.Errorf("%w: market already resolved", blockchain.ErrMarketClosed)
	}
	if existing, err := c.repo.GetResolutionByMarket(ctx, marketID); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, fmt.Errorf("%w: market already resolved", blockchain.ErrMarketClosed)
	}
	if market.EndTime.After(time.Now()) {
		return nil, fmt.Errorf("%w: market does not end until %s", blockchain.ErrMarketClosed,
			market.EndTime.UTC().Format(time.RFC3339))
	}

	if err := c.advanceStatus(ctx, market, models.MarketStatusResolving); err != nil {
		return nil, err
	}

	mechanism := models.MechanismManualCreator
	if market.ResolutionAddress != nil && *market.ResolutionAddress != "" {
		mechanism = models.MechanismAIConsensus
	}

	var outcome models.Outcome
	var rationale string

	switch mechanism {
	case models.MechanismAIConsensus:
		outcome, rationale, err = c.decideByConsensus(ctx, market)
		if err != nil {
			return nil, err
		}
	default:
		if requested != models.OutcomeYes && requested != models.OutcomeNo {
			return nil, fmt.Errorf("outcome must be yes or no for manually resolved markets")
		}
		// For contract-backed markets the authoritative creator check runs in
		// the bridge against on-chain state; this off-chain check covers
		// shadow markets only.
		if !market.HasContract() && !equalAddress(actingAddress, market.CreatorAddress) {
			return nil, &blockchain.NotAuthorizedError{Recognized: market.CreatorAddress}
		}
		outcome = requested
		pending := string(outcome)
		market.PendingOutcome = &pending
		market.ResolutionState = models.ResolutionPendingBridge
		if err := c.repo.UpdateMarket(ctx, market); err != nil {
			return nil, fmt.Errorf("failed to record decided outcome: %w", err)
		}
	}

	txHash, err := c.bridgeOutcome(ctx, market, outcome, actingAddress)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	market.ResolutionState = models.ResolutionBridged
	market.Status = models.MarketStatusResolved
	market.ResolvedOutcome = outcome
	market.ResolvedAt = &now
	market.PendingOutcome = nil
	if err := c.repo.UpdateMarket(ctx, market); err != nil {
		return nil, fmt.Errorf("failed to finalize market: %w", err)
	}

	record := &models.ResolutionRecord{
		ID:        uuid.New(),
		MarketID:  market.ID,
		Outcome:   outcome,
		Mechanism: mechanism,
		Rationale: rationale,
		TxHash:    txHash,
	}
	if err := c.repo.CreateResolution(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to record resolution: %w", err)
	}

	log.Printf("[Coordinator] Market %s resolved %s via %s", market.ID, outcome, mechanism)
	return record, nil
}

// decideByConsensus obtains the finalized resolution-chain outcome, reusing a
// previously stored decision when the earlier attempt failed at the bridge
// step. The consensus trigger is never re-run once a decision is stored.
func (c *Coordinator) decideByConsensus(ctx context.Context, market *models.Market) (models.Outcome, string, error) {
	if market.PendingOutcome != nil {
		log.Printf("[Coordinator] Reusing decided outcome for %s, retrying bridge only", market.ID)
		return models.Outcome(*market.PendingOutcome), market.PendingRationale, nil
	}

	market.ResolutionState = models.ResolutionDeciding
	if err := c.repo.UpdateMarket(ctx, market); err != nil {
		return models.OutcomeUndefined, "", fmt.Errorf("failed to mark market deciding: %w", err)
	}

	result, err := c.genlayer.TriggerResolution(ctx, *market.ResolutionAddress)
	if err != nil {
		market.ResolutionState = models.ResolutionUndecided
		if saveErr := c.repo.UpdateMarket(ctx, market); saveErr != nil {
			log.Printf("[Coordinator] Failed to roll back resolution state for %s: %v", market.ID, saveErr)
		}
		return models.OutcomeUndefined, "", err
	}

	outcome := models.OutcomeFromCode(result.Outcome)
	pending := string(outcome)
	market.PendingOutcome = &pending
	market.PendingRationale = result.Rationale
	market.ResolutionState = models.ResolutionPendingBridge
	if err := c.repo.UpdateMarket(ctx, market); err != nil {
		return models.OutcomeUndefined, "", fmt.Errorf("failed to store consensus outcome: %w", err)
	}

	return outcome, result.Rationale, nil
}

// bridgeOutcome pushes the decided outcome to the settlement chain. Shadow
// markets skip the chain entirely. On failure the market stays in
// decided-pending-bridge, so a retry goes straight back here.
func (c *Coordinator) bridgeOutcome(ctx context.Context, market *models.Market, outcome models.Outcome, actingAddress string) (*string, error) {
	if !market.HasContract() {
		return nil, nil
	}

	hash, err := c.bridge.Resolve(ctx, *market.ContractAddress, outcome.Code(), actingAddress, market.CreatorAddress)
	if err != nil {
		return nil, err
	}
	return &hash, nil
}

// Claim settles the acting user's winning position. For contract-backed
// markets the escrow contract is the double-claim guard and the ledger's
// claimed flag is bookkeeping; for shadow markets the flag is the guard.
func (c *Coordinator) Claim(ctx context.Context, marketID uuid.UUID, actingAddress string) (*ClaimOutcome, error) {
	market, err := c.repo.GetMarketByID(ctx, marketID)
	if err != nil {
		return nil, err
	}
	if market.Status != models.MarketStatusResolved || market.ResolvedOutcome == models.OutcomeUndefined {
		return nil, fmt.Errorf("%w: market not resolved yet", blockchain.ErrMarketClosed)
	}

	position, err := c.repo.GetPosition(ctx, marketID, actingAddress, market.ResolvedOutcome)
	if err != nil {
		return nil, err
	}
	if position == nil || !position.Shares.IsPositive() {
		return nil, fmt.Errorf("no winning position to claim")
	}

	if market.HasContract() {
		// The contract zeroes shares atomically with paying out, so a repeat
		// claim surfaces as AlreadyClaimed from the preview read. The stored
		// flag is never the sole guard here.
		result, err := c.adapter.Claim(ctx, *market.ContractAddress, actingAddress)
		if err != nil {
			return nil, err
		}

		amount := decimal.NewFromBigInt(result.Amount, 0)
		if err := c.settlePosition(ctx, market, position, amount, &result.TxHash); err != nil {
			return nil, err
		}
		return &ClaimOutcome{Amount: amount, TxHash: &result.TxHash}, nil
	}

	if position.Claimed {
		return nil, blockchain.ErrAlreadyClaimed
	}

	amount, err := c.ledger.Entitlement(ctx, market, position)
	if err != nil {
		return nil, err
	}
	if err := c.settlePosition(ctx, market, position, amount, nil); err != nil {
		return nil, err
	}
	return &ClaimOutcome{Amount: amount}, nil
}

// settlePosition marks the position claimed and journals the claim. Runs only
// after the payout is confirmed (on-chain or derived).
func (c *Coordinator) settlePosition(ctx context.Context, market *models.Market, position *models.Position, amount decimal.Decimal, txHash *string) error {
	position.Claimed = true
	position.ClaimedAmount = amount
	if err := c.repo.SavePosition(ctx, position); err != nil {
		return fmt.Errorf("failed to mark position claimed: %w", err)
	}

	trade := &models.Trade{
		ID:          uuid.New(),
		MarketID:    market.ID,
		UserAddress: position.UserAddress,
		Side:        position.Side,
		Action:      models.TradeActionClaim,
		Shares:      position.Shares,
		Price:       decimal.NewFromInt(1),
		Amount:      amount,
		TxHash:      txHash,
		CreatedAt:   time.Now(),
	}
	if err := c.repo.CreateTrade(ctx, trade); err != nil {
		return fmt.Errorf("failed to journal claim: %w", err)
	}
	return nil
}

// UserPositions retrieves a user's positions with entitlement previews filled
// in for resolved markets.
func (c *Coordinator) UserPositions(ctx context.Context, userAddress string) ([]*models.PositionResponse, error) {
	positions, err := c.repo.ListUserPositions(ctx, userAddress)
	if err != nil {
		return nil, err
	}

	responses := make([]*models.PositionResponse, 0, len(positions))
	for _, position := range positions {
		response := &models.PositionResponse{
			ID:            position.ID.String(),
			MarketID:      position.MarketID.String(),
			UserAddress:   position.UserAddress,
			Side:          string(position.Side),
			Shares:        position.Shares,
			AvgPrice:      position.AvgPrice,
			Invested:      position.Invested,
			Claimed:       position.Claimed,
			ClaimedAmount: position.ClaimedAmount,
			Entitlement:   decimal.Zero,
			CreatedAt:     position.CreatedAt,
		}

		market, err := c.repo.GetMarketByID(ctx, position.MarketID)
		if err == nil && market.Status == models.MarketStatusResolved && !position.Claimed {
			if entitlement, err := c.ledger.Entitlement(ctx, market, position); err == nil {
				response.Entitlement = entitlement
			}
		}

		responses = append(responses, response)
	}
	return responses, nil
}

// MarketTrades retrieves a market's trade journal.
func (c *Coordinator) MarketTrades(ctx context.Context, marketID uuid.UUID, limit, offset int) ([]*models.Trade, error) {
	return c.repo.ListMarketTrades(ctx, marketID, limit, offset)
}

// EndExpiredMarkets advances open markets past their advertised end time to
// ended. Purely a database sweep; on-chain end times are re-checked by the
// bridge when resolution actually runs.
func (c *Coordinator) EndExpiredMarkets(ctx context.Context) (int, error) {
	markets, err := c.repo.ListEndableMarkets(ctx, time.Now())
	if err != nil {
		return 0, err
	}

	ended := 0
	for _, market := range markets {
		if err := c.advanceStatus(ctx, market, models.MarketStatusEnded); err != nil {
			log.Printf("[Coordinator] Failed to end market %s: %v", market.ID, err)
			continue
		}
		ended++
	}
	return ended, nil
}

// advanceStatus moves a market forward in the lifecycle, enforcing
// monotonicity.
func (c *Coordinator) advanceStatus(ctx context.Context, market *models.Market, next models.MarketStatus) error {
	if !market.Status.CanAdvanceTo(next) {
		return fmt.Errorf("cannot move market %s from %s back to %s", market.ID, market.Status, next)
	}
	if market.Status == next {
		return nil
	}
	market.Status = next
	return c.repo.UpdateMarket(ctx, market)
}

func equalAddress(a, b string) bool {
	return blockchain.NormalizeAddress(a) == blockchain.NormalizeAddress(b)
}
