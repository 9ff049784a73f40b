// Package orchestrator drives the dual-mode grant/redeem transaction
// state machine. Submissions are strictly serialized; precondition
// violations are caught before any network call; a result belonging to a
// superseded submission is ignored rather than applied.
package orchestrator

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"venuepoint-terminal/internal/guard"
	"venuepoint-terminal/internal/journal"
	"venuepoint-terminal/internal/ledger"
	"venuepoint-terminal/internal/model"
	"venuepoint-terminal/pkg/uid"
)

// State is the orchestrator's position in one transaction attempt.
type State string

const (
	StateIdle        State = "idle"
	StateIdentifying State = "identifying"
	StateIdentified  State = "identified"
	StateSubmitting  State = "submitting"
	StateResult      State = "result"
)

// Client-side precondition violations. None of these reach the network.
var (
	ErrNoCustomer                 = errors.New("no customer identified")
	ErrWrongMode                  = errors.New("field does not belong to the active mode")
	ErrInvalidAmount              = errors.New("purchase amount must be positive")
	ErrInvalidPoints              = errors.New("points must be positive")
	ErrRechargeRequired           = errors.New("merchant point balance exhausted: recharge required")
	ErrInsufficientCustomerPoints = errors.New("requested points exceed the customer's balance")
	ErrSubmissionInFlight         = errors.New("a submission is already in flight")
)

// GrantForm holds the pending grant request fields.
type GrantForm struct {
	Amount decimal.Decimal `json:"amount"`
	Note   string          `json:"note,omitempty"`
}

// RedeemForm holds the pending redeem request fields.
type RedeemForm struct {
	Points int    `json:"points"`
	Note   string `json:"note,omitempty"`
}

// Result is the surfaced outcome of one submission. It is never persisted
// beyond display; the next identification discards it.
type Result struct {
	Success            bool            `json:"success"`
	Mode               model.Mode      `json:"mode"`
	PointsDelta        int             `json:"points_delta"`
	NewCustomerBalance int             `json:"new_customer_balance,omitempty"`
	NewMerchantBalance int64           `json:"new_merchant_balance,omitempty"`
	DiscountValue      decimal.Decimal `json:"discount_value,omitempty"`
	Advisory           string          `json:"advisory,omitempty"`
	FailureReason      string          `json:"failure_reason,omitempty"`
}

// Orchestrator is the per-terminal transaction controller. The two modes
// never share form state: exactly one of grant/redeem is non-nil, matching
// the active mode.
type Orchestrator struct {
	ledger  ledger.Ledger
	guard   *guard.Guard
	journal journal.Repository // optional; failures are logged, never fatal

	mu         sync.Mutex
	state      State
	mode       model.Mode
	customer   *model.Customer
	grant      *GrantForm
	redeem     *RedeemForm
	gen        int64 // bumped on reset/mode switch/re-identify; stale submissions check it
	lastResult *Result
}

// New creates an orchestrator starting in grant mode, idle.
func New(backend ledger.Ledger, balanceGuard *guard.Guard, journalRepo journal.Repository) *Orchestrator {
	return &Orchestrator{
		ledger:  backend,
		guard:   balanceGuard,
		journal: journalRepo,
		state:   StateIdle,
		mode:    model.ModeGrant,
		grant:   &GrantForm{},
	}
}

// State returns the current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Mode returns the active mode.
func (o *Orchestrator) Mode() model.Mode {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.mode
}

// Customer returns the currently held identity, or nil.
func (o *Orchestrator) Customer() *model.Customer {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.customer
}

// LastResult returns the most recent surfaced result, or nil.
func (o *Orchestrator) LastResult() *Result {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastResult
}

// BeginIdentifying marks that identification input is being gathered.
func (o *Orchestrator) BeginIdentifying() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state == StateIdle || o.state == StateResult {
		o.state = StateIdentifying
		o.lastResult = nil
	}
}

// SetCustomer installs or clears the resolved identity. Wired to the
// resolver's change callback. Replacing the identity supersedes any
// in-flight submission's result.
func (o *Orchestrator) SetCustomer(customer *model.Customer) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.gen++
	o.customer = customer
	o.lastResult = nil

	if customer != nil {
		o.state = StateIdentified
		return
	}

	// Identity cleared: pending request construction is void.
	o.clearFormsLocked()
	o.state = StateIdle
}

// SwitchMode activates grant or redeem. Switching resets to idle and
// clears the form and any held identity; the modes never share
// partially-filled state.
func (o *Orchestrator) SwitchMode(mode model.Mode) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if mode == o.mode {
		return
	}

	o.gen++
	o.mode = mode
	o.customer = nil
	o.lastResult = nil
	o.clearFormsLocked()
	o.state = StateIdle
}

// Reset starts a new transaction: back to idle with everything cleared.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.gen++
	o.customer = nil
	o.lastResult = nil
	o.clearFormsLocked()
	o.state = StateIdle
}

// clearFormsLocked reinstalls an empty form for the active mode.
func (o *Orchestrator) clearFormsLocked() {
	o.grant = nil
	o.redeem = nil
	if o.mode == model.ModeGrant {
		o.grant = &GrantForm{}
	} else {
		o.redeem = &RedeemForm{}
	}
}

// SetAmount sets the purchase amount on the grant form. Requires a
// resolved identity (a request may only be constructed while one is held).
func (o *Orchestrator) SetAmount(amount decimal.Decimal) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.mode != model.ModeGrant || o.grant == nil {
		return ErrWrongMode
	}
	if o.customer == nil {
		return ErrNoCustomer
	}
	o.grant.Amount = amount
	return nil
}

// SetPoints sets the points to redeem, clamped to the customer's balance.
// Returns the value actually stored.
func (o *Orchestrator) SetPoints(points int) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.mode != model.ModeRedeem || o.redeem == nil {
		return 0, ErrWrongMode
	}
	if o.customer == nil {
		return 0, ErrNoCustomer
	}

	if points < 0 {
		points = 0
	}
	if points > o.customer.PointBalance {
		points = o.customer.PointBalance
	}
	o.redeem.Points = points
	return points, nil
}

// SetNote attaches a note to the active form.
func (o *Orchestrator) SetNote(note string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch {
	case o.mode == model.ModeGrant && o.grant != nil:
		o.grant.Note = note
	case o.mode == model.ModeRedeem && o.redeem != nil:
		o.redeem.Note = note
	default:
		return ErrWrongMode
	}
	return nil
}

// CanSubmit reports whether the submit affordance should be enabled, with
// the blocking advisory when it should not. The merchant-balance check
// applies to grant mode only; redemption draws from the customer's balance.
func (o *Orchestrator) CanSubmit() (bool, string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state == StateSubmitting {
		return false, "A transaction is being submitted."
	}
	if o.customer == nil {
		return false, "Identify a customer first."
	}

	switch o.mode {
	case model.ModeGrant:
		if o.guard != nil && !o.guard.CanGrant() {
			return false, ErrRechargeRequired.Error()
		}
		if o.grant == nil || !o.grant.Amount.IsPositive() {
			return false, "Enter a purchase amount."
		}
	case model.ModeRedeem:
		if o.redeem == nil || o.redeem.Points <= 0 {
			return false, "Enter points to redeem."
		}
	}
	return true, ""
}

// Submit validates preconditions, issues exactly one request, and
// interprets the outcome. Exactly one submission may be in flight; a
// concurrent call gets ErrSubmissionInFlight. Once issued there is no
// cancellation: the operator waits for settlement.
func (o *Orchestrator) Submit(ctx context.Context) (*Result, error) {
	o.mu.Lock()

	if o.state == StateSubmitting {
		o.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	if o.customer == nil {
		o.mu.Unlock()
		return nil, ErrNoCustomer
	}

	mode := o.mode
	customer := o.customer

	var grantReq model.GrantRequest
	var redeemReq model.RedeemRequest

	switch mode {
	case model.ModeGrant:
		if o.grant == nil || !o.grant.Amount.IsPositive() {
			o.mu.Unlock()
			return nil, ErrInvalidAmount
		}
		if o.guard != nil && !o.guard.CanGrant() {
			// Blocked client-side: the network call is never attempted.
			o.mu.Unlock()
			return nil, ErrRechargeRequired
		}
		grantReq = model.GrantRequest{
			CustomerPhone:  customer.Phone,
			PurchaseAmount: o.grant.Amount,
			Note:           o.grant.Note,
		}
	case model.ModeRedeem:
		if o.redeem == nil || o.redeem.Points <= 0 {
			o.mu.Unlock()
			return nil, ErrInvalidPoints
		}
		// Re-checked at submit time: the balance may have changed since
		// the form was filled.
		if o.redeem.Points > customer.PointBalance {
			o.mu.Unlock()
			return nil, ErrInsufficientCustomerPoints
		}
		redeemReq = model.RedeemRequest{
			CustomerID: customer.ID,
			Points:     o.redeem.Points,
			Note:       o.redeem.Note,
		}
	}

	gen := o.gen
	o.state = StateSubmitting
	o.mu.Unlock()

	// Whatever happens below, the orchestrator never stays in Submitting:
	// failure paths land back in Identified so the operator can correct
	// and resubmit without re-identifying.
	defer func() {
		o.mu.Lock()
		if o.gen == gen && o.state == StateSubmitting {
			o.state = StateIdentified
		}
		o.mu.Unlock()
	}()

	started := time.Now()
	var result *Result
	var err error

	if mode == model.ModeGrant {
		result, err = o.submitGrant(ctx, gen, grantReq)
	} else {
		result, err = o.submitRedeem(ctx, gen, redeemReq)
	}

	o.record(mode, customer.ID, grantReq, redeemReq, err, time.Since(started))

	if err != nil {
		return nil, err
	}
	return result, nil
}

func (o *Orchestrator) submitGrant(ctx context.Context, gen int64, req model.GrantRequest) (*Result, error) {
	res, err := o.ledger.GrantPoints(ctx, req)

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.gen != gen {
		// Superseded by reset/mode switch/re-identify while in flight.
		return nil, context.Canceled
	}

	if err != nil {
		o.state = StateIdentified
		return nil, err
	}

	result := &Result{
		Success:            true,
		Mode:               model.ModeGrant,
		PointsDelta:        res.PointsGranted,
		NewCustomerBalance: res.NewCustomerBalance,
		NewMerchantBalance: res.NewMerchantBalance,
		Advisory:           res.Advisory,
	}
	o.lastResult = result
	o.state = StateResult

	if o.customer != nil {
		o.customer.PointBalance = res.NewCustomerBalance
	}

	if o.guard != nil {
		// Authoritative merchant balance from the response; the guard
		// never derives it locally.
		o.guard.ApplyGrantResult(res)
	}
	return result, nil
}

func (o *Orchestrator) submitRedeem(ctx context.Context, gen int64, req model.RedeemRequest) (*Result, error) {
	res, err := o.ledger.RedeemPoints(ctx, req)

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.gen != gen {
		return nil, context.Canceled
	}

	if err != nil {
		o.state = StateIdentified
		return nil, err
	}

	result := &Result{
		Success:            true,
		Mode:               model.ModeRedeem,
		PointsDelta:        -res.PointsRedeemed,
		NewCustomerBalance: res.NewCustomerBalance,
		DiscountValue:      res.DiscountValue,
		Advisory:           res.Advisory,
	}
	o.lastResult = result
	o.state = StateResult

	// Optimistic local decrement: the customer balance is re-fetched
	// fresh on the next identification anyway.
	if o.customer != nil {
		o.customer.PointBalance -= res.PointsRedeemed
	}
	return result, nil
}

// record writes a journal entry for the attempt. Journal failures are
// logged and swallowed; the journal is history, not a ledger.
func (o *Orchestrator) record(mode model.Mode, customerID string, grantReq model.GrantRequest, redeemReq model.RedeemRequest, submitErr error, took time.Duration) {
	if o.journal == nil {
		return
	}

	entry := &model.JournalEntry{
		ID:         uid.New(),
		Mode:       mode,
		CustomerID: customerID,
		Status:     model.JournalStatusSuccess,
		DurationMs: took.Milliseconds(),
		CreatedAt:  time.Now().UTC(),
	}
	if mode == model.ModeGrant {
		entry.Amount = grantReq.PurchaseAmount
	} else {
		entry.Points = redeemReq.Points
	}
	if submitErr != nil {
		entry.Status = model.JournalStatusFailed
		entry.FailureReason = submitErr.Error()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := o.journal.Insert(ctx, entry); err != nil {
		log.Printf("[Orchestrator] journal write failed: %v", err)
	}
}
