package vault

import (
	"encoding/hex"
	"errors"
	"math/big"
	"strconv"

	"autonchain/core/events"
)

var (
	errNilState = errors.New("vault engine: state not configured")
	// ErrUnauthorized is returned when the signer is not the current admin.
	ErrUnauthorized = errors.New("vault engine: unauthorized")
	// ErrNotInitialized is returned when the singleton has not been created.
	ErrNotInitialized = errors.New("vault engine: vault not initialized")
	// ErrInvalidFee is returned when a fee exceeds 100%.
	ErrInvalidFee = errors.New("vault engine: invalid fee percentage")
	// ErrAmountTooLarge is returned when a sponsorship amount exceeds the cap.
	ErrAmountTooLarge = errors.New("vault engine: amount too large")
	// ErrInsufficientBalance is returned when a withdrawal would breach the
	// reserve floor.
	ErrInsufficientBalance = errors.New("vault engine: insufficient vault balance")
)

const (
	// MaxFeeBps is 100% expressed in basis points.
	MaxFeeBps = 10_000
	// MaxSponsorshipAmount caps the per-user sponsorship parameter.
	MaxSponsorshipAmount = 10_000_000
)

// reserveFloor is the balance the vault wallet must retain after any
// withdrawal, in native units.
var reserveFloor = big.NewInt(5_000_000_000)

type engineState interface {
	VaultCreate(state *State) error
	VaultGet() (*State, bool, error)
	VaultPut(state *State) error
	BalanceOf(addr [20]byte) (*big.Int, error)
	Transfer(from [20]byte, to [20]byte, amount *big.Int) error
}

// Engine implements the treasury and governance state machine.
type Engine struct {
	state   engineState
	emitter events.Emitter
}

// NewEngine constructs a vault engine with default dependencies.
func NewEngine() *Engine {
	return &Engine{emitter: events.NoopEmitter{}}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) emit(evt events.Event) {
	if e == nil || evt == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(evt)
}

func hexAddr(addr [20]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}

func (e *Engine) load() (*State, error) {
	state, ok, err := e.state.VaultGet()
	if err != nil {
		return nil, err
	}
	if !ok || state == nil || !state.Initialized {
		return nil, ErrNotInitialized
	}
	if state.TotalCollected == nil {
		state.TotalCollected = big.NewInt(0)
	}
	if state.TotalSponsored == nil {
		state.TotalSponsored = big.NewInt(0)
	}
	return state, nil
}

func (e *Engine) loadAdmin(signer [20]byte) (*State, error) {
	state, err := e.load()
	if err != nil {
		return nil, err
	}
	if state.Admin != signer {
		return nil, ErrUnauthorized
	}
	return state, nil
}

// InitializeVault creates the singleton at its fixed key. A second
// initialization collides at the store.
func (e *Engine) InitializeVault(admin [20]byte, vaultWallet [20]byte, feeBps uint64, sponsorshipAmount uint64) (*State, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if feeBps > MaxFeeBps {
		return nil, ErrInvalidFee
	}
	if sponsorshipAmount > MaxSponsorshipAmount {
		return nil, ErrAmountTooLarge
	}
	state := &State{
		VaultWallet:       vaultWallet,
		Admin:             admin,
		FeeBps:            feeBps,
		SponsorshipAmount: sponsorshipAmount,
		TotalCollected:    big.NewInt(0),
		TotalSponsored:    big.NewInt(0),
		Initialized:       true,
	}
	if err := e.state.VaultCreate(state); err != nil {
		return nil, err
	}
	e.emit(VaultInitializedEvent(hexAddr(admin), hexAddr(vaultWallet)))
	return state.Clone(), nil
}

// Info returns the current vault state without mutating it.
func (e *Engine) Info() (*State, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	state, err := e.load()
	if err != nil {
		return nil, err
	}
	return state.Clone(), nil
}

// UpdateAdmin transfers governance authority to a new admin.
func (e *Engine) UpdateAdmin(signer [20]byte, newAdmin [20]byte) (*State, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	state, err := e.loadAdmin(signer)
	if err != nil {
		return nil, err
	}
	state.Admin = newAdmin
	if err := e.state.VaultPut(state); err != nil {
		return nil, err
	}
	e.emit(AdminUpdatedEvent(hexAddr(newAdmin)))
	return state.Clone(), nil
}

// UpdateFeeBps sets the platform fee in basis points.
func (e *Engine) UpdateFeeBps(signer [20]byte, feeBps uint64) (*State, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	state, err := e.loadAdmin(signer)
	if err != nil {
		return nil, err
	}
	if feeBps > MaxFeeBps {
		return nil, ErrInvalidFee
	}
	state.FeeBps = feeBps
	if err := e.state.VaultPut(state); err != nil {
		return nil, err
	}
	e.emit(FeeUpdatedEvent(strconv.FormatUint(feeBps, 10)))
	return state.Clone(), nil
}

// UpdateSponsorshipAmount sets the per-user sponsorship parameter.
func (e *Engine) UpdateSponsorshipAmount(signer [20]byte, amount uint64) (*State, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	state, err := e.loadAdmin(signer)
	if err != nil {
		return nil, err
	}
	if amount > MaxSponsorshipAmount {
		return nil, ErrAmountTooLarge
	}
	state.SponsorshipAmount = amount
	if err := e.state.VaultPut(state); err != nil {
		return nil, err
	}
	e.emit(SponsorshipAmountUpdatedEvent(strconv.FormatUint(amount, 10)))
	return state.Clone(), nil
}

// CollectFees moves the floored basis-point share of amount from the payer to
// the vault wallet and accumulates it into TotalCollected. It performs no
// caller authorization: it is meant to run inside the same transaction as the
// payment that produced the amount.
func (e *Engine) CollectFees(payer [20]byte, amount uint64) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	state, err := e.load()
	if err != nil {
		return nil, err
	}
	fee := new(big.Int).SetUint64(amount)
	fee = fee.Mul(fee, new(big.Int).SetUint64(state.FeeBps))
	fee = fee.Div(fee, big.NewInt(10_000))
	if fee.Sign() > 0 {
		if err := e.state.Transfer(payer, state.VaultWallet, fee); err != nil {
			return nil, err
		}
	}
	state.TotalCollected = new(big.Int).Add(state.TotalCollected, fee)
	if err := e.state.VaultPut(state); err != nil {
		return nil, err
	}
	e.emit(FeesCollectedEvent(hexAddr(payer), fee.String()))
	return fee, nil
}

// Withdraw moves funds out of the vault wallet while keeping the reserve
// floor intact.
func (e *Engine) Withdraw(signer [20]byte, amount uint64, recipient [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	state, err := e.loadAdmin(signer)
	if err != nil {
		return err
	}
	balance, err := e.state.BalanceOf(state.VaultWallet)
	if err != nil {
		return err
	}
	value := new(big.Int).SetUint64(amount)
	remaining := new(big.Int).Sub(balance, value)
	if remaining.Cmp(reserveFloor) < 0 {
		return ErrInsufficientBalance
	}
	if err := e.state.Transfer(state.VaultWallet, recipient, value); err != nil {
		return err
	}
	e.emit(WithdrawnEvent(hexAddr(recipient), value.String()))
	return nil
}

// RecordSponsorship accumulates a sponsorship into TotalSponsored. Like
// CollectFees it trusts the transaction context and performs no caller
// authorization.
func (e *Engine) RecordSponsorship(amount uint64) (*State, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	state, err := e.load()
	if err != nil {
		return nil, err
	}
	state.TotalSponsored = new(big.Int).Add(state.TotalSponsored, new(big.Int).SetUint64(amount))
	if err := e.state.VaultPut(state); err != nil {
		return nil, err
	}
	e.emit(SponsorshipRecordedEvent(strconv.FormatUint(amount, 10)))
	return state.Clone(), nil
}
