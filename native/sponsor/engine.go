package sponsor

import (
	"encoding/hex"
	"errors"
	"math/big"
	"strconv"
	"time"

	"autonchain/core/events"
)

var (
	errNilState = errors.New("sponsor engine: state not configured")
	// ErrUnauthorized is returned when the signer is not the vault's signing
	// authority.
	ErrUnauthorized = errors.New("sponsor engine: unauthorized")
	// ErrVaultWalletNotSet is returned when the engine has no vault wallet
	// configured to fund sponsorships.
	ErrVaultWalletNotSet = errors.New("sponsor engine: vault wallet not configured")
	// ErrUserNotFound is returned when no sponsored-user record exists for
	// the target address.
	ErrUserNotFound = errors.New("sponsor engine: sponsored user not initialized")
	// ErrAlreadySponsored is returned on a re-sponsorship attempt.
	ErrAlreadySponsored = errors.New("sponsor engine: user already sponsored")
	// ErrAmountTooLarge is returned when the sponsorship exceeds the cap.
	ErrAmountTooLarge = errors.New("sponsor engine: amount exceeds cap")
)

// MaxSponsorshipAmount caps a single sponsorship in native units.
const MaxSponsorshipAmount = 10_000_000

type engineState interface {
	SponsoredCreate(rec *SponsoredUserRecord) error
	SponsoredGet(user [20]byte) (*SponsoredUserRecord, bool, error)
	SponsoredPut(rec *SponsoredUserRecord) error
	Transfer(from [20]byte, to [20]byte, amount *big.Int) error
}

// Engine implements the one-shot sponsorship gate for new users.
type Engine struct {
	state       engineState
	emitter     events.Emitter
	nowFn       func() int64
	vaultWallet [20]byte
}

// NewEngine constructs a sponsor engine with default dependencies.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn: func() int64 {
			return time.Now().Unix()
		},
	}
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

// SetNowFunc overrides the time source used for deterministic testing.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetVaultWallet configures the wallet that funds and authorizes sponsorships.
func (e *Engine) SetVaultWallet(addr [20]byte) { e.vaultWallet = addr }

func (e *Engine) emit(evt events.Event) {
	if e == nil || evt == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(evt)
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func hexAddr(addr [20]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}

func isZeroAddress(addr [20]byte) bool {
	var zero [20]byte
	return addr == zero
}

// InitializeSponsoredUser creates the per-user sponsorship record with the
// flag unset. Re-invocation collides at the derived key.
func (e *Engine) InitializeSponsoredUser(user [20]byte) (*SponsoredUserRecord, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	rec := &SponsoredUserRecord{User: user, Sponsored: false, SponsoredAt: 0, Amount: 0}
	if err := e.state.SponsoredCreate(rec); err != nil {
		return nil, err
	}
	return rec.Clone(), nil
}

// SponsorUser moves amount from the vault wallet to the user and marks the
// record sponsored. The operation is one-shot: a sponsored user can never be
// sponsored again.
func (e *Engine) SponsorUser(signer [20]byte, user [20]byte, amount uint64) (*SponsoredUserRecord, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if isZeroAddress(e.vaultWallet) {
		return nil, ErrVaultWalletNotSet
	}
	if signer != e.vaultWallet {
		return nil, ErrUnauthorized
	}
	rec, ok, err := e.state.SponsoredGet(user)
	if err != nil {
		return nil, err
	}
	if !ok || rec == nil {
		return nil, ErrUserNotFound
	}
	if rec.Sponsored {
		return nil, ErrAlreadySponsored
	}
	if amount > MaxSponsorshipAmount {
		return nil, ErrAmountTooLarge
	}
	if err := e.state.Transfer(e.vaultWallet, user, new(big.Int).SetUint64(amount)); err != nil {
		return nil, err
	}
	// Re-assert the gate right before flipping it; the access check above and
	// this assertion are intentionally redundant.
	if rec.Sponsored {
		return nil, ErrAlreadySponsored
	}
	rec.Sponsored = true
	rec.SponsoredAt = uint64(e.now())
	rec.Amount = amount
	if err := e.state.SponsoredPut(rec); err != nil {
		return nil, err
	}
	e.emit(UserSponsoredEvent(hexAddr(user), strconv.FormatUint(amount, 10)))
	return rec.Clone(), nil
}
