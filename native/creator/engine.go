package creator

import (
	"encoding/hex"
	"errors"
	"math/big"
	"regexp"
	"strconv"

	"autonchain/core/events"
)

var (
	errNilState = errors.New("creator engine: state not configured")
	// ErrInvalidUsername is returned when a username violates the length or
	// charset constraints.
	ErrInvalidUsername = errors.New("creator engine: invalid username")
	// ErrUnauthorized is returned when the signer does not match the stored
	// creator wallet.
	ErrUnauthorized = errors.New("creator engine: unauthorized")
	// ErrCreatorNotFound is returned when no creator account exists for the
	// requested address.
	ErrCreatorNotFound = errors.New("creator engine: creator not found")
	// ErrContentNotFound is returned when the requested content id is not in
	// the creator's catalog.
	ErrContentNotFound = errors.New("creator engine: content not found")
	// ErrContentTooLarge is returned when a title or payload locator exceeds
	// the per-item storage allowance.
	ErrContentTooLarge = errors.New("creator engine: content exceeds storage budget")
)

const (
	usernameMinLength = 3
	usernameMaxLength = 32
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// ValidateUsername checks the 3..32 length bound and the
// alphanumeric-or-underscore charset.
func ValidateUsername(username string) error {
	if len(username) < usernameMinLength || len(username) > usernameMaxLength {
		return ErrInvalidUsername
	}
	if !usernamePattern.MatchString(username) {
		return ErrInvalidUsername
	}
	return nil
}

type engineState interface {
	UsernameCreate(rec *UsernameRecord) error
	CreatorCreate(acc *CreatorAccount) error
	CreatorGet(addr [20]byte) (*CreatorAccount, bool, error)
	CreatorPut(acc *CreatorAccount) error
	ReceiptCreate(rec *PaidAccessReceipt) error
	SetAccountUsername(addr [20]byte, username string) error
	Transfer(from [20]byte, to [20]byte, amount *big.Int) error
}

// Engine wires the registry and catalog business logic with persistence and
// event emission.
type Engine struct {
	state   engineState
	emitter events.Emitter
}

// NewEngine constructs a creator engine with default dependencies.
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

// RegisterUsername claims a username for the signer. Uniqueness is enforced
// solely by the create-if-absent write: a second claim of the same name fails
// with the store's collision error, not with a named lookup failure.
func (e *Engine) RegisterUsername(signer [20]byte, username string) (*UsernameRecord, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	rec := &UsernameRecord{Owner: signer, Username: username}
	if err := e.state.UsernameCreate(rec); err != nil {
		return nil, err
	}
	if err := e.state.SetAccountUsername(signer, username); err != nil {
		return nil, err
	}
	e.emit(UsernameRegisteredEvent(username, hexAddr(signer)))
	return rec, nil
}

// InitializeCreator bootstraps the signer's catalog account. Re-invocation
// collides at the derived key.
func (e *Engine) InitializeCreator(signer [20]byte) (*CreatorAccount, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	acc := &CreatorAccount{Creator: signer, LastContentID: 0, Content: []ContentItem{}}
	if err := e.state.CreatorCreate(acc); err != nil {
		return nil, err
	}
	e.emit(CreatorInitializedEvent(hexAddr(signer)))
	return acc, nil
}

// AddContent appends a new item to the signer's catalog with the next
// monotonic id.
func (e *Engine) AddContent(signer [20]byte, title string, price uint64, locator []byte) (*ContentItem, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	acc, ok, err := e.state.CreatorGet(signer)
	if err != nil {
		return nil, err
	}
	if !ok || acc == nil {
		return nil, ErrCreatorNotFound
	}
	if acc.Creator != signer {
		return nil, ErrUnauthorized
	}
	if len(title) > MaxTitleBytes || len(locator) > MaxLocatorBytes {
		return nil, ErrContentTooLarge
	}
	acc.LastContentID++
	item := ContentItem{
		ID:             acc.LastContentID,
		Title:          title,
		Price:          price,
		PayloadLocator: append([]byte(nil), locator...),
	}
	acc.Content = append(acc.Content, item)
	if err := e.state.CreatorPut(acc); err != nil {
		return nil, err
	}
	e.emit(ContentAddedEvent(hexAddr(signer), strconv.FormatUint(item.ID, 10), title, strconv.FormatUint(price, 10)))
	return item.Clone(), nil
}

// ProcessPayment settles a purchase: the price moves from the buyer to the
// wallet stored in the creator account (never a caller-supplied address) and
// a receipt is created at the (buyer, contentID) key. A repeat purchase
// collides at receipt creation, which is the only double-payment guard.
func (e *Engine) ProcessPayment(buyer [20]byte, creatorAddr [20]byte, contentID uint64) (*ContentItem, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	acc, ok, err := e.state.CreatorGet(creatorAddr)
	if err != nil {
		return nil, err
	}
	if !ok || acc == nil {
		return nil, ErrCreatorNotFound
	}
	// Per-creator catalogs are small, so a linear scan beats an index.
	var item *ContentItem
	for i := range acc.Content {
		if acc.Content[i].ID == contentID {
			item = &acc.Content[i]
			break
		}
	}
	if item == nil {
		return nil, ErrContentNotFound
	}
	amount := new(big.Int).SetUint64(item.Price)
	if err := e.state.Transfer(buyer, acc.Creator, amount); err != nil {
		return nil, err
	}
	if err := e.state.ReceiptCreate(&PaidAccessReceipt{Buyer: buyer, ContentID: contentID}); err != nil {
		return nil, err
	}
	e.emit(ContentPaidEvent(hexAddr(buyer), hexAddr(acc.Creator), strconv.FormatUint(contentID, 10), amount.String()))
	return item.Clone(), nil
}
