package creator

import (
	"bytes"
	"errors"
	"math/big"
	"strconv"
	"strings"
	"testing"
)

var (
	errMockExists       = errors.New("mock: record already exists")
	errMockInsufficient = errors.New("mock: insufficient funds")
)

type mockState struct {
	usernames map[string]*UsernameRecord
	creators  map[[20]byte]*CreatorAccount
	receipts  map[string]*PaidAccessReceipt
	balances  map[[20]byte]*big.Int
	accNames  map[[20]byte]string
}

func newMockState() *mockState {
	return &mockState{
		usernames: make(map[string]*UsernameRecord),
		creators:  make(map[[20]byte]*CreatorAccount),
		receipts:  make(map[string]*PaidAccessReceipt),
		balances:  make(map[[20]byte]*big.Int),
		accNames:  make(map[[20]byte]string),
	}
}

func (m *mockState) UsernameCreate(rec *UsernameRecord) error {
	if _, ok := m.usernames[rec.Username]; ok {
		return errMockExists
	}
	clone := *rec
	m.usernames[rec.Username] = &clone
	return nil
}

func (m *mockState) CreatorCreate(acc *CreatorAccount) error {
	if _, ok := m.creators[acc.Creator]; ok {
		return errMockExists
	}
	m.creators[acc.Creator] = acc.Clone()
	return nil
}

func (m *mockState) CreatorGet(addr [20]byte) (*CreatorAccount, bool, error) {
	acc, ok := m.creators[addr]
	if !ok {
		return nil, false, nil
	}
	return acc.Clone(), true, nil
}

func (m *mockState) CreatorPut(acc *CreatorAccount) error {
	m.creators[acc.Creator] = acc.Clone()
	return nil
}

func receiptKey(buyer [20]byte, contentID uint64) string {
	return string(buyer[:]) + ":" + strconv.FormatUint(contentID, 10)
}

func (m *mockState) ReceiptCreate(rec *PaidAccessReceipt) error {
	key := receiptKey(rec.Buyer, rec.ContentID)
	if _, ok := m.receipts[key]; ok {
		return errMockExists
	}
	clone := *rec
	m.receipts[key] = &clone
	return nil
}

func (m *mockState) SetAccountUsername(addr [20]byte, username string) error {
	m.accNames[addr] = username
	return nil
}

func (m *mockState) Transfer(from [20]byte, to [20]byte, amount *big.Int) error {
	balance := m.balance(from)
	if balance.Cmp(amount) < 0 {
		return errMockInsufficient
	}
	m.balances[from] = new(big.Int).Sub(balance, amount)
	m.balances[to] = new(big.Int).Add(m.balance(to), amount)
	return nil
}

func (m *mockState) balance(addr [20]byte) *big.Int {
	if b, ok := m.balances[addr]; ok {
		return new(big.Int).Set(b)
	}
	return big.NewInt(0)
}

func (m *mockState) setBalance(addr [20]byte, amount int64) {
	m.balances[addr] = big.NewInt(amount)
}

func sumBalances(state *mockState, addrs ...[20]byte) *big.Int {
	total := big.NewInt(0)
	for _, addr := range addrs {
		total = new(big.Int).Add(total, state.balance(addr))
	}
	return total
}

func addr(last byte) [20]byte {
	var out [20]byte
	out[19] = last
	return out
}

func newTestEngine(state *mockState) *Engine {
	engine := NewEngine()
	engine.SetState(state)
	return engine
}

func TestRegisterUsernameValidation(t *testing.T) {
	engine := newTestEngine(newMockState())
	owner := addr(0x01)

	invalid := []string{
		"ab",
		strings.Repeat("x", 33),
		"has space",
		"dash-name",
		"dot.name",
		"",
	}
	for _, username := range invalid {
		if _, err := engine.RegisterUsername(owner, username); !errors.Is(err, ErrInvalidUsername) {
			t.Fatalf("username %q: expected ErrInvalidUsername, got %v", username, err)
		}
	}

	valid := []string{"abc", strings.Repeat("y", 32), "Creator_01"}
	for _, username := range valid {
		if _, err := engine.RegisterUsername(owner, username); err != nil {
			t.Fatalf("username %q: unexpected error %v", username, err)
		}
	}
}

func TestRegisterUsernameDuplicateCollides(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)

	if _, err := engine.RegisterUsername(addr(0x01), "alice"); err != nil {
		t.Fatalf("first claim failed: %v", err)
	}
	if _, err := engine.RegisterUsername(addr(0x02), "alice"); !errors.Is(err, errMockExists) {
		t.Fatalf("expected store collision for second claim, got %v", err)
	}
}

func TestRegisterUsernameMirrorsOntoAccount(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)
	owner := addr(0x05)

	if _, err := engine.RegisterUsername(owner, "bob_99"); err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if got := state.accNames[owner]; got != "bob_99" {
		t.Fatalf("account username not mirrored: %q", got)
	}
}

func TestInitializeCreatorCollides(t *testing.T) {
	engine := newTestEngine(newMockState())
	creatorAddr := addr(0x03)

	acc, err := engine.InitializeCreator(creatorAddr)
	if err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	if acc.LastContentID != 0 || len(acc.Content) != 0 {
		t.Fatalf("unexpected fresh account: %+v", acc)
	}
	if _, err := engine.InitializeCreator(creatorAddr); !errors.Is(err, errMockExists) {
		t.Fatalf("expected collision on re-initialization, got %v", err)
	}
}

func TestAddContentSequencesIDs(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)
	creatorAddr := addr(0x04)

	if _, err := engine.InitializeCreator(creatorAddr); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	titles := []string{"zebra", "apple", "mango"}
	prices := []uint64{900, 5, 42}
	for i := range titles {
		item, err := engine.AddContent(creatorAddr, titles[i], prices[i], []byte{byte(i)})
		if err != nil {
			t.Fatalf("add %q failed: %v", titles[i], err)
		}
		if item.ID != uint64(i+1) {
			t.Fatalf("expected id %d, got %d", i+1, item.ID)
		}
	}

	acc, _, err := state.CreatorGet(creatorAddr)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	for i := range titles {
		if acc.Content[i].ID != uint64(i+1) || acc.Content[i].Title != titles[i] {
			t.Fatalf("insertion order broken at %d: %+v", i, acc.Content[i])
		}
	}
}

func TestAddContentAuthorization(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)

	if _, err := engine.AddContent(addr(0x06), "t", 1, nil); !errors.Is(err, ErrCreatorNotFound) {
		t.Fatalf("expected ErrCreatorNotFound, got %v", err)
	}

	// A catalog whose stored wallet differs from the signer must refuse the
	// append even though the record resolved.
	state.creators[addr(0x07)] = &CreatorAccount{Creator: addr(0x08)}
	if _, err := engine.AddContent(addr(0x07), "t", 1, nil); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestAddContentSizeCaps(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)
	creatorAddr := addr(0x09)
	if _, err := engine.InitializeCreator(creatorAddr); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}

	if _, err := engine.AddContent(creatorAddr, strings.Repeat("a", MaxTitleBytes+1), 1, nil); !errors.Is(err, ErrContentTooLarge) {
		t.Fatalf("oversized title accepted: %v", err)
	}
	if _, err := engine.AddContent(creatorAddr, "ok", 1, bytes.Repeat([]byte{0xFF}, MaxLocatorBytes+1)); !errors.Is(err, ErrContentTooLarge) {
		t.Fatalf("oversized locator accepted: %v", err)
	}
	if _, err := engine.AddContent(creatorAddr, strings.Repeat("a", MaxTitleBytes), 1, bytes.Repeat([]byte{0xFF}, MaxLocatorBytes)); err != nil {
		t.Fatalf("max-size content rejected: %v", err)
	}
}

func TestProcessPaymentNotFound(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)
	creatorAddr := addr(0x0A)
	buyer := addr(0x0B)
	state.setBalance(buyer, 1_000)

	if _, err := engine.ProcessPayment(buyer, creatorAddr, 1); !errors.Is(err, ErrCreatorNotFound) {
		t.Fatalf("expected ErrCreatorNotFound, got %v", err)
	}

	if _, err := engine.InitializeCreator(creatorAddr); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	if _, err := engine.AddContent(creatorAddr, "post", 100, nil); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if _, err := engine.ProcessPayment(buyer, creatorAddr, 42); !errors.Is(err, ErrContentNotFound) {
		t.Fatalf("expected ErrContentNotFound, got %v", err)
	}
	if state.balance(buyer).Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("balance changed on failed payment: %s", state.balance(buyer))
	}
}

func TestProcessPaymentMovesFundsAndWritesReceipt(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)
	creatorAddr := addr(0x0C)
	buyer := addr(0x0D)
	state.setBalance(buyer, 10_000_000)

	if _, err := engine.InitializeCreator(creatorAddr); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	if _, err := engine.AddContent(creatorAddr, "post", 5_000_000, []byte{0x01}); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	before := sumBalances(state, buyer, creatorAddr)
	item, err := engine.ProcessPayment(buyer, creatorAddr, 1)
	if err != nil {
		t.Fatalf("payment failed: %v", err)
	}
	if item.Price != 5_000_000 {
		t.Fatalf("unexpected item: %+v", item)
	}
	if state.balance(buyer).Cmp(big.NewInt(5_000_000)) != 0 {
		t.Fatalf("buyer not debited: %s", state.balance(buyer))
	}
	if state.balance(creatorAddr).Cmp(big.NewInt(5_000_000)) != 0 {
		t.Fatalf("creator not credited: %s", state.balance(creatorAddr))
	}
	if after := sumBalances(state, buyer, creatorAddr); before.Cmp(after) != 0 {
		t.Fatalf("total supply changed: want %s got %s", before, after)
	}
	if _, ok := state.receipts[receiptKey(buyer, 1)]; !ok {
		t.Fatalf("receipt not created")
	}

	if _, err := engine.ProcessPayment(buyer, creatorAddr, 1); !errors.Is(err, errMockExists) {
		t.Fatalf("expected receipt collision on repeat payment, got %v", err)
	}
}

func TestProcessPaymentInsufficientFunds(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)
	creatorAddr := addr(0x0E)
	buyer := addr(0x0F)
	state.setBalance(buyer, 99)

	if _, err := engine.InitializeCreator(creatorAddr); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	if _, err := engine.AddContent(creatorAddr, "post", 100, nil); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if _, err := engine.ProcessPayment(buyer, creatorAddr, 1); !errors.Is(err, errMockInsufficient) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	if _, ok := state.receipts[receiptKey(buyer, 1)]; ok {
		t.Fatalf("receipt created despite failed transfer")
	}
}

func TestProcessPaymentPaysStoredWallet(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)
	lookup := addr(0x10)
	wallet := addr(0x11)
	buyer := addr(0x12)
	state.setBalance(buyer, 1_000)

	// The catalog record names a different payout wallet than the lookup
	// address; funds must follow the stored wallet.
	state.creators[lookup] = &CreatorAccount{
		Creator:       wallet,
		LastContentID: 1,
		Content:       []ContentItem{{ID: 1, Title: "post", Price: 250}},
	}
	if _, err := engine.ProcessPayment(buyer, lookup, 1); err == nil {
		if state.balance(wallet).Cmp(big.NewInt(250)) != 0 {
			t.Fatalf("stored wallet not credited: %s", state.balance(wallet))
		}
		if state.balance(lookup).Sign() != 0 {
			t.Fatalf("lookup address credited instead of stored wallet")
		}
	} else {
		t.Fatalf("payment failed: %v", err)
	}
}
