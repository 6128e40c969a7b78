package sponsor

import (
	"errors"
	"math/big"
	"testing"
)

var (
	errMockExists       = errors.New("mock: record already exists")
	errMockInsufficient = errors.New("mock: insufficient funds")
)

type mockState struct {
	records  map[[20]byte]*SponsoredUserRecord
	balances map[[20]byte]*big.Int
}

func newMockState() *mockState {
	return &mockState{
		records:  make(map[[20]byte]*SponsoredUserRecord),
		balances: make(map[[20]byte]*big.Int),
	}
}

func (m *mockState) SponsoredCreate(rec *SponsoredUserRecord) error {
	if _, ok := m.records[rec.User]; ok {
		return errMockExists
	}
	m.records[rec.User] = rec.Clone()
	return nil
}

func (m *mockState) SponsoredGet(user [20]byte) (*SponsoredUserRecord, bool, error) {
	rec, ok := m.records[user]
	if !ok {
		return nil, false, nil
	}
	return rec.Clone(), true, nil
}

func (m *mockState) SponsoredPut(rec *SponsoredUserRecord) error {
	m.records[rec.User] = rec.Clone()
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

func addr(last byte) [20]byte {
	var out [20]byte
	out[19] = last
	return out
}

func newTestEngine(state *mockState, vaultWallet [20]byte) *Engine {
	engine := NewEngine()
	engine.SetState(state)
	engine.SetVaultWallet(vaultWallet)
	engine.SetNowFunc(func() int64 { return 1_700_000_000 })
	return engine
}

func TestInitializeSponsoredUser(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state, addr(0xAA))
	user := addr(0x01)

	rec, err := engine.InitializeSponsoredUser(user)
	if err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	if rec.Sponsored || rec.SponsoredAt != 0 || rec.Amount != 0 {
		t.Fatalf("fresh record not zeroed: %+v", rec)
	}
	if _, err := engine.InitializeSponsoredUser(user); !errors.Is(err, errMockExists) {
		t.Fatalf("expected collision on re-initialization, got %v", err)
	}
}

func TestSponsorUserHappyPath(t *testing.T) {
	state := newMockState()
	vaultWallet := addr(0xAA)
	engine := newTestEngine(state, vaultWallet)
	user := addr(0x02)
	state.balances[vaultWallet] = big.NewInt(20_000_000)

	if _, err := engine.InitializeSponsoredUser(user); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	rec, err := engine.SponsorUser(vaultWallet, user, MaxSponsorshipAmount)
	if err != nil {
		t.Fatalf("sponsor failed: %v", err)
	}
	if !rec.Sponsored || rec.Amount != MaxSponsorshipAmount || rec.SponsoredAt != 1_700_000_000 {
		t.Fatalf("record not updated: %+v", rec)
	}
	if state.balance(user).Cmp(big.NewInt(MaxSponsorshipAmount)) != 0 {
		t.Fatalf("user not funded: %s", state.balance(user))
	}
	if state.balance(vaultWallet).Cmp(big.NewInt(10_000_000)) != 0 {
		t.Fatalf("vault not debited: %s", state.balance(vaultWallet))
	}
}

func TestSponsorUserAuthorization(t *testing.T) {
	state := newMockState()
	vaultWallet := addr(0xAA)
	engine := newTestEngine(state, vaultWallet)
	user := addr(0x03)

	if _, err := engine.InitializeSponsoredUser(user); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	if _, err := engine.SponsorUser(addr(0xBB), user, 100); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	unset := NewEngine()
	unset.SetState(state)
	if _, err := unset.SponsorUser(vaultWallet, user, 100); !errors.Is(err, ErrVaultWalletNotSet) {
		t.Fatalf("expected ErrVaultWalletNotSet, got %v", err)
	}
}

func TestSponsorUserAmountCap(t *testing.T) {
	state := newMockState()
	vaultWallet := addr(0xAA)
	engine := newTestEngine(state, vaultWallet)
	user := addr(0x04)
	state.balances[vaultWallet] = big.NewInt(100_000_000)

	if _, err := engine.InitializeSponsoredUser(user); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	if _, err := engine.SponsorUser(vaultWallet, user, MaxSponsorshipAmount+1); !errors.Is(err, ErrAmountTooLarge) {
		t.Fatalf("expected ErrAmountTooLarge, got %v", err)
	}
	if state.balance(user).Sign() != 0 {
		t.Fatalf("user funded despite cap breach")
	}
}

func TestSponsorUserOneShot(t *testing.T) {
	state := newMockState()
	vaultWallet := addr(0xAA)
	engine := newTestEngine(state, vaultWallet)
	user := addr(0x05)
	state.balances[vaultWallet] = big.NewInt(100_000_000)

	if _, err := engine.InitializeSponsoredUser(user); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	if _, err := engine.SponsorUser(vaultWallet, user, 1_000); err != nil {
		t.Fatalf("first sponsorship failed: %v", err)
	}
	for _, amount := range []uint64{1, 1_000, MaxSponsorshipAmount} {
		if _, err := engine.SponsorUser(vaultWallet, user, amount); !errors.Is(err, ErrAlreadySponsored) {
			t.Fatalf("amount %d: expected ErrAlreadySponsored, got %v", amount, err)
		}
	}
	if state.balance(user).Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("balance changed after rejected re-sponsorship: %s", state.balance(user))
	}
}

func TestSponsorUserRequiresRecord(t *testing.T) {
	state := newMockState()
	vaultWallet := addr(0xAA)
	engine := newTestEngine(state, vaultWallet)
	state.balances[vaultWallet] = big.NewInt(100_000_000)

	if _, err := engine.SponsorUser(vaultWallet, addr(0x06), 100); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestSponsorUserInsufficientVaultFunds(t *testing.T) {
	state := newMockState()
	vaultWallet := addr(0xAA)
	engine := newTestEngine(state, vaultWallet)
	user := addr(0x07)
	state.balances[vaultWallet] = big.NewInt(50)

	if _, err := engine.InitializeSponsoredUser(user); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	if _, err := engine.SponsorUser(vaultWallet, user, 100); !errors.Is(err, errMockInsufficient) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	rec, _, _ := state.SponsoredGet(user)
	if rec.Sponsored {
		t.Fatalf("record flipped despite failed transfer")
	}
}
