package state

import (
	"errors"
	"fmt"
	"math/big"

	"autonchain/core/types"
	"autonchain/native/creator"
	"autonchain/native/sponsor"
	"autonchain/native/vault"
	"autonchain/storage"
)

var (
	// ErrRecordExists is the generic allocation failure surfaced when a
	// create-if-absent write finds its derived slot occupied. Callers treat
	// it as the duplicate-prevention signal; it is never remapped to a named
	// domain error.
	ErrRecordExists = errors.New("state: record already exists")
	// ErrInsufficientFunds is returned when a transfer would overdraw the
	// source account. No balance is mutated.
	ErrInsufficientFunds = errors.New("state: insufficient funds")
	// ErrInvalidAmount is returned for nil or negative transfer amounts.
	ErrInvalidAmount = errors.New("state: invalid transfer amount")
	// ErrStorageBudgetExceeded indicates a creator account encoding outgrew
	// its byte budget. The title/locator caps make this unreachable for
	// legitimate content; hitting it is a correctness bug.
	ErrStorageBudgetExceeded = errors.New("state: creator account exceeds storage budget")
)

// Manager reads and writes the ledger's records over a key-value store. All
// writes go through the KV it was constructed with, so wrapping the store in
// a Txn makes every operation all-or-nothing.
type Manager struct {
	kv KV
}

// NewManager creates a state manager operating on the provided store.
func NewManager(kv KV) *Manager {
	return &Manager{kv: kv}
}

func (m *Manager) createRecord(key []byte, kind recordKind, v interface{}) error {
	ok, err := m.kv.Has(key)
	if err != nil {
		return err
	}
	if ok {
		return ErrRecordExists
	}
	data, err := encodeRecord(kind, v)
	if err != nil {
		return err
	}
	return m.kv.Put(key, data)
}

func (m *Manager) getRecord(key []byte, kind recordKind, out interface{}) (bool, error) {
	data, err := m.kv.Get(key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := decodeRecord(kind, data, out); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Manager) putRecord(key []byte, kind recordKind, v interface{}) error {
	data, err := encodeRecord(kind, v)
	if err != nil {
		return err
	}
	return m.kv.Put(key, data)
}

// --- Accounts and value transfer ---

// GetAccount returns the account for addr, or a zeroed account if none is
// stored yet.
func (m *Manager) GetAccount(addr [20]byte) (*types.Account, error) {
	acc := new(types.Account)
	ok, err := m.getRecord(AccountKey(addr), kindAccount, acc)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &types.Account{Balance: big.NewInt(0)}, nil
	}
	if acc.Balance == nil {
		acc.Balance = big.NewInt(0)
	}
	return acc, nil
}

// PutAccount persists the account for addr.
func (m *Manager) PutAccount(addr [20]byte, acc *types.Account) error {
	if acc == nil {
		return fmt.Errorf("state: nil account for %x", addr)
	}
	if acc.Balance == nil {
		acc.Balance = big.NewInt(0)
	}
	return m.putRecord(AccountKey(addr), kindAccount, acc)
}

// BalanceOf returns the current balance for addr.
func (m *Manager) BalanceOf(addr [20]byte) (*big.Int, error) {
	acc, err := m.GetAccount(addr)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(acc.Balance), nil
}

// Credit adds amount to an address balance. Used for genesis allocations.
func (m *Manager) Credit(addr [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	acc, err := m.GetAccount(addr)
	if err != nil {
		return err
	}
	acc.Balance = new(big.Int).Add(acc.Balance, amount)
	return m.PutAccount(addr, acc)
}

// SetAccountUsername mirrors a registered username onto the owner's account.
func (m *Manager) SetAccountUsername(addr [20]byte, username string) error {
	acc, err := m.GetAccount(addr)
	if err != nil {
		return err
	}
	acc.Username = username
	return m.PutAccount(addr, acc)
}

// Transfer moves amount between two balances. It either debits and credits
// both sides or mutates nothing, and the sum of balances is unchanged either
// way.
func (m *Manager) Transfer(from [20]byte, to [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	fromAcc, err := m.GetAccount(from)
	if err != nil {
		return err
	}
	if fromAcc.Balance.Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}
	if from == to || amount.Sign() == 0 {
		return nil
	}
	toAcc, err := m.GetAccount(to)
	if err != nil {
		return err
	}
	fromAcc.Balance = new(big.Int).Sub(fromAcc.Balance, amount)
	toAcc.Balance = new(big.Int).Add(toAcc.Balance, amount)
	if err := m.PutAccount(from, fromAcc); err != nil {
		return err
	}
	return m.PutAccount(to, toAcc)
}

// --- Creator registry, catalog, receipts ---

// UsernameCreate claims a username slot; an occupied slot fails with
// ErrRecordExists.
func (m *Manager) UsernameCreate(rec *creator.UsernameRecord) error {
	if rec == nil {
		return fmt.Errorf("state: nil username record")
	}
	return m.createRecord(UsernameKey(rec.Username), kindUsername, rec)
}

// UsernameGet resolves a username record.
func (m *Manager) UsernameGet(username string) (*creator.UsernameRecord, bool, error) {
	rec := new(creator.UsernameRecord)
	ok, err := m.getRecord(UsernameKey(username), kindUsername, rec)
	if err != nil || !ok {
		return nil, false, err
	}
	return rec, true, nil
}

func checkCreatorBudget(acc *creator.CreatorAccount, encoded []byte) error {
	if len(encoded) > creator.AccountByteBudget(len(acc.Content)) {
		return ErrStorageBudgetExceeded
	}
	return nil
}

// CreatorCreate bootstraps a creator account slot.
func (m *Manager) CreatorCreate(acc *creator.CreatorAccount) error {
	if acc == nil {
		return fmt.Errorf("state: nil creator account")
	}
	key := CreatorKey(acc.Creator)
	ok, err := m.kv.Has(key)
	if err != nil {
		return err
	}
	if ok {
		return ErrRecordExists
	}
	data, err := encodeRecord(kindCreator, acc)
	if err != nil {
		return err
	}
	if err := checkCreatorBudget(acc, data); err != nil {
		return err
	}
	return m.kv.Put(key, data)
}

// CreatorGet loads a creator account.
func (m *Manager) CreatorGet(addr [20]byte) (*creator.CreatorAccount, bool, error) {
	acc := new(creator.CreatorAccount)
	ok, err := m.getRecord(CreatorKey(addr), kindCreator, acc)
	if err != nil || !ok {
		return nil, false, err
	}
	return acc, true, nil
}

// CreatorPut persists a creator account, asserting the encoding fits the
// growth budget for its item count.
func (m *Manager) CreatorPut(acc *creator.CreatorAccount) error {
	if acc == nil {
		return fmt.Errorf("state: nil creator account")
	}
	data, err := encodeRecord(kindCreator, acc)
	if err != nil {
		return err
	}
	if err := checkCreatorBudget(acc, data); err != nil {
		return err
	}
	return m.kv.Put(CreatorKey(acc.Creator), data)
}

// ReceiptCreate writes a paid-access receipt; a duplicate (buyer, contentID)
// pair fails with ErrRecordExists.
func (m *Manager) ReceiptCreate(rec *creator.PaidAccessReceipt) error {
	if rec == nil {
		return fmt.Errorf("state: nil receipt")
	}
	return m.createRecord(AccessKey(rec.Buyer, rec.ContentID), kindReceipt, rec)
}

// ReceiptExists reports whether a buyer holds a receipt for the content id.
func (m *Manager) ReceiptExists(buyer [20]byte, contentID uint64) (bool, error) {
	return m.kv.Has(AccessKey(buyer, contentID))
}

// --- Sponsorship ---

// SponsoredCreate initializes a sponsored-user slot.
func (m *Manager) SponsoredCreate(rec *sponsor.SponsoredUserRecord) error {
	if rec == nil {
		return fmt.Errorf("state: nil sponsored-user record")
	}
	return m.createRecord(SponsoredKey(rec.User), kindSponsored, rec)
}

// SponsoredGet loads a sponsored-user record.
func (m *Manager) SponsoredGet(user [20]byte) (*sponsor.SponsoredUserRecord, bool, error) {
	rec := new(sponsor.SponsoredUserRecord)
	ok, err := m.getRecord(SponsoredKey(user), kindSponsored, rec)
	if err != nil || !ok {
		return nil, false, err
	}
	return rec, true, nil
}

// SponsoredPut persists a sponsored-user record.
func (m *Manager) SponsoredPut(rec *sponsor.SponsoredUserRecord) error {
	if rec == nil {
		return fmt.Errorf("state: nil sponsored-user record")
	}
	return m.putRecord(SponsoredKey(rec.User), kindSponsored, rec)
}

// --- Vault singleton ---

// VaultCreate writes the treasury singleton at its fixed key.
func (m *Manager) VaultCreate(state *vault.State) error {
	if state == nil {
		return fmt.Errorf("state: nil vault state")
	}
	return m.createRecord(VaultStateKey(), kindVault, state)
}

// VaultGet loads the treasury singleton.
func (m *Manager) VaultGet() (*vault.State, bool, error) {
	state := new(vault.State)
	ok, err := m.getRecord(VaultStateKey(), kindVault, state)
	if err != nil || !ok {
		return nil, false, err
	}
	return state, true, nil
}

// VaultPut persists the treasury singleton.
func (m *Manager) VaultPut(state *vault.State) error {
	if state == nil {
		return fmt.Errorf("state: nil vault state")
	}
	return m.putRecord(VaultStateKey(), kindVault, state)
}
