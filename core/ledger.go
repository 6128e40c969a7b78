package core

import (
	"errors"
	"log/slog"
	"math/big"
	"sync"

	"autonchain/core/events"
	"autonchain/core/state"
	"autonchain/native/creator"
	"autonchain/native/sponsor"
	"autonchain/native/vault"
	"autonchain/storage"
)

// Node binds the engines to storage and runs every operation inside a state
// transaction: mutations buffer in an overlay and commit only when the whole
// operation succeeds. The node serializes operations with a single mutex; in
// the hosted execution model this serialization is done per record set by the
// scheduler, and the engines rely on it rather than on their own locking.
type Node struct {
	mu      sync.Mutex
	db      storage.Database
	emitter events.Emitter
	logger  *slog.Logger
	nowFn   func() int64
}

// NewNode constructs a node over the provided database.
func NewNode(db storage.Database) *Node {
	return &Node{
		db:      db,
		emitter: events.NoopEmitter{},
		logger:  slog.Default(),
	}
}

// SetEmitter configures the event sink shared by all engines.
func (n *Node) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		n.emitter = events.NoopEmitter{}
		return
	}
	n.emitter = emitter
}

// SetLogger overrides the node logger.
func (n *Node) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	n.logger = logger
}

// SetNowFunc overrides the time source used for sponsorship timestamps.
func (n *Node) SetNowFunc(now func() int64) { n.nowFn = now }

func (n *Node) withState(fn func(m *state.Manager) error) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	txn := state.NewTxn(n.db)
	if err := fn(state.NewManager(txn)); err != nil {
		txn.Discard()
		return err
	}
	return txn.Commit()
}

func (n *Node) readState(fn func(m *state.Manager) error) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return fn(state.NewManager(n.db))
}

func (n *Node) creatorEngine(m *state.Manager) *creator.Engine {
	e := creator.NewEngine()
	e.SetState(m)
	e.SetEmitter(n.emitter)
	return e
}

func (n *Node) sponsorEngine(m *state.Manager) *sponsor.Engine {
	e := sponsor.NewEngine()
	e.SetState(m)
	e.SetEmitter(n.emitter)
	if n.nowFn != nil {
		e.SetNowFunc(n.nowFn)
	}
	return e
}

func (n *Node) vaultEngine(m *state.Manager) *vault.Engine {
	e := vault.NewEngine()
	e.SetState(m)
	e.SetEmitter(n.emitter)
	return e
}

// --- Registry and catalog ---

// RegisterUsername claims a username for the signer.
func (n *Node) RegisterUsername(signer [20]byte, username string) (*creator.UsernameRecord, error) {
	var rec *creator.UsernameRecord
	err := n.withState(func(m *state.Manager) error {
		var err error
		rec, err = n.creatorEngine(m).RegisterUsername(signer, username)
		return err
	})
	if err != nil {
		return nil, err
	}
	n.logger.Info("username registered", "username", username)
	return rec, nil
}

// InitializeCreator bootstraps the signer's catalog account.
func (n *Node) InitializeCreator(signer [20]byte) (*creator.CreatorAccount, error) {
	var acc *creator.CreatorAccount
	err := n.withState(func(m *state.Manager) error {
		var err error
		acc, err = n.creatorEngine(m).InitializeCreator(signer)
		return err
	})
	if err != nil {
		return nil, err
	}
	return acc, nil
}

// AddContent appends a listing to the signer's catalog.
func (n *Node) AddContent(signer [20]byte, title string, price uint64, locator []byte) (*creator.ContentItem, error) {
	var item *creator.ContentItem
	err := n.withState(func(m *state.Manager) error {
		var err error
		item, err = n.creatorEngine(m).AddContent(signer, title, price, locator)
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// PaymentResult reports a settled purchase and the fee that accrued with it.
type PaymentResult struct {
	Item *creator.ContentItem
	Fee  *big.Int
}

// ProcessPayment settles a purchase and collects the platform fee in the same
// transaction. If the treasury has not been initialized the payment still
// settles and the fee is zero.
func (n *Node) ProcessPayment(buyer [20]byte, creatorAddr [20]byte, contentID uint64) (*PaymentResult, error) {
	result := &PaymentResult{Fee: big.NewInt(0)}
	err := n.withState(func(m *state.Manager) error {
		item, err := n.creatorEngine(m).ProcessPayment(buyer, creatorAddr, contentID)
		if err != nil {
			return err
		}
		result.Item = item
		fee, err := n.vaultEngine(m).CollectFees(buyer, item.Price)
		if err != nil {
			if errors.Is(err, vault.ErrNotInitialized) {
				return nil
			}
			return err
		}
		result.Fee = fee
		return nil
	})
	if err != nil {
		return nil, err
	}
	n.logger.Info("payment settled", "contentId", contentID, "price", result.Item.Price, "fee", result.Fee.String())
	return result, nil
}

// --- Sponsorship ---

// InitializeSponsoredUser creates the caller's sponsorship record.
func (n *Node) InitializeSponsoredUser(user [20]byte) (*sponsor.SponsoredUserRecord, error) {
	var rec *sponsor.SponsoredUserRecord
	err := n.withState(func(m *state.Manager) error {
		var err error
		rec, err = n.sponsorEngine(m).InitializeSponsoredUser(user)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// SponsorUser funds a new user from the vault wallet and records the
// sponsorship in the treasury, all in one transaction.
func (n *Node) SponsorUser(signer [20]byte, user [20]byte, amount uint64) (*sponsor.SponsoredUserRecord, error) {
	var rec *sponsor.SponsoredUserRecord
	err := n.withState(func(m *state.Manager) error {
		vaultEng := n.vaultEngine(m)
		info, err := vaultEng.Info()
		if err != nil {
			return err
		}
		sponsorEng := n.sponsorEngine(m)
		sponsorEng.SetVaultWallet(info.VaultWallet)
		rec, err = sponsorEng.SponsorUser(signer, user, amount)
		if err != nil {
			return err
		}
		_, err = vaultEng.RecordSponsorship(amount)
		return err
	})
	if err != nil {
		return nil, err
	}
	n.logger.Info("user sponsored", "amount", amount)
	return rec, nil
}

// --- Treasury governance ---

// InitializeVault creates the treasury singleton.
func (n *Node) InitializeVault(admin [20]byte, vaultWallet [20]byte, feeBps uint64, sponsorshipAmount uint64) (*vault.State, error) {
	var st *vault.State
	err := n.withState(func(m *state.Manager) error {
		var err error
		st, err = n.vaultEngine(m).InitializeVault(admin, vaultWallet, feeBps, sponsorshipAmount)
		return err
	})
	if err != nil {
		return nil, err
	}
	n.logger.Info("vault initialized", "feeBps", feeBps, "sponsorshipAmount", sponsorshipAmount)
	return st, nil
}

// UpdateVaultAdmin hands governance to a new admin.
func (n *Node) UpdateVaultAdmin(signer [20]byte, newAdmin [20]byte) (*vault.State, error) {
	var st *vault.State
	err := n.withState(func(m *state.Manager) error {
		var err error
		st, err = n.vaultEngine(m).UpdateAdmin(signer, newAdmin)
		return err
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

// UpdateVaultFeeBps sets the platform fee.
func (n *Node) UpdateVaultFeeBps(signer [20]byte, feeBps uint64) (*vault.State, error) {
	var st *vault.State
	err := n.withState(func(m *state.Manager) error {
		var err error
		st, err = n.vaultEngine(m).UpdateFeeBps(signer, feeBps)
		return err
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

// UpdateVaultSponsorshipAmount sets the per-user sponsorship parameter.
func (n *Node) UpdateVaultSponsorshipAmount(signer [20]byte, amount uint64) (*vault.State, error) {
	var st *vault.State
	err := n.withState(func(m *state.Manager) error {
		var err error
		st, err = n.vaultEngine(m).UpdateSponsorshipAmount(signer, amount)
		return err
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

// WithdrawFromVault moves funds out of the vault wallet, keeping the reserve
// floor intact.
func (n *Node) WithdrawFromVault(signer [20]byte, amount uint64, recipient [20]byte) error {
	err := n.withState(func(m *state.Manager) error {
		return n.vaultEngine(m).Withdraw(signer, amount, recipient)
	})
	if err != nil {
		return err
	}
	n.logger.Info("vault withdrawal", "amount", amount)
	return nil
}

// VaultInfo returns the current treasury state.
func (n *Node) VaultInfo() (*vault.State, error) {
	var st *vault.State
	err := n.readState(func(m *state.Manager) error {
		var err error
		st, err = n.vaultEngine(m).Info()
		return err
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

// --- Queries and genesis helpers ---

// GetCreator returns a creator's catalog account.
func (n *Node) GetCreator(addr [20]byte) (*creator.CreatorAccount, bool, error) {
	var (
		acc *creator.CreatorAccount
		ok  bool
	)
	err := n.readState(func(m *state.Manager) error {
		var err error
		acc, ok, err = m.CreatorGet(addr)
		return err
	})
	return acc, ok, err
}

// ResolveUsername returns the owner record for a username.
func (n *Node) ResolveUsername(username string) (*creator.UsernameRecord, bool, error) {
	var (
		rec *creator.UsernameRecord
		ok  bool
	)
	err := n.readState(func(m *state.Manager) error {
		var err error
		rec, ok, err = m.UsernameGet(username)
		return err
	})
	return rec, ok, err
}

// HasAccess reports whether the buyer holds a receipt for the content id.
func (n *Node) HasAccess(buyer [20]byte, contentID uint64) (bool, error) {
	var ok bool
	err := n.readState(func(m *state.Manager) error {
		var err error
		ok, err = m.ReceiptExists(buyer, contentID)
		return err
	})
	return ok, err
}

// BalanceOf returns the native balance for addr.
func (n *Node) BalanceOf(addr [20]byte) (*big.Int, error) {
	var balance *big.Int
	err := n.readState(func(m *state.Manager) error {
		var err error
		balance, err = m.BalanceOf(addr)
		return err
	})
	return balance, err
}

// Credit adds amount to an address balance. Used for genesis allocations.
func (n *Node) Credit(addr [20]byte, amount *big.Int) error {
	return n.withState(func(m *state.Manager) error {
		return m.Credit(addr, amount)
	})
}
