package creator

// Storage growth budget for a serialized creator account. The formula mirrors
// the original account layout (discriminator + wallet + counter + vector
// prefix, then per item: id, length-prefixed title, price, length-prefixed
// locator) and is a compatibility contract: no encoding of an account with n
// items may exceed AccountByteBudget(n). The title and locator caps are what
// keep the per-item allowance from ever underestimating.
const (
	MaxTitleBytes   = 128
	MaxLocatorBytes = 100

	accountBaseBudget = 8 + 32 + 8 + 4
	contentItemBudget = 8 + 4 + MaxTitleBytes + 8 + 4 + MaxLocatorBytes
)

// AccountByteBudget returns the storage allowance for a creator account
// holding n content items.
func AccountByteBudget(n int) int {
	return accountBaseBudget + n*contentItemBudget
}
