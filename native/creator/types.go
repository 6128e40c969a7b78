package creator

// UsernameRecord maps a claimed username to the wallet that owns it. The
// record lives at a key derived from the username itself, so a second claim
// of the same name collides at the store instead of requiring a lookup.
type UsernameRecord struct {
	Owner    [20]byte `json:"owner"`
	Username string   `json:"username"`
}

// ContentItem is a single paid listing inside a creator's catalog. Items are
// append-only and never mutated once published.
type ContentItem struct {
	ID             uint64 `json:"id"`
	Title          string `json:"title"`
	Price          uint64 `json:"price"`
	PayloadLocator []byte `json:"payloadLocator"`
}

// Clone returns a deep copy of the content item.
func (c *ContentItem) Clone() *ContentItem {
	if c == nil {
		return nil
	}
	clone := *c
	if c.PayloadLocator != nil {
		clone.PayloadLocator = append([]byte(nil), c.PayloadLocator...)
	}
	return &clone
}

// CreatorAccount holds a creator's catalog and the monotonic counter used to
// mint content identifiers.
type CreatorAccount struct {
	Creator       [20]byte      `json:"creator"`
	LastContentID uint64        `json:"lastContentId"`
	Content       []ContentItem `json:"content"`
}

// Clone returns a deep copy of the creator account.
func (c *CreatorAccount) Clone() *CreatorAccount {
	if c == nil {
		return nil
	}
	clone := *c
	if c.Content != nil {
		clone.Content = make([]ContentItem, len(c.Content))
		for i := range c.Content {
			clone.Content[i] = *c.Content[i].Clone()
		}
	}
	return &clone
}

// PaidAccessReceipt proves that a buyer settled payment for a content item.
// Its existence at the derived (buyer, contentID) key is the whole proof; the
// fields only make the record self-describing.
type PaidAccessReceipt struct {
	Buyer     [20]byte `json:"buyer"`
	ContentID uint64   `json:"contentId"`
}
