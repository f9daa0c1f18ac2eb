// Package snapshot persists the active UTXO set to a JSON file between
// batches, the way a deployment without its own on-chain indexer carries
// state across invocations.
package snapshot

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/steelbatch/orderbook-engine/pkg/bkerrors"
	"github.com/steelbatch/orderbook-engine/pkg/orderbook"
	"github.com/steelbatch/orderbook-engine/pkg/types"
)

// entry is the on-disk representation of one UTXO: the order fields plus
// its claimed id. Load recomputes the id from the order fields and
// rejects the file if they disagree, so a hand-edited or corrupted
// snapshot can never smuggle a UTXO whose id violates I1.
type entry struct {
	ID          string `json:"id"`
	Side        string `json:"side"`
	Price       uint64 `json:"price"`
	Quantity    uint64 `json:"quantity"`
	Owner       string `json:"owner"`
	Nonce       uint64 `json:"nonce"`
	ExpiryBatch uint64 `json:"expiry_batch"`
}

func toEntry(u orderbook.UTXO) entry {
	return entry{
		ID:          u.ID.String(),
		Side:        u.Order.Side.String(),
		Price:       u.Order.Price,
		Quantity:    u.Order.Quantity,
		Owner:       u.Order.Owner.String(),
		Nonce:       u.Order.Nonce,
		ExpiryBatch: u.Order.ExpiryBatch,
	}
}

func (e entry) toUTXO() (orderbook.UTXO, error) {
	side, err := types.SideFromString(e.Side)
	if err != nil {
		return orderbook.UTXO{}, fmt.Errorf("invalid side %q: %w", e.Side, err)
	}
	owner, err := types.ParseAddress(e.Owner)
	if err != nil {
		return orderbook.UTXO{}, fmt.Errorf("invalid owner %q: %w", e.Owner, err)
	}
	claimedID, err := types.HexToHash(e.ID)
	if err != nil {
		return orderbook.UTXO{}, fmt.Errorf("invalid id %q: %w", e.ID, err)
	}

	order := orderbook.Order{
		Side:        side,
		Price:       e.Price,
		Quantity:    e.Quantity,
		Owner:       owner,
		Nonce:       e.Nonce,
		ExpiryBatch: e.ExpiryBatch,
	}
	u := orderbook.NewUTXO(order)
	if u.ID != claimedID {
		return orderbook.UTXO{}, fmt.Errorf("stored id %s does not match H(order) = %s", claimedID, u.ID)
	}
	return u, nil
}

// Save writes utxos to w as a JSON array, sorted as given (callers own
// deterministic ordering if they need it reproduced on Load).
func Save(w io.Writer, utxos []orderbook.UTXO) error {
	entries := make([]entry, len(utxos))
	for i, u := range utxos {
		entries[i] = toEntry(u)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

// Load reads a JSON array of UTXO entries from r. Every entry's id is
// recomputed from its order fields and compared against the stored id; a
// mismatch is a fatal bkerrors.DecodeError naming the entry's index.
func Load(r io.Reader) ([]orderbook.UTXO, error) {
	var entries []entry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, bkerrors.Wrap(bkerrors.KindDecodeError, err, "decoding utxo snapshot")
	}

	utxos := make([]orderbook.UTXO, len(entries))
	for i, e := range entries {
		u, err := e.toUTXO()
		if err != nil {
			return nil, bkerrors.NewAt(bkerrors.KindDecodeError, err.Error(), i)
		}
		utxos[i] = u
	}
	return utxos, nil
}
