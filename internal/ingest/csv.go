// Package ingest parses new orders from a CSV file into orderbook.Order
// values, assigning each a fresh nonce from a monotonic counter.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/steelbatch/orderbook-engine/pkg/bkerrors"
	"github.com/steelbatch/orderbook-engine/pkg/orderbook"
	"github.com/steelbatch/orderbook-engine/pkg/types"
)

// csvColumns is the required header row, in order.
var csvColumns = []string{"side", "price", "quantity", "owner", "expiry_batch"}

// NonceSeed returns a nonce counter seed derived from the current time,
// matching the "good enough for now" scheme this ingestion path was
// ported from — a future revision should draw nonces from on-chain state
// instead.
func NonceSeed() uint64 {
	return uint64(time.Now().UnixNano())
}

// Orders reads orders from r, a CSV stream with header row
// "side,price,quantity,owner,expiry_batch". At most limit rows are read;
// limit <= 0 means unlimited. Nonces are assigned sequentially starting at
// startNonce, in row order. A malformed row names its 1-based CSV line
// number (the header is line 1) in the returned bkerrors.DecodeError.
func Orders(r io.Reader, limit int, startNonce uint64) ([]orderbook.Order, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, bkerrors.Wrap(bkerrors.KindDecodeError, err, "reading csv header")
	}
	if err := validateHeader(header); err != nil {
		return nil, err
	}

	var orders []orderbook.Order
	nonce := startNonce
	line := 1

	for {
		if limit > 0 && len(orders) >= limit {
			break
		}
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, bkerrors.NewAt(bkerrors.KindDecodeError, "malformed csv row: "+err.Error(), line)
		}

		order, err := parseRow(record, nonce)
		if err != nil {
			return nil, bkerrors.NewAt(bkerrors.KindDecodeError, err.Error(), line)
		}
		orders = append(orders, order)
		nonce++
	}

	return orders, nil
}

func validateHeader(header []string) error {
	if len(header) != len(csvColumns) {
		return bkerrors.New(bkerrors.KindDecodeError,
			fmt.Sprintf("expected %d columns in header, got %d", len(csvColumns), len(header)))
	}
	for i, want := range csvColumns {
		if header[i] != want {
			return bkerrors.New(bkerrors.KindDecodeError,
				fmt.Sprintf("expected column %q at position %d, got %q", want, i, header[i]))
		}
	}
	return nil
}

func parseRow(record []string, nonce uint64) (orderbook.Order, error) {
	if len(record) != len(csvColumns) {
		return orderbook.Order{}, fmt.Errorf("expected %d columns, got %d", len(csvColumns), len(record))
	}

	side, err := types.SideFromString(record[0])
	if err != nil {
		return orderbook.Order{}, fmt.Errorf("invalid side: %w", err)
	}
	price, err := strconv.ParseUint(record[1], 10, 64)
	if err != nil {
		return orderbook.Order{}, fmt.Errorf("invalid price: %w", err)
	}
	quantity, err := strconv.ParseUint(record[2], 10, 64)
	if err != nil {
		return orderbook.Order{}, fmt.Errorf("invalid quantity: %w", err)
	}
	owner, err := types.ParseAddress(record[3])
	if err != nil {
		return orderbook.Order{}, fmt.Errorf("invalid owner: %w", err)
	}
	expiryBatch, err := strconv.ParseUint(record[4], 10, 64)
	if err != nil {
		return orderbook.Order{}, fmt.Errorf("invalid expiry_batch: %w", err)
	}

	return orderbook.Order{
		Side:        side,
		Price:       price,
		Quantity:    quantity,
		Owner:       owner,
		Nonce:       nonce,
		ExpiryBatch: expiryBatch,
	}, nil
}
