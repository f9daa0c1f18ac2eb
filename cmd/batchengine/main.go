// Command batchengine is the batch-matching engine's operator CLI: it
// ingests new orders, binds a batch to live on-chain state, runs the
// matching engine, and persists the surviving UTXO set.
package main

import (
	"fmt"
	"os"

	"github.com/steelbatch/orderbook-engine/pkg/bkerrors"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(bkerrors.ExitCode(err))
	}
}
