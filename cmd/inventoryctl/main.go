// Package main is the inventoryctl command line client.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/abgdnv/inventory/internal/inventoryctl"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := inventoryctl.NewRootCmd(inventoryctl.Dial).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
