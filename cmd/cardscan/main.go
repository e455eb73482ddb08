// Command cardscan identifies card photos from the command line.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	ctx := newCommandContext()
	if err := execute(ctx, newRootCommandWith(ctx)); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
