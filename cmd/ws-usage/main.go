// Command ws-usage computes workspace disk-usage and object-count reports
// by user, split into public/private and deleted/active data.
//
// Don't run this during high loads; it scans every object version in the
// store.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/kbase/workspace-usage/internal/cli"
)

func main() {
	if err := cli.Run(context.Background(), os.Args[1:]); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
