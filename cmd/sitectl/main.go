// Command sitectl runs operator tasks against a Sitecraft database:
// migrations, seeding, user creation, static export and schema dumps.
package main

import (
	"context"
	"fmt"
	"os"

	"sitecraft/internal/cli"
)

func main() {
	if err := cli.RootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "sitectl:", err)
		os.Exit(1)
	}
}
