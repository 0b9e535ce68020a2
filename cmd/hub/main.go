// Command hub runs the Hub authentication service.
package main

import (
	"fmt"
	"os"

	"hub/cmd/internal/app"
)

func main() {
	if err := app.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
