// Command networkable sends HTTP requests through a configured session.
//
//	networkable request GET /users/1 --config networkable.yaml
//	networkable call get_user --param id=1
//	networkable routes
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
