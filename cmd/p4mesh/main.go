package main

/**
 * SPDX-License-Identifier: Apache-2.0
 */

import (
	"os"
)

func main() {
	commandInit()

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
