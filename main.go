// SPDX-License-Identifier: MPL-2.0

package main

import "github.com/pyflat/pyflat/cmd/pyflat"

func main() {
	cmd.Execute()
}
