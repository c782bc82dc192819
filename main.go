// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/benchtune/benchtune/cmd/benchtune"

func main() {
	cmd.Execute()
}
