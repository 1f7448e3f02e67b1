// File: main.go
package main

import (
	"github.com/activebook/lulu/cmd"
)

func main() {
	cmd.Execute()
}
