package main

import (
	"os"

	"github.com/wjixiang/aikb/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
