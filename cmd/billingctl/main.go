package main

import "github.com/sangkips/gst-billing/internal/cli"

func main() {
	cli.Execute()
}
