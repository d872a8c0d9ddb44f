package main

import "go-bank-ledger/cmd"

func main() {
	cmd.Execute()
}
