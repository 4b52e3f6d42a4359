package main

import "github.com/CleanSheetLabs/cleansheet/cmd"

func main() {
	cmd.Execute()
}
