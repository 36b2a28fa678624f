package main

import "github.com/ValentinKolb/dRel/cmd"

func main() {
	cmd.Execute()
}
