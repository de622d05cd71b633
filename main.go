package main

import "github.com/creativeprojects/webmail/cmd"

// set at build time with -ldflags
var (
	version = "0.0.0-dev"
	commit  = ""
	date    = ""
	builtBy = ""
)

func main() {
	cmd.Execute(version, commit, date, builtBy)
}
