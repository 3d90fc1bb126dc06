package main

import (
	"github.com/bornholm/schoolscout/internal/command"
	"github.com/bornholm/schoolscout/internal/command/find"
)

var version = "dev"

func main() {
	command.Main(
		"schoolscout",
		version,
		"Find schools of an Ethiopian region and their contact phone numbers",
		find.Find(),
	)
}
