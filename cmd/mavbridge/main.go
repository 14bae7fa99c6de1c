package main

import (
	_ "go.uber.org/automaxprocs"

	"github.com/skyfield-io/mavbridge/cmd/mavbridge/app"
)

func main() {
	app.Run()
}
