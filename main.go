/*
Trigon opens a window and draws a triangle rotating about the origin.
*/
package main

import (
	"os"

	"github.com/spaghettifunk/trigon/engine"
	"github.com/spaghettifunk/trigon/engine/core"
)

func main() {
	cfg, err := engine.LoadConfig(".env")
	if err != nil {
		core.LogFatal(err.Error())
	}
	core.SetLogLevel(cfg.LogLevel)

	app, err := engine.New(cfg)
	if err != nil {
		core.LogFatal(err.Error())
	}

	if err := app.Initialize(); err != nil {
		core.LogFatal(err.Error())
	}

	if err := app.Run(); err != nil {
		_ = app.Shutdown()
		os.Exit(1)
	}

	if err := app.Shutdown(); err != nil {
		core.LogFatal(err.Error())
	}
}
