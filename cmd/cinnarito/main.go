package main

import (
	"flag"
	"fmt"
	"os"

	"cinnarito/internal/di"
	"cinnarito/internal/structures"
)

func main() {
	flags := &structures.CliFlags{}
	flag.StringVar(&flags.ConfigPath, "config", "config/config.yaml", "path to the yaml config file")
	flag.BoolVar(&flags.DebugMode, "debug", false, "enable debug mode")
	flag.Parse()

	app, cleanup, err := di.InitApp(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cinnarito: %s\n", err)
		os.Exit(1)
	}

	err = app.Run()
	cleanup()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cinnarito: %s\n", err)
		os.Exit(1)
	}
}
