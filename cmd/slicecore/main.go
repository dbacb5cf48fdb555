// Command slicecore is a thin entry point that loads a settings bundle and
// reports what it would slice with. It exists to exercise data.Settings
// end-to-end (spec.md names a full CLI as out of scope); it does not parse
// a model file or drive the planner.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/pflag"

	"github.com/aligator/slicecore/data"
)

func main() {
	settingsPath := pflag.StringP("settings", "s", "", "path to a YAML settings bundle")
	verbose := pflag.BoolP("verbose", "v", false, "log each step to stderr")
	pflag.Parse()

	logger := log.New(os.Stderr, "slicecore: ", 0)
	if !*verbose {
		logger.SetOutput(os.Stderr)
	}

	if *settingsPath == "" {
		fmt.Fprintln(os.Stderr, "usage: slicecore -s <settings.yaml>")
		os.Exit(2)
	}

	f, err := os.Open(*settingsPath)
	if err != nil {
		logger.Fatalf("open settings: %v", err)
	}
	defer f.Close()

	settings, err := data.LoadSettings(f)
	if err != nil {
		logger.Fatalf("load settings: %v", err)
	}
	settings.Logger = logger

	fmt.Printf("flavor=%s extruders=%d layer_thickness=%vmm\n",
		settings.Flavor, len(settings.Extruders), settings.Print.LayerThickness)
}
