package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/five82/cattlelens/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "config file path (optional, defaults to ~/.config/cattlelens/config.toml)")
	prefsPath := flag.String("prefs", "", "UI preferences path (optional)")
	pollSeconds := flag.Int("poll", 0, "connectivity sweep interval in seconds (optional, defaults to 30s)")
	verbose := flag.Bool("verbose", false, "log at debug level")
	classifyPath := flag.String("classify", "", "classify an image and print the result as JSON")
	detectPath := flag.String("detect", "", "run detection on a frame and print the response")
	connectivity := flag.Bool("connectivity", false, "probe every endpoint and print the results")
	analyzePath := flag.String("analyze", "", "send an image to the analysis backend and print the details")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath:   *configPath,
		PrefsPath:    *prefsPath,
		Verbose:      *verbose,
		ClassifyPath: *classifyPath,
		DetectPath:   *detectPath,
		Connectivity: *connectivity,
		AnalyzePath:  *analyzePath,
	}
	if poll := *pollSeconds; poll > 0 {
		opts.PollEvery = poll
	}

	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "cattlelens: %v\n", err)
		return 1
	}
	return 0
}
