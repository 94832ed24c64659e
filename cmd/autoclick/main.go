package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"jordanella.com/autoclick/internal/backend"
	"jordanella.com/autoclick/internal/bot"
	"jordanella.com/autoclick/internal/config"
	"jordanella.com/autoclick/internal/cv"
	"jordanella.com/autoclick/internal/logging"
	"jordanella.com/autoclick/internal/stopkey"
	"jordanella.com/autoclick/pkg/templates"
)

const usage = `Usage:
  autoclick [run] [-config <settings file>] [-dry-run]
  autoclick find -frame <screenshot> [-tolerance 0.85] [-out <debug.png>] <template>...
  autoclick init [-format yaml|ini|json] <settings file>

Examples:
  autoclick -config settings.yaml
  autoclick find -frame shot.png -tolerance 0.9 images/ok.png images/ok_dark.png
  autoclick init -format ini Settings.ini
`

// stdin is where the stop key is read from
var stdin = os.Stdin

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) > 0 {
		switch args[0] {
		case "find":
			return runFind(args[1:])
		case "init":
			return runInit(args[1:])
		case "run":
			return runLoop(args[1:])
		case "help", "-h", "-help", "--help":
			fmt.Print(usage)
			return 0
		}
	}
	return runLoop(args)
}

func runLoop(args []string) int {
	flags := flag.NewFlagSet("autoclick", flag.ContinueOnError)
	configPath := flags.String("config", "", "Settings file (yaml, ini or json); defaults to $AUTOCLICK_CONFIG or the user config directory")
	dryRun := flags.Bool("dry-run", false, "Log clicks instead of performing them")
	flags.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	if err := flags.Parse(args); err != nil {
		return 2
	}

	logger := logging.NewLogger("Main")

	path := *configPath
	if path == "" {
		resolved, err := config.Resolve()
		if err != nil {
			logger.Error("Failed to resolve settings location", err)
			return 1
		}
		path = resolved
	}

	settings, found, err := config.LoadOrDefault(path)
	if err != nil {
		logger.Error("Failed to load settings", err)
		return 1
	}
	if *dryRun {
		settings.DryRun = true
	}

	level, err := logging.ParseLevel(settings.LogLevel)
	if err != nil {
		logger.Error("Invalid log level", err)
		return 1
	}
	logging.SetLevel(level)
	logger.SetMinLevel(level)

	if settings.LogDir != "" {
		logFile, logPath, err := logging.OpenLogFile(afero.NewOsFs(), settings.LogDir, time.Now())
		if err != nil {
			logger.Error("Failed to open log file", err)
			return 1
		}
		defer logFile.Close()
		logger.AddOutput(logFile)
		logger.Infof("Writing log to %s", logPath)
	}

	if found {
		logger.Infof("Loaded settings from %s", path)
	} else {
		logger.Warnf("No settings file at %s, using defaults", path)
	}

	set, err := templates.LoadSet(afero.NewOsFs(), settings.TemplateSourcePath)
	if err != nil {
		logger.Error("Failed to load templates", err)
		return 1
	}
	for i, t := range set {
		size := t.Size()
		logger.Debugf("Template %d: %s (%dx%d)", i+1, t.Name, size.X, size.Y)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	be, err := backend.Open(ctx, settings, logger.Named("Backend"))
	if err != nil {
		logger.Error("Failed to open backend", err)
		return 1
	}
	defer be.Close()

	watcher, err := stopkey.Watch(ctx, stdin, settings.StopKey, stop)
	if err != nil {
		logger.Warnf("Stop key unavailable, use Ctrl+C to stop: %v", err)
	} else {
		defer watcher.Close()
		logger.Infof("Press %q to stop", settings.StopKey)
	}

	b := bot.New(cv.NewService(be.Capturer), be.Actuator, logger.Named("Bot"))
	summary, err := b.Run(ctx, set, bot.ParamsFromSettings(settings))

	if watcher != nil {
		watcher.Close()
	}

	if err != nil {
		logger.Error("Run failed", err)
		return 1
	}

	// the bot has already logged the total
	for _, t := range set {
		if hits := summary.Hits[t.Name]; hits > 0 {
			logger.Infof("%s: %d", t.Name, hits)
		}
	}
	return 0
}

func runFind(args []string) int {
	flags := flag.NewFlagSet("find", flag.ContinueOnError)
	framePath := flags.String("frame", "", "Screenshot to search")
	tolerance := flags.Float64("tolerance", float64(cv.DefaultTolerance), "Per-channel tolerance between 0.0 and 1.0 (1.0 = exact)")
	outPath := flags.String("out", "", "Write the screenshot with the match outlined to this PNG file")
	flags.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	if err := flags.Parse(args); err != nil {
		return 2
	}

	if *framePath == "" || flags.NArg() == 0 {
		fmt.Fprint(os.Stderr, usage)
		return 2
	}

	tol := cv.Tolerance(*tolerance)
	if err := tol.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	fs := afero.NewOsFs()
	frame, err := templates.NewImageCache(fs).Get(*framePath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	registry := templates.NewTemplateRegistry(fs)
	for _, path := range flags.Args() {
		if err := registry.Load(path); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
	}

	set := registry.Set()
	result, idx := cv.FindAny(frame, set, tol)

	if *outPath != "" && idx >= 0 {
		if err := writePNG(*outPath, cv.DebugMatch(frame, result, set[idx].Size())); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
	}

	p, ok := result.Point()
	if !ok {
		fmt.Println("no match")
		return 1
	}

	fmt.Printf("%s %d %d\n", set[idx].Name, p.X, p.Y)
	return 0
}

func runInit(args []string) int {
	flags := flag.NewFlagSet("init", flag.ContinueOnError)
	format := flags.String("format", "", "Settings format: yaml, ini or json (default: from the file extension)")
	force := flags.Bool("force", false, "Overwrite an existing file")
	flags.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	if err := flags.Parse(args); err != nil {
		return 2
	}

	if flags.NArg() != 1 {
		fmt.Fprint(os.Stderr, usage)
		return 2
	}

	path := flags.Arg(0)
	switch *format {
	case "":
	case "yaml", "ini", "json":
		path = withExtension(path, "."+*format)
	default:
		fmt.Fprintf(os.Stderr, "unknown format %q\n", *format)
		return 2
	}

	if _, err := os.Stat(path); err == nil && !*force {
		fmt.Fprintf(os.Stderr, "%s already exists, use -force to overwrite\n", path)
		return 1
	}

	if err := config.Save(config.NewDefaultSettings(), path); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	fmt.Printf("Wrote default settings to %s\n", path)
	return 0
}

func withExtension(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

func writePNG(path string, img *image.RGBA) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return png.Encode(f, img)
}
