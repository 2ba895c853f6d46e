// Command hairball grows and grooms hair curves on polygon meshes.
//
// Usage:
//
//	hairball run [flags] <script.hair>   evaluate a groom script, print curves JSON
//	hairball grow [flags]                grow hair on a tube or an OBJ mesh
//	hairball watch [flags] <script.hair> re-evaluate a script whenever it changes
//	hairball config [flags]              print or save the effective configuration
//	hairball help                        show this message
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/dbokser/hairball/internal/config"
	"github.com/dbokser/hairball/internal/logger"
	"github.com/dbokser/hairball/internal/watch"
	"github.com/dbokser/hairball/pkg/groom"
	"github.com/dbokser/hairball/pkg/hair"
	"github.com/dbokser/hairball/pkg/polymesh"
	"github.com/dbokser/hairball/pkg/scene"
	"go.uber.org/zap"
)

const usage = `Usage: hairball <command> [flags]

Commands:
  run <script>    evaluate a groom script and write curves JSON
  grow            grow hair on a generated tube or an OBJ mesh
  watch <script>  re-evaluate a script whenever it changes
  config          print or save the effective configuration
  help            show this message

Run 'hairball <command> -h' for command flags.
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run dispatches a command and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	var err error
	switch cmd, rest := args[0], args[1:]; cmd {
	case "run":
		err = cmdRun(rest, stdout, stderr)
	case "grow":
		err = cmdGrow(rest, stdout, stderr)
	case "watch":
		err = cmdWatch(rest, stdout, stderr)
	case "config":
		err = cmdConfig(rest, stdout, stderr)
	case "help", "-h", "-help", "--help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", cmd, usage)
		return 2
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, errUsage):
		fmt.Fprintln(stderr, err)
		return 2
	default:
		fmt.Fprintln(stderr, "hairball:", err)
		return 1
	}
}

var (
	errUsage  = errors.New("usage")
	errFailed = errors.New("evaluation produced errors")
)

// setup parses flags for one command, loads the config and starts logging.
func setup(name string, args []string, stderr io.Writer, extra func(*flag.FlagSet)) (*flag.FlagSet, *config.Config, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	f := config.RegisterFlags(fs)
	if extra != nil {
		extra(fs)
	}
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load(fs, f)
	if err != nil {
		return nil, nil, err
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return nil, nil, err
	}
	return fs, cfg, nil
}

func cmdRun(args []string, stdout, stderr io.Writer) error {
	fs, cfg, err := setup("run", args, stderr, nil)
	if err != nil {
		return err
	}
	defer logger.Sync()
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: hairball run [flags] <script>", errUsage)
	}

	res, err := evaluateFile(context.Background(), NewApp(cfg, logger.Log), fs.Arg(0))
	if err != nil {
		return err
	}
	if err := writeResult(res, cfg.Output.Path, stdout); err != nil {
		return err
	}
	if len(res.Errors) > 0 {
		return errFailed
	}
	return nil
}

func evaluateFile(ctx context.Context, app *App, path string) (EvalResult, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return EvalResult{}, err
	}
	res := app.EvaluateContext(ctx, string(source))
	logger.Info("evaluated",
		zap.String("script", path),
		zap.Int("curves", len(res.Curves)),
		zap.Int("errors", len(res.Errors)),
		zap.Int("warnings", len(res.Warnings)))
	return res, nil
}

func cmdGrow(args []string, stdout, stderr io.Writer) error {
	var (
		objPath   string
		loopIndex int
		rings     int
		segments  int
		center    bool
		randomize bool
		trim      bool
	)
	_, cfg, err := setup("grow", args, stderr, func(fs *flag.FlagSet) {
		fs.StringVar(&objPath, "obj", "", "Grow on this OBJ mesh instead of a tube")
		fs.IntVar(&loopIndex, "loop", 0, "Index of the border loop to start from")
		fs.IntVar(&rings, "rings", 6, "Tube rings")
		fs.IntVar(&segments, "segments", 12, "Tube segments per ring")
		fs.BoolVar(&center, "center", false, "Also build the center curve")
		fs.BoolVar(&randomize, "randomize", false, "Randomize strand CVs with the configured profile")
		fs.BoolVar(&trim, "trim", false, "Trim a share of strands with the configured bounds")
	})
	if err != nil {
		return err
	}
	defer logger.Sync()

	var m *polymesh.Mesh
	if objPath != "" {
		m, err = polymesh.LoadOBJ(objPath)
	} else {
		m, err = polymesh.Tube("pCylinder1", rings, segments, 1, 3)
	}
	if err != nil {
		return err
	}
	borders := m.BorderLoops()
	if loopIndex < 0 || loopIndex >= len(borders) {
		return fmt.Errorf("%w: mesh %s has %d border loops, -loop %d", errUsage, m.Name(), len(borders), loopIndex)
	}

	s := scene.New()
	rep := logger.NewReporter(logger.Named("grow"))
	res := EvalResult{Errors: []EvalErrorData{}, Warnings: []EvalWarningData{}}

	grown, growErr := hair.NewGrower(s, rep).Grow(m, borders[loopIndex], cfg.GrowOptions())
	if growErr != nil {
		res.Errors = append(res.Errors, EvalErrorData{Message: growErr.Error()})
	} else {
		g := groom.New(s, groom.NewRand(cfg.Random.Seed), rep)
		if randomize {
			if err := g.Randomize(grown.Strands, cfg.Groom.RandomizeProfile); err != nil {
				return err
			}
		}
		if trim {
			if _, err := g.Trim(grown.Strands, cfg.Groom.MinTrimFraction, cfg.Groom.TrimPercent); err != nil {
				return err
			}
		}
		logger.Info("grown",
			zap.String("mesh", m.Name()),
			zap.Int("strands", len(grown.Strands)),
			zap.Int("hulls", grown.Hulls))
	}
	if center {
		if _, err := hair.NewGrower(s, rep).CenterCurve(m, borders[loopIndex]); err != nil {
			res.Errors = append(res.Errors, EvalErrorData{Message: err.Error()})
		}
	}

	for _, w := range rep.Warnings() {
		res.Warnings = append(res.Warnings, EvalWarningData{Form: "grow", Message: w})
	}
	if res.Curves, err = curveData(s); err != nil {
		return err
	}
	if err := writeResult(res, cfg.Output.Path, stdout); err != nil {
		return err
	}
	if len(res.Errors) > 0 {
		return errFailed
	}
	return nil
}

func cmdWatch(args []string, stdout, stderr io.Writer) error {
	fs, cfg, err := setup("watch", args, stderr, nil)
	if err != nil {
		return err
	}
	defer logger.Sync()
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: hairball watch [flags] <script>", errUsage)
	}
	path := fs.Arg(0)
	app := NewApp(cfg, logger.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	evaluate := func(p string) {
		res, err := evaluateFile(ctx, app, p)
		if err != nil {
			logger.Error("read script", zap.Error(err))
			return
		}
		for _, e := range res.Errors {
			logger.Warn("script error", zap.Int("line", e.Line), zap.String("msg", e.Message))
		}
		if err := writeResult(res, cfg.Output.Path, stdout); err != nil {
			logger.Error("write result", zap.Error(err))
		}
	}

	w, err := watch.New(path, evaluate, logger.Named("watch"))
	if err != nil {
		return err
	}
	evaluate(path)
	logger.Info("watching", zap.String("script", path))
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func cmdConfig(args []string, stdout, stderr io.Writer) error {
	var (
		format    string
		writePath string
		save      bool
	)
	_, cfg, err := setup("config", args, stderr, func(fs *flag.FlagSet) {
		fs.StringVar(&format, "format", "yaml", "Output format: yaml or toml")
		fs.StringVar(&writePath, "write", "", "Write the effective config to this file (.yaml or .toml)")
		fs.BoolVar(&save, "save", false, "Write the effective config to the user config directory")
	})
	if err != nil {
		return err
	}
	switch {
	case writePath != "":
		if err := cfg.SaveTo(writePath); err != nil {
			return err
		}
		logger.Info("config written", zap.String("path", writePath))
		return nil
	case save:
		if err := cfg.Save(); err != nil {
			return err
		}
		logger.Info("config saved", zap.String("dir", config.ConfigDir()))
		return nil
	}
	data, err := cfg.Marshal(format)
	if err != nil {
		return err
	}
	_, err = stdout.Write(data)
	return err
}

// writeResult encodes res as indented JSON to path, or to stdout when path
// is empty.
func writeResult(res EvalResult, path string, stdout io.Writer) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if path == "" {
		_, err = stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0644)
}
