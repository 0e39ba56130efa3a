package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/richinsley/goglboot/bootstrap"
	"github.com/richinsley/goglboot/clock"
	"github.com/richinsley/goglboot/diag"
	"github.com/richinsley/goglboot/glapi"
	"github.com/richinsley/goglboot/native"
	"github.com/richinsley/goglboot/options"
	"github.com/richinsley/goglboot/renderer"
	"github.com/richinsley/goglboot/scene"
	"github.com/richinsley/goglboot/shader"
	"github.com/richinsley/goglboot/translator"
)

// Phase names for the asset setup, after the bootstrap's own phases.
const (
	phaseShaders = "Shaders"
	phaseScene   = "Scene"
)

func init() {
	// Window, context and every GL call must stay on the main thread.
	runtime.LockOSThread()
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	opts, err := options.Parse(os.Args[0], args)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	logger, err := diag.NewLogger(opts.Logging.Level, opts.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		return 1
	}
	reporter := diag.New(logger)
	defer reporter.Sync()

	view, err := renderer.ParseViewMode(opts.Render.View)
	if err != nil {
		reporter.Error("%v", err)
		return 2
	}

	driver, err := native.New()
	if err != nil {
		reporter.Error("native driver: %v", err)
		return 1
	}
	defer driver.Close()

	clk := clock.New()
	boot := bootstrap.New(opts.Bootstrap(), driver, glapi.Loader{}, glapi.GPU{}, reporter, clk)

	loop := renderer.New(renderer.Config{
		View:        view,
		CameraStart: renderer.DefaultCameraStart,
		MaxFrames:   opts.Render.MaxFrames,
	}, driver, glapi.GPU{}, clk, reporter)

	setup := func(ready *bootstrap.Ready) (renderer.Assets, error) {
		reporter.Info("window %#x using pixel format %d", uintptr(ready.Window), ready.PixelFormat)
		if opts.Render.GLInfo {
			glapi.QueryInfo().Report(reporter, true)
		}

		clk.StartPhase(phaseShaders)
		program, err := buildProgram(opts.Render.Shaders, reporter)
		d := clk.EndPhase()
		if err != nil {
			return renderer.Assets{}, err
		}
		reporter.Info("shaders ready in %.6f seconds", d.Seconds())

		clk.StartPhase(phaseScene)
		mesh, err := glapi.UploadMesh(scene.CubePositions, scene.CubeColors, shader.LocationPosition, shader.LocationColor)
		if err != nil {
			clk.EndPhase()
			return renderer.Assets{Release: program.Delete}, err
		}
		sc := scene.New(scene.DefaultObjects, opts.Render.FOV, opts.Aspect(), opts.Render.Near, opts.Render.Far)
		d = clk.EndPhase()
		reporter.Info("scene with %d objects ready in %.6f seconds", len(sc.Objects), d.Seconds())

		for _, name := range clk.Phases() {
			reporter.Info("phase %-8s %.6f s", name, clk.Phase(name).Seconds())
		}
		reporter.Info("startup took %.6f seconds", clk.TotalPhaseTime().Seconds())

		clk.SetTimeScale(opts.Render.TimeScale)
		return renderer.Assets{
			Program: program,
			VAO:     mesh.VAO,
			Scene:   sc,
			Release: func() {
				mesh.Delete()
				program.Delete()
			},
		}, nil
	}

	if err := loop.Run(boot, setup); err != nil {
		reporter.Error("%v", err)
		return 1
	}
	return loop.ExitCode()
}

// buildProgram loads the shader sources, translates ESSL sources to desktop
// GLSL and links the program.
func buildProgram(dir string, reporter *diag.Reporter) (*shader.Program, error) {
	src, err := shader.Load(dir)
	if err != nil {
		return nil, err
	}

	var tr *translator.Translator
	if shader.NeedsTranslation(src.Vertex) || shader.NeedsTranslation(src.Fragment) {
		tr, err = translator.New(context.Background())
		if err != nil {
			return nil, fmt.Errorf("shader translator: %w", err)
		}
	}
	prepared, err := shader.Prepare(tr, src)
	if err != nil {
		return nil, err
	}
	program, err := shader.Build(prepared)
	if err != nil {
		return nil, err
	}
	reporter.Info("shader program %d linked from %s sources", program.ID, src.Origin)
	return program, nil
}
