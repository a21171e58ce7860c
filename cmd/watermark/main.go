// Package main (in watermark-subfolder) provides the command-line entry point for watermarking local files
package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/UnendingLoop/ImageWatermarker/internal/imageproc"
	"github.com/UnendingLoop/ImageWatermarker/internal/model"
	"github.com/wb-go/wbf/zlog"
)

const usage = "Usage: watermark overlay|behind <foreground> <watermark> <output>"

var errUsage = errors.New(usage)

func main() {
	zlog.InitConsole()
	if err := zlog.SetLevel("info"); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, usage)
		} else {
			zlog.Logger.Error().Err(err).Msg("watermarking failed")
		}
		os.Exit(1)
	}
}

// run - разбор аргументов и наложение с фиксированным пресетом CLI
func run(args []string, out io.Writer) error {
	if len(args) < 4 {
		return errUsage
	}

	mode, err := model.ParseMode(args[0])
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	fg, wm, dst := args[1], args[2], args[3]

	if err := imageproc.Apply(mode, fg, wm, dst, imageproc.CLIPreset(mode)); err != nil {
		return err
	}

	zlog.Logger.Info().Str("mode", string(mode)).Str("output", dst).Msg("watermark applied")
	fmt.Fprintf(out, "Saved %s watermark to %s\n", mode, dst)
	return nil
}
