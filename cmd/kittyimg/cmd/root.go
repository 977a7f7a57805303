/*
Copyright © 2024 blacktop

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"io/fs"
	"os"

	"github.com/apex/log"
	clihander "github.com/apex/log/handlers/cli"
	"github.com/spf13/cobra"

	"github.com/blacktop/go-kittyimg"
)

var errUnsupported = errors.New("environment does not support kitty images")

func init() {
	log.SetHandler(clihander.Default)
}

type flags struct {
	size     int
	width    int
	height   int
	stretch  bool
	fallback string
	detect   bool
	verbose  bool
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCmd(nil)

// newRootCmd builds the command; a nil k uses the process wide kittyimg.Default()
func newRootCmd(k *kittyimg.Kitty) *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "kittyimg <image>",
		Short: "Print an image in terminals supporting the Kitty graphics protocol",
		Args: func(cmd *cobra.Command, args []string) error {
			if f.detect {
				return cobra.MaximumNArgs(1)(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.verbose {
				log.SetLevel(log.DebugLevel)
			}
			if k == nil {
				k = kittyimg.Default()
			}

			if f.detect {
				fmt.Fprintf(cmd.OutOrStdout(), "Kitty graphics support: %s\n", k.Level(cmd.Context()))
				return nil
			}

			req, err := f.request(cmd)
			if err != nil {
				return err
			}

			path := args[0]
			if _, err := os.Stat(path); err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					return fmt.Errorf("file does not exist: %s", path)
				}
				return fmt.Errorf("failed to access %s: %w", path, err)
			}

			fallback, err := fallbackFor(f.fallback, path, req, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			log.WithFields(log.Fields{
				"path":    path,
				"width":   req.Width,
				"height":  req.Height,
				"stretch": req.Stretch,
			}).Debug("Rendering image")

			_, err = kittyimg.RenderWith(cmd.Context(), k, kittyimg.FromPath(path), kittyimg.Options[struct{}]{
				Width:    req.Width,
				Height:   req.Height,
				Stretch:  req.Stretch,
				Fallback: fallback,
			})
			return err
		},
	}

	cmd.Flags().IntVarP(&f.size, "size", "s", 0, "Square size: sets width and height to n and disables aspect-ratio preservation")
	cmd.Flags().IntVar(&f.width, "width", 0, "Set image width in pixels")
	cmd.Flags().IntVar(&f.height, "height", 0, "Set image height in pixels")
	cmd.Flags().BoolVar(&f.stretch, "stretch", false, "Disable aspect-ratio preservation")
	cmd.Flags().StringVarP(&f.fallback, "fallback", "f", "none", "What to do without Kitty support: none, halfblocks or sixel")
	cmd.Flags().BoolVarP(&f.detect, "detect", "d", false, "Print the terminal's Kitty graphics support and exit")
	cmd.PersistentFlags().BoolVarP(&f.verbose, "verbose", "V", false, "Enable verbose logging")

	return cmd
}

// request turns the size flags into a kittyimg.Request; -s wins over the other size flags
func (f flags) request(cmd *cobra.Command) (kittyimg.Request, error) {
	if cmd.Flags().Changed("size") {
		if f.size <= 0 {
			return kittyimg.Request{}, fmt.Errorf("size must be a positive number, got %d", f.size)
		}
		return kittyimg.Request{Width: f.size, Height: f.size, Stretch: true}, nil
	}
	if cmd.Flags().Changed("width") && f.width <= 0 {
		return kittyimg.Request{}, fmt.Errorf("width must be a positive number, got %d", f.width)
	}
	if cmd.Flags().Changed("height") && f.height <= 0 {
		return kittyimg.Request{}, fmt.Errorf("height must be a positive number, got %d", f.height)
	}
	return kittyimg.Request{Width: f.width, Height: f.height, Stretch: f.stretch}, nil
}

func fallbackFor(name, path string, req kittyimg.Request, w io.Writer) (func() (struct{}, error), error) {
	switch name {
	case "", "none":
		return func() (struct{}, error) {
			return struct{}{}, errUnsupported
		}, nil
	case "halfblocks":
		return func() (struct{}, error) {
			img, err := kittyimg.DecodeFile(path)
			if err != nil {
				return struct{}{}, err
			}
			return struct{}{}, halfblocks(w, img, req)
		}, nil
	case "sixel":
		return func() (struct{}, error) {
			img, err := kittyimg.DecodeFile(path)
			if err != nil {
				return struct{}{}, err
			}
			return struct{}{}, kittyimg.Sixel(w, kittyimg.Scale(img, req), 255)
		}, nil
	default:
		return nil, fmt.Errorf("unknown fallback %q: must be none, halfblocks or sixel", name)
	}
}

// halfblocks fits the terminal unless a size was asked for, in which case
// each pixel column of the scaled image gets a cell and each cell two pixel rows
func halfblocks(w io.Writer, img image.Image, req kittyimg.Request) error {
	if req.Width <= 0 && req.Height <= 0 {
		return kittyimg.Halfblocks(w, img, 0, 0)
	}
	img = kittyimg.Scale(img, req)
	b := img.Bounds()
	return kittyimg.Halfblocks(w, img, b.Dx(), (b.Dy()+1)/2)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}
