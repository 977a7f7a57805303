package kittyimg

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/apex/log"

	"github.com/blacktop/go-kittyimg/pkg/apc"
)

// UnsupportedTerminalError is returned when an image cannot be drawn because
// the terminal lacks Kitty graphics support and no fallback was given.
type UnsupportedTerminalError struct{}

func (*UnsupportedTerminalError) Error() string {
	return "terminal must support Kitty graphics protocol"
}

// Source is the image to draw: either a file path or PNG bytes
type Source struct {
	Path string
	Data []byte
}

// FromPath returns a Source reading the image at path.
// Relative paths are resolved against the working directory.
func FromPath(path string) Source {
	return Source{Path: path}
}

// FromBytes returns a Source for already encoded PNG data; it is sent as-is
func FromBytes(data []byte) Source {
	return Source{Data: data}
}

func (s Source) validate() error {
	if s.Path == "" && len(s.Data) == 0 {
		return fmt.Errorf("no image source configured")
	}
	return nil
}

// Option configures a Kitty
type Option func(*Kitty)

// WithChannel sets the terminal channel instead of opening the controlling terminal
func WithChannel(ch Channel) Option {
	return func(k *Kitty) {
		k.ch = ch
	}
}

// WithImager sets the service that decodes and resizes images read from a path
func WithImager(im Imager) Option {
	return func(k *Kitty) {
		k.imager = im
	}
}

// WithConfig sets the configuration
func WithConfig(cfg Config) Option {
	return func(k *Kitty) {
		k.cfg = cfg
	}
}

// WithLogger sets the logger used for debug output
func WithLogger(l log.Interface) Option {
	return func(k *Kitty) {
		k.log = l
	}
}

// Kitty draws images on a terminal using the Kitty graphics protocol.
// The terminal's capability level is probed once and remembered.
type Kitty struct {
	cfg    Config
	ch     Channel
	imager Imager
	log    log.Interface

	once  sync.Once
	level Level
}

// New creates a Kitty
func New(opts ...Option) *Kitty {
	k := &Kitty{
		cfg:    DefaultConfig(),
		imager: PNGImager{},
		log:    log.Log,
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

var (
	defaultKitty *Kitty
	defaultOnce  sync.Once
)

// Default returns the process wide Kitty configured from the environment
func Default() *Kitty {
	defaultOnce.Do(func() {
		cfg, err := LoadConfig()
		if err != nil {
			log.WithError(err).Debug("kittyimg: falling back to default config")
		}
		defaultKitty = New(WithConfig(cfg))
	})
	return defaultKitty
}

// CapabilityLevel returns the capability level of the process' terminal
func CapabilityLevel(ctx context.Context) Level {
	return Default().Level(ctx)
}

// Level returns the terminal's capability level, probing it on the first call only.
// Concurrent first calls wait for the single probe to finish.
// Once resolved, the terminal input is released.
func (k *Kitty) Level(ctx context.Context) Level {
	k.once.Do(func() {
		k.level = k.resolve(ctx)
		k.log.WithField("level", k.level).Debug("kitty graphics support")
	})
	return k.level
}

func (k *Kitty) resolve(ctx context.Context) Level {
	if k.ch == nil {
		tty, err := OpenTTY()
		if err != nil {
			k.log.WithError(err).Debug("kitty: no controlling terminal")
		} else {
			if k.cfg.TmuxPassthrough && apc.InTmux() {
				if err := allowTmuxPassthrough(ctx); err != nil {
					k.log.WithError(err).Debug("kitty: tmux passthrough")
				}
				tty.Tmux(true)
			}
			k.ch = tty.Logger(k.log)
		}
	}

	level, forced := k.cfg.forcedLevel()
	if !forced && k.ch != nil {
		p := NewProber(k.ch, k.cfg.ProbeTimeout)
		p.tempDir = k.cfg.TempDir
		p.log = k.log
		level = p.Probe(ctx)
	}

	if k.ch != nil {
		if err := k.ch.Release(); err != nil {
			k.log.WithError(err).Debug("kitty: failed to release terminal input")
		}
	}
	return level
}

// writer is where images are drawn; only valid after Level resolved
func (k *Kitty) writer() io.Writer {
	if k.ch != nil {
		return k.ch
	}
	return os.Stdout
}

// Draw renders src on the terminal.
// Images read from a path are resized per req and re-encoded as PNG; byte sources are sent unchanged.
// It returns an *UnsupportedTerminalError without writing anything when the level is none.
func (k *Kitty) Draw(ctx context.Context, src Source, req Request) error {
	if err := src.validate(); err != nil {
		return err
	}
	if err := req.validate(); err != nil {
		return err
	}

	level := k.Level(ctx)
	if !level.Supported() {
		return &UnsupportedTerminalError{}
	}

	r := NewRenderer(k.writer(), k.cfg.SettleDelay)
	r.tempDir = k.cfg.TempDir
	r.log = k.log

	if src.Path == "" {
		return r.DrawInline(ctx, src.Data)
	}

	path, err := filepath.Abs(src.Path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	png, err := k.imager.Prepare(path, req)
	if err != nil {
		return err
	}

	if level == LevelLocal {
		return r.DrawFile(ctx, png)
	}
	return r.DrawInline(ctx, png)
}

// Options configures Render
type Options[T any] struct {
	Width  int
	Height int
	// Stretch disables aspect ratio preservation
	Stretch bool
	// Fallback is called instead of drawing when the terminal has no Kitty support
	Fallback func() (T, error)
}

func (o Options[T]) request() Request {
	return Request{Width: o.Width, Height: o.Height, Stretch: o.Stretch}
}

// Render draws src on the process' terminal.
// See RenderWith.
func Render[T any](ctx context.Context, src Source, opts Options[T]) (T, error) {
	return RenderWith(ctx, Default(), src, opts)
}

// RenderWith draws src with k. When the terminal has no Kitty support it returns
// the result of opts.Fallback, or an *UnsupportedTerminalError if there is none.
// On success the zero T is returned.
func RenderWith[T any](ctx context.Context, k *Kitty, src Source, opts Options[T]) (T, error) {
	var zero T

	err := k.Draw(ctx, src, opts.request())
	if err == nil {
		return zero, nil
	}

	var unsupported *UnsupportedTerminalError
	if errors.As(err, &unsupported) && opts.Fallback != nil {
		return opts.Fallback()
	}
	return zero, err
}
