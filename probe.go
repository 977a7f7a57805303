package kittyimg

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/apex/log"

	"github.com/blacktop/go-kittyimg/pkg/apc"
)

// Image ids used by the two probes; replies are matched on them
const (
	remoteProbeID = 69
	localProbeID  = 31
)

// tempPattern is the name of every file handed to the terminal by path.
// Kitty only reads t=t files whose name contains "tty-graphics-protocol";
// os.CreateTemp replaces the star with a random number.
const tempPattern = ".tmp.kitty.tty-graphics-protocol.*"

var (
	remoteOK = apc.OK(remoteProbeID)
	localOK  = apc.OK(localProbeID)
)

// placeholderPixel is a single translucent black RGBA pixel (f=32 is the default format)
var placeholderPixel = []byte{0x00, 0x00, 0x00, 0x77}

// Prober asks the terminal what it can do with Kitty graphics
type Prober struct {
	ch      Channel
	timeout time.Duration
	tempDir string
	log     log.Interface
}

// NewProber creates a prober talking over ch, giving the terminal timeout to reply to each query
func NewProber(ch Channel, timeout time.Duration) *Prober {
	return &Prober{
		ch:      ch,
		timeout: timeout,
		log:     log.Log,
	}
}

// remoteQuery transmits a 1x1 RGB pixel inline and asks for device attributes
// right after it, so the terminal always says something even if it ignores APC.
func remoteQuery() string {
	return apc.New().
		Set("i", remoteProbeID).
		Set("s", 1).
		Set("v", 1).
		Set("a", "q").
		Set("t", "d").
		Set("f", 24).
		Payload("AAAA") + apc.DeviceAttributes
}

func localQuery(path string) string {
	return apc.New().
		Set("i", localProbeID).
		Set("s", 1).
		Set("v", 1).
		Set("a", "q").
		Set("t", "t").
		Path(path)
}

// RemoteSupport reports whether the terminal understands the graphics protocol
func (p *Prober) RemoteSupport(ctx context.Context) bool {
	resp, err := p.ch.Query(ctx, remoteQuery(), p.timeout)
	if err != nil {
		p.log.WithError(err).Debug("kitty remote probe failed")
		return false
	}
	ok := remoteOK.Match(resp)
	p.log.WithFields(log.Fields{"reply": fmt.Sprintf("%q", resp), "ok": ok}).Debug("kitty remote probe")
	return ok
}

// LocalSupport reports whether the terminal can load an image from a file path.
// The probe file is left for the terminal (which deletes t=t files it reads) or the OS.
func (p *Prober) LocalSupport(ctx context.Context) bool {
	path, err := writeProbeFile(p.tempDir)
	if err != nil {
		p.log.WithError(err).Debug("kitty local probe failed")
		return false
	}
	resp, err := p.ch.Query(ctx, localQuery(path), p.timeout)
	if err != nil {
		p.log.WithError(err).Debug("kitty local probe failed")
		return false
	}
	ok := localOK.Match(resp)
	p.log.WithFields(log.Fields{"path": path, "reply": fmt.Sprintf("%q", resp), "ok": ok}).Debug("kitty local probe")
	return ok
}

// Probe runs the remote probe and, only if it succeeds, the local one
func (p *Prober) Probe(ctx context.Context) Level {
	if !p.RemoteSupport(ctx) {
		return LevelNone
	}
	if p.LocalSupport(ctx) {
		return LevelLocal
	}
	return LevelRemote
}

func writeProbeFile(dir string) (string, error) {
	f, err := os.CreateTemp(dir, tempPattern)
	if err != nil {
		return "", fmt.Errorf("failed to create probe file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(placeholderPixel); err != nil {
		return "", fmt.Errorf("failed to write probe file: %w", err)
	}
	return f.Name(), nil
}
