package kittyimg

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/apex/log"

	"github.com/blacktop/go-kittyimg/pkg/apc"
)

// Every image is placed at the same cell offset
const (
	offsetX = 4
	offsetY = 4
)

// Renderer writes PNG images to the terminal using the Kitty graphics protocol
type Renderer struct {
	w       io.Writer
	settle  time.Duration
	tempDir string
	log     log.Interface
}

// NewRenderer creates a renderer writing to w
func NewRenderer(w io.Writer, settle time.Duration) *Renderer {
	return &Renderer{
		w:      w,
		settle: settle,
		log:    log.Log,
	}
}

func fileCommand(path string) string {
	return apc.New().
		Set("f", 100).
		Set("t", "t").
		Set("a", "T").
		Set("X", offsetX).
		Set("Y", offsetY).
		Path(path)
}

func chunkCommand(c Chunk) string {
	return apc.New().
		Set("f", 100).
		Set("m", c.flag()).
		Set("a", "T").
		Set("X", offsetX).
		Set("Y", offsetY).
		Payload(c.Data)
}

// DrawFile saves png to a temporary file and asks the terminal to load it from there
func (r *Renderer) DrawFile(ctx context.Context, png []byte) error {
	f, err := os.CreateTemp(r.tempDir, tempPattern+".png")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := f.Write(png); err != nil {
		f.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	r.log.WithField("path", f.Name()).Debug("kitty: transmitting by reference")

	if _, err := io.WriteString(r.w, fileCommand(f.Name())); err != nil {
		return fmt.Errorf("failed to write image: %w", err)
	}

	// give the terminal a moment to read the file before moving the cursor
	timer := time.NewTimer(r.settle)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		return ctx.Err()
	}

	if _, err := io.WriteString(r.w, "\n"); err != nil {
		return fmt.Errorf("failed to write image: %w", err)
	}
	return nil
}

// DrawInline streams png through the escape sequences themselves.
// Chunks are written strictly in order; the terminal shows the image once m=0 arrives.
func (r *Renderer) DrawInline(ctx context.Context, png []byte) error {
	chunks := Chunks(png, ChunkSize)
	r.log.WithFields(log.Fields{"bytes": len(png), "chunks": len(chunks)}).Debug("kitty: transmitting inline")

	for i, c := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := io.WriteString(r.w, chunkCommand(c)); err != nil {
			return fmt.Errorf("failed to write chunk %d/%d: %w", i+1, len(chunks), err)
		}
	}

	if _, err := io.WriteString(r.w, "\n"); err != nil {
		return fmt.Errorf("failed to write image: %w", err)
	}
	return nil
}
