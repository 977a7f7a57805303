package kittyimg

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	remoteOKReply = "\x1b_Gi=69;OK\x1b\\"
	localOKReply  = "\x1b_Gi=31;OK\x1b\\"
	da1Reply      = "\x1b[?62;22c"
)

// fakeChannel is a scripted terminal
type fakeChannel struct {
	mu       sync.Mutex
	remote   bool
	local    bool
	err      error
	queries  []string
	windows  []time.Duration
	out      bytes.Buffer
	released int
}

func (f *fakeChannel) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.out.Write(p)
}

func (f *fakeChannel) Query(ctx context.Context, seq string, window time.Duration) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.queries = append(f.queries, seq)
	f.windows = append(f.windows, window)
	if f.err != nil {
		return nil, f.err
	}

	var reply string
	switch {
	case strings.Contains(seq, "i=69"):
		if f.remote {
			reply = remoteOKReply
		}
		reply += da1Reply
	case strings.Contains(seq, "i=31"):
		if f.local {
			reply = localOKReply
		}
	}
	return []byte(reply), nil
}

func (f *fakeChannel) Release() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released++
	return nil
}

func (f *fakeChannel) queryCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

func (f *fakeChannel) output() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.out.String()
}

func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	// Fill with a simple pattern for visual verification
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8((x * 255) / width),
				G: uint8((y * 255) / height),
				B: uint8((x + y) % 255),
				A: 255,
			})
		}
	}
	return img
}

func writeTestPNG(t *testing.T, width, height int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.png")
	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()

	require.NoError(t, png.Encode(file, createTestImage(width, height)))
	return path
}

// testConfig keeps temp files inside the test's temp dir
func testConfig(t *testing.T) Config {
	cfg := DefaultConfig()
	cfg.TempDir = t.TempDir()
	cfg.SettleDelay = time.Millisecond
	return cfg
}
