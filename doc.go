/*
Package kittyimg draws images inline in terminal emulators that support the
Kitty graphics protocol.

The terminal is probed once per process. A first query transmits a 1x1 image
inline, fenced by a device attributes request; a terminal that acknowledges it
understands the protocol. A second query hands the terminal the path of a
temporary file; a terminal that acknowledges that one can read the local
filesystem (it usually cannot over SSH). The result is one of three levels:

  - LevelNone: no Kitty graphics, use a fallback
  - LevelRemote: image bytes are streamed inline, base64 encoded in 256 character chunks
  - LevelLocal: images read from a path are written to a temporary PNG and sent by reference

Basic Usage:

	// Draw a file, fitted into a 600x600 box
	_, err := kittyimg.Render(ctx, kittyimg.FromPath("image.png"), kittyimg.Options[struct{}]{})
	var unsupported *kittyimg.UnsupportedTerminalError
	if errors.As(err, &unsupported) {
	    fmt.Println("no kitty graphics here")
	}

	// Stretch to an exact size
	_, err = kittyimg.Render(ctx, kittyimg.FromPath("image.png"), kittyimg.Options[struct{}]{
	    Width:   40,
	    Height:  40,
	    Stretch: true,
	})

	// Fall back to something else
	msg, err := kittyimg.Render(ctx, kittyimg.FromBytes(pngData), kittyimg.Options[string]{
	    Fallback: func() (string, error) { return "[image]", nil },
	})

Capability Detection:

	switch kittyimg.CapabilityLevel(ctx) {
	case kittyimg.LevelLocal:
	    fmt.Println("Kitty graphics with local file access")
	case kittyimg.LevelRemote:
	    fmt.Println("Kitty graphics, inline only")
	default:
	    fmt.Println("No Kitty graphics")
	}

Environment:

	KITTYIMG_PROBE_TIMEOUT     reply window of each probe (default 20ms)
	KITTYIMG_SETTLE_DELAY      wait after a by-reference transmission (default 20ms)
	KITTYIMG_LEVEL             force none, remote or local and skip probing
	KITTYIMG_TMUX_PASSTHROUGH  wrap sequences for tmux (default true)
	KITTYIMG_TEMP_DIR          directory for temporary files (default os.TempDir)
*/
package kittyimg
