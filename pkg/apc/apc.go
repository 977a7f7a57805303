/*
Package apc builds Kitty graphics protocol APC sequences and matches the terminal's replies
*/
package apc

import (
	"encoding/base64"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

const (
	// Start opens a graphics command (ESC _ G)
	Start = "\x1b_G"
	// End is the string terminator (ESC \)
	End = "\x1b\\"
	// DeviceAttributes is the primary device attributes query (DA1)
	DeviceAttributes = "\x1b[c"
)

// Command is an ordered list of key=value control data for a single graphics command.
// Order is preserved because some terminals are picky about it.
type Command struct {
	keys []string
}

// New returns an empty graphics command
func New() *Command {
	return &Command{}
}

// Set appends a key=value control pair
func (c *Command) Set(key string, value any) *Command {
	c.keys = append(c.keys, fmt.Sprintf("%s=%v", key, value))
	return c
}

// Controls returns the comma separated control data
func (c *Command) Controls() string {
	return strings.Join(c.keys, ",")
}

// Payload renders the full escape sequence carrying payload
func (c *Command) Payload(payload string) string {
	return Start + c.Controls() + ";" + payload + End
}

// Path renders the full escape sequence carrying a base64 encoded file path
func (c *Command) Path(path string) string {
	return c.Payload(base64.StdEncoding.EncodeToString([]byte(path)))
}

// OK returns a matcher for a successful reply to the image with the given id.
// Replies look like ESC _ G i=<id> ; OK ESC \ but some terminals echo extra keys
// so both ';' and ',' are accepted as separator.
func OK(id int) *regexp.Regexp {
	return regexp.MustCompile(`_Gi=` + strconv.Itoa(id) + `[;,]OK`)
}

// InTmux checks if running inside tmux
func InTmux() bool {
	return os.Getenv("TMUX") != "" || os.Getenv("TERM_PROGRAM") == "tmux"
}

// WrapTmux hands seq to the outer terminal through a tmux DCS passthrough:
// ESC P tmux; <seq with every ESC doubled> ESC \
func WrapTmux(seq string) string {
	if !strings.HasPrefix(seq, "\x1b") {
		return seq
	}
	return "\x1bPtmux;" + strings.ReplaceAll(seq, "\x1b", "\x1b\x1b") + End
}
