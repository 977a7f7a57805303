package kittyimg

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoteQuery(t *testing.T) {
	assert.Equal(t, "\x1b_Gi=69,s=1,v=1,a=q,t=d,f=24;AAAA\x1b\\\x1b[c", remoteQuery())
}

func TestLocalQuery(t *testing.T) {
	path := "/tmp/.tmp.kitty.tty-graphics-protocol.42"
	want := "\x1b_Gi=31,s=1,v=1,a=q,t=t;" + base64.StdEncoding.EncodeToString([]byte(path)) + "\x1b\\"
	assert.Equal(t, want, localQuery(path))
}

type replyChannel struct {
	fakeChannel
	reply string
}

func (r *replyChannel) Query(ctx context.Context, seq string, window time.Duration) ([]byte, error) {
	r.fakeChannel.Query(ctx, seq, window)
	return []byte(r.reply), nil
}

func TestRemoteSupport(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  bool
	}{
		{name: "ok with semicolon", reply: "\x1b_Gi=69;OK\x1b\\\x1b[?62;c", want: true},
		{name: "ok with comma", reply: "\x1b_Gi=69,OK\x1b\\\x1b[?62;c", want: true},
		{name: "device attributes only", reply: "\x1b[?62;22c", want: false},
		{name: "protocol error", reply: "\x1b_Gi=69;ENOTSUPPORTED:nope\x1b\\\x1b[?62;c", want: false},
		{name: "silence", reply: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch := &replyChannel{reply: tt.reply}
			p := NewProber(ch, 20*time.Millisecond)

			assert.Equal(t, tt.want, p.RemoteSupport(context.Background()))
			require.Len(t, ch.queries, 1)
			assert.Equal(t, remoteQuery(), ch.queries[0])
			assert.Equal(t, 20*time.Millisecond, ch.windows[0])
		})
	}
}

func TestRemoteSupportChannelError(t *testing.T) {
	ch := &fakeChannel{remote: true, err: ErrNotTerminal}
	p := NewProber(ch, 20*time.Millisecond)

	assert.False(t, p.RemoteSupport(context.Background()), "probe errors mean no support")
}

func TestLocalSupport(t *testing.T) {
	for _, supported := range []bool{true, false} {
		ch := &fakeChannel{local: supported}
		p := NewProber(ch, 20*time.Millisecond)
		p.tempDir = t.TempDir()

		assert.Equal(t, supported, p.LocalSupport(context.Background()))
		require.Len(t, ch.queries, 1)

		// the query references a real probe file holding one RGBA pixel
		query := ch.queries[0]
		require.True(t, strings.HasPrefix(query, "\x1b_Gi=31,s=1,v=1,a=q,t=t;"))
		encoded := strings.TrimSuffix(strings.SplitN(query, ";", 2)[1], "\x1b\\")
		path, err := base64.StdEncoding.DecodeString(encoded)
		require.NoError(t, err)
		assert.Contains(t, string(path), "tty-graphics-protocol")

		data, err := os.ReadFile(string(path))
		require.NoError(t, err)
		assert.Equal(t, placeholderPixel, data)
	}
}

func TestLocalSupportUniqueFiles(t *testing.T) {
	dir := t.TempDir()
	first, err := writeProbeFile(dir)
	require.NoError(t, err)
	second, err := writeProbeFile(dir)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestLocalSupportTempDirFailure(t *testing.T) {
	ch := &fakeChannel{local: true}
	p := NewProber(ch, 20*time.Millisecond)
	p.tempDir = "/nonexistent/kittyimg"

	assert.False(t, p.LocalSupport(context.Background()))
	assert.Empty(t, ch.queries, "no query without a probe file")
}

func TestProbe(t *testing.T) {
	tests := []struct {
		name        string
		remote      bool
		local       bool
		want        Level
		wantQueries int
	}{
		{name: "no support skips the local probe", remote: false, local: true, want: LevelNone, wantQueries: 1},
		{name: "remote only", remote: true, local: false, want: LevelRemote, wantQueries: 2},
		{name: "local", remote: true, local: true, want: LevelLocal, wantQueries: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch := &fakeChannel{remote: tt.remote, local: tt.local}
			p := NewProber(ch, 20*time.Millisecond)
			p.tempDir = t.TempDir()

			assert.Equal(t, tt.want, p.Probe(context.Background()))
			assert.Len(t, ch.queries, tt.wantQueries)
			assert.True(t, strings.Contains(ch.queries[0], "i=69"), "remote probe runs first")
		})
	}
}

func TestProbeError(t *testing.T) {
	ch := &fakeChannel{err: errors.New("boom")}
	p := NewProber(ch, 20*time.Millisecond)

	assert.Equal(t, LevelNone, p.Probe(context.Background()))
}
