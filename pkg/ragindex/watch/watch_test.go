package watch_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/config"
	"github.com/animegolem/cli-rag-sub000/pkg/ragindex/watch"
)

// Contract: the first NDJSON line is the watch_start handshake naming the
// configured debounce interval and bases (spec §4.12, §6).
func Test_Run_EmitsHandshakeThenInitialCycle(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.md"), []byte("---\nid: A-1\n---\n# A\n"), 0o644))

	cfg := &config.Config{
		ConfigDir:     dir,
		Bases:         []string{dir},
		FilePatterns:  []string{"*.md"},
		IndexRelative: "index.json",
	}

	var buf bytes.Buffer

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err := watch.Run(ctx, watch.Options{
		Cfg:        cfg,
		DebounceMs: 10,
		Out:        &buf,
		Now:        func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)

	lines := splitLines(t, buf.Bytes())
	require.GreaterOrEqual(t, len(lines), 2)

	var start struct {
		Event           string   `json:"event"`
		ProtocolVersion int      `json:"protocolVersion"`
		DebounceMs      int      `json:"debounceMs"`
		Bases           []string `json:"bases"`
	}
	require.NoError(t, json.Unmarshal(lines[0], &start))
	require.Equal(t, "watch_start", start.Event)
	require.Equal(t, 1, start.ProtocolVersion)
	require.Equal(t, 10, start.DebounceMs)
	require.Equal(t, []string{dir}, start.Bases)

	var cycle struct {
		Event        string `json:"event"`
		OK           bool   `json:"ok"`
		RewroteIndex bool   `json:"rewroteIndex"`
		DocCount     int    `json:"docCount"`
	}
	require.NoError(t, json.Unmarshal(lines[1], &cycle))
	require.Equal(t, "cycle", cycle.Event)
	require.True(t, cycle.OK)
	require.True(t, cycle.RewroteIndex)
	require.Equal(t, 1, cycle.DocCount)

	_, err = os.Stat(filepath.Join(dir, "index.json"))
	require.NoError(t, err)
}

// Contract: a file change after the initial pass produces a second cycle
// event once the debounce window elapses.
func Test_Run_DebouncesFileChangeIntoSecondCycle(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "a.md")
	require.NoError(t, os.WriteFile(path, []byte("---\nid: A-1\n---\n# A\n"), 0o644))

	cfg := &config.Config{
		ConfigDir:     dir,
		Bases:         []string{dir},
		FilePatterns:  []string{"*.md"},
		IndexRelative: "index.json",
	}

	var buf bytes.Buffer

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	go func() {
		time.Sleep(150 * time.Millisecond)
		_ = os.WriteFile(path, []byte("---\nid: A-1\n---\n# A\n\nmore content\n"), 0o644)
	}()

	go func() {
		time.Sleep(1500 * time.Millisecond)
		cancel()
	}()

	err := watch.Run(ctx, watch.Options{
		Cfg:        cfg,
		DebounceMs: 50,
		Out:        &buf,
	})
	require.NoError(t, err)

	lines := splitLines(t, buf.Bytes())
	require.GreaterOrEqual(t, len(lines), 3)
}

func splitLines(t *testing.T, data []byte) [][]byte {
	t.Helper()

	var out [][]byte

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := append([]byte(nil), scanner.Bytes()...)
		if len(line) > 0 {
			out = append(out, line)
		}
	}

	require.NoError(t, scanner.Err())

	return out
}
