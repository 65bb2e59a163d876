package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/indigo-web/simplehttp/config"
	json "github.com/json-iterator/go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestText(t *testing.T) {
	buff := new(bytes.Buffer)
	log := newLogger(buff, "text", zerolog.InfoLevel)
	log.Debug().Msg("hidden")
	log.Warn().Str("conn", "abc").Msg("bad request")

	out := buff.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "[WARN]")
	require.Contains(t, out, "bad request")
	require.Contains(t, out, "conn=abc")
}

func TestJSON(t *testing.T) {
	buff := new(bytes.Buffer)
	log := newLogger(buff, "json", zerolog.DebugLevel)
	log.Debug().Int("size", 10).Msg("received request")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buff.Bytes(), &line))
	require.Equal(t, "debug", line["level"])
	require.Equal(t, "received request", line["message"])
	require.Equal(t, 10.0, line["size"])
	require.Contains(t, line, "time")
}

func TestParseLevel(t *testing.T) {
	for level, want := range map[string]zerolog.Level{
		"debug": zerolog.DebugLevel,
		"INFO":  zerolog.InfoLevel,
		"Warn":  zerolog.WarnLevel,
		"ERROR": zerolog.ErrorLevel,
	} {
		got, err := ParseLevel(level)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	_, err := ParseLevel("verbose")
	require.Error(t, err)
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")
	log, closer, err := New(config.Logging{Level: "INFO", Format: "json", Output: path})
	require.NoError(t, err)

	log.Info().Msg("listening")
	require.NoError(t, closer.Close())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(content), `"message":"listening"`)
}

func TestBadOutput(t *testing.T) {
	_, _, err := New(config.Logging{Level: "INFO", Format: "text", Output: t.TempDir()})
	require.Error(t, err)
}
