package logging

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorLog_WritesDatedFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	errLog, err := NewErrorLog(fs, "/data", "")
	require.NoError(t, err)

	// 20:30 UTC is already the next day in Dhaka (UTC+6)
	errLog.now = func() time.Time { return time.Date(2024, 3, 9, 20, 30, 0, 0, time.UTC) }

	ref, err := errLog.Record(ErrorRecord{
		Method: "GET",
		Route:  "/api/comment/P1",
		Query:  "page=1",
		Err:    errors.New("connection refused"),
	})
	require.NoError(t, err)

	id, stamp, ok := strings.Cut(ref, "|")
	require.True(t, ok)
	assert.Len(t, id, 36)
	assert.Equal(t, "2024-03-10:T02:30:00", stamp)

	raw, err := afero.ReadFile(fs, "/data/server_error/2024/03/10.log")
	require.NoError(t, err)

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &line))
	assert.Equal(t, ref, line["reference"])
	assert.Equal(t, "GET /api/comment/P1", line["route"])
	assert.Equal(t, "connection refused", line["error"])
	assert.Equal(t, "error", line["level"])
}

func TestErrorLog_AppendsRecords(t *testing.T) {
	fs := afero.NewMemMapFs()
	errLog, err := NewErrorLog(fs, "/data", "UTC")
	require.NoError(t, err)
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	errLog.now = func() time.Time { return at }

	for i := 0; i < 3; i++ {
		_, err := errLog.Record(ErrorRecord{Method: "POST", Route: "/x", Err: errors.New("boom")})
		require.NoError(t, err)
	}

	raw, err := afero.ReadFile(fs, errLog.Path(at))
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(string(raw), "\n"))
}

func TestNewErrorLog_RejectsUnknownTimezone(t *testing.T) {
	_, err := NewErrorLog(afero.NewMemMapFs(), "/data", "Mars/Olympus")
	assert.Error(t, err)
}
