package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

const DefaultErrorLogTimezone = "Asia/Dhaka"

// ErrorRecord is one failed request.
type ErrorRecord struct {
	Method string
	Route  string
	Query  string
	Body   string
	Err    error
	Stack  string
}

// ErrorLog appends failed requests to <dataPath>/server_error/YYYY/MM/DD.log,
// dated in its own timezone.
type ErrorLog struct {
	fs  afero.Fs
	dir string
	loc *time.Location
	now func() time.Time
	mu  sync.Mutex
}

func NewErrorLog(fs afero.Fs, dataPath, timezone string) (*ErrorLog, error) {
	if timezone == "" {
		timezone = DefaultErrorLogTimezone
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load error log timezone %q: %w", timezone, err)
	}
	return &ErrorLog{
		fs:  fs,
		dir: filepath.Join(dataPath, "server_error"),
		loc: loc,
		now: time.Now,
	}, nil
}

// Record writes rec and returns the reference handed back to the client.
func (l *ErrorLog) Record(rec ErrorRecord) (string, error) {
	now := l.now().In(l.loc)
	reference := fmt.Sprintf("%s|%s", uuid.NewString(), now.Format("2006-01-02:T15:04:05"))

	path := l.Path(now)
	dir := filepath.Dir(path)

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create error log directory: %w", err)
	}
	f, err := l.fs.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return "", fmt.Errorf("open error log: %w", err)
	}
	defer f.Close()

	logger := zerolog.New(f)
	event := logger.Error().
		Time("time", now).
		Str("reference", reference).
		Str("route", rec.Method+" "+rec.Route).
		Str("query", rec.Query).
		Str("body", rec.Body).
		Err(rec.Err)
	if rec.Stack != "" {
		event = event.Str("stack", rec.Stack)
	}
	event.Msg("request failed")

	return reference, nil
}

// Path returns the file a record written at t goes to.
func (l *ErrorLog) Path(t time.Time) string {
	t = t.In(l.loc)
	return filepath.Join(l.dir, t.Format("2006"), t.Format("01"), t.Format("02")+".log")
}
