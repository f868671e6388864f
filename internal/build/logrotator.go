package build

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jrick/logrotate/rotator"
)

// DefaultLogFilename is the daemon's log file inside the log directory.
const DefaultLogFilename = "propsumd.log"

// LogFileConfig describes the daemon's rotating log file.
type LogFileConfig struct {
	// Dir is created if missing.
	Dir string

	// Name defaults to DefaultLogFilename.
	Name string

	// MaxFiles is how many gzip-compressed rotations are kept. Zero keeps
	// a single ever-growing file.
	MaxFiles int

	// MaxSizeMB is the size at which the live file is rotated.
	MaxSizeMB int
}

// DefaultLogFileConfig keeps ten rotations of 20MB each under dir.
func DefaultLogFileConfig(dir string) *LogFileConfig {
	return &LogFileConfig{
		Dir:       dir,
		Name:      DefaultLogFilename,
		MaxFiles:  10,
		MaxSizeMB: 20,
	}
}

// Path is the location of the live log file.
func (c *LogFileConfig) Path() string {
	name := c.Name
	if name == "" {
		name = DefaultLogFilename
	}

	return filepath.Join(c.Dir, name)
}

// LogFile is an io.Writer feeding a size-rotated log file. Writes go
// through a pipe to the rotator goroutine.
type LogFile struct {
	pw      *io.PipeWriter
	rotator *rotator.Rotator
	done    chan struct{}
}

// OpenLogFile creates the log directory and starts rotating into it.
func OpenLogFile(cfg *LogFileConfig) (*LogFile, error) {
	path := cfg.Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	// The rotator thresholds are in KB.
	rot, err := rotator.New(
		path, int64(cfg.MaxSizeMB)*1024, false, cfg.MaxFiles,
	)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	rot.SetCompressor(gzip.NewWriter(nil), ".gz")

	pr, pw := io.Pipe()
	f := &LogFile{
		pw:      pw,
		rotator: rot,
		done:    make(chan struct{}),
	}

	go func() {
		defer close(f.done)

		// The log file is the failing sink, so stderr it is.
		if err := rot.Run(pr); err != nil {
			fmt.Fprintf(os.Stderr, "log rotator stopped: %v\n", err)
		}
	}()

	return f, nil
}

// Write hands b to the rotator.
func (f *LogFile) Write(b []byte) (int, error) {
	return f.pw.Write(b)
}

// Close flushes pending output and closes the file.
func (f *LogFile) Close() error {
	err := f.pw.Close()
	<-f.done

	if cerr := f.rotator.Close(); err == nil {
		err = cerr
	}

	return err
}
