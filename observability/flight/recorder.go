/*
Package flight keeps a runtime flight recorder running and writes a snapshot
when a remoting call is slower than the configured threshold.
*/
package flight

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/trace"
	"sync"
	"time"

	"github.com/shortlink-org/go-sdk/remoting/config"
)

var ErrNotRunning = errors.New("flight recorder not enabled or started")

// Recorder - structure for flight recorder
type Recorder struct {
	fr        *trace.FlightRecorder
	lastDump  time.Time
	dumpPath  string
	threshold time.Duration
	interval  time.Duration
	mu        sync.Mutex
}

// New starts the recorder when FLIGHT_RECORDER_ENABLED is set; otherwise it returns nil.
func New(cfg *config.Config) (*Recorder, error) {
	cfg.SetDefault("FLIGHT_RECORDER_ENABLED", false)
	cfg.SetDefault("FLIGHT_RECORDER_DUMP_PATH", filepath.Join(os.TempDir(), "remoting-flight"))
	cfg.SetDefault("FLIGHT_RECORDER_MIN_AGE", "10s")
	cfg.SetDefault("FLIGHT_RECORDER_MAX_BYTES", 16<<20)
	cfg.SetDefault("FLIGHT_RECORDER_SLOW_THRESHOLD", "1s")
	cfg.SetDefault("FLIGHT_RECORDER_DUMP_INTERVAL", "1m")

	if !cfg.GetBool("FLIGHT_RECORDER_ENABLED") {
		return nil, nil //nolint:nilnil // disabled
	}

	dumpPath := cfg.GetString("FLIGHT_RECORDER_DUMP_PATH")

	if err := os.MkdirAll(dumpPath, 0o755); err != nil { //nolint:mnd // directory mode
		return nil, fmt.Errorf("failed to create flight recorder dump path %q: %w", dumpPath, err)
	}

	fr := trace.NewFlightRecorder(trace.FlightRecorderConfig{
		MinAge:   cfg.GetDuration("FLIGHT_RECORDER_MIN_AGE"),
		MaxBytes: uint64(max(cfg.GetInt("FLIGHT_RECORDER_MAX_BYTES"), 0)),
	})
	if err := fr.Start(); err != nil {
		return nil, fmt.Errorf("failed to start flight recorder: %w", err)
	}

	return &Recorder{
		fr:        fr,
		dumpPath:  dumpPath,
		threshold: cfg.GetDuration("FLIGHT_RECORDER_SLOW_THRESHOLD"),
		interval:  cfg.GetDuration("FLIGHT_RECORDER_DUMP_INTERVAL"),
	}, nil
}

// ObserveSlow dumps a snapshot when elapsed reaches the threshold, at most
// once per dump interval. It returns the file written, if any.
func (wr *Recorder) ObserveSlow(name string, elapsed time.Duration) (string, error) {
	if wr == nil || elapsed < wr.threshold {
		return "", nil
	}

	wr.mu.Lock()
	if !wr.lastDump.IsZero() && time.Since(wr.lastDump) < wr.interval {
		wr.mu.Unlock()

		return "", nil
	}
	wr.lastDump = time.Now()
	wr.mu.Unlock()

	return wr.DumpSnapshot(name)
}

// DumpSnapshot triggers a dump to a file in the configured dumpPath
func (wr *Recorder) DumpSnapshot(fileNameSuffix string) (string, error) {
	if wr == nil || wr.fr == nil || !wr.fr.Enabled() {
		return "", ErrNotRunning
	}

	filePath := filepath.Join(wr.dumpPath, fmt.Sprintf("flight-%s-%d.out", fileNameSuffix, time.Now().UnixNano()))

	f, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create flight dump file %q: %w", filePath, err)
	}
	defer f.Close()

	_, err = wr.fr.WriteTo(f)
	if err != nil {
		return "", fmt.Errorf("failed to write flight dump: %w", err)
	}

	return filePath, nil
}

// Stop stops the flight recorder when shutting down
func (wr *Recorder) Stop() {
	if wr == nil || wr.fr == nil {
		return
	}

	wr.fr.Stop()
}
