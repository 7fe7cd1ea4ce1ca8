package feed

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rafaelpm/gram/internal/bus"
	"go.uber.org/zap"
)

// Feed tails a JSONL update stream and publishes each decoded record on
// the bus under the "net." namespace. It is the stand-in for the
// network/API layer: the store core never sees it, only the events it
// emits.
type Feed struct {
	path   string
	bus    *bus.Bus
	logger *zap.Logger
	follow bool
	cancel context.CancelFunc
}

// New creates a feed reading from path. When follow is set the feed
// keeps polling for appended lines after reaching EOF, tail -f style.
func New(path string, b *bus.Bus, logger *zap.Logger, follow bool) *Feed {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Feed{path: path, bus: b, logger: logger, follow: follow}
}

// Start opens the stream and begins publishing in a background
// goroutine.
func (f *Feed) Start(ctx context.Context) error {
	file, err := os.Open(f.path)
	if err != nil {
		return err
	}
	ctx, f.cancel = context.WithCancel(ctx)

	go func() {
		defer func() { _ = file.Close() }()
		f.run(ctx, file)
	}()
	return nil
}

// Stop stops the feed.
func (f *Feed) Stop() {
	if f.cancel != nil {
		f.cancel()
	}
}

func (f *Feed) run(ctx context.Context, r io.Reader) {
	reader := bufio.NewReader(r)
	var partial strings.Builder
	published := 0

	for {
		if ctx.Err() != nil {
			return
		}
		chunk, err := reader.ReadString('\n')
		if chunk != "" {
			partial.WriteString(chunk)
		}
		if err == nil {
			line := strings.TrimRight(partial.String(), "\n")
			partial.Reset()
			if f.publishLine(line) {
				published++
			}
			continue
		}
		if !errors.Is(err, io.EOF) {
			f.logger.Error("feed read failed", zap.Error(err))
			return
		}
		// EOF: either wait for more or finish.
		if !f.follow {
			if tail := partial.String(); tail != "" {
				f.publishLine(tail)
			}
			f.logger.Info("feed drained", zap.Int("records", published))
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(250 * time.Millisecond):
		}
	}
}

func (f *Feed) publishLine(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	evt, err := Decode([]byte(line))
	if err != nil {
		// A malformed line is the transport's problem, not ours; skip it.
		f.logger.Warn("skipping feed line", zap.Error(err))
		return false
	}
	f.bus.Publish(evt)
	return true
}
