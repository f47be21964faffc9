package telemetry

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strings"

	"panorama-service/internal/events"
)

const maxEventSize = 16 << 20

// ReadStream parses a text/event-stream body and sends each complete event
// to out. It returns nil at end of stream.
func ReadStream(ctx context.Context, r io.Reader, out chan<- events.Event) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxEventSize)

	var (
		name string
		data bytes.Buffer
		seen bool
	)
	dispatch := func() error {
		if !seen {
			return nil
		}
		ev := events.Event{Name: name, Data: bytes.Clone(data.Bytes())}
		if ev.Name == "" {
			ev.Name = "message"
		}
		name, seen = "", false
		data.Reset()
		select {
		case out <- ev:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	for sc.Scan() {
		line := strings.TrimSuffix(sc.Text(), "\r")
		if line == "" {
			if err := dispatch(); err != nil {
				return err
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			name = value
			seen = true
		case "data":
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(value)
			seen = true
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return ctx.Err()
}
