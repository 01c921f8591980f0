package media

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDurationParsesFFProbeOutput(t *testing.T) {
	prober := NewFFProbe("ffprobe", time.Second)

	var gotArgs []string
	prober.Run = func(_ context.Context, binary string, args ...string) ([]byte, error) {
		if binary != "ffprobe" {
			t.Fatalf("unexpected binary %q", binary)
		}
		gotArgs = args
		return []byte(`{"format":{"duration":"12.5","format_name":"mov,mp4"}}`), nil
	}

	seconds, err := prober.Duration(context.Background(), "/tmp/clip.mp4")
	if err != nil {
		t.Fatalf("duration: %v", err)
	}
	if seconds != 12.5 {
		t.Fatalf("expected 12.5 seconds, got %v", seconds)
	}
	if len(gotArgs) == 0 || gotArgs[len(gotArgs)-1] != "/tmp/clip.mp4" {
		t.Fatalf("expected path as final argument, got %v", gotArgs)
	}
}

func TestDurationPropagatesRunError(t *testing.T) {
	prober := NewFFProbe("ffprobe", time.Second)
	wantErr := errors.New("exit status 1")
	prober.Run = func(context.Context, string, ...string) ([]byte, error) {
		return nil, wantErr
	}

	if _, err := prober.Duration(context.Background(), "/tmp/clip.mp4"); !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped run error, got %v", err)
	}
}

func TestDurationRejectsMalformedOutput(t *testing.T) {
	cases := map[string]string{
		"invalid json":     `not json`,
		"missing duration": `{"format":{}}`,
		"bad number":       `{"format":{"duration":"soon"}}`,
	}

	for name, out := range cases {
		t.Run(name, func(t *testing.T) {
			prober := NewFFProbe("ffprobe", time.Second)
			prober.Run = func(context.Context, string, ...string) ([]byte, error) {
				return []byte(out), nil
			}
			if _, err := prober.Duration(context.Background(), "/tmp/clip.mp4"); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}
