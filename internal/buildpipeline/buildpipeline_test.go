package buildpipeline

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	for _, p := range []string{"a.tpl", "sub/b.tpl", "sub/notes.txt", ".hidden/c.tpl", "extra.soy"} {
		full := filepath.Join(dir, p)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte("{namespace x}"), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	got, err := CollectFiles([]string{dir, filepath.Join(dir, "extra.soy"), filepath.Join(dir, "a.tpl")})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		filepath.Join(dir, "a.tpl"),
		filepath.Join(dir, "extra.soy"),
		filepath.Join(dir, "sub", "b.tpl"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("files mismatch (-want +got):\n%s", diff)
	}
	if _, err := CollectFiles([]string{filepath.Join(dir, "missing")}); err == nil {
		t.Error("missing path accepted")
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		file, root, out, want string
	}{
		{"src/ns/demo.tpl", "src", "gen", filepath.Join("gen", "ns", "demo.py")},
		{"src/my-card.v2.tpl", "src", "gen", filepath.Join("gen", "my_card_v2.py")},
		{"/elsewhere/x.tpl", "src", "gen", filepath.Join("gen", "x.py")},
		{"x.tpl", "", ".", "x.py"},
	}
	for _, tt := range tests {
		if got := OutputPath(tt.file, tt.root, tt.out); got != tt.want {
			t.Errorf("OutputPath(%q, %q, %q) = %q; want %q", tt.file, tt.root, tt.out, got, tt.want)
		}
	}
}

func TestDisplayPath(t *testing.T) {
	if got := DisplayPath("base/ns/a.tpl", "base"); got != "ns/a.tpl" {
		t.Errorf("inside base: %q", got)
	}
	if got := DisplayPath("other/a.tpl", "base"); got != "other/a.tpl" && got != filepath.ToSlash(filepath.Clean("other/a.tpl")) {
		t.Errorf("outside base: %q", got)
	}
}

func TestSinksAndTimings(t *testing.T) {
	var mu sync.Mutex
	var got []Event
	sink := SinkFunc(func(e Event) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, e)
	})
	EmitQueued(sink, []string{"a", "b"})
	Emit(sink, "a", StageLower, StatusDone, nil, time.Millisecond)
	Emit(nil, "a", StageLower, StatusDone, nil, 0)
	if len(got) != 3 || got[1].File != "b" || got[2].Stage != StageLower {
		t.Errorf("events = %+v", got)
	}

	ch := make(chan Event, 1)
	ChannelSink{Ch: ch}.OnEvent(Event{File: "c"})
	ChannelSink{}.OnEvent(Event{File: "dropped"})
	if e := <-ch; e.File != "c" {
		t.Errorf("channel event = %+v", e)
	}

	var tm Timings
	tm.Add(StageParse, time.Millisecond)
	tm.Add(StageParse, time.Millisecond)
	tm.Add(StageLower, 3*time.Millisecond)
	if !tm.Has(StageParse) || tm.Has(StageWrite) {
		t.Error("Has mismatch")
	}
	if tm.Sum(StageParse, StageLower) != 5*time.Millisecond {
		t.Errorf("Sum = %v", tm.Sum(StageParse, StageLower))
	}
}
