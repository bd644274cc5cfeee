package ui

import (
	"strings"
	"testing"
	"time"

	"tmplc/internal/buildpipeline"
)

func feed(m *progressModel, events ...buildpipeline.Event) {
	for _, ev := range events {
		m.Update(eventMsg(ev))
	}
}

func TestProgressModelTracksFiles(t *testing.T) {
	files := []string{"a.tpl", "b.tpl", "c.tpl"}
	m := NewProgressModel("compiling", files, nil, buildpipeline.StageWrite).(*progressModel)

	feed(m,
		buildpipeline.Event{File: "a.tpl", Stage: buildpipeline.StageParse, Status: buildpipeline.StatusWorking},
		buildpipeline.Event{File: "a.tpl", Stage: buildpipeline.StageParse, Status: buildpipeline.StatusDone, Elapsed: 2 * time.Millisecond},
		buildpipeline.Event{File: "a.tpl", Stage: buildpipeline.StageLower, Status: buildpipeline.StatusDone, Elapsed: time.Millisecond},
		buildpipeline.Event{File: "b.tpl", Stage: buildpipeline.StageParse, Status: buildpipeline.StatusError},
		buildpipeline.Event{File: "b.tpl", Stage: buildpipeline.StageCheck, Status: buildpipeline.StatusWorking},
		buildpipeline.Event{File: "c.tpl", Stage: buildpipeline.StageCheck, Status: buildpipeline.StatusWorking},
		buildpipeline.Event{File: "unknown.tpl", Stage: buildpipeline.StageParse, Status: buildpipeline.StatusDone},
	)
	if m.items[0].finished {
		t.Error("a.tpl finished before the write stage")
	}
	if it := m.items[1]; !it.failed || it.status != "error" {
		t.Errorf("b.tpl = %+v; want sticky error", it)
	}
	if m.items[2].status != "checking" {
		t.Errorf("c.tpl status = %q", m.items[2].status)
	}

	feed(m, buildpipeline.Event{File: "a.tpl", Stage: buildpipeline.StageWrite, Status: buildpipeline.StatusDone})
	if !m.items[0].finished {
		t.Error("a.tpl not finished after write")
	}
	if got := m.items[0].timings.Sum(buildpipeline.Stages...); got != 3*time.Millisecond {
		t.Errorf("a.tpl time = %v", got)
	}

	m.Update(doneMsg{})
	view := m.View()
	for _, want := range []string{"done: compiling 2/3, 1 failed", "a.tpl", "3.0ms", "error"} {
		if !strings.Contains(view, want) {
			t.Errorf("view lacks %q:\n%s", want, view)
		}
	}
}

func TestProgressModelCachedIsFinal(t *testing.T) {
	m := NewProgressModel("x", []string{"a.tpl"}, nil, buildpipeline.StageLower).(*progressModel)
	feed(m, buildpipeline.Event{File: "a.tpl", Stage: buildpipeline.StageLower, Status: buildpipeline.StatusCached})
	if !m.items[0].finished || m.items[0].status != "cached" {
		t.Errorf("item = %+v", m.items[0])
	}
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		in    string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"templates/long_name.tpl", 10, "templat..."},
		{"abcdef", 2, "ab"},
		{"日本語ファイル", 7, "日本..."},
	}
	for _, c := range cases {
		if got := truncate(c.in, c.width); got != c.want {
			t.Errorf("truncate(%q, %d) = %q; want %q", c.in, c.width, got, c.want)
		}
	}
}
