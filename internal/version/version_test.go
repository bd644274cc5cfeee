package version

import (
	"testing"

	"github.com/fatih/color"
)

func TestVersionDefault(t *testing.T) {
	if Version == "" {
		t.Error("Version should have a default value")
	}
}

func TestColoredPlain(t *testing.T) {
	old := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = old }()

	for _, v := range []string{"0.1.0-dev", "1.2.3", "1.2.3-rc.1+build.123", "dev", "1.2"} {
		if got := Colored(v); got != v {
			t.Errorf("Colored(%q) = %q with colors off", v, got)
		}
	}
}

func TestColoredKeepsSuffix(t *testing.T) {
	old := color.NoColor
	color.NoColor = false
	defer func() { color.NoColor = old }()

	got := Colored("1.2.3-dev")
	if got == "1.2.3-dev" {
		t.Fatal("no color applied")
	}
	if got[len(got)-4:] != "-dev" {
		t.Errorf("suffix lost: %q", got)
	}
	if Colored("dev") != "dev" {
		t.Error("non-semver input changed")
	}
}
