package version

import (
	"strings"
	"testing"
)

func TestVersion(t *testing.T) {
	v := Version()
	if v == "" || strings.ContainsAny(v, " \n") {
		t.Errorf("Version() = %q", v)
	}
	if !strings.HasPrefix(BuildID(), v) {
		t.Errorf("BuildID() = %q, want prefix %q", BuildID(), v)
	}
}
