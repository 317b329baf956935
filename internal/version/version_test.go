package version

import (
	"strings"
	"testing"
)

func TestString_ContainsBuildMetadata(t *testing.T) {
	s := String()
	for _, part := range []string{Version, Commit, Date} {
		if !strings.Contains(s, part) {
			t.Errorf("expected %q in %q", part, s)
		}
	}
}
