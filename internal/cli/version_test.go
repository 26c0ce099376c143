package cli

import (
	"bytes"
	"strings"
	"testing"
)

func setBuildVars(t *testing.T, v, c, d string) {
	t.Helper()
	origV, origC, origD := version, commit, date
	t.Cleanup(func() { version, commit, date = origV, origC, origD })
	version, commit, date = v, c, d
}

func TestResolveVersionInfo_ReleaseBuildKeepsLdflags(t *testing.T) {
	setBuildVars(t, "v0.4.0", "abc1234", "2026-03-01")

	v, c, d := resolveVersionInfo()
	if v != "v0.4.0" || c != "abc1234" || d != "2026-03-01" {
		t.Errorf("resolveVersionInfo() = %q, %q, %q; ldflags values must be kept", v, c, d)
	}
}

func TestResolveVersionInfo_DevBuildNeverEmpty(t *testing.T) {
	setBuildVars(t, "dev", "unknown", "unknown")

	v, c, d := resolveVersionInfo()
	if v == "" || c == "" || d == "" {
		t.Errorf("resolveVersionInfo() returned an empty value: %q, %q, %q", v, c, d)
	}
	if c != "unknown" && len(c) != 7 {
		t.Errorf("commit from build info should be shortened to 7 chars, got %q", c)
	}
}

func TestVersionCmd_Output(t *testing.T) {
	setBuildVars(t, "v0.4.0", "abc1234", "2026-03-01")

	var out bytes.Buffer
	printVersionInfo(&out)
	if !strings.HasPrefix(out.String(), "csvasset v0.4.0 (abc1234, 2026-03-01)") {
		t.Errorf("unexpected version line: %q", out.String())
	}
}
