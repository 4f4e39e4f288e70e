package config

import (
	"testing"
	"time"
)

func TestEnv(t *testing.T) {
	t.Setenv("CHROMAPATH_TEST_STR", "hello")
	if got := Env("CHROMAPATH_TEST_STR", "fallback"); got != "hello" {
		t.Errorf("Env = %q, want hello", got)
	}
	if got := Env("CHROMAPATH_TEST_UNSET", "fallback"); got != "fallback" {
		t.Errorf("Env default = %q, want fallback", got)
	}
}

func TestEnvInt(t *testing.T) {
	t.Setenv("CHROMAPATH_TEST_INT", "640")
	if got := EnvInt("CHROMAPATH_TEST_INT", 1); got != 640 {
		t.Errorf("EnvInt = %d, want 640", got)
	}

	t.Setenv("CHROMAPATH_TEST_INT", "not a number")
	if got := EnvInt("CHROMAPATH_TEST_INT", 7); got != 7 {
		t.Errorf("EnvInt on garbage = %d, want default 7", got)
	}
}

func TestEnvBool(t *testing.T) {
	cases := []struct {
		value string
		def   bool
		want  bool
	}{
		{"true", false, true},
		{"1", false, true},
		{"false", true, false},
		{"0", true, false},
		{"yes", true, true}, // not a ParseBool value: default
		{"garbage", false, false},
	}
	for _, tc := range cases {
		t.Setenv("CHROMAPATH_TEST_BOOL", tc.value)
		if got := EnvBool("CHROMAPATH_TEST_BOOL", tc.def); got != tc.want {
			t.Errorf("EnvBool(%q, %v) = %v, want %v", tc.value, tc.def, got, tc.want)
		}
	}

	if got := EnvBool("CHROMAPATH_TEST_BOOL_UNSET", true); !got {
		t.Error("EnvBool unset should return the default")
	}
}

func TestEnvDuration(t *testing.T) {
	t.Setenv("CHROMAPATH_TEST_DUR", "750ms")
	if got := EnvDuration("CHROMAPATH_TEST_DUR", time.Second); got != 750*time.Millisecond {
		t.Errorf("EnvDuration = %v, want 750ms", got)
	}

	t.Setenv("CHROMAPATH_TEST_DUR", "soon")
	if got := EnvDuration("CHROMAPATH_TEST_DUR", 2*time.Second); got != 2*time.Second {
		t.Errorf("EnvDuration on garbage = %v, want default 2s", got)
	}
}
