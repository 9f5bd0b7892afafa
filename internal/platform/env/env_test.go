package env

import (
	"testing"
	"time"
)

func TestString(t *testing.T) {
	if got := String("GEOSTAGE_TEST_UNSET", "fallback"); got != "fallback" {
		t.Fatalf("String()=%q, want fallback", got)
	}
	t.Setenv("GEOSTAGE_TEST_STRING", "value")
	if got := String("GEOSTAGE_TEST_STRING", "fallback"); got != "value" {
		t.Fatalf("String()=%q, want value", got)
	}
}

func TestBool(t *testing.T) {
	got, err := Bool("GEOSTAGE_TEST_UNSET", true)
	if err != nil || !got {
		t.Fatalf("Bool()=%v err=%v, want default true", got, err)
	}
	t.Setenv("GEOSTAGE_TEST_BOOL", "false")
	got, err = Bool("GEOSTAGE_TEST_BOOL", true)
	if err != nil || got {
		t.Fatalf("Bool()=%v err=%v, want false", got, err)
	}
	t.Setenv("GEOSTAGE_TEST_BOOL", "banana")
	if _, err := Bool("GEOSTAGE_TEST_BOOL", true); err == nil {
		t.Fatal("Bool() accepted an unparseable value")
	}
}

func TestInt(t *testing.T) {
	t.Setenv("GEOSTAGE_TEST_INT", "12")
	got, err := Int("GEOSTAGE_TEST_INT", 4)
	if err != nil || got != 12 {
		t.Fatalf("Int()=%d err=%v, want 12", got, err)
	}
	t.Setenv("GEOSTAGE_TEST_INT", "twelve")
	if _, err := Int("GEOSTAGE_TEST_INT", 4); err == nil {
		t.Fatal("Int() accepted an unparseable value")
	}
}

func TestDuration(t *testing.T) {
	t.Setenv("GEOSTAGE_TEST_DURATION", "90s")
	got, err := Duration("GEOSTAGE_TEST_DURATION", time.Second)
	if err != nil || got != 90*time.Second {
		t.Fatalf("Duration()=%v err=%v, want 90s", got, err)
	}
	t.Setenv("GEOSTAGE_TEST_DURATION", "soon")
	if _, err := Duration("GEOSTAGE_TEST_DURATION", time.Second); err == nil {
		t.Fatal("Duration() accepted an unparseable value")
	}
}
