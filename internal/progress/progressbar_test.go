package progress

import (
	"bytes"
	"strings"
	"testing"
)

func TestBar_RendersProgress(t *testing.T) {
	buf := &bytes.Buffer{}
	bar := NewBar(4, Config{Writer: buf, Width: 8})

	bar.Increment()
	bar.Increment()

	output := buf.String()
	if !strings.Contains(output, "2/4") {
		t.Errorf("expected 2/4 in output, got %q", output)
	}
	if !strings.Contains(output, "50%") {
		t.Errorf("expected 50%% in output, got %q", output)
	}
}

func TestBar_FinishCompletesAndNewlines(t *testing.T) {
	buf := &bytes.Buffer{}
	bar := NewBar(3, Config{Writer: buf, Width: 8})

	bar.Increment()
	bar.Finish()

	output := buf.String()
	if !strings.Contains(output, "3/3") {
		t.Errorf("expected full count after Finish, got %q", output)
	}
	if !strings.HasSuffix(output, "\n") {
		t.Errorf("expected trailing newline after Finish, got %q", output)
	}

	// Further increments after Finish must not render
	before := buf.Len()
	bar.Increment()
	if buf.Len() != before {
		t.Error("expected no output after Finish")
	}
}

func TestBar_Message(t *testing.T) {
	buf := &bytes.Buffer{}
	bar := NewBar(2, Config{Writer: buf, Width: 8})

	bar.SetMessage("intro.mp4")

	if !strings.Contains(buf.String(), "intro.mp4") {
		t.Errorf("expected message in output, got %q", buf.String())
	}
}

func TestBar_Disabled(t *testing.T) {
	buf := &bytes.Buffer{}
	bar := NewBar(2, Config{Writer: buf, Disabled: true})

	bar.Increment()
	bar.SetMessage("quiet")
	bar.Finish()

	if buf.Len() != 0 {
		t.Errorf("expected no output when disabled, got %q", buf.String())
	}
}
