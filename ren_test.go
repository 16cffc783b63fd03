package ren

import "testing"

func TestEndSentinelBytes(t *testing.T) {
	end := End()
	if len(end.Text) != 2 || end.Text[0] != 0x80 || end.Text[1] != 0x00 {
		t.Fatalf("end sentinel must be the two bytes 0x80 0x00, got %v", end.Text)
	}
	if !end.IsEnd() {
		t.Fatal("sentinel fragment should report IsEnd")
	}
}

func TestFragKinds(t *testing.T) {
	text := TextFrag([]byte("1 + 1\x00"))
	if !text.IsText() {
		t.Fatal("text fragment should report IsText")
	}
	if text.IsEnd() {
		t.Fatal("ordinary text should not be the sentinel")
	}

	val := ValueFrag(RawValue(42))
	if val.IsText() {
		t.Fatal("value fragment should not report IsText")
	}
	if val.Value != 42 {
		t.Fatalf("value fragment lost its handle, got %d", val.Value)
	}
}

func TestTerminated(t *testing.T) {
	if Terminated(nil) {
		t.Fatal("empty list is not terminated")
	}
	if Terminated([]Frag{TextFrag([]byte("x\x00"))}) {
		t.Fatal("list without sentinel is not terminated")
	}
	if !Terminated([]Frag{TextFrag([]byte("x\x00")), End()}) {
		t.Fatal("sentinel-final list is terminated")
	}
}
