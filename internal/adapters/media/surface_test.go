package media

import "testing"

func TestRecorder_DetachWithoutAttachIsNoop(t *testing.T) {
	r := NewRecorder("")
	r.Detach()
	r.Detach()
	if r.Attached() {
		t.Fatalf("recorder reports attached without a track")
	}
}

func TestRecorder_WriterSelection(t *testing.T) {
	r := NewRecorder("")
	w, err := r.writerFor("video/VP8")
	if err != nil || w != nil {
		t.Fatalf("drain-only recorder opened a writer: %v %v", w, err)
	}

	path := t.TempDir() + "/avatar.ivf"
	r = NewRecorder(path)
	w, err = r.writerFor("video/VP8")
	if err != nil {
		t.Fatalf("writerFor VP8: %v", err)
	}
	if w == nil {
		t.Fatalf("expected ivf writer")
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	w, err = r.writerFor("video/AV1")
	if err != nil || w != nil {
		t.Fatalf("unsupported codec should drain: %v %v", w, err)
	}
}
