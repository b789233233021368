package vidio

import "testing"

func TestContainers(t *testing.T) {
	cases := map[string]string{
		"XVID": ".avi",
		"MP4V": ".mp4",
		"MJPG": ".avi",
		"H264": ".mp4",
		"AVC1": ".mp4",
	}
	for codec, want := range cases {
		got, ok := Container(codec)
		if !ok || got != want {
			t.Errorf("Container(%s) = %s, %v; want %s", codec, got, ok, want)
		}
	}
	if _, ok := Container("WEBM"); ok {
		t.Error("Unknown codec should not resolve to a container")
	}
	// case-insensitive lookup
	if got, ok := Container("xvid"); !ok || got != ".avi" {
		t.Errorf("Lowercase lookup failed: %s, %v", got, ok)
	}
}

func TestFallback(t *testing.T) {
	if fb, ok := FallbackCodec("MP4V", "out.mp4"); !ok || fb != "H264" {
		t.Errorf("MP4V on .mp4 should fall back to H264, got %s, %v", fb, ok)
	}
	if _, ok := FallbackCodec("H264", "out.mp4"); ok {
		t.Error("H264 must not fall back to itself")
	}
	if _, ok := FallbackCodec("XVID", "out.avi"); ok {
		t.Error("Non-mp4 targets have no fallback")
	}
}
