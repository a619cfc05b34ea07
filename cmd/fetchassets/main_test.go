package main

import "testing"

func TestPresetName(t *testing.T) {
	for src, want := range map[string]string{
		"git::https://example.com/presets.git//mountains":    "mountains",
		"https://example.com/presets/desert.zip?archive=zip": "desert.zip",
		"git::https://example.com/presets.git":               "presets",
		"./local/":                                           "local",
		"":                                                   "preset",
	} {
		if got := presetName(src); got != want {
			t.Fatalf("%q: got %q want %q", src, got, want)
		}
	}
}
