package main

import (
	"reflect"
	"testing"
)

func TestParseFieldArgs(t *testing.T) {
	fields, err := parseFieldArgs([]string{
		"brightness=200",
		"light_mode=effect",
		"rgb_color=255, 128, 0",
	})
	if err != nil {
		t.Fatalf("parseFieldArgs() error = %v", err)
	}

	if fields["brightness"] != "200" {
		t.Errorf("brightness = %v, want \"200\"", fields["brightness"])
	}
	if fields["light_mode"] != "effect" {
		t.Errorf("light_mode = %v, want \"effect\"", fields["light_mode"])
	}
	if !reflect.DeepEqual(fields["rgb_color"], []int{255, 128, 0}) {
		t.Errorf("rgb_color = %v, want [255 128 0]", fields["rgb_color"])
	}
}

func TestParseFieldArgs_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing equals", []string{"brightness"}},
		{"empty name", []string{"=200"}},
		{"rgb too few components", []string{"rgb_color=255,128"}},
		{"rgb non-numeric component", []string{"rgb_color=255,abc,0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseFieldArgs(tt.args); err == nil {
				t.Errorf("parseFieldArgs(%v) error = nil, want error", tt.args)
			}
		})
	}
}
