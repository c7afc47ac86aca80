package jsonx

import (
	"errors"
	"reflect"
	"testing"
)

func TestExtractDirectObject(t *testing.T) {
	t.Parallel()
	got, err := Extract(`{"a": 1}`)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	want := map[string]interface{}{"a": float64(1)}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Extract got %#v, want %#v", got, want)
	}
}

func TestExtractDirectArray(t *testing.T) {
	t.Parallel()
	got, err := Extract(`[{"question": "Name?"}]`)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	arr, ok := got.([]interface{})
	if !ok || len(arr) != 1 {
		t.Fatalf("expected one-element array, got %#v", got)
	}
}

func TestExtractFencedBlock(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		want interface{}
	}{
		{
			name: "json tagged fence",
			in:   "noise ```json\n{\"a\": 1}\n``` noise",
			want: map[string]interface{}{"a": float64(1)},
		},
		{
			name: "untagged fence",
			in:   "Here you go:\n```\n[1, 2, 3]\n```\nDone.",
			want: []interface{}{float64(1), float64(2), float64(3)},
		},
		{
			name: "second fence holds the json",
			in:   "```\nnot json\n``` and then ```json\n{\"b\": 2}\n```",
			want: map[string]interface{}{"b": float64(2)},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := Extract(tt.in)
			if err != nil {
				t.Fatalf("Extract: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Extract got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestExtractEmbeddedObject(t *testing.T) {
	t.Parallel()
	got, err := Extract(`prefix {"a": 1} suffix`)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	want := map[string]interface{}{"a": float64(1)}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Extract got %#v, want %#v", got, want)
	}
}

func TestExtractEmbeddedArray(t *testing.T) {
	t.Parallel()
	got, err := Extract(`The questions are [{"question": "Name?", "type": "text"}] as requested.`)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	arr, ok := got.([]interface{})
	if !ok || len(arr) != 1 {
		t.Fatalf("expected one-element array, got %#v", got)
	}
	obj, ok := arr[0].(map[string]interface{})
	if !ok || obj["question"] != "Name?" {
		t.Fatalf("unexpected element: %#v", arr[0])
	}
}

func TestExtractOneLevelNesting(t *testing.T) {
	t.Parallel()
	got, err := Extract(`see {"outer": {"inner": 1}, "flag": true} above`)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	obj, ok := got.(map[string]interface{})
	if !ok {
		t.Fatalf("expected object, got %#v", got)
	}
	if _, ok := obj["outer"].(map[string]interface{}); !ok {
		t.Fatalf("expected nested object, got %#v", obj["outer"])
	}
}

// Deeper nesting embedded in prose is only partially recovered: the scan
// matches an inner one-level object instead of the full value. This is pinned
// intentionally; do not "fix" the pattern to support deeper nesting.
func TestExtractDeepNestingApproximation(t *testing.T) {
	t.Parallel()
	got, err := Extract(`wrapped {"a": {"b": {"c": 1}}} text`)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	want := map[string]interface{}{"b": map[string]interface{}{"c": float64(1)}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Extract got %#v, want %#v", got, want)
	}
}

func TestExtractDeepNestingDirectParseStillWorks(t *testing.T) {
	t.Parallel()
	got, err := Extract(`{"a": {"b": {"c": 1}}}`)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	obj := got.(map[string]interface{})
	if _, ok := obj["a"]; !ok {
		t.Fatalf("expected full object from direct parse, got %#v", got)
	}
}

func TestExtractFailure(t *testing.T) {
	t.Parallel()
	for _, in := range []string{"not json at all", "", "   ", "{broken", "[1, 2"} {
		got, err := Extract(in)
		if err == nil {
			t.Fatalf("Extract(%q) expected error, got %#v", in, got)
		}
		if !errors.Is(err, ErrNoJSON) {
			t.Fatalf("Extract(%q) error = %v, want ErrNoJSON", in, err)
		}
		if err.Error() != "Could not extract valid JSON from response" {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	}
}
