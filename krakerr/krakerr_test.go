package krakerr

import "testing"

func TestErrorStringIncludesKindAndMessage(t *testing.T) {
	err := New(UndefinedLabel, "label %q missing", "L1")
	want := `undefined-label: label "L1" missing`
	if got := err.Error(); got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

func TestWithDataAttachesAndReturnsSameError(t *testing.T) {
	err := New(StructuringFailed, "no candidate")
	got := err.WithData([]string{"a", "b"})
	if got != err {
		t.Fatalf("WithData returned a different *Error")
	}
	data, ok := err.Data.([]string)
	if !ok || len(data) != 2 {
		t.Fatalf("Data = %#v, want []string{a, b}", err.Data)
	}
}

func TestKindStringCoversAllKinds(t *testing.T) {
	cases := map[Kind]string{
		RecursivePoolReference: "recursive-pool-reference",
		UndefinedLabel:         "undefined-label",
		UnsupportedAssignment:  "unsupported-assignment",
		StructuringFailed:      "structuring-failed",
		UnknownFlag:            "unknown-flag",
		Kind(999):              "unknown-error",
	}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", k, got, want)
		}
	}
}
