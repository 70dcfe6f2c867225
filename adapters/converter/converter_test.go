package converter

import (
	"testing"

	"github.com/artpar/resttree/core/resource"
)

var _ resource.Converter = (*Standard)(nil)

func TestNormalize(t *testing.T) {
	if got := New(false).Normalize(" Publication "); got != "Publication" {
		t.Errorf("Normalize = %q, want %q", got, "Publication")
	}
	if got := New(true).Normalize("Publication"); got != "publication" {
		t.Errorf("Normalize = %q, want %q", got, "publication")
	}
}

func TestRender(t *testing.T) {
	c := New(false)

	tests := []struct {
		in   any
		want string
	}{
		{42, "42"},
		{int64(-7), "-7"},
		{uint8(3), "3"},
		{true, "true"},
		{2.5, "2.5"},
		{"abc", "abc"},
	}

	for _, tt := range tests {
		got, err := c.Render(tt.in)
		if err != nil {
			t.Errorf("Render(%#v) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Render(%#v) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if _, err := c.Render(nil); err == nil {
		t.Error("Render(nil) should fail")
	}
	if _, err := c.Render([]int{1}); err == nil {
		t.Error("Render(slice) should fail")
	}
}

func TestParse(t *testing.T) {
	c := New(false)

	if n, err := c.ParseInt("42"); err != nil || n != 42 {
		t.Errorf("ParseInt(42) = %d, %v", n, err)
	}
	if _, err := c.ParseInt("search"); err == nil {
		t.Error("ParseInt(search) should fail")
	}
	if b, err := c.ParseBool("yes"); err != nil || !b {
		t.Errorf("ParseBool(yes) = %v, %v", b, err)
	}
	if b, err := c.ParseBool("false"); err != nil || b {
		t.Errorf("ParseBool(false) = %v, %v", b, err)
	}
	if _, err := c.ParseBool("maybe"); err == nil {
		t.Error("ParseBool(maybe) should fail")
	}
	if f, err := c.ParseDecimal("2.5"); err != nil || f != 2.5 {
		t.Errorf("ParseDecimal(2.5) = %v, %v", f, err)
	}
}
