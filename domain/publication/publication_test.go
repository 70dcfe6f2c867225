package publication

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		p     Publication
		field string
	}{
		{"valid", Publication{Name: "Daily", Language: "en"}, ""},
		{"no language", Publication{Name: "Daily"}, ""},
		{"blank name", Publication{Name: "  "}, "Name"},
		{"upper language", Publication{Name: "Daily", Language: "EN"}, "Language"},
		{"long language", Publication{Name: "Daily", Language: "eng"}, "Language"},
		{"negative issues", Publication{Name: "Daily", Issues: -1}, "Issues"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.p)
			if tt.field == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) || verr.Field != tt.field {
				t.Fatalf("Validate() = %v, want error on %s", err, tt.field)
			}
			if !errors.Is(err, ErrInvalid) {
				t.Error("validation error does not wrap ErrInvalid")
			}
		})
	}
}

func TestMatches(t *testing.T) {
	p := Publication{Name: "Daily", Language: "en"}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"empty", Filter{}, true},
		{"name any case", Filter{Name: "daily"}, true},
		{"other name", Filter{Name: "Weekly"}, false},
		{"language", Filter{Language: "en"}, true},
		{"other language", Filter{Language: "de"}, false},
		{"both", Filter{Name: "Daily", Language: "en"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Matches(p, tt.filter); got != tt.want {
				t.Errorf("Matches(%+v) = %v, want %v", tt.filter, got, tt.want)
			}
		})
	}
}

func TestSortByID(t *testing.T) {
	items := []Publication{{ID: 3}, {ID: 1}, {ID: 2}}
	SortByID(items)
	if diff := cmp.Diff([]Publication{{ID: 1}, {ID: 2}, {ID: 3}}, items); diff != "" {
		t.Errorf("SortByID mismatch (-want +got):\n%s", diff)
	}
}
