package validation

import (
	"errors"
	"strings"
	"testing"
)

type sample struct {
	OfficeID string `json:"office_id" validate:"required,uuid"`
	Date     string `json:"date" validate:"required,datetime=2006-01-02"`
	Name     string `json:"name,omitempty" validate:"omitempty,max=3"`
}

func TestStruct(t *testing.T) {
	v := New()

	tests := []struct {
		name       string
		in         sample
		wantFields []string
	}{
		{
			name: "valid",
			in:   sample{OfficeID: "6a1f3a8e-9d7e-4a43-8c1e-0b6f0c3b1a11", Date: "2024-02-29"},
		},
		{
			name:       "missing required",
			in:         sample{},
			wantFields: []string{"office_id", "date"},
		},
		{
			name:       "bad formats",
			in:         sample{OfficeID: "nope", Date: "2024-02-30", Name: "toolong"},
			wantFields: []string{"office_id", "date", "name"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(v, tt.in)
			if len(tt.wantFields) == 0 {
				if err != nil {
					t.Fatalf("Struct() error = %v", err)
				}
				return
			}

			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("Struct() error = %v, want ValidationErrors", err)
			}
			if len(verrs) != len(tt.wantFields) {
				t.Fatalf("got %d errors (%v), want %d", len(verrs), verrs, len(tt.wantFields))
			}
			for i, field := range tt.wantFields {
				if verrs[i].Field != field {
					t.Errorf("error %d field = %q, want %q", i, verrs[i].Field, field)
				}
			}
		})
	}
}

func TestValidationErrors_Details(t *testing.T) {
	errs := ValidationErrors{
		{Field: "date", Message: "date is required"},
	}
	fields, ok := errs.Details()["fields"].(map[string]any)
	if !ok || fields["date"] != "date is required" {
		t.Errorf("Details() = %v", errs.Details())
	}
	if !strings.Contains(errs.Error(), "1 error(s)") {
		t.Errorf("Error() = %q", errs.Error())
	}
}
