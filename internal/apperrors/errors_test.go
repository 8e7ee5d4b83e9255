package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
)

func TestValidationError(t *testing.T) {
	err := NewValidationError("number", "must be positive", -1)

	if err.Field != "number" {
		t.Errorf("expected field 'number', got %q", err.Field)
	}
	expected := "validation error on field 'number': must be positive"
	if err.Error() != expected {
		t.Errorf("expected %q, got %q", expected, err.Error())
	}
}

func TestValidationErrors(t *testing.T) {
	var errs ValidationErrors
	if errs.Error() != "validation failed" {
		t.Errorf("unexpected empty message %q", errs.Error())
	}

	errs = append(errs, *NewValidationError("name", "is required", nil))
	if got := errs.Error(); got != "validation failed: name is required" {
		t.Errorf("unexpected single message %q", got)
	}

	errs = append(errs, *NewValidationError("count", "must be at least 1", 0))
	if got := errs.Error(); got != "validation failed: 2 field errors" {
		t.Errorf("unexpected multi message %q", got)
	}
}

func TestToValidationErrors(t *testing.T) {
	type input struct {
		Name  string `validate:"required"`
		Count int    `validate:"min=1"`
	}
	err := validator.New().Struct(input{})
	errs := ToValidationErrors(err)
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %d: %v", len(errs), errs)
	}
	if errs[0].Rule != "required" || errs[0].Message != "is required" {
		t.Errorf("unexpected first error %+v", errs[0])
	}
	if errs[1].Message != "must be at least 1" {
		t.Errorf("unexpected second error %+v", errs[1])
	}
}

func TestIsValidation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"single", NewValidationError("f", "m", nil), true},
		{"wrapped sentinel", fmt.Errorf("finish: %w", ErrNoQuestions), true},
		{"collection", ValidationErrors{{Field: "f"}}, true},
		{"plain", errors.New("boom"), false},
		{"not found", ErrNotFound, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidation(tt.err); got != tt.want {
				t.Errorf("IsValidation() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestImportErrorUnwrap(t *testing.T) {
	inner := errors.New("unexpected EOF")
	err := fmt.Errorf("import: %w", &ImportError{Err: inner})
	if !errors.Is(err, inner) {
		t.Error("expected ImportError to unwrap to the parse error")
	}
	var ie *ImportError
	if !errors.As(err, &ie) {
		t.Error("expected errors.As to find ImportError")
	}
}
