package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorString(t *testing.T) {
	cause := errors.New("row 3 has no id")
	tests := []struct {
		name string
		err  *Error
		want string
		user string
	}{
		{
			name: "message only",
			err:  New(ErrCodeMultipleRoots, "%d nodes have no parent", 2),
			want: "MULTIPLE_ROOTS: 2 nodes have no parent",
			user: "2 nodes have no parent",
		},
		{
			name: "with cause",
			err:  Wrap(ErrCodeInvalidInput, cause, "read %s", "products.csv"),
			want: "INVALID_INPUT: read products.csv: row 3 has no id",
			user: "read products.csv: row 3 has no id",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
			if got := UserMessage(tt.err); got != tt.user {
				t.Errorf("UserMessage() = %q, want %q", got, tt.user)
			}
		})
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(ErrCodeStorage, cause, "save set %s", "products")

	if errors.Unwrap(err) != cause {
		t.Errorf("Unwrap() = %v, want cause", errors.Unwrap(err))
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}
}

func TestCodeLookup(t *testing.T) {
	inner := New(ErrCodeCycle, "a -> b -> a")
	tests := []struct {
		name string
		err  error
		code Code
	}{
		{"direct", inner, ErrCodeCycle},
		{"outermost code wins", Wrap(ErrCodeStorage, inner, "outer"), ErrCodeStorage},
		{"fmt wrapped", fmt.Errorf("rebuild: %w", inner), ErrCodeCycle},
		{"plain error", errors.New("plain"), ""},
		{"nil", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.code {
				t.Errorf("GetCode() = %q, want %q", got, tt.code)
			}
			if tt.code != "" && !Is(tt.err, tt.code) {
				t.Errorf("Is(%q) = false", tt.code)
			}
			if Is(tt.err, ErrCodeUnresolvedDAG) {
				t.Error("Is(UNRESOLVED_DAG) = true for unrelated error")
			}
		})
	}
}

func TestUserMessagePlainError(t *testing.T) {
	if got := UserMessage(errors.New("plain error")); got != "plain error" {
		t.Errorf("UserMessage() = %q", got)
	}
}

func TestClassification(t *testing.T) {
	structural := []Code{ErrCodeRootNotFound, ErrCodeMultipleRoots, ErrCodeParentNotFound, ErrCodeCycle, ErrCodeUnresolvedDAG, ErrCodeTooLarge}
	for _, c := range structural {
		if !IsStructural(c) || IsInvalid(c) {
			t.Errorf("%s: IsStructural=%v IsInvalid=%v, want true/false", c, IsStructural(c), IsInvalid(c))
		}
	}
	invalid := []Code{ErrCodeInvalidInput, ErrCodeInvalidFormat, ErrCodeInvalidPath, ErrCodeInvalidConfig}
	for _, c := range invalid {
		if IsStructural(c) || !IsInvalid(c) {
			t.Errorf("%s: IsStructural=%v IsInvalid=%v, want false/true", c, IsStructural(c), IsInvalid(c))
		}
	}
	for _, c := range []Code{ErrCodeInternal, ErrCodeStorage, ErrCodeFileNotFound} {
		if IsStructural(c) || IsInvalid(c) {
			t.Errorf("%s should be neither structural nor invalid", c)
		}
	}
}
