package errors

import (
	"fmt"
	"testing"
)

func TestImportError(t *testing.T) {
	err := NewImport("textgrid", "corpus/doc1.textgrid", "bad tier header")
	want := "import textgrid failed for corpus/doc1.textgrid: bad tier header"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !Is(err, ErrInvalidInput) {
		t.Error("ImportError should unwrap to ErrInvalidInput")
	}
}

func TestConfigErrorAs(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", NewConfig("tier_groups", "missing"))
	var cfgErr *ConfigError
	if !As(wrapped, &cfgErr) {
		t.Fatal("As should find the ConfigError through wrapping")
	}
	if cfgErr.Option != "tier_groups" {
		t.Errorf("Option = %q", cfgErr.Option)
	}
}

func TestParseErrorUnwrapsUnderlying(t *testing.T) {
	cause := ErrUnsupported
	err := &ParseError{Format: "xlsx", Message: "bad zip", Err: cause}
	if !Is(err, cause) {
		t.Error("ParseError should unwrap to its cause")
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, "context") != nil {
		t.Error("Wrap(nil) should be nil")
	}
	if Wrapf(nil, "context %d", 1) != nil {
		t.Error("Wrapf(nil) should be nil")
	}
}
