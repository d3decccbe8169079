package logging

import (
	"context"
	"errors"
	"testing"

	codecerr "github.com/SamJakob/MageArenaFlagEditor/core/errors"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    Level
		wantErr bool
	}{
		{input: "", want: LevelInfo},
		{input: "debug", want: LevelDebug},
		{input: "info", want: LevelInfo},
		{input: "warn", want: LevelWarn},
		{input: "error", want: LevelError},
		{input: "verbose", wantErr: true},
	}

	for _, tt := range tests {
		t.Run("level "+tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				if !errors.Is(err, codecerr.ErrIllegalParameter) {
					t.Errorf("ParseLevel(%q) error = %v; want IllegalParameter", tt.input, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, %v; want %v, nil", tt.input, got, err, tt.want)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{input: "", want: FormatText},
		{input: "text", want: FormatText},
		{input: "json", want: FormatJSON},
		{input: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run("format "+tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				if !errors.Is(err, codecerr.ErrIllegalParameter) {
					t.Errorf("ParseFormat(%q) error = %v; want IllegalParameter", tt.input, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseFormat(%q) = %v, %v; want %v, nil", tt.input, got, err, tt.want)
			}
		})
	}
}

func TestInitLoggerSetsGlobal(t *testing.T) {
	InitLogger(LevelDebug, FormatJSON)
	defer InitLogger(LevelInfo, FormatText)

	if GetLogger() == nil {
		t.Fatal("GetLogger() returned nil after InitLogger")
	}
}

func TestRequestIDContext(t *testing.T) {
	ctx := WithRequestID(context.Background(), "abc123")
	if got := GetRequestID(ctx); got != "abc123" {
		t.Errorf("GetRequestID = %q; want abc123", got)
	}
	if got := GetRequestID(context.Background()); got != "" {
		t.Errorf("GetRequestID on empty context = %q; want empty", got)
	}
}
