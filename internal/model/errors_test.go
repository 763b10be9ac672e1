package model

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestWithLine_WrapsBareError(t *testing.T) {
	t.Parallel()

	cause := &UnknownIROBError{Network: "wifi", Direction: Up, ID: 7}
	err := WithLine(cause, 12, "[1.0][2] Ack")

	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("not a ParseError: %v", err)
	}
	if pe.Line != 12 {
		t.Fatalf("line=%d", pe.Line)
	}
	var irobErr *UnknownIROBError
	if !errors.As(err, &irobErr) || irobErr.ID != 7 {
		t.Fatalf("cause lost: %v", err)
	}
	if !strings.Contains(err.Error(), "line 12") || !strings.Contains(err.Error(), "[1.0][2] Ack") {
		t.Fatalf("message=%q", err.Error())
	}
}

func TestWithLine_KeepsExistingLine(t *testing.T) {
	t.Parallel()

	inner := &ParseError{Line: 3, Text: "first", Err: ErrMalformed}
	err := WithLine(fmt.Errorf("outer: %w", inner), 9, "second")

	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("not a ParseError: %v", err)
	}
	if pe.Line != 3 || pe.Text != "first" {
		t.Fatalf("pe=%+v", pe)
	}
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed in chain")
	}
}

func TestWithLine_FillsMissingLine(t *testing.T) {
	t.Parallel()

	inner := &ParseError{Err: ErrMalformed}
	err := WithLine(inner, 5, "text")

	var pe *ParseError
	if !errors.As(err, &pe) || pe.Line != 5 || pe.Text != "text" {
		t.Fatalf("err=%v", err)
	}
}

func TestParseError_UnknownLine(t *testing.T) {
	t.Parallel()

	err := &ParseError{Err: errors.New("boom")}
	if !strings.Contains(err.Error(), "<unknown>") {
		t.Fatalf("message=%q", err.Error())
	}
}

func TestNetworkPeriod_EndOr(t *testing.T) {
	t.Parallel()

	p := NetworkPeriod{Start: 1}
	if !p.Ongoing() || p.EndOr(9) != 9 {
		t.Fatalf("ongoing period=%+v", p)
	}
	p.End = Float(4)
	if p.Ongoing() || p.EndOr(9) != 4 {
		t.Fatalf("closed period=%+v", p)
	}
}
