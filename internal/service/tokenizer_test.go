package service

import (
	"reflect"
	"sort"
	"strings"
	"testing"
)

func TestTokenizeSplitsOnCommas(t *testing.T) {
	got := Tokenize("go, databases, writing")
	want := []string{"go", "databases", "writing"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestTokenizeKeepsQuotedCommas(t *testing.T) {
	got := Tokenize(`foo, "bar, baz", qux`)
	want := []string{"foo", "bar, baz", "qux"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestTokenizeTrimsWhitespace(t *testing.T) {
	got := Tokenize("  a ,  b,c   ")
	for _, tag := range got {
		if tag != strings.TrimSpace(tag) {
			t.Fatalf("tag %q has surrounding whitespace", tag)
		}
	}
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestTokenizePreservesQuotedWhitespace(t *testing.T) {
	got := Tokenize("' spaced out ', plain")
	want := []string{" spaced out ", "plain"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestTokenizeEscapedQuotesAreLiterals(t *testing.T) {
	got := Tokenize(`say \"hi\", plain`)
	want := []string{`say "hi"`, "plain"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestTokenizeMidWordApostropheIsLiteral(t *testing.T) {
	got := Tokenize("don't, stop")
	want := []string{"don't", "stop"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %q, got %q", want, got)
	}

	// after whitespace a single quote still opens a quoted section
	got = Tokenize("rock 'n roll, jazz', blues")
	want = []string{"rock 'n roll, jazz'", "blues"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestTokenizeEmptyInput(t *testing.T) {
	for _, input := range []string{"", "   ", ",", " , ,, "} {
		if got := Tokenize(input); len(got) != 0 {
			t.Fatalf("expected no tags for %q, got %v", input, got)
		}
	}
}

func TestTokenizeUnbalancedQuoteIsLiteral(t *testing.T) {
	got := Tokenize(`"unclosed`)
	want := []string{`"unclosed`}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestTokenizeRoundTripsThroughJoin(t *testing.T) {
	inputs := []string{
		"go, databases, writing",
		`foo, "bar, baz", qux`,
		`say \"hi\", plain`,
		"' spaced out ', plain",
		"don't, stop",
	}
	for _, input := range inputs {
		first := Tokenize(input)
		second := Tokenize(JoinTags(first))
		if !sameTagSet(first, second) {
			t.Fatalf("round trip for %q changed tags: %q vs %q", input, first, second)
		}
	}
}

func sameTagSet(a, b []string) bool {
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	return reflect.DeepEqual(as, bs)
}
