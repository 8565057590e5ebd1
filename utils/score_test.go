package utils

import (
	"errors"
	"testing"
)

func TestParseScorePair(t *testing.T) {
	got, err := ParseScorePair("21", "15")
	if err != nil {
		t.Fatalf("valid pair: %v", err)
	}
	if got == nil || *got != "21-15" {
		t.Fatalf("canonical form = %v, want 21-15", got)
	}

	got, err = ParseScorePair(" 21 ", " 15 ")
	if err != nil || got == nil || *got != "21-15" {
		t.Fatalf("whitespace not trimmed: %v, %v", got, err)
	}

	got, err = ParseScorePair("", "")
	if err != nil || got != nil {
		t.Fatalf("empty pair should be a valid no-score: %v, %v", got, err)
	}

	if _, err := ParseScorePair("21", ""); !errors.Is(err, ErrIncompleteScore) {
		t.Fatalf("half-empty pair: got %v, want ErrIncompleteScore", err)
	}
	if _, err := ParseScorePair("", "15"); !errors.Is(err, ErrIncompleteScore) {
		t.Fatalf("half-empty pair: got %v, want ErrIncompleteScore", err)
	}
	if _, err := ParseScorePair("lots", "15"); !errors.Is(err, ErrInvalidScore) {
		t.Fatalf("non-numeric: got %v, want ErrInvalidScore", err)
	}
	if _, err := ParseScorePair("-1", "15"); !errors.Is(err, ErrInvalidScore) {
		t.Fatalf("negative: got %v, want ErrInvalidScore", err)
	}
}

func TestSplitScoreRoundTrip(t *testing.T) {
	s := "21-15"
	team, opp := SplitScore(&s)
	if team != "21" || opp != "15" {
		t.Fatalf("split = %q/%q", team, opp)
	}

	back, err := ParseScorePair(team, opp)
	if err != nil || back == nil || *back != s {
		t.Fatalf("round trip = %v, %v", back, err)
	}

	team, opp = SplitScore(nil)
	if team != "" || opp != "" {
		t.Fatalf("nil split = %q/%q, want empty halves", team, opp)
	}
}
