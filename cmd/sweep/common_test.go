// Copyright 2024 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"testing"

	"github.com/popgensims/sweep/sim"
)

func TestFilterFlags(t *testing.T) {
	tests := []struct {
		name string
		ff   filterFlags
		want sim.Filter
		ok   bool
	}{
		{"empty", filterFlags{}, sim.Filter{RepHi: -1}, true},
		{"scenario", filterFlags{scenario: "sweep"}, sim.Filter{Scenario: sim.Sweep, RepHi: -1}, true},
		{"chrom", filterFlags{chrom: "chr2"}, sim.Filter{Chrom: "chr2", RepHi: -1}, true},
		{"reps", filterFlags{reps: "3:7"}, sim.Filter{RepLo: 3, RepHi: 7}, true},
		{"reps open high", filterFlags{reps: "3:"}, sim.Filter{RepLo: 3, RepHi: -1}, true},
		{"reps open low", filterFlags{reps: ":7"}, sim.Filter{RepHi: 7}, true},
		{"bad scenario", filterFlags{scenario: "selective"}, sim.Filter{}, false},
		{"bad reps", filterFlags{reps: "3"}, sim.Filter{}, false},
		{"bad reps bound", filterFlags{reps: "a:7"}, sim.Filter{}, false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := test.ff.filter()
			if !test.ok {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != test.want {
				t.Fatalf("got %+v, want %+v", got, test.want)
			}
		})
	}
}

func TestCSVFlag(t *testing.T) {
	var f csvFlag
	if err := f.Set("a,b,c"); err != nil {
		t.Fatal(err)
	}
	if len(f) != 3 || f[0] != "a" || f[1] != "b" || f[2] != "c" {
		t.Fatalf("got %v", []string(f))
	}
	if f.String() != "a,b,c" {
		t.Fatalf("String: got %q", f.String())
	}
}
