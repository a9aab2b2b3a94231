package main

import (
	"strings"
	"testing"
)

const baselineOutput = `goos: linux
goarch: amd64
pkg: github.com/MrEthical07/portalAuth
BenchmarkVerifySession-8           	  500000	      2400 ns/op	     1200 B/op	      20 allocs/op
BenchmarkVerifySession-8           	  500000	      2600 ns/op	     1200 B/op	      20 allocs/op
BenchmarkVerifySessionParallel-8   	 2000000	       600 ns/op
BenchmarkClassifyAndAuthorize-8    	10000000	       100 ns/op	        0 B/op	       0 allocs/op
BenchmarkMetricsIncParallel-8      	50000000	        10 ns/op
BenchmarkUntracked-8               	       1	         1 ns/op
PASS
`

func TestParseBenchmarks(t *testing.T) {
	set, err := parseBenchmarks(strings.NewReader(baselineOutput))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if got := set["BenchmarkVerifySession"]["ns/op"]; len(got) != 2 {
		t.Fatalf("expected two ns/op samples, got %v", got)
	}
	if _, ok := set["BenchmarkUntracked"]; ok {
		t.Fatal("untracked benchmark should be ignored")
	}
	if median(set["BenchmarkVerifySession"]["ns/op"]) != 2500 {
		t.Fatalf("unexpected median %v", median(set["BenchmarkVerifySession"]["ns/op"]))
	}
}

func TestCompareWithinThreshold(t *testing.T) {
	base, _ := parseBenchmarks(strings.NewReader(baselineOutput))
	cand, _ := parseBenchmarks(strings.NewReader(baselineOutput))

	results, failures := compare(base, cand, defaultThreshold)
	if len(failures) != 0 {
		t.Fatalf("expected no failures, got %v", failures)
	}
	if len(results) != 6 {
		t.Fatalf("expected 6 comparisons, got %d", len(results))
	}
	if results[0].benchmark != "BenchmarkClassifyAndAuthorize" {
		t.Fatalf("expected sorted output, got %s first", results[0].benchmark)
	}
}

func TestCompareDetectsRegressions(t *testing.T) {
	base, _ := parseBenchmarks(strings.NewReader(baselineOutput))
	slower := strings.Replace(baselineOutput, "       600 ns/op", "      1200 ns/op", 1)
	slower = strings.Replace(slower, "0 B/op	       0 allocs/op", "16 B/op	       1 allocs/op", 1)
	cand, _ := parseBenchmarks(strings.NewReader(slower))

	_, failures := compare(base, cand, defaultThreshold)
	if len(failures) != 2 {
		t.Fatalf("expected 2 failures, got %v", failures)
	}
}

func TestCompareMissingSamples(t *testing.T) {
	base, _ := parseBenchmarks(strings.NewReader(baselineOutput))
	_, failures := compare(base, sampleSet{}, defaultThreshold)
	if len(failures) != 6 {
		t.Fatalf("expected every tracked metric to be missing, got %v", failures)
	}
}

func TestNormalizeBenchmarkName(t *testing.T) {
	if got := normalizeBenchmarkName("BenchmarkVerifySession-16"); got != "BenchmarkVerifySession" {
		t.Fatalf("got %q", got)
	}
	if got := normalizeBenchmarkName("BenchmarkVerify-Session"); got != "BenchmarkVerify-Session" {
		t.Fatalf("got %q", got)
	}
}
