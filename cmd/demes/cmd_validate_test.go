package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestValidateCmd(t *testing.T) {
	path := writeModel(t, testModelYAML)

	root := newTestRootCmd()
	root.AddCommand(newValidateCmd())

	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"validate", path})
	if err := root.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(buf.String(), "2 demes") {
		t.Errorf("output = %q, want mention of 2 demes", buf.String())
	}
}

func TestValidateCmd_Invalid(t *testing.T) {
	path := writeModel(t, "demes: []")

	root := newTestRootCmd()
	root.AddCommand(newValidateCmd())
	root.SetErr(&bytes.Buffer{})
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"validate", path})
	if err := root.Execute(); err == nil {
		t.Error("expected error for invalid model")
	}
}

func TestValidateCmd_InvalidJSON(t *testing.T) {
	path := writeModel(t, "demes: []")

	root := newTestRootCmd()
	root.AddCommand(newValidateCmd())

	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"validate", "--json", path})
	if err := root.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	var out map[string]any
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if out["valid"] != false {
		t.Errorf("valid = %v, want false", out["valid"])
	}
	if out["error"] == "" {
		t.Error("expected an error description")
	}
}

func TestDescribeCmd_JSON(t *testing.T) {
	path := writeModel(t, testModelYAML)

	root := newTestRootCmd()
	root.AddCommand(newDescribeCmd())

	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"describe", "--json", path})
	if err := root.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	var out graphDescription
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if out.TimeUnits != "generations" || len(out.Demes) != 2 {
		t.Errorf("description = %+v", out)
	}
	if out.Demes[0].StartTime != "inf" {
		t.Errorf("ancestral start = %q, want inf", out.Demes[0].StartTime)
	}
	if out.Demes[1].Ancestors[0] != "ancestral" {
		t.Errorf("derived ancestors = %v", out.Demes[1].Ancestors)
	}
}

func TestSizeCmd(t *testing.T) {
	path := writeModel(t, testModelYAML)

	root := newTestRootCmd()
	root.AddCommand(newSizeCmd())

	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"size", path, "--deme", "ancestral", "--time", "100"})
	if err := root.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(buf.String(), "100") {
		t.Errorf("output = %q, want size 100", buf.String())
	}
}

func TestSizeCmd_UnknownDeme(t *testing.T) {
	path := writeModel(t, testModelYAML)

	root := newTestRootCmd()
	root.AddCommand(newSizeCmd())
	root.SetErr(&bytes.Buffer{})
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"size", path, "--deme", "missing"})
	if err := root.Execute(); err == nil {
		t.Error("expected error for unknown deme")
	}
}
