package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/9Skies9/InvestLink/internal/usecase/recommend"
)

// writeFixture lays out a CSV snapshot and a config pointing at it.
func writeFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"company_info.csv": "C_id,C_name,C_desc,C_industry,C_funding_stage,C_place,C_fund_size\n" +
			"10,Acme,AI tooling for finance,\"AI, Fintech\",Seed,NYC,$2M\n" +
			"11,Beta,clinical trials platform,Health,Series A,SF,$10M\n",
		"user_info.csv": "U_id,U_name,U_invest_requirements,U_places,U_fund_stage,U_industry,U_check size min,U_check size max\n" +
			"1,Ivy,early AI and fintech,\"NYC, SF\",Seed,\"AI, Fintech\",$500k,$5M\n",
		"config.yaml": "http:\n  port: 8080\n" +
			"database:\n  driver: none\n" +
			"snapshot:\n  driver: csv\n  dir: " + dir + "\n" +
			"embedding:\n  provider: hashing\n  dimensions: 32\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return filepath.Join(dir, "config.yaml")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCmd_Subcommands(t *testing.T) {
	cmd := newRootCmd()
	want := map[string]bool{"seeker": false, "provider": false, "stats": false, "version": false}
	for _, c := range cmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("missing subcommand %q", name)
		}
	}
}

func TestSeekerCmd_Flags(t *testing.T) {
	cmd := newSeekerCmd()
	if cmd.Flags().Lookup("k") == nil {
		t.Error("missing -k flag")
	}
	if cmd.Flags().Lookup("seed") == nil {
		t.Error("missing --seed flag")
	}
}

func TestSeekerCmd_JSON(t *testing.T) {
	cfgPath := writeFixture(t)

	out, err := execute(t, "--config", cfgPath, "--json", "seeker", "1", "-k", "1", "--seed", "7")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	var res recommend.Result
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(res.Items) != 1 {
		t.Fatalf("expected 1 item, got %+v", res)
	}
}

func TestProviderCmd_Table(t *testing.T) {
	cfgPath := writeFixture(t)

	out, err := execute(t, "--config", cfgPath, "provider", "10")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, "RANK") || !strings.Contains(out, "Ivy") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestProviderCmd_UnknownID(t *testing.T) {
	cfgPath := writeFixture(t)

	out, err := execute(t, "--config", cfgPath, "provider", "99")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, string(recommend.ReasonUnknownSubject)) {
		t.Errorf("expected unknown subject reason, got %q", out)
	}
}

func TestSeekerCmd_BadID(t *testing.T) {
	if _, err := execute(t, "seeker", "abc"); err == nil {
		t.Fatal("expected error for a non-numeric id")
	}
}

func TestStatsCmd(t *testing.T) {
	cfgPath := writeFixture(t)

	out, err := execute(t, "--config", cfgPath, "stats")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, "providers") || !strings.Contains(out, "2") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if !strings.Contains(out, "fallback") {
		t.Errorf("expected fallback scorers without model files:\n%s", out)
	}
}
