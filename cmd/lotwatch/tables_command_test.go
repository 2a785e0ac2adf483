package main

import (
	"encoding/json"
	"testing"

	"lotwatch/internal/testsupport"
)

func TestTablesInitAndList(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteTable(t, env.cfg.Paths.TablesDir, testsupport.Shipping,
		testsupport.Row("03/14/2025-08:30:00", "10.0.0.5", testsupport.Shipping, "12", []string{"000000100"}, "03/13/2025-22:10:05", "1", "AL"))

	out, _, err := runCLI(t, []string{"tables", "init"}, env.configPath)
	if err != nil {
		t.Fatalf("tables init: %v", err)
	}
	requireContains(t, out, "3 table(s) created, 1 already present")

	out, _, err = runCLI(t, []string{"tables", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("tables list: %v", err)
	}
	requireContains(t, out, "Process\tType\tSerial\tPrevious\tTable\tRows")
	requireContains(t, out, testsupport.Casting+"\tother\tjbk\t-\tyes\t0")
	requireContains(t, out, testsupport.Machining+"\tmachining\tlot\t"+testsupport.Deburr+"\tyes\t0")
	requireContains(t, out, testsupport.Shipping+"\tother\tlot\t-\tyes\t1")
}

func TestTablesListJSON(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"tables", "list", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("tables list --json: %v", err)
	}
	var views []tableView
	if err := json.Unmarshal([]byte(out), &views); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if len(views) != 4 {
		t.Fatalf("expected 4 processes, got %d", len(views))
	}
	for _, v := range views {
		if v.Exists {
			t.Fatalf("expected no tables yet, got %+v", v)
		}
	}
}

func TestTablesInitRejectsUnknownProcess(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"tables", "init", "9999-Unknown"}, env.configPath); err == nil {
		t.Fatal("expected unknown process to fail")
	}
}
