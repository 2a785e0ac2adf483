package main

import (
	"context"
	"os"
	"testing"
	"time"

	"lotwatch/internal/testsupport"
)

func TestRunRoutesInboxUntilCancelled(t *testing.T) {
	env := setupCLITestEnv(t)
	table := testsupport.WriteTable(t, env.cfg.Paths.TablesDir, testsupport.Shipping)
	testsupport.WriteLines(t, env.cfg.Paths.InboxFile, shippingLine("000000100"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, _, err := runCLIContext(t, ctx, []string{"run", "--log-level", "warn"}, env.configPath, "")
		done <- err
	}()

	waitFor(t, 5*time.Second, func() bool {
		data, err := os.ReadFile(table)
		return err == nil && len(data) > 0
	})
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop after cancellation")
	}

	if _, err := os.Stat(env.cfg.LogFilePath()); err != nil {
		t.Fatalf("expected log file: %v", err)
	}
}
