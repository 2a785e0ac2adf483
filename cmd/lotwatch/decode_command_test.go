package main

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"lotwatch/internal/testsupport"
)

func TestDecodeArguments(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"decode", shippingLine("000000100")}, env.configPath)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	requireContains(t, out, "ok\t"+testsupport.Shipping+"\t"+testsupport.PartKey+"\t000000100\t10.0.0.5\t12")
}

func TestDecodeStdinReportsFailures(t *testing.T) {
	env := setupCLITestEnv(t)

	stdin := shippingLine("000000100") + "\r\n" + strings.Replace(shippingLine("000000100"), ",1,AL", ",4,AL", 1) + "\n"
	out, _, err := runCLIContext(t, context.Background(), []string{"decode", "--json"}, env.configPath, stdin)
	if err == nil || !strings.Contains(err.Error(), "1 of 2 line(s) failed") {
		t.Fatalf("expected one failure, got %v", err)
	}

	var views []decodeView
	if err := json.Unmarshal([]byte(out), &views); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if len(views) != 2 || !views[0].OK || views[1].OK {
		t.Fatalf("unexpected views: %+v", views)
	}
	if views[0].Row != testsupport.Row("03/14/2025-08:30:00", "10.0.0.5", testsupport.Shipping, "12", []string{"000000100"}, "03/13/2025-22:10:05", "1", "AL") {
		t.Fatalf("unexpected stored row %q", views[0].Row)
	}
	if views[1].ErrorType != "FieldFormatError" {
		t.Fatalf("expected FieldFormatError, got %q", views[1].ErrorType)
	}
}
