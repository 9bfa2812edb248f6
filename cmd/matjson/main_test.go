package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleDoc = `{
  "detector": {
    "volumes": {
      "1": {
        "name": "Beampipe",
        "boundaries": {
          "2": {"type": "homogeneous", "data": [0.8, 352.8, 407, 28.03, 14, 0.0023]}
        },
        "layers": {
          "2": {
            "sensitive": {
              "1": {
                "type": "binned",
                "bin0": {"value": "binX", "option": "open", "type": "equidistant", "bins": 2, "min": 0, "max": 10},
                "data": [[[1, 2, 3, 4, 5, 6], []]]
              }
            },
            "representing": {"type": "proto", "bin0": {"value": "binPhi", "option": "circular", "bins": 4, "min": -3.2, "max": 3.2}}
          }
        }
      }
    }
  },
  "geoversion": "test"
}`

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestInspectJSON(t *testing.T) {
	in := writeTemp(t, "material.json", sampleDoc)
	out, _, err := runCLI(t, []string{"inspect", "--format", "json", in}, "")
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	var report inspectReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode report: %v\n%s", err, out)
	}
	if len(report.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(report.Entries))
	}
	if report.Summary.GeoVersion != "test" || report.Summary.Proto != 1 {
		t.Fatalf("unexpected summary %+v", report.Summary)
	}
}

func TestInspectTable(t *testing.T) {
	in := writeTemp(t, "material.json", sampleDoc)
	out, _, err := runCLI(t, []string{"inspect", "--format", "table", in}, "")
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	requireContains(t, out, "sensitive")
	requireContains(t, out, "Beampipe")
	requireContains(t, out, "geoversion test")

	// A buffer is not a terminal.
	out, _, err = runCLI(t, []string{"inspect", in}, "")
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	requireContains(t, out, `"entries"`)

	if _, _, err := runCLI(t, []string{"inspect", "--format", "xml", in}, ""); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestValidateCommand(t *testing.T) {
	good := writeTemp(t, "good.json", sampleDoc)
	out, _, err := runCLI(t, []string{"validate", good}, "")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	requireContains(t, out, "valid")

	bad := writeTemp(t, "bad.json", strings.Replace(sampleDoc, `[[[1, 2, 3, 4, 5, 6], []]]`, `[[[1, 2]]]`, 1))
	out, _, err = runCLI(t, []string{"validate", "--json", bad}, "")
	if err == nil {
		t.Fatal("expected validation failure")
	}
	requireContains(t, out, `"valid": false`)
	requireContains(t, out, "sensitive.1.data")
}

func TestSkeletonCommand(t *testing.T) {
	in := writeTemp(t, "material.json", sampleDoc)
	out, _, err := runCLI(t, []string{"skeleton", in}, "")
	if err != nil {
		t.Fatalf("skeleton: %v", err)
	}
	if strings.Contains(out, `"data"`) {
		t.Fatalf("skeleton still carries data:\n%s", out)
	}
	requireContains(t, out, `"binned"`)
}

func TestPackUnpackCommands(t *testing.T) {
	dir := t.TempDir()
	in := writeTemp(t, "material.json", sampleDoc)
	packed := filepath.Join(dir, "material.matjson")
	for _, comp := range []string{"none", "zip", "zstd", "lz4", "brotli"} {
		if _, _, err := runCLI(t, []string{"pack", "--compression", comp, "-o", packed, in}, ""); err != nil {
			t.Fatalf("pack %s: %v", comp, err)
		}
		out, _, err := runCLI(t, []string{"unpack", packed}, "")
		if err != nil {
			t.Fatalf("unpack %s: %v", comp, err)
		}
		requireContains(t, out, `"Beampipe"`)
	}
	if _, _, err := runCLI(t, []string{"pack", "--compression", "gzip", "-o", packed, in}, ""); err == nil {
		t.Fatal("expected error for unknown compression")
	}
}

func TestConfigCommands(t *testing.T) {
	out, _, err := runCLI(t, []string{"config", "show"}, "")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "senkey: sensitive")

	cfg := writeTemp(t, "matjson.toml", "senkey = \"modules\"\n")
	out, _, err = runCLI(t, []string{"config", "show", "--format", "toml"}, cfg)
	if err != nil {
		t.Fatalf("config show toml: %v", err)
	}
	requireContains(t, out, "modules")

	out, _, err = runCLI(t, []string{"config", "validate"}, cfg)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	clash := writeTemp(t, "clash.yaml", "senkey: approach\n")
	if _, _, err := runCLI(t, []string{"config", "validate"}, clash); err == nil {
		t.Fatal("expected error for colliding keys")
	}
}

func TestRenamedKeysThroughConfig(t *testing.T) {
	cfg := writeTemp(t, "matjson.yaml", "senkey: modules\n")
	in := writeTemp(t, "material.json", strings.Replace(sampleDoc, `"sensitive"`, `"modules"`, 1))
	out, _, err := runCLI(t, []string{"inspect", "--format", "json", in}, cfg)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	requireContains(t, out, `"category": "sensitive"`)
}

func TestLoggingFlags(t *testing.T) {
	in := writeTemp(t, "material.json", sampleDoc)
	_, stderr, err := runCLI(t, []string{"--log-level", "info", "--log-format", "json", "validate", in}, "")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	requireContains(t, stderr, `"geoversion":"test"`)

	if _, _, err := runCLI(t, []string{"--log-level", "loud", "validate", in}, ""); err == nil {
		t.Fatal("expected error for bad log level")
	}
}
