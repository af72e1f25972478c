package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestRootCommands(t *testing.T) {
	root := rootCmd()
	for _, name := range []string{"serve", "export", "catalog"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
	if root.Flags().Lookup("addr") == nil {
		t.Error("serve flags should be available on the root command")
	}
}

func TestViperForCmdEnv(t *testing.T) {
	t.Setenv("SSBPREP_LLM_PROVIDER", "huggingface")
	t.Setenv("SSBPREP_LLM_TIMEOUT", "5s")
	t.Setenv("SSBPREP_STRICT_INPUT", "false")

	v := viperForCmd(serveCmd())
	if got := v.GetString("llm-provider"); got != "huggingface" {
		t.Errorf("llm-provider = %q", got)
	}
	if got := v.GetDuration("llm-timeout"); got != 5*time.Second {
		t.Errorf("llm-timeout = %v", got)
	}
	if v.GetBool("strict-input") {
		t.Error("strict-input should be false from the environment")
	}
	if got := v.GetString("feedback-style"); got != "standard" {
		t.Errorf("feedback-style default = %q", got)
	}
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	if err := writeJSON(path, map[string]int{"turns": 2}); err != nil {
		t.Fatalf("writeJSON: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got map[string]int
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["turns"] != 2 {
		t.Errorf("got %v", got)
	}
	if data[len(data)-1] != '\n' {
		t.Error("expected trailing newline")
	}
}

func TestTestTypeNames(t *testing.T) {
	names := testTypeNames()
	if len(names) != 9 || names[0] != "oir" {
		t.Errorf("testTypeNames() = %v", names)
	}
}
