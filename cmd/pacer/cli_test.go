package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

// testEnv points the CLI at a temporary database and resets global flag
// state between tests.
func testEnv(t *testing.T) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	t.Setenv("PACER_DB_PATH", dbPath)
	t.Setenv("PACER_LEARNER", "test")
	t.Setenv("PACER_REASONER_URL", "")
	t.Setenv("PACER_REASONER_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	cfgDBPath = ""
	cfgLearner = ""
	cfgReasonerURL = ""
	cfgAPIKey = ""
	cfgModel = ""
	cfgNoAdaptive = false
	outputJSON = false

	gradeCorrect = false
	gradeWrong = false
	gradeHint = false
	gradeTimeMs = 0
	reviewCount = 10
	reviewNoNew = false
	statsHealth = false

	resetChanged := func(f *pflag.Flag) { f.Changed = false }
	rootCmd.PersistentFlags().VisitAll(resetChanged)
	for _, c := range rootCmd.Commands() {
		c.Flags().VisitAll(resetChanged)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stdout)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return stdout.String(), err
}

func TestCLI_Help_ListsAllCommands(t *testing.T) {
	testEnv(t)

	output, err := execute(t, "--help")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expectedCommands := []string{"review", "grade", "plan", "record", "due", "stats", "profile", "mcp", "version"}
	for _, cmd := range expectedCommands {
		if !strings.Contains(output, cmd) {
			t.Errorf("--help output should contain %q command", cmd)
		}
	}
}

func TestCLI_Grade_CorrectFlag(t *testing.T) {
	testEnv(t)

	output, err := execute(t, "grade", "apple", "--correct", "--time-ms", "1500")
	if err != nil {
		t.Fatalf("grade returned error: %v", err)
	}
	if !strings.Contains(output, "apple") {
		t.Errorf("output should mention the card:\n%s", output)
	}
	if !strings.Contains(output, "Interval: 1 days") {
		t.Errorf("output should show the first interval:\n%s", output)
	}
}

func TestCLI_Grade_RequiresOutcomeFlag(t *testing.T) {
	testEnv(t)

	if _, err := execute(t, "grade", "apple"); err == nil {
		t.Error("grade without --correct/--wrong should error")
	}
}

func TestCLI_Grade_JSON(t *testing.T) {
	testEnv(t)

	output, err := execute(t, "grade", "apple", "--wrong", "--json")
	if err != nil {
		t.Fatalf("grade returned error: %v", err)
	}

	var record map[string]any
	if err := json.Unmarshal([]byte(output), &record); err != nil {
		t.Fatalf("--json output is not valid JSON: %v\n%s", err, output)
	}
	if record["card_id"] != "apple" {
		t.Errorf("card_id = %v, want apple", record["card_id"])
	}
}

func TestCLI_Due_EmptyStore(t *testing.T) {
	testEnv(t)

	output, err := execute(t, "due")
	if err != nil {
		t.Fatalf("due returned error: %v", err)
	}
	if !strings.Contains(output, "Nothing due") {
		t.Errorf("empty store should report nothing due:\n%s", output)
	}
}

func TestCLI_Review_SelectsCandidates(t *testing.T) {
	testEnv(t)

	output, err := execute(t, "review", "apple", "banana", "--count", "2")
	if err != nil {
		t.Fatalf("review returned error: %v", err)
	}
	if !strings.Contains(output, "[C1]") {
		t.Errorf("review output should contain session refs:\n%s", output)
	}
}

func TestCLI_Stats(t *testing.T) {
	testEnv(t)

	output, err := execute(t, "stats")
	if err != nil {
		t.Fatalf("stats returned error: %v", err)
	}
	if !strings.Contains(output, "test") {
		t.Errorf("stats output should name the learner:\n%s", output)
	}
}

func TestCLI_InvalidLearner(t *testing.T) {
	testEnv(t)

	if _, err := execute(t, "stats", "--learner", "Not Valid!"); err == nil {
		t.Error("invalid learner ID should error")
	}
	cfgLearner = ""
}

func TestVersion_Human_ShowsVersionInfo(t *testing.T) {
	testEnv(t)

	output, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version command should not error: %v", err)
	}

	for _, want := range []string{"pacer ", "commit:", "built:", "go:", "os:"} {
		if !strings.Contains(output, want) {
			t.Errorf("version output should contain %q:\n%s", want, output)
		}
	}
}

func TestVersion_JSON_ReturnsValidJSON(t *testing.T) {
	testEnv(t)

	output, err := execute(t, "version", "--json")
	if err != nil {
		t.Fatalf("version command should not error: %v", err)
	}

	var info versionInfo
	if err := json.Unmarshal([]byte(output), &info); err != nil {
		t.Fatalf("--json output is not valid JSON: %v\n%s", err, output)
	}
	if info.Version == "" {
		t.Error("version field should not be empty")
	}
	if info.Go == "" {
		t.Error("go field should not be empty")
	}
}
