package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jonathan/resume-memory/internal/config"
	"github.com/jonathan/resume-memory/internal/llm"
	"github.com/jonathan/resume-memory/internal/oracle"
	"github.com/jonathan/resume-memory/internal/server"
	"github.com/jonathan/resume-memory/internal/types"
)

// resetFlags restores every flag to its default so commands can run repeatedly in one process
func resetFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	})
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// execute runs the CLI in-process and returns what it wrote to stdout and stderr
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func readProfile(t *testing.T, path string) types.MemoryProfile {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var p types.MemoryProfile
	require.NoError(t, json.Unmarshal(data, &p))
	return p
}

// mockLLMClient implements llm.Client with a canned JSON answer
type mockLLMClient struct {
	response string
	prompts  []string
}

func (m *mockLLMClient) GenerateContent(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
	m.prompts = append(m.prompts, prompt)
	return m.response, nil
}

func (m *mockLLMClient) GenerateJSON(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
	m.prompts = append(m.prompts, prompt)
	return m.response, nil
}

func (m *mockLLMClient) GenerateGrounded(context.Context, string, llm.ModelTier) (*llm.GroundedResponse, error) {
	return &llm.GroundedResponse{}, nil
}

func (m *mockLLMClient) GetModel(llm.ModelTier) string { return "mock-model" }

func (m *mockLLMClient) Close() error { return nil }

func useMockOracle(t *testing.T, response string) *mockLLMClient {
	t.Helper()
	mock := &mockLLMClient{response: response}
	original := openMergeOracle
	openMergeOracle = func(context.Context, string, *zap.Logger) (*oracle.Adapter, error) {
		return oracle.New(mock, nil), nil
	}
	t.Cleanup(func() { openMergeOracle = original })
	return mock
}

func TestSanitizeCommand_Profile(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "raw.json", "```json\n{\"experience\": [{\"title\": \"Engineer\", \"company\": \"Acme\"}], \"skills\": \"Go, SQL\"}\n```")
	out := filepath.Join(dir, "clean.json")

	_, _, err := execute(t, "sanitize", "--in", in, "--out", out, "--kind", "profile")
	require.NoError(t, err)

	p := readProfile(t, out)
	require.Len(t, p.Experiences, 1)
	assert.NotEmpty(t, p.Experiences[0].ID)
	assert.Equal(t, "Acme", p.Experiences[0].Company)
	assert.NotNil(t, p.QnA)
}

func TestSanitizeCommand_ResumeToStdout(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "resume.json", `{"title": "Backend Engineer", "atsScore": "140"}`)

	stdout, _, err := execute(t, "sanitize", "--in", in)
	require.NoError(t, err)

	var doc types.ResumeDocument
	require.NoError(t, json.Unmarshal([]byte(stdout), &doc))
	assert.Equal(t, "Backend Engineer", doc.Title)
	assert.NotEmpty(t, doc.ID)
}

func TestSanitizeCommand_Errors(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "raw.json", `{"skills": []}`)

	_, _, err := execute(t, "sanitize")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "in" not set`)

	_, _, err = execute(t, "sanitize", "--in", in, "--kind", "letter")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --kind")

	_, _, err = execute(t, "sanitize", "--in", filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	raw := writeFile(t, dir, "raw.json", `{"experiences": [{"role": "Engineer", "company": "Acme"}]}`)
	clean := filepath.Join(dir, "clean.json")

	_, _, err := execute(t, "sanitize", "--in", raw, "--out", clean)
	require.NoError(t, err)

	stdout, _, err := execute(t, "validate", "--in", clean)
	require.NoError(t, err)
	assert.Contains(t, stdout, "is valid")

	stdout, _, err = execute(t, "validate", "--in", raw, "--kind", "profile")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
	assert.Contains(t, stdout, "VALIDATION FAILED")
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-test-secret-that-is-long-enough")
	t.Setenv("JWT_EXPIRATION_HOURS", "1")

	stdout, _, err := execute(t, "token", "--user", "user-42")
	require.NoError(t, err)

	cfg, err := config.NewJWTConfig()
	require.NoError(t, err)
	claims, err := server.NewJWTService(cfg).ValidateToken(strings.TrimSpace(stdout))
	require.NoError(t, err)
	assert.Equal(t, "user-42", claims.UserID)
}

func TestTokenCommand_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, _, err := execute(t, "token", "--user", "user-42")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestMergeCommand_Text(t *testing.T) {
	mock := useMockOracle(t, `{"experiences": [{"role": "Engineer", "company": "Acme"}], "skills": ["Go"]}`)
	dir := t.TempDir()
	profile := writeFile(t, dir, "profile.json", `{"skills": ["SQL"], "rawSourceFiles": ["old.txt"]}`)
	out := filepath.Join(dir, "merged.json")

	_, stderr, err := execute(t, "merge", "--profile", profile, "--text", "I worked at Acme", "--out", out)
	require.NoError(t, err)

	merged := readProfile(t, out)
	assert.Equal(t, []string{"SQL", "Go"}, merged.Skills)
	assert.Equal(t, []string{"old.txt"}, merged.RawSourceFiles)
	require.Len(t, merged.Experiences, 1)
	require.Len(t, mock.prompts, 1)
	assert.Contains(t, mock.prompts[0], "I worked at Acme")
	assert.Contains(t, stderr, "MERGE RESULT")
}

func TestMergeCommand_Files(t *testing.T) {
	mock := useMockOracle(t, `{"projects": [{"name": "Ledger"}]}`)
	dir := t.TempDir()
	notes := writeFile(t, dir, "notes.md", "# Ledger\nA double-entry ledger in Go.")
	out := filepath.Join(dir, "merged.json")

	_, _, err := execute(t, "merge", "--file", notes, "--out", out)
	require.NoError(t, err)

	merged := readProfile(t, out)
	assert.Equal(t, []string{notes}, merged.RawSourceFiles)
	require.Len(t, merged.Projects, 1)
	assert.Contains(t, mock.prompts[0], "double-entry ledger")
}

func TestMergeCommand_Errors(t *testing.T) {
	useMockOracle(t, `"not a profile"`)
	dir := t.TempDir()
	out := filepath.Join(dir, "merged.json")

	_, _, err := execute(t, "merge", "--out", out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to merge")

	_, _, err = execute(t, "merge", "--text", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "out" not set`)

	_, _, err = execute(t, "merge", "--text", "hello", "--out", out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "merge failed")
	assert.NoFileExists(t, out)
}

func TestMergeCommand_MissingKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	out := filepath.Join(t.TempDir(), "merged.json")

	_, _, err := execute(t, "merge", "--text", "hello", "--out", out)

	var missing *oracle.ConfigurationMissingError
	require.ErrorAs(t, err, &missing)
}

func TestModelConfig_AppliesOverrides(t *testing.T) {
	cfg, err := config.LoadServerConfigFrom(map[string]string{
		"MODEL_ADVANCED":     "gemini-exp",
		"ORACLE_TEMPERATURE": "0.3",
	})
	require.NoError(t, err)

	models := modelConfig(cfg)
	assert.Equal(t, "gemini-exp", models.GetModel(llm.TierAdvanced))
	assert.Equal(t, "gemini-2.5-flash", models.GetModel(llm.TierStandard))
	assert.Equal(t, float32(0.3), models.Temperature)
}

func TestValidateCommand_SchemaFile(t *testing.T) {
	dir := t.TempDir()
	schema := writeFile(t, dir, "skills.schema.json", `{"type": "object", "required": ["skills"], "properties": {"skills": {"type": "array", "items": {"type": "string"}}}}`)
	good := writeFile(t, dir, "good.json", `{"skills": ["Go"]}`)
	bad := writeFile(t, dir, "bad.json", `{"skills": "Go"}`)

	stdout, _, err := execute(t, "validate", "--in", good, "--schema", schema)
	require.NoError(t, err)
	assert.Contains(t, stdout, "good.json (skills.schema.json) is valid")

	_, _, err = execute(t, "validate", "--in", bad, "--schema", schema)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestShowCommand(t *testing.T) {
	dir := t.TempDir()
	profile := writeFile(t, dir, "profile.json", `{"personalInfo": {"fullName": "Ada Lovelace"}, "experiences": [{"role": "Engineer", "company": "Acme"}], "skills": ["Go"]}`)
	resume := writeFile(t, dir, "resume.json", `{"title": "Backend Engineer", "atsScore": 80}`)

	stdout, _, err := execute(t, "show", "--in", profile)
	require.NoError(t, err)
	assert.Contains(t, stdout, "MEMORY PROFILE")
	assert.Contains(t, stdout, "Ada Lovelace")
	assert.Contains(t, stdout, "Engineer @ Acme")

	stdout, _, err = execute(t, "show", "--in", resume)
	require.NoError(t, err)
	assert.Contains(t, stdout, "RESUME")
	assert.Contains(t, stdout, "Backend Engineer")
}

func TestExtractCommand(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "notes.html", `<html><body><h1>Acme</h1><p>Led the   payments team.</p><script>x()</script></body></html>`)
	out := filepath.Join(dir, "notes.txt")
	meta := filepath.Join(dir, "notes.meta.json")

	_, _, err := execute(t, "extract", "--in", in, "--out", out, "--meta", meta)
	require.NoError(t, err)

	text, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(text), "Led the payments team.")
	assert.NotContains(t, string(text), "x()")

	data, err := os.ReadFile(meta)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "notes.html", m["filename"])
	assert.Equal(t, "html", m["format"])

	_, _, err = execute(t, "extract", "--in", filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}
