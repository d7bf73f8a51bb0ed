package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"pgregory.net/rapid"

	"github.com/fakeyudi/idlesnap/internal/config"
	"github.com/fakeyudi/idlesnap/internal/export"
	"github.com/fakeyudi/idlesnap/internal/host"
	"github.com/fakeyudi/idlesnap/internal/host/hosttest"
	"github.com/fakeyudi/idlesnap/internal/report"
	"github.com/fakeyudi/idlesnap/internal/snapshot"
	"github.com/fakeyudi/idlesnap/internal/storage"
)

// executeCommand runs a cobra command with the given args and captures combined output.
func executeCommand(root *cobra.Command, args ...string) (output string, err error) {
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	_, err = root.ExecuteC()
	return buf.String(), err
}

// resetFlags restores every command flag variable between runs.
func resetFlags() {
	character = ""
	exportQuick, exportFormat, exportOut = false, "", ""
	changesText, changesKey = false, ""
	historyExport = ""
	resetHistory = false
	plainOutput = false
	schemaOut = "idlesnap.schema.json"
	rootCmd.SetIn(os.Stdin)
}

type env struct {
	dump     hosttest.M
	dumpPath string
	outDir   string
}

// newEnv points HOME, the XDG data dir, the state dump and the output dir
// at temp dirs so tests never touch real state.
func newEnv(t *testing.T) *env {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv("HOME", filepath.Join(tmp, "home"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(tmp, "data"))
	e := &env{
		dump:     hosttest.Dump(),
		dumpPath: filepath.Join(tmp, "idle-state.json"),
		outDir:   filepath.Join(tmp, "out"),
	}
	t.Setenv("IDLESNAP_STATEPATH", e.dumpPath)
	t.Setenv("IDLESNAP_OUTPUTDIR", e.outDir)
	e.write(t)
	resetFlags()
	return e
}

func (e *env) write(t *testing.T) {
	t.Helper()
	if err := os.WriteFile(e.dumpPath, hosttest.JSON(t, e.dump), 0o644); err != nil {
		t.Fatalf("write dump: %v", err)
	}
}

func run(t *testing.T, args ...string) string {
	t.Helper()
	resetFlags()
	out, err := executeCommand(rootCmd, args...)
	if err != nil {
		t.Fatalf("%v: %v\n%s", args, err, out)
	}
	return out
}

func exported(t *testing.T, dir, pattern string) []string {
	t.Helper()
	files, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		t.Fatal(err)
	}
	return files
}

func TestExportWritesJSONFile(t *testing.T) {
	e := newEnv(t)

	out := run(t, "export", "--format", "json")
	if !strings.Contains(out, "Export written:") {
		t.Errorf("output = %q", out)
	}
	files := exported(t, e.outDir, "idlesnap-*.json")
	if len(files) != 1 {
		t.Fatalf("exported files = %v", files)
	}
	data, err := os.ReadFile(files[0])
	if err != nil {
		t.Fatal(err)
	}
	doc, err := (&report.JSONParser{}).Parse(data)
	if err != nil {
		t.Fatalf("parse export: %v", err)
	}
	if doc.Meta.Character != "Hero" || !doc.Meta.Full {
		t.Errorf("meta = %+v", doc.Meta)
	}
}

func TestExportMarkdownThenView(t *testing.T) {
	e := newEnv(t)
	run(t, "export")

	files := exported(t, e.outDir, "idlesnap-*.md")
	if len(files) != 1 {
		t.Fatalf("exported files = %v", files)
	}
	out := run(t, "view", "--plain", files[0])
	for _, want := range []string{"## Summary", "Character: Hero", "GP:        125,000", "## Activity", "Idle", "## Sections"} {
		if !strings.Contains(out, want) {
			t.Errorf("view output misses %q:\n%s", want, out)
		}
	}
}

func TestChangesAndHistory(t *testing.T) {
	e := newEnv(t)
	run(t, "export", "--format", "json")

	out := run(t, "changes")
	if !strings.Contains(out, "no changes recorded yet") {
		t.Errorf("changes after cold start = %q", out)
	}

	e.dump["character"].(hosttest.M)["gp"] = 130000
	e.write(t)
	time.Sleep(2 * time.Millisecond)
	out = run(t, "export", "--format", "json")
	if !strings.Contains(out, "(1 changes)") {
		t.Errorf("second export output = %q", out)
	}

	out = run(t, "changes", "--text")
	if !strings.HasPrefix(out, "Hero - ") || !strings.Contains(out, "~ basics.gp: 125000 -> 130000 (+4.00%)") {
		t.Errorf("changes --text = %q", out)
	}

	js := run(t, "changes")
	if got := gjson.Get(js, "changes.0.path").String(); got != "basics.gp" {
		t.Errorf("changes JSON path = %q in %s", got, js)
	}

	listing := run(t, "history")
	lines := strings.Split(strings.TrimSpace(listing), "\n")
	if len(lines) != 1 || !strings.Contains(lines[0], "1 changes") {
		t.Fatalf("history listing = %q", listing)
	}
	key := strings.Fields(lines[0])[0]

	out = run(t, "changes", "--text", "--key", key)
	if !strings.Contains(out, "basics.gp") {
		t.Errorf("changes --key = %q", out)
	}

	path := filepath.Join(t.TempDir(), "history.json")
	run(t, "history", "--export", path)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !gjson.GetBytes(data, key+".header").Exists() {
		t.Errorf("aggregate history misses %s: %s", key, data)
	}
}

func TestChangesUnknownKey(t *testing.T) {
	newEnv(t)
	run(t, "export")
	resetFlags()
	_, err := executeCommand(rootCmd, "changes", "--key", "42")
	if err == nil || !strings.Contains(err.Error(), `no changelog under key "42"`) {
		t.Fatalf("err = %v", err)
	}
}

func TestReset(t *testing.T) {
	e := newEnv(t)
	run(t, "export")
	e.dump["character"].(hosttest.M)["gp"] = 1
	e.write(t)
	run(t, "export")

	if out := run(t, "reset"); !strings.Contains(out, "Export data cleared.") {
		t.Errorf("reset output = %q", out)
	}
	// History survives an export data reset.
	if out := run(t, "history"); strings.Contains(out, "history is empty") {
		t.Errorf("history cleared by export reset")
	}
	if out := run(t, "reset", "--history"); !strings.Contains(out, "Changes history cleared.") {
		t.Errorf("reset --history output = %q", out)
	}
	if out := run(t, "history"); !strings.Contains(out, "history is empty") {
		t.Errorf("history after reset = %q", out)
	}
}

func TestEta(t *testing.T) {
	e := newEnv(t)
	hosttest.Combat(e.dump, "melvorD:Golbin", "melvorD:Farmlands", false, 10)
	e.write(t)

	out := run(t, "eta")
	if !strings.Contains(out, "Fighting: melvorD:Golbin") {
		t.Errorf("eta output = %q", out)
	}
}

func TestSQLiteBackend(t *testing.T) {
	newEnv(t)
	t.Setenv("IDLESNAP_STORAGE_BACKEND", "sqlite")
	run(t, "export")

	dir, err := storage.DataDir()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "idlesnap.db")); err != nil {
		t.Errorf("sqlite database not created: %v", err)
	}
}

func TestUnknownBackend(t *testing.T) {
	newEnv(t)
	t.Setenv("IDLESNAP_STORAGE_BACKEND", "etcd")
	resetFlags()
	_, err := executeCommand(rootCmd, "export")
	if err == nil || !strings.Contains(err.Error(), `unknown storage backend "etcd"`) {
		t.Fatalf("err = %v", err)
	}
}

func TestMissingDump(t *testing.T) {
	e := newEnv(t)
	if err := os.Remove(e.dumpPath); err != nil {
		t.Fatal(err)
	}
	resetFlags()
	_, err := executeCommand(rootCmd, "export")
	if err == nil || !strings.Contains(err.Error(), "read host dump") {
		t.Fatalf("err = %v", err)
	}
}

func TestSchemaCommand(t *testing.T) {
	newEnv(t)
	path := filepath.Join(t.TempDir(), "schema.json")
	out := run(t, "schema", "--out", path)
	if !strings.Contains(out, "Schema written: "+path) {
		t.Errorf("output = %q", out)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !gjson.GetBytes(data, "$defs.meta").Exists() {
		t.Errorf("schema misses meta definition")
	}
}

func TestSetupWritesGlobalConfig(t *testing.T) {
	newEnv(t)
	resetFlags()
	rootCmd.SetIn(strings.NewReader("/srv/dump.json\njson\nexports\nfile\ny\n"))
	out, err := executeCommand(rootCmd, "setup")
	if err != nil {
		t.Fatalf("setup: %v\n%s", err, out)
	}
	if !config.GlobalExists() {
		t.Fatal("global config not written")
	}
	path, _ := config.GlobalPath()
	cfg, err := config.LoadFiles(path, "")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DefaultFormat != "json" || !cfg.Compress || cfg.OutputDir != "exports" {
		t.Errorf("cfg = %+v", cfg)
	}
}

// TestViewNonExistentFile verifies that viewing a missing file returns
// "file not found: <path>".
func TestViewNonExistentFile(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)
	t.Setenv("XDG_DATA_HOME", tmp)

	missingPath := filepath.Join(tmp, "does-not-exist.md")

	resetFlags()
	out, err := executeCommand(rootCmd, "view", missingPath)
	if err == nil {
		t.Fatal("expected an error for non-existent file, got nil")
	}
	combined := out + err.Error()
	expected := "file not found: " + missingPath
	if !strings.Contains(combined, expected) {
		t.Errorf("expected error to contain %q, got: %q", expected, combined)
	}
}

// TestViewInvalidExport verifies that viewing a file without the idlesnap
// sentinel is rejected.
func TestViewInvalidExport(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)
	t.Setenv("XDG_DATA_HOME", tmp)

	plainMD := filepath.Join(tmp, "plain.md")
	if err := os.WriteFile(plainMD, []byte("# Just a regular markdown file\n\nNo sentinel here.\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	resetFlags()
	out, err := executeCommand(rootCmd, "view", plainMD)
	if err == nil {
		t.Fatal("expected an error for invalid export, got nil")
	}
	combined := out + err.Error()
	if !strings.Contains(combined, "not a valid idlesnap export") {
		t.Errorf("expected error to contain %q, got: %q", "not a valid idlesnap export", combined)
	}
}

// Feature: idlesnap, Property 14: Plain view section order
func TestViewSectionOrder(t *testing.T) {
	sectionHeaders := []string{"## Summary", "## Activity", "## Sections"}

	rapid.Check(t, func(rt *rapid.T) {
		doc := snapshot.New()
		names := rapid.SliceOfDistinct(rapid.StringMatching(`[a-z]{1,10}`), func(s string) string { return s }).Draw(rt, "sections")
		for _, name := range names {
			if rapid.Bool().Draw(rt, "placeholder") {
				doc.Set(name, snapshot.Placeholder(name))
			} else {
				doc.Set(name, []any{1.0, 2.0})
			}
		}
		doc.Meta.Character = rapid.StringMatching(`[A-Za-z]{1,12}`).Draw(rt, "character")
		doc.Meta.Timestamp = rapid.Int64Range(1_000_000_000_000, 1_900_000_000_000).Draw(rt, "timestamp")

		var buf bytes.Buffer
		printExport(&buf, doc)
		output := buf.String()

		last := -1
		for _, header := range sectionHeaders {
			pos := strings.Index(output, header)
			if pos == -1 {
				rt.Fatalf("section header %q not found in output:\n%s", header, output)
			}
			if pos <= last {
				rt.Errorf("section %q out of order in output:\n%s", header, output)
			}
			last = pos
		}
		for _, name := range names {
			if !strings.Contains(output, "  "+name) {
				rt.Errorf("section %q not listed:\n%s", name, output)
			}
		}
	})
}

func TestCyclerFullEvery(t *testing.T) {
	d := hosttest.Dump()
	exp := export.New(export.Options{
		Config: config.Static(config.Defaults()),
		Load: func(context.Context) (*host.State, error) {
			return hosttest.State(t, d), nil
		},
	})

	var kinds []bool
	c := &cycler{exp: exp, fullEvery: 3, report: func(res *export.Result, err error) {
		if err != nil {
			t.Fatalf("cycle: %v", err)
		}
		// A quick cycle right after a full one reuses the full document.
		kinds = append(kinds, res.Doc.Meta.Full && !res.Cached)
	}}
	for i := 0; i < 6; i++ {
		c.onChange(context.Background())
	}
	want := []bool{false, false, true, false, false, true}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("full pattern = %v, want %v", kinds, want)
		}
	}
}
