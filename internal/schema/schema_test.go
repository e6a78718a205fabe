package schema

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/vaultsite/internal/testutil"
)

func defaultValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := Load("", "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return v
}

func base(noteType, tag string, extra map[string]any) map[string]any {
	m := map[string]any{
		"type":         noteType,
		"tags":         []any{tag},
		"status":       "draft",
		"created":      "2025-01-15",
		"revised":      "2025-01-15",
		"revision":     1,
		"ai_generated": true,
	}
	for k, v := range extra {
		m[k] = v
	}
	return m
}

func without(m map[string]any, key string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if k != key {
			out[k] = v
		}
	}
	return out
}

func anyContains(msgs []string, sub string) bool {
	for _, m := range msgs {
		if strings.Contains(m, sub) {
			return true
		}
	}
	return false
}

var validNotes = map[string]map[string]any{
	"research-component":  base("research", "research/component", map[string]any{"subtype": "component"}),
	"research-dependency": base("research", "research/dependency", map[string]any{"subtype": "dependency"}),
	"research-issue": base("research", "research/issue", map[string]any{
		"subtype": "issue", "github_issue": 12345, "github_repo": "galaxyproject/galaxy",
	}),
	"research-pr": base("research", "research/pr", map[string]any{
		"subtype": "pr", "github_pr": 6789, "github_repo": "galaxyproject/galaxy",
	}),
	"plan": base("plan", "plan", map[string]any{"title": "Implement dataset collection mapping"}),
	"plan-section": base("plan-section", "plan/section", map[string]any{
		"parent_plan": "[[Plan - Dataset Collection Mapping]]", "section": "API endpoint design",
	}),
	"concept": base("concept", "concept", nil),
	"moc":     base("moc", "moc", nil),
	"project": base("project", "project", map[string]any{"title": "Sample Project"}),
}

func TestValidNotes(t *testing.T) {
	v := defaultValidator(t)
	for name, data := range validNotes {
		t.Run(name, func(t *testing.T) {
			errs, warns := v.ValidateData(data)
			if len(errs) != 0 {
				t.Errorf("errors = %v", errs)
			}
			if len(warns) != 0 {
				t.Errorf("warnings = %v", warns)
			}
		})
	}
}

func TestGithubIssueShapes(t *testing.T) {
	v := defaultValidator(t)
	issue := validNotes["research-issue"]

	list := without(issue, "github_issue")
	list["github_issue"] = []any{1, 2}
	if errs, _ := v.ValidateData(list); len(errs) != 0 {
		t.Errorf("list of ints rejected: %v", errs)
	}

	wrong := without(issue, "github_issue")
	wrong["github_issue"] = "not-a-number"
	if errs, _ := v.ValidateData(wrong); !anyContains(errs, "github_issue") {
		t.Errorf("string github_issue accepted: %v", errs)
	}
}

func TestMissingRequiredFields(t *testing.T) {
	v := defaultValidator(t)
	for _, field := range []string{"type", "tags", "status", "created", "revised", "revision", "ai_generated"} {
		errs, _ := v.ValidateData(without(validNotes["concept"], field))
		if !anyContains(errs, field) {
			t.Errorf("missing %s not reported: %v", field, errs)
		}
	}
}

func TestConditionalRequirements(t *testing.T) {
	v := defaultValidator(t)
	cases := []struct {
		note, drop, want string
	}{
		{"research-component", "subtype", "subtype"},
		{"research-issue", "github_issue", "github_issue"},
		{"research-issue", "github_repo", "github_repo"},
		{"research-pr", "github_pr", "github_pr"},
		{"plan", "title", "title"},
		{"plan-section", "parent_plan", "parent_plan"},
		{"plan-section", "section", "section"},
		{"project", "title", "title"},
	}
	for _, c := range cases {
		errs, _ := v.ValidateData(without(validNotes[c.note], c.drop))
		if !anyContains(errs, c.want) {
			t.Errorf("%s without %s: errors %v do not mention %q", c.note, c.drop, errs, c.want)
		}
	}
}

func TestEnumsAndUnknownFields(t *testing.T) {
	v := defaultValidator(t)
	cases := map[string]map[string]any{
		"tag":     base("concept", "not/a-real-tag", nil),
		"status":  base("concept", "concept", map[string]any{"status": "bogus"}),
		"type":    base("bogus", "concept", nil),
		"subtype": base("research", "research/component", map[string]any{"subtype": "bogus"}),
		"unknown": base("concept", "concept", map[string]any{"unknown_field": 1}),
	}
	for name, data := range cases {
		if errs, _ := v.ValidateData(data); len(errs) == 0 {
			t.Errorf("%s: expected errors", name)
		}
	}
}

func TestPreprocessConvertsDates(t *testing.T) {
	in := map[string]any{
		"created": time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
		"revised": time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC),
		"title":   "x",
	}
	out := Preprocess(in)
	if out["created"] != "2025-01-15" {
		t.Errorf("created = %v", out["created"])
	}
	if out["revised"] != "2025-01-15T10:30:00" {
		t.Errorf("revised = %v", out["revised"])
	}
	if _, ok := in["created"].(time.Time); !ok {
		t.Error("input was mutated")
	}
}

func TestDateObjectPassesValidation(t *testing.T) {
	v := defaultValidator(t)
	data := without(validNotes["concept"], "created")
	data["created"] = time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	if errs, _ := v.ValidateData(data); len(errs) != 0 {
		t.Errorf("errors = %v", errs)
	}
}

func TestInvalidDateString(t *testing.T) {
	v := defaultValidator(t)
	data := without(validNotes["concept"], "created")
	data["created"] = "2025-13-45"
	errs, _ := v.ValidateData(data)
	if !anyContains(errs, "created: '2025-13-45' is not a valid ISO date") {
		t.Errorf("errors = %v", errs)
	}
}

func TestWikiLinkFields(t *testing.T) {
	v := defaultValidator(t)
	ps := validNotes["plan-section"]

	bare := without(ps, "parent_plan")
	bare["parent_plan"] = "Plan - Dataset Collection Mapping"
	if errs, _ := v.ValidateData(bare); !anyContains(errs, "parent_plan") {
		t.Errorf("bare parent_plan accepted: %v", errs)
	}

	empty := without(ps, "parent_plan")
	empty["parent_plan"] = "[[]]"
	if errs, _ := v.ValidateData(empty); !anyContains(errs, "parent_plan") {
		t.Errorf("empty brackets accepted: %v", errs)
	}

	arr := base("concept", "concept", map[string]any{
		"related_notes": []any{"[[Note A]]", "Note B"},
	})
	if errs, _ := v.ValidateData(arr); !anyContains(errs, "related_notes") {
		t.Errorf("bare array item accepted: %v", errs)
	}
}

func TestValidateWikiLinks_WhitespaceOnly(t *testing.T) {
	errs := validateWikiLinks(map[string]any{
		"parent_plan":    "[[   ]]",
		"related_issues": []any{"[[Issue 1]]", "[[ ]]"},
	})
	want := []string{
		"parent_plan: wiki link has whitespace-only inner text: '[[   ]]'",
		"related_issues[1]: wiki link has whitespace-only inner text: '[[ ]]'",
	}
	if len(errs) != len(want) {
		t.Fatalf("errs = %v", errs)
	}
	for i := range want {
		if errs[i] != want[i] {
			t.Errorf("errs[%d] = %q, want %q", i, errs[i], want[i])
		}
	}
}

func TestTagCoherence(t *testing.T) {
	cases := []struct {
		name  string
		data  map[string]any
		warns int
	}{
		{"pass", map[string]any{"type": "research", "subtype": "issue", "tags": []any{"research/issue"}}, 0},
		{"missing", map[string]any{"type": "research", "subtype": "issue", "tags": []any{"galaxy/api"}}, 1},
		{"hierarchy", map[string]any{"type": "plan", "tags": []any{"plan/followup"}}, 0},
		{"concept", map[string]any{"type": "concept", "tags": []any{"concept", "galaxy/api"}}, 0},
		{"concept-wrong", map[string]any{"type": "concept", "tags": []any{"moc"}}, 1},
		{"project", map[string]any{"type": "project", "tags": []any{"galaxy/api"}}, 1},
		{"no-type", map[string]any{"tags": []any{"moc"}}, 0},
	}
	for _, c := range cases {
		got := validateTagCoherence(c.data)
		if len(got) != c.warns {
			t.Errorf("%s: warnings = %v, want %d", c.name, got, c.warns)
		}
	}
	w := validateTagCoherence(map[string]any{"type": "project", "tags": []any{"galaxy/api"}})
	if !strings.Contains(w[0], "'project'") {
		t.Errorf("warning = %q", w[0])
	}
}

func TestOptionalFields(t *testing.T) {
	v := defaultValidator(t)
	extras := map[string]any{
		"aliases":           []any{"Alias"},
		"branch":            "feature/x",
		"related_prs":       []any{"#12", 34},
		"related_notes":     []any{"[[Note]]"},
		"galaxy_areas":      []any{"api"},
		"resolves_question": 2,
		"parent_feature":    "Feature",
	}
	for k, val := range extras {
		data := base("concept", "concept", map[string]any{k: val})
		if errs, _ := v.ValidateData(data); len(errs) != 0 {
			t.Errorf("%s rejected: %v", k, errs)
		}
	}
}

func TestParseTags_KeepsOrder(t *testing.T) {
	tags, err := ParseTags([]byte("b: one\na: two\nc: three\n"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(tags, ",") != "b,a,c" {
		t.Errorf("tags = %v", tags)
	}
}

func TestLoad_CustomFiles(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFiles(t, dir, map[string]string{
		"meta_schema.yml": string(defaultSchema),
		"meta_tags.yml":   "concept: Concept\n",
	})
	v, err := Load(filepath.Join(dir, "meta_schema.yml"), filepath.Join(dir, "meta_tags.yml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if errs, _ := v.ValidateData(base("moc", "moc", nil)); !anyContains(errs, "tags") {
		t.Errorf("moc tag should be rejected with custom tag list: %v", errs)
	}
}

func TestValidateFile(t *testing.T) {
	v := defaultValidator(t)
	dir := t.TempDir()
	testutil.WriteFiles(t, dir, map[string]string{
		"plain.md": "# Overview\n",
		"ok.md":    testutil.Note("concept", "concept", "# Concept\n"),
	})
	errs, _ := v.ValidateFile(filepath.Join(dir, "plain.md"))
	if len(errs) != 1 || errs[0] != "no frontmatter found" {
		t.Errorf("errs = %v", errs)
	}
	if errs, _ := v.ValidateFile(filepath.Join(dir, "ok.md")); len(errs) != 0 {
		t.Errorf("errs = %v", errs)
	}
	if errs, _ := v.ValidateFile(filepath.Join(dir, "missing.md")); !anyContains(errs, "failed to read") {
		t.Errorf("errs = %v", errs)
	}
}

func TestFindMarkdownFiles(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFiles(t, dir, map[string]string{
		"a.md":                             "",
		"Dashboard.md":                     "",
		"templates/T.md":                   "",
		".obsidian/x.md":                   "",
		"projects/sample/index.md":         "",
		"projects/sample/overview.md":      "",
		"projects/sample/architecture.md":  "",
		"research/Issue 1.md":              "",
		"research/notes.txt":               "",
	})
	files, err := FindMarkdownFiles(dir)
	if err != nil {
		t.Fatal(err)
	}
	var rel []string
	for _, f := range files {
		r, _ := filepath.Rel(dir, f)
		rel = append(rel, filepath.ToSlash(r))
	}
	want := "a.md,projects/sample/index.md,research/Issue 1.md"
	if strings.Join(rel, ",") != want {
		t.Errorf("files = %v, want %s", rel, want)
	}
}

func TestValidateDirectory_WithProject(t *testing.T) {
	v := defaultValidator(t)
	dir := t.TempDir()
	testutil.WriteFiles(t, dir, map[string]string{
		"projects/sample/index.md": "---\n" +
			"type: project\n" +
			"tags:\n  - project\n" +
			"status: draft\n" +
			"created: 2025-01-15\n" +
			"revised: 2025-01-15\n" +
			"revision: 1\n" +
			"ai_generated: true\n" +
			"title: Sample Project\n" +
			"---\n" +
			"# Sample Project\n",
		"projects/sample/overview.md": "# Overview\nNo frontmatter here.\n",
	})
	r, err := v.ValidateDirectory(dir)
	if err != nil {
		t.Fatal(err)
	}
	if r.Checked != 1 || r.TotalErrors() != 0 || r.TotalWarnings() != 0 {
		t.Errorf("report = %+v", r)
	}
}

func TestReportWrite(t *testing.T) {
	r := &Report{
		Checked: 2,
		Files: []FileReport{{
			Path:     "vault/bad.md",
			Errors:   []string{"no frontmatter found"},
			Warnings: []string{"tags: expected 'moc'"},
		}},
	}
	var buf bytes.Buffer
	if err := r.Write(&buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"\nvault/bad.md:\n",
		"  ERROR  no frontmatter found\n",
		"  WARN   tags: expected 'moc'\n",
		"Files: 2  Errors: 1  Warnings: 1\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestMain(m *testing.M) {
	os.Exit(m.Run())
}
