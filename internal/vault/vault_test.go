package vault

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/vaultsite/internal/storage"
	"github.com/starford/vaultsite/internal/testutil"
)

func TestRulesExcluded(t *testing.T) {
	r := Rules{Exclude: DefaultExclude}
	cases := map[string]bool{
		"Dashboard.md":               true,
		"research/Dashboard.md":      false,
		".obsidian/workspace.md":     true,
		"templates/Research.md":      true,
		"templatesque/Note.md":       false,
		"research/.hidden/Secret.md": true,
		"research/Issue 17506.md":    false,
	}
	for p, want := range cases {
		if got := r.Excluded(p); got != want {
			t.Errorf("Excluded(%q) = %v, want %v", p, got, want)
		}
	}
}

func TestRulesExcluded_ExtraGlob(t *testing.T) {
	r := Rules{Exclude: []string{"drafts/*.md"}}
	if !r.Excluded("drafts/wip.md") {
		t.Error("drafts/wip.md should be excluded")
	}
	if r.Excluded("drafts/deep/wip.md") {
		t.Error("path.Match does not cross slashes")
	}
}

func TestSplitProjectFile(t *testing.T) {
	cases := []struct {
		in            string
		project, file string
		ok            bool
	}{
		{"projects/Sample/overview.md", "Sample", "overview.md", true},
		{"projects/Sample/docs/arch.md", "Sample", "docs/arch.md", true},
		{"projects/Sample/index.md", "", "", false},
		{"projects/top.md", "", "", false},
		{"research/x.md", "", "", false},
	}
	for _, c := range cases {
		p, f, ok := SplitProjectFile(c.in)
		if p != c.project || f != c.file || ok != c.ok {
			t.Errorf("SplitProjectFile(%q) = %q, %q, %v", c.in, p, f, ok)
		}
	}
}

func loadVault(t *testing.T, files map[string]string) *Collection {
	t.Helper()
	_, store := testutil.TestVault(t, files)
	coll, err := Load(store, Rules{Exclude: DefaultExclude})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return coll
}

func TestLoad(t *testing.T) {
	coll := loadVault(t, map[string]string{
		"research/Issue 17506.md":                      testutil.Note("research", "research/issue", "# Issue 17506\nSee [[Plan - Mapping]].\n"),
		"Plan - Mapping.md":                            "---\ntitle: Mapping plan\n---\nbody\n",
		"Dashboard.md":                                 "dashboard",
		"templates/Research.md":                        "template",
		".obsidian/app.md":                             "internal",
		"projects/Sample Project/index.md":             "---\ntitle: Sample Project\n---\n",
		"projects/Sample Project/Overview.md":          "# Overview\n",
		"projects/Sample Project/docs/Architecture.md": "# Architecture\n",
		"Untitled Note.md":                             "no title here\n",
	})

	wantIDs := []string{
		"plan-mapping",
		"projects/sample-project/index",
		"research/issue-17506",
		"untitled-note",
	}
	if len(coll.Entries) != len(wantIDs) {
		t.Fatalf("entries = %d, want %d: %+v", len(coll.Entries), len(wantIDs), coll.Entries)
	}
	for i, id := range wantIDs {
		if coll.Entries[i].ID != id {
			t.Errorf("Entries[%d].ID = %q, want %q", i, coll.Entries[i].ID, id)
		}
	}

	issue, ok := coll.Entry("research/issue-17506")
	if !ok {
		t.Fatal("issue entry missing")
	}
	if issue.Title != "Issue 17506" {
		t.Errorf("title = %q", issue.Title)
	}
	if len(issue.Links) != 1 || issue.Links[0] != "[[Plan - Mapping]]" {
		t.Errorf("links = %v", issue.Links)
	}
	if issue.Type() != "research" {
		t.Errorf("type = %q", issue.Type())
	}

	if e, _ := coll.Entry("untitled-note"); e.Title != "Untitled Note" {
		t.Errorf("fallback title = %q", e.Title)
	}

	if len(coll.ProjectFiles) != 2 {
		t.Fatalf("project files = %d, want 2", len(coll.ProjectFiles))
	}
	pf := coll.ProjectFiles[0]
	if pf.ID() != "projects/sample-project/docs/architecture" {
		t.Errorf("ProjectFiles[0].ID() = %q", pf.ID())
	}
	if pf.Body != "# Architecture\n" {
		t.Errorf("project body = %q", pf.Body)
	}
	if _, ok := coll.ProjectFile("projects/sample-project/overview"); !ok {
		t.Error("overview project file missing")
	}
}

func TestLoad_EmptyVault(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	coll, err := Load(store, Rules{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(coll.Entries) != 0 || len(coll.ProjectFiles) != 0 {
		t.Errorf("expected empty collection, got %+v", coll)
	}
}

func TestLoad_DuplicateIDsKeepLast(t *testing.T) {
	coll := loadVault(t, map[string]string{
		"research/Issue 17506.md": "first\n",
		"research/issue-17506.md": "second\n",
		"Plan - X.md":             "plan a\n",
		"Plan X.md":               "plan b\n",
		"projects/P/Doc One.md":   "doc a\n",
		"projects/P/doc-one.md":   "doc b\n",
	})

	if len(coll.Entries) != 2 {
		t.Fatalf("entries = %+v", coll.Entries)
	}
	issue, ok := coll.Entry("research/issue-17506")
	if !ok || issue.SourcePath != "research/issue-17506.md" || issue.Body != "second\n" {
		t.Errorf("issue = %+v", issue)
	}
	plan, ok := coll.Entry("plan-x")
	if !ok || plan.SourcePath != "Plan X.md" {
		t.Errorf("plan = %+v", plan)
	}
	if len(coll.ProjectFiles) != 1 || coll.ProjectFiles[0].Body != "doc b\n" {
		t.Errorf("project files = %+v", coll.ProjectFiles)
	}

	skipped := map[string]bool{}
	for _, sk := range coll.Skipped {
		skipped[sk.Path] = true
		if !strings.Contains(sk.Reason, "duplicate id") {
			t.Errorf("reason for %s = %q", sk.Path, sk.Reason)
		}
	}
	for _, p := range []string{"research/Issue 17506.md", "Plan - X.md", "projects/P/Doc One.md"} {
		if !skipped[p] {
			t.Errorf("%s not reported as skipped: %+v", p, coll.Skipped)
		}
	}
}

func TestLoad_SkipsUnusableIDs(t *testing.T) {
	coll := loadVault(t, map[string]string{
		"!!!.md":          "EMPTY-ID-NOTE\n",
		"notes/???/A.md":  "empty folder segment\n",
		"raw/Note.md":     "shadowed by raw routes\n",
		"api/Note.md":     "shadowed by the api\n",
		"projects/P/?.md": "empty project file\n",
		"Other.md":        "kept\n",
		"rawish/Note.md":  "kept too\n",
	})

	var ids []string
	for _, e := range coll.Entries {
		ids = append(ids, e.ID)
	}
	if diff := cmp.Diff([]string{"other", "rawish/note"}, ids); diff != "" {
		t.Errorf("entry ids (-want +got):\n%s", diff)
	}
	if len(coll.ProjectFiles) != 0 {
		t.Errorf("project files = %+v", coll.ProjectFiles)
	}
	if len(coll.Skipped) != 5 {
		t.Errorf("skipped = %+v", coll.Skipped)
	}
}
