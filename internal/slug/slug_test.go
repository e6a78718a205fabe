package slug

import "testing"

func TestSlugify(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Issue 17506", "issue-17506"},
		{"Component - Backend Dependency", "component-backend-dependency"},
		{"API/Client (v2)!", "apiclient-v2"},
		{"", ""},
		{"   ", "-"},
		{"Plan -- Mapping", "plan-mapping"},
		{"already-canonical", "already-canonical"},
		{"Tabs\tand\nnewlines", "tabs-and-newlines"},
		{"Ünïcode Tïtle", "ncode-ttle"},
		{"Issue\u00a017506", "issue-17506"},
		{"Component\u00a0-\u00a0Backend", "component-backend"},
		{"Thin\u2009space", "thin-space"},
		{"\ufeffBOM\u2028line\u2029para\vtab", "-bom-line-para-tab"},
	}
	for _, c := range cases {
		if got := Slugify(c.in); got != c.want {
			t.Errorf("Slugify(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestSlugify_Idempotent(t *testing.T) {
	inputs := []string{
		"Issue 17506",
		"Component - Backend Dependency",
		"API/Client (v2)!",
		"  leading and trailing  ",
		"a - - b",
		"--x--",
		"",
	}
	for _, in := range inputs {
		once := Slugify(in)
		if twice := Slugify(once); twice != once {
			t.Errorf("Slugify not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestSlugify_Deterministic(t *testing.T) {
	for i := 0; i < 10; i++ {
		if got := Slugify("Research - Issue 17506"); got != "research-issue-17506" {
			t.Fatalf("iteration %d: got %q", i, got)
		}
	}
}

func TestEntryID(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"research/Issue 17506.md", "research/issue-17506"},
		{"Component - Backend Dependency Management.md", "component-backend-dependency-management"},
		{"projects/Sample Project/index.md", "projects/sample-project/index"},
		{"Plans/Sub Dir/Plan - Mapping.md", "plans/sub-dir/plan-mapping"},
	}
	for _, c := range cases {
		if got := EntryID(c.in); got != c.want {
			t.Errorf("EntryID(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestBasename(t *testing.T) {
	if got := Basename("research/issue-17506"); got != "issue-17506" {
		t.Errorf("Basename = %q", got)
	}
	if got := Basename("top"); got != "top" {
		t.Errorf("Basename = %q", got)
	}
}
