package mcpserver

import (
	"strings"

	"github.com/starford/vaultsite/internal/schema"
)

const noteFormatHead = `# Vault Note Format Contract

Every published note is a Markdown file with YAML frontmatter. Notes are
checked against the vault schema before a site build.

## Structure

` + "```" + `markdown
---
type: research                 # REQUIRED: research, plan, plan-section, concept, moc, project
subtype: issue                 # REQUIRED for research notes
tags:                          # REQUIRED: must include the tag for the note type
  - research/issue
status: draft                  # REQUIRED: draft, reviewed, revised, stale, archived
created: 2025-01-15            # REQUIRED: YYYY-MM-DD
revised: 2025-01-15            # REQUIRED: YYYY-MM-DD
revision: 1                    # REQUIRED: integer >= 1
ai_generated: true             # REQUIRED
github_issue: 17506            # research/issue only
github_repo: galaxyproject/galaxy
related_notes:
  - "[[Collection Semantics]]"
---

# Issue 17506

Body text in Markdown. Link other notes with [[Note Title]] or
[[Note Title|display text]].
` + "```" + `

## Rules

1. **Identifiers** come from the file path: each segment is lowercased,
   spaces and " - " become "-", everything else outside [a-z0-9-] is dropped.
   ` + "`research/Issue 17506.md`" + ` is published as ` + "`research/issue-17506`" + `.
2. **Wiki-links** resolve by the slug of their text against the last segment
   of every identifier. An exact match wins; otherwise the first identifier
   (in ID order) starting with the slug is used. Unresolved links render as
   plain text and are reported by list_dangling.
3. **Frontmatter links** (` + "`parent_plan`, `related_issues`, `related_notes`" + `) must be
   quoted "[[...]]" strings with non-blank text.
4. **Type tags** must match the note type: research notes carry
   ` + "`research/<subtype>`" + `, plan-section notes carry ` + "`plan/section`" + `, and so on.
   Child tags satisfy their parent (` + "`plan/followup`" + ` counts as ` + "`plan`" + `).
5. **Projects** live in ` + "`projects/<name>/`" + `. ` + "`index.md`" + ` is the project note;
   every other file is published only as raw Markdown at
   ` + "`raw/projects/<name>/<file>.md`" + `.
6. **Never published:** ` + "`Dashboard.md`, `templates/`" + ` and hidden folders such as
   ` + "`.obsidian/`" + `.
`

// NoteContract renders the contract with the allowed tag list.
func NoteContract(v *schema.Validator) string {
	var b strings.Builder
	b.WriteString(noteFormatHead)
	b.WriteString("\n## Allowed tags\n\n")
	for _, t := range v.Tags() {
		b.WriteString("- `")
		b.WriteString(t)
		b.WriteString("`\n")
	}
	return b.String()
}
