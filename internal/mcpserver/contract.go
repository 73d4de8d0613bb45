package mcpserver

// AuthoringFormatContract describes the canonical authoring format that
// LLM consumers should follow when writing or editing vault content.
const AuthoringFormatContract = `# Ansuz Authoring Format Contract

Course content lives in a vault of wiki-style Markdown files. The compiler
is strict: files that deviate from this contract produce diagnostics and
may be dropped from the compiled output.

## Directory layout

- ` + "`" + `modules/` + "`" + ` – module files (one per course module)
- ` + "`" + `courses/` + "`" + ` – course files (ordered lists of modules)
- ` + "`" + `Learning Outcomes/` + "`" + ` – learning outcome files
- ` + "`" + `Lenses/` + "`" + ` – lens files (a perspective on one article or video)
- ` + "`" + `articles/` + "`" + ` – article source texts
- ` + "`" + `video_transcripts/` + "`" + ` – transcripts, each with a ` + "`" + `<name>.timestamps.json` + "`" + ` sidecar

## Frontmatter and tiers

Every file starts with YAML frontmatter. Two tags control the authoring tier:

- no tag: **production** – all diagnostics are errors for publishing
- ` + "`" + `wip` + "`" + `: work in progress – diagnostics are reported but do not block
- ` + "`" + `validator-ignore` + "`" + `: excluded from validation and output entirely

A production file must never reference a wip or ignored file.

## Sections and fields

Content is organized by headings whose rank depends on the file type
(` + "`" + `#` + "`" + ` in modules and courses, ` + "`" + `##` + "`" + ` in learning outcomes, ` + "`" + `###` + "`" + ` in lenses).
Heading text names the section type, e.g. ` + "`" + `# Page: Introduction` + "`" + ` in a
module, ` + "`" + `## Lens` + "`" + ` in a learning outcome, ` + "`" + `### Article: Title` + "`" + ` in a lens.
Segments nest one rank deeper than their section.

Fields use the ` + "`" + `key:: value` + "`" + ` syntax on their own line directly under the
heading:

` + "```" + `markdown
#### Article Excerpt
from:: The industrial revolution began
to:: and changed everything.
optional:: true
` + "```" + `

Rules:

1. **Links** use double brackets: ` + "`" + `source:: [[articles/some-article]]` + "`" + `. The
   target is the vault-relative path, ` + "`" + `.md` + "`" + ` extension optional.
2. **Anchors** (` + "`" + `from::` + "`" + `/` + "`" + `to::` + "`" + `) must match the source text exactly once.
   Matching ignores case and treats curly and straight quotes alike.
3. **Video anchors** are ` + "`" + `mm:ss` + "`" + ` timestamps present in the sidecar index.
4. **Boolean fields** take ` + "`" + `true` + "`" + ` or ` + "`" + `false` + "`" + ` only.
5. Every lens needs a ` + "`" + `source::` + "`" + ` link and at least one excerpt segment whose
   kind (article or video) matches the source file.
6. Unknown section types, unknown fields, and misplaced heading ranks are
   compile errors; the compiler suggests the closest known name.

## Example lens

` + "```" + `markdown
---
id: lens-industrial-revolution
tags:
  - wip
---

### Article: The Industrial Revolution
source:: [[articles/industrial-revolution]]

#### Article Excerpt
from:: The factory system
to:: urban migration.

#### Chat
instructions:: Ask the learner what surprised them about this passage.
` + "```" + `
`
