package mcpserver

// ContentFormat describes the HTML accepted by create_page and
// append_to_page. OneNote stores it verbatim inside a CDATA block.
const ContentFormat = `# OneNote Page Content Format

Page bodies are HTML fragments. They are wrapped into a new outline and
stored by OneNote as-is, so only the subset below renders reliably.

## Supported elements

- Paragraphs: ` + "`<p>text</p>`" + `
- Line breaks: ` + "`<br/>`" + `
- Emphasis: ` + "`<b>`, `<i>`, `<u>`, `<strike>`" + `
- Headings: ` + "`<h1>`" + ` to ` + "`<h6>`" + `
- Lists: ` + "`<ul><li>..</li></ul>`, `<ol><li>..</li></ol>`" + `
- Links: ` + "`<a href=\"https://example.com\">label</a>`" + `
- Tables: ` + "`<table><tr><td>..</td></tr></table>`" + `
- Inline style for color only: ` + "`<span style=\"color:#ff0000\">`" + `

## Rules

1. **Append only.** append_to_page adds a new outline at the end of the page;
   existing content is never edited or removed.
2. **Titles are plain text.** create_page puts the title into the page
   title; do not repeat it as a heading in the body.
3. **Notebook names are exact.** Live tools match the notebook name exactly
   and the section name case-insensitively. Use list_live_notebooks first.
4. **No scripts or embedded objects.** ` + "`<script>`, `<iframe>`, `<object>`" + ` are
   ignored by OneNote and may be stripped when sanitizing is enabled.
5. **Encoding** is UTF-8. Characters such as ` + "`&`" + ` and ` + "`<`" + ` inside text
   must be escaped as HTML entities.

## Example

` + "```" + `html
<h2>Standup 2025-01-20</h2>
<ul>
  <li><b>Done:</b> catalog scan</li>
  <li><b>Next:</b> live page writes</li>
</ul>
<p>See <a href="https://example.com/board">the board</a>.</p>
` + "```" + `
`
