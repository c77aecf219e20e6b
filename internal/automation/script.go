package automation

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// HierarchyScope mirrors OneNote's HierarchyScope enumeration.
type HierarchyScope int

const (
	ScopeSelf      HierarchyScope = 0
	ScopeChildren  HierarchyScope = 1
	ScopeNotebooks HierarchyScope = 2
	ScopeSections  HierarchyScope = 3
	ScopePages     HierarchyScope = 4
)

// QuotePS renders s as a PowerShell single-quoted literal. Embedded single
// quotes are doubled; nothing else is special inside such a literal.
func QuotePS(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

var funcs = template.FuncMap{"psq": QuotePS}

const prelude = `$ErrorActionPreference = 'Stop'
$onenote = New-Object -ComObject OneNote.Application
`

// Files are exchanged as UTF-8 without BOM so large page documents never pass
// through the command line.
var (
	hierarchyTmpl = template.Must(template.New("hierarchy").Funcs(funcs).Parse(prelude + `$h = ''
$onenote.GetHierarchy('', {{.Scope}}, [ref]$h)
[System.IO.File]::WriteAllText({{psq .Out}}, $h, (New-Object System.Text.UTF8Encoding $false))
Write-Output 'OK'
`))

	createPageTmpl = template.Must(template.New("create").Funcs(funcs).Parse(prelude + `$pageId = ''
$onenote.CreateNewPage({{psq .SectionID}}, [ref]$pageId, 0)
Write-Output $pageId
`))

	getPageTmpl = template.Must(template.New("get").Funcs(funcs).Parse(prelude + `$pageXml = ''
$onenote.GetPageContent({{psq .PageID}}, [ref]$pageXml, 0)
[System.IO.File]::WriteAllText({{psq .Out}}, $pageXml, (New-Object System.Text.UTF8Encoding $false))
Write-Output 'OK'
`))

	updatePageTmpl = template.Must(template.New("update").Funcs(funcs).Parse(prelude + `$pageXml = [System.IO.File]::ReadAllText({{psq .In}}, [System.Text.Encoding]::UTF8)
$onenote.UpdatePageContent($pageXml)
Write-Output 'OK'
`))
)

type hierarchyParams struct {
	Scope HierarchyScope
	Out   string
}

type createPageParams struct {
	SectionID string
}

type getPageParams struct {
	PageID string
	Out    string
}

type updatePageParams struct {
	In string
}

func render(t *template.Template, params any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, params); err != nil {
		return "", fmt.Errorf("automation: render %s script: %w", t.Name(), err)
	}
	return buf.String(), nil
}
