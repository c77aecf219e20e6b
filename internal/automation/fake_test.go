package automation

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/starford/onebridge/internal/pagexml"
)

const ns = `xmlns:one="http://schemas.microsoft.com/office/onenote/2013/onenote"`

const sectionsXML = `<?xml version="1.0"?>
<one:Notebooks ` + ns + `>
  <one:Notebook name="Work" ID="{NB-W}">
    <one:Section name="Inbox" ID="{S-INBOX}"/>
    <one:SectionGroup name="Projects" ID="{G-P}">
      <one:Section name="Algorithm" ID="{S-ALGO}" locked="true"/>
    </one:SectionGroup>
    <one:SectionGroup name="OneNote_RecycleBin" ID="{G-RB}" isRecycleBin="true">
      <one:Section name="Old" ID="{S-OLD}" isInRecycleBin="true"/>
    </one:SectionGroup>
  </one:Notebook>
  <one:Notebook name="Personal" ID="{NB-P}">
    <one:Section name="Recipes" ID="{S-REC}"/>
  </one:Notebook>
</one:Notebooks>`

const pagesXML = `<?xml version="1.0"?>
<one:Notebooks ` + ns + `>
  <one:Notebook name="Work" ID="{NB-W}">
    <one:Section name="Inbox" ID="{S-INBOX}">
      <one:Page ID="{P-1}" name="Monday"/>
      <one:Page ID="{P-2}"/>
      <one:Page ID="{P-3}" name="Deleted" isInRecycleBin="true"/>
    </one:Section>
  </one:Notebook>
</one:Notebooks>`

func emptyPage(id string) string {
	return `<?xml version="1.0"?>
<one:Page ` + ns + ` ID="` + id + `" name=""><one:Title><one:OE><one:T><![CDATA[]]></one:T></one:OE></one:Title></one:Page>`
}

// fakeSurface is an in-memory OneNote that records every call.
type fakeSurface struct {
	mu       sync.Mutex
	calls    []string
	pages    map[string]string
	next     int
	failOn   string
	closed   int
	newPage  func(id string) string
	badPages bool
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{pages: make(map[string]string), newPage: emptyPage}
}

func (f *fakeSurface) opener() Opener {
	return func(context.Context) (Surface, error) { return f, nil }
}

func (f *fakeSurface) record(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, op)
	if f.failOn == op {
		return fmt.Errorf("%s: %w", op, errFake)
	}
	return nil
}

var errFake = errors.New("COM call failed")

func (f *fakeSurface) GetHierarchy(_ context.Context, scope HierarchyScope) (string, error) {
	if err := f.record("GetHierarchy"); err != nil {
		return "", err
	}
	if scope == ScopePages {
		return pagesXML, nil
	}
	return sectionsXML, nil
}

func (f *fakeSurface) CreateNewPage(_ context.Context, sectionID string) (string, error) {
	if err := f.record("CreateNewPage"); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	id := fmt.Sprintf("{%s}{P-%d}", sectionID, f.next)
	f.pages[id] = f.newPage(id)
	return id, nil
}

func (f *fakeSurface) GetPageContent(_ context.Context, pageID string) (string, error) {
	if err := f.record("GetPageContent"); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.badPages {
		return "<broken", nil
	}
	xml, ok := f.pages[pageID]
	if !ok {
		return "", fmt.Errorf("page %s: %w", pageID, errFake)
	}
	return xml, nil
}

func (f *fakeSurface) UpdatePageContent(_ context.Context, pageXML string) error {
	if err := f.record("UpdatePageContent"); err != nil {
		return err
	}
	doc, err := parsePageForTest(pageXML)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[doc] = pageXML
	return nil
}

func (f *fakeSurface) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

func parsePageForTest(s string) (string, error) {
	doc, err := pagexml.Parse(s)
	if err != nil {
		return "", err
	}
	return pagexml.PageID(doc), nil
}
