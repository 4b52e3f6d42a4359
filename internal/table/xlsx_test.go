package table

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"
)

// buildXLSX assembles a minimal two-sheet workbook. Sheet "People" uses
// shared strings and r= cell refs; sheet "Extra" uses inline strings with no
// cell refs at all, which some writers emit.
func buildXLSX(t *testing.T) []byte {
	t.Helper()
	files := map[string]string{
		"xl/workbook.xml": `<?xml version="1.0" encoding="UTF-8"?>
<workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"
          xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
  <sheets>
    <sheet name="People" sheetId="1" r:id="rId1"/>
    <sheet name="Extra" sheetId="2" r:id="rId2"/>
  </sheets>
</workbook>`,
		"xl/_rels/workbook.xml.rels": `<?xml version="1.0" encoding="UTF-8"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet" Target="worksheets/sheet1.xml"/>
  <Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet" Target="/xl/worksheets/sheet2.xml"/>
</Relationships>`,
		"xl/sharedStrings.xml": `<?xml version="1.0" encoding="UTF-8"?>
<sst xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" count="4" uniqueCount="4">
  <si><t>name</t></si>
  <si><t>age</t></si>
  <si><t>alice</t></si>
  <si><t>bob</t></si>
</sst>`,
		"xl/worksheets/sheet1.xml": `<?xml version="1.0" encoding="UTF-8"?>
<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">
  <sheetData>
    <row r="1"><c r="A1" t="s"><v>0</v></c><c r="B1" t="s"><v>1</v></c></row>
    <row r="2"><c r="A2" t="s"><v>2</v></c><c r="B2"><v>30</v></c></row>
    <row r="3"><c r="A3" t="s"><v>3</v></c><c r="B3"><v>25</v></c></row>
  </sheetData>
</worksheet>`,
		"xl/worksheets/sheet2.xml": `<?xml version="1.0" encoding="UTF-8"?>
<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">
  <sheetData>
    <row><c t="inlineStr"><is><t>label</t></is></c></row>
    <row><c t="inlineStr"><is><t>x</t></is></c></row>
    <row><c t="inlineStr"><is><t>y</t></is></c></row>
  </sheetData>
</worksheet>`,
	}
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func TestReadXLSXDefaultSheet(t *testing.T) {
	tab, err := ReadXLSX(buildXLSX(t), DefaultOptions())
	if err != nil {
		t.Fatalf("ReadXLSX: %v", err)
	}
	rows, cols := tab.Shape()
	if rows != 2 || cols != 2 {
		t.Fatalf("shape = (%d, %d), want (2, 2)", rows, cols)
	}
	if got := tab.Cols[0].Name; got != "name" {
		t.Errorf("col 0 name = %q, want name", got)
	}
	if got := tab.Cols[1].Kind; got != KindNumeric {
		t.Errorf("age kind = %s, want numeric", got)
	}
	if got := tab.Cell(0, 0); got != "alice" {
		t.Errorf("cell(0,0) = %q, want alice", got)
	}
	if got := tab.Cell(1, 1); got != "25" {
		t.Errorf("cell(1,1) = %q, want 25", got)
	}
}

func TestReadXLSXSheetByName(t *testing.T) {
	opt := DefaultOptions()
	opt.SheetName = "extra" // matching is case-insensitive
	tab, err := ReadXLSX(buildXLSX(t), opt)
	if err != nil {
		t.Fatalf("ReadXLSX: %v", err)
	}
	if got := tab.Cols[0].Name; got != "label" {
		t.Errorf("col 0 name = %q, want label", got)
	}
	if got := tab.Cell(1, 0); got != "y" {
		t.Errorf("cell(1,0) = %q, want y", got)
	}
}

func TestReadXLSXUnknownSheet(t *testing.T) {
	opt := DefaultOptions()
	opt.SheetName = "Missing"
	_, err := ReadXLSX(buildXLSX(t), opt)
	if err == nil || !strings.Contains(err.Error(), "available sheets: People, Extra") {
		t.Fatalf("err = %v, want sheet-not-found listing available sheets", err)
	}
}

func TestReadXLSXSheetIndex(t *testing.T) {
	opt := DefaultOptions()
	opt.SheetIndex = 2
	tab, err := ReadXLSX(buildXLSX(t), opt)
	if err != nil {
		t.Fatalf("ReadXLSX: %v", err)
	}
	if got := tab.Cols[0].Name; got != "label" {
		t.Errorf("col 0 name = %q, want label", got)
	}
}

func TestNormalizeRelPath(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
		{"/xl/worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
		{"xl/worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
		{"styles.xml", "xl/styles.xml"},
	}
	for _, c := range cases {
		if got := normalizeRelPath(c.in); got != c.want {
			t.Errorf("normalizeRelPath(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestColIndexFromRef(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"A1", 0},
		{"B12", 1},
		{"Z3", 25},
		{"AA1", 26},
		{"", -1},
	}
	for _, c := range cases {
		if got := colIndexFromRef(c.in); got != c.want {
			t.Errorf("colIndexFromRef(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}
