package docgen

import (
	"archive/zip"
	"encoding/xml"
	"io"
	"strconv"
	"strings"
	"time"
)

const (
	xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"
	nsW       = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	nsR       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsRel     = "http://schemas.openxmlformats.org/package/2006/relationships"

	accentColor = "2FAB16"
	// page geometry in twentieths of a point (A4, 2 cm margins)
	pageWidth   = 11906
	pageHeight  = 16838
	pageMargin  = 1134
	labelWidth  = 3260
	cellMargin  = 113
	bodyLine    = 276
	bodySize    = 24
	tableSize   = 20
	summarySize = 32
)

type part struct {
	name string
	body func(w *strings.Builder)
}

func (g *Generator) writePackage(out io.Writer, blocks []Block) error {
	now := g.now().UTC()
	parts := []part{
		{"[Content_Types].xml", contentTypes},
		{"_rels/.rels", rootRels},
		{"docProps/core.xml", func(w *strings.Builder) { g.coreProps(w, now) }},
		{"docProps/app.xml", appProps},
		{"word/_rels/document.xml.rels", documentRels},
		{"word/document.xml", func(w *strings.Builder) { documentXML(w, blocks) }},
		{"word/styles.xml", stylesXML},
		{"word/settings.xml", settingsXML},
		{"word/footer1.xml", func(w *strings.Builder) { g.footerXML(w) }},
	}

	zw := zip.NewWriter(out)
	for _, p := range parts {
		f, err := zw.CreateHeader(&zip.FileHeader{Name: p.name, Method: zip.Deflate, Modified: now})
		if err != nil {
			return err
		}
		var sb strings.Builder
		sb.WriteString(xmlHeader)
		p.body(&sb)
		if _, err := io.WriteString(f, sb.String()); err != nil {
			return err
		}
	}
	return zw.Close()
}

func escape(s string) string {
	var sb strings.Builder
	_ = xml.EscapeText(&sb, []byte(s))
	return sb.String()
}

func contentTypes(w *strings.Builder) {
	w.WriteString(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`)
	w.WriteString(`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`)
	w.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)
	w.WriteString(`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>`)
	w.WriteString(`<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>`)
	w.WriteString(`<Override PartName="/word/settings.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.settings+xml"/>`)
	w.WriteString(`<Override PartName="/word/footer1.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.footer+xml"/>`)
	w.WriteString(`<Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>`)
	w.WriteString(`<Override PartName="/docProps/app.xml" ContentType="application/vnd.openxmlformats-officedocument.extended-properties+xml"/>`)
	w.WriteString(`</Types>`)
}

func relationship(w *strings.Builder, id, typ, target string) {
	w.WriteString(`<Relationship Id="` + id + `" Type="` + typ + `" Target="` + target + `"/>`)
}

func rootRels(w *strings.Builder) {
	w.WriteString(`<Relationships xmlns="` + nsRel + `">`)
	relationship(w, "rId1", nsR+"/officeDocument", "word/document.xml")
	relationship(w, "rId2", "http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties", "docProps/core.xml")
	relationship(w, "rId3", nsR+"/extended-properties", "docProps/app.xml")
	w.WriteString(`</Relationships>`)
}

func documentRels(w *strings.Builder) {
	w.WriteString(`<Relationships xmlns="` + nsRel + `">`)
	relationship(w, "rId1", nsR+"/styles", "styles.xml")
	relationship(w, "rId2", nsR+"/settings", "settings.xml")
	relationship(w, "rId3", nsR+"/footer", "footer1.xml")
	w.WriteString(`</Relationships>`)
}

func (g *Generator) coreProps(w *strings.Builder, now time.Time) {
	stamp := now.Format(time.RFC3339)
	w.WriteString(`<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" ` +
		`xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/" ` +
		`xmlns:dcmitype="http://purl.org/dc/dcmitype/" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">`)
	w.WriteString(`<dc:title>` + escape(g.Title()) + `</dc:title>`)
	w.WriteString(`<dc:creator>AAP Builder</dc:creator>`)
	w.WriteString(`<dc:language>` + escape(g.lang) + `</dc:language>`)
	w.WriteString(`<dcterms:created xsi:type="dcterms:W3CDTF">` + stamp + `</dcterms:created>`)
	w.WriteString(`<dcterms:modified xsi:type="dcterms:W3CDTF">` + stamp + `</dcterms:modified>`)
	w.WriteString(`</cp:coreProperties>`)
}

func appProps(w *strings.Builder) {
	w.WriteString(`<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/extended-properties">`)
	w.WriteString(`<Application>AAP Builder</Application>`)
	w.WriteString(`</Properties>`)
}

func settingsXML(w *strings.Builder) {
	w.WriteString(`<w:settings xmlns:w="` + nsW + `"><w:defaultTabStop w:val="709"/></w:settings>`)
}

func run(w *strings.Builder, rPr, text string) {
	w.WriteString(`<w:r>`)
	if rPr != "" {
		w.WriteString(`<w:rPr>` + rPr + `</w:rPr>`)
	}
	w.WriteString(`<w:t xml:space="preserve">` + escape(text) + `</w:t></w:r>`)
}

func bodyParagraph(w *strings.Builder, text string) {
	w.WriteString(`<w:p><w:pPr><w:pStyle w:val="Normal"/>`)
	w.WriteString(`<w:spacing w:line="` + strconv.Itoa(bodyLine) + `" w:lineRule="auto"/><w:jc w:val="both"/></w:pPr>`)
	if text != "" {
		run(w, "", text)
	}
	w.WriteString(`</w:p>`)
}

func headingStyle(level int) string {
	if level < 1 {
		level = 1
	}
	if level > 4 {
		level = 4
	}
	return "Heading" + strconv.Itoa(level)
}

func heading(w *strings.Builder, b Block) {
	w.WriteString(`<w:p><w:pPr><w:pStyle w:val="` + headingStyle(b.Level) + `"/></w:pPr>`)
	if b.Number != "" {
		run(w, "", b.Number)
		w.WriteString(`<w:r><w:tab/></w:r>`)
		run(w, "", b.Text)
	} else {
		rPr := ""
		if b.Level == 1 {
			rPr = `<w:sz w:val="` + strconv.Itoa(summarySize) + `"/><w:szCs w:val="` + strconv.Itoa(summarySize) + `"/>`
		}
		run(w, rPr, b.Text)
	}
	w.WriteString(`</w:p>`)
}

func cellParagraphs(w *strings.Builder, text, jc string, bold bool) {
	rPr := `<w:sz w:val="` + strconv.Itoa(tableSize) + `"/><w:szCs w:val="` + strconv.Itoa(tableSize) + `"/>`
	if bold {
		rPr = `<w:b/>` + rPr
	}
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		w.WriteString(`<w:p><w:pPr><w:jc w:val="` + jc + `"/></w:pPr>`)
		if line != "" {
			run(w, rPr, line)
		}
		w.WriteString(`</w:p>`)
	}
}

func table(w *strings.Builder, rows []Row) {
	valueWidth := pageWidth - 2*pageMargin - labelWidth
	margin := strconv.Itoa(cellMargin)
	w.WriteString(`<w:tbl><w:tblPr><w:tblStyle w:val="AAPTableGrid"/><w:tblW w:w="5000" w:type="pct"/>`)
	w.WriteString(`<w:tblCellMar><w:top w:w="` + margin + `" w:type="dxa"/><w:left w:w="` + margin + `" w:type="dxa"/>`)
	w.WriteString(`<w:bottom w:w="` + margin + `" w:type="dxa"/><w:right w:w="` + margin + `" w:type="dxa"/></w:tblCellMar>`)
	w.WriteString(`</w:tblPr><w:tblGrid>`)
	w.WriteString(`<w:gridCol w:w="` + strconv.Itoa(labelWidth) + `"/><w:gridCol w:w="` + strconv.Itoa(valueWidth) + `"/>`)
	w.WriteString(`</w:tblGrid>`)
	for _, r := range rows {
		w.WriteString(`<w:tr><w:tc><w:tcPr><w:tcW w:w="` + strconv.Itoa(labelWidth) + `" w:type="dxa"/></w:tcPr>`)
		cellParagraphs(w, r.Label, "right", true)
		w.WriteString(`</w:tc><w:tc><w:tcPr><w:tcW w:w="` + strconv.Itoa(valueWidth) + `" w:type="dxa"/></w:tcPr>`)
		cellParagraphs(w, r.Value, "left", false)
		w.WriteString(`</w:tc></w:tr>`)
	}
	w.WriteString(`</w:tbl>`)
}

func documentXML(w *strings.Builder, blocks []Block) {
	w.WriteString(`<w:document xmlns:w="` + nsW + `" xmlns:r="` + nsR + `"><w:body>`)
	for _, b := range blocks {
		switch b.Kind {
		case BlockTitle:
			w.WriteString(`<w:p><w:pPr><w:pStyle w:val="Title"/><w:jc w:val="center"/></w:pPr>`)
			run(w, "", b.Text)
			w.WriteString(`</w:p>`)
		case BlockHeading:
			heading(w, b)
		case BlockParagraph:
			bodyParagraph(w, b.Text)
		case BlockBlank:
			bodyParagraph(w, "")
		case BlockTable:
			table(w, b.Rows)
		}
	}
	m := strconv.Itoa(pageMargin)
	w.WriteString(`<w:sectPr><w:footerReference w:type="default" r:id="rId3"/>`)
	w.WriteString(`<w:pgSz w:w="` + strconv.Itoa(pageWidth) + `" w:h="` + strconv.Itoa(pageHeight) + `"/>`)
	w.WriteString(`<w:pgMar w:top="` + m + `" w:right="` + m + `" w:bottom="` + m + `" w:left="` + m + `" w:header="708" w:footer="708" w:gutter="0"/>`)
	w.WriteString(`</w:sectPr></w:body></w:document>`)
}

func field(w *strings.Builder, instr string) {
	w.WriteString(`<w:r><w:fldChar w:fldCharType="begin"/></w:r>`)
	w.WriteString(`<w:r><w:instrText xml:space="preserve"> ` + instr + ` </w:instrText></w:r>`)
	w.WriteString(`<w:r><w:fldChar w:fldCharType="separate"/></w:r>`)
	w.WriteString(`<w:r><w:t>1</w:t></w:r>`)
	w.WriteString(`<w:r><w:fldChar w:fldCharType="end"/></w:r>`)
}

func (g *Generator) footerXML(w *strings.Builder) {
	w.WriteString(`<w:ftr xmlns:w="` + nsW + `" xmlns:r="` + nsR + `">`)
	w.WriteString(`<w:p><w:pPr><w:pStyle w:val="Normal"/><w:jc w:val="right"/></w:pPr>`)
	run(w, "", g.text("docx.page", "Page")+" ")
	field(w, "PAGE")
	run(w, "", " "+g.text("docx.of", "of")+" ")
	field(w, "NUMPAGES")
	w.WriteString(`</w:p></w:ftr>`)
}

func paragraphStyle(w *strings.Builder, id, name string, size int, color string, bold, caps bool, jc string, outline int) {
	w.WriteString(`<w:style w:type="paragraph" w:styleId="` + id + `"><w:name w:val="` + name + `"/>`)
	w.WriteString(`<w:basedOn w:val="Normal"/><w:next w:val="Normal"/><w:qFormat/>`)
	w.WriteString(`<w:pPr>`)
	if outline >= 0 {
		w.WriteString(`<w:keepNext/>`)
	}
	w.WriteString(`<w:jc w:val="` + jc + `"/>`)
	if outline >= 0 {
		w.WriteString(`<w:outlineLvl w:val="` + strconv.Itoa(outline) + `"/>`)
	}
	w.WriteString(`</w:pPr><w:rPr><w:rFonts w:ascii="Arial" w:hAnsi="Arial" w:cs="Arial"/>`)
	if bold {
		w.WriteString(`<w:b/><w:bCs/>`)
	}
	if caps {
		w.WriteString(`<w:caps/>`)
	}
	w.WriteString(`<w:color w:val="` + color + `"/>`)
	w.WriteString(`<w:sz w:val="` + strconv.Itoa(size) + `"/><w:szCs w:val="` + strconv.Itoa(size) + `"/></w:rPr></w:style>`)
}

func stylesXML(w *strings.Builder) {
	body := strconv.Itoa(bodySize)
	margin := strconv.Itoa(cellMargin)
	w.WriteString(`<w:styles xmlns:w="` + nsW + `">`)
	w.WriteString(`<w:docDefaults><w:rPrDefault><w:rPr><w:rFonts w:ascii="Arial" w:eastAsia="Arial" w:hAnsi="Arial" w:cs="Arial"/>`)
	w.WriteString(`<w:sz w:val="` + body + `"/><w:szCs w:val="` + body + `"/></w:rPr></w:rPrDefault>`)
	w.WriteString(`<w:pPrDefault><w:pPr><w:spacing w:after="0" w:line="` + strconv.Itoa(bodyLine) + `" w:lineRule="auto"/></w:pPr></w:pPrDefault></w:docDefaults>`)

	w.WriteString(`<w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/><w:qFormat/>`)
	w.WriteString(`<w:pPr><w:spacing w:line="` + strconv.Itoa(bodyLine) + `" w:lineRule="auto"/><w:jc w:val="both"/></w:pPr>`)
	w.WriteString(`<w:rPr><w:rFonts w:ascii="Arial" w:hAnsi="Arial" w:cs="Arial"/><w:color w:val="000000"/>`)
	w.WriteString(`<w:sz w:val="` + body + `"/><w:szCs w:val="` + body + `"/></w:rPr></w:style>`)

	paragraphStyle(w, "Title", "Title", 32, accentColor, true, false, "center", -1)
	paragraphStyle(w, "Heading1", "heading 1", 44, accentColor, true, true, "left", 0)
	paragraphStyle(w, "Heading2", "heading 2", 32, accentColor, true, true, "left", 1)
	paragraphStyle(w, "Heading3", "heading 3", 28, "000000", true, false, "left", 2)
	paragraphStyle(w, "Heading4", "heading 4", 24, "000000", true, false, "left", 3)

	w.WriteString(`<w:style w:type="table" w:default="1" w:styleId="TableNormal"><w:name w:val="Normal Table"/><w:uiPriority w:val="99"/><w:semiHidden/>`)
	w.WriteString(`<w:tblPr><w:tblInd w:w="0" w:type="dxa"/><w:tblCellMar><w:top w:w="0" w:type="dxa"/><w:left w:w="108" w:type="dxa"/>`)
	w.WriteString(`<w:bottom w:w="0" w:type="dxa"/><w:right w:w="108" w:type="dxa"/></w:tblCellMar></w:tblPr></w:style>`)

	w.WriteString(`<w:style w:type="table" w:styleId="AAPTableGrid"><w:name w:val="AAPTableGrid"/><w:basedOn w:val="TableNormal"/><w:uiPriority w:val="99"/>`)
	w.WriteString(`<w:rPr><w:sz w:val="` + strconv.Itoa(tableSize) + `"/><w:szCs w:val="` + strconv.Itoa(tableSize) + `"/></w:rPr>`)
	w.WriteString(`<w:tblPr><w:tblBorders>`)
	for _, side := range []string{"top", "left", "bottom", "right", "insideH", "insideV"} {
		w.WriteString(`<w:` + side + ` w:val="single" w:sz="4" w:space="0" w:color="auto"/>`)
	}
	w.WriteString(`</w:tblBorders><w:tblCellMar><w:top w:w="` + margin + `" w:type="dxa"/><w:left w:w="` + margin + `" w:type="dxa"/>`)
	w.WriteString(`<w:bottom w:w="` + margin + `" w:type="dxa"/><w:right w:w="` + margin + `" w:type="dxa"/></w:tblCellMar></w:tblPr></w:style>`)
	w.WriteString(`</w:styles>`)
}
