package epub

import (
	"fmt"
	"strings"

	"bookpublish/internal/textutil"
)

const stylesheet = `body {
  font-family: serif;
  line-height: 1.5;
  margin: 0 5%;
}
h1 {
  font-size: 1.6em;
  text-align: center;
  margin: 1.5em 0 1em;
}
p {
  margin: 0 0 0.8em;
  text-indent: 0;
}
figure {
  margin: 1em 0;
  text-align: center;
  page-break-inside: avoid;
}
figure img {
  max-width: 100%;
  max-height: 90vh;
}
figcaption {
  font-size: 0.9em;
  font-style: italic;
}
nav ol {
  list-style: none;
  padding: 0;
}
`

func xhtmlHead(b *strings.Builder, lang, title string) {
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString("<!DOCTYPE html>\n")
	fmt.Fprintf(b, `<html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops" xml:lang="%s" lang="%s">`+"\n",
		textutil.EscapeAttr(lang), textutil.EscapeAttr(lang))
	b.WriteString("<head>\n  <meta charset=\"UTF-8\"/>\n")
	fmt.Fprintf(b, "  <title>%s</title>\n", textutil.EscapeMarkup(title))
	b.WriteString("  <link rel=\"stylesheet\" type=\"text/css\" href=\"stylesheet.css\"/>\n</head>\n")
}

type navEntry struct {
	href  string
	title string
}

func navDocument(lang, title string, entries []navEntry) []byte {
	var b strings.Builder
	xhtmlHead(&b, lang, title)
	b.WriteString("<body>\n")
	b.WriteString("  <nav epub:type=\"toc\" id=\"toc\">\n    <h1>Contents</h1>\n    <ol>\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "      <li><a href=\"%s\">%s</a></li>\n", textutil.EscapeAttr(e.href), textutil.EscapeMarkup(e.title))
	}
	b.WriteString("    </ol>\n  </nav>\n")
	b.WriteString("  <nav epub:type=\"landmarks\" id=\"landmarks\" hidden=\"hidden\">\n    <ol>\n")
	b.WriteString("      <li><a epub:type=\"toc\" href=\"nav.xhtml#toc\">Contents</a></li>\n")
	if len(entries) > 0 {
		fmt.Fprintf(&b, "      <li><a epub:type=\"bodymatter\" href=\"%s\">Start of Content</a></li>\n", textutil.EscapeAttr(entries[0].href))
	}
	b.WriteString("    </ol>\n  </nav>\n</body>\n</html>\n")
	return []byte(b.String())
}

type figure struct {
	src     string
	alt     string
	caption string
}

func chapterDocument(lang string, number int, title string, paragraphs []string, figures []figure) []byte {
	var b strings.Builder
	xhtmlHead(&b, lang, title)
	b.WriteString("<body>\n")
	fmt.Fprintf(&b, "  <section epub:type=\"chapter\" id=\"chapter-%d\">\n", number)
	fmt.Fprintf(&b, "    <h1>%s</h1>\n", textutil.EscapeMarkup(title))
	for _, p := range paragraphs {
		fmt.Fprintf(&b, "    <p>%s</p>\n", textutil.EscapeMarkup(p))
	}
	for _, f := range figures {
		b.WriteString("    <figure>\n")
		fmt.Fprintf(&b, "      <img src=\"%s\" alt=\"%s\"/>\n", textutil.EscapeAttr(f.src), textutil.EscapeAttr(f.alt))
		if f.caption != "" {
			fmt.Fprintf(&b, "      <figcaption>%s</figcaption>\n", textutil.EscapeMarkup(f.caption))
		}
		b.WriteString("    </figure>\n")
	}
	b.WriteString("  </section>\n</body>\n</html>\n")
	return []byte(b.String())
}
