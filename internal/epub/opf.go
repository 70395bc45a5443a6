package epub

import (
	"encoding/xml"
	"fmt"
)

const containerXML = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>
`

type opfPackage struct {
	XMLName          xml.Name    `xml:"package"`
	Xmlns            string      `xml:"xmlns,attr"`
	Version          string      `xml:"version,attr"`
	UniqueIdentifier string      `xml:"unique-identifier,attr"`
	Metadata         opfMetadata `xml:"metadata"`
	Manifest         []opfItem   `xml:"manifest>item"`
	Spine            []opfRef    `xml:"spine>itemref"`
}

type opfMetadata struct {
	XmlnsDC     string    `xml:"xmlns:dc,attr"`
	Identifier  opfText   `xml:"dc:identifier"`
	Titles      []opfText `xml:"dc:title"`
	Creator     opfText   `xml:"dc:creator"`
	Language    string    `xml:"dc:language"`
	Publisher   string    `xml:"dc:publisher,omitempty"`
	Description string    `xml:"dc:description,omitempty"`
	Metas       []opfMeta `xml:"meta"`
}

type opfText struct {
	ID    string `xml:"id,attr,omitempty"`
	Value string `xml:",chardata"`
}

type opfMeta struct {
	Property string `xml:"property,attr,omitempty"`
	Refines  string `xml:"refines,attr,omitempty"`
	Name     string `xml:"name,attr,omitempty"`
	Content  string `xml:"content,attr,omitempty"`
	Value    string `xml:",chardata"`
}

type opfItem struct {
	ID         string `xml:"id,attr"`
	Href       string `xml:"href,attr"`
	MediaType  string `xml:"media-type,attr"`
	Properties string `xml:"properties,attr,omitempty"`
}

type opfRef struct {
	IDRef string `xml:"idref,attr"`
}

func (p opfPackage) marshal() ([]byte, error) {
	body, err := xml.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal package document: %w", err)
	}
	out := append([]byte(xml.Header), body...)
	return append(out, '\n'), nil
}
