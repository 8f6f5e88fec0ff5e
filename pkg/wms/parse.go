package wms

import (
	"encoding/json"
	"encoding/xml"
	"io"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/terrabrasilis/wmscap/pkg/errors"
)

// Parse decodes a GetCapabilities XML document.
//
// Returns a PARSE_ERROR coded error when the XML is malformed, when the root
// element is not WMS_Capabilities, or when the root element lives in a
// namespace other than [Namespace]. A ServiceExceptionReport root yields a
// PARSE_ERROR whose message carries the reported exceptions.
func Parse(xmlText string) (*Capabilities, error) {
	return ParseReader(strings.NewReader(xmlText))
}

// ParseReader is like [Parse] but reads the document from r.
func ParseReader(r io.Reader) (*Capabilities, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel

	start, err := rootElement(dec)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse, err, "read capabilities document")
	}

	if start.Name.Local == "ServiceExceptionReport" {
		var rep exceptionReport
		if err := dec.DecodeElement(&rep, &start); err != nil {
			return nil, errors.Wrap(errors.ErrCodeParse, err, "decode service exception report")
		}
		return nil, errors.New(errors.ErrCodeParse, "service exception: %s", rep.summary())
	}

	if start.Name.Space != "" && start.Name.Space != Namespace {
		return nil, errors.New(errors.ErrCodeParse, "unexpected root namespace %q", start.Name.Space)
	}

	var caps Capabilities
	if err := dec.DecodeElement(&caps, &start); err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse, err, "decode WMS capabilities")
	}
	return &caps, nil
}

func rootElement(dec *xml.Decoder) (xml.StartElement, error) {
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return xml.StartElement{}, io.ErrUnexpectedEOF
		}
		if err != nil {
			return xml.StartElement{}, err
		}
		if se, ok := tok.(xml.StartElement); ok {
			return se, nil
		}
	}
}

func (r *exceptionReport) summary() string {
	if len(r.Exceptions) == 0 {
		return "empty exception report"
	}
	msgs := make([]string, 0, len(r.Exceptions))
	for _, e := range r.Exceptions {
		msg := strings.TrimSpace(e.Message)
		if e.Code != "" {
			msg = e.Code + ": " + msg
		}
		msgs = append(msgs, msg)
	}
	return strings.Join(msgs, "; ")
}

// JSON renders the document in its simplified JSON form, keyed by the root
// element name.
func (c *Capabilities) JSON() ([]byte, error) {
	return json.Marshal(map[string]*Capabilities{"WMS_Capabilities": c})
}

// FindLayer returns the first layer named name in a depth-first walk of the
// layer tree, or nil.
func (c *Capabilities) FindLayer(name string) *Layer {
	var found *Layer
	c.Walk(func(l *Layer, _ int) bool {
		if l.Name == name {
			found = l
			return false
		}
		return true
	})
	return found
}

// Walk visits every layer depth-first, starting at the root layer with depth
// 0. Returning false from fn stops the walk.
func (c *Capabilities) Walk(fn func(l *Layer, depth int) bool) {
	if c == nil || c.Capability.Layer == nil {
		return
	}
	walk(c.Capability.Layer, 0, fn)
}

func walk(l *Layer, depth int, fn func(*Layer, int) bool) bool {
	if !fn(l, depth) {
		return false
	}
	for i := range l.Layer {
		if !walk(&l.Layer[i], depth+1, fn) {
			return false
		}
	}
	return true
}
