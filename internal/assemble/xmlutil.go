package assemble

import (
	"bytes"
	"encoding/xml"
	"io"

	"github.com/pkg/errors"
)

// stripAndAppend re-serializes raw (a single top-level XML element)
// with any direct child whose local name is in strip removed, then
// splices extra in as additional raw children immediately before the
// closing tag. It never looks past the first level of children: a
// stripped element's own descendants go with it, and anything nested
// two or more levels deep is left alone.
func stripAndAppend(raw []byte, strip map[string]bool, extra ...[]byte) ([]byte, error) {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	var out bytes.Buffer
	enc := xml.NewEncoder(&out)

	depth := 0
	skipDepth := -1
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "decoding command xml fragment")
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if skipDepth == -1 && depth == 2 && strip[t.Name.Local] {
				skipDepth = depth
				continue
			}
			if skipDepth != -1 {
				continue
			}
			if err := enc.EncodeToken(t.Copy()); err != nil {
				return nil, err
			}

		case xml.EndElement:
			if skipDepth != -1 {
				if depth == skipDepth {
					skipDepth = -1
				}
				depth--
				continue
			}
			depth--
			if depth == 0 && len(extra) > 0 {
				if err := enc.Flush(); err != nil {
					return nil, err
				}
				for _, e := range extra {
					out.Write(e)
				}
			}
			if err := enc.EncodeToken(t); err != nil {
				return nil, err
			}

		default:
			if skipDepth == -1 {
				if err := enc.EncodeToken(xml.CopyToken(tok)); err != nil {
					return nil, err
				}
			}
		}
	}

	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
