package browser

import "strings"

// tagAttr is one attribute of a start tag. Offsets index into the tag text;
// start includes the whitespace before the name.
type tagAttr struct {
	name             string // lower-cased
	start, end       int
	valStart, valEnd int  // -1 when the attribute has no value
	quote            byte // 0 for bare values
}

// scanAttrs tokenizes the attributes of a start tag in order, so that text
// inside one attribute's quoted value is never taken for another attribute.
func scanAttrs(tag string) []tagAttr {
	i := 1
	for i < len(tag) && !isTagSpace(tag[i]) && tag[i] != '>' && tag[i] != '/' {
		i++
	}

	var attrs []tagAttr
	for i < len(tag) {
		start := i
		for i < len(tag) && (isTagSpace(tag[i]) || tag[i] == '/') {
			i++
		}
		if i >= len(tag) || tag[i] == '>' {
			break
		}

		nameStart := i
		for i < len(tag) && !isTagSpace(tag[i]) && tag[i] != '=' && tag[i] != '>' && tag[i] != '/' {
			i++
		}
		if i == nameStart {
			// Stray '=' with no name.
			i++
			continue
		}
		a := tagAttr{name: strings.ToLower(tag[nameStart:i]), start: start, valStart: -1, valEnd: -1}

		j := skipTagSpace(tag, i)
		if j < len(tag) && tag[j] == '=' {
			j = skipTagSpace(tag, j+1)
			switch {
			case j < len(tag) && (tag[j] == '"' || tag[j] == '\''):
				a.quote = tag[j]
				a.valStart = j + 1
				end := strings.IndexByte(tag[a.valStart:], a.quote)
				if end < 0 {
					a.valEnd = len(tag) - 1
					i = a.valEnd
				} else {
					a.valEnd = a.valStart + end
					i = a.valEnd + 1
				}
			default:
				a.valStart = j
				for j < len(tag) && !isTagSpace(tag[j]) && tag[j] != '>' {
					j++
				}
				a.valEnd = j
				i = j
			}
		}
		a.end = i
		attrs = append(attrs, a)
	}
	return attrs
}

func findAttr(attrs []tagAttr, name string) (tagAttr, bool) {
	for _, a := range attrs {
		if a.name == name {
			return a, true
		}
	}
	return tagAttr{}, false
}

func skipTagSpace(s string, i int) int {
	for i < len(s) && isTagSpace(s[i]) {
		i++
	}
	return i
}

func isTagSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}
