package filemap

import (
	"strings"
)

// formatTemplate substitutes {field} placeholders from params. Doubled
// braces escape literal ones. A placeholder with no matching field
// fails with a TemplateError.
func formatTemplate(template string, params map[string]string) (string, error) {
	var sb strings.Builder

	for i := 0; i < len(template); i++ {
		c := template[i]
		switch c {
		case '{':
			if i+1 < len(template) && template[i+1] == '{' {
				sb.WriteByte('{')
				i++
				continue
			}

			end := strings.IndexByte(template[i:], '}')
			if end < 0 {
				return "", &TemplateError{Template: template, Field: template[i+1:]}
			}

			field := template[i+1 : i+end]
			value, ok := params[field]
			if !ok {
				return "", &TemplateError{Template: template, Field: field}
			}

			sb.WriteString(value)
			i += end
		case '}':
			if i+1 < len(template) && template[i+1] == '}' {
				i++
			}
			sb.WriteByte('}')
		default:
			sb.WriteByte(c)
		}
	}

	return sb.String(), nil
}

// resolvePath formats a filename template against the union of the path
// parameters and the file's own tags (tags win) and splits off a
// leading "name:" supplemental-directory prefix when one is configured.
// An empty returned name means the primary virtual directory.
func resolvePath(template string, params map[string]string, f *File, supplements map[string]string) (string, string, error) {
	merged := make(map[string]string, len(params)+len(f.Tags))
	for k, v := range params {
		merged[k] = v
	}
	for _, tag := range f.Tags {
		merged[tag.Key] = tag.Value
	}

	formatted, err := formatTemplate(template, merged)
	if err != nil {
		return "", "", err
	}

	for name := range supplements {
		prefix := name + ":"
		if strings.HasPrefix(formatted, prefix) {
			return name, formatted[len(prefix):], nil
		}
	}

	return "", formatted, nil
}
