package pacer

import (
	"encoding/json"
	"strings"
)

// Extracted is the result of best-effort JSON extraction from untrusted
// provider text. Either OK is true and JSON holds a balanced JSON
// document, or OK is false and only Raw is meaningful. Extraction never
// fails with an error; callers branch on OK and fall back.
type Extracted struct {
	Raw  string
	JSON string
	OK   bool
}

// ExtractJSON locates the first balanced JSON object or array inside
// free-form text. Model output commonly wraps JSON in prose or markdown
// fences; both are stripped. The scan is string-aware, so braces inside
// JSON string values do not break balancing.
func ExtractJSON(text string) Extracted {
	out := Extracted{Raw: text}

	cleaned := stripFences(text)

	start := -1
	for i, c := range cleaned {
		if c == '{' || c == '[' {
			start = i
			break
		}
	}
	if start < 0 {
		return out
	}

	open := cleaned[start]
	var closer byte = '}'
	if open == '[' {
		closer = ']'
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(cleaned); i++ {
		c := cleaned[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
			// characters inside strings never affect depth
		case c == open:
			depth++
		case c == closer:
			depth--
			if depth == 0 {
				candidate := cleaned[start : i+1]
				if json.Valid([]byte(candidate)) {
					out.JSON = candidate
					out.OK = true
				}
				return out
			}
		}
	}

	return out
}

// decodeExtracted extracts and unmarshals the first JSON document in
// text into v. Returns false on any extraction or decode failure.
func decodeExtracted(text string, v any) bool {
	ex := ExtractJSON(text)
	if !ex.OK {
		return false
	}
	return json.Unmarshal([]byte(ex.JSON), v) == nil
}

// stripFences removes markdown code fences so the balance scan starts
// from the payload itself.
func stripFences(text string) string {
	if !strings.Contains(text, "```") {
		return text
	}
	var b strings.Builder
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}
