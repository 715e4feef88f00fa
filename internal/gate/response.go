package gate

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	fieldOffended   = "offended"
	fieldReason     = "reason"
	fieldSuggestion = "suggestion"
)

var errEmptyResponse = errors.New("empty response")

// oracleAnswer is the decoded reply. Reason and Suggestion may be empty.
type oracleAnswer struct {
	Offended   bool
	Reason     string
	Suggestion string
}

// parseResponse accepts exactly one JSON object and nothing after it. Known
// keys must be spelled in lower case and appear once; anything ambiguous is an error.
func parseResponse(content string) (oracleAnswer, error) {
	content = stripMarkdownCodeBlock(content)
	if content == "" {
		return oracleAnswer{}, errEmptyResponse
	}

	fields, err := decodeObject(content)
	if err != nil {
		return oracleAnswer{}, err
	}

	raw, ok := fields[fieldOffended]
	if !ok {
		return oracleAnswer{}, fmt.Errorf("missing boolean field '%s'", fieldOffended)
	}
	var offended *bool
	if err := json.Unmarshal(raw, &offended); err != nil || offended == nil {
		return oracleAnswer{}, fmt.Errorf("field '%s' is not a boolean", fieldOffended)
	}

	answer := oracleAnswer{Offended: *offended}
	if answer.Reason, err = optionalString(fields, fieldReason); err != nil {
		return oracleAnswer{}, err
	}
	if answer.Suggestion, err = optionalString(fields, fieldSuggestion); err != nil {
		return oracleAnswer{}, err
	}
	return answer, nil
}

// decodeObject reads a single top-level object into its raw members.
func decodeObject(content string) (map[string]json.RawMessage, error) {
	dec := json.NewDecoder(strings.NewReader(content))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected a JSON object")
	}

	fields := map[string]json.RawMessage{}
	seen := map[string]bool{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("invalid object key %v", tok)
		}

		folded := strings.ToLower(key)
		if seen[folded] {
			return nil, fmt.Errorf("duplicate field '%s'", key)
		}
		seen[folded] = true
		if isKnownField(folded) && key != folded {
			return nil, fmt.Errorf("field '%s' must be lower case", key)
		}

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
		fields[key] = value
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected content after JSON object")
	}
	return fields, nil
}

func isKnownField(name string) bool {
	return name == fieldOffended || name == fieldReason || name == fieldSuggestion
}

// optionalString returns "" for a missing or null field.
func optionalString(fields map[string]json.RawMessage, name string) (string, error) {
	raw, ok := fields[name]
	if !ok {
		return "", nil
	}
	var value *string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", fmt.Errorf("field '%s' is not a string", name)
	}
	if value == nil {
		return "", nil
	}
	return *value, nil
}

// stripMarkdownCodeBlock removes one markdown code fence when it wraps the whole
// reply. Text after the closing fence leaves the content untouched.
func stripMarkdownCodeBlock(content string) string {
	content = strings.TrimSpace(content)

	if !strings.HasPrefix(content, "```") || !strings.HasSuffix(content, "```") {
		return content
	}

	firstNewline := strings.Index(content, "\n")
	if firstNewline == -1 || firstNewline >= len(content)-3 {
		return content
	}

	return strings.TrimSpace(content[firstNewline+1 : len(content)-3])
}
