package commands

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Param describes one argument declared in a command's schema.
type Param struct {
	Name        string
	Type        string
	Description string
	Required    bool
}

type schemaDoc struct {
	Properties map[string]struct {
		Type        any    `json:"type"`
		Description string `json:"description"`
	} `json:"properties"`
	Required []string `json:"required"`
}

// Params returns the declared arguments sorted by name. A schema that does
// not parse yields no params.
func (c Command) Params() []Param {
	var doc schemaDoc
	if err := json.Unmarshal([]byte(c.Schema()), &doc); err != nil {
		return nil
	}
	required := make(map[string]bool, len(doc.Required))
	for _, name := range doc.Required {
		required[name] = true
	}

	params := make([]Param, 0, len(doc.Properties))
	for name, prop := range doc.Properties {
		typ := "any"
		switch t := prop.Type.(type) {
		case string:
			typ = t
		case []any:
			parts := make([]string, 0, len(t))
			for _, p := range t {
				parts = append(parts, fmt.Sprint(p))
			}
			typ = strings.Join(parts, "|")
		}
		params = append(params, Param{
			Name:        name,
			Type:        typ,
			Description: prop.Description,
			Required:    required[name],
		})
	}
	sort.Slice(params, func(i, j int) bool { return params[i].Name < params[j].Name })
	return params
}

// Signature renders the command as a single prompt line:
//
//	read_file: Read a file, params: (path: string, limit: Optional[integer])
func (c Command) Signature() string {
	params := c.Params()
	parts := make([]string, 0, len(params))
	for _, p := range params {
		typ := p.Type
		if !p.Required {
			typ = "Optional[" + typ + "]"
		}
		parts = append(parts, p.Name+": "+typ)
	}
	return fmt.Sprintf("%s: %s, params: (%s)", c.Name, c.Description, strings.Join(parts, ", "))
}

// FormatNumbered renders commands as a numbered list, one signature per line.
func FormatNumbered(cmds []Command) string {
	var b strings.Builder
	for i, c := range cmds {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d. %s", i+1, c.Signature())
	}
	return b.String()
}
