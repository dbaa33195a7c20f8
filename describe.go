package restrpc

import (
	"io"

	"gopkg.in/yaml.v3"
)

// routeDoc is the YAML shape of one route in the exported table.
type routeDoc struct {
	Method     string     `yaml:"method"`
	Path       string     `yaml:"path"`
	Parameters []paramDoc `yaml:"parameters,omitempty"`
	Returns    string     `yaml:"returns"`
}

type paramDoc struct {
	Name        string `yaml:"name"`
	Kind        string `yaml:"kind"`
	Type        string `yaml:"type"`
	Default     string `yaml:"default,omitempty"`
	Title       string `yaml:"title,omitempty"`
	Description string `yaml:"description,omitempty"`
	Deprecated  bool   `yaml:"deprecated,omitempty"`
}

// WriteRoutes writes the route table as YAML, in registration order. This is
// an enumeration of the contract — methods, paths, parameter slots, return
// types — not a schema document.
func (d *Definition) WriteRoutes(w io.Writer) error {
	docs := make([]routeDoc, 0, len(d.routes))
	for _, route := range d.routes {
		doc := routeDoc{
			Method:  route.method,
			Path:    route.path,
			Returns: route.returns.String(),
		}
		for _, s := range route.slots {
			doc.Parameters = append(doc.Parameters, paramDoc{
				Name:        s.Name,
				Kind:        s.Kind.String(),
				Type:        s.Type.String(),
				Default:     s.Default,
				Title:       s.Title,
				Description: s.Description,
				Deprecated:  s.Deprecated,
			})
		}
		docs = append(docs, doc)
	}

	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(docs)
}
