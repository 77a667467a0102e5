package loam

// DefinitionMetadata represents the header of a static flow definition.
// It uses "mapstructure" tags to match standard Frontmatter/YAML keys.
type DefinitionMetadata struct {
	ID           string `json:"id" mapstructure:"id"`
	Name         string `json:"name" mapstructure:"name"`
	Description  string `json:"description" mapstructure:"description"`
	ResourceType string `json:"resource_type" mapstructure:"resource_type"`

	// Tool names an allow-listed tool that completes the flow.
	Tool string `json:"tool" mapstructure:"tool"`

	// Fields maps field keys to FieldSpec-shaped objects.
	Fields map[string]any `json:"fields" mapstructure:"fields"`
}

// FieldSpec is one field of a definition as written in the document.
type FieldSpec struct {
	Name         string   `mapstructure:"name"`
	ResourceType string   `mapstructure:"resource_type"`
	Description  string   `mapstructure:"description"`
	Required     bool     `mapstructure:"required"`
	Default      string   `mapstructure:"default"`
	Options      []string `mapstructure:"options"`
	Order        int      `mapstructure:"order"`
}
