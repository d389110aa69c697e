package export

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var templateSource []byte

var (
	templatesOnce sync.Once
	templates     *template.Template
	templatesErr  error
)

var templateFuncs = template.FuncMap{
	"hex":  func(v any) string { return fmt.Sprintf("0x%x", v) },
	"hex8": func(v any) string { return fmt.Sprintf("0x%08x", v) },
}

// Field sets of the templates.

type preambleFields struct {
	Source string
	Kind   string
}

type firmwareFields struct {
	Prefix      string
	Core        string
	Version     uint8
	APIRevision uint16
	TimestampLo uint32
	TimestampHi uint32
	Checksum    uint32
	Sizes       []uint32
}

type coefficientsFields struct {
	Core    string
	Version uint32
}

type regionFields struct {
	Index      int
	Symbol     string
	TypeName   string
	Offset     uint32
	AlgID      uint32
	AlgVersion uint32
	SampleRate uint32
	Size       int
	Lines      []string
}

type textFields struct {
	Index    int
	TypeName string
	Text     string
}

type coefficientFields struct {
	Symbol  string
	Name    string
	MemType string
	CtlType uint16
	Flags   uint16
	Offset  uint32
	Length  uint32
}

type algorithmFields struct {
	Index        int
	Symbol       string
	Name         string
	Description  string
	ID           uint32
	Coefficients []coefficientFields
}

type opaqueFields struct {
	Index  int
	Symbol string
	Tag    string
	Offset int
	Size   int
	Lines  []string
}

type waveFields struct {
	Name   string
	Repeat uint32
}

type sectionFields struct {
	Symbol      string
	Duration    uint16
	DurationMs  string
	Level       int8
	Frequency   uint16
	FrequencyHz string
	Chirp       int
	Braking     int
	HalfCycles  uint16
}

type pcmFields struct {
	Symbol     string
	SampleRate uint32
	Size       int
	Lines      []string
}

type scriptFields struct {
	Prefix string
}

type scriptOpFields struct {
	Op    string
	Reg   uint32
	Mask  uint32
	Value uint32
}

type summaryField struct {
	Name  string
	Value int64
}

// templateFields maps every template to the field set it is executed with.
var templateFields = map[string]any{
	"c_preamble":            preambleFields{},
	"c_firmware_header":     firmwareFields{},
	"c_coefficients_header": coefficientsFields{},
	"c_region":              regionFields{},
	"c_text":                textFields{},
	"c_algorithm":           algorithmFields{},
	"c_opaque":              opaqueFields{},
	"c_bank_header":         struct{}{},
	"c_wave":                waveFields{},
	"c_pwle_section":        sectionFields{},
	"c_pcm_block":           pcmFields{},
	"c_script_header":       scriptFields{},
	"c_script_op":           scriptOpFields{},
	"c_script_skip":         opaqueFields{},
	"c_script_footer":       struct{}{},
	"c_summary":             []summaryField{},
}

func loadTemplates() (*template.Template, error) {
	templatesOnce.Do(func() {
		templates, templatesErr = parseTemplates(templateSource)
	})

	return templates, templatesErr
}

func parseTemplates(src []byte) (*template.Template, error) {
	var named map[string]string
	if err := yaml.Unmarshal(src, &named); err != nil {
		return nil, fmt.Errorf("failed to decode templates: %w", err)
	}

	names := make([]string, 0, len(named))
	for name := range named {
		names = append(names, name)
	}

	sort.Strings(names)

	root := template.New("").Funcs(templateFuncs).Option("missingkey=error")

	for _, name := range names {
		if _, err := root.New(name).Parse(named[name]); err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
	}

	return root, nil
}

// TemplateNames returns the names of the embedded templates.
func TemplateNames() ([]string, error) {
	t, err := loadTemplates()
	if err != nil {
		return nil, err
	}

	var names []string

	for _, tmpl := range t.Templates() {
		if tmpl.Name() != "" {
			names = append(names, tmpl.Name())
		}
	}

	sort.Strings(names)

	return names, nil
}

func execute(b *strings.Builder, name string, data any) error {
	t, err := loadTemplates()
	if err != nil {
		return err
	}

	if err := t.ExecuteTemplate(b, name, data); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}

	return nil
}
