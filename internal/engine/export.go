// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const (
	// ExporterGitHub writes GitHub-flavored markdown tables.
	ExporterGitHub = "github"
	// ExporterJSON writes indented JSON.
	ExporterJSON = "json"
	// ExporterTOML writes TOML.
	ExporterTOML = "toml"
	// ExporterYAML writes YAML.
	ExporterYAML = "yaml"
)

// ErrUnknownExporter is returned by ExporterByName.
var ErrUnknownExporter = errors.New("unknown exporter")

type (
	// Exporter writes a Report in one format.
	Exporter interface {
		Name() string
		// Suffix is appended to "<module>.<suite>-report".
		Suffix() string
		Export(w io.Writer, r *Report) error
	}

	markdownExporter struct{}
	jsonExporter     struct{}
	tomlExporter     struct{}
	yamlExporter     struct{}
)

// ExporterNames lists the supported exporter names.
func ExporterNames() []string {
	return []string{ExporterGitHub, ExporterJSON, ExporterTOML, ExporterYAML}
}

// ExporterByName returns the exporter registered under name.
func ExporterByName(name string) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case ExporterGitHub, "markdown", "md":
		return markdownExporter{}, nil
	case ExporterJSON:
		return jsonExporter{}, nil
	case ExporterTOML:
		return tomlExporter{}, nil
	case ExporterYAML, "yml":
		return yamlExporter{}, nil
	default:
		return nil, fmt.Errorf("%w %q (supported: %s)", ErrUnknownExporter, name, strings.Join(ExporterNames(), ", "))
	}
}

func (markdownExporter) Name() string   { return ExporterGitHub }
func (markdownExporter) Suffix() string { return "-github.md" }

func (markdownExporter) Export(w io.Writer, r *Report) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", r.FullName())
	fmt.Fprintf(&b, "Build: %s, target %s, %s %s, count=%d, benchtime=%s\n\n",
		r.BuildMode, r.Target, r.GoVersion, r.Platform, r.Count, r.BenchTime)
	b.WriteString("| Method | N | ns/op | Min | Median | Max | B/op | allocs/op |\n")
	b.WriteString("|------- |--:|------:|----:|-------:|----:|-----:|----------:|\n")

	var failed []Result
	for _, res := range r.Results {
		if res.Error != "" {
			failed = append(failed, res)
			fmt.Fprintf(&b, "| %s | NA | NA | NA | NA | NA | NA | NA |\n", res.Method)
			continue
		}
		fmt.Fprintf(&b, "| %s | %d | %s | %s | %s | %s | %d | %d |\n",
			res.Method, res.N,
			formatNs(res.NsPerOp), formatNs(res.MinNsPerOp), formatNs(res.MedianNs), formatNs(res.MaxNsPerOp),
			res.BytesPerOp, res.AllocsPerOp)
	}

	if len(failed) > 0 {
		b.WriteString("\nFailures:\n\n")
		for _, res := range failed {
			fmt.Fprintf(&b, "- %s: %s\n", res.Method, res.Error)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func (jsonExporter) Name() string   { return ExporterJSON }
func (jsonExporter) Suffix() string { return ".json" }

func (jsonExporter) Export(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

func (tomlExporter) Name() string   { return ExporterTOML }
func (tomlExporter) Suffix() string { return ".toml" }

func (tomlExporter) Export(w io.Writer, r *Report) error {
	return toml.NewEncoder(w).Encode(r)
}

func (yamlExporter) Name() string   { return ExporterYAML }
func (yamlExporter) Suffix() string { return ".yaml" }

func (yamlExporter) Export(w io.Writer, r *Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return err
	}
	return enc.Close()
}

func formatNs(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
