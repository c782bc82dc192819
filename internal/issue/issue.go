// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

const (
	NoModulesFoundId Id = iota + 1
	InvalidConfigurationId
	PluginsUnsupportedId
	ConfigLoadFailedId
	BuildScriptFailedId
	BenchmarksFailedId
	ReportNotFoundId
)

type (
	// Id identifies a catalog entry.
	Id int

	// MarkdownMsg is the Markdown body of a catalog entry.
	MarkdownMsg string

	// HttpLink is a documentation or external link.
	HttpLink string

	// Issue is a catalog entry with remediation guidance.
	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		docLinks []HttpLink
		extLinks []HttpLink
	}
)

// Id returns the issue identifier.
func (i *Issue) Id() Id {
	return i.id
}

// MarkdownMsg returns the raw Markdown body.
func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

// DocLinks returns a copy of the documentation links.
func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

// ExtLinks returns a copy of the external links.
func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the entry, plus a "See also" list of its links, with the
// glamour style at stylePath ("auto", "dark", "light", "notty" or a file).
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range i.docLinks {
			md.WriteString("\n- <" + string(link) + ">")
		}
		for _, link := range i.extLinks {
			md.WriteString("\n- <" + string(link) + ">")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	noModulesFoundIssue = &Issue{
		id: NoModulesFoundId,
		mdMsg: `
# No benchmark modules found

Discovery scanned the tuning directory but found no plugin that matches the
naming, build-mode and target conventions.

## What benchtune looks for
- files named ` + "`*.<module_suffix>.so`" + ` (default ` + "`*.Benchmarks.so`" + `)
- located under ` + "`bin/<Release|Debug>/<target>`" + ` inside the tuning directory
- built by the same Go toolchain as benchtune (target such as ` + "`go1.25`" + `)

## Things you can try
- Build the plugins first:
~~~
$ benchtune build
~~~
- Build them by hand:
~~~
$ go build -buildmode=plugin -o tuning/parser/bin/Release/go1.25/Parser.Benchmarks.so ./bench/parser
~~~
- Pass ` + "`--debug-build`" + ` if your plugins were built with ` + "`-gcflags=all=-N -l`" + `.`,
		extLinks: []HttpLink{"https://pkg.go.dev/plugin"},
	}

	invalidConfigurationIssue = &Issue{
		id: InvalidConfigurationId,
		mdMsg: `
# Invalid workspace configuration

One or more workspace settings are empty or malformed. Every field is
checked before anything is written to disk.

## Things you can try
- Inspect the effective configuration:
~~~
$ benchtune config show
~~~
- Folder names must be relative; the module suffix must not contain path separators.`,
	}

	pluginsUnsupportedIssue = &Issue{
		id: PluginsUnsupportedId,
		mdMsg: `
# Go plugins are not supported by this build

benchtune loads benchmark modules with the standard ` + "`plugin`" + ` package, which
requires cgo and Linux, macOS or FreeBSD.

## Things you can try
- Rebuild benchtune with ` + "`CGO_ENABLED=1`" + ` on a supported platform.`,
		extLinks: []HttpLink{"https://pkg.go.dev/plugin#hdr-Warnings"},
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration

The configuration file could not be read or does not match the schema.

## Things you can try
- Check the CUE syntax of your ` + "`config.cue`" + ` or ` + "`benchtune.cue`" + `
- Regenerate the default file:
~~~
$ benchtune config init --force
~~~`,
		extLinks: []HttpLink{"https://cuelang.org/docs/"},
	}

	buildScriptFailedIssue = &Issue{
		id: BuildScriptFailedId,
		mdMsg: `
# Build script failed

The configured ` + "`workspace.build_script`" + ` exited with an error.

## Things you can try
- Run it again with ` + "`--verbose`" + ` to see the environment passed to the script
- The script receives ` + "`BENCHTUNE_BUILD_MODE`" + `, ` + "`BENCHTUNE_TARGET`" + `,
  ` + "`BENCHTUNE_TUNING_DIR`" + `, ` + "`BENCHTUNE_MODULE_SUFFIX`" + ` and ` + "`BENCHTUNE_OUTPUT_SEGMENT`" + `.`,
	}

	benchmarksFailedIssue = &Issue{
		id: BenchmarksFailedId,
		mdMsg: `
# Some benchmarks failed

Reports were still written and archived; failed rows show ` + "`NA`" + `.

## Things you can try
- Narrow the run to the failing benchmark with a filter:
~~~
$ benchtune run 'Parser.Benchmarks.*.Parse*'
~~~`,
	}

	reportNotFoundIssue = &Issue{
		id: ReportNotFoundId,
		mdMsg: `
# Report not found

No archived report matches the requested name.

## Things you can try
- List archived reports:
~~~
$ benchtune reports list
~~~`,
	}

	issues = map[Id]*Issue{
		noModulesFoundIssue.Id():       noModulesFoundIssue,
		invalidConfigurationIssue.Id(): invalidConfigurationIssue,
		pluginsUnsupportedIssue.Id():   pluginsUnsupportedIssue,
		configLoadFailedIssue.Id():     configLoadFailedIssue,
		buildScriptFailedIssue.Id():    buildScriptFailedIssue,
		benchmarksFailedIssue.Id():     benchmarksFailedIssue,
		reportNotFoundIssue.Id():       reportNotFoundIssue,
	}
)

// Values returns every catalog entry ordered by Id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, i := range issues {
		out = append(out, i)
	}
	slices.SortFunc(out, func(a, b *Issue) int { return cmp.Compare(a.id, b.id) })
	return out
}

// Get returns the entry for id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}
