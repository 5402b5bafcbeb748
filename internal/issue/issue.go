// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"

	"github.com/pyflat/pyflat/internal/flaterr"
)

type Id int

const (
	PathResolutionId Id = iota + 1
	ConfigurationId
	IngestionId
	ImportCollisionId
	DuplicateNameId
	InvalidConfigurationId
	ConfigLoadFailedId
	OutputWriteFailedId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id           // ID used to lookup the issue
	kind     flaterr.Kind // failure kind the issue explains, KindUnknown for CLI-only issues
	mdMsg    MarkdownMsg  // Markdown text that will be rendered
	docLinks []HttpLink
	extLinks []HttpLink // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) Kind() flaterr.Kind {
	return i.kind
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	var sb strings.Builder
	sb.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		sb.WriteString("\n\n## See also\n")
		for _, link := range i.docLinks {
			sb.WriteString("- [" + string(link) + "](" + string(link) + ")\n")
		}
		for _, link := range i.extLinks {
			sb.WriteString("- [" + string(link) + "](" + string(link) + ")\n")
		}
	}
	return render(sb.String(), stylePath)
}

var (
	render = glamour.Render

	pathResolutionIssue = &Issue{
		id:   PathResolutionId,
		kind: flaterr.KindPathResolution,
		mdMsg: `
# Input could not be resolved!

pyflat could not find the package, file or dotted package name you asked for.

## Lookup order for dotted names:
1. Every entry of ` + "`PYTHONPATH`" + `
2. The current directory

## Things you can try:
- Pass the package directory itself:
~~~
$ pyflat src/mypkg
~~~

- Or extend the search path:
~~~
$ PYTHONPATH=src pyflat mypkg
~~~`,
		extLinks: []HttpLink{"https://docs.python.org/3/using/cmdline.html#envvar-PYTHONPATH"},
	}

	configurationIssue = &Issue{
		id:   ConfigurationId,
		kind: flaterr.KindConfiguration,
		mdMsg: `
# Conflicting options!

Two options were given that cannot be combined.

## Common causes:
- ` + "`--include`" + ` without ` + "`--exclude`" + `
- ` + "`--module-only`" + ` together with ` + "`--main-from`" + `
- ` + "`--main-from`" + ` together with ` + "`--entry`" + `

## Things you can try:
- Drop one of the conflicting flags
- Check ` + "`pyflat config show`" + ` for values coming from your config file`,
	}

	ingestionIssue = &Issue{
		id:   IngestionId,
		kind: flaterr.KindIngestion,
		mdMsg: `
# A module could not be read!

A source file of the package could not be read or split into top-level
statements. The file named in the error is the first failing one.

## Common causes:
- Unbalanced brackets or an unterminated string
- A file that is not valid UTF-8
- Missing read permission

## Things you can try:
- Run the file through the interpreter to locate the syntax error:
~~~
$ python3 -m py_compile path/to/module.py
~~~

- Exclude the module if it is not needed:
~~~
$ pyflat mypkg --exclude broken_module
~~~`,
	}

	importCollisionIssue = &Issue{
		id:   ImportCollisionId,
		kind: flaterr.KindImportCollision,
		mdMsg: `
# Two imports bind the same name!

After merging every module, two different imports bind the same local name,
for example ` + "`from os import path`" + ` and ` + "`from mypkg.util import path`" + `.

## Things you can try:
- Give one of the imports an alias:
~~~python
from mypkg.util import path as util_path
~~~

- Import the module instead of the symbol`,
	}

	duplicateNameIssue = &Issue{
		id:   DuplicateNameId,
		kind: flaterr.KindDuplicateName,
		mdMsg: `
# Duplicate top-level name!

Two modules define the same top-level class or function, or a definition
shadows an imported name. In a single file the later one would silently win.

## Things you can try:
- Rename one of the definitions
- Skip the check when the shadowing is intended:
~~~
$ pyflat mypkg --ignore-clashes
~~~`,
	}

	invalidConfigurationIssue = &Issue{
		id:   InvalidConfigurationId,
		kind: flaterr.KindInvalidConfiguration,
		mdMsg: `
# Invalid option value!

An option is outside its allowed range.

## Common causes:
- ` + "`--line-width`" + ` or ` + "`line_width`" + ` is zero or negative
- ` + "`--shebang`" + ` does not start with ` + "`#!`" + ` or spans several lines

## Things you can try:
~~~
$ pyflat mypkg --line-width 100 --shebang '#!/usr/bin/env python3'
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

The configuration file could not be parsed or does not match the schema.

## Things you can try:
- Print the path pyflat reads:
~~~
$ pyflat config path
~~~

- Start over from the defaults:
~~~
$ pyflat config init --force
~~~

## Example config.cue:
~~~cue
line_width: 100
guards: from: ["cli"]
exclude: ["tests"]
ui: color_scheme: "dark"
~~~`,
		extLinks: []HttpLink{"https://cuelang.org/docs/"},
	}

	outputWriteFailedIssue = &Issue{
		id: OutputWriteFailedId,
		mdMsg: `
# Failed to write output!

The flattened source could not be written.

## Things you can try:
- Check that the output directory exists and is writable
- Write to stdout and redirect instead:
~~~
$ pyflat mypkg > mypkg_flat.py
~~~`,
	}

	catalog = []*Issue{
		pathResolutionIssue,
		configurationIssue,
		ingestionIssue,
		importCollisionIssue,
		duplicateNameIssue,
		invalidConfigurationIssue,
		configLoadFailedIssue,
		outputWriteFailedIssue,
	}
)

// Values returns every issue ordered by Id.
func Values() []*Issue {
	return slices.Clone(catalog)
}

func Get(id Id) *Issue {
	i := slices.IndexFunc(catalog, func(is *Issue) bool { return is.id == id })
	if i < 0 {
		return nil
	}
	return catalog[i]
}

// ForKind returns the issue explaining a flattening failure kind.
func ForKind(kind flaterr.Kind) *Issue {
	if kind == flaterr.KindUnknown {
		return nil
	}
	i := slices.IndexFunc(catalog, func(is *Issue) bool { return is.kind == kind })
	if i < 0 {
		return nil
	}
	return catalog[i]
}
