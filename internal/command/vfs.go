package command

import (
	"context"
	"path"
	"sort"
	"strings"

	"pkt.systems/termfolio/internal/markup"
	"pkt.systems/termfolio/schema"
)

// node is an entry of the read-only virtual filesystem. Files carry the translation
// key of their contents.
type node struct {
	dir      bool
	key      string
	children map[string]*node
}

var vfsRoot = &node{dir: true, children: map[string]*node{
	"README.md":   {key: "vfs.readme"},
	"about.txt":   {key: "vfs.about"},
	"contact.txt": {key: "vfs.contact"},
	"todo.txt":    {key: "vfs.todo"},
	"secrets": {dir: true, children: map[string]*node{
		"passwords.txt": {key: "vfs.passwords"},
	}},
}}

// resolvePath walks the tree. "~", "/" and "." all name the root.
func resolvePath(p string) (*node, bool) {
	p = strings.TrimPrefix(p, "~")
	cleaned := path.Clean("/" + p)
	if cleaned == "/" {
		return vfsRoot, true
	}
	current := vfsRoot
	for _, part := range strings.Split(strings.TrimPrefix(cleaned, "/"), "/") {
		if !current.dir {
			return nil, false
		}
		next, ok := current.children[part]
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

func listHandler(_ context.Context, req Request) (schema.CommandResult, error) {
	target := "~"
	if len(req.Args) > 0 {
		target = req.Args[0]
	}
	n, ok := resolvePath(target)
	if !ok {
		return lines(schema.ErrorMarker + req.T.T("ls.not_found", markup.Escape(target))), nil
	}
	if !n.dir {
		return lines(schema.ErrorMarker + req.T.T("ls.not_dir", markup.Escape(target))), nil
	}
	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		if n.children[name].dir {
			out = append(out, "**"+name+"/**")
			continue
		}
		out = append(out, markup.Escape(name))
	}
	return lines(out...), nil
}

func catHandler(_ context.Context, req Request) (schema.CommandResult, error) {
	if len(req.Args) == 0 {
		return lines(schema.ErrorMarker + req.T.T("errors.usage", req.T.T("cat.usage"))), nil
	}
	target := req.Args[0]
	n, ok := resolvePath(target)
	if !ok {
		return lines(schema.ErrorMarker + req.T.T("cat.not_found", markup.Escape(target))), nil
	}
	if n.dir {
		return lines(schema.ErrorMarker + req.T.T("cat.is_dir", markup.Escape(target))), nil
	}
	return lines(req.T.Lines(n.key)...), nil
}
