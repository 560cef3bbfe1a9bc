// Package scribble is the composition root of the scribble engine.
//
// A scribble is a unit of content whose body is interpreted according to its
// content-type attribute. The engine parses a small Markdown dialect into a
// normalized syntax tree, renders it as HTML, and lets scribbles act as
// renderers for other scribbles: a scribble names its renderer through the
// element attribute, or a renderer registers itself for a content type under
// the title "$:core/renderer/<content-type>". Compiled renderers are cached
// per body hash, compiled at most once concurrently, and guarded against
// cycles and runaway nesting.
//
// Packages:
//
//   - core: the Scribble entity, attributes and the storage contract.
//   - grammar, parser, ast: the Markdown dialect.
//   - render: HTML output and syntax highlighting.
//   - store: the in-memory entity set, title index and drafts.
//   - resolver: renderer dispatch, compile cache and embedding.
//   - adapters/fs: files with YAML frontmatter, with a change watcher.
//
// Usage:
//
//	eng, err := scribble.New(ctx, "./vault", scribble.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	err = eng.Render(ctx, os.Stdout, "My Page")
package scribble
