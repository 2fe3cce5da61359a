// Package incremental keeps a Perl syntax tree in sync with its source
// text as the text is edited.
//
// A Document owns the text, the tree and a SubtreeCache indexing the
// tree's nodes by byte range. An update goes through one of three paths:
//
//	fast path     an edit inside a single Number, String or Identifier
//	              token rewrites that token and the ancestors above it
//	single edit   cached subtrees before the edit are kept, those after
//	              it are shifted, and the fresh parse reuses them
//	batch         cached subtrees untouched by every edit are kept
//	              unshifted, then the text is reparsed once
//
// Reused subtrees are spliced into the fresh parse wherever a node has the
// same range and kind. Only Program, Block and Binary nodes are searched.
// The match is not checked against the node's content.
//
// Every update is atomic. If the edited text fails to parse the text,
// tree, version and cache are unchanged and the error is returned.
package incremental
