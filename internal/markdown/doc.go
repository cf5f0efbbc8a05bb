// Package markdown implements the parsing layer underneath the collection
// service: front-matter extraction, filesystem discovery, and goldmark HTML
// rendering.
package markdown
