// Package blob abstracts the external object storage the chat
// backend keeps uploaded files in. The store is not transactional
// with the database, callers coordinate the two through the
// compensating actions implemented by the lifecycle engine.
package blob

import "context"

// Store is the blob store contract. Each call is individually
// synchronous, the backing service may be eventually consistent.
type Store interface {
	// Put uploads data and returns the URL the blob can be
	// addressed by. Keys are always freshly generated from
	// keyHint, collisions do not occur.
	Put(ctx context.Context, data []byte, mimeType, keyHint string) (string, error)
	// Delete removes the blob behind url. Deleting an absent
	// blob is not an error.
	Delete(ctx context.Context, url string) error
	// ParseKey extracts the storage key from a blob URL.
	ParseKey(url string) (string, error)
}

// extensionFor maps the few mime types uploads carry to a key
// suffix, unknown types get none
func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "application/pdf":
		return ".pdf"
	}
	return ""
}
