// Package feed reads Blogger "feed.atom" exports.
//
// A Reader streams entries from an Atom document carrying the Blogger
// extension namespace and yields only live posts; settings, pages, comments
// and drafts are skipped silently. Entries are decoded one at a time so a
// large export is never held as a tree.
//
//	r := feed.NewReader(bytes.NewReader(data))
//	for {
//		entry, err := r.Next()
//		if err == io.EOF {
//			break
//		}
//		var entryErr *feed.EntryError
//		if errors.As(err, &entryErr) {
//			continue // the reader is still usable
//		}
//		if err != nil {
//			return err // *ParseError or *SourceUnavailableError
//		}
//		...
//	}
//
// Resolver locates and fetches a feed by source identifier: an http(s)
// URL, an s3://bucket/key object, or a directory name under the configured
// feed root holding feed.atom.
package feed
