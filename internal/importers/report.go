package importers

import "fmt"

// Report summarizes one import run. Errors keep the order in which they
// were recorded.
type Report struct {
	BlogsProcessed    int      `json:"blogs_processed"`
	PostsImported     int      `json:"posts_imported"`
	PostsSkipped      int      `json:"posts_skipped"`
	CategoriesCreated int      `json:"categories_created"`
	AuthorsCreated    int      `json:"authors_created"`
	Errors            []string `json:"errors"`
}

func newReport() *Report {
	return &Report{Errors: []string{}}
}

func (r *Report) addError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// tally collects the counts of one source or entry. It is merged into the
// report only once the matching savepoint has been released.
type tally struct {
	imported   int
	skipped    int
	categories int
	authors    int
	errors     []string
}

func (t *tally) add(other tally) {
	t.imported += other.imported
	t.skipped += other.skipped
	t.categories += other.categories
	t.authors += other.authors
	t.errors = append(t.errors, other.errors...)
}

func (r *Report) merge(t tally) {
	r.PostsImported += t.imported
	r.PostsSkipped += t.skipped
	r.CategoriesCreated += t.categories
	r.AuthorsCreated += t.authors
	r.Errors = append(r.Errors, t.errors...)
}
