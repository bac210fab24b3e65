// Package comments arranges a post's flat comment list into reply threads.
package comments

import (
	"sort"

	"github.com/newtechs/backend/internal/entities"
)

// DefaultMaxDepth limits how many reply levels are rendered below a
// top-level comment.
const DefaultMaxDepth = 8

// Thread is a comment with its replies.
type Thread struct {
	Comment entities.Comment
	Replies []*Thread
}

// BuildThreads indexes comments by parent once and returns the top-level
// threads, newest first, with replies oldest first. Replies nested deeper
// than maxDepth are dropped, as are replies whose parent is not in the
// list. Each comment appears at most once, even if parent links form a
// cycle.
func BuildThreads(list []entities.Comment, maxDepth int) []*Thread {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	children := make(map[string][]entities.Comment, len(list))
	var roots []entities.Comment
	for _, c := range list {
		if c.ParentID == nil || *c.ParentID == "" {
			roots = append(roots, c)
			continue
		}
		children[*c.ParentID] = append(children[*c.ParentID], c)
	}
	for parent := range children {
		sortOldestFirst(children[parent])
	}
	sort.SliceStable(roots, func(i, j int) bool {
		if roots[i].CreatedAt.Equal(roots[j].CreatedAt) {
			return roots[i].ID > roots[j].ID
		}
		return roots[i].CreatedAt.After(roots[j].CreatedAt)
	})

	visited := make(map[string]bool, len(list))
	threads := make([]*Thread, 0, len(roots))
	for _, root := range roots {
		threads = append(threads, walk(root, children, visited, 0, maxDepth))
	}
	return threads
}

func walk(c entities.Comment, children map[string][]entities.Comment, visited map[string]bool, depth, maxDepth int) *Thread {
	visited[c.ID] = true
	thread := &Thread{Comment: c, Replies: []*Thread{}}
	if depth >= maxDepth {
		return thread
	}
	for _, reply := range children[c.ID] {
		if visited[reply.ID] {
			continue
		}
		thread.Replies = append(thread.Replies, walk(reply, children, visited, depth+1, maxDepth))
	}
	return thread
}

func sortOldestFirst(list []entities.Comment) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
}
