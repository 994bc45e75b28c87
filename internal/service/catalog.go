package service

import "sync"

// DefaultQuestions seeds every new catalog.
var DefaultQuestions = []string{
	"Explain the difference between a library and a framework in software development.",
	"Describe the process of photosynthesis in simple terms.",
	"What are the primary functions of a country's central bank?",
	"What were the main causes of World War I?",
}

// Catalog holds the prompt questions. Questions are deduplicated by exact
// text, newest first, and never removed.
type Catalog struct {
	mu        sync.Mutex
	questions []string
	seen      map[string]struct{}
}

func NewCatalog(seed []string) *Catalog {
	c := &Catalog{seen: make(map[string]struct{}, len(seed))}
	for _, q := range seed {
		if _, ok := c.seen[q]; ok {
			continue
		}
		c.seen[q] = struct{}{}
		c.questions = append(c.questions, q)
	}
	return c
}

// Add prepends a question unless its exact text is already present.
// It reports whether the question was new.
func (c *Catalog) Add(question string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.seen[question]; ok {
		return false
	}
	c.seen[question] = struct{}{}
	c.questions = append([]string{question}, c.questions...)
	return true
}

// List returns a copy of the catalog, newest first.
func (c *Catalog) List() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.questions))
	copy(out, c.questions)
	return out
}
