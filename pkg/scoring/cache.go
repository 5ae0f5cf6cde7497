package scoring

import (
	"sync"

	"strategos-hq/riskengine/pkg/expr"
)

// programCache memoizes compiled expressions by source text. Compilation is
// pure, so a cached program is indistinguishable from a fresh one.
type programCache struct {
	mu       sync.RWMutex
	programs map[string]compiled
	limit    int
}

type compiled struct {
	prog *expr.Program
	err  error
}

func newProgramCache(limit int) *programCache {
	return &programCache{programs: make(map[string]compiled), limit: limit}
}

func (c *programCache) compile(source string) (*expr.Program, error) {
	if c.limit == 0 {
		return expr.Compile(source)
	}

	c.mu.RLock()
	entry, ok := c.programs[source]
	c.mu.RUnlock()
	if ok {
		return entry.prog, entry.err
	}

	prog, err := expr.Compile(source)

	c.mu.Lock()
	if len(c.programs) < c.limit {
		c.programs[source] = compiled{prog: prog, err: err}
	}
	c.mu.Unlock()

	return prog, err
}

func (c *programCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.programs)
}
