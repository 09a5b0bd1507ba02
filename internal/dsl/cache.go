package dsl

import (
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
)

// DefaultCacheSize is the number of distinct query strings a Parser keeps.
const DefaultCacheSize = 256

// parseCache maps query text to its parsed calls. Entries are keyed by the
// xxhash of the text and keep the text itself to rule out collisions. When
// the cache is full the whole map is replaced. Cached trees are shared
// between goroutines and must not be modified.
type parseCache struct {
	mu    sync.RWMutex
	items map[uint64]cacheEntry
	max   int
}

type cacheEntry struct {
	input string
	calls []*CallNode
}

func newParseCache(max int) *parseCache {
	return &parseCache{items: make(map[uint64]cacheEntry, max), max: max}
}

func (c *parseCache) get(key uint64, input string) ([]*CallNode, bool) {
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()
	if !ok || e.input != input {
		return nil, false
	}
	return e.calls, true
}

func (c *parseCache) put(key uint64, input string, calls []*CallNode) {
	c.mu.Lock()
	if len(c.items) >= c.max {
		c.items = make(map[uint64]cacheEntry, c.max)
	}
	c.items[key] = cacheEntry{input: input, calls: calls}
	c.mu.Unlock()
}

// Parser parses query text and caches the resulting call trees. It is safe
// for concurrent use.
type Parser struct {
	maxDepth int
	cache    *parseCache
	hits     atomic.Uint64
	misses   atomic.Uint64
}

// NewParser creates a parser. Non-positive arguments select the defaults;
// a negative cacheSize disables caching.
func NewParser(maxDepth, cacheSize int) *Parser {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	p := &Parser{maxDepth: maxDepth}
	switch {
	case cacheSize == 0:
		p.cache = newParseCache(DefaultCacheSize)
	case cacheSize > 0:
		p.cache = newParseCache(cacheSize)
	}
	return p
}

// Parse parses input into its top level calls. Empty input yields no calls.
func (p *Parser) Parse(input string) ([]*CallNode, error) {
	calls, _, err := p.ParseCached(input)
	return calls, err
}

// ParseCached is Parse that also reports whether the result came from the cache.
func (p *Parser) ParseCached(input string) ([]*CallNode, bool, error) {
	var key uint64
	if p.cache != nil {
		key = xxhash.Sum64String(input)
		if calls, ok := p.cache.get(key, input); ok {
			p.hits.Add(1)
			return calls, true, nil
		}
	}
	p.misses.Add(1)

	tokens, err := NewTokenizer(input).TokenizeAll()
	if err != nil {
		return nil, false, err
	}
	calls, err := (&parser{tokens: tokens, maxDepth: p.maxDepth}).parseQuery()
	if err != nil {
		return nil, false, err
	}
	if p.cache != nil {
		p.cache.put(key, input, calls)
	}
	return calls, false, nil
}

// Stats returns the number of cache hits and misses so far.
func (p *Parser) Stats() (hits, misses uint64) {
	return p.hits.Load(), p.misses.Load()
}

var defaultParser = NewParser(DefaultMaxDepth, DefaultCacheSize)

// Default returns the shared parser used by Parse.
func Default() *Parser {
	return defaultParser
}

// Parse parses input with the shared default parser.
func Parse(input string) ([]*CallNode, error) {
	return defaultParser.Parse(input)
}
