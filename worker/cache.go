package worker

import (
	"context"
	"hash/fnv"
	"strconv"
	"strings"
	"sync"

	"github.com/golang/glog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	it "github.com/vasilyturchenko/gerbcompare/imagetree"
	"github.com/vasilyturchenko/gerbcompare/layermatch"
)

// bytes hashed from each end of the content
const sampleLen = 2048

// CacheKey identifies a file by name, length and an FNV-1a hash of its head and tail
func CacheKey(f layermatch.GerberFile) string {
	c := f.Content
	head := c
	if len(head) > sampleLen {
		head = head[:sampleLen]
	}
	tail := ""
	if len(c) > sampleLen {
		tail = c[len(c)-sampleLen:]
	}
	h := fnv.New32a()
	h.Write([]byte(head + "|" + tail + "|" + strconv.Itoa(len(c))))
	return f.FileName + "|" + strconv.Itoa(len(c)) + "|" + strconv.FormatUint(uint64(h.Sum32()), 36)
}

// Cache keeps plotted image trees. Concurrent requests for the same file are parsed once.
type Cache struct {
	mu      sync.RWMutex
	trees   map[string]*it.ImageTree
	flights singleflight.Group
	limit   int
}

// NewCache returns an empty cache, limit bounds the parallel parses of Prewarm
func NewCache(limit int) *Cache {
	if limit < 1 {
		limit = 1
	}
	return &Cache{trees: make(map[string]*it.ImageTree), limit: limit}
}

func (c *Cache) Get(f layermatch.GerberFile) (*it.ImageTree, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.trees[CacheKey(f)]
	return t, ok
}

// GetOrParse returns the cached tree or parses the file. Failures are not cached.
func (c *Cache) GetOrParse(f layermatch.GerberFile) (*it.ImageTree, error) {
	key := CacheKey(f)
	c.mu.RLock()
	t, ok := c.trees[key]
	c.mu.RUnlock()
	if ok {
		return t, nil
	}
	v, err, shared := c.flights.Do(key, func() (interface{}, error) {
		tree, err := ParseAndPlot(f.Content)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.trees[key] = tree
		c.mu.Unlock()
		return tree, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		glog.V(2).Infof("cache: %s parsed once for several callers", f.FileName)
	}
	return v.(*it.ImageTree), nil
}

// Prewarm parses all layers in parallel. A file which fails to parse is logged and
// skipped, only a cancelled context stops the batch.
func (c *Cache) Prewarm(ctx context.Context, layers []layermatch.GerberFile) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.limit)
	for _, f := range layers {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if _, err := c.GetOrParse(f); err != nil {
				glog.Warningf("prewarm %s: %v", f.FileName, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// Clear drops the tree of one file version
func (c *Cache) Clear(f layermatch.GerberFile) {
	c.mu.Lock()
	delete(c.trees, CacheKey(f))
	c.mu.Unlock()
}

// ClearByFileName drops every cached version of the named file
func (c *Cache) ClearByFileName(name string) {
	prefix := name + "|"
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.trees {
		if strings.HasPrefix(k, prefix) {
			delete(c.trees, k)
		}
	}
}

func (c *Cache) ClearAll() {
	c.mu.Lock()
	c.trees = make(map[string]*it.ImageTree)
	c.mu.Unlock()
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.trees)
}
