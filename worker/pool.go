/*
Package worker runs parse+plot jobs on a fixed set of goroutines and caches their image trees
*/
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/vasilyturchenko/gerbcompare/gerbparser"
	it "github.com/vasilyturchenko/gerbcompare/imagetree"
	"github.com/vasilyturchenko/gerbcompare/plotter"
)

var ErrPoolClosed = errors.New("worker pool is closed")

// Request asks for one file to be parsed and plotted. ID correlates the response,
// Key identifies the file for staleness checks.
type Request struct {
	ID      uint64
	Key     string
	Content string
}

type Response struct {
	ID    uint64
	Key   string
	OK    bool
	Tree  *it.ImageTree
	Error string
}

// ParseAndPlot turns file text into an image tree, a panic is returned as an error
func ParseAndPlot(content string) (tree *it.ImageTree, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during parse: %v", r)
		}
	}()
	ast, err := gerbparser.Parse(content)
	if err != nil {
		return nil, err
	}
	return plotter.Plot(ast), nil
}

func process(req Request) Response {
	resp := Response{ID: req.ID, Key: req.Key}
	start := time.Now()
	tree, err := ParseAndPlot(req.Content)
	glog.V(2).Infof("request %d (%s) took %v", req.ID, req.Key, time.Since(start))
	if err != nil {
		resp.Error = err.Error()
		glog.Warningf("request %d (%s) failed: %v", req.ID, req.Key, err)
		return resp
	}
	resp.OK = true
	resp.Tree = tree
	return resp
}

// Pool processes requests concurrently. Responses may arrive out of submission order.
type Pool struct {
	reqs    chan Request
	results chan Response
	done    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
	size    int
}

// NewPool starts n workers, n < 1 means one per CPU
func NewPool(n int) *Pool {
	if n < 1 {
		n = runtime.NumCPU()
	}
	p := &Pool{
		reqs:    make(chan Request),
		results: make(chan Response, n),
		done:    make(chan struct{}),
		size:    n,
	}
	p.wg.Add(n)
	for i := 0; i < n; i++ {
		go p.run()
	}
	glog.V(1).Infof("worker pool started with %d workers", n)
	return p
}

func (p *Pool) run() {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			return
		case req := <-p.reqs:
			resp := process(req)
			select {
			case p.results <- resp:
			case <-p.done:
				return
			}
		}
	}
}

func (p *Pool) Size() int {
	return p.size
}

// Submit hands the request to a free worker, it blocks until one takes it
func (p *Pool) Submit(ctx context.Context, req Request) error {
	select {
	case <-p.done:
		return ErrPoolClosed
	default:
	}
	select {
	case <-p.done:
		return ErrPoolClosed
	case <-ctx.Done():
		return ctx.Err()
	case p.reqs <- req:
		return nil
	}
}

// Results delivers the responses, the channel is closed by Close
func (p *Pool) Results() <-chan Response {
	return p.results
}

// Close stops the workers. Responses not yet received are dropped.
func (p *Pool) Close() {
	p.once.Do(func() {
		close(p.done)
		p.wg.Wait()
		close(p.results)
	})
}

/*
 ************************** stale response filter ****************************
 */

// Tracker hands out request ids and remembers the latest one per key, so a
// superseded response can be discarded
type Tracker struct {
	mu     sync.Mutex
	last   uint64
	latest map[string]uint64
}

func NewTracker() *Tracker {
	return &Tracker{latest: make(map[string]uint64)}
}

// Next returns a fresh request id for the key
func (t *Tracker) Next(key string) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last++
	t.latest[key] = t.last
	return t.last
}

// Accept reports whether the response answers the latest request for its key
func (t *Tracker) Accept(resp Response) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	id, ok := t.latest[resp.Key]
	if !ok || id != resp.ID {
		glog.V(2).Infof("stale response %d for %s dropped", resp.ID, resp.Key)
		return false
	}
	return true
}
