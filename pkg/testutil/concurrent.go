package testutil

import (
	"errors"
	"sync"

	dErrors "estatehub/pkg/domain-errors"
	"estatehub/pkg/platform/sentinel"
)

// ConcurrentResult tallies the outcomes of RunConcurrent. Domain errors are
// counted by code; store sentinels and anything else land in Other.
type ConcurrentResult struct {
	Successes int32
	ByCode    map[dErrors.Code]int32
	Conflicts int32
	Other     []error
}

// Count returns how many calls failed with code.
func (r *ConcurrentResult) Count(code dErrors.Code) int32 {
	return r.ByCode[code]
}

// RunConcurrent starts n goroutines running fn behind a shared start gate so
// they contend as closely as possible, then tallies their errors.
func RunConcurrent(n int, fn func(idx int) error) *ConcurrentResult {
	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		errs  = make([]error, n)
	)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			errs[i] = fn(i)
		}()
	}
	close(start)
	wg.Wait()

	res := &ConcurrentResult{ByCode: map[dErrors.Code]int32{}}
	for _, err := range errs {
		var de *dErrors.Error
		switch {
		case err == nil:
			res.Successes++
		case errors.As(err, &de):
			res.ByCode[de.Code]++
		case errors.Is(err, sentinel.ErrDuplicate):
			res.Conflicts++
		default:
			res.Other = append(res.Other, err)
		}
	}
	return res
}
