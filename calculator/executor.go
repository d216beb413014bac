package calculator

import (
	"sync"
)

// 敏感性分析的并发执行器
// master 按缩放系数分配任务，worker 计算后把结果按下标写回

type task struct {
	index int
	scale int
}

type taskResult struct {
	index int
	point SweepPoint
}

type executor struct {
	workers      int
	dispatchChan chan task
	doneChan     chan taskResult
}

func newExecutor(workers int) *executor {
	if workers < 1 {
		workers = 1
	}
	return &executor{
		workers:      workers,
		dispatchChan: make(chan task, workers),
		doneChan:     make(chan taskResult, workers),
	}
}

// run 返回的结果顺序与 scales 一致；observe 在收到每个结果时调用，调用是串行的
func (e *executor) run(scales []int, f func(scale int) SweepPoint, observe func(SweepPoint)) []SweepPoint {
	out := make([]SweepPoint, len(scales))

	var wg sync.WaitGroup
	for i := 0; i < e.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range e.dispatchChan {
				e.doneChan <- taskResult{index: t.index, point: f(t.scale)}
			}
		}()
	}

	go func() {
		for i, s := range scales {
			e.dispatchChan <- task{index: i, scale: s}
		}
		close(e.dispatchChan)
		wg.Wait()
		close(e.doneChan)
	}()

	for r := range e.doneChan {
		out[r.index] = r.point
		if observe != nil {
			observe(r.point)
		}
	}
	return out
}
