package sectionrender

import "container/heap"

// MaxHighPriorityQuota is how many high priority tasks may run in a row
// while low priority work is waiting.
const MaxHighPriorityQuota = 2

// highQueue orders tasks by distance at creation, nearest first. Equal
// distances keep submission order.
type highQueue []compileTask

func (q highQueue) Len() int { return len(q) }

func (q highQueue) Less(i, j int) bool {
	a, b := q[i].base(), q[j].base()
	if a.dist != b.dist {
		return a.dist < b.dist
	}
	return a.seq < b.seq
}

func (q highQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *highQueue) Push(x any) { *q = append(*q, x.(compileTask)) }

func (q *highQueue) Pop() any {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return t
}

// taskQueue holds pending tasks. It is owned by the dispatcher mailbox and
// is not safe for concurrent use.
type taskQueue struct {
	high  highQueue
	low   []compileTask
	quota int
	seq   uint64
}

func newTaskQueue() *taskQueue {
	return &taskQueue{quota: MaxHighPriorityQuota}
}

func (q *taskQueue) push(t compileTask) {
	q.seq++
	t.base().seq = q.seq
	if t.base().highPriority {
		heap.Push(&q.high, t)
	} else {
		q.low = append(q.low, t)
	}
}

func (q *taskQueue) pollLow() compileTask {
	if len(q.low) == 0 {
		return nil
	}
	t := q.low[0]
	q.low[0] = nil
	q.low = q.low[1:]
	return t
}

// poll returns the next task to run, or nil. Once the high priority quota
// is spent a waiting low priority task goes first and the quota refills.
func (q *taskQueue) poll() compileTask {
	if q.quota <= 0 {
		if t := q.pollLow(); t != nil {
			q.quota = MaxHighPriorityQuota
			return t
		}
	}
	if q.high.Len() > 0 {
		q.quota--
		return heap.Pop(&q.high).(compileTask)
	}
	q.quota = MaxHighPriorityQuota
	return q.pollLow()
}

func (q *taskQueue) len() int {
	return q.high.Len() + len(q.low)
}

// drain empties both queues and returns what they held, high priority first.
func (q *taskQueue) drain() []compileTask {
	out := make([]compileTask, 0, q.len())
	for q.high.Len() > 0 {
		out = append(out, heap.Pop(&q.high).(compileTask))
	}
	out = append(out, q.low...)
	q.low = nil
	return out
}
