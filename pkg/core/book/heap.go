package book

// bidQueue implements heap.Interface over bids: highest price on top,
// earliest arrival first among equal prices (price-time priority).
// Use container/heap to manipulate it (Init, Push, Pop).
type bidQueue []*Order

func (q bidQueue) Len() int { return len(q) }

func (q bidQueue) Less(i, j int) bool {
	if !q[i].Price.Equal(q[j].Price) {
		return q[i].Price.GreaterThan(q[j].Price)
	}
	return q[i].Seq < q[j].Seq
}

func (q bidQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *bidQueue) Push(x any) {
	*q = append(*q, x.(*Order))
}

func (q *bidQueue) Pop() any {
	old := *q
	n := len(old)
	o := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return o
}

// askQueue implements heap.Interface over asks: lowest price on top,
// earliest arrival first among equal prices.
type askQueue []*Order

func (q askQueue) Len() int { return len(q) }

func (q askQueue) Less(i, j int) bool {
	if !q[i].Price.Equal(q[j].Price) {
		return q[i].Price.LessThan(q[j].Price)
	}
	return q[i].Seq < q[j].Seq
}

func (q askQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *askQueue) Push(x any) {
	*q = append(*q, x.(*Order))
}

func (q *askQueue) Pop() any {
	old := *q
	n := len(old)
	o := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return o
}
