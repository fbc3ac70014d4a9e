package book

// PriceLevel is the FIFO queue of resting orders at a single price.
// Orders are linked intrusively, oldest at the head.
type PriceLevel struct {
	Price int64

	head *Order
	tail *Order

	TotalQty   int64
	OrderCount int
}

func (p *PriceLevel) enqueue(o *Order) {
	if p.head == nil {
		p.head = o
	} else {
		p.tail.next = o
		o.prev = p.tail
	}
	p.tail = o
	o.level = p

	p.TotalQty += o.Qty
	p.OrderCount++
}

func (p *PriceLevel) popHead() *Order {
	o := p.head
	if o == nil {
		return nil
	}

	p.head = o.next
	if p.head != nil {
		p.head.prev = nil
	} else {
		p.tail = nil
	}

	o.next = nil
	o.prev = nil
	o.level = nil

	p.TotalQty -= o.Qty
	p.OrderCount--
	return o
}

// unlink removes an order from anywhere in the queue. Used by cancel;
// the intrusive links make this O(1) regardless of queue length.
func (p *PriceLevel) unlink(o *Order) {
	if o.prev != nil {
		o.prev.next = o.next
	} else {
		p.head = o.next
	}
	if o.next != nil {
		o.next.prev = o.prev
	} else {
		p.tail = o.prev
	}

	o.next = nil
	o.prev = nil
	o.level = nil

	p.TotalQty -= o.Qty
	p.OrderCount--
}

// reduce accounts for a partial fill of a resting order.
func (p *PriceLevel) reduce(qty int64) {
	p.TotalQty -= qty
}

func (p *PriceLevel) Empty() bool {
	return p.head == nil
}

// Head returns the oldest resting order at this price.
func (p *PriceLevel) Head() *Order {
	return p.head
}
