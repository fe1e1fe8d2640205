package pid

func (c *Controller[T]) SetRunCount(n uint32) { c.runCount = n }
