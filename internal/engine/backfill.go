package engine

import "context"

// backfill brings the grid up to page N by loading pages req.from..N in
// order. For direct navigation req.from is 1 and page 1 replaces the list;
// after an interrupted chain or a superseded page advance it is the first
// page not yet merged. Every later page is appended before the next one is
// requested. Each page is committed as it arrives, so a failure part-way
// leaves the prefix visible.
//
// The chain stops early when a page reports no next page, since every
// remaining page would be empty, and it stops silently if a commit is
// rejected because the state moved on.
func (c *Controller) backfill(ctx context.Context, req request) error {
	defer c.endBackfill()

	target := req.query.Page
	for page := req.from; page <= target; page++ {
		res, err := c.fetch(ctx, req, req.query.WithPage(page))
		if err != nil {
			return c.failed(ctx, req, page, ErrCodeBackfill, err)
		}

		final := page == target || !res.Info.HasNextPage
		if !c.commit(req, res, page, final) {
			return nil
		}
		c.metrics.BackfillPage()
		if final {
			c.logger.Debug("backfill complete", "request_id", req.id, "from", req.from, "to", page, "target", target)
			return nil
		}
	}
	return nil
}

func (c *Controller) endBackfill() {
	c.mu.Lock()
	c.backfilling = nil
	c.mu.Unlock()
	c.events.publish()
}
