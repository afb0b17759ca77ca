package document

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/viewhost/pkg/domain"
)

// resolvePackages feeds the content its imports until it stops waiting.
//
// Packages may import further packages, so each round asks the content what it
// still needs. A request is attempted once; a round with nothing new to attempt
// means the content is stuck.
func (c *Context) resolvePackages(ctx context.Context) error {
	attempted := make(map[string]bool)
	for c.content.IsWaiting() {
		if err := ctx.Err(); err != nil {
			return err
		}

		var batch []domain.ImportRequest
		for _, req := range c.content.RequestedPackages() {
			if attempted[req.Key()] {
				continue
			}
			attempted[req.Key()] = true
			batch = append(batch, req)
		}
		if len(batch) == 0 {
			return domain.ErrPackagesUnresolved
		}

		c.mu.Lock()
		loader := c.packages
		destroyed := c.destroyed
		c.mu.Unlock()
		if destroyed {
			return domain.ErrContextDestroyed
		}
		if loader == nil {
			return fmt.Errorf("%w: no package loader", domain.ErrPackagesUnresolved)
		}

		c.logger.Debug("loading packages", "count", len(batch))
		for _, res := range loader.Load(ctx, batch) {
			if res.Err != nil {
				c.logger.Warn("package failed to load", "package", res.Request.Key(), "err", res.Err)
				c.content.PackageFailed(res.Request, res.Err.Error())
				continue
			}
			if err := c.content.AddPackage(res.Request, res.Data); err != nil {
				c.logger.Warn("package rejected by content", "package", res.Request.Key(), "err", err)
				c.content.PackageFailed(res.Request, err.Error())
			}
		}
	}
	if c.content.IsError() {
		return errors.New("document content is in error")
	}
	return nil
}
