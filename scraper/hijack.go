package scraper

import (
	"log/slog"
	"sync/atomic"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// resourceTypes maps the names accepted in PARTICIPA_BLOCKED_RESOURCES to
// protocol resource types. Documents, scripts and XHR are never blockable:
// the table is rendered by script from XHR data.
var resourceTypes = map[string]proto.NetworkResourceType{
	"Image":      proto.NetworkResourceTypeImage,
	"Stylesheet": proto.NetworkResourceTypeStylesheet,
	"Font":       proto.NetworkResourceTypeFont,
	"Media":      proto.NetworkResourceTypeMedia,
}

// blockList is the set of resource types a run refuses to download.
type blockList map[proto.NetworkResourceType]struct{}

// newBlockList resolves names, logging and skipping unknown ones.
func newBlockList(names []string) blockList {
	b := make(blockList, len(names))
	for _, name := range names {
		rt, ok := resourceTypes[name]
		if !ok {
			slog.Warn("ignoring unknown blocked resource type", "name", name)
			continue
		}
		b[rt] = struct{}{}
	}
	return b
}

func (b blockList) blocks(rt proto.NetworkResourceType) bool {
	_, ok := b[rt]
	return ok
}

// install intercepts page requests, failing the blocked ones. The returned
// stop function ends interception and logs how many requests were refused;
// it is a no-op when nothing is blocked.
func (b blockList) install(page *rod.Page) (stop func()) {
	if len(b) == 0 {
		return func() {}
	}

	var refused atomic.Int64
	router := page.HijackRequests()
	err := router.Add("*", "", func(h *rod.Hijack) {
		if b.blocks(h.Request.Type()) {
			refused.Add(1)
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})
	if err != nil {
		slog.Warn("resource blocking disabled for this run", "error", err)
		if stopErr := router.Stop(); stopErr != nil {
			slog.Debug("stopping request interception failed", "error", stopErr)
		}
		return func() {}
	}
	go router.Run()

	return func() {
		if err := router.Stop(); err != nil {
			slog.Debug("stopping request interception failed", "error", err)
		}
		slog.Debug("request interception stopped", "refused", refused.Load())
	}
}
