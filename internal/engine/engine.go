// Package engine defines the boundary to the external dialogue engine. The
// gateway hands it canonical inbound events and receives canonical replies;
// intent classification, slot filling, and conversation state live entirely
// on the other side of this interface.
package engine

import (
	"context"

	"github.com/thesoulpath/soulpath/pkg/event"
)

// Engine turns one inbound event into zero or more replies. Implementations
// must honor ctx cancellation; the router calls Handle from per-request
// tasks and will not block other inbound traffic on it.
type Engine interface {
	Handle(ctx context.Context, ev event.Inbound) ([]event.Reply, error)
}

// Defaults is the named fallback policy applied to engine replies with
// incomplete session payloads. The engine is known to omit the price when
// the corresponding slot was never filled; rather than dropping the reply
// or guessing, the documented default is substituted.
type Defaults struct {
	// SessionPriceUSD is used when a session payload carries no price.
	SessionPriceUSD int
}

// StandardDefaults mirrors the engine's configured service pricing.
var StandardDefaults = Defaults{SessionPriceUSD: 80}
