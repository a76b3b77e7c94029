package mrpfsm

import (
	"time"

	"github.com/go-mrp/mrp/pkg/mrpcore"
	"github.com/go-mrp/mrp/pkg/mrpdomain"
)

// Callbacks receives the observability signals named in spec Section 6
// ("emitted as named events with a scalar payload"). Every field is
// optional; the engine nil-checks before calling.
type Callbacks struct {
	OnLinkChange              func(port mrpcore.PortID, link mrpcore.LinkState)
	OnTopologyChange          func(sourceMAC mrpdomain.MAC, interval time.Duration)
	OnTest                    func()
	OnContinuityCheck         func(port mrpcore.PortID)
	OnReceivedChange          func(port mrpcore.PortID)
	OnReceivedTest            func(port mrpcore.PortID, sourceMAC mrpdomain.MAC)
	OnReceivedContinuityCheck func(port mrpcore.PortID)
	OnRingStateChanged        func(state RingState)
	OnPortStateChanged        func(port mrpcore.PortID, role mrpcore.PortRole, fwd mrpcore.PortForwardingState)
	OnClearFDB                func()
}
