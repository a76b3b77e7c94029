package mrpfsm

import (
	"time"

	"github.com/go-mrp/mrp/pkg/mrpcore"
	"github.com/go-mrp/mrp/pkg/mrpdomain"
	"github.com/pion/logging"
)

// defaultMonNRmax bounds the MRA re-promotion tick counter (spec
// Section 4.1, "MRA arbitration": "a periodic shortTestInterval tick
// (monNReturn monotonic up to monNRmax)"). IEC 62439-2 does not pin an
// exact value for an implementer to reuse verbatim; this matches the
// conventional reference value.
const defaultMonNRmax = 5

// defaultCCMInterval is used when EnableLinkCheckOnRing is set but
// CCMInterval is left zero.
const defaultCCMInterval = 10 * time.Millisecond

// startUpDelay is the POWER_ON hold before role initialization runs
// (spec Section 3 lifecycle: "passes through POWER_ON while the
// start-up timer holds").
const startUpDelay = time.Millisecond

// Config configures an Engine (spec Section 3, "Node Configuration").
type Config struct {
	// RingPort1 and RingPort2 are the two ring port identifiers.
	// RingPort1 starts out PRIMARY, RingPort2 SECONDARY.
	RingPort1 mrpcore.PortID
	RingPort2 mrpcore.PortID

	// Domain is the ring's DomainId. Zero value is DefaultDomain.
	Domain mrpdomain.DomainId

	// TimingProfile selects the derived timer constants (spec Section 3
	// table). Must be one of 500, 200, 30, 10 (ms).
	TimingProfile mrpdomain.TimingProfile

	// ExpectedRole is the role the node starts in.
	ExpectedRole Role

	// Priority is the manager-election priority. Zero selects the
	// role's default (PriorityDefault for Manager, PriorityMRADefault
	// for MANAGER_AUTO).
	Priority mrpdomain.Priority

	// ReactOnLinkChange makes a manager announce CHK_RO's self-closed-
	// ring topology change immediately instead of waiting out
	// TopologyChangeInterval (spec Section 3; mauTypeChangeInd CHK_RO
	// arm).
	ReactOnLinkChange bool

	// NonBlockingMRC stops a manager from ever driving its secondary
	// ring port to BLOCKED, in forwardingForLink and every explicit
	// CHK_RO/CHK_RC recovery transition (spec Section 3).
	NonBlockingMRC bool

	// CheckMediaRedundancy is accepted for configuration-surface parity
	// with spec Section 3 but has no behavioral hook: the reference
	// implementation only reads it once at module init and never
	// consults it again.
	CheckMediaRedundancy bool

	// NoTopologyChange permanently suppresses topologyChangeReq's PDU
	// emission (spec Section 3).
	NoTopologyChange bool

	// EnableLinkCheckOnRing turns on the CCM fast link-loss detector
	// (spec Section 4.4) on both ring ports.
	EnableLinkCheckOnRing bool
	CCMInterval           time.Duration

	// InterconnectionLinkCheckAware and InterconnectionRingCheckAware
	// control whether interconnection multicast groups are registered
	// and interconnection PDUs are handled at all (spec Section 4.1,
	// end: interconnection frame forwarding).
	InterconnectionLinkCheckAware bool
	InterconnectionRingCheckAware bool

	// LinkDetectionDelay is the down-transition debounce handed to the
	// port model (spec Section 4.5). Defaults to the profile's derived
	// LinkUpDownInterval.
	LinkDetectionDelay time.Duration

	// MonNRmax bounds the MRA re-promotion tick counter. Defaults to
	// defaultMonNRmax.
	MonNRmax int

	// Relay is the link-layer egress/control surface. Required.
	Relay mrpcore.Relay

	// ForwardingTable is the external MAC forwarding database the
	// engine commands. Required.
	ForwardingTable mrpcore.ForwardingTable

	// InterfaceTable optionally supplies the host's live carrier/
	// loopback information, used to validate ring ports and seed their
	// initial link state. If nil, ports start DOWN until the host calls
	// NotifyCarrierChange.
	InterfaceTable mrpcore.InterfaceTable

	// Callbacks receives the observability signals named in spec
	// Section 6. All fields optional.
	Callbacks Callbacks

	// LoggerFactory creates the engine's (and its owned subsystems')
	// loggers. Optional.
	LoggerFactory logging.LoggerFactory
}

func (c *Config) applyDefaults() {
	if c.CCMInterval == 0 {
		c.CCMInterval = defaultCCMInterval
	}
	if c.LinkDetectionDelay == 0 && c.TimingProfile.IsValid() {
		c.LinkDetectionDelay = millisToDuration(c.TimingProfile.Derive().LinkUpDownInterval)
	}
	if c.MonNRmax == 0 {
		c.MonNRmax = defaultMonNRmax
	}
}

// Validate enforces the invariants and boundary conditions named in
// spec Sections 3 and 8.
func (c *Config) Validate() error {
	if !c.TimingProfile.IsValid() {
		return mrpdomain.ErrUnknownTimingProfile
	}
	if c.RingPort1 == c.RingPort2 {
		return mrpdomain.ErrDuplicateRingPort
	}
	if !c.ExpectedRole.IsValid() || c.ExpectedRole == RoleDisabled {
		return ErrInvalidRole
	}
	if c.Relay == nil {
		return ErrNilRelay
	}
	if c.ForwardingTable == nil {
		return ErrNilForwardingTable
	}
	if c.InterfaceTable != nil {
		for _, port := range [2]mrpcore.PortID{c.RingPort1, c.RingPort2} {
			if iface, ok := c.InterfaceTable.GetInterfaceByID(port); ok && iface.IsLoopback {
				return mrpdomain.ErrLoopbackRingPort
			}
		}
	}
	return nil
}

func millisToDuration(m mrpdomain.Millis) time.Duration {
	return time.Duration(float64(m) * float64(time.Millisecond))
}
