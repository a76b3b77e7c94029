package main

import (
	"time"

	"github.com/go-mrp/mrp/pkg/mrpcore"
	"github.com/go-mrp/mrp/pkg/mrpdomain"
	"github.com/go-mrp/mrp/pkg/mrpfsm"
	"github.com/pion/logging"
)

// loggingCallbacks wires every observability signal the engine emits
// to a log line, so a running node can be followed on the console
// without attaching a debugger.
func loggingCallbacks(log logging.LeveledLogger) mrpfsm.Callbacks {
	return mrpfsm.Callbacks{
		OnLinkChange: func(port mrpcore.PortID, link mrpcore.LinkState) {
			log.Infof("port %d link state: %s", port, link)
		},
		OnTopologyChange: func(sourceMAC mrpdomain.MAC, interval time.Duration) {
			log.Infof("topology change from %s, clearing FDB for %s", sourceMAC, interval)
		},
		OnTest: func() {
			log.Debug("TEST frame sent")
		},
		OnContinuityCheck: func(port mrpcore.PortID) {
			log.Debugf("CCM frame sent on port %d", port)
		},
		OnReceivedChange: func(port mrpcore.PortID) {
			log.Debugf("LINK_CHANGE received on port %d", port)
		},
		OnReceivedTest: func(port mrpcore.PortID, sourceMAC mrpdomain.MAC) {
			log.Debugf("TEST received on port %d from %s", port, sourceMAC)
		},
		OnReceivedContinuityCheck: func(port mrpcore.PortID) {
			log.Debugf("CCM received on port %d", port)
		},
		OnRingStateChanged: func(state mrpfsm.RingState) {
			log.Infof("ring state: %s", state)
		},
		OnPortStateChanged: func(port mrpcore.PortID, role mrpcore.PortRole, fwd mrpcore.PortForwardingState) {
			log.Infof("port %d: role=%s forwarding=%s", port, role, fwd)
		},
		OnClearFDB: func() {
			log.Debug("FDB cleared")
		},
	}
}
