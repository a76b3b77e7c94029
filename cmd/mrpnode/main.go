// mrpnode runs a single MRP ring participant against two real network
// interfaces.
//
// Usage:
//
//	mrpnode -port1 eth0 -port2 eth1 -role manager
//
// Options:
//
//	-port1, -port2 ring interface names (required)
//	-role          client, manager, mra, or mra-comp (default: client)
//	-priority      manager election priority
//	-profile       timing profile in ms: 500, 200, 30, 10 (default: 200)
//	-domain        ring DomainId as a UUID string
//	-gen-domain    print a fresh random DomainId and exit
//	-ccm           enable CCM fast link-loss detection
//	-verbose       enable debug logging
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-mrp/mrp/pkg/ccm"
	"github.com/go-mrp/mrp/pkg/linklayer"
	"github.com/go-mrp/mrp/pkg/mrpcore"
	"github.com/go-mrp/mrp/pkg/mrpdomain"
	"github.com/go-mrp/mrp/pkg/mrpfsm"
	"github.com/go-mrp/mrp/pkg/mrppdu"
	"github.com/pion/logging"
)

const (
	portPrimary   mrpcore.PortID = 1
	portSecondary mrpcore.PortID = 2
)

func main() {
	opts := parseFlags()

	if opts.genDomain {
		id, err := mrpdomain.NewRandom()
		if err != nil {
			log.Fatalf("generate domain: %v", err)
		}
		fmt.Println(id.String())
		return
	}

	if opts.port1 == "" || opts.port2 == "" {
		fmt.Fprintln(os.Stderr, "mrpnode: -port1 and -port2 are required")
		flagUsage()
		os.Exit(2)
	}

	factory := logging.NewDefaultLoggerFactory()
	if opts.verbose {
		factory.DefaultLogLevel = logging.LogLevelDebug
	}
	appLog := factory.NewLogger("mrpnode")

	var engine *mrpfsm.Engine

	relay, err := linklayer.New(linklayer.Config{
		Interfaces: []linklayer.IfaceSpec{
			{Port: portPrimary, Name: opts.port1},
			{Port: portSecondary, Name: opts.port2},
		},
		AcceptEtherTypes: []uint16{mrpdomain.MRPEtherType, ccm.CFMEtherType},
		LoggerFactory:    factory,
		Handler: func(port mrpcore.PortID, srcMAC mrpdomain.MAC, lengthType uint16, payload []byte) {
			if engine == nil {
				return
			}
			switch lengthType {
			case mrpdomain.MRPEtherType:
				pdu, err := mrppdu.Decode(payload)
				if err != nil {
					appLog.Warnf("discarding malformed MRP frame on port %d: %v", port, err)
					return
				}
				engine.HandleInboundPDU(port, srcMAC, pdu)
			case ccm.CFMEtherType:
				frame, err := ccm.Decode(payload)
				if err != nil {
					appLog.Warnf("discarding malformed CCM frame on port %d: %v", port, err)
					return
				}
				engine.NotifyCCMReceived(port, srcMAC, frame)
			}
		},
	})
	if err != nil {
		log.Fatalf("open link layer: %v", err)
	}

	domain, err := parseDomain(opts.domain)
	if err != nil {
		log.Fatalf("parse -domain: %v", err)
	}

	engine, err = mrpfsm.NewEngine(mrpfsm.Config{
		RingPort1:             portPrimary,
		RingPort2:             portSecondary,
		Domain:                domain,
		TimingProfile:         opts.profile,
		ExpectedRole:          opts.role,
		Priority:              mrpdomain.Priority(opts.priority),
		ReactOnLinkChange:     opts.reactOnLinkChange,
		NonBlockingMRC:        opts.nonBlockingMRC,
		CheckMediaRedundancy:  opts.checkMediaRedundancy,
		NoTopologyChange:      opts.noTopologyChange,
		EnableLinkCheckOnRing: opts.ccm,
		CCMInterval:           opts.ccmInterval,
		Relay:                 relay,
		ForwardingTable:       relay.ForwardingTable(),
		InterfaceTable:        relay,
		Callbacks:             loggingCallbacks(appLog),
		LoggerFactory:         factory,
	})
	if err != nil {
		log.Fatalf("configure engine: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := relay.Start(); err != nil {
		log.Fatalf("start link layer: %v", err)
	}
	if err := engine.Start(); err != nil {
		log.Fatalf("start engine: %v", err)
	}

	appLog.Infof("mrpnode running: role=%s ports=%s/%s domain=%s", opts.role, opts.port1, opts.port2, domain)

	<-ctx.Done()
	appLog.Info("shutting down")

	engine.Stop()
	if err := relay.Stop(); err != nil {
		appLog.Warnf("stop link layer: %v", err)
	}
}

func parseDomain(s string) (mrpdomain.DomainId, error) {
	if s == "" {
		return mrpdomain.DomainId{}, nil
	}
	return mrpdomain.ParseUUID(s)
}

func flagUsage() {
	fmt.Fprintln(os.Stderr, "usage: mrpnode -port1 <iface> -port2 <iface> [options]")
}
