package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/go-mrp/mrp/pkg/mrpdomain"
	"github.com/go-mrp/mrp/pkg/mrpfsm"
)

// options holds the parsed CLI flags for a single ring node.
type options struct {
	port1 string
	port2 string

	role     mrpfsm.Role
	priority uint16
	profile  mrpdomain.TimingProfile
	domain   string
	genDomain bool

	ccm         bool
	ccmInterval time.Duration

	reactOnLinkChange    bool
	nonBlockingMRC       bool
	checkMediaRedundancy bool
	noTopologyChange     bool

	verbose bool
}

func parseFlags() options {
	var o options
	var roleFlag, profileFlag string

	flag.StringVar(&o.port1, "port1", "", "primary ring interface name (required)")
	flag.StringVar(&o.port2, "port2", "", "secondary ring interface name (required)")
	flag.StringVar(&roleFlag, "role", "client", "node role: client, manager, mra, mra-comp")
	flag.Func("priority", "manager election priority (default: role's spec default)", func(s string) error {
		var v uint16
		_, err := fmt.Sscanf(s, "%d", &v)
		if err != nil {
			return err
		}
		o.priority = v
		return nil
	})
	flag.StringVar(&profileFlag, "profile", "200", "timing profile in ms: 500, 200, 30, 10")
	flag.StringVar(&o.domain, "domain", "", "ring DomainId as a UUID string (default: the well-known default domain)")
	flag.BoolVar(&o.genDomain, "gen-domain", false, "print a freshly generated random DomainId and exit")
	flag.BoolVar(&o.ccm, "ccm", false, "enable CCM fast link-loss detection on both ring ports")
	flag.DurationVar(&o.ccmInterval, "ccm-interval", 0, "CCM transmission interval (default: 10ms)")
	flag.BoolVar(&o.reactOnLinkChange, "react-on-link-change", false, "announce the topology change immediately when a manager's ring closes from CHK_RO, rather than after the profile's topology change interval")
	flag.BoolVar(&o.nonBlockingMRC, "non-blocking-mrc", false, "run media redundancy checks without blocking forwarding")
	flag.BoolVar(&o.checkMediaRedundancy, "check-media-redundancy", false, "accepted and stored in the engine config; it has no effect on behavior")
	flag.BoolVar(&o.noTopologyChange, "no-topology-change", false, "suppress TOPOLOGY_CHANGE announcements")
	flag.BoolVar(&o.verbose, "verbose", false, "enable debug logging")
	flag.Parse()

	o.role = parseRole(roleFlag)
	o.profile = parseProfile(profileFlag)
	return o
}

func parseRole(s string) mrpfsm.Role {
	switch s {
	case "manager":
		return mrpfsm.RoleManager
	case "mra":
		return mrpfsm.RoleManagerAuto
	case "mra-comp":
		return mrpfsm.RoleManagerAutoComp
	default:
		return mrpfsm.RoleClient
	}
}

func parseProfile(s string) mrpdomain.TimingProfile {
	switch s {
	case "500":
		return mrpdomain.Profile500ms
	case "30":
		return mrpdomain.Profile30ms
	case "10":
		return mrpdomain.Profile10ms
	default:
		return mrpdomain.Profile200ms
	}
}
