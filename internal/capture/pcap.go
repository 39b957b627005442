package capture

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
	"go.uber.org/zap"

	"github.com/tessro/entrance/internal/arrival"
)

// DHCPFilter matches client and server DHCP ports.
const DHCPFilter = "udp and (port 67 or port 68)"

const (
	defaultSnaplen = 1600
	readTimeout    = 500 * time.Millisecond
)

// PcapSource sniffs DHCP requests on a local interface. It needs
// CAP_NET_RAW or root.
type PcapSource struct {
	iface   string
	snaplen int
	log     *zap.Logger
}

// NewPcapSource creates a sniffer. An empty iface picks the first
// interface pcap reports.
func NewPcapSource(iface string, snaplen int, log *zap.Logger) *PcapSource {
	if log == nil {
		log = zap.NewNop()
	}
	if snaplen <= 0 {
		snaplen = defaultSnaplen
	}
	return &PcapSource{iface: iface, snaplen: snaplen, log: log.Named("pcap")}
}

// Run implements Source.
func (s *PcapSource) Run(ctx context.Context, sink Sink) error {
	iface := s.iface
	if iface == "" {
		devs, err := pcap.FindAllDevs()
		if err != nil {
			return fmt.Errorf("list interfaces: %w", err)
		}
		if len(devs) == 0 {
			return fmt.Errorf("no capture interfaces found")
		}
		iface = devs[0].Name
	}

	handle, err := pcap.OpenLive(iface, int32(s.snaplen), true, readTimeout)
	if err != nil {
		return fmt.Errorf("open %s: %w", iface, err)
	}
	defer handle.Close()

	if err := handle.SetBPFFilter(DHCPFilter); err != nil {
		return fmt.Errorf("set filter: %w", err)
	}

	s.log.Info("sniffing for DHCP traffic", zap.String("interface", iface))
	packets := gopacket.NewPacketSource(handle, handle.LinkType()).Packets()
	for {
		select {
		case <-ctx.Done():
			return nil
		case pkt, ok := <-packets:
			if !ok {
				return nil
			}
			if ev, ok := DecodeDHCPRequest(pkt); ok {
				deliver(ctx, sink, ev, s.log)
			}
		}
	}
}

// DecodeDHCPRequest extracts an arrival from a DHCPREQUEST packet. The
// source MAC comes from the Ethernet header when there is one, otherwise
// from the DHCP client hardware address.
func DecodeDHCPRequest(pkt gopacket.Packet) (arrival.Event, bool) {
	layer := pkt.Layer(layers.LayerTypeDHCPv4)
	if layer == nil {
		return arrival.Event{}, false
	}
	dhcp := layer.(*layers.DHCPv4)
	if messageType(dhcp) != layers.DHCPMsgTypeRequest {
		return arrival.Event{}, false
	}

	var mac net.HardwareAddr
	if eth, ok := pkt.Layer(layers.LayerTypeEthernet).(*layers.Ethernet); ok {
		mac = eth.SrcMAC
	}
	if len(mac) == 0 {
		mac = dhcp.ClientHWAddr
	}
	if len(mac) == 0 {
		return arrival.Event{}, false
	}

	ev := arrival.Event{SourceMAC: mac.String()}
	for _, opt := range dhcp.Options {
		switch opt.Type {
		case layers.DHCPOptHostname:
			ev.Options = append(ev.Options, arrival.Option{Key: arrival.OptionHostname, Value: string(opt.Data)})
		case layers.DHCPOptRequestIP:
			if len(opt.Data) == net.IPv4len {
				ev.Options = append(ev.Options, arrival.Option{Key: arrival.OptionRequestedAddr, Value: net.IP(opt.Data).String()})
			}
		}
	}
	return ev, true
}

func messageType(dhcp *layers.DHCPv4) layers.DHCPMsgType {
	for _, opt := range dhcp.Options {
		if opt.Type == layers.DHCPOptMessageType && len(opt.Data) == 1 {
			return layers.DHCPMsgType(opt.Data[0])
		}
	}
	return layers.DHCPMsgTypeUnspecified
}
