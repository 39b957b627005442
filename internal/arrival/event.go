// Package arrival turns DHCP requests into entrance requests.
package arrival

// DHCP option keys the handler understands.
const (
	OptionHostname      = "hostname"
	OptionRequestedAddr = "requested_addr"
)

// Option is one decoded DHCP option.
type Option struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Event is a DHCP request seen on the network.
type Event struct {
	SourceMAC string   `json:"mac"`
	Options   []Option `json:"options"`
}

// Option returns the value of the first option named key, or "".
func (e Event) Option(key string) string {
	for _, o := range e.Options {
		if o.Key == key {
			return o.Value
		}
	}
	return ""
}

// Hostname returns the client hostname option, if present.
func (e Event) Hostname() string {
	return e.Option(OptionHostname)
}

// RequestedAddr returns the requested IP address option, if present.
func (e Event) RequestedAddr() string {
	return e.Option(OptionRequestedAddr)
}
