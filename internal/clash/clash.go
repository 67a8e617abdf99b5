// Package clash detects a local clash/mihomo controller and switches its
// selector group to the egress node with the lowest measured latency.
// Every failure path degrades: a host without a controller provisions
// exactly like one with it, minus the optimization.
package clash

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Aaroen/anyrouter-proxy/internal/model"
)

// Control-API wire shapes, per the clash RESTful API.
type proxiesResponse struct {
	Proxies map[string]proxyEntry `json:"proxies"`
}

type proxyEntry struct {
	Now     string        `json:"now"`
	All     []string      `json:"all"`
	Type    string        `json:"type"`
	History []delaySample `json:"history"`
}

type delaySample struct {
	Time  string `json:"time"`
	Delay int    `json:"delay"`
}

// Optimizer probes for a controller and drives the node switch.
type Optimizer struct {
	Host     string // controller host, normally loopback
	Settings model.Settings

	client      *http.Client
	dialTimeout time.Duration
}

// Result carries the outcome for logging plus the state persisted into
// the generated config.
type Result struct {
	State     model.ClashState
	Selector  string // group that was ranked, "" when none matched
	Best      string // chosen node, "" when nothing had a measurement
	BestDelay int
	Previous  string // active member before the switch
	Switched  bool
	Warnings  []string
}

// New builds an Optimizer with the short probe timeouts the pipeline
// requires: an unreachable controller must cost about a second, not hang
// the run.
func New(set model.Settings) *Optimizer {
	return &Optimizer{
		Host:        "127.0.0.1",
		Settings:    set,
		client:      &http.Client{Timeout: time.Second},
		dialTimeout: time.Second,
	}
}

// Optimize runs discovery, ranking and switching. It never returns an
// error: absence of a controller is a normal, fully supported state.
func (o *Optimizer) Optimize() Result {
	res := Result{}

	res.State.ProxyAddr = o.dataProxyURL()

	base := o.discoverControlAPI()
	if base == "" {
		res.Warnings = append(res.Warnings, "no clash control API found; proxy optimization disabled")
		return res
	}
	res.State.Detected = true
	res.State.ControlAPI = base

	proxies, err := o.fetchProxies(base)
	if err != nil {
		// Controller answered the status probe but not the graph fetch;
		// keep it detected, skip the switch.
		res.Warnings = append(res.Warnings, fmt.Sprintf("fetch proxy graph: %v", err))
		return res
	}

	selector, entry := pickSelector(proxies, o.Settings.SelectorNames)
	if selector == "" {
		res.Warnings = append(res.Warnings, fmt.Sprintf("no selector group among %v; skipping switch", o.Settings.SelectorNames))
		return res
	}
	res.Selector = selector
	res.Previous = entry.Now

	res.State.Nodes, res.Best, res.BestDelay = rank(proxies, entry, o.Settings.MetaGroupTypes)
	if res.Best == "" {
		res.Warnings = append(res.Warnings, "no node has a valid latency measurement; keeping current selection")
		return res
	}
	if res.Best == entry.Now {
		return res
	}

	if err := o.switchNode(base, selector, res.Best); err != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("switch to %s: %v", res.Best, err))
		return res
	}
	res.Switched = true
	return res
}

// discoverControlAPI walks the candidate ports, takes the first open one
// whose status body carries the marker substring, and stops there.
func (o *Optimizer) discoverControlAPI() string {
	for _, port := range o.Settings.ControlPorts {
		if !o.portOpen(port) {
			continue
		}
		base := "http://" + net.JoinHostPort(o.Host, strconv.Itoa(port))
		resp, err := o.client.Get(base + "/")
		if err != nil {
			continue
		}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		if strings.Contains(string(body), o.Settings.StatusMarker) {
			return base
		}
	}
	return ""
}

// dataProxyURL adopts the first open data-plane port. With neither port
// answering the first candidate is still returned unverified, so the
// generated config always carries a usable-looking ingress address.
func (o *Optimizer) dataProxyURL() string {
	for _, port := range o.Settings.DataPorts {
		if o.portOpen(port) {
			return fmt.Sprintf("http://%s", net.JoinHostPort(o.Host, strconv.Itoa(port)))
		}
	}
	if len(o.Settings.DataPorts) == 0 {
		return ""
	}
	return fmt.Sprintf("http://%s", net.JoinHostPort(o.Host, strconv.Itoa(o.Settings.DataPorts[0])))
}

// portOpen is the single probing mechanism: a raw connect with a short
// deadline. A timeout is a negative result, never retried.
func (o *Optimizer) portOpen(port int) bool {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(o.Host, strconv.Itoa(port)), o.dialTimeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

func (o *Optimizer) fetchProxies(base string) (map[string]proxyEntry, error) {
	resp, err := o.client.Get(base + "/proxies")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	var pr proxiesResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, err
	}
	return pr.Proxies, nil
}

// pickSelector tries the configured display names in order and returns
// the first group present in the graph.
func pickSelector(proxies map[string]proxyEntry, names []string) (string, proxyEntry) {
	for _, name := range names {
		if entry, ok := proxies[name]; ok {
			return name, entry
		}
	}
	return "", proxyEntry{}
}

// rank walks the selector members in declared order, skipping meta-groups
// and members without a positive delay. Smallest delay wins; the first
// encountered wins exact ties.
func rank(proxies map[string]proxyEntry, sel proxyEntry, metaTypes []string) (nodes []model.ProxyNode, best string, bestDelay int) {
	for _, name := range sel.All {
		entry, ok := proxies[name]
		if !ok {
			continue
		}
		if isMetaGroup(entry.Type, metaTypes) {
			continue
		}
		delay := 0
		if n := len(entry.History); n > 0 {
			delay = entry.History[n-1].Delay
		}
		nodes = append(nodes, model.ProxyNode{Name: name, Kind: kindOf(entry.Type), DelayMs: delay})
		// Zero is deliberately "no measurement", matching the controller's
		// own convention for untested nodes.
		if delay > 0 && (best == "" || delay < bestDelay) {
			best = name
			bestDelay = delay
		}
	}
	return nodes, best, bestDelay
}

func isMetaGroup(nodeType string, metaTypes []string) bool {
	for _, t := range metaTypes {
		if strings.EqualFold(nodeType, t) {
			return true
		}
	}
	return false
}

func kindOf(nodeType string) model.NodeKind {
	switch {
	case strings.EqualFold(nodeType, "Selector"):
		return model.NodeSelector
	case strings.EqualFold(nodeType, "URLTest"):
		return model.NodeURLTest
	default:
		return model.NodeLeaf
	}
}

// switchNode issues the state-changing PUT naming the new active member.
func (o *Optimizer) switchNode(base, selector, name string) error {
	payload, _ := json.Marshal(map[string]string{"name": name})
	req, err := http.NewRequest(http.MethodPut, base+"/proxies/"+url.PathEscape(selector), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := o.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}
