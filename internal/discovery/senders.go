package discovery

import (
	"net"
	"strconv"

	"go.uber.org/multierr"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
	"golang.org/x/sys/unix"

	"github.com/tstenner/liblsl/internal/lslog"
)

var sendersLog = lslog.Named("discovery.senders")

// querySender sends the resolver's query message to a fixed set of
// destinations on every burst. Grounded on the original
// unicast/broadcast/multicast_query_sender trio (resolve_packet_sender
// in the original implementation) — split into per-family sender
// values instead of a class hierarchy, since Go has no use for
// inheriting from a base_query_sender that exists only to hold the
// shared message buffer.
type querySender struct {
	msg    []byte
	conns  []*net.UDPConn
	dests  []*net.UDPAddr
	joined int // successful multicast group joins; unset for unicast/broadcast
}

// newUnicastSender opens one outbound UDP socket and expands every
// host in hosts across [portStart, portEnd] into a destination list.
func newUnicastSender(msg []byte, hosts []string, portStart, portEnd int) (*querySender, error) {
	conn, err := net.ListenUDP("udp", nil)
	if err != nil {
		return nil, &AttemptError{Op: "unicast sender dial", Err: err}
	}
	s := &querySender{msg: msg, conns: []*net.UDPConn{conn}}
	for _, host := range hosts {
		for port := portStart; port <= portEnd; port++ {
			addr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(host, strconv.Itoa(port)))
			if err != nil {
				continue
			}
			s.dests = append(s.dests, addr)
		}
	}
	return s, nil
}

// newBroadcastSender opens a single IPv4 socket with SO_BROADCAST set
// and a destination of the limited broadcast address. The original
// implementation rejects IPv6 outright for this sender; broadcastSender
// is likewise only ever constructed against v4 target lists.
func newBroadcastSender(msg []byte, port int) (*querySender, error) {
	conn, err := net.ListenUDP("udp4", nil)
	if err != nil {
		return nil, &AttemptError{Op: "broadcast sender dial", Err: err}
	}
	if err := setBroadcast(conn); err != nil {
		conn.Close()
		return nil, &AttemptError{Op: "broadcast sender setsockopt", Err: err}
	}
	addr := &net.UDPAddr{IP: net.IPv4bcast, Port: port}
	return &querySender{msg: msg, conns: []*net.UDPConn{conn}, dests: []*net.UDPAddr{addr}}, nil
}

func setBroadcast(conn *net.UDPConn) error {
	raw, err := conn.SyscallConn()
	if err != nil {
		return err
	}
	var sockErr error
	err = raw.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, 1)
	})
	if err != nil {
		return err
	}
	return sockErr
}

// newMulticastSender opens one outbound socket per group address so
// each can carry its own TTL and loopback setting, mirroring the
// original's per-address socket vector. Each socket also attempts to
// join its own group (spec §4.4 step 2); a failed join is logged and
// does not prevent the socket from sending.
func newMulticastSender(msg []byte, groups []string, port, ttl int, loopback bool) (*querySender, error) {
	s := &querySender{msg: msg}
	for _, g := range groups {
		addr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(g, strconv.Itoa(port)))
		if err != nil {
			continue
		}
		conn, err := net.ListenUDP("udp4", nil)
		if err != nil {
			s.close()
			return nil, &AttemptError{Op: "multicast sender dial " + g, Err: err}
		}
		pc := ipv4.NewPacketConn(conn)
		if err := pc.SetMulticastTTL(ttl); err != nil {
			conn.Close()
			s.close()
			return nil, &AttemptError{Op: "multicast sender set ttl " + g, Err: err}
		}
		if err := pc.SetMulticastLoopback(loopback); err != nil {
			conn.Close()
			s.close()
			return nil, &AttemptError{Op: "multicast sender set loopback " + g, Err: err}
		}
		// Join failure is a soft, per-group failure (spec §7
		// JoinGroupFailed): the socket still gets used for sending,
		// it just may not receive traffic addressed to that group.
		if err := pc.JoinGroup(nil, &net.UDPAddr{IP: addr.IP}); err != nil {
			sendersLog.Warn("multicast join group failed", "group", g, "err", err)
		} else {
			s.joined++
		}
		s.addConn(conn)
		s.dests = append(s.dests, addr)
	}
	return s, nil
}

// newMulticastSenderV6 is newMulticastSender's IPv6 counterpart: one
// socket per group, configured via golang.org/x/net/ipv6 since the
// stdlib net package has no direct hook for multicast hop limit or
// loopback, and joined the same soft-fail way as the v4 sender.
func newMulticastSenderV6(msg []byte, groups []string, port, hopLimit int, loopback bool) (*querySender, error) {
	s := &querySender{msg: msg}
	for _, g := range groups {
		addr, err := net.ResolveUDPAddr("udp6", net.JoinHostPort(g, strconv.Itoa(port)))
		if err != nil {
			continue
		}
		conn, err := net.ListenUDP("udp6", nil)
		if err != nil {
			s.close()
			return nil, &AttemptError{Op: "multicast v6 sender dial " + g, Err: err}
		}
		pc := ipv6.NewPacketConn(conn)
		if err := pc.SetMulticastHopLimit(hopLimit); err != nil {
			conn.Close()
			s.close()
			return nil, &AttemptError{Op: "multicast v6 sender set hop limit " + g, Err: err}
		}
		if err := pc.SetMulticastLoopback(loopback); err != nil {
			conn.Close()
			s.close()
			return nil, &AttemptError{Op: "multicast v6 sender set loopback " + g, Err: err}
		}
		if err := pc.JoinGroup(nil, &net.UDPAddr{IP: addr.IP}); err != nil {
			sendersLog.Warn("multicast v6 join group failed", "group", g, "err", err)
		} else {
			s.joined++
		}
		s.addConn(conn)
		s.dests = append(s.dests, addr)
	}
	return s, nil
}

// send fires the query at every destination. Unicast and broadcast
// senders own a single connection shared by every destination;
// multicast senders pair connection i with destination i, since each
// group address got its own per-group socket.
func (s *querySender) send() error {
	var errs error
	if len(s.conns) == 1 {
		conn := s.conns[0]
		for _, dest := range s.dests {
			if _, err := conn.WriteToUDP(s.msg, dest); err != nil {
				errs = multierr.Append(errs, err)
			}
		}
		return errs
	}
	for i, dest := range s.dests {
		if i >= len(s.conns) {
			break
		}
		if _, err := s.conns[i].WriteToUDP(s.msg, dest); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

func (s *querySender) addConn(c *net.UDPConn) {
	s.conns = append(s.conns, c)
}

func (s *querySender) close() {
	for _, c := range s.conns {
		_ = c.Close()
	}
}
