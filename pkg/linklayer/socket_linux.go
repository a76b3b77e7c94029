//go:build linux

package linklayer

import (
	"encoding/binary"
	"net"
	"sync"

	"github.com/go-mrp/mrp/pkg/mrpdomain"
	"golang.org/x/sys/unix"
)

// afPacketSocket is a rawSocket backed by an AF_PACKET SOCK_RAW socket
// bound to one interface. Ethernet framing (destination, source,
// length/type) is handled here; callers deal only in payloads.
type afPacketSocket struct {
	fd      int
	ifIndex int

	closeOnce sync.Once
	closeCh   chan struct{}
}

func openRawSocketFor(ifaceName string) (rawSocket, error) {
	iface, err := net.InterfaceByName(ifaceName)
	if err != nil {
		return nil, err
	}

	fd, err := unix.Socket(unix.AF_PACKET, unix.SOCK_RAW, int(htons(unix.ETH_P_ALL)))
	if err != nil {
		return nil, err
	}

	addr := unix.SockaddrLinklayer{
		Protocol: htons(unix.ETH_P_ALL),
		Ifindex:  iface.Index,
	}
	if err := unix.Bind(fd, &addr); err != nil {
		unix.Close(fd)
		return nil, err
	}

	return &afPacketSocket{
		fd:      fd,
		ifIndex: iface.Index,
		closeCh: make(chan struct{}),
	}, nil
}

func htons(v int) uint16 {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, uint16(v))
	return binary.LittleEndian.Uint16(b)
}

const ethHeaderLen = 14

func (s *afPacketSocket) send(destMAC, srcMAC mrpdomain.MAC, lengthType uint16, payload []byte) error {
	frame := make([]byte, ethHeaderLen+len(payload))
	copy(frame[0:6], destMAC[:])
	copy(frame[6:12], srcMAC[:])
	binary.BigEndian.PutUint16(frame[12:14], lengthType)
	copy(frame[ethHeaderLen:], payload)

	to := unix.SockaddrLinklayer{
		Ifindex: s.ifIndex,
		Halen:   6,
	}
	copy(to.Addr[:6], destMAC[:])

	return unix.Sendto(s.fd, frame, 0, &to)
}

func (s *afPacketSocket) readLoop(deliver func(srcMAC mrpdomain.MAC, lengthType uint16, payload []byte)) {
	buf := make([]byte, 1518)
	for {
		n, _, err := unix.Recvfrom(s.fd, buf, 0)
		if err != nil {
			select {
			case <-s.closeCh:
				return
			default:
				continue
			}
		}
		if n < ethHeaderLen {
			continue
		}

		var srcMAC mrpdomain.MAC
		copy(srcMAC[:], buf[6:12])
		lengthType := binary.BigEndian.Uint16(buf[12:14])

		payload := make([]byte, n-ethHeaderLen)
		copy(payload, buf[ethHeaderLen:n])

		deliver(srcMAC, lengthType, payload)
	}
}

func (s *afPacketSocket) close() {
	s.closeOnce.Do(func() {
		close(s.closeCh)
		unix.Close(s.fd)
	})
}
