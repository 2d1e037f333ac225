package wire

import (
	"bufio"
	"strconv"
	"strings"
)

// ResponseHeader is the key-value block a streamfeed response carries
// after its status line (spec §4.7): UID, the server's chosen byte
// order, whether it is flushing subnormals, and the negotiated data
// protocol version. Distinct from FeedHeader, which is the
// client-to-server request-side block and uses different key names.
type ResponseHeader struct {
	UID                 string
	ByteOrder           int
	SuppressSubnormals  bool
	DataProtocolVersion int
}

// ParseResponseHeader reads CRLF-terminated "Key: value" lines from r
// until a blank line terminates the block, the same framing
// ParseFeedHeader uses on the request side.
func ParseResponseHeader(r *bufio.Reader) (*ResponseHeader, error) {
	h := &ResponseHeader{}
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return h, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			return h, nil
		}
		colon := strings.Index(line, ":")
		if colon < 0 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(line[:colon]))
		val := strings.TrimSpace(line[colon+1:])
		switch key {
		case "uid":
			h.UID = val
		case "byte-order":
			h.ByteOrder, _ = strconv.Atoi(val)
		case "suppress-subnormals":
			h.SuppressSubnormals = parseBool(val)
		case "data-protocol-version":
			h.DataProtocolVersion, _ = strconv.Atoi(val)
		}
	}
}
