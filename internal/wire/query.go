package wire

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/spaolacci/murmur3"
)

// ShortInfoVerb and FullInfoVerb are the UDP/TCP discovery command verbs
// from spec §6.
const (
	ShortInfoVerb = "LSL:shortinfo"
	FullInfoVerb  = "LSL:fullinfo"
)

// QueryID returns the decimal string of the 64-bit hash of query, the
// query_id field of the UDP query wire message (spec §6).
func QueryID(query string) string {
	return strconv.FormatUint(murmur3.Sum64([]byte(query)), 10)
}

// BuildQuery renders the three-line UDP query message:
//
//	LSL:shortinfo\r\n
//	<query>\r\n
//	<recv_port> <query_id>\r\n
func BuildQuery(query string, recvPort int) []byte {
	id := QueryID(query)
	var b bytes.Buffer
	b.WriteString(ShortInfoVerb)
	b.WriteString("\r\n")
	b.WriteString(query)
	b.WriteString("\r\n")
	fmt.Fprintf(&b, "%d %s\r\n", recvPort, id)
	return b.Bytes()
}

// ParseQuery splits a received query datagram into the echoed query and
// the "<recv_port> <query_id>" trailer, for tests and for responders
// that are simulated in-process.
func ParseQuery(data []byte) (query string, recvPort int, queryID string, err error) {
	lines := strings.Split(string(data), "\r\n")
	if len(lines) < 3 || lines[0] != ShortInfoVerb {
		return "", 0, "", fmt.Errorf("wire: malformed query message")
	}
	query = lines[1]
	trailer := strings.Fields(lines[2])
	if len(trailer) != 2 {
		return "", 0, "", fmt.Errorf("wire: malformed query trailer %q", lines[2])
	}
	recvPort, err = strconv.Atoi(trailer[0])
	if err != nil {
		return "", 0, "", fmt.Errorf("wire: malformed recv_port: %w", err)
	}
	queryID = trailer[1]
	return query, recvPort, queryID, nil
}

// ParseResponse splits a UDP response datagram into its echoed query_id
// (first line) and the remaining short-info payload (spec §6).
func ParseResponse(data []byte) (queryID string, payload string, ok bool) {
	idx := bytes.Index(data, []byte("\r\n"))
	if idx < 0 {
		return "", "", false
	}
	return string(data[:idx]), string(data[idx+2:]), true
}

// BuildResponse renders a UDP response datagram: the echoed query_id
// followed by the short-info payload.
func BuildResponse(queryID, shortInfo string) []byte {
	var b bytes.Buffer
	b.WriteString(queryID)
	b.WriteString("\r\n")
	b.WriteString(shortInfo)
	return b.Bytes()
}
