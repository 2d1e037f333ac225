package metadata

import (
	"fmt"
	"strings"

	"github.com/tstenner/liblsl/internal/model"
)

// ShortInfo renders the compact XML form of info: just enough for
// discovery (name/type/identity/addressing), exchanged over both UDP
// replies and the TCP "LSL:shortinfo" response.
func ShortInfo(info *model.StreamInfo) string {
	var b strings.Builder
	b.WriteString("<info>")
	writeTag(&b, "name", info.Name)
	writeTag(&b, "type", info.Type)
	writeTag(&b, "channel_count", fmt.Sprintf("%d", info.ChannelCount))
	writeTag(&b, "nominal_srate", fmt.Sprintf("%g", info.NominalRate))
	writeTag(&b, "channel_format", info.ChannelFormat.String())
	writeTag(&b, "source_id", info.SourceID)
	writeTag(&b, "uid", info.UID)
	writeTag(&b, "session_id", info.SessionID)
	writeTag(&b, "hostname", info.Hostname)
	if info.V4DataPort != 0 {
		writeTag(&b, "v4data_port", fmt.Sprintf("%d", info.V4DataPort))
	}
	if info.V6DataPort != 0 {
		writeTag(&b, "v6data_port", fmt.Sprintf("%d", info.V6DataPort))
	}
	b.WriteString("</info>")
	return b.String()
}

// FullInfo renders the extended XML form: everything ShortInfo does
// plus created_at and the stream's free-form metadata blob.
func FullInfo(info *model.StreamInfo) string {
	var b strings.Builder
	b.WriteString("<info>")
	writeTag(&b, "name", info.Name)
	writeTag(&b, "type", info.Type)
	writeTag(&b, "channel_count", fmt.Sprintf("%d", info.ChannelCount))
	writeTag(&b, "nominal_srate", fmt.Sprintf("%g", info.NominalRate))
	writeTag(&b, "channel_format", info.ChannelFormat.String())
	writeTag(&b, "source_id", info.SourceID)
	writeTag(&b, "uid", info.UID)
	writeTag(&b, "session_id", info.SessionID)
	writeTag(&b, "hostname", info.Hostname)
	writeTag(&b, "created_at", fmt.Sprintf("%g", info.CreatedAt))
	if info.V4DataPort != 0 {
		writeTag(&b, "v4data_port", fmt.Sprintf("%d", info.V4DataPort))
	}
	if info.V4Address != "" {
		writeTag(&b, "v4address", info.V4Address)
	}
	if info.V6DataPort != 0 {
		writeTag(&b, "v6data_port", fmt.Sprintf("%d", info.V6DataPort))
	}
	if info.V6Address != "" {
		writeTag(&b, "v6address", info.V6Address)
	}
	b.WriteString("<desc>")
	b.WriteString(info.Metadata)
	b.WriteString("</desc>")
	b.WriteString("</info>")
	return b.String()
}

func writeTag(b *strings.Builder, tag, value string) {
	b.WriteString("<")
	b.WriteString(tag)
	b.WriteString(">")
	b.WriteString(escape(value))
	b.WriteString("</")
	b.WriteString(tag)
	b.WriteString(">")
}

func escape(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}
