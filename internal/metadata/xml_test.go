package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tstenner/liblsl/internal/model"
)

func TestShortInfo_ContainsIdentityFields(t *testing.T) {
	info := &model.StreamInfo{Name: "MyStream", Type: "EEG", UID: "uid-1", ChannelCount: 8}
	xml := ShortInfo(info)
	assert.Contains(t, xml, "<name>MyStream</name>")
	assert.Contains(t, xml, "<type>EEG</type>")
	assert.Contains(t, xml, "<uid>uid-1</uid>")
	assert.Contains(t, xml, "<channel_count>8</channel_count>")
}

func TestFullInfo_ContainsDescAndCreatedAt(t *testing.T) {
	info := &model.StreamInfo{Name: "MyStream", Metadata: "<channels/>", CreatedAt: 1234.5}
	xml := FullInfo(info)
	assert.Contains(t, xml, "<desc><channels/></desc>")
	assert.Contains(t, xml, "<created_at>1234.5</created_at>")
}

func TestEscape_EscapesReservedCharacters(t *testing.T) {
	info := &model.StreamInfo{Name: "A & B < C"}
	xml := ShortInfo(info)
	assert.Contains(t, xml, "A &amp; B &lt; C")
}
