package dmtp

// Message is a DMTP chat message: {SENDER, RECEIVER, TIME, CONTENT, SIGN?,
// KEY?}.
type Message struct {
	Sender    string
	Receiver  string
	Timestamp []byte
	Content   []byte
	Sign      []byte
	Key       []byte
}

// Encode serializes m as a flat field sequence (no CMD field — messages
// and commands are distinguished by MTP packet type, not by a field).
// Content longer than tlv.MaxDMTPValueLen is split across repeated
// CONTENT fields; ParseMessage reassembles them in order.
func (m Message) Encode() []byte {
	fields := []Field{
		{Tag: TagSENDER, Value: []byte(m.Sender)},
		{Tag: TagRECEIVER, Value: []byte(m.Receiver)},
		{Tag: TagTIME, Value: m.Timestamp},
	}
	fields = append(fields, chunkField(TagCONTENT, m.Content)...)
	if m.Sign != nil {
		fields = append(fields, Field{Tag: TagSIGN, Value: m.Sign})
	}
	if m.Key != nil {
		fields = append(fields, Field{Tag: TagKEY, Value: m.Key})
	}
	return EncodeFields(fields)
}

// ParseMessage decodes a DMTP message body.
func ParseMessage(body []byte) (Message, error) {
	fields, _ := ParseFields(body)
	m := Message{}
	if v, ok := Find(fields, TagSENDER); ok {
		m.Sender = string(v)
	}
	if v, ok := Find(fields, TagRECEIVER); ok {
		m.Receiver = string(v)
	}
	if v, ok := Find(fields, TagTIME); ok {
		m.Timestamp = v
	}
	if v, ok := FindAll(fields, TagCONTENT); ok {
		m.Content = v
	}
	if v, ok := Find(fields, TagSIGN); ok {
		m.Sign = v
	}
	if v, ok := Find(fields, TagKEY); ok {
		m.Key = v
	}
	return m, nil
}
