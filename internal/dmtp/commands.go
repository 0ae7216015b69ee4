package dmtp

// Command names, carried as the CMD field's ASCII value.
const (
	CmdHI   = "HI"
	CmdSIGN = "SIGN"
	CmdCALL = "CALL"
	CmdFROM = "FROM"
	CmdBYE  = "BYE"
)

// Command is a decoded DMTP command: its name plus the fields that
// followed the CMD field.
type Command struct {
	Name   string
	Fields []Field
}

// ParseCommand decodes one command from an MTP body. It fails if the
// first field is not a CMD field.
func ParseCommand(body []byte) (Command, error) {
	fields, _ := ParseFields(body)
	if len(fields) == 0 || fields[0].Tag != TagCMD {
		return Command{}, errMissingCMD
	}
	return Command{Name: string(fields[0].Value), Fields: fields[1:]}, nil
}

// EncodeCommand serializes name and its fields with the CMD field
// prepended.
func EncodeCommand(name string, fields ...Field) []byte {
	all := append([]Field{{Tag: TagCMD, Value: []byte(name)}}, fields...)
	return EncodeFields(all)
}

var errMissingCMD = cmdError("dmtp: body does not start with a CMD field")

type cmdError string

func (e cmdError) Error() string { return string(e) }

// HI builds a HI command: {ID, SRC?, MAP?, RLY?, TIME, SIGN?, NAT?}.
func HI(id string, src, mapped, relayed *Address, sign []byte, nat string, ts []byte) []byte {
	fields := []Field{{Tag: TagID, Value: []byte(id)}}
	if src != nil {
		fields = append(fields, Field{Tag: TagSRC, Value: EncodeAddress(*src)})
	}
	if mapped != nil {
		fields = append(fields, Field{Tag: TagMAP, Value: EncodeAddress(*mapped)})
	}
	if relayed != nil {
		fields = append(fields, Field{Tag: TagRLY, Value: EncodeAddress(*relayed)})
	}
	fields = append(fields, Field{Tag: TagTIME, Value: ts})
	if sign != nil {
		fields = append(fields, Field{Tag: TagSIGN, Value: sign})
	}
	if nat != "" {
		fields = append(fields, Field{Tag: TagNAT, Value: []byte(nat)})
	}
	return EncodeCommand(CmdHI, fields...)
}

// SIGN builds a server-issued SIGN command: {ID, MAP, TIME}.
func SIGN(id string, mapped Address, ts []byte) []byte {
	return EncodeCommand(CmdSIGN,
		Field{Tag: TagID, Value: []byte(id)},
		Field{Tag: TagMAP, Value: EncodeAddress(mapped)},
		Field{Tag: TagTIME, Value: ts},
	)
}

// CALL builds a CALL command: {ID}.
func CALL(id string) []byte {
	return EncodeCommand(CmdCALL, Field{Tag: TagID, Value: []byte(id)})
}

// FROM builds a FROM command advising a peer's location: {ID, ...}.
func FROM(id string, fields ...Field) []byte {
	all := append([]Field{{Tag: TagID, Value: []byte(id)}}, fields...)
	return EncodeCommand(CmdFROM, all...)
}

// BYE builds a BYE command: {ID, SRC, MAP, TIME, SIGN}.
func BYE(id string, src, mapped Address, ts, sign []byte) []byte {
	return EncodeCommand(CmdBYE,
		Field{Tag: TagID, Value: []byte(id)},
		Field{Tag: TagSRC, Value: EncodeAddress(src)},
		Field{Tag: TagMAP, Value: EncodeAddress(mapped)},
		Field{Tag: TagTIME, Value: ts},
		Field{Tag: TagSIGN, Value: sign},
	)
}
