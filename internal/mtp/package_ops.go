package mtp

// Create builds one or more Packages carrying body. A single packet is
// emitted when |body| <= MaxBodyLen or t is not Message; a larger Message
// body is partitioned by Split into MessageFragment packets sharing one SN.
// sn of 0 requests a fresh SN from the process-wide generator.
func Create(t PacketType, sn uint32, body []byte) []Package {
	if sn == 0 {
		sn = NextSN()
	}
	if len(body) <= MaxBodyLen || t != Message {
		return []Package{{Head: Header{Type: t, SN: sn, Pages: 1, Offset: 0, BodyLen: uint32(len(body))}, Body: body}}
	}
	return Split(sn, body)
}

// Split partitions body into ceil(len/MaxBodyLen) MessageFragment packets,
// each sharing sn, with pages set to the fragment count and offset its
// index. Only the Message type may be split.
func Split(sn uint32, body []byte) []Package {
	pages := (len(body) + MaxBodyLen - 1) / MaxBodyLen
	if pages == 0 {
		pages = 1
	}
	out := make([]Package, 0, pages)
	for i := 0; i < pages; i++ {
		start := i * MaxBodyLen
		end := start + MaxBodyLen
		if end > len(body) {
			end = len(body)
		}
		out = append(out, Package{
			Head: Header{
				Type:    MessageFragment,
				SN:      sn,
				Pages:   uint32(pages),
				Offset:  uint32(i),
				BodyLen: uint32(end - start),
			},
			Body: body[start:end],
		})
	}
	return out
}

// AssembleFragments concatenates a complete set of fragments (same sn,
// same pages, every offset in [0, pages) present exactly once in any
// order) into a single Message-typed package. It returns false if
// fragments is not yet complete or is inconsistent (mixed sn/pages, an
// offset outside [0, pages)).
//
// Duplicate offsets resolve first-wins: the first fragment seen at a given
// offset is kept and later duplicates for that offset are ignored, rather
// than erroring — UDP retransmission can legitimately deliver the same
// fragment twice.
func AssembleFragments(fragments []Package) (Package, bool) {
	if len(fragments) == 0 {
		return Package{}, false
	}
	sn := fragments[0].Head.SN
	pages := fragments[0].Head.Pages
	slots := make([][]byte, pages)
	seen := make([]bool, pages)
	count := 0
	for _, f := range fragments {
		if f.Head.SN != sn || f.Head.Pages != pages {
			return Package{}, false
		}
		if f.Head.Offset >= pages {
			return Package{}, false
		}
		if seen[f.Head.Offset] {
			continue
		}
		seen[f.Head.Offset] = true
		slots[f.Head.Offset] = f.Body
		count++
	}
	if uint32(count) != pages {
		return Package{}, false
	}

	var body []byte
	for _, s := range slots {
		body = append(body, s...)
	}
	return Package{Head: Header{Type: Message, SN: sn, Pages: 1, Offset: 0, BodyLen: uint32(len(body))}, Body: body}, true
}
