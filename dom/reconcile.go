package dom

// ReconcileArrays moves the children of parent from a to b with as few
// operations as possible. Nodes present in both keep their identity; nodes
// only in a are removed. a is reused as scratch space.
//
// Matching prefixes and suffixes are skipped before anything is allocated,
// so reconciling equal arrays costs one pass and no allocation.
func ReconcileArrays(doc Document, parent Node, a, b []Node) {
	if len(a) == 0 {
		for _, n := range b {
			doc.InsertBefore(parent, n, nil)
		}
		return
	}

	var (
		bLength = len(b)
		aEnd    = len(a)
		bEnd    = bLength
		aStart  = 0
		bStart  = 0
		after   = a[aEnd-1].NextSibling()
		index   map[Node]int
	)

	for aStart < aEnd || bStart < bEnd {
		// common prefix
		if aStart < aEnd && bStart < bEnd && a[aStart] == b[bStart] {
			aStart++
			bStart++
			continue
		}

		// common suffix
		for aEnd > aStart && bEnd > bStart && a[aEnd-1] == b[bEnd-1] {
			aEnd--
			bEnd--
		}

		switch {
		case aEnd == aStart:
			// only additions left
			var marker Node
			if bEnd < bLength {
				if bStart > 0 {
					marker = b[bStart-1].NextSibling()
				} else {
					marker = b[bEnd-bStart]
				}
			} else {
				marker = after
			}
			for bStart < bEnd {
				doc.InsertBefore(parent, b[bStart], marker)
				bStart++
			}

		case bEnd == bStart:
			// only removals left
			for aStart < aEnd {
				if _, kept := index[a[aStart]]; index == nil || !kept {
					doc.Remove(a[aStart])
				}
				aStart++
			}

		case a[aStart] == b[bEnd-1] && b[bStart] == a[aEnd-1]:
			// swapped ends
			aEnd--
			marker := a[aEnd].NextSibling()
			doc.InsertBefore(parent, b[bStart], a[aStart].NextSibling())
			bStart++
			aStart++
			bEnd--
			doc.InsertBefore(parent, b[bEnd], marker)
			a[aEnd] = b[bEnd]

		default:
			if index == nil {
				index = make(map[Node]int, bEnd-bStart)
				for i := bStart; i < bEnd; i++ {
					index[b[i]] = i
				}
			}

			i, ok := index[a[aStart]]
			if !ok {
				doc.Remove(a[aStart])
				aStart++
				continue
			}
			if i <= bStart || i >= bEnd {
				aStart++
				continue
			}

			// length of the run of a starting at aStart that is also
			// consecutive in b
			sequence := 1
			for j := aStart + 1; j < aEnd && j < bEnd; j++ {
				t, ok := index[a[j]]
				if !ok || t != i+sequence {
					break
				}
				sequence++
			}

			if sequence > i-bStart {
				marker := a[aStart]
				for bStart < i {
					doc.InsertBefore(parent, b[bStart], marker)
					bStart++
				}
			} else {
				doc.Replace(a[aStart], b[bStart])
				aStart++
				bStart++
			}
		}
	}
}
