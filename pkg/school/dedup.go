package school

// phoneIndex maps phone numbers to records, preserving insertion order.
// The first record seen with a phone owns it.
type phoneIndex struct {
	phones  []string
	owners  map[string]struct{}
	records []Record
}

func newPhoneIndex() *phoneIndex {
	return &phoneIndex{
		phones:  make([]string, 0),
		owners:  make(map[string]struct{}),
		records: make([]Record, 0),
	}
}

// Add registers record under each of its phones not owned yet. The stored
// copy only lists the phones it owns, so no two stored records share a
// phone. It reports whether the record was stored.
func (idx *phoneIndex) Add(record Record) bool {
	owned := make([]string, 0, len(record.Phones))

	for _, phone := range record.Phones {
		if _, exists := idx.owners[phone]; exists {
			continue
		}

		idx.owners[phone] = struct{}{}
		idx.phones = append(idx.phones, phone)
		owned = append(owned, phone)
	}

	if len(owned) == 0 {
		return false
	}

	record.Phones = owned
	idx.records = append(idx.records, record)

	return true
}

// Phones returns the known phones in insertion order.
func (idx *phoneIndex) Phones() []string {
	return append([]string(nil), idx.phones...)
}

// Records returns the stored records in the order their first phone was
// inserted.
func (idx *phoneIndex) Records() []Record {
	return append(make([]Record, 0, len(idx.records)), idx.records...)
}

// Deduplicate keeps, for each phone number, the first record carrying it.
// Records without phone numbers are dropped.
func Deduplicate(records []Record) []Record {
	idx := newPhoneIndex()

	for _, r := range records {
		idx.Add(r)
	}

	return idx.Records()
}
