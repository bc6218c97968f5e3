package index

import (
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/bastiangx/shelfserve/pkg/catalog"
)

// RecordStore maps record ids to records. Each record also gets a dense
// ordinal, which is what the trie bitmaps hold.
type RecordStore struct {
	records []catalog.Record
	byID    map[string]uint32
}

func newRecordStore(capacity int) *RecordStore {
	return &RecordStore{
		records: make([]catalog.Record, 0, capacity),
		byID:    make(map[string]uint32, capacity),
	}
}

// put stores a private copy of r. A repeated id replaces the record under
// its existing ordinal.
func (s *RecordStore) put(r catalog.Record) uint32 {
	r.Subjects = slices.Clone(r.Subjects)
	if ord, ok := s.byID[r.ID]; ok {
		s.records[ord] = r
		return ord
	}
	ord := uint32(len(s.records))
	s.records = append(s.records, r)
	s.byID[r.ID] = ord
	return ord
}

// Get looks a record up by id.
func (s *RecordStore) Get(id string) (catalog.Record, bool) {
	ord, ok := s.byID[id]
	if !ok {
		return catalog.Record{}, false
	}
	return s.records[ord], true
}

// At looks a record up by ordinal.
func (s *RecordStore) At(ordinal uint32) (catalog.Record, bool) {
	if int(ordinal) >= len(s.records) {
		return catalog.Record{}, false
	}
	return s.records[ordinal], true
}

// Len is the number of stored records.
func (s *RecordStore) Len() int {
	return len(s.records)
}

// SampleIDs returns up to n record ids from bm in ordinal order.
func (s *RecordStore) SampleIDs(bm *roaring.Bitmap, n int) []string {
	if bm == nil || n <= 0 {
		return nil
	}
	ids := make([]string, 0, min(n, int(bm.GetCardinality())))
	it := bm.Iterator()
	for it.HasNext() && len(ids) < n {
		if r, ok := s.At(it.Next()); ok {
			ids = append(ids, r.ID)
		}
	}
	return ids
}
