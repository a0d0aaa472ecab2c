package scan

// Sink receives extracted values.
//
// Emit is called once per mapped field, in document order. EndRecord is
// called when the element object closes. Returning ErrStop from either
// ends the scan cleanly; any other error aborts it.
type Sink interface {
	Emit(key Key, value string) error
	EndRecord() error
}

// Field is one extracted value.
type Field struct {
	Key   Key
	Value string
}

// Record holds the fields extracted from one element object.
type Record []Field

// Get returns the first value stored under key.
func (r Record) Get(key Key) (string, bool) {
	for _, f := range r {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// RecordSink groups emitted fields into Records and hands each one to a
// callback when its object closes. The callback owns the Record.
type RecordSink struct {
	fn  func(Record) error
	cur Record
}

var _ Sink = (*RecordSink)(nil)

func NewRecordSink(fn func(Record) error) *RecordSink {
	return &RecordSink{fn: fn}
}

func (s *RecordSink) Emit(key Key, value string) error {
	s.cur = append(s.cur, Field{Key: key, Value: value})
	return nil
}

func (s *RecordSink) EndRecord() error {
	rec := s.cur
	s.cur = nil
	return s.fn(rec)
}
