package chat

import "fmt"

// Convertible is implemented by application-side record types that can
// be lowered to a canonical Message. Message itself satisfies it, so
// APIs written against Convertible accept plain messages too.
type Convertible interface {
	ToMessage() (Message, error)
}

// ToMessage returns m unchanged.
func (m Message) ToMessage() (Message, error) { return m, nil }

// ConvertMessages lowers a slice of records to canonical messages and
// validates each one. Errors identify the index of the failing record.
func ConvertMessages[M Convertible](records []M) ([]Message, error) {
	msgs := make([]Message, len(records))
	for i, r := range records {
		m, err := r.ToMessage()
		if err != nil {
			return nil, fmt.Errorf("converting message at index %d: %w", i, err)
		}
		if err := m.validateAt(i); err != nil {
			return nil, err
		}
		msgs[i] = m
	}
	return msgs, nil
}
