package comparison

import "context"

// readOnlyStore wraps a Store with a no-op StoreFields so diagnostic
// and preview runs share the live lookup paths without mutating
// history.
type readOnlyStore struct {
	Store
}

func (readOnlyStore) StoreFields(context.Context, string, []FieldHash) error {
	return nil
}

// ReadOnly returns a store whose writes are discarded.
func ReadOnly(store Store) Store {
	return readOnlyStore{Store: store}
}
