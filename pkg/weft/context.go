package weft

// contextKey gives each provided type its own map key, so context
// lookups are typed without string keys colliding.
type contextKey[T any] struct{}

// ProvideContext stores a value of type T on the current Owner.
// Descendant scopes retrieve it with UseContext[T]. One value per type
// per scope; providing again in a child scope shadows the parent's.
func ProvideContext[T any](value T) {
	if owner := getCurrentOwner(); owner != nil {
		owner.SetValue(contextKey[T]{}, value)
	}
}

// UseContext retrieves the nearest provided value of type T, walking up
// the owner tree from the current scope. Reports false if no scope
// provided one.
func UseContext[T any]() (T, bool) {
	var zero T
	owner := getCurrentOwner()
	if owner == nil {
		return zero, false
	}

	v, ok := owner.lookupValue(contextKey[T]{})
	if !ok {
		return zero, false
	}
	return v.(T), true
}

// SetValue stores a keyed context value on this Owner, visible to
// descendant scopes via GetValue.
func (o *Owner) SetValue(key, value any) {
	if o.disposed.Load() {
		return
	}

	o.valuesMu.Lock()
	defer o.valuesMu.Unlock()

	if o.values == nil {
		o.values = make(map[any]any)
	}
	o.values[key] = value
}

// GetValue retrieves a context value from this Owner or the nearest
// ancestor that has it. Returns nil if no scope provides the key.
func (o *Owner) GetValue(key any) any {
	v, _ := o.lookupValue(key)
	return v
}

func (o *Owner) lookupValue(key any) (any, bool) {
	o.valuesMu.RLock()
	if o.values != nil {
		if val, ok := o.values[key]; ok {
			o.valuesMu.RUnlock()
			return val, true
		}
	}
	o.valuesMu.RUnlock()

	if o.parent != nil {
		return o.parent.lookupValue(key)
	}

	return nil, false
}
