package core

// ComponentVersion is reported by every component after initialization.
const ComponentVersion uint64 = 1

func initializeOnce(f *Frame, contract Account) error {
	key := stateKey(contract, "initialized")
	done, err := f.loadFlag(key)
	if err != nil {
		return err
	}
	if done {
		return errAlreadyInitialized()
	}
	if err := f.storeFlag(key, true); err != nil {
		return err
	}
	return f.storeUint(stateKey(contract, "version"), ComponentVersion)
}

func requireInitialized(f *Frame, contract Account, component string) error {
	done, err := f.loadFlag(stateKey(contract, "initialized"))
	if err != nil {
		return err
	}
	if !done {
		return errNotInitialized(component)
	}
	return nil
}

func readVersion(f *Frame, contract Account) (uint64, error) {
	return f.loadUint(stateKey(contract, "version"))
}

// claimOnce marks key as consumed. It reports false when key was already
// consumed by an earlier operation.
func claimOnce(f *Frame, key string) (bool, error) {
	seen, err := f.loadFlag(key)
	if err != nil {
		return false, err
	}
	if seen {
		return false, nil
	}
	return true, f.storeFlag(key, true)
}

func resolveContract[T Contract](f *Frame, address Account, component string, kind string) (T, error) {
	var zero T
	if IsZeroAccount(address) {
		return zero, errNotInitialized(component)
	}
	contract, ok := f.host.Contract(address)
	if !ok {
		return zero, errInvalidState("%s: %s %s is not deployed", component, kind, address.Hex())
	}
	typed, ok := contract.(T)
	if !ok {
		return zero, errInvalidState("%s: %s is not a %s", component, address.Hex(), kind)
	}
	return typed, nil
}
